// Package logsvc writes the app logs to a std logger and reports them to Rollbar:
// server errors of the API along with the admin behind the request, database readiness,
// maintenance jobs, stored files and mails that could not be sent.
package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/crreddy/polysis/core"
)

// RollbarLogger accepts, after the message:
//   - an error, reported with its stack trace
//   - "key", value pairs or a map[string]interface{}, sent as extras
//   - a core.Person, the admin the report is about
type RollbarLogger struct {
	std    *log.Logger
	fields map[string]interface{}
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable turns reporting to Rollbar on or off; local output is always written.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// With returns a logger sharing l's output that adds key to the extras of every entry, eg. the component.
func (l *RollbarLogger) With(key string, val interface{}) *RollbarLogger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = val
	return &RollbarLogger{std: l.std, fields: fields}
}

type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	person *core.Person
}

func (l *RollbarLogger) newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{}, len(l.fields)+len(args)/2)}
	for k, v := range l.fields {
		e.extras[k] = v
	}

	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case core.Person:
			if e.person == nil { // only one per report
				p := arg
				e.person = &p
			}
		case error:
			if e.err == nil {
				e.err = arg
			} else {
				e.extras[fmt.Sprintf("error_%d", i)] = arg.Error()
			}
		case map[string]interface{}:
			for k, v := range arg {
				e.extras[k] = v
			}
		case string:
			if i+1 == len(args) {
				e.extras[fmt.Sprintf("arg_%d", i)] = arg
				continue
			}
			val := args[i+1]
			if err, ok := val.(error); ok {
				val = err.Error()
			}
			e.extras[arg] = val
			i++
		default:
			e.extras[fmt.Sprintf("arg_%d", i)] = arg
		}
	}
	return e
}

// rollbarArgs only holds types rollbar-go knows: the message, the error and the extras.
func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if len(e.extras) > 0 {
		args = append(args, e.extras)
	}
	return args
}

func (e entry) String() string {
	var b strings.Builder
	b.WriteString(e.msg)

	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	if e.person != nil {
		_, _ = fmt.Fprintf(&b, " admin=%s", e.person.Email)
	}
	return b.String()
}

func (l *RollbarLogger) log(report func(...interface{}), msg string, args []interface{}) entry {
	e := l.newEntry(msg, args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(e.rollbarArgs()...)

	_ = l.std.Output(3, e.String())
	if e.err != nil {
		_ = l.std.Output(3, fmt.Sprintf("%+v", e.err))
	}
	return e
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.Critical, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
