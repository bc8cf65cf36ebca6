// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	ut "github.com/go-playground/universal-translator"

	"github.com/crreddy/polysis/apps/shared"
	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
	"github.com/crreddy/polysis/core/entity"
	emailsvc "github.com/crreddy/polysis/services/email"
	logsvc "github.com/crreddy/polysis/services/logger"
	"github.com/crreddy/polysis/storage/database"
	inmemdb "github.com/crreddy/polysis/storage/database/inmem"
)

// AdminPassword satisfies the password policy and is not similar to the test admin's attributes.
const AdminPassword = "Sup3r$ecret!"

// Env is a fully wired set of services backed by the in-memory store.
type Env struct {
	Conf       *core.Config
	Logger     *logsvc.RollbarLogger
	Translator ut.Translator
	Store      *inmemdb.DB
	Services   shared.Services
}

// NewLogger returns a logger writing nowhere and never reporting to Rollbar.
func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// PrepareStore returns an empty in-memory store with every index in place.
func PrepareStore(t *testing.T) *inmemdb.DB {
	t.Helper()
	validate, _ := shared.NewValidator()
	store := inmemdb.Open()
	if err := database.EnsureIndexes(context.Background(), store, shared.Indexes(validate)); err != nil {
		t.Fatalf("PrepareStore() failed: %v", err)
	}
	return store
}

// NewEnv wires the services on a fresh in-memory store; mails are captured by the console mock.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	store := PrepareStore(t)
	validate, translator := shared.NewValidator()
	emailsvc.ClearSentMessages()

	return &Env{
		Conf:       conf,
		Logger:     logger,
		Translator: translator,
		Store:      store,
		Services:   shared.NewServices(store, emailsvc.NewConsoleServiceMock(conf, logger), validate, conf),
	}
}

// CreateAdmin creates the configured admin with AdminPassword.
func (env *Env) CreateAdmin(t *testing.T) auth.AdminUser {
	t.Helper()
	usr, err := env.Services.Auth.CreateAdmin(context.Background(), auth.NewAdmin{
		Email:           env.Conf.AdminEmail,
		FirstName:       "Admin",
		LastName:        "User",
		Password:        AdminPassword,
		PasswordConfirm: AdminPassword,
	})
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return usr
}

// AdminToken returns an access token of a freshly created admin.
func (env *Env) AdminToken(t *testing.T) string {
	t.Helper()
	pair, err := env.Services.Auth.Tokens().Generate(env.CreateAdmin(t))
	if err != nil {
		t.Fatalf("AdminToken() failed: %v", err)
	}
	return pair.AccessToken
}

// LastOTP returns the code of the last OTP mail sent.
func LastOTP(t *testing.T) string {
	t.Helper()
	msg, ok := emailsvc.LastMessage()
	if !ok {
		t.Fatal("LastOTP(): no message sent")
	}
	data, ok := msg.TemplateData.(map[string]interface{})
	if !ok {
		t.Fatalf("LastOTP(): unexpected template data %T", msg.TemplateData)
	}
	code, _ := data["Code"].(string)
	return code
}

// Insert creates doc through svc and returns the stored document.
func Insert(t *testing.T, svc *entity.Service, doc core.Document) core.Document {
	t.Helper()
	res, err := svc.Create(context.Background(), doc, "")
	if err != nil {
		t.Fatalf("Insert(%s) failed: %v", svc.Kind().Name, err)
	}
	return res.Data
}
