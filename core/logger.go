package core

// Logger is implemented by every log backend used by the app.
// args may contain errors, maps of extra data or the Claims of the acting admin.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated admin attached to log reports.
type Person struct {
	ID       string
	Username string
	Email    string
}
