package core

// Logger is the application logger.
// args may carry an error, a map[string]interface{} of extras and the acting user.User.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// EventRecorder counts workflow transitions (e.g. "submission", "reviewed").
type EventRecorder interface {
	RecordEvent(resource, action string)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string, string) {}

// NopRecorder discards every event.
var NopRecorder EventRecorder = nopRecorder{}
