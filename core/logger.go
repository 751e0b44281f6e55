package core

// Logger is any leveled logger the services can report through.
// Implementations may inspect trailing args for well-known types
// (eg. a profile.Profile to attach the acting user to a report).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
