package core

// Logger is implemented by the logging services.
// args may carry errors, the *http.Request, the student.Student concerned
// or extra context (map[string]interface{}).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
