package core

// Logger is any service that can log messages and report errors.
// expected args: error | map[string]interface{} | Person
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the API caller an error is reported for.
type Person struct {
	ID       string
	Username string
	Email    string
}
