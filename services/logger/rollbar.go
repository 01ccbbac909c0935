package logsvc

import (
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
)

// RollbarLogger reports entries to Rollbar and mirrors them to a std logger.
type RollbarLogger struct {
	std *log.Logger
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

// Enable toggles reporting to Rollbar. Entries are always printed to the std logger.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare turns logger args into rollbar args.
// Maps and students are merged into a single extras map, anything else
// (error, *http.Request) is passed through.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := []interface{}{msg}
	var extras map[string]interface{}

	addExtra := func(key string, val interface{}) {
		if extras == nil {
			extras = make(map[string]interface{})
		}
		extras[key] = val
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case map[string]interface{}:
			for k, v := range a {
				addExtra(k, v)
			}
		case student.Student:
			addExtra("student", map[string]interface{}{
				"id":        a.ID,
				"studentId": a.StudentID,
			})
		default:
			newArgs = append(newArgs, a)
		}
	}
	if extras != nil {
		newArgs = append(newArgs, extras)
	}
	return newArgs
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		if req, ok := arg.(*http.Request); ok {
			l.std.Printf("%s %s", req.Method, req.URL.Path)
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
