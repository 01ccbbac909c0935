package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // debug endpoints
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/studentrecords/apps/api/echo"
	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
	logsvc "github.com/trezcool/studentrecords/services/logger"
	"github.com/trezcool/studentrecords/storage/database"
)

func newLogger(prefix string, conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

func main() {
	conf := core.NewConfig()
	logger := newLogger("API", conf)

	if err := run(conf, logger, newLogger("DB", conf)); err != nil {
		logger.Fatal(err.Error(), err)
	}
	logger.Info("Application stopped")
}

func run(conf *core.Config, logger, dbLogger core.Logger) error {
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

	store, err := database.Open(context.Background(), conf)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	dbLogger.Info(fmt.Sprintf("connected to %s database", conf.Database.Driver))

	validate, translator := student.NewValidator()
	studentSvc := student.NewService(store.Students, validate)

	startDebugServer(conf, logger, studentSvc)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		StudentSvc: studentSvc,
		Validate:   validate,
		Translator: translator,
	})
	go server.Start()
	logger.Info(fmt.Sprintf("API listening on %s (%s)", conf.Server.Address(), conf.Env))

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
		return nil
	}
}

// startDebugServer serves /debug/pprof (registered by net/http/pprof) and
// /debug/vars (expvar) on conf.Server.DebugHost.
func startDebugServer(conf *core.Config, logger core.Logger, studentSvc *student.Service) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Driver)
	expvar.Publish("students", expvar.Func(func() interface{} {
		students, err := studentSvc.QueryAll(context.Background())
		if err != nil {
			return err.Error()
		}
		return len(students)
	}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}
