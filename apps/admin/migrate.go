package main

import (
	"context"
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/studentrecords/storage/database"
	mongorepos "github.com/trezcool/studentrecords/storage/database/mongo"
)

var (
	gooseRunFunc        = goose.Run                // mockable
	ensureIndexesFunc   = mongorepos.EnsureIndexes // mockable
	errPostgresRequired = errors.New("migrations require the postgres driver")
	errMongoRequired    = errors.New("indexes require the mongo driver")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.sqlDB == nil {
		return errPostgresRequired
	}
	if err := database.SetupMigrations(); err != nil {
		return err
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.sqlDB, database.MigrationsDir, arguments...)
}

func (cli *commandLine) ensureIndexes() error {
	if cli.mongoDB == nil {
		return errMongoRequired
	}
	return ensureIndexesFunc(context.Background(), cli.mongoDB)
}
