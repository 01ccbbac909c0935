package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
	"github.com/trezcool/studentrecords/storage/database"
	dummydb "github.com/trezcool/studentrecords/storage/database/dummy"
	mongorepos "github.com/trezcool/studentrecords/storage/database/mongo"
	sqlxrepos "github.com/trezcool/studentrecords/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	ctx := context.Background()

	validate, translator := student.NewValidator()
	cli := commandLine{}

	// set up DB; no automatic migration here, that is what `migrate` is for
	var repo student.Repository
	switch conf.Database.Driver {
	case core.DriverPostgres:
		db, err := database.OpenSQL(ctx, conf)
		errAndDie(err)
		defer db.Close()
		cli.sqlDB = db.DB
		repo = sqlxrepos.NewStudentRepository(db)
	case core.DriverMongo:
		db, err := mongorepos.Open(ctx, conf)
		errAndDie(err)
		defer mongorepos.Close(ctx, db) // nolint
		cli.mongoDB = db
		repo = mongorepos.NewStudentRepository(db)
	default:
		db, _ := dummydb.Open()
		repo = dummydb.NewStudentRepository(db)
	}
	cli.studentSvc = student.NewService(repo, validate)

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if flds := core.FieldErrors(err, translator); flds != nil {
				for field, msg := range flds {
					logger.Printf("%s: %s", field, msg)
				}
			}
			logger.Printf("\nerror: %s\n", errors.Cause(err))
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
