package tests

import (
	"fmt"
	"os"
	"testing"

	. "github.com/trezcool/studentrecords/apps/api/echo"
	"github.com/trezcool/studentrecords/core/student"
	dummydb "github.com/trezcool/studentrecords/storage/database/dummy"
	"github.com/trezcool/studentrecords/tests"
)

var (
	db          *dummydb.DB
	app         Server
	studentRepo student.Repository
)

func TestMain(m *testing.M) {
	var err error

	// set up DB & repos
	db, err = dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	studentRepo = dummydb.NewStudentRepository(db)

	// set up server
	app = newServer(studentRepo)

	// run tests
	code := m.Run()

	// clean up
	if err = db.Close(); err != nil {
		fmt.Printf("db.Close(): %v", err)
		os.Exit(1)
	}

	os.Exit(code)
}

func newServer(repo student.Repository) Server {
	validate, translator := student.NewValidator()
	return NewServer(
		ServerDeps{
			Conf:       testutil.NewConfig(),
			Logger:     testutil.NopLogger{},
			StudentSvc: student.NewService(repo, validate),
			Validate:   validate,
			Translator: translator,
		},
	)
}
