package main

import (
	"context"

	"github.com/trezcool/studentrecords/core/student"
)

// addStudent creates a student straight through the service, bypassing the API.
func (cli *commandLine) addStudent(ns student.NewStudent) (student.Student, error) {
	return cli.studentSvc.Create(context.Background(), ns)
}
