package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/studentrecords/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	sqlDB      *sql.DB         // postgres driver only
	mongoDB    *mongo.Database // mongo driver only
	studentSvc *student.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (postgres)")
	fmt.Println("  indexes - create the unique indexes on the students collection (mongo)")
	fmt.Println("  addstudent -studentId ID -firstName NAME -lastName NAME -email EMAIL -dob YYYY-MM-DD -department DEPT -year YEAR [-inactive]")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentID := addStudentCmd.String("studentId", "", "The alphanumeric student ID.")
	addFirstName := addStudentCmd.String("firstName", "", "The student's first name.")
	addLastName := addStudentCmd.String("lastName", "", "The student's last name.")
	addEmail := addStudentCmd.String("email", "", "The student's email.")
	addDOB := addStudentCmd.String("dob", "", "The date of birth (YYYY-MM-DD).")
	addDepartment := addStudentCmd.String("department", "", "The department.")
	addYear := addStudentCmd.Int("year", student.CurrentYear(), "The enrollment year.")
	addInactive := addStudentCmd.Bool("inactive", false, "Create the student as inactive.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version|create NAME [go|sql]|fix")
			return errHelp
		}
		return cli.migrate(args[2:])
	case "indexes":
		return cli.ensureIndexes()
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if addStudentCmd.NFlag() == 0 {
			addStudentCmd.Usage()
			return errHelp
		}
		active := !*addInactive
		s, err := cli.addStudent(student.NewStudent{
			StudentID:      *addStudentID,
			FirstName:      *addFirstName,
			LastName:       *addLastName,
			Email:          *addEmail,
			DOB:            *addDOB,
			Department:     *addDepartment,
			EnrollmentYear: *addYear,
			IsActive:       &active,
		})
		if err != nil {
			return err
		}
		fmt.Printf("student %s created (id: %s, enrolled %d)\n", s.StudentID, s.ID, s.EnrollmentYear)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
