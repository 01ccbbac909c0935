package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
)

// NewConfig returns a TEST configuration backed by the in-memory store.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      core.EnvTest,
		Build:    "test",
		AppName:  "Student Records",
		TestMode: true,
		Server: core.ServerConfig{
			Port:            5000,
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"*"},
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{
			Driver: core.DriverMemory,
			Name:   "students_test",
		},
	}
}

// NewStudentData returns a valid create payload. Email is derived from studentID.
func NewStudentData(studentID, firstName, lastName string) student.NewStudent {
	return student.NewStudent{
		StudentID:      studentID,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          studentID + "@test.cd",
		DOB:            "2001-05-01",
		Department:     "CS",
		EnrollmentYear: 2020,
	}
}

// CreateStudent stores a student straight through the repository.
func CreateStudent(
	t *testing.T,
	repo student.Repository,
	studentID, firstName, lastName, email string,
	isActive bool,
	createdAt ...time.Time,
) student.Student {
	t.Helper()

	tstamp := time.Now().UTC().Truncate(time.Millisecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Millisecond)
	}
	dob, _ := student.ParseDate("2001-05-01")
	s := student.Student{
		StudentID:      studentID,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		DOB:            dob,
		Department:     "CS",
		EnrollmentYear: 2020,
		IsActive:       isActive,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// NopLogger discards every entry.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
