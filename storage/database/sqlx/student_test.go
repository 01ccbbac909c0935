package sqlxrepos

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core/student"
)

func Test_uniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		wantCause error
	}{
		{
			name: "student_id constraint",
			err:  &pq.Error{Code: uniqueViolationCode, Constraint: studentIDConstraint},
			want: student.ErrStudentIDExists,
		},
		{
			name: "email constraint",
			err:  &pq.Error{Code: uniqueViolationCode, Constraint: emailConstraint},
			want: student.ErrEmailExists,
		},
		{
			name: "other constraint",
			err:  &pq.Error{Code: uniqueViolationCode, Constraint: "students_pkey"},
		},
		{
			name: "other code",
			err:  &pq.Error{Code: "23502", Constraint: emailConstraint},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueViolation(tt.err, "inserting student")
			if tt.want != nil {
				if got != tt.want {
					t.Errorf("uniqueViolation() = %v, want %v", got, tt.want)
				}
				return
			}
			if errors.Cause(got) != tt.err {
				t.Errorf("uniqueViolation() cause = %v, want %v", errors.Cause(got), tt.err)
			}
		})
	}
}

func Test_parseID(t *testing.T) {
	id := "0B7D2A5E-1C1B-4F57-9D3A-6E3B7B8A1F00"
	got, err := parseID(id)
	if err != nil || got != "0b7d2a5e-1c1b-4f57-9d3a-6e3b7b8a1f00" {
		t.Errorf("parseID(%q) = %q, %v", id, got, err)
	}

	for _, id := range []string{"", "nope", "5f1b1c9e8a4e2b3c4d5e6f70"} {
		if _, err := parseID(id); err != student.ErrNotFound {
			t.Errorf("parseID(%q) error = %v, want %v", id, err, student.ErrNotFound)
		}
	}
}

func Test_studentRow(t *testing.T) {
	dob, _ := student.ParseDate("2001-05-01")
	now := time.Now().UTC().Truncate(time.Millisecond)
	s := student.Student{
		ID:             "0b7d2a5e-1c1b-4f57-9d3a-6e3b7b8a1f00",
		StudentID:      "A100",
		FirstName:      "Jo",
		LastName:       "Doe",
		Email:          "jo@x.com",
		DOB:            dob,
		Department:     "CS",
		EnrollmentYear: 2020,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if got := newStudentRow(s).toStudent(); got != s {
		t.Errorf("toStudent() = %+v, want %+v", got, s)
	}
}
