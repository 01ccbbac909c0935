package student

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core"
)

const DateLayout = "2006-01-02"

type Student struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"studentId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	DOB            Date      `json:"dob"`
	Department     string    `json:"department"`
	EnrollmentYear int       `json:"enrollmentYear"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
}

// FullName is used by listings.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Date is a calendar day serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate drops the clock part of t, keeping the day as written in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" and RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, errors.Errorf("invalid date %q", s)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding date")
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewStudent contains information needed to create a new Student.
// It is also the draft edited by client forms, so the rules below are shared by both sides.
type NewStudent struct {
	StudentID      string `json:"studentId" validate:"required,alphanum"`
	FirstName      string `json:"firstName" validate:"required,min=2"`
	LastName       string `json:"lastName" validate:"required,min=2"`
	Email          string `json:"email" validate:"required,email"`
	DOB            string `json:"dob" validate:"required,datetime=2006-01-02,notfuture"`
	Department     string `json:"department" validate:"required"`
	EnrollmentYear int    `json:"enrollmentYear" validate:"required,enrollyear"`
	IsActive       *bool  `json:"isActive,omitempty"`
}

// Clean trims every string field, lowers the email and normalizes the date of birth.
func (ns *NewStudent) Clean() {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.DOB = core.CleanString(ns.DOB)
	if dob, err := ParseDate(ns.DOB); err == nil {
		ns.DOB = dob.String()
	}
	ns.Department = core.CleanString(ns.Department)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// Active returns IsActive, defaulting to true when omitted.
func (ns NewStudent) Active() bool {
	if ns.IsActive == nil {
		return true
	}
	return *ns.IsActive
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields are left untouched.
type UpdateStudent struct {
	StudentID      *string `json:"studentId,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Email          *string `json:"email,omitempty"`
	DOB            *string `json:"dob,omitempty"`
	Department     *string `json:"department,omitempty"`
	EnrollmentYear *int    `json:"enrollmentYear,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func (us UpdateStudent) IsEmpty() bool {
	return us.StudentID == nil && us.FirstName == nil && us.LastName == nil && us.Email == nil &&
		us.DOB == nil && us.Department == nil && us.EnrollmentYear == nil && us.IsActive == nil
}

// Merge overlays the provided fields onto orig. The result is cleaned and ready for validation.
func (us UpdateStudent) Merge(orig Student) NewStudent {
	isActive := orig.IsActive
	ns := NewStudent{
		StudentID:      orig.StudentID,
		FirstName:      orig.FirstName,
		LastName:       orig.LastName,
		Email:          orig.Email,
		DOB:            orig.DOB.String(),
		Department:     orig.Department,
		EnrollmentYear: orig.EnrollmentYear,
		IsActive:       &isActive,
	}
	if us.StudentID != nil {
		ns.StudentID = *us.StudentID
	}
	if us.FirstName != nil {
		ns.FirstName = *us.FirstName
	}
	if us.LastName != nil {
		ns.LastName = *us.LastName
	}
	if us.Email != nil {
		ns.Email = *us.Email
	}
	if us.DOB != nil {
		ns.DOB = *us.DOB
	}
	if us.Department != nil {
		ns.Department = *us.Department
	}
	if us.EnrollmentYear != nil {
		ns.EnrollmentYear = *us.EnrollmentYear
	}
	if us.IsActive != nil {
		ns.IsActive = us.IsActive
	}
	ns.Clean()
	return ns
}
