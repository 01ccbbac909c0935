// Package form holds the editable draft of a student before it is sent to the API.
package form

import (
	"context"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/client"
	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
)

// Field names, as used in API field errors.
const (
	FieldStudentID      = "studentId"
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldEmail          = "email"
	FieldDOB            = "dob"
	FieldDepartment     = "department"
	FieldEnrollmentYear = "enrollmentYear"
	FieldIsActive       = "isActive"
)

// Fields lists the editable fields in display order.
var Fields = []string{
	FieldStudentID, FieldFirstName, FieldLastName, FieldEmail,
	FieldDOB, FieldDepartment, FieldEnrollmentYear, FieldIsActive,
}

var (
	ErrUnknownField = errors.New("unknown field")
	ErrLockedField  = errors.New("field cannot be changed")
)

// SubmitFunc receives the cleaned, valid draft.
type SubmitFunc func(ctx context.Context, draft student.NewStudent) error

type Form struct {
	validate   *validator.Validate
	translator ut.Translator

	loaded student.NewStudent // restored by Reset
	draft  student.NewStudent
	locked map[string]bool
	errors map[string]string
}

// New returns a creation form: empty draft, current enrollment year, active.
func New(validate *validator.Validate, translator ut.Translator) *Form {
	active := true
	f := &Form{
		validate:   validate,
		translator: translator,
		loaded: student.NewStudent{
			EnrollmentYear: student.CurrentYear(),
			IsActive:       &active,
		},
		locked: map[string]bool{},
	}
	f.Reset()
	return f
}

// NewEdit returns a form pre-populated with s. The studentId cannot be changed.
func NewEdit(validate *validator.Validate, translator ut.Translator, s student.Student) *Form {
	f := &Form{
		validate:   validate,
		translator: translator,
		locked:     map[string]bool{FieldStudentID: true},
	}
	f.Load(s)
	return f
}

// Load makes s the last-loaded state and resets the draft to it.
func (f *Form) Load(s student.Student) {
	active := s.IsActive
	f.loaded = student.NewStudent{
		StudentID:      s.StudentID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		DOB:            s.DOB.String(),
		Department:     s.Department,
		EnrollmentYear: s.EnrollmentYear,
		IsActive:       &active,
	}
	f.Reset()
}

// Reset restores the last-loaded draft and clears every error.
func (f *Form) Reset() {
	f.draft = copyDraft(f.loaded)
	f.errors = map[string]string{}
}

func (f *Form) Draft() student.NewStudent {
	return copyDraft(f.draft)
}

// Errors returns the field errors currently shown.
func (f *Form) Errors() map[string]string {
	errs := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	return errs
}

func (f *Form) Error(field string) string {
	return f.errors[field]
}

// Set changes one field of the draft and clears that field's error.
func (f *Form) Set(field, value string) error {
	if f.locked[field] {
		return errors.Wrap(ErrLockedField, field)
	}

	switch field {
	case FieldStudentID:
		f.draft.StudentID = value
	case FieldFirstName:
		f.draft.FirstName = value
	case FieldLastName:
		f.draft.LastName = value
	case FieldEmail:
		f.draft.Email = value
	case FieldDOB:
		f.draft.DOB = value
	case FieldDepartment:
		f.draft.Department = value
	case FieldEnrollmentYear:
		year := 0
		if v := core.CleanString(value); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s must be a number", field)
			}
			year = y
		}
		f.draft.EnrollmentYear = year
	case FieldIsActive:
		active, err := strconv.ParseBool(core.CleanString(value))
		if err != nil {
			return errors.Wrapf(err, "%s must be true or false", field)
		}
		f.draft.IsActive = &active
	default:
		return errors.Wrap(ErrUnknownField, field)
	}

	delete(f.errors, field)
	return nil
}

// Validate runs the shared student rules on the draft and shows every failing field.
func (f *Form) Validate() bool {
	_, errs := f.check()
	f.errors = errs
	return len(errs) == 0
}

// Submit validates the draft and hands it to submit when valid.
// Field errors reported by the API are shown like local ones.
func (f *Form) Submit(ctx context.Context, submit SubmitFunc) error {
	draft, errs := f.check()
	f.errors = errs
	if len(errs) > 0 {
		return f.validationError()
	}

	if err := submit(ctx, draft); err != nil {
		var aErr *client.APIError
		if errors.As(err, &aErr) && len(aErr.Fields) > 0 {
			for field, msg := range aErr.Fields {
				f.errors[field] = msg
			}
		}
		return err
	}
	return nil
}

// Changes returns the fields of the draft that differ from the last-loaded state.
func (f *Form) Changes() student.UpdateStudent {
	var us student.UpdateStudent
	curr, orig := copyDraft(f.draft), copyDraft(f.loaded)
	curr.Clean()
	orig.Clean()

	if curr.StudentID != orig.StudentID {
		us.StudentID = &curr.StudentID
	}
	if curr.FirstName != orig.FirstName {
		us.FirstName = &curr.FirstName
	}
	if curr.LastName != orig.LastName {
		us.LastName = &curr.LastName
	}
	if curr.Email != orig.Email {
		us.Email = &curr.Email
	}
	if curr.DOB != orig.DOB {
		us.DOB = &curr.DOB
	}
	if curr.Department != orig.Department {
		us.Department = &curr.Department
	}
	if curr.EnrollmentYear != orig.EnrollmentYear {
		us.EnrollmentYear = &curr.EnrollmentYear
	}
	if curr.Active() != orig.Active() {
		active := curr.Active()
		us.IsActive = &active
	}
	return us
}

// check returns the cleaned draft and its field errors.
func (f *Form) check() (student.NewStudent, map[string]string) {
	draft := copyDraft(f.draft)
	errs := core.FieldErrors(draft.Validate(f.validate), f.translator)
	if errs == nil {
		errs = map[string]string{}
	}
	return draft, errs
}

func (f *Form) validationError() error {
	flds := make([]core.FieldError, 0, len(f.errors))
	for _, field := range Fields {
		if msg, ok := f.errors[field]; ok {
			flds = append(flds, core.FieldError{Field: field, Error: msg})
		}
	}
	return core.NewValidationError(nil, flds...)
}

func copyDraft(ns student.NewStudent) student.NewStudent {
	if ns.IsActive != nil {
		active := *ns.IsActive
		ns.IsActive = &active
	}
	return ns
}
