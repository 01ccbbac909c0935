package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries every failing field of a payload at once.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldValidationError is a ValidationError on a single field.
func NewFieldValidationError(err error, field, msg string) error {
	return NewValidationError(err, FieldError{Field: field, Error: msg})
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "invalid data"
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// DuplicateError is returned when a write would break a uniqueness constraint on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func NewDuplicateError(field string, err error) error {
	return &DuplicateError{Field: field, Err: err}
}

func (err DuplicateError) Error() string {
	return err.Err.Error()
}

func (err DuplicateError) Unwrap() error {
	return err.Err
}

// DuplicateField returns the field named by a DuplicateError found in err's chain.
func DuplicateField(err error) (string, bool) {
	var dErr *DuplicateError
	if errors.As(err, &dErr) {
		return dErr.Field, true
	}
	return "", false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
