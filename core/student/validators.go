package student

import (
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studentrecords/core"
)

const MinEnrollmentYear = 2000

var (
	NowFunc = time.Now // mockable

	enrollYearTag  = "enrollyear"
	enrollYearText = "must be between {0} and {1}"

	notFutureTag  = "notfuture"
	notFutureText = "date of birth cannot be in the future"
)

// InitValidators registers the student rules on validate.
// The same rules run in the API and in client forms.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(enrollYearTag, enrollYearValidation)
	_ = validate.RegisterTranslation(
		enrollYearTag, translator,
		func(t ut.Translator) error { return t.Add(enrollYearTag, enrollYearText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(enrollYearTag, strconv.Itoa(MinEnrollmentYear), strconv.Itoa(CurrentYear()))
			return s
		},
	)

	_ = validate.RegisterValidation(notFutureTag, notFutureValidation)
	core.RegisterCustomTranslation(validate, translator, notFutureTag, notFutureText)
}

// NewValidator returns a validator and translator loaded with the core and student rules.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

// CurrentYear is evaluated on every call so that the enrollment bound follows the calendar.
func CurrentYear() int {
	return NowFunc().Year()
}

// Custom Validators

// enrollYearValidation checks that the year is within [MinEnrollmentYear, current year].
func enrollYearValidation(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= MinEnrollmentYear && year <= CurrentYear()
}

// notFutureValidation rejects dates after today. Unparseable values are left to the datetime rule.
func notFutureValidation(fl validator.FieldLevel) bool {
	d, err := ParseDate(fl.Field().String())
	if err != nil {
		return true
	}
	return !d.After(NewDate(NowFunc()).Time)
}
