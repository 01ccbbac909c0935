package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	requiredTag  = "required"
	requiredText = "this field is required"

	alphaNumTag  = "alphanum"
	alphaNumText = "must be alphanumeric"

	minTag  = "min"
	minText = "must be at least {0} characters" // {0}: tag param

	emailTag  = "email"
	emailText = "must be a valid email address"

	datetimeTag  = "datetime"
	datetimeText = "must be a valid date (YYYY-MM-DD)"
)

// CleanString trims the leading and trailing whitespace of s, lowering it when asked to.
// Values are cleaned before validation so blank strings count as missing.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, alphaNumTag, alphaNumText, true)
	RegisterCustomParamTranslation(validate, translator, minTag, minText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	RegisterCustomTranslation(validate, translator, datetimeTag, datetimeText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// RegisterCustomParamTranslation is like RegisterCustomTranslation but fills {0} with the tag param.
func RegisterCustomParamTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Param())
			return s
		},
	)
}

// FieldErrors flattens validation and uniqueness failures into a field -> message map.
// It returns nil when err carries no field information.
func FieldErrors(err error, translator ut.Translator) map[string]string {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		flds := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			if _, ok := flds[vErr.Field()]; !ok {
				flds[vErr.Field()] = vErr.Translate(translator)
			}
		}
		return flds
	case *ValidationError:
		if len(origErr.Fields) == 0 {
			return nil
		}
		return origErr.FieldMap()
	case *DuplicateError:
		return map[string]string{origErr.Field: origErr.Error()}
	}
	return nil
}
