package utils

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/truemail-rb/truemail-go"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool
}

var instance *Validator
var once sync.Once
var configuration *truemail.Configuration

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "noreply@mail.allnutrition.dev",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		validate := validator.New(validator.WithRequiredStructEnabled())

		// Report violations under the json field names so error maps line up
		// with the request body.
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		instance = &Validator{
			Validate:    validate,
			VerifyEmail: validateEmail,
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

func validateEmail(email string) bool {
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("password_validation", passwordValidation)
	if err != nil {
		return
	}
}

func passwordValidation(fl validator.FieldLevel) bool {
	var upperLetter, lowerLetter, number, specialChar bool

	value := fl.Field().String()
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialChar = true
		}
	}

	return upperLetter && lowerLetter && number && specialChar
}

// TranslateValidationErrors converts validator violations into a field-keyed
// error map. The second return value is false when err is not a validator
// error at all.
func TranslateValidationErrors(err error) (map[string][]string, bool) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, false
	}

	fieldErrors := make(map[string][]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := fieldError.Field()
		fieldErrors[field] = append(fieldErrors[field], validationMessage(fieldError))
	}
	return fieldErrors, true
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fieldError.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fieldError.Param())
	case "password_validation":
		return "Password must contain an upper case letter, a lower case letter, a number and a special character."
	default:
		return "This field is invalid."
	}
}
