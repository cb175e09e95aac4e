package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var personNamePattern = regexp.MustCompile(`^[A-Za-z ]{2,60}$`)

// RegisterValidators adds the custom binding tags to gin's validator engine
// and reports fields by their json name.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not validator/v10")
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		return err
	}
	return v.RegisterValidation("personname", personName)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func personName(fl validator.FieldLevel) bool {
	return personNamePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

// FormatValidationErrors turns binding failures into per-field messages.
// The second result is false when err is not a validation failure.
func FormatValidationErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			out[field] = field + " is required"
		case "notblank":
			out[field] = field + " must not be blank"
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, param)
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "email":
			out[field] = field + " must be a valid email"
		case "uuid":
			out[field] = field + " must be a valid id"
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
		case "personname":
			out[field] = field + " must be 2 to 60 letters or spaces"
		default:
			out[field] = field + " is invalid"
		}
	}
	return out, true
}
