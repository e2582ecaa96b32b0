// Package validate checks form input before it is sent to the server. It
// wraps a shared go-playground validator with the reservation-specific
// rules and turns failures into short messages fit for a status line.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/labdesk/labctl/pkg/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors is the set of failures for one struct.
type Errors []FieldError

func (es Errors) Error() string {
	if len(es) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the first failure message, for single-line display.
func (es Errors) First() string {
	if len(es) == 0 {
		return ""
	}
	return es[0].Message
}

// Get returns the shared validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		// "HH:mm-HH:mm" with start before end
		validate.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static
			_, _, err := domain.ParseTimeRange(fl.Field().String())
			return err == nil
		})
		validate.RegisterValidation("filetype", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static
			return domain.ValidFileType(fl.Field().String())
		})
	})
	return validate
}

// fieldName reports fields by their JSON (or koanf) name, falling back to
// the Go name for client-only fields.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "koanf"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return splitWords(strings.ReplaceAll(name, "_", " "))
		}
	}
	return splitWords(f.Name)
}

// splitWords turns "confirmPassword" or "ConfirmPassword" into "confirm password".
func splitWords(s string) string {
	var b strings.Builder
	lower := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			if lower {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
			lower = false
		} else {
			lower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Struct validates s. It returns nil or an Errors value.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"numeric":  "%s must contain only digits",
	"timeslot": "%s must look like 08:00-10:00",
	"filetype": "%s must be avatar, lab or document",
}

var paramMessages = map[string]string{
	"eqfield":  "%s must match %s",
	"len":      "%s must be %s characters",
	"oneof":    "%s must be one of: %s",
	"nefield":  "%s must differ from %s",
	"datetime": "%s must match the format %s",
	"gte":      "%s must be at least %s",
	"lte":      "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		if tag == "eqfield" || tag == "nefield" {
			param = splitWords(param)
		}
		if tag == "datetime" {
			param = strings.NewReplacer("2006", "yyyy", "01", "MM", "02", "dd", "15", "HH", "04", "mm").Replace(param)
		}
		return fmt.Sprintf(tmpl, field, param)
	}
	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s is invalid", field)
}
