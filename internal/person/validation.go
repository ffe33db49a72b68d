package person

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wichananm65/persons-service/internal/interface/presenter"
)

var phoneNumberPattern = regexp.MustCompile(`^\+?[0-9]{1,3}-[0-9\s]{7,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneNumberPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("sex", func(fl validator.FieldLevel) bool {
		_, err := ParseSex(fl.Field().String())
		return err == nil
	})
	return v
}

// validatePayload returns one FieldError per violated constraint, or nil.
func validatePayload(payload any) ([]presenter.FieldError, error) {
	err := validate.Struct(payload)
	if err == nil {
		return nil, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, err
	}
	out := make([]presenter.FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, presenter.FieldError{
			Field:         fieldPath(fe),
			Message:       fieldMessage(fe),
			RejectedValue: fe.Value(),
		})
	}
	return out, nil
}

// fieldPath drops the struct name from the namespace, e.g.
// "PersonDTO.emailAddresses[1]" becomes "emailAddresses[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if i := strings.Index(field, "["); i >= 0 {
		field = field[:i]
	}
	element := fe.Field() != field

	switch field {
	case "name":
		return "Name is required"
	case "surname":
		return "Surname is required"
	case "pin":
		switch fe.Tag() {
		case "len":
			return "PIN must be exactly 11 digits"
		case "number":
			return "PIN must consist of digits only"
		}
		return "PIN is required"
	case "sex":
		if fe.Tag() == "sex" {
			return "Sex must be one of MALE, FEMALE"
		}
		return "Sex is required"
	case "emailAddresses":
		if !element {
			return "At least one email address is required"
		}
		if fe.Tag() == "notblank" {
			return "Email cannot be blank"
		}
		return "Invalid email format"
	case "phoneNumbers":
		if !element {
			return "At least one phone number is required"
		}
		if fe.Tag() == "notblank" {
			return "Phone number cannot be blank"
		}
		return "Invalid phone number"
	}
	return "failed on the '" + fe.Tag() + "' rule"
}
