package links

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateCreateRequest(v *validator.Validate, req CreateLinkRequest) error {
	if err := v.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return errors.Join(msgs...)
	}

	if strings.TrimSpace(req.Title) == "" {
		return errors.New("title cannot be blank")
	}
	return nil
}

func describeFieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "max":
		return fmt.Errorf("%s too long (max %s characters)", field, fe.Param())
	case "http_url":
		return fmt.Errorf("%s must be an absolute http or https url", field)
	default:
		return fmt.Errorf("%s failed %q validation", field, fe.Tag())
	}
}
