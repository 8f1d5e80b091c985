package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"onboarding/internal/customer/models"
	dErrors "onboarding/pkg/domain-errors"
)

var (
	panPattern    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "pan", func(fl validator.FieldLevel) bool {
		return panPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "pincode", func(fl validator.FieldLevel) bool {
		return models.PincodePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "in_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// NormalizeMobile strips the +91 country code or a trunk 0 from an Indian
// mobile number.
func NormalizeMobile(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "+91"):
		s = strings.TrimSpace(s[3:])
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = s[1:]
	}
	return s
}

// validateStruct runs the struct tags and reports the first failure as a bad request.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return dErrors.New(dErrors.CodeBadRequest, fieldMessage(verrs[0]))
	}
	return dErrors.New(dErrors.CodeBadRequest, "invalid request")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "pan":
		return "Invalid PAN format"
	case "in_mobile":
		return "Invalid Indian mobile number"
	case "pincode":
		return "Pincode must be a valid 6-digit Indian PIN code"
	case "len":
		return field + " must be exactly " + fe.Param() + " characters"
	case "numeric":
		return field + " must contain only digits"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return field + " must be a valid UUID"
	}
	return field + " is invalid"
}
