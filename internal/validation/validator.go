// Package validation wraps go-playground/validator with a shared instance and
// converts field failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/skinlens/backend/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// ValidateStruct validates s and returns the first failure as a
// *domain.ValidationError, or nil.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	return domain.NewValidationError(fieldPath(fe), translateError(fe))
}

// ValidateProfile checks a user profile supplied by the profile collaborator.
func ValidateProfile(p domain.UserProfile) error {
	return ValidateStruct(&p)
}

// ValidateAnalysis checks an analysis supplied by a client rather than
// produced by the scoring engine.
func ValidateAnalysis(a domain.ProductAnalysis) error {
	return ValidateStruct(&a)
}

var errorMessageTemplates = map[string]string{
	"required": "is required",
	"oneof":    "must be one of [%p]",
	"min":      "must be at least %p",
	"max":      "must be at most %p",
	"gte":      "must be greater than or equal to %p",
	"lte":      "must be less than or equal to %p",
	"gt":       "must be greater than %p",
}

func translateError(fe validator.FieldError) string {
	tmpl, ok := errorMessageTemplates[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return strings.ReplaceAll(tmpl, "%p", fe.Param())
}

// fieldPath drops the root struct name from the namespace, e.g.
// "UserProfile.skinType" becomes "skinType".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// jsonFieldName reports fields by their JSON name so messages match the API.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// UseJSONFieldNames makes another validator instance, such as the one gin
// binds requests with, report fields by their JSON name.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
}

// FromBindingError converts a request binding failure into a
// *domain.ValidationError. Malformed JSON keeps the decoder's message.
func FromBindingError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(fieldPath(fe), translateError(fe))
	}
	return domain.NewValidationError("body", err.Error())
}
