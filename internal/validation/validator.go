// Package validation validates configuration structs with validator/v10 and
// reports failures as coded validation errors keyed by dotted field path.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error whose details map
// each failing field path to a message.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidatePrefixed validates a nested struct and reports its fields under
// prefix, e.g. "mylar.url".
func (v *Validator) ValidatePrefixed(prefix string, s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	return v.formatErrorWithPrefix(err, prefix)
}

// Merge combines validation errors from several sections into one.
// Nil errors are ignored; non-validation errors are returned as is.
func Merge(errs ...error) error {
	fields := make(map[string]string)
	for _, err := range errs {
		if err == nil {
			continue
		}
		var domainErr *domainerrors.Error
		if !errors.As(err, &domainErr) || domainErr.Code != domainerrors.CodeValidation {
			return err
		}
		details, ok := domainErr.Details.(map[string]string)
		if !ok {
			return err
		}
		for k, msg := range details {
			fields[k] = msg
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return domainerrors.ValidationWithDetails(summary(fields), fields)
}

func (v *Validator) formatError(err error) error {
	return v.formatErrorWithPrefix(err, "")
}

func (v *Validator) formatErrorWithPrefix(err error, prefix string) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[fieldPath(prefix, e.Namespace())] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails(summary(fieldErrors), fieldErrors)
}

// fieldPath drops the root struct name from a namespace such as
// "MylarConfig.url" and applies prefix.
func fieldPath(prefix, namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	if prefix == "" {
		return path
	}
	return prefix + "." + path
}

// summary lists the failing fields in a stable order.
func summary(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + fields[k]
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url", "http_url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "startswith":
		return "must start with " + e.Param()
	default:
		return "is invalid"
	}
}
