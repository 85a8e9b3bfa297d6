package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"ovpnsync/internal/publish"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator represents a validator instance
type Validator struct {
	validate *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	once.Do(func() {
		validate = validator.New()

		validate.RegisterValidation("destination", validateDestination)
		validate.RegisterValidation("loglevel", validateLogLevel)

		// Report config keys in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})

	return &Validator{
		validate: validate,
	}
}

// Struct validates a struct
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid validation error: %w", err)
		}

		var errMsgs []string
		for _, err := range err.(validator.ValidationErrors) {
			errMsgs = append(errMsgs, formatError(err))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(errMsgs, "; "))
	}
	return nil
}

// Var validates a single variable
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// formatError formats a validation error
func formatError(err validator.FieldError) string {
	field := err.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch err.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a host:port address", field)
	case "destination":
		return fmt.Sprintf("%s must be a path or %s<path>", field, publish.ExternalFolderPrefix)
	case "loglevel":
		return fmt.Sprintf("%s must be one of debug, info, warn, error", field)
	default:
		return fmt.Sprintf("%s failed on tag %s", field, err.Tag())
	}
}

func validateDestination(fl validator.FieldLevel) bool {
	_, err := publish.ParseDestination(fl.Field().String())
	return err == nil
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "debug", "info", "warn", "error":
		return true
	}
	return false
}
