// Package validation checks catalog inputs against the field rules shared by
// the HTTP handlers and the use cases.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
)

// MaxIDs is the largest id set a listing request may carry.
const MaxIDs = 100

var patterns = map[string]*regexp.Regexp{
	"title":     regexp.MustCompile(`^[A-Za-z0-9\s\-,.'";!?()&]{1,200}$`),
	"platform":  regexp.MustCompile(`^[A-Za-z0-9\-\s]{1,50}$`),
	"genre":     regexp.MustCompile(`^[A-Za-z\s\-]{1,50}$`),
	"developer": regexp.MustCompile(`^[A-Za-z0-9&.,'\-\s]{1,150}$`),
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, rx := range patterns {
		rx := rx
		if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rx.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
}

// Struct validates s and returns a ParameterInvalid error describing every
// failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.ParameterInvalid("Invalid request: %v", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe))
	}
	return apperr.ParameterInvalid("%s", strings.Join(messages, " "))
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return fmt.Sprintf("'%s' is mandatory.", fe.Field())
	}
	if rx, ok := patterns[fe.Tag()]; ok {
		return fmt.Sprintf("'%s' must match: %s.", fe.Field(), rx.String())
	}
	return fmt.Sprintf("'%s' failed validation for '%s'.", fe.Field(), fe.Tag())
}

// Pattern checks a single filter value against the rule of the same name.
// Empty values pass.
func Pattern(name, value string) error {
	rx, ok := patterns[name]
	if !ok {
		return apperr.Internal("no pattern for '"+name+"'", nil)
	}
	if value == "" {
		return nil
	}
	if err := validate.Var(value, name); err != nil {
		return apperr.ParameterInvalid("'%s' must match: %s.", name, rx.String())
	}
	return nil
}

// ID checks that id is a UUID.
func ID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.ParameterInvalid("'id' must be a valid UUID.")
	}
	return nil
}

// IDList parses a comma separated list of 1..MaxIDs UUIDs.
func IDList(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	if len(parts) > MaxIDs {
		return nil, apperr.ParameterInvalid("'ids' accepts at most %d ids.", MaxIDs)
	}
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := uuid.Parse(p); err != nil {
			return nil, apperr.ParameterInvalid("'ids' must be a comma separated list of UUIDs.")
		}
		ids = append(ids, p)
	}
	return ids, nil
}
