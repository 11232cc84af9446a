// Package validation turns struct validation failures into a field tree and
// renders its first message for API responses.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lagimmo/api/internal/apperr"
)

const fallbackMessage = "validation failed"

// FieldError is one node of the tree. Leaves carry a message, inner nodes
// carry children (nested structs and slice elements).
type FieldError struct {
	Field    string        `json:"field"`
	Message  string        `json:"message,omitempty"`
	Children []*FieldError `json:"children,omitempty"`
}

// Error is a validation failure with its field tree.
type Error struct {
	Fields []*FieldError
}

func (e *Error) Error() string {
	return FirstMessage(e.Fields)
}

// FirstMessage walks the first branch down to its first leaf message.
func FirstMessage(fields []*FieldError) string {
	if len(fields) == 0 {
		return fallbackMessage
	}
	first := fields[0]
	if len(first.Children) > 0 {
		return FirstMessage(first.Children)
	}
	if first.Message == "" {
		return fallbackMessage
	}
	return first.Message
}

// Configure makes the validator report json field names.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

// FromBinding classifies an error returned by gin's Should* binders.
func FromBinding(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		vErr := &Error{Fields: Tree(verrs)}
		return apperr.Wrap(apperr.KindValidation, vErr.Error(), vErr)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return apperr.Validation(fmt.Sprintf("%s has an invalid type", typeErr.Field))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validation("malformed request body")
	}
	return apperr.Wrap(apperr.KindValidation, "invalid request", err)
}

// New builds a single-field validation error.
func New(field, message string) error {
	vErr := &Error{Fields: []*FieldError{{Field: field, Message: message}}}
	return apperr.Wrap(apperr.KindValidation, message, vErr)
}

// Details returns the field tree carried by err, if any.
func Details(err error) []*FieldError {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Fields
	}
	return nil
}

// Tree groups flat validator errors by namespace.
func Tree(verrs validator.ValidationErrors) []*FieldError {
	var roots []*FieldError
	for _, fe := range verrs {
		path := splitNamespace(fe.Namespace())
		if len(path) == 0 {
			path = []string{fe.Field()}
		}

		level := &roots
		for i, segment := range path {
			node := findOrAppend(level, segment)
			if i == len(path)-1 {
				node.Message = message(fe)
				break
			}
			level = &node.Children
		}
	}
	return roots
}

func splitNamespace(ns string) []string {
	parts := strings.Split(ns, ".")
	if len(parts) <= 1 {
		return parts
	}
	// first segment is the root struct name
	return parts[1:]
}

func findOrAppend(level *[]*FieldError, field string) *FieldError {
	for _, node := range *level {
		if node.Field == field {
			return node
		}
	}
	node := &FieldError{Field: field}
	*level = append(*level, node)
	return node
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return field + " must contain unique values"
	case "min", "gte":
		switch {
		case isString:
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case isCollection:
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		switch {
		case isString:
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case isCollection:
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, fe.Param())
	}
	return field + " is invalid"
}
