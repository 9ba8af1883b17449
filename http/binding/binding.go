// Package binding decodes and validates JSON request bodies.
package binding

import (
	"fmt"
	"io"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"
	"github.com/leeforge/essentials/json"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// JSON decodes a required body into v and validates it.
func JSON(r *http.Request, v any) error {
	return bind(r, v, false)
}

// OptionalJSON is JSON, except an empty body validates v as is.
func OptionalJSON(r *http.Request, v any) error {
	return bind(r, v, true)
}

func bind(r *http.Request, v any, optional bool) error {
	var body []byte
	if r != nil && r.Body != nil {
		defer r.Body.Close()
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return &BindError{Type: "bind_error", Message: "failed to read request body: " + err.Error()}
		}
	}

	if len(body) == 0 {
		if !optional {
			return &BindError{Type: "bind_error", Message: "request body is empty"}
		}
	} else if err := json.Unmarshal(body, v); err != nil {
		return &BindError{Type: "json_error", Message: "failed to unmarshal JSON: " + err.Error()}
	}

	return validate(v)
}

func validate(v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}
	if validationErrors, ok := err.(validatorV10.ValidationErrors); ok {
		var bindErrors ValidationErrors
		for _, fe := range validationErrors {
			bindErrors = append(bindErrors, BindError{
				Type:    "validation_error",
				Field:   fe.Field(),
				Message: getValidationMessage(fe),
			})
		}
		return bindErrors
	}
	return &BindError{Type: "validation_error", Message: err.Error()}
}
