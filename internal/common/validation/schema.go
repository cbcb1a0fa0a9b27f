package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.Message
	}
	return messages
}

// HasErrors reports whether field already has an error.
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// SendRequestValidator checks inbound {userId, companyId, type} documents.
type SendRequestValidator struct {
	schema *gojsonschema.Schema
	types  []string
}

// NewSendRequestValidator compiles the request schema with type restricted to types.
func NewSendRequestValidator(types []string) (*SendRequestValidator, error) {
	allowed := append([]string(nil), types...)

	enum := make([]interface{}, len(allowed))
	for i, t := range allowed {
		enum[i] = t
	}

	schemaMap := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"userId", "companyId", "type"},
		"properties": map[string]interface{}{
			"userId":    map[string]interface{}{"type": "string", "minLength": 1},
			"companyId": map[string]interface{}{"type": "string", "minLength": 1},
			"type":      map[string]interface{}{"type": "string", "enum": enum},
		},
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &SendRequestValidator{schema: schema, types: allowed}, nil
}

// Validate checks a decoded JSON document, keeping the first violation per field.
func (v *SendRequestValidator) Validate(doc interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		ve := v.translate(desc)
		if out.HasErrors(ve.Field) {
			continue
		}
		out.Errors = append(out.Errors, ve)
	}
	return out, nil
}

// Decode validates body and returns the request, or a VALIDATION_FAILED error
// whose details list every violation.
func (v *SendRequestValidator) Decode(body []byte) (models.SendRequest, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.SendRequest{}, errors.NewValidationFailedError("request body must be valid JSON")
	}

	result, err := v.Validate(doc)
	if err != nil {
		return models.SendRequest{}, errors.NewInternalError("request validation failed", err)
	}
	if !result.Valid {
		return models.SendRequest{}, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var req models.SendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return models.SendRequest{}, errors.NewValidationFailedError("request body must be valid JSON")
	}
	return req, nil
}

func (v *SendRequestValidator) translate(desc gojsonschema.ResultError) ValidationError {
	field := desc.Field()

	switch desc.Type() {
	case "required":
		if p, ok := desc.Details()["property"].(string); ok {
			field = p
		}
		return ValidationError{Field: field, Message: field + " is required", Code: "REQUIRED_FIELD_MISSING"}
	case "invalid_type":
		if field == "(root)" {
			return ValidationError{Field: "body", Message: "request body must be a JSON object", Code: "INVALID_TYPE"}
		}
		return ValidationError{Field: field, Message: field + " must be a string", Code: "INVALID_TYPE"}
	case "string_gte":
		return ValidationError{Field: field, Message: field + " should not be empty", Code: "MIN_LENGTH_VIOLATION"}
	case "enum":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be one of: %s", field, strings.Join(v.types, ", ")),
			Code:    "INVALID_ENUM_VALUE",
		}
	default:
		return ValidationError{Field: field, Message: desc.Description(), Code: strings.ToUpper(desc.Type())}
	}
}
