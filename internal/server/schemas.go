// internal/server/schemas.go
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	stderrors "evaldash/internal/common/errors"
)

var scoreProperties = map[string]interface{}{
	"communication":   map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	"support":         map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	"goal_management": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	"leadership":      map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	"problem_solving": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
	"strategy":        map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
}

var generateSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"scores"},
	"properties": map[string]interface{}{
		"scores": map[string]interface{}{
			"type":                 "object",
			"properties":           scoreProperties,
			"additionalProperties": false,
		},
		"template_id": map[string]interface{}{"type": "string"},
	},
	"additionalProperties": false,
}

var recordSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"text"},
	"properties": map[string]interface{}{
		"subject_id": map[string]interface{}{"type": "string"},
		"text":       map[string]interface{}{"type": "string"},
	},
	"additionalProperties": false,
}

var statusUpdateSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"implemented": map[string]interface{}{"type": "boolean"},
		"rating":      map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
		"feedback":    map[string]interface{}{"type": "string"},
	},
	"additionalProperties": false,
}

var cacheTTLSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"hours"},
	"properties": map[string]interface{}{
		"hours": map[string]interface{}{"type": "integer"},
	},
	"additionalProperties": false,
}

var templateSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"name", "body"},
	"properties": map[string]interface{}{
		"id":          map[string]interface{}{"type": "string"},
		"name":        map[string]interface{}{"type": "string", "minLength": 1},
		"description": map[string]interface{}{"type": "string"},
		"body":        map[string]interface{}{"type": "string", "minLength": 1},
	},
	"additionalProperties": false,
}

var metricSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"name", "description", "category", "weight"},
	"properties": map[string]interface{}{
		"name":        map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"category":    map[string]interface{}{"type": "string"},
		"weight":      map[string]interface{}{"type": "number"},
	},
	"additionalProperties": false,
}

// decodeAndValidate reads the request body, validates it against the schema
// and unmarshals it into dst.
func decodeAndValidate(r *http.Request, schema map[string]interface{}, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return stderrors.NewValidationFailedError("unreadable request body")
	}
	if len(body) == 0 {
		return stderrors.NewValidationFailedError("request body is required")
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return stderrors.NewValidationFailedError("request body is not valid JSON")
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return stderrors.NewValidationFailedError(fmt.Sprintf("schema validation error: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return stderrors.NewValidationFailedError(fmt.Sprintf("request validation failed: %v", errs))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return stderrors.NewValidationFailedError("request body does not match the expected shape")
	}
	return nil
}
