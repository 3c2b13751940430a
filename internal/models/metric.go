// internal/models/metric.go
package models

import "strings"

// EvaluationMetric is an admin-managed scoring criterion definition.
type EvaluationMetric struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Weight      float64 `json:"weight"`
	IsActive    bool    `json:"is_active"`
}

// Validate checks the field-level constraints for a new metric definition.
// Uniqueness of the name is enforced by the store. Returns an empty string
// when the metric is valid.
func (m EvaluationMetric) Validate() string {
	name := strings.TrimSpace(m.Name)
	if len(name) < 1 || len(name) > 100 {
		return "metric name must be between 1 and 100 characters"
	}
	if strings.TrimSpace(m.Description) == "" {
		return "metric description must not be empty"
	}
	if m.Category != "core" && m.Category != "custom" {
		return "metric category must be either core or custom"
	}
	if m.Weight < 0.1 || m.Weight > 2.0 {
		return "metric weight must be between 0.1 and 2.0"
	}
	return ""
}
