// internal/models/suggestion.go
package models

import "time"

// FeedbackDelimiter separates entries in a suggestion's feedback log,
// newest first.
const FeedbackDelimiter = "\n---\n"

// SuggestionRecord is one durably stored improvement suggestion. SubjectID is
// nil for company-wide aggregate suggestions. Records are never deleted; the
// implemented flag and feedback log only grow via UpdateStatus.
type SuggestionRecord struct {
	ID                  string     `json:"id"`
	SubjectID           *string    `json:"subjectId,omitempty"`
	SuggestionText      string     `json:"suggestionText"`
	CreatedAt           time.Time  `json:"createdAt"`
	IsImplemented       bool       `json:"isImplemented"`
	ImplementedAt       *time.Time `json:"implementedAt,omitempty"`
	EffectivenessRating *int       `json:"effectivenessRating,omitempty"`
	FeedbackLog         string     `json:"feedbackLog,omitempty"`
}

// StatusUpdate carries the optional fields of an updateStatus call; nil
// fields are left unchanged.
type StatusUpdate struct {
	Implemented *bool   `json:"implemented,omitempty"`
	Rating      *int    `json:"rating,omitempty"`
	Feedback    *string `json:"feedback,omitempty"`
}

// CacheStats reports suggestion cache occupancy at a point in time.
type CacheStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}
