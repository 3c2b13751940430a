// internal/models/template.go
package models

import (
	"fmt"
	"strings"
)

// PromptTemplate is an administrable prompt body with {{dimension}}
// placeholders for the six skill scores.
type PromptTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body"`
}

// Render substitutes the score values into the template body. Placeholders
// use the dimension names, e.g. {{communication}}.
func (t PromptTemplate) Render(scores ScoreSet) string {
	out := t.Body
	for _, d := range Dimensions {
		placeholder := fmt.Sprintf("{{%s}}", d)
		out = strings.ReplaceAll(out, placeholder, fmt.Sprintf("%.1f", scores.Get(d)))
	}
	return out
}

// dimensionLabels are the display names used by the default prompt.
var dimensionLabels = map[Dimension]string{
	DimCommunication:  "Communication & Feedback",
	DimSupport:        "Support & Empowerment",
	DimGoalManagement: "Goal Management & Achievement",
	DimLeadership:     "Leadership & Decision Making",
	DimProblemSolving: "Problem Solving",
	DimStrategy:       "Strategy & Growth Support",
}

// DefaultPromptTemplate builds the fixed fallback template used when no
// template identifier is given or the referenced one does not resolve.
func DefaultPromptTemplate() PromptTemplate {
	var b strings.Builder
	b.WriteString("Based on the following manager evaluation scores, provide improvement suggestions:\n")
	for _, d := range Dimensions {
		fmt.Fprintf(&b, "- %s: {{%s}}/5\n", dimensionLabels[d], d)
	}
	b.WriteString("\nFocus on the lowest-scoring areas and provide specific, actionable improvement suggestions.\n")
	b.WriteString("Include practical steps for developing management skills.\n")

	return PromptTemplate{
		ID:          "default",
		Name:        "Default improvement prompt",
		Description: "Built-in fallback prompt over the six skill dimensions",
		Body:        b.String(),
	}
}
