package models

// Decision values returned by the answer model.
const (
	DecisionCovered    = "Covered"
	DecisionNotCovered = "Not Covered"
	DecisionUnknown    = "Unknown"
)

// NoRelevantInformation is the justification used when retrieval found no clauses.
const NoRelevantInformation = "No relevant information found in the indexed documents."

// Answer is the grounded answer for one question.
type Answer struct {
	Question          string   `json:"question,omitempty"`
	Decision          string   `json:"decision"`
	Justification     string   `json:"justification"`
	ReferencedClauses []string `json:"referenced_clauses"`
	Raw               string   `json:"raw,omitempty"`
}

// NoContextAnswer is the answer returned when no clauses were retrieved.
func NoContextAnswer(question string) *Answer {
	return &Answer{
		Question:          question,
		Decision:          DecisionUnknown,
		Justification:     NoRelevantInformation,
		ReferencedClauses: []string{},
	}
}
