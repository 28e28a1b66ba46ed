package models

import (
	"fmt"
	"strings"
)

// QueryRequest asks for the top-k clauses nearest to a question.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate trims the question and clamps TopK to [1, maxTopK], using defaultTopK when unset.
// Returns an error if the question is empty.
func (q *QueryRequest) Validate(defaultTopK, maxTopK int) error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}

// QueryResponse is the ranked clause list for one question.
type QueryResponse struct {
	Question  string        `json:"question"`
	Matches   []ClauseMatch `json:"matches"`
	Total     int           `json:"total"`
	QueryTime int64         `json:"query_time_ms"`
}

// IngestRequest carries pre-split clauses from a document parser.
type IngestRequest struct {
	Clauses  []string `json:"clauses"`
	SourceID string   `json:"source_id"`
}

// RunRequest is the JSON form of a document question-answering run.
type RunRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// Validate drops blank questions and requires at least one remaining.
func (r *RunRequest) Validate() error {
	questions := r.Questions[:0]
	for _, q := range r.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	r.Questions = questions
	if len(r.Questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	return nil
}

// RunResponse holds one answer per question, in question order.
type RunResponse struct {
	SourceID string    `json:"source_id"`
	Answers  []*Answer `json:"answers"`
}

// AskRequest is a free-form question against everything indexed so far.
type AskRequest struct {
	Text string `json:"text"`
}

// AskResponse pairs the model's unassisted reply with the clause-grounded answer.
type AskResponse struct {
	RawAnswer   string  `json:"raw_answer"`
	Explanation *Answer `json:"explanation"`
}

// CompareRequest names two documents to compare clause by clause.
type CompareRequest struct {
	URL1 string `json:"url1"`
	URL2 string `json:"url2"`
}
