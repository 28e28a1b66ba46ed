package models

import (
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	q := &QueryRequest{Question: ""}
	if err := q.Validate(5, 50); err == nil {
		t.Error("expected error for empty question")
	}
	q = &QueryRequest{Question: "   "}
	if err := q.Validate(5, 50); err == nil {
		t.Error("expected error for blank question")
	}
	q = &QueryRequest{Question: "  grace period?  "}
	if err := q.Validate(5, 50); err != nil {
		t.Fatal(err)
	}
	if q.Question != "grace period?" {
		t.Errorf("question not trimmed: %q", q.Question)
	}
	if q.TopK != 5 {
		t.Errorf("default top_k: got %d", q.TopK)
	}
	q = &QueryRequest{Question: "x", TopK: 500}
	_ = q.Validate(5, 50)
	if q.TopK != 50 {
		t.Errorf("top_k clamp: got %d", q.TopK)
	}
}

func TestRunRequest_Validate(t *testing.T) {
	r := &RunRequest{Questions: []string{" ", ""}}
	if err := r.Validate(); err == nil {
		t.Error("expected error when all questions are blank")
	}
	r = &RunRequest{Questions: []string{"a?", " ", " b? "}}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(r.Questions) != 2 || r.Questions[1] != "b?" {
		t.Errorf("questions: got %v", r.Questions)
	}
}

func TestNoContextAnswer(t *testing.T) {
	a := NoContextAnswer("q")
	if a.Decision != DecisionUnknown || a.Justification != NoRelevantInformation {
		t.Errorf("unexpected answer: %+v", a)
	}
	if a.ReferencedClauses == nil {
		t.Error("referenced clauses should be an empty slice, not nil")
	}
}
