package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/metrics"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"go.uber.org/zap"
)

const answerPrompt = `You are an intelligent insurance assistant.

User Query:
%s

Relevant Policy Clauses:
%s

Task:
- Determine if the user's case is covered or not.
- Give a short justification.
- Refer to the most relevant clauses in your reasoning.

Respond in this exact JSON format:
{
  "decision": "Covered" or "Not Covered",
  "justification": "<short explanation>",
  "referenced_clauses": ["clause excerpt 1", "clause excerpt 2"]
}`

// Answerer turns a question and its retrieved clauses into a coverage decision.
type Answerer struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AnswererOption {
	return func(a *Answerer) { a.logger = l }
}

// WithTimeout bounds every model call. Zero leaves the caller's context alone.
func WithTimeout(d time.Duration) AnswererOption {
	return func(a *Answerer) { a.timeout = d }
}

// WithMetrics counts answers by decision.
func WithMetrics(m *metrics.Metrics) AnswererOption {
	return func(a *Answerer) { a.metrics = m }
}

// NewAnswerer returns an Answerer. completer may be nil.
func NewAnswerer(completer Completer, opts ...AnswererOption) *Answerer {
	a := &Answerer{completer: completer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Enabled reports whether a chat model is configured.
func (a *Answerer) Enabled() bool {
	return a != nil && a.completer != nil
}

// GenerateAnswer asks the model whether the case in question is covered by clauses.
// With no clauses it answers without calling the model. A reply that carries no JSON
// object is kept verbatim as the justification with decision Unknown.
func (a *Answerer) GenerateAnswer(ctx context.Context, question string, clauses []string) (*models.Answer, error) {
	if len(clauses) == 0 {
		ans := models.NoContextAnswer(question)
		a.metrics.ObserveAnswer(ans.Decision)
		return ans, nil
	}
	if !a.Enabled() {
		return nil, ErrNoCompleter
	}

	reply, err := a.complete(ctx, BuildPrompt(question, clauses))
	if err != nil {
		return nil, err
	}
	ans := ParseAnswer(reply)
	ans.Question = question
	a.metrics.ObserveAnswer(ans.Decision)
	a.logger.Debug("llm answered", zap.String("decision", ans.Decision), zap.Int("clauses", len(clauses)))
	return ans, nil
}

// Ask sends question to the model without retrieved context and returns the raw reply.
func (a *Answerer) Ask(ctx context.Context, question string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoCompleter
	}
	return a.complete(ctx, question)
}

func (a *Answerer) complete(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	reply, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("llm completion failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", err
	}
	return reply, nil
}

// BuildPrompt renders the coverage prompt with clauses as a numbered list.
func BuildPrompt(question string, clauses []string) string {
	var b strings.Builder
	for i, c := range clauses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return fmt.Sprintf(answerPrompt, strings.TrimSpace(question), strings.TrimRight(b.String(), "\n"))
}

type answerPayload struct {
	Decision          string   `json:"decision"`
	Justification     string   `json:"justification"`
	ReferencedClauses []string `json:"referenced_clauses"`
}

// ParseAnswer extracts the JSON object from a model reply, tolerating code fences and
// surrounding prose.
func ParseAnswer(reply string) *models.Answer {
	reply = strings.TrimSpace(reply)
	if obj, ok := extractJSONObject(reply); ok {
		var p answerPayload
		if err := json.Unmarshal([]byte(obj), &p); err == nil {
			refs := p.ReferencedClauses
			if refs == nil {
				refs = []string{}
			}
			return &models.Answer{
				Decision:          normalizeDecision(p.Decision),
				Justification:     strings.TrimSpace(p.Justification),
				ReferencedClauses: refs,
				Raw:               reply,
			}
		}
	}
	return &models.Answer{
		Decision:          models.DecisionUnknown,
		Justification:     reply,
		ReferencedClauses: []string{},
		Raw:               reply,
	}
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func normalizeDecision(d string) string {
	switch strings.ToLower(strings.Join(strings.Fields(d), " ")) {
	case "covered", "yes":
		return models.DecisionCovered
	case "not covered", "no", "uncovered":
		return models.DecisionNotCovered
	default:
		return models.DecisionUnknown
	}
}
