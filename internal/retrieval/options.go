package retrieval

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/metrics"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
)

// DedupPolicy decides which incoming clauses count as already indexed.
type DedupPolicy string

const (
	// DedupGlobal skips a clause whose text is stored for any source.
	DedupGlobal DedupPolicy = "global"
	// DedupPerSource skips a clause only if the same source already stored that text.
	DedupPerSource DedupPolicy = "per_source"
	// DedupNone stores every clause.
	DedupNone DedupPolicy = "none"
)

// ParseDedupPolicy validates a policy name. The empty string selects DedupGlobal.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(s) {
	case "", DedupGlobal:
		return DedupGlobal, nil
	case DedupPerSource, DedupNone:
		return DedupPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown dedup policy %q (supported: global, per_source, none)", vector.ErrConfiguration, s)
	}
}

// DefaultMaxClauseLength is the stored clause length limit, in runes.
const DefaultMaxClauseLength = 1000

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSnapshotPath sets the snapshot base path. Empty disables persistence.
func WithSnapshotPath(base string) EngineOption {
	return func(e *Engine) {
		e.snapshotPath = base
	}
}

// WithIndexType selects the vector index implementation ("flat" or "faiss").
func WithIndexType(indexType string) EngineOption {
	return func(e *Engine) {
		e.indexType = indexType
	}
}

// WithMaxClauseLength sets the rune limit clauses are truncated to before dedup and embedding.
func WithMaxClauseLength(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxClauseLength = n
		}
	}
}

// WithDedupPolicy sets the dedup policy.
func WithDedupPolicy(p DedupPolicy) EngineOption {
	return func(e *Engine) {
		e.dedup = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}
