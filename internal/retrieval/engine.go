// Package retrieval keeps a vector index and its clause store in lockstep and answers
// nearest-clause queries against them.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/embedding"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/metrics"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
	"github.com/riyaaaa19/Bajaj-Vaani/pkg/utils"
)

// snapshotNextSuffix names the files a snapshot is written to before being renamed into place.
const snapshotNextSuffix = ".next"

// State is the engine lifecycle state.
type State int32

// Engine lifecycle: Uninitialized -> Initializing -> Ready. A failed Initialize returns
// to Uninitialized.
const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// IngestResult reports how many offered clauses were stored and how many were skipped
// as empty or duplicate.
type IngestResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Stats describes the engine for status endpoints.
type Stats struct {
	State        string `json:"state"`
	Clauses      int    `json:"clauses"`
	Dimensions   int    `json:"dimensions"`
	IndexType    string `json:"index_type"`
	DedupPolicy  string `json:"dedup_policy"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
}

// Engine owns the vector index and the clause store. Position i in the store is row i
// in the index; every mutation keeps their lengths equal.
//
// Queries hold the read lock, ingestion and rebuild hold the write lock. The embedder is
// always called with no lock held.
type Engine struct {
	embedder        embedding.Embedder
	snapshotPath    string
	indexType       string
	maxClauseLength int
	dedup           DedupPolicy
	logger          *zap.Logger
	metrics         *metrics.Metrics

	initMu sync.Mutex
	state  atomic.Int32

	mu    sync.RWMutex
	index vector.VectorIndex
	store *storage.ClauseStore
}

// NewEngine creates an uninitialized engine. Call Initialize before use.
func NewEngine(embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:        embedder,
		indexType:       string(vector.IndexTypeFlat),
		maxClauseLength: DefaultMaxClauseLength,
		dedup:           DedupGlobal,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) ready() error {
	if e.State() != StateReady {
		return ErrNotInitialized
	}
	return nil
}

// Initialize creates the index for the embedder's dimension and loads the snapshot if
// one exists. A missing snapshot starts empty. A corrupt or half-present snapshot returns
// an error wrapping storage.ErrCorruptStore or vector.ErrCorrupt and leaves the engine
// uninitialized. Calling Initialize on a ready engine does nothing.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.State() == StateReady {
		return nil
	}
	e.state.Store(int32(StateInitializing))

	index, store, err := e.open()
	if err != nil {
		e.state.Store(int32(StateUninitialized))
		return err
	}

	e.mu.Lock()
	e.index = index
	e.store = store
	e.mu.Unlock()
	e.state.Store(int32(StateReady))

	e.metrics.SetIndexSize(store.Len())
	e.logger.Info("retrieval engine ready",
		zap.Int("clauses", store.Len()),
		zap.Int("dimensions", index.Dimensions()),
		zap.String("index_type", index.Type()),
		zap.String("dedup", string(e.dedup)),
	)
	return nil
}

func (e *Engine) open() (vector.VectorIndex, *storage.ClauseStore, error) {
	if e.embedder == nil {
		return nil, nil, fmt.Errorf("%w: no embedder", vector.ErrConfiguration)
	}
	if _, err := ParseDedupPolicy(string(e.dedup)); err != nil {
		return nil, nil, err
	}
	dim := e.embedder.Dimensions()
	index, err := vector.NewVectorIndex(e.indexType, dim)
	if err != nil {
		return nil, nil, err
	}
	if index.Type() != e.indexType && e.indexType != "" {
		e.logger.Warn("vector index type unavailable, using fallback",
			zap.String("requested", e.indexType), zap.String("using", index.Type()))
	}
	store := storage.NewClauseStore()
	if e.snapshotPath == "" {
		return index, store, nil
	}

	indexPath, metaPath := storage.SnapshotPaths(e.snapshotPath)
	indexErr := index.Load(indexPath)
	storeErr := store.Load(metaPath)
	indexMissing := errors.Is(indexErr, vector.ErrNotFound)
	storeMissing := errors.Is(storeErr, storage.ErrNotFound)

	switch {
	case indexMissing && storeMissing:
		e.logger.Info("no snapshot found, starting empty", zap.String("path", e.snapshotPath))
		return index, store, nil
	case indexErr != nil && !indexMissing:
		_ = index.Close()
		return nil, nil, fmt.Errorf("load vector index: %w", indexErr)
	case storeErr != nil && !storeMissing:
		_ = index.Close()
		return nil, nil, fmt.Errorf("load clause store: %w", storeErr)
	case indexMissing != storeMissing:
		_ = index.Close()
		return nil, nil, fmt.Errorf("%w: snapshot %s has only one of its two files", storage.ErrCorruptStore, e.snapshotPath)
	}
	if index.Size() != store.Len() {
		_ = index.Close()
		return nil, nil, fmt.Errorf("%w: index has %d vectors but store has %d clauses",
			storage.ErrCorruptStore, index.Size(), store.Len())
	}
	return index, store, nil
}

// Ingest truncates, dedups, embeds and appends clauses from sourceID, then persists the
// snapshot. Empty or duplicate clauses are skipped; if nothing remains it returns without
// embedding or writing. On any failure after embedding, the index and store are left as
// they were before the call.
func (e *Engine) Ingest(ctx context.Context, clauses []string, sourceID string) (IngestResult, error) {
	if err := e.ready(); err != nil {
		return IngestResult{}, err
	}
	start := time.Now()

	e.mu.RLock()
	candidates := e.filterNew(e.prepare(clauses), sourceID)
	e.mu.RUnlock()
	if len(candidates) == 0 {
		return IngestResult{Skipped: len(clauses)}, nil
	}

	vectors, err := e.embedder.EmbedBatch(ctx, candidates)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if err := e.checkVectors(vectors, len(candidates)); err != nil {
		return IngestResult{}, err
	}

	e.mu.Lock()
	added, err := e.commit(ctx, candidates, vectors, sourceID)
	size := e.store.Len()
	e.mu.Unlock()
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{Added: added, Skipped: len(clauses) - added}
	e.metrics.ObserveIngest(result.Added, result.Skipped, time.Since(start))
	e.metrics.SetIndexSize(size)
	e.logger.Info("clauses ingested",
		zap.String("source", sourceID),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("total", size),
	)
	return result, nil
}

// prepare truncates clauses to the stored length and drops blank ones.
func (e *Engine) prepare(clauses []string) []string {
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, utils.TruncateRunes(c, e.maxClauseLength))
	}
	return out
}

// filterNew drops clauses the store already holds under the dedup policy, and repeats
// within the batch. Caller holds e.mu.
func (e *Engine) filterNew(texts []string, sourceID string) []string {
	if e.dedup == DedupNone {
		return texts
	}
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, dup := seen[t]; dup {
			continue
		}
		if e.isStored(t, sourceID) {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (e *Engine) isStored(text, sourceID string) bool {
	switch e.dedup {
	case DedupPerSource:
		return e.store.ContainsTextFrom(text, sourceID)
	case DedupNone:
		return false
	default:
		return e.store.ContainsText(text)
	}
}

func (e *Engine) checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: embedder returned %d vectors for %d clauses", vector.ErrDimensionMismatch, len(vectors), want)
	}
	dim := e.embedder.Dimensions()
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: embedding %d has %d values, expected %d", vector.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

// commit appends under the write lock. Clauses committed by a concurrent ingest while
// this batch was being embedded are dropped here. Caller holds e.mu.
func (e *Engine) commit(ctx context.Context, texts []string, vectors [][]float32, sourceID string) (int, error) {
	records := make([]models.Clause, 0, len(texts))
	keep := make([][]float32, 0, len(vectors))
	for i, t := range texts {
		if e.isStored(t, sourceID) {
			continue
		}
		records = append(records, models.Clause{Text: t, SourceFile: sourceID})
		keep = append(keep, vectors[i])
	}
	if len(records) == 0 {
		return 0, nil
	}

	base := e.store.Len()
	if e.index.Size() != base {
		return 0, fmt.Errorf("%w: index has %d vectors but store has %d clauses", storage.ErrCorruptStore, e.index.Size(), base)
	}
	if err := e.index.Add(ctx, keep); err != nil {
		return 0, fmt.Errorf("add vectors: %w", err)
	}
	e.store.AppendBatch(records)

	if err := e.persist(); err != nil {
		e.rollback(base)
		return 0, fmt.Errorf("persist snapshot: %w", err)
	}
	return len(records), nil
}

func (e *Engine) rollback(n int) {
	if err := e.index.Truncate(n); err != nil {
		e.logger.Error("vector rollback failed", zap.Int("length", n), zap.Error(err))
	}
	e.store.Truncate(n)
}

// persist writes both snapshot files next to the live ones and only then renames them
// into place, so a failed write leaves the previous snapshot loadable. Caller holds e.mu.
func (e *Engine) persist() error {
	if e.snapshotPath == "" {
		return nil
	}
	indexPath, metaPath := storage.SnapshotPaths(e.snapshotPath)
	indexNext, metaNext := indexPath+snapshotNextSuffix, metaPath+snapshotNextSuffix
	if err := e.index.Save(indexNext); err != nil {
		_ = os.Remove(indexNext)
		return err
	}
	if err := e.store.Save(metaNext); err != nil {
		_ = os.Remove(indexNext)
		_ = os.Remove(metaNext)
		return err
	}
	if err := os.Rename(indexNext, indexPath); err != nil {
		_ = os.Remove(indexNext)
		_ = os.Remove(metaNext)
		return fmt.Errorf("replace index file: %w", err)
	}
	if err := os.Rename(metaNext, metaPath); err != nil {
		_ = os.Remove(metaNext)
		return fmt.Errorf("replace clause store: %w", err)
	}
	return nil
}

// Holds reports whether every clause would be skipped by Ingest under the dedup policy,
// that is, the engine already stores all of them. Blank clauses are ignored. It is
// false under DedupNone and before Initialize.
func (e *Engine) Holds(clauses []string, sourceID string) bool {
	if e.ready() != nil || e.dedup == DedupNone {
		return false
	}
	texts := e.prepare(clauses)
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range texts {
		if !e.isStored(t, sourceID) {
			return false
		}
	}
	return true
}

// Query returns the texts of the topK clauses nearest to question, nearest first.
func (e *Engine) Query(ctx context.Context, question string, topK int) ([]string, error) {
	matches, err := e.QueryMatches(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return texts, nil
}

// QueryMatches returns the topK nearest clauses with their positions, distances and
// sources. An empty index yields an empty result. Embedder failures wrap ErrEmbedding.
func (e *Engine) QueryMatches(ctx context.Context, question string, topK int) ([]models.ClauseMatch, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	if topK <= 0 || e.Size() == 0 {
		e.metrics.ObserveQuery("empty", time.Since(start))
		return []models.ClauseMatch{}, nil
	}

	q, err := e.embedder.Embed(ctx, question)
	if err != nil {
		e.metrics.ObserveQuery("error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	e.mu.RLock()
	hits, err := e.index.Search(ctx, q, topK)
	if err != nil {
		e.mu.RUnlock()
		e.metrics.ObserveQuery("error", time.Since(start))
		return nil, fmt.Errorf("search: %w", err)
	}
	matches := make([]models.ClauseMatch, 0, len(hits))
	for _, h := range hits {
		c, err := e.store.Get(h.Position)
		if err != nil {
			e.logger.Warn("dropping unresolvable position", zap.Int("position", h.Position), zap.Error(err))
			continue
		}
		matches = append(matches, models.ClauseMatch{
			Position:   h.Position,
			Distance:   h.Distance,
			Text:       c.Text,
			SourceFile: c.SourceFile,
		})
	}
	e.mu.RUnlock()

	outcome := "ok"
	if len(matches) == 0 {
		outcome = "empty"
	}
	e.metrics.ObserveQuery(outcome, time.Since(start))
	return matches, nil
}

// Rebuild discards every clause and vector and persists the empty snapshot.
func (e *Engine) Rebuild(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index.Reset()
	e.store.Reset()
	e.metrics.SetIndexSize(0)
	e.logger.Info("retrieval index rebuilt from empty")
	if err := e.persist(); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Size returns the number of stored clauses, or 0 before Initialize.
func (e *Engine) Size() int {
	if e.State() != StateReady {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Records returns a copy of all stored clauses in position order.
func (e *Engine) Records() ([]models.Clause, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Records(), nil
}

// DedupPolicy returns the configured policy.
func (e *Engine) DedupPolicy() DedupPolicy {
	return e.dedup
}

// Stats returns a snapshot of the engine's configuration and size.
func (e *Engine) Stats() Stats {
	s := Stats{
		State:        e.State().String(),
		IndexType:    e.indexType,
		DedupPolicy:  string(e.dedup),
		SnapshotPath: e.snapshotPath,
	}
	if e.embedder != nil {
		s.Dimensions = e.embedder.Dimensions()
	}
	if e.State() == StateReady {
		e.mu.RLock()
		s.Clauses = e.store.Len()
		s.IndexType = e.index.Type()
		e.mu.RUnlock()
	}
	return s
}

// Close releases the index. The embedder is owned by the caller.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index != nil {
		return e.index.Close()
	}
	return nil
}
