package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
)

type sourceKey struct {
	text   string
	source string
}

// ClauseStore is the ordered clause metadata that runs parallel to the vector index:
// the clause at position i is the text embedded at index row i.
type ClauseStore struct {
	records  []models.Clause
	texts    map[string]int
	bySource map[sourceKey]int
	mu       sync.RWMutex
}

// NewClauseStore creates an empty clause store.
func NewClauseStore() *ClauseStore {
	return &ClauseStore{
		records:  make([]models.Clause, 0),
		texts:    make(map[string]int),
		bySource: make(map[sourceKey]int),
	}
}

// Append adds one clause at the next position.
func (s *ClauseStore) Append(text, sourceID string) {
	s.AppendBatch([]models.Clause{{Text: text, SourceFile: sourceID}})
}

// AppendBatch adds clauses in order at the next positions.
func (s *ClauseStore) AppendBatch(clauses []models.Clause) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range clauses {
		s.records = append(s.records, c)
		s.track(c, 1)
	}
}

func (s *ClauseStore) track(c models.Clause, delta int) {
	s.texts[c.Text] += delta
	if s.texts[c.Text] <= 0 {
		delete(s.texts, c.Text)
	}
	k := sourceKey{text: c.Text, source: c.SourceFile}
	s.bySource[k] += delta
	if s.bySource[k] <= 0 {
		delete(s.bySource, k)
	}
}

// Get returns the clause at position.
func (s *ClauseStore) Get(position int) (models.Clause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.records) {
		return models.Clause{}, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, position, len(s.records))
	}
	return s.records[position], nil
}

// ContainsText reports whether any stored clause has exactly this text.
func (s *ClauseStore) ContainsText(text string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.texts[text]
	return ok
}

// ContainsTextFrom reports whether a clause with this text was stored for sourceID.
func (s *ClauseStore) ContainsTextFrom(text, sourceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bySource[sourceKey{text: text, source: sourceID}]
	return ok
}

// Len returns the number of stored clauses.
func (s *ClauseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a copy of all clauses in position order.
func (s *ClauseStore) Records() []models.Clause {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Clause, len(s.records))
	copy(out, s.records)
	return out
}

// Truncate drops every clause at position >= n.
func (s *ClauseStore) Truncate(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	for i := n; i < len(s.records); i++ {
		s.track(s.records[i], -1)
	}
	if n < len(s.records) {
		s.records = s.records[:n]
	}
}

// Reset drops all clauses.
func (s *ClauseStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]models.Clause, 0)
	s.texts = make(map[string]int)
	s.bySource = make(map[sourceKey]int)
}

// Save writes the clauses as an indented JSON array of {"text", "source_file"} records.
// The file is written to a temporary name and renamed into place.
func (s *ClauseStore) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal clauses: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write clause store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace clause store: %w", err)
	}
	return nil
}

// storedClause distinguishes a missing "text" field from an empty one.
type storedClause struct {
	Text       *string `json:"text"`
	SourceFile string  `json:"source_file"`
}

// Load replaces the store contents with the snapshot at path.
// Returns ErrNotFound if the file is missing and ErrCorruptStore if it is not a JSON
// array of clause records. The store is unchanged on error.
func (s *ClauseStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read clause store: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: %s is not a JSON array", ErrCorruptStore, path)
	}
	var stored []storedClause
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	records := make([]models.Clause, 0, len(stored))
	for i, sc := range stored {
		if sc.Text == nil {
			return fmt.Errorf("%w: record %d has no text", ErrCorruptStore, i)
		}
		records = append(records, models.Clause{Text: *sc.Text, SourceFile: sc.SourceFile})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]models.Clause, 0, len(records))
	s.texts = make(map[string]int, len(records))
	s.bySource = make(map[sourceKey]int, len(records))
	for _, c := range records {
		s.records = append(s.records, c)
		s.track(c, 1)
	}
	return nil
}

// SnapshotPaths returns the index and clause file paths for a snapshot base path.
func SnapshotPaths(base string) (indexPath, metaPath string) {
	return base + ".index", base + ".json"
}
