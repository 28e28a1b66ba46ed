package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/embedding"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
)

func newReadyEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	e := NewEngine(embedding.NewHashingEmbedder(128), opts...)
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func assertAligned(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store.Len() != e.index.Size() {
		t.Errorf("store has %d records, index has %d vectors", e.store.Len(), e.index.Size())
	}
}

func mustIngest(t *testing.T, e *Engine, clauses []string, source string) IngestResult {
	t.Helper()
	res, err := e.Ingest(context.Background(), clauses, source)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return res
}

// stubEmbedder wraps the hashing embedder with failure and shape overrides.
type stubEmbedder struct {
	*embedding.HashingEmbedder
	mu        sync.Mutex
	err       error
	short     bool
	batches   int
	onBatch   func()
	wrongDims bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.HashingEmbedder.Embed(ctx, text)
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.batches++
	err, short, wrong, hook := s.err, s.short, s.wrongDims, s.onBatch
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	vecs, _ := s.HashingEmbedder.EmbedBatch(ctx, texts)
	if short {
		return vecs[:len(vecs)-1], nil
	}
	if wrong {
		vecs[0] = vecs[0][:3]
	}
	return vecs, nil
}

func TestEngine_NotInitialized(t *testing.T) {
	e := NewEngine(embedding.NewHashingEmbedder(16))
	ctx := context.Background()

	if e.State() != StateUninitialized {
		t.Errorf("State = %v, want uninitialized", e.State())
	}
	if _, err := e.Ingest(ctx, []string{"a clause"}, "x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Ingest err = %v, want ErrNotInitialized", err)
	}
	if _, err := e.Query(ctx, "q", 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Query err = %v, want ErrNotInitialized", err)
	}
	if err := e.Rebuild(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Rebuild err = %v, want ErrNotInitialized", err)
	}
	if e.Size() != 0 {
		t.Errorf("Size = %d, want 0", e.Size())
	}
}

func TestEngine_InitializeIdempotent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	e := newReadyEngine(t, WithSnapshotPath(base))
	ctx := context.Background()

	mustIngest(t, e, []string{"Clause one of the policy."}, "a.pdf")
	if err := e.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if e.State() != StateReady {
		t.Errorf("State = %v, want ready", e.State())
	}
	if e.Size() != 1 {
		t.Errorf("Size = %d, want 1 (second Initialize must not reload)", e.Size())
	}
}

func TestEngine_InitializeBadConfig(t *testing.T) {
	e := NewEngine(embedding.NewHashingEmbedder(16), WithDedupPolicy("sometimes"))
	if err := e.Initialize(context.Background()); !errors.Is(err, vector.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
	if e.State() != StateUninitialized {
		t.Errorf("State = %v, want uninitialized", e.State())
	}

	e = NewEngine(nil)
	if err := e.Initialize(context.Background()); !errors.Is(err, vector.ErrConfiguration) {
		t.Errorf("nil embedder err = %v, want ErrConfiguration", err)
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newReadyEngine(t)
	got, err := e.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Query on empty engine = %#v, want empty non-nil slice", got)
	}
}

func TestEngine_ScenarioA(t *testing.T) {
	e := newReadyEngine(t)
	ctx := context.Background()

	res := mustIngest(t, e, []string{
		"The grace period is thirty days.",
		"Claims must be filed within 90 days.",
	}, "policy.pdf")
	if res != (IngestResult{Added: 2}) {
		t.Errorf("Ingest = %+v, want 2 added", res)
	}

	got, err := e.Query(ctx, "What is the grace period?", 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"The grace period is thirty days."}; !reflect.DeepEqual(got, want) {
		t.Errorf("Query = %q, want %q", got, want)
	}
}

func TestEngine_ScenarioB_GlobalDedupAcrossSources(t *testing.T) {
	e := newReadyEngine(t)

	mustIngest(t, e, []string{"Pre-existing diseases are covered after four years."}, "a.pdf")
	res := mustIngest(t, e, []string{"Pre-existing diseases are covered after four years."}, "b.pdf")

	if res != (IngestResult{Added: 0, Skipped: 1}) {
		t.Errorf("Ingest = %+v, want 1 skipped", res)
	}
	if e.Size() != 1 {
		t.Errorf("Size = %d, want 1", e.Size())
	}
	assertAligned(t, e)
}

func TestEngine_ScenarioC_TopKLargerThanIndex(t *testing.T) {
	e := newReadyEngine(t)
	mustIngest(t, e, []string{"first clause text", "second clause text", "third clause text"}, "s")

	got, err := e.Query(context.Background(), "clause", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("got %d results, want 3", len(got))
	}
}

func TestEngine_DedupIdempotence(t *testing.T) {
	clauses := []string{"alpha clause", "beta clause", "alpha clause", "gamma clause"}
	for _, policy := range []DedupPolicy{DedupGlobal, DedupPerSource} {
		t.Run(string(policy), func(t *testing.T) {
			e := newReadyEngine(t, WithDedupPolicy(policy))
			if first := mustIngest(t, e, clauses, "doc"); first != (IngestResult{Added: 3, Skipped: 1}) {
				t.Errorf("first = %+v, want 3 added 1 skipped", first)
			}
			if second := mustIngest(t, e, clauses, "doc"); second.Added != 0 {
				t.Errorf("second added %d, want 0", second.Added)
			}
			if e.Size() != 3 {
				t.Errorf("Size = %d, want 3", e.Size())
			}
		})
	}
}

func TestEngine_DedupPolicies(t *testing.T) {
	clause := "Ambulance charges are covered up to 2000."
	tests := []struct {
		policy DedupPolicy
		want   int
	}{
		{DedupGlobal, 1},
		{DedupPerSource, 2},
		{DedupNone, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			e := newReadyEngine(t, WithDedupPolicy(tt.policy))
			mustIngest(t, e, []string{clause}, "a.pdf")
			mustIngest(t, e, []string{clause}, "b.pdf")
			mustIngest(t, e, []string{clause}, "a.pdf")
			if e.Size() != tt.want {
				t.Errorf("Size = %d, want %d", e.Size(), tt.want)
			}
			if e.DedupPolicy() != tt.policy {
				t.Errorf("DedupPolicy = %v, want %v", e.DedupPolicy(), tt.policy)
			}
			assertAligned(t, e)
		})
	}
}

func TestEngine_Holds(t *testing.T) {
	clauses := []string{"Ambulance charges are covered up to 2000.", "  "}
	tests := []struct {
		policy    DedupPolicy
		sameSrc   bool
		otherSrc  bool
		unchanged bool
	}{
		{DedupGlobal, true, true, false},
		{DedupPerSource, true, false, false},
		{DedupNone, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			e := newReadyEngine(t, WithDedupPolicy(tt.policy))
			if e.Holds(clauses, "a.pdf") {
				t.Error("empty engine reports holding clauses")
			}
			mustIngest(t, e, clauses, "a.pdf")
			if got := e.Holds(clauses, "a.pdf"); got != tt.sameSrc {
				t.Errorf("Holds(same source) = %v, want %v", got, tt.sameSrc)
			}
			if got := e.Holds(clauses, "b.pdf"); got != tt.otherSrc {
				t.Errorf("Holds(other source) = %v, want %v", got, tt.otherSrc)
			}
			if e.Holds(append(clauses, "a clause never ingested"), "a.pdf") {
				t.Error("Holds with an unseen clause = true")
			}
		})
	}

	if NewEngine(embedding.NewHashingEmbedder(16)).Holds([]string{"x"}, "s") {
		t.Error("uninitialized engine reports holding clauses")
	}
}

func TestEngine_TruncatesBeforeDedup(t *testing.T) {
	e := newReadyEngine(t, WithMaxClauseLength(10))
	res := mustIngest(t, e, []string{"0123456789-tail-one", "0123456789-tail-two", "  ", ""}, "s")
	if res != (IngestResult{Added: 1, Skipped: 3}) {
		t.Errorf("Ingest = %+v, want 1 added 3 skipped", res)
	}

	recs, err := e.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Text != "0123456789" {
		t.Errorf("records = %+v, want one truncated clause", recs)
	}
}

func TestEngine_NoOpSkipsEmbedder(t *testing.T) {
	stub := &stubEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(16)}
	e := NewEngine(stub)
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	res := mustIngest(t, e, []string{" ", "\n"}, "s")
	if res != (IngestResult{Skipped: 2}) {
		t.Errorf("Ingest = %+v, want 2 skipped", res)
	}
	if stub.batches != 0 {
		t.Errorf("embedder called %d times, want 0", stub.batches)
	}
}

func TestEngine_OrderPreservation(t *testing.T) {
	e := newReadyEngine(t, WithDedupPolicy(DedupNone))
	ctx := context.Background()
	clauses := []string{
		"room rent capped at one percent of sum insured",
		"icu charges capped at two percent",
		"cataract surgery covered after two years",
		"maternity covered after nine months",
		"organ donor expenses are covered",
		"ayush treatment is covered in government hospitals",
	}
	mustIngest(t, e, clauses, "policy")

	question := "is cataract surgery covered"
	matches, err := e.QueryMatches(ctx, question, len(clauses))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != len(clauses) {
		t.Fatalf("got %d matches, want %d", len(matches), len(clauses))
	}
	if !sort.SliceIsSorted(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance }) {
		t.Error("matches not sorted by ascending distance")
	}

	// k=1 must equal the brute-force nearest neighbor
	hashing := embedding.NewHashingEmbedder(128)
	q, _ := hashing.Embed(ctx, question)
	best, bestDist := -1, 0.0
	for i, c := range clauses {
		v, _ := hashing.Embed(ctx, c)
		if d := vector.SquaredL2(q, v); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	top, err := e.Query(ctx, question, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0] != clauses[best] {
		t.Errorf("top = %q, want %q", top, clauses[best])
	}
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "snap", "base")
	ctx := context.Background()
	e := newReadyEngine(t, WithSnapshotPath(base))
	mustIngest(t, e, []string{"first persisted clause", "second persisted clause"}, "a.pdf")
	mustIngest(t, e, []string{"third persisted clause"}, "b.pdf")

	indexPath, metaPath := storage.SnapshotPaths(base)
	for _, p := range []string{indexPath, metaPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("snapshot file missing: %v", err)
		}
	}

	reloaded := newReadyEngine(t, WithSnapshotPath(base))
	if reloaded.Size() != 3 {
		t.Errorf("reloaded Size = %d, want 3", reloaded.Size())
	}

	want, _ := e.Records()
	got, _ := reloaded.Records()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded records = %+v, want %+v", got, want)
	}

	before, err := e.QueryMatches(ctx, "persisted clause", 3)
	if err != nil {
		t.Fatal(err)
	}
	after, err := reloaded.QueryMatches(ctx, "persisted clause", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("matches differ after reload: %+v vs %+v", before, after)
	}
	assertAligned(t, reloaded)
}

func TestEngine_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// build a good snapshot to tamper with
	base := filepath.Join(dir, "base")
	e := newReadyEngine(t, WithSnapshotPath(base))
	mustIngest(t, e, []string{"one clause here", "two clause here"}, "s")
	_, metaPath := storage.SnapshotPaths(base)

	t.Run("bad metadata", func(t *testing.T) {
		if err := os.WriteFile(metaPath, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		e := NewEngine(embedding.NewHashingEmbedder(128), WithSnapshotPath(base))
		if err := e.Initialize(ctx); !errors.Is(err, storage.ErrCorruptStore) {
			t.Errorf("err = %v, want ErrCorruptStore", err)
		}
		if e.State() != StateUninitialized {
			t.Errorf("State = %v, want uninitialized", e.State())
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		if err := os.WriteFile(metaPath, []byte(`[{"text":"only one","source_file":"s"}]`), 0644); err != nil {
			t.Fatal(err)
		}
		err := NewEngine(embedding.NewHashingEmbedder(128), WithSnapshotPath(base)).Initialize(ctx)
		if !errors.Is(err, storage.ErrCorruptStore) {
			t.Errorf("err = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("missing companion", func(t *testing.T) {
		if err := os.Remove(metaPath); err != nil {
			t.Fatal(err)
		}
		err := NewEngine(embedding.NewHashingEmbedder(128), WithSnapshotPath(base)).Initialize(ctx)
		if !errors.Is(err, storage.ErrCorruptStore) {
			t.Errorf("err = %v, want ErrCorruptStore", err)
		}
	})

	t.Run("wrong dimension", func(t *testing.T) {
		if err := os.WriteFile(metaPath, []byte(`[]`), 0644); err != nil {
			t.Fatal(err)
		}
		err := NewEngine(embedding.NewHashingEmbedder(64), WithSnapshotPath(base)).Initialize(ctx)
		if !errors.Is(err, vector.ErrCorrupt) {
			t.Errorf("err = %v, want vector.ErrCorrupt", err)
		}
	})
}

func TestEngine_EmbedderFailure(t *testing.T) {
	stub := &stubEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(32)}
	e := NewEngine(stub)
	ctx := context.Background()
	if err := e.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	mustIngest(t, e, []string{"a clause that is stored"}, "s")

	stub.mu.Lock()
	stub.err = errors.New("connection refused")
	stub.mu.Unlock()

	if _, err := e.Query(ctx, "question", 3); !errors.Is(err, ErrEmbedding) {
		t.Errorf("Query err = %v, want ErrEmbedding", err)
	}
	if _, err := e.Ingest(ctx, []string{"a different clause"}, "s"); !errors.Is(err, ErrEmbedding) {
		t.Errorf("Ingest err = %v, want ErrEmbedding", err)
	}
	if e.Size() != 1 {
		t.Errorf("Size = %d, want 1", e.Size())
	}
}

func TestEngine_EmbedderShapeErrors(t *testing.T) {
	ctx := context.Background()
	for name, stub := range map[string]*stubEmbedder{
		"short":      {HashingEmbedder: embedding.NewHashingEmbedder(32), short: true},
		"wrong dims": {HashingEmbedder: embedding.NewHashingEmbedder(32), wrongDims: true},
	} {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(stub)
			if err := e.Initialize(ctx); err != nil {
				t.Fatal(err)
			}
			_, err := e.Ingest(ctx, []string{"clause one", "clause two"}, "s")
			if !errors.Is(err, vector.ErrDimensionMismatch) {
				t.Errorf("err = %v, want ErrDimensionMismatch", err)
			}
			if e.Size() != 0 {
				t.Errorf("Size = %d, want 0", e.Size())
			}
			assertAligned(t, e)
		})
	}
}

func TestEngine_PersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// the snapshot directory would have to be created beneath a regular file
	e := newReadyEngine(t, WithSnapshotPath(filepath.Join(blocker, "sub", "base")))
	if _, err := e.Ingest(context.Background(), []string{"clause that cannot be saved"}, "s"); err == nil {
		t.Fatal("expected persist error")
	}
	if e.Size() != 0 {
		t.Errorf("Size = %d, want 0", e.Size())
	}
	assertAligned(t, e)
}

func TestEngine_FailedMetadataWriteKeepsSnapshot(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	e := newReadyEngine(t, WithSnapshotPath(base))
	ctx := context.Background()
	mustIngest(t, e, []string{"first persisted clause", "second persisted clause"}, "a.pdf")

	// the clause store writes through a temp file; a directory in its place makes the save fail
	indexPath, metaPath := storage.SnapshotPaths(base)
	if err := os.Mkdir(metaPath+snapshotNextSuffix+".tmp", 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Ingest(ctx, []string{"third clause that cannot be saved"}, "b.pdf"); err == nil {
		t.Fatal("expected persist error")
	}
	if e.Size() != 2 {
		t.Errorf("Size = %d, want 2", e.Size())
	}
	assertAligned(t, e)
	if _, err := os.Stat(indexPath + snapshotNextSuffix); !os.IsNotExist(err) {
		t.Errorf("staged index left behind: %v", err)
	}

	reloaded := NewEngine(embedding.NewHashingEmbedder(128), WithSnapshotPath(base))
	if err := reloaded.Initialize(ctx); err != nil {
		t.Fatalf("previous snapshot no longer loads: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.Size() != 2 {
		t.Errorf("reloaded Size = %d, want 2", reloaded.Size())
	}
	assertAligned(t, reloaded)
}

func TestEngine_Rebuild(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	e := newReadyEngine(t, WithSnapshotPath(base))
	ctx := context.Background()
	mustIngest(t, e, []string{"clause to be discarded"}, "s")

	if err := e.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if e.Size() != 0 {
		t.Errorf("Size after Rebuild = %d, want 0", e.Size())
	}

	reloaded := newReadyEngine(t, WithSnapshotPath(base))
	if reloaded.Size() != 0 {
		t.Errorf("reloaded Size = %d, want 0", reloaded.Size())
	}

	// the discarded clause can be ingested again
	if res := mustIngest(t, e, []string{"clause to be discarded"}, "s"); res.Added != 1 {
		t.Errorf("re-ingest added %d, want 1", res.Added)
	}
}

func TestEngine_ScenarioD_ConcurrentIngestAndQuery(t *testing.T) {
	e := newReadyEngine(t, WithDedupPolicy(DedupNone))
	ctx := context.Background()
	mustIngest(t, e, []string{
		"document b clause about dental exclusions",
		"document b clause about room rent limits",
	}, "b.pdf")

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				clauses := []string{
					fmt.Sprintf("document a clause %d-%d about waiting periods", w, i),
					fmt.Sprintf("document a clause %d-%d about co-payment", w, i),
				}
				if _, err := e.Ingest(ctx, clauses, "a.pdf"); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				matches, err := e.QueryMatches(ctx, "room rent limits", 5)
				if err != nil {
					errs <- err
					continue
				}
				for _, m := range matches {
					if m.Text == "" {
						errs <- fmt.Errorf("position %d resolved to empty text", m.Position)
					}
				}
				e.mu.RLock()
				aligned := e.store.Len() == e.index.Size()
				e.mu.RUnlock()
				if !aligned {
					errs <- errors.New("store and index observed out of step")
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if want := 2 + 4*10*2; e.Size() != want {
		t.Errorf("Size = %d, want %d", e.Size(), want)
	}
	assertAligned(t, e)
}

func TestEngine_ConcurrentDuplicateIngest(t *testing.T) {
	// Both callers embed outside the lock; the second commit must drop what the first stored.
	stub := &stubEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(32)}
	e := NewEngine(stub)
	ctx := context.Background()
	if err := e.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Ingest(ctx, []string{"the same clause everywhere"}, "s"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if e.Size() != 1 {
		t.Errorf("Size = %d, want 1", e.Size())
	}
}

func TestEngine_Stats(t *testing.T) {
	e := NewEngine(embedding.NewHashingEmbedder(24), WithDedupPolicy(DedupPerSource))
	if s := e.Stats(); s.State != "uninitialized" {
		t.Errorf("State = %q, want uninitialized", s.State)
	}
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, _ = e.Ingest(context.Background(), []string{"some clause text"}, "s")
	want := Stats{State: "ready", Clauses: 1, Dimensions: 24, IndexType: "flat", DedupPolicy: "per_source"}
	if s := e.Stats(); s != want {
		t.Errorf("Stats = %+v, want %+v", s, want)
	}
}

func TestParseDedupPolicy(t *testing.T) {
	for in, want := range map[string]DedupPolicy{"": DedupGlobal, "global": DedupGlobal, "per_source": DedupPerSource, "none": DedupNone} {
		got, err := ParseDedupPolicy(in)
		if err != nil {
			t.Errorf("ParseDedupPolicy(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDedupPolicy(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDedupPolicy("fuzzy"); !errors.Is(err, vector.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}
