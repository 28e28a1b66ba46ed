package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	_, _ = c.Get("a")        // a is now most recent
	c.Set("c", []float32{6}) // evicts b
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

// countingEmbedder records how many texts reached the wrapped embedder.
type countingEmbedder struct {
	*HashingEmbedder
	queries int
	docs    int
	fail    bool
	extra   bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.queries++
	if c.fail {
		return nil, errors.New("down")
	}
	return c.HashingEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.docs += len(texts)
	if c.fail {
		return nil, errors.New("down")
	}
	vecs, err := c.HashingEmbedder.EmbedBatch(ctx, texts)
	if err == nil && c.extra {
		vecs = append(vecs, make([]float32, c.Dimensions()))
	}
	return vecs, err
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{HashingEmbedder: NewHashingEmbedder(16)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := e.EmbedBatch(ctx, []string{"alpha clause", "beta clause"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.EmbedBatch(ctx, []string{"beta clause", "gamma clause", "alpha clause"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.docs != 3 {
		t.Errorf("wrapped embedder saw %d documents, want 3", inner.docs)
	}
	if len(second) != 3 || second[2][0] != first[0][0] {
		t.Errorf("cached vectors not returned in input order")
	}

	_, _ = e.Embed(ctx, "what is covered")
	_, _ = e.Embed(ctx, "what is covered")
	if inner.queries != 1 {
		t.Errorf("wrapped embedder saw %d queries, want 1", inner.queries)
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{HashingEmbedder: NewHashingEmbedder(8), fail: true}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	if _, err := e.Embed(ctx, "q"); err == nil {
		t.Fatal("expected error")
	}
	inner.fail = false
	if _, err := e.Embed(ctx, "q"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inner.queries != 2 {
		t.Errorf("queries=%d, want 2", inner.queries)
	}
}

func TestCachedEmbedder_CountMismatch(t *testing.T) {
	inner := &countingEmbedder{HashingEmbedder: NewHashingEmbedder(8), extra: true}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"alpha clause", "beta clause"})
	if !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if vecs != nil {
		t.Errorf("vectors = %d, want nil", len(vecs))
	}

	inner.extra = false
	if _, err := e.EmbedBatch(ctx, []string{"alpha clause", "beta clause"}); err != nil {
		t.Fatal(err)
	}
	if inner.docs != 4 {
		t.Errorf("wrapped embedder saw %d documents, want 4 (mismatched reply must not be cached)", inner.docs)
	}
}

func TestNewCachedEmbedder_Disabled(t *testing.T) {
	inner := NewHashingEmbedder(8)
	if e := NewCachedEmbedder(inner, 0); e != Embedder(inner) {
		t.Error("capacity 0 should return the embedder unwrapped")
	}
}
