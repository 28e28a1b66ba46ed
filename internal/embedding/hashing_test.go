package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqDist(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}

func TestHashingEmbedder_Deterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Maternity benefits are covered after 24 months")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "maternity BENEFITS are covered after 24 months.")
	require.NoError(t, err)
	assert.Equal(t, a, b, "case and punctuation should not change the embedding")
	assert.Len(t, a, 64)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestHashingEmbedder_SharedWordsAreNearer(t *testing.T) {
	e := NewHashingEmbedder(384)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{
		"The policy covers hospitalization expenses.",
		"Dental work is excluded from coverage.",
	})
	require.NoError(t, err)
	q, err := e.Embed(ctx, "does the policy cover hospitalization")
	require.NoError(t, err)
	assert.Less(t, sqDist(q, vecs[0]), sqDist(q, vecs[1]))
}

func TestHashingEmbedder_EmptyTextAndDefaults(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, 384, e.Dimensions())
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
	assert.NoError(t, e.Close())
}

func TestHashingEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashingEmbedder(8).EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
