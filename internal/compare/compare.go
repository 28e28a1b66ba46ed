// Package compare pairs the clauses of two policy documents by embedding similarity.
package compare

import (
	"context"
	"fmt"
	"sort"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/embedding"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
	"github.com/riyaaaa19/Bajaj-Vaani/pkg/utils"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a pair to be reported.
	DefaultThreshold = 0.4
	// DefaultTopK is the number of candidate matches considered per clause of the first document.
	DefaultTopK = 1
	// PreviewClauseChars bounds clause text in a Summary preview.
	PreviewClauseChars = 300
	// PreviewSize is the number of pairs in a Summary preview.
	PreviewSize = 3
)

// Summary is the short report returned to API callers.
type Summary struct {
	Summary       string                    `json:"summary"`
	SampleMatches []models.ClauseComparison `json:"sample_matches"`
}

// Compare embeds both clause lists and, for every clause of a in order, reports its topK
// most similar clauses of b whose cosine similarity is at least threshold. Similarities
// are rounded to three decimals. Either list empty yields an empty result.
func Compare(ctx context.Context, embedder embedding.Embedder, a, b []string, threshold float64, topK int) ([]models.ClauseComparison, error) {
	if len(a) == 0 || len(b) == 0 {
		return []models.ClauseComparison{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	va, err := embedder.EmbedBatch(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("embed first document: %w", err)
	}
	vb, err := embedder.EmbedBatch(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("embed second document: %w", err)
	}
	if len(va) != len(a) || len(vb) != len(b) {
		return nil, fmt.Errorf("embedder returned %d/%d vectors for %d/%d clauses", len(va), len(vb), len(a), len(b))
	}

	results := make([]models.ClauseComparison, 0, len(a))
	order := make([]int, len(b))
	row := make([]float64, len(b))
	for i := range va {
		for j := range vb {
			row[j] = vector.CosineSimilarity(va[i], vb[j])
			order[j] = j
		}
		sort.SliceStable(order, func(x, y int) bool { return row[order[x]] > row[order[y]] })
		for _, j := range order[:min(topK, len(order))] {
			if row[j] < threshold {
				break
			}
			results = append(results, models.ClauseComparison{
				ClauseFromFile1: a[i],
				ClauseFromFile2: b[j],
				Similarity:      utils.Round(row[j], 3),
			})
		}
	}
	return results, nil
}

// Summarize reports how many pairs were found and previews the first few, with clause
// text cut to PreviewClauseChars characters and similarity rounded to two decimals.
func Summarize(results []models.ClauseComparison) Summary {
	preview := make([]models.ClauseComparison, 0, PreviewSize)
	for _, r := range results[:min(PreviewSize, len(results))] {
		preview = append(preview, models.ClauseComparison{
			ClauseFromFile1: utils.Truncate(r.ClauseFromFile1, PreviewClauseChars),
			ClauseFromFile2: utils.Truncate(r.ClauseFromFile2, PreviewClauseChars),
			Similarity:      utils.Round(r.Similarity, 2),
		})
	}
	return Summary{
		Summary:       fmt.Sprintf("%d clauses compared", len(results)),
		SampleMatches: preview,
	}
}
