package retrieval

import "errors"

var (
	// ErrNotInitialized is returned by every operation called before Initialize succeeds.
	ErrNotInitialized = errors.New("retrieval engine not initialized")
	// ErrEmbedding wraps embedder failures. The operation may be retried later.
	ErrEmbedding = errors.New("embedding failed")
)
