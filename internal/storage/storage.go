// Package storage persists clause metadata snapshots and the ledger of ingested documents.
package storage

import (
	"context"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
)

// DocumentStore records which documents have been ingested, keyed by content hash.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetDocumentByHash(ctx context.Context, contentHash string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	// Reset removes every ledger entry. Used when the index is rebuilt.
	Reset(ctx context.Context) error

	Close() error
}
