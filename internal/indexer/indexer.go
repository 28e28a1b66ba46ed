// Package indexer turns documents into clauses and feeds them to the retrieval engine,
// recording every ingested document in the ledger.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/extract"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/fileid"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/retrieval"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"go.uber.org/zap"
)

// DefaultWorkers is the bulk ingestion pool size when none is configured.
const DefaultWorkers = 4

// Result describes the outcome of ingesting one document.
type Result struct {
	SourceID string `json:"source_id"`
	Clauses  int    `json:"clauses"`
	Added    int    `json:"added"`
	Skipped  int    `json:"skipped"`
	// Unchanged is set when identical text was ingested before and nothing was embedded.
	Unchanged bool `json:"unchanged"`
}

// BulkResult summarizes a directory build.
type BulkResult struct {
	Files   int `json:"files"`
	Failed  int `json:"failed"`
	Clauses int `json:"clauses"`
}

// Indexer splits documents into clauses and ingests them into the engine.
type Indexer struct {
	engine    *retrieval.Engine
	ledger    storage.DocumentStore
	splitter  *Splitter
	extractor *extract.Extractor
	workers   int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file ingested, file skipped, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithSplitter replaces the default paragraph splitter.
func WithSplitter(s *Splitter) IndexerOption {
	return func(idx *Indexer) {
		if s != nil {
			idx.splitter = s
		}
	}
}

// WithWorkers sets the number of files processed concurrently by IngestDirectory.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// NewIndexer creates an indexer. ledger may be nil, in which case content-hash reuse is
// disabled and documents are not recorded. extractor may be nil; files are then read as
// plain text.
func NewIndexer(engine *retrieval.Engine, ledger storage.DocumentStore, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		engine:    engine,
		ledger:    ledger,
		splitter:  NewSplitter(),
		extractor: extractor,
		workers:   DefaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// Splitter returns the splitter used for ingestion.
func (idx *Indexer) Splitter() *Splitter { return idx.splitter }

// IngestText splits text and ingests the clauses under sourceID. Text whose MD5 is already
// in the ledger is not embedded again, provided the engine still holds every clause under
// its dedup policy; otherwise it is ingested as new. Text that yields no clauses is a no-op.
func (idx *Indexer) IngestText(ctx context.Context, text, sourceID string) (Result, error) {
	res := Result{SourceID: sourceID}
	hash := fileid.ContentHash(text)
	clauses := idx.splitter.Split(text)
	if idx.ledger != nil {
		doc, err := idx.ledger.GetDocumentByHash(ctx, hash)
		switch {
		case err == nil && idx.engine.Holds(clauses, sourceID):
			idx.logger.Debug("indexer skipping known content",
				zap.String("source_id", sourceID), zap.String("first_source", doc.SourceID))
			res.Unchanged = true
			return res, nil
		case err == nil:
			idx.logger.Debug("indexer re-ingesting known content missing from the index",
				zap.String("source_id", sourceID), zap.String("first_source", doc.SourceID))
		case !errors.Is(err, storage.ErrNotFound):
			return res, fmt.Errorf("look up content hash: %w", err)
		}
	}

	res.Clauses = len(clauses)
	if len(clauses) == 0 {
		idx.logger.Debug("indexer found no clauses", zap.String("source_id", sourceID))
		return res, nil
	}

	ir, err := idx.engine.Ingest(ctx, clauses, sourceID)
	if err != nil {
		return res, err
	}
	res.Added, res.Skipped = ir.Added, ir.Skipped

	if idx.ledger != nil {
		doc := &models.Document{
			SourceID:    sourceID,
			ContentHash: hash,
			ClauseCount: len(clauses),
			AddedCount:  ir.Added,
			CreatedAt:   time.Now().UTC(),
		}
		if err := idx.ledger.CreateDocument(ctx, doc); err != nil {
			// clauses are already committed; the next ingest of this text is deduplicated by the engine
			idx.logger.Warn("indexer failed to record document", zap.String("source_id", sourceID), zap.Error(err))
		}
	}
	idx.logger.Debug("indexer document ingested",
		zap.String("source_id", sourceID), zap.Int("clauses", res.Clauses), zap.Int("added", res.Added))
	return res, nil
}

// IngestBytes extracts text from content according to ext and ingests it.
func (idx *Indexer) IngestBytes(ctx context.Context, content []byte, ext, sourceID string) (Result, error) {
	text, err := idx.extractBytes(content, ext)
	if err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("extract %s: %w", sourceID, err)
	}
	return idx.IngestText(ctx, text, sourceID)
}

// IngestFile reads and ingests the regular file at path. The source ID is the file's base name.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("absolute path: %w", err)
	}
	sourceID := fileid.SourceID(absPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Result{SourceID: sourceID}, fmt.Errorf("not a regular file: %s", absPath)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return Result{SourceID: sourceID}, fmt.Errorf("read file: %w", err)
	}
	idx.logger.Debug("indexer ingesting file", zap.String("path", absPath))
	return idx.IngestBytes(ctx, content, filepath.Ext(absPath), sourceID)
}

// IngestDirectory walks dir recursively and ingests each regular file whose extension is
// in allowedExts (all files when empty). Files are processed on a worker pool; a file that
// fails is logged and counted, and the walk continues. The error is non-nil only when the
// directory itself cannot be walked or ctx is cancelled.
func (idx *Indexer) IngestDirectory(ctx context.Context, dir string, allowedExts []string) (BulkResult, error) {
	var result BulkResult
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return result, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return result, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("not a directory: %s", absDir)
	}

	var files []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			idx.logger.Warn("indexer walk error", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		if finfo, statErr := os.Stat(path); statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return result, err
	}

	pool, err := ants.NewPool(idx.workers)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(path string, r Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed++
			idx.logger.Warn("indexer failed to ingest file", zap.String("path", path), zap.Error(err))
			return
		}
		result.Files++
		result.Clauses += r.Added
	}
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		path := path
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			r, err := idx.IngestFile(ctx, path)
			record(path, r, err)
		}); err != nil {
			wg.Done()
			record(path, Result{}, err)
		}
	}
	wg.Wait()

	idx.logger.Info("indexer directory ingested", zap.String("dir", absDir),
		zap.Int("files", result.Files), zap.Int("failed", result.Failed), zap.Int("clauses", result.Clauses))
	return result, ctx.Err()
}

// Reset empties the engine and the ledger so every document can be ingested again.
func (idx *Indexer) Reset(ctx context.Context) error {
	if err := idx.engine.Rebuild(ctx); err != nil {
		return err
	}
	if idx.ledger != nil {
		if err := idx.ledger.Reset(ctx); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
	}
	return nil
}

func (idx *Indexer) extractBytes(content []byte, ext string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.ExtractBytes(content, ext)
	}
	return string(content), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
