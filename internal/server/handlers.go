package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/compare"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/extract"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/fileid"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/llm"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/retrieval"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/vector"
	"go.uber.org/zap"
)

// errBadRequest marks client input errors; errFetch marks document download failures.
var (
	errBadRequest = errors.New("bad request")
	errFetch      = errors.New("failed to fetch document")
	errNoClauses  = errors.New("no valid clauses extracted")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, vector.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, errNoClauses):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, retrieval.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, retrieval.ErrEmbedding), errors.Is(err, llm.ErrCompletion), errors.Is(err, errFetch):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrNoCompleter):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "state": s.Engine.State().String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := s.Engine.Stats()
	status := &models.Status{
		State:        stats.State,
		Clauses:      stats.Clauses,
		Dimensions:   stats.Dimensions,
		IndexType:    stats.IndexType,
		DedupPolicy:  stats.DedupPolicy,
		SnapshotPath: stats.SnapshotPath,
		Embedder:     s.config.Embedding.Provider + "/" + s.config.Embedding.Model,
		LLM:          "disabled",
	}
	if s.Answerer.Enabled() {
		status.LLM = s.config.LLM.Provider + "/" + s.config.LLM.Model
	}
	if s.Ledger != nil {
		n, err := s.Ledger.CountDocuments(ctx)
		if err != nil {
			s.fail(w, r, fmt.Errorf("count documents: %w", err))
			return
		}
		status.Documents = n
	}
	indexPath, metaPath := storage.SnapshotPaths(stats.SnapshotPath)
	if n, err := storage.DiskUsageBytes(indexPath, metaPath, s.config.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = n
	}
	if s.Watch != nil {
		ws := s.Watch.Stats()
		status.WatchedDirs = ws.Directories
		status.WatchIngested = ws.Ingested
		status.WatchFailed = ws.Failed
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		s.respondJSON(w, http.StatusOK, map[string]any{"documents": []*models.Document{}, "total": 0})
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	docs, err := s.Ledger.ListDocuments(r.Context(), max(offset, 0), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.Ledger.CountDocuments(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": total})
}

func (s *Server) handleIngestClauses(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sourceID := strings.TrimSpace(req.SourceID)
	if sourceID == "" {
		s.fail(w, r, badRequest("source_id is required"))
		return
	}
	s.logger.Debug("ingest clauses request", zap.String("source_id", sourceID), zap.Int("clauses", len(req.Clauses)))
	res, err := s.Engine.Ingest(r.Context(), req.Clauses, sourceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"source_id": sourceID,
		"added":     res.Added,
		"skipped":   res.Skipped,
		"total":     s.Engine.Size(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(s.config.Retrieval.DefaultTopK, s.config.Retrieval.MaxTopK); err != nil {
		s.fail(w, r, badRequest("%v", err))
		return
	}
	start := time.Now()
	matches, err := s.Engine.QueryMatches(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.QueryResponse{
		Question:  req.Question,
		Matches:   matches,
		Total:     len(matches),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	question := strings.TrimSpace(req.Text)
	if question == "" {
		s.fail(w, r, badRequest("text cannot be empty"))
		return
	}
	ctx := r.Context()
	raw, err := s.Answerer.Ask(ctx, question)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	explanation, err := s.answer(ctx, question)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.AskResponse{RawAnswer: raw, Explanation: explanation})
}

// answer retrieves the default number of clauses for question and asks the model.
func (s *Server) answer(ctx context.Context, question string) (*models.Answer, error) {
	clauses, err := s.Engine.Query(ctx, question, s.config.Retrieval.DefaultTopK)
	if err != nil {
		return nil, err
	}
	return s.Answerer.GenerateAnswer(ctx, question, clauses)
}

// runInput is a parsed /run request: the document bytes and the questions.
type runInput struct {
	content   []byte
	ext       string
	sourceID  string
	questions []string
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.Answerer.Enabled() {
		s.fail(w, r, llm.ErrNoCompleter)
		return
	}
	ctx := r.Context()
	in, err := s.parseRun(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Indexer.IngestBytes(ctx, in.content, in.ext, in.sourceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Clauses == 0 && !res.Unchanged {
		s.fail(w, r, errNoClauses)
		return
	}

	answers, err := s.answerAll(ctx, in.questions)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.RunResponse{SourceID: in.sourceID, Answers: answers})
}

// parseRun reads either a multipart form (upload file or documents URL, repeated
// questions) or a JSON RunRequest, and loads the document bytes.
func (s *Server) parseRun(w http.ResponseWriter, r *http.Request) (*runInput, error) {
	in := &runInput{}
	var docURL string

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
			return nil, badRequest("invalid multipart form: %v", err)
		}
		req := models.RunRequest{Questions: r.MultipartForm.Value["questions"]}
		if err := req.Validate(); err != nil {
			return nil, badRequest("%v", err)
		}
		in.questions = req.Questions
		if file, header, err := r.FormFile("upload"); err == nil {
			defer file.Close()
			content, err := io.ReadAll(io.LimitReader(file, s.config.MaxUploadBytes+1))
			if err != nil {
				return nil, badRequest("read upload: %v", err)
			}
			if int64(len(content)) > s.config.MaxUploadBytes {
				return nil, extract.ErrTooLarge
			}
			in.content = content
			in.sourceID = filepath.Base(header.Filename)
			in.ext = extract.NormalizeExt(filepath.Ext(header.Filename))
		} else {
			docURL = strings.TrimSpace(r.FormValue("documents"))
		}
	} else {
		var req models.RunRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := req.Validate(); err != nil {
			return nil, badRequest("%v", err)
		}
		in.questions = req.Questions
		docURL = strings.TrimSpace(req.Documents)
	}

	if in.content == nil {
		if docURL == "" {
			return nil, badRequest("provide an upload file or a documents URL")
		}
		content, ext, err := s.Fetcher.Fetch(r.Context(), docURL)
		if err != nil {
			if errors.Is(err, extract.ErrTooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", errFetch, err)
		}
		in.content, in.ext, in.sourceID = content, ext, fileid.BlobSourceID
	}
	if !extract.SupportedForRun(in.ext) {
		return nil, badRequest("unsupported file type %q", in.ext)
	}
	return in, nil
}

// answerAll answers every question on the pool and returns answers in question order.
// The first failure cancels the remaining questions.
func (s *Server) answerAll(ctx context.Context, questions []string) ([]*models.Answer, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	answers := make([]*models.Answer, len(questions))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	setErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}
	for i, q := range questions {
		i, q := i, q
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			ans, err := s.answer(ctx, q)
			if err != nil {
				setErr(err)
				return
			}
			answers[i] = ans
		}); err != nil {
			wg.Done()
			setErr(fmt.Errorf("submit question: %w", err))
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return answers, nil
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.URL1) == "" || strings.TrimSpace(req.URL2) == "" {
		s.fail(w, r, badRequest("url1 and url2 are required"))
		return
	}
	ctx := r.Context()
	a, err := s.fetchClauses(ctx, req.URL1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.fetchClauses(ctx, req.URL2)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	results, err := compare.Compare(ctx, s.Embedder, a, b, s.config.Compare.Threshold, s.config.Compare.TopK)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", retrieval.ErrEmbedding, err))
		return
	}
	s.respondJSON(w, http.StatusOK, compare.Summarize(results))
}

// fetchClauses downloads a document and splits it the same way ingestion does.
func (s *Server) fetchClauses(ctx context.Context, url string) ([]string, error) {
	content, ext, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, extract.ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errFetch, err)
	}
	text, err := s.Extractor.ExtractBytes(content, ext)
	if err != nil {
		return nil, badRequest("extract %s: %v", url, err)
	}
	return s.Indexer.Splitter().Split(text), nil
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("rebuild requested")
	if err := s.Indexer.Reset(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "rebuilt", "clauses": s.Engine.Size()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
