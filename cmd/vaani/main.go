// Package main is the Vaani CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/cli"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/compare"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/config"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/embedding"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/extract"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/fileid"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/indexer"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/llm"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/metrics"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/retrieval"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/server"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/watcher"
	"github.com/riyaaaa19/Bajaj-Vaani/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/vaani/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "ask":
		runAsk()
	case "compare":
		runCompare()
	case "status":
		runStatus()
	case "rebuild":
		runRebuild()
	case "version", "--version", "-v":
		fmt.Printf("vaani version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and builds a logger; debug forces debug logging.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug || *debug))

	components, err := initializeComponents(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc server.WatchService
	if len(cfg.Watch.Directories) > 0 {
		w := watcher.New(cfg.Watch, components.Indexer, watcher.WithLogger(logger))
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		go w.SyncExisting(watchCtx)
		watchSvc = w
	}

	srv, err := server.NewServer(cfg, server.Dependencies{
		Engine:    components.Engine,
		Indexer:   components.Indexer,
		Ledger:    components.Ledger,
		Embedder:  components.Embedder,
		Answerer:  components.Answerer,
		Extractor: components.Extractor,
		Fetcher:   components.Fetcher,
		Metrics:   components.Metrics,
		Watch:     watchSvc,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printIngestUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: vaani ingest [flags] <file|directory|url>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Directories are walked recursively; only files with a watch extension are ingested.
Text already ingested from any source is skipped without embedding it again.

Examples:
  vaani ingest policy.pdf
  vaani ingest ./policies
  vaani ingest "https://example.com/policy.pdf?sv=2024"
`)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	fs.Usage = func() { printIngestUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		printIngestUsage(fs)
		os.Exit(1)
	}
	target := fs.Arg(0)

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, nil)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()
	ctx := context.Background()

	if isURL(target) {
		content, ext, err := components.Fetcher.Fetch(ctx, target)
		if err != nil {
			fatalf("Download failed: %v", err)
		}
		res, err := components.Indexer.IngestBytes(ctx, content, ext, fileid.URLSourceID(target))
		if err != nil {
			fatalf("Ingest failed: %v", err)
		}
		printResult(res)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		fatalf("Failed to stat path: %v", err)
	}
	if info.IsDir() {
		bulk, err := components.Indexer.IngestDirectory(ctx, target, cfg.Watch.Extensions)
		if err != nil {
			fatalf("Ingesting directory failed: %v", err)
		}
		fmt.Printf("Ingested %d file(s) from %s: %d clause(s), %d failed\n", bulk.Files, target, bulk.Clauses, bulk.Failed)
		return
	}
	res, err := components.Indexer.IngestFile(ctx, target)
	if err != nil {
		fatalf("Ingest failed: %v", err)
	}
	printResult(res)
}

func printResult(res indexer.Result) {
	if res.Unchanged {
		fmt.Printf("%s: unchanged, already ingested\n", res.SourceID)
		return
	}
	fmt.Printf("%s: %d clause(s), %d added, %d skipped\n", res.SourceID, res.Clauses, res.Added, res.Skipped)
}

// argsReorder moves flags that appear after positional arguments to the front so that
// flag.Parse sees them; the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so questions work with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = query the local snapshot directly)")
	topK := fs.Int("top-k", 0, "number of clauses to return (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		fmt.Println("Usage: vaani query [flags] <question>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	req := &models.QueryRequest{Question: question, TopK: *topK}

	var response models.QueryResponse
	if *serverURL != "" {
		if err := postJSON(*serverURL+"/api/v1/query", req, &response); err != nil {
			fatalf("Query failed: %v", err)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, nil)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		if err := req.Validate(cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK); err != nil {
			fatalf("Invalid query: %v", err)
		}
		start := time.Now()
		matches, err := components.Engine.QueryMatches(context.Background(), req.Question, req.TopK)
		if err != nil {
			fatalf("Query failed: %v", err)
		}
		response = models.QueryResponse{
			Question:  req.Question,
			Matches:   matches,
			Total:     len(matches),
			QueryTime: time.Since(start).Milliseconds(),
		}
	}
	if err := cli.WriteQueryResponse(os.Stdout, &response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer from the local snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		fmt.Println("Usage: vaani ask [flags] <question>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var answer *models.Answer
	if *serverURL != "" {
		var response models.AskResponse
		if err := postJSON(*serverURL+"/api/v1/ask", &models.AskRequest{Text: question}, &response); err != nil {
			fatalf("Ask failed: %v", err)
		}
		answer = response.Explanation
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, nil)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		ctx := context.Background()
		clauses, err := components.Engine.Query(ctx, question, cfg.Retrieval.DefaultTopK)
		if err != nil {
			fatalf("Retrieval failed: %v", err)
		}
		answer, err = components.Answerer.GenerateAnswer(ctx, question, clauses)
		if err != nil {
			fatalf("Answer failed: %v", err)
		}
	}
	if answer == nil {
		fatalf("Answer failed: empty response")
	}
	answer.Question = question
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	threshold := fs.Float64("threshold", -1, "minimum cosine similarity (negative = configured default)")
	topK := fs.Int("top-k", 0, "matches kept per clause (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 2 {
		fmt.Println("Usage: vaani compare [flags] <file-or-url> <file-or-url>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	if *threshold >= 0 {
		cfg.Compare.Threshold = *threshold
	}
	if *topK > 0 {
		cfg.Compare.TopK = *topK
	}
	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		fatalf("Failed to initialize embedder: %v", err)
	}
	defer emb.Close()
	splitter, err := newSplitter(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()
	ex := extract.NewExtractor()
	fetcher := extract.NewFetcher(cfg.FetchTimeout(), cfg.MaxUploadBytes)
	sides := make([][]string, 2)
	for i, src := range fs.Args() {
		text, err := loadText(ctx, ex, fetcher, src)
		if err != nil {
			fatalf("Failed to read %s: %v", src, err)
		}
		sides[i] = splitter.Split(text)
	}
	results, err := compare.Compare(ctx, emb, sides[0], sides[1], cfg.Compare.Threshold, cfg.Compare.TopK)
	if err != nil {
		fatalf("Compare failed: %v", err)
	}
	if err := cli.WriteComparison(os.Stdout, results, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// loadText extracts the text of a local file or a downloaded URL.
func loadText(ctx context.Context, ex *extract.Extractor, fetcher *extract.Fetcher, src string) (string, error) {
	if !isURL(src) {
		return ex.Extract(src)
	}
	content, ext, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return "", err
	}
	return ex.ExtractBytes(content, ext)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the local snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	var status models.Status
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, nil)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		status = localStatus(context.Background(), cfg, components)
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// localStatus reports the engine and ledger opened from the configured paths.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) models.Status {
	stats := c.Engine.Stats()
	status := models.Status{
		State:        stats.State,
		Clauses:      stats.Clauses,
		Dimensions:   stats.Dimensions,
		IndexType:    stats.IndexType,
		DedupPolicy:  stats.DedupPolicy,
		SnapshotPath: stats.SnapshotPath,
		Embedder:     cfg.Embedding.Provider + "/" + cfg.Embedding.Model,
		LLM:          "disabled",
	}
	if c.Answerer.Enabled() {
		status.LLM = cfg.LLM.Provider + "/" + cfg.LLM.Model
	}
	if n, err := c.Ledger.CountDocuments(ctx); err == nil {
		status.Documents = n
	}
	indexPath, metaPath := storage.SnapshotPaths(stats.SnapshotPath)
	if n, err := storage.DiskUsageBytes(indexPath, metaPath, cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = n
	}
	return status
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = reset the local snapshot directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		var out map[string]any
		if err := postJSON(*serverURL+"/api/v1/rebuild", nil, &out); err != nil {
			fatalf("Rebuild failed: %v", err)
		}
		fmt.Println("Index rebuilt (empty)")
		return
	}
	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, nil)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()
	if err := components.Indexer.Reset(context.Background()); err != nil {
		fatalf("Rebuild failed: %v", err)
	}
	fmt.Println("Index rebuilt (empty)")
}

func postJSON(url string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Embedder  embedding.Embedder
	Engine    *retrieval.Engine
	Ledger    *storage.SQLiteDocumentStore
	Indexer   *indexer.Indexer
	Answerer  *llm.Answerer
	Extractor *extract.Extractor
	Fetcher   *extract.Fetcher
	Metrics   *metrics.Metrics
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Ledger != nil {
		_ = c.Ledger.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func newSplitter(cfg *config.Config) (*indexer.Splitter, error) {
	mode, err := indexer.ParseSplitMode(cfg.Retrieval.SplitMode)
	if err != nil {
		return nil, err
	}
	return indexer.NewSplitter(
		indexer.WithMode(mode),
		indexer.WithMinLength(cfg.Retrieval.MinClauseLength),
		indexer.WithMaxClauses(cfg.Retrieval.MaxClauses),
	), nil
}

// initializeComponents opens the engine snapshot and the ledger and wires the indexer and
// answerer. reg receives the metrics collectors; nil keeps them on a private registry.
func initializeComponents(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Components, error) {
	c := &Components{Metrics: metrics.New(reg)}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = emb

	dedup, err := retrieval.ParseDedupPolicy(cfg.Retrieval.Dedup)
	if err != nil {
		return nil, err
	}
	c.Engine = retrieval.NewEngine(emb,
		retrieval.WithSnapshotPath(cfg.Storage.SnapshotPath),
		retrieval.WithIndexType(cfg.Retrieval.IndexType),
		retrieval.WithMaxClauseLength(cfg.Retrieval.MaxClauseLength),
		retrieval.WithDedupPolicy(dedup),
		retrieval.WithLogger(logger),
		retrieval.WithMetrics(c.Metrics),
	)
	if err := c.Engine.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	c.Ledger, err = storage.NewSQLiteDocumentStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	splitter, err := newSplitter(cfg)
	if err != nil {
		return nil, err
	}
	c.Extractor = extract.NewExtractor()
	c.Fetcher = extract.NewFetcher(cfg.FetchTimeout(), cfg.MaxUploadBytes)
	c.Indexer = indexer.NewIndexer(c.Engine, c.Ledger, c.Extractor,
		indexer.WithLogger(logger),
		indexer.WithSplitter(splitter),
		indexer.WithWorkers(cfg.Workers),
	)

	completer, err := llm.New(cfg.LLM, logger)
	if err != nil {
		logger.Warn("answer generation disabled", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		completer = nil
	}
	c.Answerer = llm.NewAnswerer(completer,
		llm.WithLogger(logger),
		llm.WithTimeout(cfg.LLM.Timeout()),
		llm.WithMetrics(c.Metrics),
	)
	ok = true
	return c, nil
}

func printUsage() {
	fmt.Println(`vaani - Document question answering over insurance policies

Usage:
  vaani server [flags]                 Start the HTTP server
  vaani ingest [flags] <path|url>      Ingest a file, a directory or a document URL
  vaani query [flags] <question>       Show the clauses closest to a question
  vaani ask [flags] <question>         Answer a coverage question from retrieved clauses
  vaani compare [flags] <a> <b>        Compare the clauses of two policies
  vaani status [flags]                 Show index, ledger and model status
  vaani rebuild [flags]                Empty the index and the document ledger
  vaani version                        Show version
  vaani help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/vaani/config.yaml,
                     or ./config.yaml when present)
  --server string    Server URL for query, ask, status and rebuild
                     (default: http://localhost:8000). Use --server "" to work on the
                     local snapshot directly.
  --output string    Output format for query, ask, compare and status: text or json

Server Flags:
  --debug            Enable debug logging

Examples:
  vaani server
  vaani ingest ./policies
  vaani query "Is maternity covered?"
  vaani query --server "" --top-k 3 "waiting period for cataract surgery"
  vaani ask "46-year-old male, knee surgery in Pune, 3-month-old policy"
  vaani compare old-policy.pdf new-policy.pdf
  vaani status --output json`)
}
