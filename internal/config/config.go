// Package config provides configuration loading and structs for the Vaani server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug               bool            `yaml:"debug"`
	Server              ServerConfig    `yaml:"server"`
	Storage             StorageConfig   `yaml:"storage"`
	Embedding           EmbeddingConfig `yaml:"embedding"`
	Retrieval           RetrievalConfig `yaml:"retrieval"`
	LLM                 LLMConfig       `yaml:"llm"`
	Compare             CompareConfig   `yaml:"compare"`
	Watch               WatchConfig     `yaml:"watch"`
	Workers             int             `yaml:"workers"`
	FetchTimeoutSeconds int             `yaml:"fetch_timeout_seconds"`
	MaxUploadBytes      int64           `yaml:"max_upload_bytes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the snapshot base path and the document ledger database path.
// The snapshot is written as SnapshotPath+".index" and SnapshotPath+".json".
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedder.
// Provider is one of: fastembed, onnx, openai, hashing.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	CacheDir   string `yaml:"cache_dir"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
}

// APIKey returns the key from the environment variable named by APIKeyEnv.
func (e EmbeddingConfig) APIKey() string {
	return lookupKey(e.APIKeyEnv)
}

// RetrievalConfig holds clause splitting, index and query settings.
type RetrievalConfig struct {
	IndexType       string `yaml:"index_type"`
	SplitMode       string `yaml:"split_mode"`
	MinClauseLength int    `yaml:"min_clause_length"`
	MaxClauses      int    `yaml:"max_clauses"`
	MaxClauseLength int    `yaml:"max_clause_length"`
	DefaultTopK     int    `yaml:"default_top_k"`
	MaxTopK         int    `yaml:"max_top_k"`
	Dedup           string `yaml:"dedup"`
}

// LLMConfig selects the chat model used to answer questions.
// Provider is one of: openai, anthropic, none.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
}

// APIKey returns the key from the environment variable named by APIKeyEnv.
func (l LLMConfig) APIKey() string {
	return lookupKey(l.APIKeyEnv)
}

// Timeout returns the per-request model timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// CompareConfig holds policy comparison settings.
type CompareConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// FetchTimeout returns the document download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func lookupKey(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// Load reads and parses the config file at path, expands paths, applies defaults and
// environment overrides. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.CacheDir != "" {
		cfg.Embedding.CacheDir = expandPath(cfg.Embedding.CacheDir, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config with every default applied, plus environment overrides.
// Used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values from VAANI_HOST, VAANI_PORT (or PORT) and VAANI_DEBUG.
// Unparseable values are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("VAANI_HOST"); v != "" {
		cfg.Server.Host = v
	}
	port := os.Getenv("VAANI_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("VAANI_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
