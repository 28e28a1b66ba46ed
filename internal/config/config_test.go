package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VAANI_HOST", "VAANI_PORT", "PORT", "VAANI_DEBUG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
retrieval:
  dedup: per_source
  default_top_k: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Retrieval.Dedup != "per_source" || cfg.Retrieval.DefaultTopK != 3 {
		t.Errorf("unexpected retrieval config: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.MinClauseLength != 30 {
		t.Errorf("min_clause_length should default to 30, got %d", cfg.Retrieval.MinClauseLength)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  snapshot_path: "./data/index/base"
  database_path: "./data/db/documents.db"
watch:
  directories: ["./dev/sample"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "index", "base"); cfg.Storage.SnapshotPath != want {
		t.Errorf("snapshot_path = %s, want %s", cfg.Storage.SnapshotPath, want)
	}
	if want := filepath.Join(dir, "data", "db", "documents.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "dev", "sample"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8000 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Embedding.Provider != "fastembed" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Retrieval.Dedup != "global" || cfg.Retrieval.SplitMode != "paragraph" {
		t.Errorf("default retrieval: got %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.MaxClauseLength != 1000 || cfg.Retrieval.DefaultTopK != 5 {
		t.Errorf("default retrieval limits: got %+v", cfg.Retrieval)
	}
	if cfg.Compare.Threshold != 0.4 || cfg.Compare.TopK != 1 {
		t.Errorf("default compare: got %+v", cfg.Compare)
	}
	if cfg.LLM.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("default llm api_key_env: got %s", cfg.LLM.APIKeyEnv)
	}
	if len(cfg.Watch.Extensions) != 6 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
}

func TestApplyDefaults_providerSpecific(t *testing.T) {
	cfg := &Config{
		Embedding: EmbeddingConfig{Provider: "openai"},
		LLM:       LLMConfig{Provider: "anthropic"},
	}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 1536 || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("openai embedding defaults: got %+v", cfg.Embedding)
	}
	if cfg.LLM.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Errorf("anthropic api_key_env: got %s", cfg.LLM.APIKeyEnv)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	f := false
	tests := []struct {
		name string
		w    WatchConfig
		want bool
	}{
		{"nil_returns_true", WatchConfig{}, true},
		{"false_returns_false", WatchConfig{Recursive: &f}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.RecursiveOrDefault(); got != tt.want {
				t.Errorf("RecursiveOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("VAANI_DEBUG", "true")
	cfg := Default()
	if cfg.Server.Port != 7000 {
		t.Errorf("PORT override: got %d", cfg.Server.Port)
	}
	if !cfg.Debug {
		t.Error("VAANI_DEBUG override not applied")
	}

	t.Setenv("VAANI_PORT", "7100")
	t.Setenv("VAANI_DEBUG", "not-a-bool")
	cfg = Default()
	if cfg.Server.Port != 7100 {
		t.Errorf("VAANI_PORT should win over PORT: got %d", cfg.Server.Port)
	}
	if cfg.Debug {
		t.Error("unparseable VAANI_DEBUG should be ignored")
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("VAANI_TEST_KEY", " sk-test ")
	l := LLMConfig{APIKeyEnv: "VAANI_TEST_KEY"}
	if got := l.APIKey(); got != "sk-test" {
		t.Errorf("APIKey() = %q", got)
	}
	if got := (EmbeddingConfig{}).APIKey(); got != "" {
		t.Errorf("APIKey() without env name = %q, want empty", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("VAANI_DOTENV_TEST=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VAANI_DOTENV_TEST", "")
	os.Unsetenv("VAANI_DOTENV_TEST")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("VAANI_DOTENV_TEST"); got != "from-file" {
		t.Errorf("VAANI_DOTENV_TEST = %q, want from-file", got)
	}
}

func TestSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:    ServerConfig{Host: "localhost", Port: 9090},
		Storage:   StorageConfig{DatabasePath: "/tmp/db", SnapshotPath: "/tmp/base"},
		Retrieval: RetrievalConfig{Dedup: "none"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Retrieval.Dedup != "none" {
		t.Errorf("loaded dedup: got %s", loaded.Retrieval.Dedup)
	}
}
