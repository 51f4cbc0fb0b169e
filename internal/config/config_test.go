package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "store.db"
analytics:
  ttl: 2m
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
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
	if cfg.Analytics.TTL != 2*time.Minute {
		t.Errorf("ttl = %v, want 2m", cfg.Analytics.TTL)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/store.db"
  cache_path: "./data/cache.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "store.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "cache.db"); cfg.Storage.CachePath != want {
		t.Errorf("cache_path = %s, want %s", cfg.Storage.CachePath, want)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("embedding:\n  api_key: from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvEmbeddingAPIKey, "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.Embedding.APIKey)
	}
	if !cfg.Embedding.RemoteEnabled() {
		t.Error("remote should be enabled when an api key is present")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Embedding.Dimensions != 128 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.BatchSize != 10 {
		t.Errorf("default batch size: got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Search.SemanticWeight != 0.6 || cfg.Search.KeywordWeight != 0.4 {
		t.Errorf("default weights: got %v/%v", cfg.Search.SemanticWeight, cfg.Search.KeywordWeight)
	}
	if cfg.Analytics.TTL != 5*time.Minute {
		t.Errorf("default ttl: got %v", cfg.Analytics.TTL)
	}
	if cfg.Analytics.TopProducts != 3 || cfg.Analytics.HighMarginThreshold != 30 {
		t.Errorf("default analytics: got %+v", cfg.Analytics)
	}
	if cfg.Embedding.RemoteEnabled() {
		t.Error("remote should be disabled without an api key")
	}
}

func TestApplyDefaults_KeepsExplicitKeywordOnlyWeights(t *testing.T) {
	cfg := &Config{Search: SearchConfig{KeywordWeight: 1}}
	ApplyDefaults(cfg)
	if cfg.Search.SemanticWeight != 0 || cfg.Search.KeywordWeight != 1 {
		t.Errorf("weights overwritten: %+v", cfg.Search)
	}
}

func TestEmbeddingConfig_RemoteEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  EmbeddingConfig
		want bool
	}{
		{"local forced", EmbeddingConfig{Provider: "local", APIKey: "k"}, false},
		{"remote forced without key", EmbeddingConfig{Provider: "remote"}, true},
		{"auto with key", EmbeddingConfig{APIKey: "k"}, true},
		{"auto without key", EmbeddingConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.RemoteEnabled(); got != tt.want {
				t.Errorf("RemoteEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchConfig_EnabledOrDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.EnabledOrDefault() {
		t.Error("nil should default to true")
	}
	f := false
	w.Enabled = &f
	if w.EnabledOrDefault() {
		t.Error("explicit false should be honoured")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/store.db"},
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
}
