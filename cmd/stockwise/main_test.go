package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/models"
	"github.com/hyperjump/stockwise/internal/search"
	"github.com/hyperjump/stockwise/internal/vector"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"low stock", "-limit", "3"},
			expected: []string{"-limit", "3", "low stock"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "3", "low stock"},
			expected: []string{"-limit", "3", "low stock"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"low stock"},
			expected: []string{"low stock"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"sugar", "price", "-mode", "keyword"},
			expected: []string{"-mode", "keyword", "sugar", "price"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"sugar"}, "sugar"},
		{"multiple words", []string{"low", "stock"}, "low stock"},
		{"quoted phrase", []string{"low stock"}, "low stock"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_PrefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "./store.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_UsesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Search.DefaultLimit == 0 {
		t.Error("defaults should be applied")
	}
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestInitializeComponents_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./store.db"
  cache_path: "./cache.db"
embedding:
  provider: local
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}

	c, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	}()

	ctx := context.Background()
	if err := c.Data.SaveProduct(ctx, &models.Product{ID: "p1", Name: "Sugar", Category: "Food", BuyingPrice: 1, SellingPrice: 2, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	if err := c.Vectors.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Vectors.State() != vector.StateReady || c.Vectors.Len() != 1 {
		t.Fatalf("state = %s, len = %d", c.Vectors.State(), c.Vectors.Len())
	}

	text := c.Engine.RelevantContext(ctx, "sugar", 3)
	if text == search.NoContextFound {
		t.Errorf("expected context for sugar, got %q", text)
	}

	a, err := c.Analytics.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalProducts != 1 || a.LowStockCount != 1 {
		t.Errorf("unexpected analytics: %+v", a)
	}
}
