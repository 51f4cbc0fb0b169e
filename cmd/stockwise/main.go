// Package main is the stockwise CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/analytics"
	"github.com/hyperjump/stockwise/internal/cli"
	"github.com/hyperjump/stockwise/internal/config"
	"github.com/hyperjump/stockwise/internal/corpus"
	"github.com/hyperjump/stockwise/internal/datastore"
	"github.com/hyperjump/stockwise/internal/embedding"
	"github.com/hyperjump/stockwise/internal/importer"
	"github.com/hyperjump/stockwise/internal/kv"
	"github.com/hyperjump/stockwise/internal/models"
	"github.com/hyperjump/stockwise/internal/search"
	"github.com/hyperjump/stockwise/internal/server"
	"github.com/hyperjump/stockwise/internal/vector"
	"github.com/hyperjump/stockwise/internal/watcher"
	"github.com/hyperjump/stockwise/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/stockwise/config.yaml"

// loadConfig loads config from path. When path is the default and config.yaml exists in
// the current directory, that file is used instead.
// Returns the config and the path that was actually loaded.
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
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "context":
		runContext()
	case "analytics":
		runAnalytics()
	case "regenerate":
		runRegenerate()
	case "invalidate":
		runInvalidate()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("stockwise version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired engine parts shared by all subcommands.
type Components struct {
	Data      *datastore.SQLiteStore
	Cache     kv.Store
	Provider  *embedding.Provider
	Builder   *corpus.Builder
	Vectors   *vector.Store
	Engine    *search.Engine
	Analytics *analytics.Cache
}

// Close releases every component, collecting errors.
func (c *Components) Close() error {
	var result *multierror.Error
	if c.Provider != nil {
		if err := c.Provider.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Data != nil {
		if err := c.Data.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	data, err := datastore.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}
	cache, err := kv.NewSQLiteStore(cfg.Storage.CachePath)
	if err != nil {
		_ = data.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	provider := embedding.NewProvider(cfg.Embedding, embedding.WithLogger(logger))
	builder := corpus.NewBuilder(data, corpus.WithLogger(logger))
	vectors := vector.NewStore(cache, builder, provider, vector.WithLogger(logger))
	engine := search.NewEngine(vectors, provider, &cfg.Search,
		search.WithLogger(logger),
		search.WithWeights(cfg.Search.SemanticWeight, cfg.Search.KeywordWeight))
	stats := analytics.NewCache(data, cache,
		analytics.WithLogger(logger),
		analytics.WithConfig(cfg.Analytics))

	logger.Debug("components initialized",
		zap.String("database", data.Path()),
		zap.String("cache", cfg.Storage.CachePath),
		zap.Bool("remote_embeddings", provider.Remote()),
		zap.String("stamp", vectors.Stamp()))

	return &Components{
		Data:      data,
		Cache:     cache,
		Provider:  provider,
		Builder:   builder,
		Vectors:   vectors,
		Engine:    engine,
		Analytics: stats,
	}, nil
}

// commandFlags are the flags shared by one-shot subcommands.
type commandFlags struct {
	fs         *flag.FlagSet
	configPath *string
	format     *string
	debug      *bool
}

func newCommandFlags(name string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &commandFlags{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		format:     fs.String("format", "text", "output format: text or json"),
		debug:      fs.Bool("debug", false, "enable debug logging on stderr"),
	}
}

// setup loads config, builds a CLI logger and wires components. It exits on failure.
func (f *commandFlags) setup() (*config.Config, cli.OutputFormat, *zap.Logger, *Components) {
	format, err := cli.ParseOutputFormat(*f.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *f.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, format, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := components.Vectors.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize vector store", zap.Error(err))
	}
	logger.Info("vector store ready", zap.Int("documents", components.Vectors.Len()))

	srv := server.NewServer(components.Engine, components.Vectors, components.Analytics, cfg, logger)

	if cfg.Watch.EnabledOrDefault() {
		watchSvc, err := watcher.NewWatcher(
			[]string{cfg.Storage.DatabasePath},
			func() { srv.Resync(ctx) },
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce),
		)
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
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
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// buildQuery joins positional args into a single query string.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves flags that follow the query in front of it so flag.Parse sees them.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") && i > 0 {
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	f := newCommandFlags("search")
	limit := f.fs.Int("limit", 0, "number of results (0 = configured default)")
	mode := f.fs.String("mode", string(models.SearchModeHybrid), "search mode: hybrid, semantic or keyword")
	f.fs.Usage = func() {
		fmt.Fprintf(f.fs.Output(), "Usage: stockwise search [flags] <query>\n\n")
		f.fs.PrintDefaults()
	}
	_ = f.fs.Parse(reorderArgs(os.Args[2:]))

	queryStr := buildQuery(f.fs.Args())
	if queryStr == "" {
		f.fs.Usage()
		os.Exit(1)
	}

	_, format, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	response, err := components.Engine.Search(context.Background(), &models.SearchQuery{
		Query: queryStr,
		Limit: *limit,
		Mode:  models.SearchMode(strings.ToLower(*mode)),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runContext() {
	f := newCommandFlags("context")
	limit := f.fs.Int("limit", 0, "maximum context entries (0 = configured default)")
	_ = f.fs.Parse(reorderArgs(os.Args[2:]))

	queryStr := buildQuery(f.fs.Args())
	if queryStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: stockwise context [flags] <query>")
		os.Exit(1)
	}

	cfg, format, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	n := *limit
	if n <= 0 {
		n = cfg.Search.DefaultLimit
	}
	text := components.Engine.RelevantContext(context.Background(), queryStr, n)
	if err := cli.WriteContext(os.Stdout, queryStr, text, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAnalytics() {
	f := newCommandFlags("analytics")
	refresh := f.fs.Bool("refresh", false, "recompute ignoring the cache")
	_ = f.fs.Parse(os.Args[2:])

	_, format, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	var (
		result *models.CachedAnalytics
		err    error
	)
	if *refresh {
		result, err = components.Analytics.ForceRefresh(ctx)
	} else {
		result, err = components.Analytics.Get(ctx)
	}
	if err != nil {
		if result == nil {
			fmt.Fprintf(os.Stderr, "Analytics failed: %v\n", err)
			os.Exit(1)
		}
		logger.Warn("serving last known analytics", zap.Error(err))
	}
	if err := cli.WriteAnalytics(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRegenerate() {
	f := newCommandFlags("regenerate")
	_ = f.fs.Parse(os.Args[2:])

	_, _, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	components.Analytics.Invalidate(ctx)
	n, err := components.Vectors.Regenerate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Regenerated %d documents with errors: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Regenerated %d documents (%s)\n", n, components.Vectors.Stamp())
}

func runInvalidate() {
	f := newCommandFlags("invalidate")
	_ = f.fs.Parse(os.Args[2:])

	_, _, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	components.Vectors.Invalidate(ctx)
	components.Analytics.Invalidate(ctx)
	fmt.Println("Embeddings and analytics cache cleared")
}

func runImport() {
	f := newCommandFlags("import")
	_ = f.fs.Parse(reorderArgs(os.Args[2:]))

	if f.fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: stockwise import [flags] <workbook.xlsx>")
		os.Exit(1)
	}
	path := f.fs.Arg(0)

	_, _, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	imp := importer.NewImporter(components.Data, logger)
	res, importErr := imp.ImportFile(ctx, path)
	fmt.Printf("Imported %d products, %d suppliers, %d sales from %s\n",
		res.Products, res.Suppliers, res.Sales, path)

	components.Analytics.Invalidate(ctx)
	n, err := components.Vectors.Regenerate(ctx)
	if err != nil {
		logger.Warn("regeneration finished with errors", zap.Error(err))
	}
	fmt.Printf("Embedded %d documents\n", n)

	if importErr != nil {
		fmt.Fprintf(os.Stderr, "Import finished with errors: %v\n", importErr)
		os.Exit(1)
	}
}

func runStatus() {
	f := newCommandFlags("status")
	_ = f.fs.Parse(os.Args[2:])

	cfg, format, logger, components := f.setup()
	defer logger.Sync()
	defer components.Close()

	if err := components.Vectors.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	report := cli.Status{
		Version:   version,
		State:     components.Vectors.State().String(),
		Documents: components.Vectors.Len(),
		Stamp:     components.Vectors.Stamp(),
		Remote:    components.Provider.Remote(),
		Database:  cfg.Storage.DatabasePath,
		Cache:     cfg.Storage.CachePath,
	}
	if err := cli.WriteStatus(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stockwise - Retrieval and analytics context engine for inventory data

Usage:
  stockwise server [flags]              Start the HTTP server
  stockwise search [flags] <query>      Search the corpus (-mode hybrid|semantic|keyword)
  stockwise context [flags] <query>     Print the context block for a question
  stockwise analytics [flags]           Show business analytics (-refresh to recompute)
  stockwise regenerate [flags]          Rebuild all embeddings from the data store
  stockwise invalidate [flags]          Clear persisted embeddings and analytics
  stockwise import [flags] <file.xlsx>  Import products, suppliers and sales from a workbook
  stockwise status [flags]              Show engine status
  stockwise version                     Show version

Common flags:
  -config string   config file path (default /usr/local/etc/stockwise/config.yaml)
  -format string   output format: text or json
  -debug           enable debug logging`)
}
