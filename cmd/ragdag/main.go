// Package main is the ragdag CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/config"
	"github.com/hyperjump/ragdag/internal/embedding"
	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/indexer"
	"github.com/hyperjump/ragdag/internal/keyword"
	"github.com/hyperjump/ragdag/internal/llm"
	"github.com/hyperjump/ragdag/internal/models"
	"github.com/hyperjump/ragdag/internal/search"
	"github.com/hyperjump/ragdag/internal/server"
	"github.com/hyperjump/ragdag/internal/storage"
	"github.com/hyperjump/ragdag/internal/watcher"
	"github.com/hyperjump/ragdag/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

// loadConfig loads the config file at path. When the default path is
// used and no file exists, built-in defaults apply so a bare checkout
// works without an init step.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "init":
		runInit()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "relate":
		runRelate()
	case "link":
		runLink()
	case "graph":
		runGraph()
	case "status":
		runStatus()
	case "server":
		runServer()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("ragdag version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the initialized services backing every subcommand.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Ledger   *storage.Ledger
	Graph    *graph.Graph
	Embedder embedding.Embedder
	Keyword  keyword.Index
	LLM      llm.Provider
	Engine   *search.Engine
	Asker    *search.Asker
	Indexer  *indexer.Indexer
}

func (c *Components) Close() {
	if c.Ledger != nil {
		_ = c.Ledger.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(configPath string, debug bool) (*Components, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ledger, err := storage.OpenLedger(cfg.StoreDir)
	if err != nil {
		return nil, err
	}

	var embedder embedding.Embedder
	embedder, err = embedding.New(cfg.Embedding.Provider, embedding.Options{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	if cfg.Embedding.CacheSize > 0 && embedding.Enabled(embedder) {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	kw, err := keyword.New(cfg.Search.KeywordBackend, cfg.StoreDir)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	provider, err := llm.New(cfg.LLM.Provider, llm.Options{Model: cfg.LLM.Model})
	if err != nil {
		_ = ledger.Close()
		_ = kw.Close()
		return nil, err
	}

	g := graph.New(cfg.StoreDir)
	engine := search.NewEngine(cfg.StoreDir, embedder, kw, &cfg.Search, logger)
	asker := search.NewAsker(engine, g, provider, cfg.LLM.MaxContext, logger)
	ix := indexer.NewIndexer(cfg, ledger, g, embedder, kw, logger)

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Ledger:   ledger,
		Graph:    g,
		Embedder: embedder,
		Keyword:  kw,
		LLM:      provider,
		Engine:   engine,
		Asker:    asker,
		Indexer:  ix,
	}, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	storeDir := fs.String("store", ".ragdag", "store directory")
	_ = fs.Parse(os.Args[2:])

	cfg := config.Default()
	cfg.StoreDir = *storeDir
	if err := os.MkdirAll(cfg.StoreDir, 0755); err != nil {
		fatalf("Failed to create store: %v", err)
	}
	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		if err := config.Save(defaultConfigPath, cfg); err != nil {
			fatalf("Failed to write config: %v", err)
		}
	}
	rules := filepath.Join(cfg.StoreDir, indexer.DomainRulesFilename)
	if _, err := os.Stat(rules); os.IsNotExist(err) {
		header := "# pattern [pattern...] → domain\n"
		if err := os.WriteFile(rules, []byte(header), 0644); err != nil {
			fatalf("Failed to write domain rules: %v", err)
		}
	}
	fmt.Printf("Initialized store at %s\n", cfg.StoreDir)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	domain := fs.String("domain", "", "target domain (\"auto\" routes via .domain-rules)")
	relate := fs.Bool("relate", false, "run auto-relate after ingest")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragdag add [flags] <file-or-directory>")
		os.Exit(1)
	}

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	report, err := c.Indexer.AddPath(context.Background(), fs.Arg(0), *domain)
	if err != nil {
		fatalf("Add failed: %v", err)
	}
	fmt.Printf("files: %d  chunks: %d  skipped: %d\n", report.Files, report.Chunks, report.Skipped)

	if *relate || c.Config.Edges.AutoRelate {
		rep, err := c.Graph.Relate(relateScope(*domain), c.Config.Edges.RelateThreshold)
		if err != nil {
			fatalf("Relate failed: %v", err)
		}
		fmt.Printf("related: %d edge(s) from %d pair(s)\n", rep.Created, rep.Pairs)
	}
}

// relateScope maps an add domain to a Relate scope. "auto" routes each
// file to its own domain during ingest, so no single collection named
// "auto" ever exists; relate must cover the whole store.
func relateScope(domain string) string {
	if domain == "auto" {
		return ""
	}
	return domain
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	mode := fs.String("mode", "", "search mode: keyword, vector, or hybrid")
	domain := fs.String("domain", "", "restrict to one domain")
	top := fs.Int("top", 0, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragdag search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	results, err := c.Engine.Search(context.Background(), &models.SearchQuery{
		Query:  query,
		Mode:   *mode,
		Domain: *domain,
		TopK:   *top,
	})
	if err != nil {
		fatalf("Search failed: %v", err)
	}

	if *outputFormat == "json" {
		printJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		fmt.Printf("%2d. %-50s %.4f\n", i+1, r.Path, r.Score)
		if r.Content != "" {
			preview := strings.ReplaceAll(r.Content, "\n", " ")
			fmt.Printf("    %s\n", utils.Truncate(preview, 120))
		}
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	domain := fs.String("domain", "", "restrict to one domain")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragdag ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	result, err := c.Asker.Ask(context.Background(), question, *domain)
	if err != nil {
		fatalf("Ask failed: %v", err)
	}

	if *outputFormat == "json" {
		printJSON(result)
		return
	}
	if result.Answer != nil {
		fmt.Println(*result.Answer)
	} else {
		fmt.Println("No LLM provider configured; retrieved context:")
		fmt.Println(result.Context)
	}
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  %s\n", s)
		}
	}
}

func runRelate() {
	fs := flag.NewFlagSet("relate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	domain := fs.String("domain", "", "restrict to one domain")
	threshold := fs.Float64("threshold", 0, "similarity threshold (default from config)")
	_ = fs.Parse(os.Args[2:])

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	th := *threshold
	if th == 0 {
		th = c.Config.Edges.RelateThreshold
	}
	report, err := c.Graph.Relate(*domain, th)
	if err != nil {
		fatalf("Relate failed: %v", err)
	}
	fmt.Printf("related: %d edge(s) from %d pair(s)\n", report.Created, report.Pairs)
}

func runLink() {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	edgeType := fs.String("type", graph.EdgeReferences, "edge type")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: ragdag link [flags] <source> <target>")
		os.Exit(1)
	}

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	if err := c.Graph.Link(fs.Arg(0), fs.Arg(1), *edgeType, ""); err != nil {
		fatalf("Link failed: %v", err)
	}
	fmt.Printf("linked %s -> %s (%s)\n", fs.Arg(0), fs.Arg(1), *edgeType)
}

func runGraph() {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	domain := fs.String("domain", "", "restrict to one domain")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	stats, err := c.Graph.Stats(*domain)
	if err != nil {
		fatalf("Graph failed: %v", err)
	}
	if *outputFormat == "json" {
		printJSON(stats)
		return
	}
	fmt.Printf("domains:   %d\n", stats.Domains)
	fmt.Printf("documents: %d\n", stats.Documents)
	fmt.Printf("chunks:    %d\n", stats.Chunks)
	fmt.Printf("edges:     %d\n", stats.Edges)
	for etype, n := range stats.EdgeTypes {
		fmt.Printf("  %-14s %d\n", etype, n)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	c, err := initializeComponents(*configPath, false)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	stats, err := c.Graph.Stats("")
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	fmt.Printf("store:      %s\n", c.Config.StoreDir)
	fmt.Printf("domains:    %d\n", stats.Domains)
	fmt.Printf("documents:  %d\n", stats.Documents)
	fmt.Printf("chunks:     %d\n", stats.Chunks)
	fmt.Printf("edges:      %d\n", stats.Edges)
	if diskBytes, err := storage.DiskUsageBytes(c.Config.StoreDir); err == nil {
		fmt.Printf("disk_bytes: %d\n", diskBytes)
	}
	fmt.Printf("embedding:  %s (%s, %d dims)\n",
		c.Config.Embedding.Provider, c.Config.Embedding.Model, c.Config.Embedding.Dimensions)
	fmt.Printf("keyword:    %s\n", c.Config.Search.KeywordBackend)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initializeComponents(*configPath, *debug)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	srv := server.NewServer(c.Engine, c.Asker, c.Indexer, c.Graph, c.Config, c.Logger)
	go func() {
		if err := srv.Start(); err != nil {
			c.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	if len(c.Config.Watch.Directories) > 0 {
		w := watcher.New(c.Config.Watch.Directories, c.Config.Watch.Extensions, func(path string) {
			if _, err := c.Indexer.AddPath(context.Background(), path, "auto"); err != nil {
				c.Logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		}, c.Logger)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := w.Start(watchCtx); err != nil {
			c.Logger.Warn("watcher failed to start", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	c.Logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	domain := fs.String("domain", "auto", "domain for ingested files")
	syncExisting := fs.Bool("sync", true, "ingest files already present at start")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initializeComponents(*configPath, *debug)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	roots := c.Config.Watch.Directories
	if fs.NArg() > 0 {
		roots = fs.Args()
	}
	if len(roots) == 0 {
		fmt.Println("Usage: ragdag watch [flags] <directory...> (or set watch.directories in config)")
		os.Exit(1)
	}

	w := watcher.New(roots, c.Config.Watch.Extensions, func(path string) {
		if _, err := c.Indexer.AddPath(context.Background(), path, *domain); err != nil {
			c.Logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
		}
	}, c.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()
	if *syncExisting {
		w.SyncExisting()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`ragdag - flat-file corpus with hybrid search and a provenance graph

Usage:
  ragdag init [flags]                 Create the store and a default config
  ragdag add [flags] <path>           Ingest a file or directory
  ragdag search [flags] <query>       Search the corpus
  ragdag ask [flags] <question>       Answer a question from the corpus
  ragdag relate [flags]               Link similar chunks by embedding similarity
  ragdag link [flags] <src> <dst>     Record an edge between two nodes
  ragdag graph [flags]                Show corpus and edge statistics
  ragdag status [flags]               Show store status
  ragdag server [flags]               Start the HTTP API
  ragdag watch [flags] <dir...>       Watch directories and ingest changes
  ragdag version                      Show version

Common Flags:
  --config string    Config file path (default: config.yaml, falls back to built-in defaults)
  --domain string    Domain scope ("auto" routes through .domain-rules on add/watch)
  --output string    Output format: text or json (search, ask, graph)

Examples:
  ragdag init
  ragdag add --domain docs ./notes
  ragdag search hybrid retrieval
  ragdag search --mode vector --top 5 "similarity scoring"
  ragdag ask "what did we decide about caching?"
  ragdag relate --threshold 0.85
  ragdag link docs/a/00.txt docs/b/00.txt
  ragdag watch --domain auto ~/notes`)
}
