// Package main provides the ragchat entry point: the HTTP API server, the
// MCP server, and admin commands for the document corpus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/ragchat/internal/chat"
	"github.com/bull/ragchat/internal/chunker"
	"github.com/bull/ragchat/internal/config"
	"github.com/bull/ragchat/internal/embedding"
	"github.com/bull/ragchat/internal/extract"
	"github.com/bull/ragchat/internal/ingest"
	"github.com/bull/ragchat/internal/llm"
	mcpserver "github.com/bull/ragchat/internal/mcp"
	"github.com/bull/ragchat/internal/obs"
	"github.com/bull/ragchat/internal/records"
	"github.com/bull/ragchat/internal/server"
	"github.com/bull/ragchat/internal/vectorstore"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Retrieval-augmented document Q&A service",
	Long: `ragchat indexes uploaded documents into a vector store and answers
questions about them with an LLM, grounded in the indexed content.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings and generation (required)`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server (stdio, or HTTP with --http)",
	RunE:  runMCP,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest one or more documents from disk",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a document and its indexed content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var mcpHTTP bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	mcpCmd.Flags().BoolVar(&mcpHTTP, "http", false, "serve MCP over streamable HTTP instead of stdio")
	rootCmd.AddCommand(serveCmd, mcpCmd, ingestCmd, listCmd, deleteCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return config.Load("config.yaml")
	}
	return config.Default(), nil
}

// app bundles the wired components behind the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *records.Store
	index    *vectorstore.Qdrant
	manager  *ingest.Manager
	pipeline *chat.Pipeline
}

func (a *app) Close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func initApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store, err := records.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	index, err := vectorstore.New(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.Collection, cfg.Embedding.Dimensions)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	embedder, err := embedding.NewEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.BatchSize)
	if err != nil {
		_ = store.Close()
		_ = index.Close()
		return nil, err
	}

	generator, err := llm.NewGenerator(cfg.Chat.DefaultModel)
	if err != nil {
		_ = store.Close()
		_ = index.Close()
		return nil, err
	}

	sink := obs.NewSlogSink(logger)
	extractor := extract.NewExtractor(cfg.Ingest.AllowedExtensions)
	splitter := chunker.New(cfg.Ingest.ChunkSentences, cfg.Ingest.ChunkOverlap)

	manager := ingest.NewManager(store, index, embedder, extractor, splitter, sink, logger, cfg.Timeouts.Embed())
	pipeline := chat.NewPipeline(store, index, embedder, generator, sink, logger, chat.Options{
		TopK:            cfg.Chat.TopK,
		DefaultModel:    cfg.Chat.DefaultModel,
		SearchTimeout:   cfg.Timeouts.Search(),
		GenerateTimeout: cfg.Timeouts.Generate(),
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		index:    index,
		manager:  manager,
		pipeline: pipeline,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"qdrant": a.index.Health,
	}
	srv := server.New(a.manager, a.pipeline, a.logger, a.cfg.Ingest.MaxUploadBytes, checks)

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	srv := mcpserver.NewServer(&mcpserver.Config{
		Documents: a.manager,
		Chat:      a.pipeline,
	})

	if mcpHTTP {
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpserver.NewHTTPHandler(srv, false))

		addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		a.logger.Info("mcp http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	a.logger.Info("mcp server starting (stdio)")
	return srv.Run(ctx)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var failed int
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}
		doc, err := a.manager.Ingest(ctx, filepath.Base(path), content)
		if err != nil {
			fmt.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("  %s: document %d\n", path, doc.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.manager.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%6d  %s  %s\n", d.ID, d.UploadedAt.Format(time.RFC3339), d.Filename)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.Remove(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Document %d removed.\n", id)
	return nil
}
