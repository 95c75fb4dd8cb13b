// File path: cmd/cognify/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cognifyhq/cognify/internal/api"
	"github.com/cognifyhq/cognify/internal/chat"
	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/embedding"
	"github.com/cognifyhq/cognify/internal/ingest"
	"github.com/cognifyhq/cognify/internal/llm"
	"github.com/cognifyhq/cognify/internal/rag"
	"github.com/cognifyhq/cognify/internal/sqlite"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("cognify: .env file not loaded", "error", err)
	} else {
		logger.Info("cognify: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite database")
	workers := flag.Int("workers", 4, "embedding worker pool size")
	maxContext := flag.Int("max-context", 0, "maximum assembled context length in characters (0 for default)")
	flag.Parse()

	logger.Info("cognify: startup initiated", "addr", *addr, "db", *dbPath)

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		logger.Error("cognify: store initialization failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer store.Close()

	embedCfg, err := embedding.LoadConfig()
	if err != nil {
		logger.Error("cognify: embedding config load failed", "error", err)
		fmt.Println("embedding config error:", err)
		os.Exit(1)
	}
	embedder := embedding.NewService(embedCfg, store)
	logger.Info("cognify: embedding service ready", "primary_model", embedCfg.PrimaryModel)

	ragSvc, err := rag.New(store, embedder)
	if err != nil {
		logger.Error("cognify: retrieval service construction failed", "error", err)
		fmt.Println("retrieval error:", err)
		os.Exit(1)
	}

	pipeline, err := ingest.NewPipeline(store, embedder, ingest.WithWorkers(*workers))
	if err != nil {
		logger.Error("cognify: ingest pipeline construction failed", "error", err)
		fmt.Println("ingest error:", err)
		os.Exit(1)
	}

	provider := llm.NewProvider()
	logger.Info("cognify: llm provider ready", "provider", provider.Name())
	chatSvc, err := chat.NewService(ragSvc, provider, *maxContext)
	if err != nil {
		logger.Error("cognify: chat service construction failed", "error", err)
		fmt.Println("chat error:", err)
		os.Exit(1)
	}

	server, err := api.NewServer(store, ragSvc, chatSvc, pipeline, rag.LoadDefaultSettings())
	if err != nil {
		logger.Error("cognify: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cognify: listening", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("cognify: server stopped", "error", err)
			fmt.Println("server error:", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("cognify: shutdown requested", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("cognify: shutdown failed", "error", err)
		}
	}
	logger.Info("cognify: stopped")
}

func defaultDBPath() string {
	if env := strings.TrimSpace(os.Getenv("SQLITE_PATH")); env != "" {
		return env
	}
	return filepath.Join("data", "cognify.db")
}
