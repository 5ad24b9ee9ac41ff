package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/command"
	"github.com/kailas-cloud/ftsearch/internal/config"
	"github.com/kailas-cloud/ftsearch/internal/embed"
	"github.com/kailas-cloud/ftsearch/internal/kvstore"
	"github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
	"github.com/kailas-cloud/ftsearch/internal/shard"
	httptransport "github.com/kailas-cloud/ftsearch/internal/transport/http"
)

var Version = "dev"

func main() {
	env := config.Env()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics.Register()

	var embedder embed.Embedder
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		embedder = embed.NewOpenAIEmbedder(apiKey, openai.AdaEmbeddingV2)
	}

	shards := make(map[string]*shard.Shard, cfg.Shards.Count)
	for i := 0; i < cfg.Shards.Count; i++ {
		id := fmt.Sprintf("shard-%d", i)
		shards[id] = shard.New(analysis.NewStandardAnalyzer(), embedder, log)
	}

	ctx := context.Background()
	dbPath := getEnv("FTSEARCH_DB_PATH", "ftsearch.db")
	store, err := kvstore.Open(ctx, dbPath)
	if err != nil {
		log.Fatal("failed to open kvstore", zap.Error(err))
	}
	defer store.Close()

	mgr := command.New(shards, store, log)
	mgr.SetLoader(store.Loader)

	httpSrv := httptransport.NewServer(mgr, log)
	router := httpSrv.Router(cfg.Auth.APIKeys)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info("starting ftserver",
		zap.String("version", Version),
		zap.String("env", env),
		zap.Int("shards", cfg.Shards.Count),
		zap.String("addr", srv.Addr),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
