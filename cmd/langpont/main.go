// Package main is the LangPont translation core server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/langpont/core/analysis"
	"github.com/langpont/core/cache"
	"github.com/langpont/core/config"
	"github.com/langpont/core/events"
	"github.com/langpont/core/expert"
	"github.com/langpont/core/httpapi"
	"github.com/langpont/core/llm"
	"github.com/langpont/core/metrics"
	"github.com/langpont/core/pipeline"
	"github.com/langpont/core/translate"

	_ "github.com/langpont/core/llm/providers"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "langpont",
		Short: "LangPont translation and analysis core",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(serveCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	return cmd
}

func serve(configPath string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	client := llm.NewClient(
		llm.WithLogger(logger),
		llm.WithEndpoint("openai", llm.Endpoint{
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Model:   cfg.Providers.OpenAI.Model,
		}),
		llm.WithEndpoint("gemini", llm.Endpoint{
			BaseURL: cfg.Providers.Gemini.BaseURL,
			Model:   cfg.Providers.Gemini.Model,
		}),
		llm.WithEndpoint("anthropic", llm.Endpoint{
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Model:   cfg.Providers.Anthropic.Model,
		}),
	)

	var store cache.Store = cache.NewMemoryStore()
	var sink events.Sink = events.NoopSink{}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1))
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()

		natsStore, err := cache.NewNATSStore(nc, cfg.Environment, logger)
		if err != nil {
			return fmt.Errorf("state cache: %w", err)
		}
		tiered := cache.NewTiered(natsStore, logger)
		tiered.OnFallback = metrics.CacheFallbacksTotal.Inc
		store = tiered
		sink = events.NewNATSSink(nc, logger)
	} else {
		logger.Warn("No NATS URL configured, state is process-local and events are dropped")
	}

	stateCache := cache.New(store, logger)

	controller := pipeline.NewController(pipeline.Options{
		Translator:    translate.NewService(client, logger),
		Analyzer:      analysis.NewManager(client, logger),
		Extractor:     analysis.NewExtractor(client, logger),
		Expert:        expert.New(client, logger),
		Cache:         stateCache,
		Events:        sink,
		Logger:        logger,
		DefaultEngine: analysis.Engine(cfg.Analysis.DefaultEngine),
		HistorySize:   cfg.History.Size,
	})

	mux := http.NewServeMux()
	httpapi.NewServer(controller, stateCache, logger).RegisterHandlers("api", mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if configPath != "" {
		watcher, err := config.WatchFile(configPath, logger, func(next *config.Config) {
			// Listener and connection settings need a restart; pipeline
			// settings take effect immediately.
			controller.ApplySettings(analysis.Engine(next.Analysis.DefaultEngine), next.History.Size)
			logger.Info("Config file changed",
				"default_engine", next.Analysis.DefaultEngine,
				"history_size", next.History.Size,
				"addr", next.HTTP.Addr)
		})
		if err != nil {
			logger.Warn("Config watch unavailable", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", cfg.HTTP.Addr,
			"environment", cfg.Environment,
			"version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
