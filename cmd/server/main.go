package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pep299/iracify/internal/application"
	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/transport/server"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Iracify Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  MODEL_PROVIDER          openai or gemini (default: openai)\n")
		fmt.Printf("  OPENAI_API_KEY          OpenAI API key (required for openai)\n")
		fmt.Printf("  OPENAI_BASE_URL         OpenAI-compatible endpoint (optional)\n")
		fmt.Printf("  GEMINI_API_KEY          Gemini API key (required for gemini)\n")
		fmt.Printf("  MODEL_NAME              Default model name\n")
		fmt.Printf("  ADMIN_TOKEN             Token unlocking the settings panel (empty disables it)\n")
		fmt.Printf("  QUIZ_REFERENCE_POLICY   drop or strict (default: drop)\n")
		fmt.Printf("  SESSION_TTL_MINUTES     Session lifetime (default: 120)\n")
		fmt.Printf("  PORT                    Server port (default: 8080)\n")
		fmt.Printf("  HOST                    Server host (default: 0.0.0.0)\n")
		fmt.Printf("  LOG_MODE                development or production (default: production)\n")
		fmt.Printf("  OTEL_ENABLED            Export traces (default: false)\n")
		fmt.Printf("  GCS_ENABLED             Accept gs:// URLs (default: false)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Iracify Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "iracify: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, Version)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	log := app.Logger

	shutdownTracing, err := infrastructure.InitTracing(ctx, cfg, log, Version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	if err := app.Store.StartSweeper(cfg.SessionSweepSchedule); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.SetupRoutes(app),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 2*cfg.ModelTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", "addr", httpServer.Addr, "version", Version, "provider", app.Provider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("Tracing shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
