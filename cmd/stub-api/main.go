// Command stub-api serves a sample vendor attendance export on localhost so the
// job can be run end to end without vendor credentials:
//
//	MILVUS_API_URL=http://localhost:8089/api/relatorio-atendimento/exporta
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

	"github.com/cmlabs-hris/hours-report/internal/config"
	appHTTP "github.com/cmlabs-hris/hours-report/internal/handler/http"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadStub()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "milvus-stub"),
	)

	exportHandler := appHTTP.NewExportHandler(appHTTP.FixtureSource{Dir: cfg.FixtureDir}, cfg.FailFirst, logger)
	router := appHTTP.NewRouter(logger, cfg.Token, exportHandler)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Stub API listening", "addr", cfg.Addr, "fixture_dir", cfg.FixtureDir, "fail_first", cfg.FailFirst)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down stub API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
