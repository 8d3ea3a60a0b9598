// @title medbrief API
// @version 1.0
// @description Summarizes uploaded medical report PDFs into a structured envelope.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medbrief/internal/completion"
	"medbrief/internal/completion/providers"
	"medbrief/internal/config"
	"medbrief/internal/extract"
	"medbrief/internal/handler"
	"medbrief/internal/logger"
	"medbrief/internal/normalize"
	"medbrief/internal/port"
	"medbrief/internal/repository/memory"
	"medbrief/internal/repository/postgres"
	"medbrief/internal/router"
	"medbrief/internal/service"
	"medbrief/internal/storage/noop"
	s3storage "medbrief/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flush, err := logger.Install(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer flush()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize completion chain
	providers.RegisterAll()
	chain, err := completion.BuildChain(&cfg.Completion)
	if err != nil {
		return fmt.Errorf("failed to build completion chain: %w", err)
	}

	normalizer, err := normalize.New()
	if err != nil {
		return fmt.Errorf("failed to compile envelope schema: %w", err)
	}

	// Initialize history
	repo, db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// Initialize storage
	archive, err := openArchive(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	summarySvc := service.NewSummaryService(
		extract.NewPDFExtractor(), chain, normalizer, repo, archive,
		&cfg.Upload, &cfg.Completion,
	)
	tokenSvc := service.NewTokenService(&cfg.Auth)
	if err := cfg.Auth.Validate(); err != nil {
		return err
	}

	// Initialize handlers
	summaryH := handler.NewSummaryHandler(summarySvc, &cfg.Upload)
	healthH := handler.NewHealthHandler(repo)

	// Setup router
	r := router.Setup(cfg, tokenSvc, summaryH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openHistory(cfg *config.Config) (port.SummaryRepository, *sqlx.DB, error) {
	switch cfg.History.Driver {
	case "postgres":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.NewSummaryRepo(db), db, nil
	case "", "memory":
		return memory.NewSummaryRepo(cfg.History.MemoryLimit), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}
}

func openArchive(cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "s3":
		client, err := s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return client, nil
	case "", "noop":
		return noop.NewNoopStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
