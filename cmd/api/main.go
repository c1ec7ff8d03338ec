package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/report-agent/internal/application"
	appanalysis "github.com/bryanwahyu/report-agent/internal/application/analysis"
	appreports "github.com/bryanwahyu/report-agent/internal/application/reports"
	appusers "github.com/bryanwahyu/report-agent/internal/application/users"
	"github.com/bryanwahyu/report-agent/internal/config"
	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/local"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/openai"
	"github.com/bryanwahyu/report-agent/internal/infra/ai/service"
	mysqlp "github.com/bryanwahyu/report-agent/internal/infra/db/mysql"
	"github.com/bryanwahyu/report-agent/internal/infra/db/postgres"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/report-agent/internal/infra/httpserver"
	"github.com/bryanwahyu/report-agent/internal/infra/storage"
	"github.com/bryanwahyu/report-agent/internal/middleware"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "report-agent",
		Short: "Report upload and AI analysis API",
		PersistentPreRun: func(*cobra.Command, []string) {
			// .env opsional
			_ = godotenv.Load()
		},
	}

	// path config.yaml
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "Path to the YAML config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema for the configured driver",
			RunE:  runMigrate,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// openDB connects to the configured driver and returns its dialect and migrator.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, sqlstore.Dialect, func(context.Context, *sql.DB) error, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		return db, mysqlp.Dialect, mysqlp.Migrate, err
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		return db, postgres.Dialect, postgres.Migrate, err
	default:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		return db, sqlite.Dialect, sqlite.Migrate, err
	}
}

type blobStore interface {
	reports.BlobStore
	Check(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config) (blobStore, error) {
	if cfg.Storage.Driver == "minio" {
		return storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
			cfg.Minio.PresignExpiry,
		)
	}
	return storage.NewLocal(cfg.Storage.LocalRoot)
}

func newAIClient(cfg *config.Config, blobs reports.BlobStore) ai.Client {
	switch cfg.AI.Provider {
	case "service":
		return service.NewClient(cfg.AI.ServiceURL, cfg.AI.Timeout)
	case "openai":
		return openai.NewClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIBase, cfg.AI.OpenAIModel, blobs)
	default:
		return local.NewClient(blobs)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	logger := newLogger(cfg)
	ctx := logger.WithContext(cmd.Context())

	db, _, migrate, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
	}
	defer db.Close()

	if err := migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("schema is up to date")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	logger := newLogger(cfg)
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := logger.WithContext(sigCtx)

	db, dialect, migrate, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
	}
	defer db.Close()
	// sqlite dipakai untuk dev, schema dibuat otomatis
	if cfg.Database.Driver == "sqlite" {
		if err := migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s storage init error: %w", cfg.Storage.Driver, err)
	}

	reportRepo := sqlstore.NewReportRepository(db, dialect)
	analysisRepo := sqlstore.NewAnalysisRepository(db, dialect)
	metrics := middleware.NewMetrics()
	clock := application.SystemClock{}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	if len(cfg.Auth.APIKeys) == 0 {
		logger.Warn().Msg("no auth.apiKeys configured, every /v1/reports request will be rejected")
	}

	handler := httpserver.NewRouter(httpserver.Config{
		Reports: &appreports.Service{
			Repo:     reportRepo,
			Analyses: analysisRepo,
			Blobs:    store,
			Clock:    clock,
		},
		Analysis: &appanalysis.Service{
			Reports:   reportRepo,
			Analyses:  analysisRepo,
			Blobs:     store,
			AI:        newAIClient(cfg, store),
			Clock:     clock,
			Metrics:   metrics,
			AITimeout: cfg.AI.Timeout,
		},
		Users: &appusers.Service{
			Repo:  sqlstore.NewUserRepository(db, dialect),
			Clock: clock,
		},
		Logger:  &logger,
		Metrics: metrics,
		Limiter: limiter,
		Dependencies: []middleware.Dependency{
			middleware.DatabaseDependency(db),
			middleware.BlobStoreDependency(store),
		},
		APIKeys:        cfg.Auth.APIKeys,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		// analyze menunggu AI backend, jadi write timeout > AI timeout
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("db", cfg.Database.Driver).
			Str("storage", cfg.Storage.Driver).Str("ai", cfg.AI.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	stop()
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	return nil
}
