package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cmlabs-hris/hours-report/internal/config"
	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	runDomain "github.com/cmlabs-hris/hours-report/internal/domain/run"
	"github.com/cmlabs-hris/hours-report/internal/pkg/database"
	"github.com/cmlabs-hris/hours-report/internal/pkg/discord"
	"github.com/cmlabs-hris/hours-report/internal/pkg/email"
	"github.com/cmlabs-hris/hours-report/internal/pkg/httpretry"
	"github.com/cmlabs-hris/hours-report/internal/pkg/lock"
	"github.com/cmlabs-hris/hours-report/internal/pkg/milvus"
	"github.com/cmlabs-hris/hours-report/internal/pkg/storage"
	"github.com/cmlabs-hris/hours-report/internal/pkg/whatsapp"
	"github.com/cmlabs-hris/hours-report/internal/repository/postgresql"
	"github.com/cmlabs-hris/hours-report/internal/service/pipeline"
)

const alertTimeout = 15 * time.Second

type connectFunc func(ctx context.Context, dsn string) (*database.DB, error)

// openDatabase returns a nil DB and repository when no database is configured.
// The database is only mandatory for postgres locking; otherwise a failed
// connection disables run history and the job goes on.
func openDatabase(ctx context.Context, cfg *config.Config, connect connectFunc, logger *slog.Logger) (*database.DB, runDomain.Repository, error) {
	if !cfg.DatabaseEnabled() {
		return nil, nil, nil
	}

	db, err := connect(ctx, cfg.DatabaseURL())
	if err != nil {
		if cfg.Workbook.LockDriver == config.LockDriverPostgres {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Warn("Database unavailable, run history disabled", "stage", "setup", "error", err)
		return nil, nil, nil
	}

	repo := postgresql.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("Run history schema unavailable, run history disabled", "stage", "setup", "error", err)
		return db, nil, nil
	}
	return db, repo, nil
}

// reportSetupFailure mails the captured log before giving up, so a broken
// deployment still reaches the log recipients.
func reportSetupFailure(ctx context.Context, runLog pipeline.LogReporter, logger *slog.Logger, err error) error {
	logger.Error("Setup failed", "stage", "setup", "error", err)
	if sendErr := runLog.Finish(ctx, ""); sendErr != nil {
		logger.Error("Failed to send run log", "stage", "setup", "error", sendErr)
	}
	return err
}

func newSource(cfg config.SourceConfig, logger *slog.Logger) attendance.Source {
	client := httpretry.New(&http.Client{Timeout: cfg.Timeout}, cfg.MaxRetries, httpretry.WithLogger(logger))
	return milvus.NewClient(cfg.Endpoint, cfg.APIToken, client, logger)
}

func newMailer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notification.Mailer, error) {
	switch cfg.Mail.Driver {
	case config.MailDriverSMTP:
		return email.NewSMTPMailer(cfg.SMTP, logger), nil
	case config.MailDriverSES:
		client, err := email.NewSESClient(ctx, cfg.SES)
		if err != nil {
			return nil, fmt.Errorf("initializing SES: %w", err)
		}
		sender := email.Sender{Address: cfg.SMTP.From, Name: cfg.SMTP.FromName}
		return email.NewSESMailer(client, sender, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver: %s", cfg.Mail.Driver)
	}
}

// newMessenger returns nil when alerts are disabled.
func newMessenger(cfg config.AlertConfig, logger *slog.Logger) (notification.Messenger, error) {
	switch cfg.Driver {
	case config.AlertDriverWhatsApp:
		// Alerts are sent once; no retrying client.
		return whatsapp.NewClient(cfg.WhatsApp, &http.Client{Timeout: alertTimeout}, logger), nil
	case config.AlertDriverDiscord:
		session, err := discord.NewSession(cfg.Discord.BotToken)
		if err != nil {
			return nil, err
		}
		session.Client = &http.Client{Timeout: alertTimeout}
		return discord.NewClient(session, logger), nil
	case config.AlertDriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported alert driver: %s", cfg.Driver)
	}
}

func newLocker(cfg config.WorkbookConfig, db *database.DB) (monthly.Locker, error) {
	switch cfg.LockDriver {
	case config.LockDriverFile:
		return lock.NewFileLocker(cfg.LockTimeout), nil
	case config.LockDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres lock driver requires a database")
		}
		return lock.NewPostgresLocker(db.Pool, cfg.LockTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported lock driver: %s", cfg.LockDriver)
	}
}

// newArchive returns nil when report archiving is disabled.
func newArchive(ctx context.Context, cfg config.StorageConfig) (storage.FileStorage, error) {
	switch cfg.Type {
	case config.StorageTypeNone:
		return nil, nil
	case config.StorageTypeLocal:
		local, err := storage.NewLocalStorage(cfg.BasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return local, nil
	case config.StorageTypeS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return storage.NewS3Storage(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
