package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cmlabs-hris/hours-report/internal/cli"
	"github.com/cmlabs-hris/hours-report/internal/config"
	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/pkg/database"
	"github.com/cmlabs-hris/hours-report/internal/pkg/email"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
	"github.com/cmlabs-hris/hours-report/internal/pkg/runlog"
	"github.com/cmlabs-hris/hours-report/internal/pkg/workbook"
	attendanceService "github.com/cmlabs-hris/hours-report/internal/service/attendance"
	monthlyService "github.com/cmlabs-hris/hours-report/internal/service/monthly"
	notificationService "github.com/cmlabs-hris/hours-report/internal/service/notification"
	"github.com/cmlabs-hris/hours-report/internal/service/pipeline"
	reportService "github.com/cmlabs-hris/hours-report/internal/service/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	recorder := newRecorder(cfg.App)
	logger := slog.New(recorder).With(
		slog.String("app", "hours-report"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	// The mailer comes first so that later setup failures still mail the run log.
	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	runLog := runlog.NewReporter(recorder, mailer, cfg.Mail.LogRecipients, logger)

	app, cleanup, err := setup(ctx, cfg, mailer, runLog, logger)
	if err != nil {
		return reportSetupFailure(ctx, runLog, logger, err)
	}
	defer cleanup()

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// setup wires every component behind the mailer.
func setup(ctx context.Context, cfg *config.Config, mailer notification.Mailer, runLog *runlog.Reporter, logger *slog.Logger) (*cli.App, func(), error) {
	cleanup := func() {}

	db, runs, err := openDatabase(ctx, cfg, database.NewPostgreSQLDB, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if db != nil {
		cleanup = db.Close
	}

	fail := func(err error) (*cli.App, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	source := newSource(cfg.Source, logger)

	messenger, err := newMessenger(cfg.Alert, logger)
	if err != nil {
		return fail(err)
	}
	locker, err := newLocker(cfg.Workbook, db)
	if err != nil {
		return fail(err)
	}
	archive, err := newArchive(ctx, cfg.Storage)
	if err != nil {
		return fail(err)
	}

	templates, err := email.LoadTemplates()
	if err != nil {
		return fail(fmt.Errorf("loading email templates: %w", err))
	}

	threshold := attendance.NewThreshold(cfg.Report.MinimumMinutes, cfg.Report.Minimums)
	sheets := workbook.NewExcelStore(cfg.Workbook.BaseDir)

	normalizer := attendanceService.NewNormalizer(cfg.Report.IgnoredTechnicians, logger)
	aggregator := attendanceService.NewAggregator(threshold, logger)
	reports := reportService.NewReportService(cfg.Report.CSVSeparator, archive, logger)
	reconciler := monthlyService.NewReconciler(sheets, locker, threshold, logger)
	dispatcher := notificationService.NewDispatcher(mailer, messenger, templates, notificationService.DispatcherConfig{
		Recipients: cfg.Mail.ReportRecipients,
		Signature:  cfg.Mail.Signature,
		Contacts:   cfg.Report.Contacts,
	}, logger)

	jobs := pipeline.NewService(pipeline.Deps{
		Source:     source,
		Normalizer: normalizer,
		Aggregator: aggregator,
		Reports:    reports,
		Reconciler: reconciler,
		Dispatcher: dispatcher,
		RunLog:     runLog,
		Runs:       runs,
		WorkDir:    cfg.App.WorkDir,
		Logger:     logger,
	})

	logger.Debug("Configuration loaded",
		"mail_driver", cfg.Mail.Driver,
		"alert_driver", cfg.Alert.Driver,
		"lock_driver", cfg.Workbook.LockDriver,
		"storage", cfg.Storage.Type,
		"report_recipients", redact.Emails(cfg.Mail.ReportRecipients),
		"database", cfg.DatabaseEnabled(),
	)

	app := &cli.App{
		Pipeline: jobs,
		Sheets:   sheets,
		Runs:     runs,
		Location: cfg.App.Timezone,
	}
	return app, cleanup, nil
}

// newRecorder builds the console handler and wraps it in the run-log recorder.
// The recorder always keeps INFO and above for the mailed log.
func newRecorder(cfg config.AppConfig) *runlog.Recorder {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact.ReplaceAttr,
	}

	var console slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		console = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		console = slog.NewTextHandler(os.Stderr, opts)
	}

	return runlog.NewRecorder(console, slog.LevelInfo, runlog.WithReplaceAttr(redact.ReplaceAttr))
}
