package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
)

const (
	FileName = "hours-report.log"
	Subject  = "Log de Execução - Relatório de Horas"
)

// Reporter mails the captured log and removes the run directory.
type Reporter struct {
	recorder   *Recorder
	mailer     notification.Mailer
	recipients []string
	logger     *slog.Logger
}

func NewReporter(recorder *Recorder, mailer notification.Mailer, recipients []string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		recorder:   recorder,
		mailer:     mailer,
		recipients: recipients,
		logger:     logger.With("stage", "runlog"),
	}
}

// Finish writes the log to runDir, mails it and then deletes runDir whatever
// happened before. It returns the dispatch error, if any; cleanup failures
// are joined in.
func (r *Reporter) Finish(ctx context.Context, runDir string) (err error) {
	defer func() {
		if runDir == "" {
			return
		}
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			r.logger.Error("Failed to remove run directory", "dir", runDir, "error", rmErr)
			if err == nil {
				err = fmt.Errorf("failed to remove run directory: %w", rmErr)
			}
			return
		}
		r.logger.Debug("Run directory removed", "dir", runDir)
	}()

	if len(r.recipients) == 0 {
		r.logger.Warn("No log recipients configured, run log not sent")
		return notification.ErrNoRecipients
	}

	// This line is the last one captured; anything logged after it only reaches
	// the console.
	warnings := r.recorder.Count(slog.LevelWarn) - r.recorder.Count(slog.LevelError)
	errs := r.recorder.Count(slog.LevelError)
	r.logger.Info("Dispatching run log", "to", redact.Emails(r.recipients), "entries", len(r.recorder.Entries())+1,
		"warnings", warnings, "errors", errs)

	content := []byte(r.recorder.Render())
	if runDir != "" {
		if writeErr := os.WriteFile(filepath.Join(runDir, FileName), content, 0600); writeErr != nil {
			r.logger.Warn("Failed to write run log file, sending from memory", "error", writeErr)
		}
	}

	msg := notification.Email{
		To:      r.recipients,
		Subject: Subject,
		Text:    fmt.Sprintf("Log de execução do relatório de horas.\nAvisos: %d\nErros: %d", warnings, errs),
		Attachments: []notification.Attachment{
			{Name: FileName, ContentType: "text/plain; charset=utf-8", Data: content},
		},
	}
	if sendErr := r.mailer.Send(ctx, msg); sendErr != nil {
		r.logger.Error("Failed to send run log", "error", sendErr)
		return fmt.Errorf("%w: run log: %w", notification.ErrSendFailed, sendErr)
	}

	r.logger.Info("Run log sent")
	return nil
}
