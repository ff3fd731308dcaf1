package notification

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/domain/report"
	"github.com/cmlabs-hris/hours-report/internal/pkg/email"
	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
)

const reportSubject = "Resumo de Horas Trabalhadas - %s"

type DispatcherConfig struct {
	Recipients []string
	Signature  string
	// Contacts maps technician names to alert handles.
	Contacts map[string]string
}

type DispatcherImpl struct {
	mailer    notification.Mailer
	messenger notification.Messenger
	templates *email.Templates
	cfg       DispatcherConfig
	contacts  names.Lookup[string]
	logger    *slog.Logger
}

// NewDispatcher wires the report mailer and the alert channel. messenger may be
// nil, in which case alerts are disabled.
func NewDispatcher(mailer notification.Mailer, messenger notification.Messenger, templates *email.Templates, cfg DispatcherConfig, logger *slog.Logger) notification.Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatcherImpl{
		mailer:    mailer,
		messenger: messenger,
		templates: templates,
		cfg:       cfg,
		contacts:  names.NewLookup(cfg.Contacts),
		logger:    logger.With("stage", "deliver"),
	}
}

func (d *DispatcherImpl) Dispatch(ctx context.Context, agg *attendance.DailyAggregate, file *report.File) notification.Outcome {
	var out notification.Outcome

	if file != nil {
		out.ReportErr = d.sendReport(ctx, agg, file)
	} else {
		out.ReportErr = fmt.Errorf("%w: no report file", notification.ErrSendFailed)
		d.logger.Error("Report email not sent, report file is missing")
	}

	d.sendAlerts(ctx, agg, &out)

	d.logger.Info("Notifications dispatched",
		"report_sent", out.ReportErr == nil,
		"alerted", len(out.Alerted),
		"skipped", len(out.Skipped),
		"alert_failures", len(out.AlertErrs),
	)
	return out
}

func (d *DispatcherImpl) sendReport(ctx context.Context, agg *attendance.DailyAggregate, file *report.File) error {
	if len(d.cfg.Recipients) == 0 {
		d.logger.Error("Report email not sent", "error", notification.ErrNoRecipients)
		return notification.ErrNoRecipients
	}

	date := agg.Day.Format("02/01/2006")
	rows := make([]email.ReportRow, 0, agg.Len())
	for _, t := range agg.Sorted() {
		rows = append(rows, email.ReportRow{
			Technician:   t.Technician,
			Hours:        hhmm.Format(t.Minutes),
			BelowMinimum: t.BelowMinimum,
		})
	}

	text, html, err := d.templates.DailyReport(email.DailyReportData{Date: date, Rows: rows, Signature: d.cfg.Signature})
	if err != nil {
		d.logger.Error("Failed to render report email", "error", err)
		return err
	}

	data, err := os.ReadFile(file.Path)
	if err != nil {
		d.logger.Error("Failed to read report attachment", "path", file.Path, "error", err)
		return fmt.Errorf("failed to read report attachment: %w", err)
	}

	msg := notification.Email{
		To:      d.cfg.Recipients,
		Subject: fmt.Sprintf(reportSubject, date),
		Text:    text,
		HTML:    html,
		Attachments: []notification.Attachment{
			{Name: file.Name, ContentType: "text/csv", Data: data},
		},
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error("Report email failed", "to", redact.Emails(d.cfg.Recipients), "error", err)
		return fmt.Errorf("%w: report email: %w", notification.ErrSendFailed, err)
	}

	d.logger.Info("Report email sent", "to", redact.Emails(d.cfg.Recipients), "rows", len(rows))
	return nil
}

func (d *DispatcherImpl) sendAlerts(ctx context.Context, agg *attendance.DailyAggregate, out *notification.Outcome) {
	flagged := agg.BelowMinimum()
	if len(flagged) == 0 {
		return
	}
	if d.messenger == nil {
		d.logger.Info("Alert channel disabled, skipping threshold alerts", "below_minimum", len(flagged))
		return
	}

	date := agg.Day.Format("02/01/2006")
	for _, t := range flagged {
		handle, ok := d.contacts.Get(t.Technician)
		if !ok || handle == "" {
			d.logger.Warn("No contact registered for technician, alert skipped", "technician", t.Technician)
			out.Skipped = append(out.Skipped, t.Technician)
			continue
		}

		text, err := d.templates.Alert(email.AlertData{
			Technician: t.Technician,
			Date:       date,
			Hours:      hhmm.Format(t.Minutes),
			Signature:  d.cfg.Signature,
		})
		if err == nil {
			err = d.messenger.Send(ctx, handle, text)
		}
		if err != nil {
			d.logger.Error("Threshold alert failed", "technician", t.Technician, "error", err)
			out.AlertErrs = append(out.AlertErrs, &notification.AlertError{Technician: t.Technician, Handle: handle, Err: err})
			continue
		}

		d.logger.Info("Threshold alert sent",
			"technician", t.Technician,
			"hours", hhmm.Format(t.Minutes),
			"minimum", hhmm.Format(t.MinimumMinutes),
		)
		out.Alerted = append(out.Alerted, t.Technician)
	}
}
