package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// ReportRow is one line of the daily summary.
type ReportRow struct {
	Technician   string
	Hours        string
	BelowMinimum bool
}

type DailyReportData struct {
	Date      string
	Rows      []ReportRow
	Signature string
}

type AlertData struct {
	Technician string
	Date       string
	Hours      string
	Signature  string
}

// Templates renders the Portuguese message bodies.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	return &Templates{html: html, text: text}, nil
}

// DailyReport returns the plain-text and HTML bodies.
func (t *Templates) DailyReport(data DailyReportData) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := t.text.ExecuteTemplate(&tb, "daily_report.txt", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	if err := t.html.ExecuteTemplate(&hb, "daily_report.html", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	return tb.String(), hb.String(), nil
}

func (t *Templates) Alert(data AlertData) (string, error) {
	var b bytes.Buffer
	if err := t.text.ExecuteTemplate(&b, "alert.txt", data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
