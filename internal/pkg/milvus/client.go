// Package milvus fetches the daily attendance export from the Milvus
// integration API.
package milvus

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/pkg/httpretry"
	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
)

const DefaultEndpoint = "https://apiintegracao.milvus.com.br/api/relatorio-atendimento/exporta"

var ErrUnauthorized = errors.New("milvus: token rejected")

// APIError is returned for any other non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("milvus: HTTP %d: %s", e.StatusCode, e.Body)
}

// Export column names.
const (
	ColumnTechnician = "Técnico"
	ColumnDuration   = "Tempo total de atendimento"
	ColumnClockIn    = "Data chegada"
	ColumnClockOut   = "Data saida"
)

var (
	ticketColumns = []string{"Ticket", "Código", "Protocolo"}
	clientColumns = []string{"Cliente"}
)

type Client struct {
	endpoint string
	token    string
	http     httpretry.Doer
	logger   *slog.Logger
}

func NewClient(endpoint, token string, doer httpretry.Doer, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     doer,
		logger:   logger.With("stage", "fetch"),
	}
}

type exportRequest struct {
	Filter exportFilter `json:"filtro_body"`
}

type exportFilter struct {
	From     string `json:"data_inicial"`
	To       string `json:"data_final"`
	FileType string `json:"tipo_arquivo"`
}

// Fetch requests the export for a single day.
func (c *Client) Fetch(ctx context.Context, day time.Time) ([]attendance.RawRecord, error) {
	date := day.Format("2006-01-02")
	payload, err := json.Marshal(exportRequest{Filter: exportFilter{From: date, To: date, FileType: "csv"}})
	if err != nil {
		return nil, fmt.Errorf("milvus: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("milvus: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/csv")

	c.logger.Info("Requesting attendance export", "day", date)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("milvus: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, readErr := io.ReadAll(resp.Body)
	records, err := Parse(body, readErr != nil)
	if readErr != nil {
		c.logger.Warn("Attendance export was cut short", "error", readErr, "bytes", len(body), "rows", len(records))
	}

	c.logger.Info("Attendance export received",
		"day", date,
		"rows", len(records),
		"bytes", len(body),
		"duration", time.Since(start).String(),
	)
	return records, err
}

// Parse reads a ';'-separated export. When truncated is set, or the CSV breaks
// mid-stream, the rows read so far are returned with ErrPartialPayload.
func Parse(body []byte, truncated bool) ([]attendance.RawRecord, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if truncated {
		// The last line is incomplete unless the body happened to end on a newline.
		if i := bytes.LastIndexByte(body, '\n'); i >= 0 && i < len(body)-1 {
			body = body[:i+1]
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if truncated {
			return nil, fmt.Errorf("%w: %w", attendance.ErrPartialPayload, attendance.ErrEmptyPayload)
		}
		return nil, attendance.ErrEmptyPayload
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", attendance.ErrMissingColumns, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []attendance.RawRecord
	var partial error
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			partial = fmt.Errorf("%w: %v", attendance.ErrPartialPayload, err)
			break
		}
		line, _ := r.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		records = append(records, attendance.RawRecord{
			Row:        line,
			Technician: cols.get(fields, cols.technician),
			Duration:   cols.get(fields, cols.duration),
			ClockIn:    cols.get(fields, cols.clockIn),
			ClockOut:   cols.get(fields, cols.clockOut),
			Ticket:     cols.get(fields, cols.ticket),
			Client:     cols.get(fields, cols.client),
		})
	}

	if partial == nil && truncated {
		partial = attendance.ErrPartialPayload
	}
	if len(records) == 0 {
		if partial != nil {
			return nil, fmt.Errorf("%w: %w", partial, attendance.ErrEmptyPayload)
		}
		return nil, attendance.ErrEmptyPayload
	}
	return records, partial
}

type columns struct {
	technician, duration, clockIn, clockOut, ticket, client int
}

func (c columns) get(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := names.Key(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	find := func(candidates ...string) int {
		for _, c := range candidates {
			if i, ok := index[names.Key(c)]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		technician: find(ColumnTechnician),
		duration:   find(ColumnDuration),
		clockIn:    find(ColumnClockIn),
		clockOut:   find(ColumnClockOut),
		ticket:     find(ticketColumns...),
		client:     find(clientColumns...),
	}

	var missing []string
	if cols.technician < 0 {
		missing = append(missing, ColumnTechnician)
	}
	if cols.duration < 0 {
		missing = append(missing, ColumnDuration)
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %v", attendance.ErrMissingColumns, missing)
	}
	return cols, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if names.Clean(f) != "" {
			return false
		}
	}
	return true
}
