package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/handler/http/response"
	"github.com/cmlabs-hris/hours-report/internal/pkg/validator"
)

// ExportSource produces the CSV export for one day.
type ExportSource interface {
	Export(ctx context.Context, day time.Time) ([]byte, error)
}

type ExportHandler interface {
	// Export handles POST /api/relatorio-atendimento/exporta
	Export(w http.ResponseWriter, r *http.Request)
}

type exportRequest struct {
	Filter struct {
		From     string `json:"data_inicial"`
		To       string `json:"data_final"`
		FileType string `json:"tipo_arquivo"`
	} `json:"filtro_body"`
}

type exportHandlerImpl struct {
	source    ExportSource
	failFirst int64
	served    atomic.Int64
	logger    *slog.Logger
}

// NewExportHandler serves exports from source. The first failFirst requests
// answer 503 so that client retries can be exercised.
func NewExportHandler(source ExportSource, failFirst int, logger *slog.Logger) ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportHandlerImpl{
		source:    source,
		failFirst: int64(failFirst),
		logger:    logger.With("stage", "stub"),
	}
}

func (h *exportHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	if n := h.served.Add(1); n <= h.failFirst {
		h.logger.Info("Injecting failure", "request", n)
		response.ServiceUnavailable(w, "temporarily unavailable")
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	day, err := validateFilter(req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	body, err := h.source.Export(r.Context(), day)
	if err != nil {
		h.logger.Error("Failed to build export", "day", req.Filter.From, "error", err)
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func validateFilter(req exportRequest) (time.Time, error) {
	var errs validator.ValidationErrors

	day, ok := validator.IsValidDate(req.Filter.From)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "data_inicial", Message: "must be YYYY-MM-DD"})
	}
	if req.Filter.To != req.Filter.From {
		errs = append(errs, validator.ValidationError{Field: "data_final", Message: "only single-day exports are supported"})
	}
	if req.Filter.FileType != "csv" {
		errs = append(errs, validator.ValidationError{Field: "tipo_arquivo", Message: "must be csv"})
	}

	if len(errs) > 0 {
		return time.Time{}, errs
	}
	return day, nil
}
