package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/handler/http/response"
	"github.com/cmlabs-hris/hours-report/internal/pkg/httpretry"
	"github.com/cmlabs-hris/hours-report/internal/pkg/milvus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "stub-token"
	exportPath = "/api/relatorio-atendimento/exporta"
)

type failingSource struct{}

func (failingSource) Export(ctx context.Context, day time.Time) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func newTestServer(t *testing.T, source ExportSource, failFirst int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(discardLogger(), testToken, NewExportHandler(source, failFirst, discardLogger())))
	t.Cleanup(srv.Close)
	return srv
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, srv *httptest.Server, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+exportPath, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

const validBody = `{"filtro_body":{"data_inicial":"2025-03-07","data_final":"2025-03-07","tipo_arquivo":"csv"}}`

func TestExport(t *testing.T) {
	srv := newTestServer(t, FixtureSource{}, 0)

	t.Run("serves the sample export", func(t *testing.T) {
		resp := post(t, srv, testToken, validBody)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))

		var buf bytes.Buffer
		_, err := buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "07/03/2025 08:02")
	})

	t.Run("bearer prefix accepted", func(t *testing.T) {
		resp := post(t, srv, "Bearer "+testToken, validBody)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := post(t, srv, "", validBody)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		resp := post(t, srv, "nope", validBody)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := post(t, srv, testToken, "{")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid filter", func(t *testing.T) {
		resp := post(t, srv, testToken, `{"filtro_body":{"data_inicial":"07/03/2025","data_final":"2025-03-08","tipo_arquivo":"xlsx"}}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		details := decodeError(t, resp).Error.Details
		assert.Contains(t, details, "data_inicial")
		assert.Contains(t, details, "data_final")
		assert.Contains(t, details, "tipo_arquivo")
	})
}

func TestExport_SourceFailure(t *testing.T) {
	srv := newTestServer(t, failingSource{}, 0)

	resp := post(t, srv, testToken, validBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestFixtureSource_Dir(t *testing.T) {
	dir := t.TempDir()
	custom := "Técnico;Tempo total de atendimento\nCarla Dias;02:00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-07.csv"), []byte(custom), 0o644))

	src := FixtureSource{Dir: dir}

	body, err := src.Export(context.Background(), time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, custom, string(body))

	body, err = src.Export(context.Background(), time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(body), "10/03/2025")
}

// The vendor client must read the stub's export end to end, retrying through
// injected failures.
func TestExport_MilvusClient(t *testing.T) {
	srv := newTestServer(t, FixtureSource{}, 2)

	doer := httpretry.New(srv.Client(), 3, httpretry.WithBackoff(time.Millisecond, 5*time.Millisecond), httpretry.WithLogger(discardLogger()))
	client := milvus.NewClient(srv.URL+exportPath, testToken, doer, discardLogger())

	records, err := client.Fetch(context.Background(), time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, records, 11)
	assert.Equal(t, "07/03/2025 08:02", records[0].ClockIn)
}

func TestExport_MilvusClientUnauthorized(t *testing.T) {
	srv := newTestServer(t, FixtureSource{}, 0)

	client := milvus.NewClient(srv.URL+exportPath, "wrong", httpretry.New(srv.Client(), 0), discardLogger())
	_, err := client.Fetch(context.Background(), time.Now())
	assert.ErrorIs(t, err, milvus.ErrUnauthorized)
}
