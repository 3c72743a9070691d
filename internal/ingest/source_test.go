package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/logger"
)

const sampleCSV = "Status,Data da conversão:,Segmento/Categoria\nVálido,2024-03-01,Vendas\n"

func testLoader() *Loader {
	cfg := config.Default()
	cfg.Retry.InitialDelayMs = 1
	cfg.Retry.MaxDelayMs = 5
	cfg.Source.MaxBytes = 1024

	return NewLoader(cfg, logger.Discard())
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/leads.csv"))
	assert.True(t, IsURL("http://localhost:8080/x"))
	assert.False(t, IsURL("leads.csv"))
	assert.False(t, IsURL("/tmp/leads.csv"))
	assert.False(t, IsURL("ftp://example.com/leads.csv"))
}

func TestLoader_LoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	table, err := testLoader().Load(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, path, table.Name)
	assert.Len(t, table.Rows, 1)
}

func TestLoader_LocalFileErrors(t *testing.T) {
	l := testLoader()

	_, _, err := l.Fetch(context.Background(), "")
	assert.True(t, errors.Is(err, ErrNoSource))

	_, _, err = l.Fetch(context.Background(), "/nonexistent/leads.csv")
	assert.Error(t, err)

	big := filepath.Join(t.TempDir(), "big.csv")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0644))

	_, _, err = l.Fetch(context.Background(), big)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestLoader_FetchURL_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	table, err := testLoader().Load(context.Background(), srv.URL+"/exports/leads.csv", "")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "leads.csv", table.Name)
	assert.Len(t, table.Rows, 1)
}

func TestLoader_FetchURL_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := testLoader().Fetch(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_FetchURL_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	_, _, err := testLoader().Fetch(context.Background(), srv.URL+"/big.csv")
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestLoader_FetchURL_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testLoader().Fetch(ctx, srv.URL+"/leads.csv")
	assert.Error(t, err)
}
