package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Leanito/Leadsrecptives/internal/config"
	"github.com/Leanito/Leadsrecptives/internal/logger"
	"github.com/Leanito/Leadsrecptives/internal/models"
)

// Source loading errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrFileTooLarge         = errors.New("file exceeds size limit")
	ErrNoSource             = errors.New("no input file or URL given")
)

// Loader fetches table files from disk or over HTTP with config-driven retries.
type Loader struct {
	client      *http.Client
	retryPolicy *config.RetryPolicy
	log         *logger.Logger
	maxBytes    int64
}

// NewLoader creates a loader from the source and retry settings.
func NewLoader(cfg *config.Config, log *logger.Logger) *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: cfg.Retry.GetTimeout(),
		},
		retryPolicy: &cfg.Retry,
		log:         log,
		maxBytes:    cfg.Source.MaxBytes,
	}
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)

	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads the file at location (path or URL) and parses it into a table.
func (l *Loader) Load(ctx context.Context, location, sheet string) (*models.Table, error) {
	name, data, err := l.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	l.log.Debug("Source loaded", "name", name, "bytes", len(data))

	return ReadTable(name, data, sheet)
}

// Fetch returns the file name and raw bytes for location.
func (l *Loader) Fetch(ctx context.Context, location string) (string, []byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", nil, ErrNoSource
	}

	if IsURL(location) {
		data, err := l.fetchURL(ctx, location)
		if err != nil {
			return "", nil, err
		}

		u, _ := url.Parse(location)

		return path.Base(u.Path), data, nil
	}

	data, err := l.readLocalFile(location)
	if err != nil {
		return "", nil, err
	}

	return location, data, nil
}

func (l *Loader) readLocalFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, filePath, info.Size(), l.maxBytes)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, nil
}

func (l *Loader) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= l.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, l.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return nil, err
			}
		}

		body, retry, err := l.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, l.retryPolicy.MaxAttempts, err)
		l.log.Warn("Fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)

		if !retry {
			break
		}
	}

	return nil, lastErr
}

// get performs one request. The bool reports whether a failure is worth retrying.
func (l *Loader) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "leadboard/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > l.maxBytes {
		return nil, false, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, l.maxBytes)
	}

	return body, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusBadGateway,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
