package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/couchcryptid/climate-story/internal/domain"
)

// Parse reads src's table from r and converts it to a series.
func Parse(src Source, r io.Reader) (domain.Series, error) {
	var (
		t   *Table
		err error
	)
	if src.Format() == "xlsx" {
		t, err = ParseXLSX(r, src.Sheet, src.Columns())
	} else {
		t, err = ParseCSV(r, src.Columns())
	}
	if err != nil {
		return domain.Series{}, fmt.Errorf("%s: %w", src.Name, err)
	}
	return src.Series(t)
}

// FileLoader reads sources from a directory.
type FileLoader struct {
	Dir string
}

func (l FileLoader) Load(ctx context.Context, src Source) (domain.Series, error) {
	if err := ctx.Err(); err != nil {
		return domain.Series{}, err
	}
	f, err := os.Open(filepath.Join(l.Dir, filepath.FromSlash(src.Path)))
	if err != nil {
		return domain.Series{}, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer f.Close()
	return Parse(src, f)
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.url, e.code)
}

// HTTPLoader fetches sources relative to a base URL, retrying transport
// errors and 5xx responses.
type HTTPLoader struct {
	BaseURL  string
	Client   *http.Client
	Attempts uint
	Delay    time.Duration
	Logger   *slog.Logger
}

// NewHTTPLoader returns a loader with the given retry policy.
func NewHTTPLoader(baseURL string, attempts uint, timeout time.Duration, logger *slog.Logger) *HTTPLoader {
	if attempts == 0 {
		attempts = 1
	}
	return &HTTPLoader{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   &http.Client{Timeout: timeout},
		Attempts: attempts,
		Delay:    200 * time.Millisecond,
		Logger:   logger,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, src Source) (domain.Series, error) {
	target, err := url.JoinPath(l.BaseURL, src.Path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("build url for %s: %w", src.Name, err)
	}

	var body []byte
	err = retry.Do(
		func() error {
			var ferr error
			body, ferr = l.fetch(ctx, target)
			return ferr
		},
		retry.Context(ctx),
		retry.Attempts(l.Attempts),
		retry.Delay(l.Delay),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			if l.Logger != nil {
				l.Logger.Warn("dataset fetch failed, retrying", "dataset", src.Name, "attempt", n+1, "error", err)
			}
		}),
	)
	if err != nil {
		return domain.Series{}, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	return Parse(src, bytes.NewReader(body))
}

func (l *HTTPLoader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, url: target}
	}
	return io.ReadAll(resp.Body)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
