package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/shared"
)

const (
	defaultHTTPRetryDelay = 200 * time.Millisecond
	maxHTTPRetryDelay     = 5 * time.Second
)

var errHTTPNotFound = errors.New("not found")

// retryableError marks transient failures: transport errors and 5xx or
// 429 responses.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// HTTPOptions configures every HTTP backed adapter. Zero timeout means no
// timeout; Retries counts attempts, so 1 disables retrying.
type HTTPOptions struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Token      string
	UserAgent  string
}

type httpGetter struct {
	client     *http.Client
	retries    int
	retryDelay time.Duration
	headers    map[string]string
}

func newHTTPGetter(opts HTTPOptions) httpGetter {
	headers := map[string]string{}
	if strings.TrimSpace(opts.UserAgent) != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	return httpGetter{
		client:     &http.Client{Timeout: opts.Timeout},
		retries:    normalizeHTTPRetries(opts.Retries),
		retryDelay: normalizeHTTPRetryDelay(opts.RetryDelay),
		headers:    headers,
	}
}

// get runs fn on a successful response body, retrying transient failures
// with exponential backoff. A 404 is returned as errHTTPNotFound.
func (g httpGetter) get(ctx context.Context, url string, headers map[string]string, fn func(io.Reader) error) error {
	delay := g.retryDelay
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := g.getOnce(ctx, url, headers, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		var retry *retryableError
		if !errors.As(err, &retry) || attempt == g.retries-1 {
			break
		}
		log.Debug().Err(err).Str("url", url).Int("attempt", attempt+1).Msg("retrying request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxHTTPRetryDelay)
	}
	var retry *retryableError
	if errors.As(lastErr, &retry) {
		return retry.err
	}
	return lastErr
}

func (g httpGetter) getOnce(ctx context.Context, url string, headers map[string]string, fn func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create request").
			WithCause(err)
	}
	for key, value := range g.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &retryableError{err: fmt.Errorf("GET %s: %w", url, err)}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", url, errHTTPNotFound)
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return &retryableError{err: shared.HTTPStatusError(resp.StatusCode, url)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return shared.HTTPStatusErrorWithBody(resp.StatusCode, url, strings.TrimSpace(string(body)))
	}
	return fn(resp.Body)
}

func normalizeHTTPRetries(value int) int {
	if value <= 0 {
		return 1
	}
	return value
}

func normalizeHTTPRetryDelay(value time.Duration) time.Duration {
	if value <= 0 {
		return defaultHTTPRetryDelay
	}
	return value
}
