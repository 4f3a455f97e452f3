package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/telemetry"
)

// ErrDocumentUnavailable marks a filing the archive would not serve after
// retries were exhausted. Callers treat it as a normal, skippable outcome.
var ErrDocumentUnavailable = errors.New("document unavailable")

// ErrNotAcquired reports that the rate limiter refused admission, usually
// because the context ended while waiting.
var ErrNotAcquired = errors.New("rate limit token not acquired")

// FetcherConfig captures the knobs for the archive HTTP client.
type FetcherConfig struct {
	// Host defaults to DefaultHost. A scheme may be included; bare hosts
	// are fetched over https.
	Host string
	// UserAgent is required by archive policy and must identify a contact.
	UserAgent string
	// Headers are extra outbound headers applied to every request.
	Headers map[string]string
	Timeout time.Duration
}

// Fetcher issues rate-limited GETs against the archive's index and document
// endpoints, retrying transient failures.
type Fetcher struct {
	client  *http.Client
	base    string
	headers http.Header
	limiter Limiter
	retry   *RetryPolicy
	logger  *zap.Logger
}

// NewFetcher constructs a Fetcher. The limiter is shared across all
// fetchers in the process; pass the same handle everywhere.
func NewFetcher(cfg FetcherConfig, limiter Limiter, retry *RetryPolicy, logger *zap.Logger) (*Fetcher, error) {
	if limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user agent is required by archive policy")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if retry == nil {
		retry = NewRetryPolicy(RetryPolicyConfig{})
	}
	headers := make(http.Header)
	headers.Set("User-Agent", cfg.UserAgent)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		base:    baseURL(cfg.Host),
		headers: headers,
		limiter: limiter,
		retry:   retry,
		logger:  logger,
	}, nil
}

// FetchDocument retrieves one filing document as text. A miss after
// exhausted retries returns ErrDocumentUnavailable, logged, not escalated.
func (f *Fetcher) FetchDocument(ctx context.Context, cik, accession string) (RawDocument, error) {
	url, err := documentURL(f.base, cik, accession)
	if err != nil {
		return RawDocument{}, err
	}
	body, err := f.get(ctx, url)
	if err != nil {
		if errors.Is(err, ErrDocumentUnavailable) {
			f.logger.Warn("filing unavailable",
				zap.String("cik", cik),
				zap.String("accession", accession),
			)
		}
		return RawDocument{}, err
	}
	return RawDocument{
		Locator: DocumentLocator{CIK: NormalizeCIK(cik), AccessionID: accession},
		Body:    string(body),
	}, nil
}

// FetchIndex retrieves one quarterly form index as text. Missing quarters
// return ErrDocumentUnavailable.
func (f *Fetcher) FetchIndex(ctx context.Context, year, quarter int) (string, error) {
	body, err := f.get(ctx, indexURL(f.base, year, quarter))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get runs one rate-limited GET with retry on the configured transient
// statuses. Every attempt, including retries, pays a limiter token.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var lastStatus int
	for attempt := 0; ; attempt++ {
		if !f.limiter.Acquire(ctx, 1) {
			return nil, fmt.Errorf("fetch %s: %w", url, ErrNotAcquired)
		}

		status, body, err := f.doRequest(ctx, url)
		lastStatus = status
		if err == nil && status == http.StatusOK {
			return body, nil
		}

		if !f.retry.ShouldRetry(status, err, attempt) {
			break
		}
		telemetry.ObserveRetry()
		f.logger.Debug("retrying request",
			zap.String("url", url),
			zap.Int("status", status),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if !sleepCtx(ctx, f.retry.Backoff(attempt)) {
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
	}

	f.logger.Debug("request exhausted retries",
		zap.String("url", url),
		zap.Int("status", lastStatus),
	)
	return nil, fmt.Errorf("fetch %s: status %d: %w", url, lastStatus, ErrDocumentUnavailable)
}

func (f *Fetcher) doRequest(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range f.headers {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	telemetry.ObserveHTTPRequest(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
