package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopclone/internal/logger"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxErrorBody = 4 << 10
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher issues HTTP requests and retries HTTP 429 responses with
// Retry-After or exponential backoff. Every other non-2xx fails at once.
type Fetcher struct {
	client     *http.Client
	logger     *logger.Logger
	metrics    *Metrics
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	sleep      Sleeper
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

func WithRetries(maxRetries int, baseDelay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if maxRetries >= 0 {
			f.maxRetries = maxRetries
		}
		if baseDelay >= 0 {
			f.baseDelay = baseDelay
		}
	}
}

func WithMetrics(m *Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithSleeper replaces the wait used for backoff and page delays.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

func NewFetcher(log *logger.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	f := &Fetcher{
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Request describes one logical call. Body is resent on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Phase labels the request in metrics, e.g. "products".
	Phase string
}

// Do performs req, retrying up to maxRetries times on HTTP 429. The caller
// owns the returned body.
func (f *Fetcher) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	for attempt := 0; ; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader(req.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range req.Header {
			for _, v := range values {
				httpReq.Header.Add(key, v)
			}
		}
		if httpReq.Header.Get("User-Agent") == "" {
			httpReq.Header.Set("User-Agent", f.userAgent)
		}
		if httpReq.Header.Get("Accept") == "" {
			httpReq.Header.Set("Accept", "application/json")
		}
		if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := f.client.Do(httpReq)
		f.metrics.ObserveDuration(time.Since(start))
		f.metrics.IncRequest(req.Phase)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			classified := classifyTransportError(req.URL, err)
			f.metrics.IncError(classified)
			return nil, classified
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			if wait < 0 {
				wait = f.baseDelay * time.Duration(1<<attempt)
			}
			drain(resp)

			if attempt >= f.maxRetries {
				rlErr := &RateLimitError{URL: req.URL, Retries: f.maxRetries}
				f.metrics.IncError(rlErr)
				return nil, rlErr
			}

			f.logger.Info("Rate limited (429). Waiting %s before retry %d/%d: %s", wait, attempt+1, f.maxRetries, req.URL)
			f.metrics.IncRetries()
			if err := f.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			httpErr := &HTTPError{
				StatusCode: resp.StatusCode,
				Status:     statusText(resp),
				URL:        req.URL,
				Body:       string(body),
			}
			f.metrics.IncError(httpErr)
			return nil, httpErr
		}

		return resp, nil
	}
}

// GetJSON fetches url and decodes the body into out.
func (f *Fetcher) GetJSON(ctx context.Context, phase, url string, header http.Header, out any) error {
	return f.doJSON(ctx, Request{Method: http.MethodGet, URL: url, Header: header, Phase: phase}, out)
}

// SendJSON marshals in as the request body and decodes the response into
// out. out may be nil.
func (f *Fetcher) SendJSON(ctx context.Context, method, phase, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return f.doJSON(ctx, Request{Method: method, URL: url, Header: header, Body: payload, Phase: phase}, out)
}

// Pause waits d using the configured sleeper.
func (f *Fetcher) Pause(ctx context.Context, d time.Duration) error {
	return f.sleep(ctx, d)
}

func (f *Fetcher) doJSON(ctx context.Context, req Request, out any) error {
	resp, err := f.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date. It returns -1 when the header is absent or unreadable.
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
		return 0
	}
	return -1
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func bodyReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return bytes.NewReader(body)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
