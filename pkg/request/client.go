package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sightseer/pkg/cache"
	"sightseer/pkg/config"
	"sightseer/pkg/tracker"
	"sightseer/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("Sightseer AR placement service (sightseer/%s)", version.Version)

// queueGap is the pause between two requests to the same provider.
const queueGap = 100 * time.Millisecond

// ErrMaxRetries is returned when every attempt hit a retryable status.
var ErrMaxRetries = errors.New("max retries exceeded")

// Client handles HTTP requests with per-provider queuing, caching and tracking.
type Client struct {
	httpClient *http.Client
	cache      cache.Cacher
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	retries    int
	userAgent  string
	logger     *slog.Logger

	// Queues per provider (domain)
	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req      *http.Request
	headers  map[string]string
	cacheKey string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client.
func New(c cache.Cacher, t *tracker.Tracker, cfg *config.RequestConfig) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout)},
		cache:      c,
		tracker:    t,
		backoff:    NewProviderBackoff(time.Duration(cfg.Backoff.BaseDelay), time.Duration(cfg.Backoff.MaxDelay)),
		retries:    retries,
		userAgent:  ua,
		logger:     slog.Default(),
		queues:     make(map[string]chan job),
	}
}

// SetLogger routes per-request log lines to l.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Backoff exposes the provider backoff state.
func (c *Client) Backoff() *ProviderBackoff {
	return c.backoff
}

// Get performs a GET request with queuing and caching if key is provided.
func (c *Client) Get(ctx context.Context, u, cacheKey string) ([]byte, error) {
	return c.GetWithHeaders(ctx, u, nil, cacheKey)
}

// GetWithHeaders performs a GET request with custom headers and optional caching.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	if cacheKey != "" {
		if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
			c.tracker.TrackCacheHit(provider)
			c.logger.Debug("Cache Hit", "provider", provider, "key", cacheKey)
			return val, nil
		}
		c.tracker.TrackCacheMiss(provider)
		c.logger.Debug("Cache Miss", "provider", provider, "key", cacheKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, headers: headers, cacheKey: cacheKey, respChan: respChan})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

func normalizeProvider(host string) string {
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	if strings.HasSuffix(host, ".wikipedia.org") || host == "wikipedia.org" {
		return "wikipedia"
	}
	if strings.HasSuffix(host, ".wikimedia.org") || host == "wikimedia.org" {
		return "wikimedia"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller.
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		if ctx.Err() != nil {
			c.logger.Warn("Job dropped from queue (context expired)", "provider", provider, "error", ctx.Err())
			j.respChan <- jobResult{err: ctx.Err()}
			continue
		}
		if err := c.backoff.Wait(ctx, provider); err != nil {
			j.respChan <- jobResult{err: err}
			continue
		}

		for k, v := range j.headers {
			j.req.Header.Set(k, v)
		}
		if j.req.Header.Get("User-Agent") == "" {
			j.req.Header.Set("User-Agent", c.userAgent)
		}

		body, err := c.executeWithBackoff(j.req)
		if err == nil {
			c.tracker.TrackAPISuccess(provider)
			c.backoff.RecordSuccess(provider)
			if j.cacheKey != "" {
				if err := c.cache.SetCache(context.Background(), j.cacheKey, body); err != nil {
					c.logger.Error("Failed to cache response", "url", j.req.URL, "error", err)
				}
			}
		} else if ctx.Err() == nil {
			c.tracker.TrackAPIFailure(provider)
			c.backoff.RecordFailure(provider)
		}

		j.respChan <- jobResult{body: body, err: err}

		time.Sleep(queueGap)
	}
}

// executeWithBackoff attempts the request, retrying network errors, 429 and 5xx.
func (c *Client) executeWithBackoff(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	for attempt := 0; attempt < c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}
		c.logger.Info("Network Request", "host", req.URL.Host, "path", req.URL.Path,
			"status", resp.StatusCode, "attempt", attempt+1, "took", time.Since(start))

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			c.logger.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}

	return nil, ErrMaxRetries
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	d := c.backoff.baseDelay << attempt
	if d > c.backoff.maxDelay {
		d = c.backoff.maxDelay
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
