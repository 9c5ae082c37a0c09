// Package streak provides a client for the Streak CRM REST API across its
// legacy (v1) and current (v2) generations.
package streak

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/ringstreak/internal/resilience"
)

const defaultBaseURL = "https://api.streak.com"

// Client defines the Streak operations used by phone lookups. Payloads are
// returned raw; shaping them into entities is the caller's job.
type Client interface {
	// Search runs a free-text search over contacts and boxes.
	Search(ctx context.Context, query string) (*SearchResponse, error)
	// ContactBoxes lists the boxes linked to a contact.
	ContactBoxes(ctx context.Context, version APIVersion, contactKey string) ([]json.RawMessage, error)
	// PipelineStages returns the stage definitions of a pipeline.
	PipelineStages(ctx context.Context, version APIVersion, pipelineKey string) (json.RawMessage, error)
	// BoxTimeline returns up to limit timeline entries for a box (v2 only).
	BoxTimeline(ctx context.Context, boxKey string, limit int) ([]json.RawMessage, error)
	// BoxThreads returns the email threads attached to a box (v1 only).
	BoxThreads(ctx context.Context, boxKey string) ([]json.RawMessage, error)
	// GetBox returns a single box.
	GetBox(ctx context.Context, boxKey string) (json.RawMessage, error)
	// GetContact returns a single contact.
	GetContact(ctx context.Context, contactKey string) (json.RawMessage, error)
}

// Option configures the Streak client.
type Option func(*httpClient)

// WithBaseURL overrides the API host (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Streak client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("streak", "get")

	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches path and returns the body of a 2xx response. Non-2xx statuses
// come back as *APIError; retryable ones are retried first.
func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return c.getOnce(ctx, path)
	})
	if err == nil {
		return body, nil
	}

	var te *resilience.TransientError
	if errors.As(err, &te) {
		err = te.Err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil, apiErr
	}
	return nil, eris.Wrapf(err, "streak: GET %s", path)
}

func (c *httpClient) getOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	// Streak authenticates with the API key as the basic-auth username.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, resilience.NewTransientError(err, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(body)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}
	return body, nil
}

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	body, err := c.get(ctx, searchPath(query))
	if err != nil {
		return nil, err
	}
	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "streak: unmarshal search response")
	}
	return &out, nil
}

func (c *httpClient) ContactBoxes(ctx context.Context, version APIVersion, contactKey string) ([]json.RawMessage, error) {
	return c.getList(ctx, contactBoxesPath(version, contactKey))
}

func (c *httpClient) PipelineStages(ctx context.Context, version APIVersion, pipelineKey string) (json.RawMessage, error) {
	return c.getObject(ctx, stagesPath(version, pipelineKey))
}

func (c *httpClient) BoxTimeline(ctx context.Context, boxKey string, limit int) ([]json.RawMessage, error) {
	return c.getList(ctx, timelinePath(boxKey, limit))
}

func (c *httpClient) BoxThreads(ctx context.Context, boxKey string) ([]json.RawMessage, error) {
	return c.getList(ctx, threadsPath(boxKey))
}

func (c *httpClient) GetBox(ctx context.Context, boxKey string) (json.RawMessage, error) {
	return c.getObject(ctx, boxPath(boxKey))
}

func (c *httpClient) GetContact(ctx context.Context, contactKey string) (json.RawMessage, error) {
	return c.getObject(ctx, contactPath(contactKey))
}

func (c *httpClient) getObject(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, eris.Errorf("streak: invalid json from %s", path)
	}
	return json.RawMessage(body), nil
}

func (c *httpClient) getList(ctx context.Context, path string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body)
	if err != nil {
		return nil, eris.Wrapf(err, "streak: decode list from %s", path)
	}
	return items, nil
}
