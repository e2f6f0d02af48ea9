// Package client provides the upstream catalog HTTP client with bounded
// retry, error classification and request metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream client operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_upstream_requests_total",
		Help: "Total upstream requests by resource and status",
	}, []string{"resource", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapi_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by resource, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"resource"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_upstream_errors_total",
		Help: "Total upstream attempt errors by class",
	}, []string{"class"})
)

// jsonCodec decodes upstream bodies. UseNumber keeps integers intact when
// records are re-encoded for the caller.
var jsonCodec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// DefaultBaseURL is the public catalog root.
const DefaultBaseURL = "https://swapi.dev/api"

// Client is the upstream catalog client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	sleep      SleepFunc
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the catalog root, e.g. "https://swapi.dev/api"
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout bounds a single attempt (connect + read)
	Timeout time.Duration

	// Retry policy for transient failures
	Retry RetryConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "swapi-gateway/0.1.0",
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.BackoffMultiplier < 1 {
		return nil, fmt.Errorf("backoff_multiplier must be >= 1 (got %g)", cfg.Retry.BackoffMultiplier)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		sleep:   contextSleep,
		logger:  log.With().Str("component", "swapi-client").Logger(),
	}, nil
}

// FetchResource fetches the first listing page of a resource type.
// params is forwarded as the query string (e.g. search=Luke).
func (c *Client) FetchResource(ctx context.Context, rt swapi.ResourceType, params url.Values) (*swapi.Page, error) {
	target := c.resourceURL(string(rt))
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var page swapi.Page
	if err := c.getJSON(ctx, target, string(rt), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchURL fetches a listing page from an explicit follow-up link.
func (c *Client) FetchURL(ctx context.Context, rawURL string) (*swapi.Page, error) {
	resource, err := c.checkFollowURL(rawURL)
	if err != nil {
		return nil, err
	}

	var page swapi.Page
	if err := c.getJSON(ctx, rawURL, resource, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchRecord fetches a single record by id. A missing record yields an
// UpstreamError for which IsNotFound is true.
func (c *Client) FetchRecord(ctx context.Context, rt swapi.ResourceType, id int) (swapi.Record, error) {
	target := c.resourceURL(string(rt), strconv.Itoa(id))

	var record swapi.Record
	if err := c.getJSON(ctx, target, string(rt), &record); err != nil {
		return nil, err
	}
	return record, nil
}

// FetchRecordURL fetches a single record from a link found in another record.
func (c *Client) FetchRecordURL(ctx context.Context, rawURL string) (swapi.Record, error) {
	resource, err := c.checkFollowURL(rawURL)
	if err != nil {
		return nil, err
	}

	var record swapi.Record
	if err := c.getJSON(ctx, rawURL, resource, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// getJSON performs a GET with retry and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, target, resource string, out any) error {
	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	logger := c.logger.With().Str("url", target).Str("resource", resource).Logger()

	err := retryWithBackoff(ctx, c.config.Retry, c.sleep, logger, func(attempt int) error {
		logger.Debug().
			Int("attempt", attempt+1).
			Int("max_attempts", c.config.Retry.MaxAttempts).
			Msg("Executing upstream request")

		status, err := c.do(ctx, target, out)
		if err != nil {
			class := errorClass(err)
			upstreamErrorsTotal.WithLabelValues(class).Inc()
			if status == "" {
				status = class
			}
			upstreamRequestsTotal.WithLabelValues(resource, status).Inc()

			logger.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("error_class", class).
				Msg("Upstream attempt failed")
			return err
		}

		upstreamRequestsTotal.WithLabelValues(resource, status).Inc()
		return nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			Dur("duration", time.Since(startTime)).
			Msg("Upstream request failed")
		return err
	}

	logger.Debug().
		Dur("duration", time.Since(startTime)).
		Msg("Upstream request completed")
	return nil
}

// do executes one attempt. status is the response status code as a string,
// empty when no response was received.
func (c *Client) do(ctx context.Context, target string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &UpstreamError{Kind: KindOther, URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(target, err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return status, statusError(target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, classifyTransportError(target, err)
	}

	if err := jsonCodec.Unmarshal(body, out); err != nil {
		return status, &UpstreamError{Kind: KindOther, URL: target, Err: fmt.Errorf("decode body: %w", err)}
	}
	return status, nil
}

// resourceURL joins path segments onto the base URL with a trailing slash,
// the form the catalog expects.
func (c *Client) resourceURL(segments ...string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/") + "/"
	return u.String()
}

// checkFollowURL only allows links pointing at the configured upstream host.
// It returns the resource label for metrics.
func (c *Client) checkFollowURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &UpstreamError{Kind: KindOther, URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}
	if u.Host != c.baseURL.Host {
		return "", &UpstreamError{
			Kind: KindOther,
			URL:  rawURL,
			Err:  fmt.Errorf("host %q does not match upstream host %q", u.Host, c.baseURL.Host),
		}
	}
	return resourceLabel(u), nil
}

// resourceLabel finds the resource type segment in a catalog URL path.
func resourceLabel(u *url.URL) string {
	for _, segment := range strings.Split(u.Path, "/") {
		if rt, ok := swapi.ParseResourceType(segment); ok {
			return string(rt)
		}
	}
	return "other"
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetSleepFunc replaces the backoff wait (for testing).
func (c *Client) SetSleepFunc(sleep SleepFunc) {
	c.sleep = sleep
}

// SetLogger replaces the component logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}
