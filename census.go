// Package census is a client for the United States Census Bureau data API.
// It loads variable catalogs, fetches survey estimates joined to boundary
// geometry, and derives proportion columns for downstream mapping. Every
// call is a single stateless request/response; the only optional state is
// the variable-catalog cache, which is opt-in per call.
package census

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"census/cache"
)

const (
	// DefaultBaseURL is the data API root.
	DefaultBaseURL = "https://api.census.gov/data"

	// DefaultTIGERBaseURL is the TIGERweb ArcGIS REST root used for
	// boundary geometry.
	DefaultTIGERBaseURL = "https://tigerweb.geo.census.gov/arcgis/rest/services/Generalized_ACS2022"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "census-go/1.0"
)

// Outbound endpoint labels for logs and metrics.
const (
	endpointCatalog = "catalog"
	endpointData    = "data"
	endpointTiger   = "tigerweb"
)

// Client talks to the data API. A zero-value Client is not usable; construct
// with New. Calls are independent and hold no state between them, so a
// Client may be shared across goroutines.
type Client struct {
	hc        *client.Client
	key       string
	baseURL   string
	tigerURL  string
	timeout   time.Duration
	userAgent string
	log       *slog.Logger
	cache     cache.Storage
	cacheTTL  time.Duration
	metrics   *clientMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithKey sets the API key sent with every request. Without it, New falls
// back to the key installed by InstallKey, if any.
func WithKey(key string) Option {
	return func(c *Client) { c.key = key }
}

// WithTimeout bounds each outbound request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCatalogCache wires a cache backend for the variable catalog. Cache use
// is still opt-in per Variables call.
func WithCatalogCache(s cache.Storage) Option {
	return func(c *Client) { c.cache = s }
}

// WithCacheTTL sets the expiry on stored catalog entries. Zero means entries
// never expire; catalogs change rarely and callers can always force a
// refresh by skipping the cache.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.cacheTTL = d }
}

// WithMetrics registers request and cache metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = newClientMetrics(reg) }
}

// WithBaseURL points the client at another data API root. Intended for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTIGERBaseURL points the client at another TIGERweb root. Intended for
// tests.
func WithTIGERBaseURL(u string) Option {
	return func(c *Client) { c.tigerURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New builds a Client. When no key option is given the stored credentials
// file is consulted; a missing file is not an error, since the upstream
// service accepts a limited volume of unkeyed requests.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		tigerURL:  DefaultTIGERBaseURL,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.key == "" {
		if key, err := LookupKey(); err == nil {
			c.key = key
		}
	}

	hc := client.New()
	hc.SetTimeout(c.timeout)
	hc.SetUserAgent(c.userAgent)
	c.hc = hc

	return c
}

// get performs one outbound request. Connectivity failures come back as
// *NetworkError; HTTP status handling is left to the caller, which knows the
// endpoint's error vocabulary. The caller must Close the response.
func (c *Client) get(ctx context.Context, url string, params map[string]string, endpoint string) (*client.Response, error) {
	id := uuid.NewString()
	c.log.Debug("census request", "id", id, "endpoint", endpoint, "url", url)

	start := time.Now()
	resp, err := c.hc.Get(url, client.Config{
		Ctx:    ctx,
		Param:  params,
		Header: map[string]string{"X-Request-Id": id},
	})
	if err != nil {
		c.metrics.observeRequest(endpoint, "error", time.Since(start))
		c.log.Debug("census request failed", "id", id, "error", err)
		return nil, &NetworkError{URL: url, Err: err}
	}

	outcome := "ok"
	if resp.StatusCode() >= 400 {
		outcome = "rejected"
	}
	c.metrics.observeRequest(endpoint, outcome, time.Since(start))
	c.log.Debug("census response", "id", id, "status", resp.StatusCode())
	return resp, nil
}
