// Package newsapi issues single requests against the NewsAPI REST service:
// endpoint construction, response validation and decoding.
package newsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/johnrirwin/newsdesk/internal/codec"
	"github.com/johnrirwin/newsdesk/internal/logging"
	"github.com/johnrirwin/newsdesk/internal/models"
)

// DefaultPageSize is the number of headlines requested per source.
const DefaultPageSize = 10

const maxLoggedBody = 4000

// KeyProvider supplies the NewsAPI key.
type KeyProvider interface {
	NewsAPIKey() string
}

// StaticKey is a KeyProvider returning a fixed key.
type StaticKey string

func (k StaticKey) NewsAPIKey() string {
	return string(k)
}

// API is the single-request surface the aggregator fans out over.
type API interface {
	FetchSources(ctx context.Context) ([]models.Source, error)
	FetchHeadlines(ctx context.Context, sourceID string, pageSize int) ([]models.Article, error)
}

// Pacer spaces out requests to one host.
type Pacer interface {
	Wait(host string)
}

type Config struct {
	// Timeout bounds each request. Zero disables the per-request deadline.
	Timeout   time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "newsdesk/1.0",
	}
}

type Client struct {
	builder    Builder
	keys       KeyProvider
	httpClient *http.Client
	config     Config
	pacer      Pacer
	logger     *logging.Logger
}

func NewClient(builder Builder, keys KeyProvider, config Config, logger *logging.Logger) *Client {
	return &Client{
		builder:    builder,
		keys:       keys,
		httpClient: &http.Client{},
		config:     config,
		logger:     logger,
	}
}

// WithPacer makes every request wait its turn on p first.
func (c *Client) WithPacer(p Pacer) *Client {
	c.pacer = p
	return c
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) FetchSources(ctx context.Context) ([]models.Source, error) {
	body, err := c.get(ctx, SourcesEndpoint(), nil)
	if err != nil {
		return nil, err
	}

	sources, err := codec.DecodeSources(body)
	if err != nil {
		c.logDecodeError(SourcesEndpoint(), err)
		return nil, DecodeFailure(err)
	}
	return sources, nil
}

func (c *Client) FetchHeadlines(ctx context.Context, sourceID string, pageSize int) ([]models.Article, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	ep := HeadlinesEndpoint(sourceID)
	body, err := c.get(ctx, ep, []QueryItem{{Name: "pageSize", Value: strconv.Itoa(pageSize)}})
	if err != nil {
		return nil, err
	}

	page, err := codec.DecodeHeadlines(body)
	if err != nil {
		c.logDecodeError(ep, err)
		return nil, DecodeFailure(err)
	}
	return page.Articles, nil
}

// get performs the request and returns the body of a validated 2xx response.
func (c *Client) get(ctx context.Context, ep Endpoint, extra []QueryItem) ([]byte, error) {
	u, err := c.builder.Build(ep, c.apiKey(), extra)
	if err != nil {
		return nil, err
	}

	if c.pacer != nil {
		c.pacer.Wait(u.Host)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, BadURL(err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, TransportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("reading response body: %w", err))
	}

	c.logResponse(u, resp.StatusCode, body)

	if err := Validate(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) apiKey() string {
	if c.keys == nil {
		return ""
	}
	return c.keys.NewsAPIKey()
}

func (c *Client) logResponse(u *url.URL, status int, body []byte) {
	if c.logger == nil || c.logger.Level() > logging.LevelDebug {
		return
	}
	clipped := string(body)
	if len(clipped) > maxLoggedBody {
		clipped = clipped[:maxLoggedBody] + "\n...(truncated)"
	}
	c.logger.Debug("NewsAPI response", logging.WithFields(map[string]interface{}{
		"url":    redact(u),
		"status": status,
		"body":   clipped,
	}))
}

func (c *Client) logDecodeError(ep Endpoint, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("Failed to decode NewsAPI response", logging.WithFields(map[string]interface{}{
		"endpoint": ep.String(),
		"error":    err.Error(),
	}))
}

// redact hides the API key in logged URLs.
func redact(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
	}
	cp.RawQuery = q.Encode()
	return cp.String()
}

var _ API = (*Client)(nil)
