// Package provider fetches market data from EODHD (https://eodhd.com) and,
// for news, optionally from an RSS feed.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/leonardcser/quickscope/internal/fetcher"
	"github.com/leonardcser/quickscope/internal/logger"
	"github.com/leonardcser/quickscope/internal/market"
)

const (
	DefaultBaseURL  = "https://eodhd.com/api"
	DefaultExchange = "US"
	RequestTimeout  = 20 * time.Second
	maxResponseSize = 16 * 1024 * 1024
)

// NewsSource fetches headlines for a ticker.
type NewsSource interface {
	FetchNews(ctx context.Context, ticker string, maxItems int) ([]market.NewsItem, error)
}

// Client implements fetcher.Fetcher on top of the EODHD REST API.
type Client struct {
	apiKey   string
	baseURL  string
	exchange string
	http     *http.Client
	news     NewsSource
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithExchange sets the exchange suffix appended to bare tickers.
func WithExchange(code string) Option {
	return func(c *Client) { c.exchange = strings.ToUpper(code) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithNewsSource replaces the EODHD news endpoint, e.g. with an RSSNews.
func WithNewsSource(src NewsSource) Option {
	return func(c *Client) { c.news = src }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		exchange: DefaultExchange,
		http:     &http.Client{Timeout: RequestTimeout},
		log:      logger.Component("provider"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ fetcher.Fetcher = (*Client)(nil)

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// symbol qualifies ticker with the configured exchange unless it already
// carries one ("VOD.LSE").
func (c *Client) symbol(ticker string) string {
	t := normalize(ticker)
	if strings.Contains(t, ".") {
		return t
	}
	return t + "." + c.exchange
}

// getJSON issues a GET against the API and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")
	addr := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func fail(ticker, category string, err error) error {
	return &fetcher.FetchError{Ticker: normalize(ticker), Category: category, Err: err}
}

// FetchAll fetches every category concurrently, keeping what succeeds.
func (c *Client) FetchAll(ctx context.Context, ticker string) (*market.MarketData, error) {
	return fetcher.Bundle(ctx, c, ticker, c.log), nil
}
