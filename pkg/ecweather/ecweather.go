// Package ecweather is a minimal client for Environment Canada's
// public forecast feed.
package ecweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "ecweather")

const (
	// DefaultBaseURL is the Environment Canada API endpoint.
	DefaultBaseURL = "https://api.weather.gc.ca"

	defaultTimeout = 30 * time.Second
)

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Environment Canada forecast feed.
type Client struct {
	baseURL    string
	httpClient Doer
}

// Option is an option for the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a new Environment Canada client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForecastPeriod is one period of a city forecast. Temperatures are in
// degrees Celsius.
type ForecastPeriod struct {
	Period      string   `json:"period"`
	Temperature *float64 `json:"temperature"`
	TextSummary string   `json:"text_summary"`
}

type forecastResponse struct {
	Forecasts []ForecastPeriod `json:"forecasts"`
}

// Forecast returns the forecast periods for the station closest to the
// given coordinates, in order.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64) ([]ForecastPeriod, error) {
	u := fmt.Sprintf("%s/forecast?lat=%g&lon=%g", c.baseURL, latitude, longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	r, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = r.Body.Close() }()

	if r.StatusCode != http.StatusOK {
		return nil, errors.Newf("API returned unexpected status code: %d", r.StatusCode)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "url", u, "status", r.StatusCode)

	var resp forecastResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return resp.Forecasts, nil
}
