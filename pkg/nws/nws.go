// Package nws is a minimal client for the US National Weather Service
// API (api.weather.gov).
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "nws")

const (
	// DefaultBaseURL is the NWS API endpoint.
	DefaultBaseURL = "https://api.weather.gov"
	// DefaultUserAgent identifies this client to the NWS API, which
	// rejects requests without a User-Agent.
	DefaultUserAgent = "weather-app/1.0"

	defaultTimeout = 30 * time.Second
)

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the NWS API.
type Client struct {
	baseURL    string
	userAgent  string
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

// New returns a new NWS client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Alert is one active alert's properties.
type Alert struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// AlertCollection is the alerts feed for an area. Features is nil when
// the feed carried no features key at all.
type AlertCollection struct {
	Features []struct {
		Properties Alert `json:"properties"`
	} `json:"features"`
}

// Alerts returns the properties of each feature in order.
func (c *AlertCollection) Alerts() []Alert {
	alerts := make([]Alert, 0, len(c.Features))
	for _, f := range c.Features {
		alerts = append(alerts, f.Properties)
	}
	return alerts
}

// ActiveAlerts returns the active alerts for a two-letter US state code.
func (c *Client) ActiveAlerts(ctx context.Context, state string) (*AlertCollection, error) {
	var collection AlertCollection
	u := fmt.Sprintf("%s/alerts/active/area/%s", c.baseURL, state)
	if err := c.get(ctx, u, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ForecastPeriod is one period of a gridpoint forecast.
type ForecastPeriod struct {
	Name             string  `json:"name"`
	Temperature      float64 `json:"temperature"`
	TemperatureUnit  string  `json:"temperatureUnit"`
	WindSpeed        string  `json:"windSpeed"`
	WindDirection    string  `json:"windDirection"`
	DetailedForecast string  `json:"detailedForecast"`
}

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

// PointForecast resolves the forecast grid endpoint for a location and
// returns its forecast periods in order.
func (c *Client) PointForecast(ctx context.Context, latitude, longitude float64) ([]ForecastPeriod, error) {
	var points pointsResponse
	u := fmt.Sprintf("%s/points/%g,%g", c.baseURL, latitude, longitude)
	if err := c.get(ctx, u, &points); err != nil {
		return nil, errors.WithMessage(err, "failed to fetch forecast grid endpoint")
	}
	if points.Properties.Forecast == "" {
		return nil, errors.New("no forecast URL found in points data")
	}

	var forecast forecastResponse
	if err := c.get(ctx, points.Properties.Forecast, &forecast); err != nil {
		return nil, errors.WithMessage(err, "failed to fetch detailed forecast")
	}
	return forecast.Properties.Periods, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	r, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = r.Body.Close() }()

	if r.StatusCode != http.StatusOK {
		return errors.Newf("API returned unexpected status code: %d", r.StatusCode)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "url", u, "status", r.StatusCode)

	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
