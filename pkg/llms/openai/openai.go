// Package openai implements the llms.Model contract over an
// OpenAI-compatible chat-completions endpoint.
package openai

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/llms"
)

const (
	// DefaultBaseURL is used when no endpoint URL is configured.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultChatModel is used when no model is configured.
	DefaultChatModel = "llama3.1:8b"
)

// ErrEmptyResponse is returned when the endpoint returns no choices.
var ErrEmptyResponse = errors.New("empty response")

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for an OpenAI-compatible chat-completions API.
type Client struct {
	model      string
	token      string
	baseURL    string
	httpClient Doer
}

var _ llms.Model = (*Client)(nil)

// Option is an option for the client.
type Option func(*Client)

// WithToken sets the bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithModel sets the default model identifier.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a new chat-completions client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultChatModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, errors.New("endpoint base URL is not set")
	}
	return c, nil
}

// GetName implements the llms.Model interface.
func (c *Client) GetName() string {
	return c.model
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) buildURL(suffix string) string {
	return c.baseURL + suffix
}

type errorMessage struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
