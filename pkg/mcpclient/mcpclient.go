// Package mcpclient connects to MCP tool servers over a stdio
// subprocess or a Streamable HTTP endpoint and exposes the session
// surface the chat loop needs: list the catalog, invoke a tool.
package mcpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "mcpclient")

// ToolDefinition describes one catalog entry advertised by the server.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolResult is the normalized outcome of a tool invocation. IsError
// reports a tool-level failure carried in-band by the protocol, as
// opposed to a transport error.
type ToolResult struct {
	Content string
	IsError bool
}

type options struct {
	headers    map[string]string
	clientName string
	version    string
}

// Option configures Dial.
type Option func(*options)

// WithHeaders adds HTTP headers to every request of a Streamable HTTP
// connection. Ignored for stdio targets.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithImplementation overrides the client identity sent at initialize.
func WithImplementation(name, version string) Option {
	return func(o *options) {
		o.clientName = name
		o.version = version
	}
}

// Session is a live connection to one MCP server.
type Session struct {
	cs *mcp.ClientSession
}

// Dial connects to the given target and performs the MCP handshake.
// Targets starting with http:// or https:// use Streamable HTTP; any
// other target is treated as a server program to spawn over stdio.
// Scripts ending in .py or .js are run with python3 or node.
func Dial(ctx context.Context, target string, opts ...Option) (*Session, error) {
	o := options{
		clientName: "toolchat",
		version:    "1.0.0",
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport, err := buildTransport(ctx, target, &o)
	if err != nil {
		return nil, err
	}

	client := mcp.NewClient(&mcp.Implementation{Name: o.clientName, Version: o.version}, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to MCP server %q", target)
	}
	logger.ContextKV(ctx, xlog.DEBUG, "status", "connected", "target", target)
	return &Session{cs: cs}, nil
}

func buildTransport(ctx context.Context, target string, o *options) (mcp.Transport, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("server target is empty")
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		transport := &mcp.StreamableClientTransport{Endpoint: target}
		if len(o.headers) > 0 {
			transport.HTTPClient = &http.Client{
				Transport: &headerRoundTripper{
					headers: o.headers,
					next:    http.DefaultTransport,
				},
			}
		}
		return transport, nil
	}

	parts := strings.Fields(target)
	name := parts[0]
	args := parts[1:]
	switch {
	case strings.HasSuffix(name, ".py"):
		args = append([]string{name}, args...)
		name = "python3"
	case strings.HasSuffix(name, ".js"):
		args = append([]string{name}, args...)
		name = "node"
	}
	cmd := exec.CommandContext(ctx, name, args...)
	return &mcp.CommandTransport{Command: cmd}, nil
}

type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range rt.headers {
		clone.Header.Set(k, v)
	}
	return rt.next.RoundTrip(clone)
}

// ListTools fetches the complete tool catalog, following pagination.
func (s *Session) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	var defs []ToolDefinition
	for tool, err := range s.cs.Tools(ctx, nil) {
		if err != nil {
			return nil, errors.WithMessage(err, "failed to list tools")
		}
		def := ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.InputSchema != nil {
			raw, err := json.Marshal(tool.InputSchema)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid input schema for tool %q", tool.Name)
			}
			def.InputSchema = raw
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// CallTool invokes a tool by name with raw JSON arguments and collapses
// the textual content of the result into a single string.
func (s *Session) CallTool(ctx context.Context, name string, arguments json.RawMessage) (*ToolResult, error) {
	res, err := s.cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to call tool %q", name)
	}

	parts := make([]string, 0, len(res.Content))
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if tc.Text != "" {
				parts = append(parts, tc.Text)
			}
			continue
		}
		// non-text content is rare here; keep it visible
		js, err := json.Marshal(content)
		if err == nil {
			parts = append(parts, string(js))
		}
	}
	return &ToolResult{
		Content: strings.Join(parts, "\n"),
		IsError: res.IsError,
	}, nil
}

// Close terminates the session and, for stdio targets, the server
// subprocess.
func (s *Session) Close() error {
	return s.cs.Close()
}
