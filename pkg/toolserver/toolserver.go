// Package toolserver assembles local tools into an MCP server that can
// be served over stdio or Streamable HTTP.
package toolserver

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/schema"
	"github.com/effective-security/toolchat/pkg/tools"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "toolserver")

// Server exposes registered tools over the MCP protocol.
type Server struct {
	srv *mcp.Server
}

var _ tools.McpServerRegistrator = (*Server)(nil)

// New creates a server with the given implementation identity.
func New(name, version string) *Server {
	return &Server{
		srv: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
	}
}

// RegisterTool publishes the tool in the server's catalog. The tool's
// parameters definition becomes the advertised input schema, and its
// Call method backs the invocation handler.
func (s *Server) RegisterTool(tool tools.ITool) error {
	sc, err := schema.FromAny(tool.Parameters())
	if err != nil {
		return errors.WithMessagef(err, "invalid parameters definition for tool %q", tool.Name())
	}
	input, err := (&schema.Schema{Parameters: sc}).Input()
	if err != nil {
		return errors.WithMessagef(err, "failed to convert input schema for tool %q", tool.Name())
	}

	s.srv.AddTool(&mcp.Tool{
		Name:        tool.Name(),
		Description: tool.Description(),
		InputSchema: input,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if len(req.Params.Arguments) > 0 {
			args = string(req.Params.Arguments)
		}
		logger.ContextKV(ctx, xlog.DEBUG, "tool", tool.Name(), "args", args)

		out, err := tool.Call(ctx, args)
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING, "tool", tool.Name(), "err", err.Error())
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out}},
		}, nil
	})
	return nil
}

// RegisterAll registers every supplied tool, stopping at the first failure.
func (s *Server) RegisterAll(list ...tools.IMCPTool) error {
	for _, t := range list {
		if err := t.RegisterMCP(s); err != nil {
			return err
		}
	}
	return nil
}

// Run serves MCP over the process's stdin and stdout until the client
// disconnects or the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	err := s.srv.Run(ctx, &mcp.StdioTransport{})
	if err != nil {
		return errors.WithMessage(err, "mcp server stopped")
	}
	return nil
}

// Handler returns an HTTP handler serving MCP over Streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.srv
	}, nil)
}
