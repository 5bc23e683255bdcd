// Package tools defines the contracts tool implementations satisfy so
// they can be registered on an MCP server and invoked by name.
package tools

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrFailedUnmarshalInput is returned when a tool cannot parse its
// input against the declared schema.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a named, remotely invocable function with a declared
// argument schema.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function.
	Parameters() any

	// Call executes the tool with the given JSON input and returns the result.
	// If the tool fails to parse the input, it returns ErrFailedUnmarshalInput.
	Call(context.Context, string) (string, error)
}

// Tool is a typed tool with a structured request and response.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// McpServerRegistrator registers tools on an MCP server.
type McpServerRegistrator interface {
	RegisterTool(tool ITool) error
}

// IMCPTool is a tool that can register itself with an MCP server.
type IMCPTool interface {
	ITool
	RegisterMCP(registrator McpServerRegistrator) error
}
