// Package llms defines the message transcript model and the completion
// endpoint contract used by the tool-calling orchestration loop.
package llms

import (
	"context"
)

// Model is the interface a chat-completion endpoint implements.
// The endpoint is stateless across calls: the full transcript is
// re-sent on every request.
type Model interface {
	// GetName returns the model identifier sent with each request.
	GetName() string
	// GenerateContent asks the model to produce the next assistant
	// message for the given transcript.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}

// CallOptions holds per-request settings.
type CallOptions struct {
	// Model overrides the endpoint's default model for this request.
	Model string
	// Tools is the list of function declarations offered to the model.
	// When empty, neither tools nor tool_choice are sent.
	Tools []Tool
	// Temperature, when set, is passed through to the endpoint.
	Temperature float64
	// TemperatureSet indicates Temperature carries a value.
	TemperatureSet bool
}

// CallOption configures a GenerateContent call.
type CallOption func(*CallOptions)

// WithModel overrides the model for a single call.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

// WithTools declares the callable functions for a single call.
func WithTools(tools []Tool) CallOption {
	return func(o *CallOptions) {
		o.Tools = tools
	}
}

// WithTemperature sets the sampling temperature for a single call.
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = t
		o.TemperatureSet = true
	}
}

// Tool is a callable-function declaration in the shape the completion
// endpoint expects.
type Tool struct {
	// Type of the tool, always "function".
	Type string `json:"type"`
	// Function is the function definition.
	Function *FunctionDefinition `json:"function,omitempty"`
}

// FunctionDefinition describes one callable function.
type FunctionDefinition struct {
	// Name of the function.
	Name string `json:"name"`
	// Description of the function, presented to the model.
	Description string `json:"description"`
	// Parameters is the JSON schema of the function arguments.
	Parameters any `json:"parameters,omitempty"`
}
