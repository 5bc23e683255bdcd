// Package chat drives the tool-calling conversation loop: it owns the
// transcript for one query, alternates between the completion endpoint
// and the tool session, and assembles the user-facing answer.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/llms"
	"github.com/effective-security/toolchat/pkg/mcpclient"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "chat")

// DefaultMaxTurns bounds the completion turns per query. A misbehaving
// model could otherwise request tools forever.
const DefaultMaxTurns = 10

// noOutput is reported to the model when a tool produced nothing.
const noOutput = "(no output)"

// Session lists and invokes tools on behalf of the loop. The loop does
// not own the session and never closes it.
type Session interface {
	ListTools(ctx context.Context) ([]mcpclient.ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (*mcpclient.ToolResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithMaxTurns overrides the turn guard. Values below 1 keep the default.
func WithMaxTurns(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// WithCallOptions sets extra call options, such as temperature or a
// model override, applied to every completion request.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(c *Client) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// Client runs queries against one tool session and one model.
type Client struct {
	session  Session
	llm      llms.Model
	maxTurns int
	callOpts []llms.CallOption
}

// New creates a query processor over the given session and model.
func New(session Session, llm llms.Model, opts ...Option) *Client {
	c := &Client{
		session:  session,
		llm:      llm,
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessQuery answers one free-form query. The model decides which
// tools to call and in what order; results are folded back into the
// transcript until the model stops requesting tools or the turn guard
// trips. The returned string interleaves the model's text with
// human-readable tool call summaries.
func (c *Client) ProcessQuery(ctx context.Context, query string) (string, error) {
	if c.session == nil {
		return "", errors.New("not connected to a tool session")
	}

	cid := uuid.New().String()
	logger.ContextKV(ctx, xlog.DEBUG,
		"cid", cid,
		"query", slices.StringUpto(query, 64),
	)

	// The catalog is refreshed per query to reflect availability changes.
	defs, err := c.session.ListTools(ctx)
	if err != nil {
		return "", errors.WithMessage(err, "failed to list tools")
	}
	declarations := Declarations(defs)
	callOpts := append([]llms.CallOption{llms.WithTools(declarations)}, c.callOpts...)

	transcript := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, query),
	}
	var output []string

	for turn := 0; ; turn++ {
		if turn == c.maxTurns {
			logger.ContextKV(ctx, xlog.WARNING, "cid", cid, "turns", turn, "status", "truncated")
			output = append(output, fmt.Sprintf("[Response truncated: reached the maximum of %d tool-calling turns]", c.maxTurns))
			break
		}

		resp, err := c.llm.GenerateContent(ctx, transcript, callOpts...)
		if err != nil {
			return "", errors.WithMessage(err, "completion request failed")
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("completion endpoint returned no choices")
		}
		choice := resp.Choices[0]

		content := strings.TrimSpace(choice.Content)
		if content != "" {
			output = append(output, content)
		}
		if len(choice.ToolCalls) == 0 {
			break
		}

		logger.ContextKV(ctx, xlog.DEBUG, "cid", cid, "turn", turn, "tool_calls", len(choice.ToolCalls))
		transcript = append(transcript, llms.MessageFromToolCalls(choice.Content, choice.ToolCalls...))

		// Calls run strictly sequentially in the order the model emitted
		// them; result order in the transcript must match.
		for _, call := range choice.ToolCalls {
			summary, result, err := c.invokeTool(ctx, cid, call)
			if err != nil {
				return "", err
			}
			output = append(output, summary)
			if result != "" {
				output = append(output, result)
			}
			transcript = append(transcript, llms.MessageFromToolResponse(llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       call.FunctionCall.Name,
				Content:    values.StringsCoalesce(result, noOutput),
			}))
		}
	}

	var parts []string
	for _, entry := range output {
		if strings.TrimSpace(entry) != "" {
			parts = append(parts, entry)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// invokeTool executes one requested call. Malformed arguments abort the
// query; a failing tool does not, its failure text goes back to the
// model instead.
func (c *Client) invokeTool(ctx context.Context, cid string, call llms.ToolCall) (summary, result string, err error) {
	name := call.FunctionCall.Name
	args, err := parseArguments(call.FunctionCall.Arguments)
	if err != nil {
		return "", "", errors.WithMessagef(err, "tool %q", name)
	}

	summary = fmt.Sprintf("[Tool %s called with args %s]", name, formatArguments(args))
	logger.ContextKV(ctx, xlog.DEBUG, "cid", cid, "tool", name, "id", call.ID)

	raw := json.RawMessage(call.FunctionCall.Arguments)
	if len(strings.TrimSpace(call.FunctionCall.Arguments)) == 0 {
		raw = json.RawMessage("{}")
	}
	res, err := c.session.CallTool(ctx, name, raw)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "cid", cid, "tool", name, "err", err.Error())
		return summary, fmt.Sprintf("failed to call tool %s: %s", name, err.Error()), nil
	}
	return summary, strings.TrimSpace(res.Content), nil
}
