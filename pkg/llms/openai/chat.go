package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolchat/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3/packages/param"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolchat", "openai")

// ChatRequest is the wire shape of a chat-completions request.
type ChatRequest struct {
	Model       string             `json:"model"`
	Messages    []*ChatMessage     `json:"messages"`
	Tools       []llms.Tool        `json:"tools,omitempty"`
	ToolChoice  string             `json:"tool_choice,omitempty"`
	Temperature param.Opt[float64] `json:"temperature,omitzero"`
}

// ChatMessage is one wire message in a chat-completions request.
type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are set on "tool" role messages only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolCall is the wire shape of a model-requested tool invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function name and raw JSON arguments of a tool call.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is the wire shape of a chat-completions response.
type ChatResponse struct {
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

const (
	roleSystem    = "system"
	roleAssistant = "assistant"
	roleUser      = "user"
	roleTool      = "tool"
)

// GenerateContent implements the llms.Model interface.
func (c *Client) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs := make([]*ChatMessage, 0, len(messages))
	for _, m := range messages {
		msg, err := wireMessage(m)
		if err != nil {
			return nil, err
		}
		chatMsgs = append(chatMsgs, msg)
	}

	req := &ChatRequest{
		Model:    c.model,
		Messages: chatMsgs,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.TemperatureSet {
		req.Temperature = param.NewOpt(opts.Temperature)
	}
	// Offer tool declarations only when there are any, so the endpoint
	// is never pressured to call tools that don't exist.
	if len(opts.Tools) > 0 {
		req.Tools = opts.Tools
		req.ToolChoice = "auto"
	}

	resp, err := c.createChat(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choices := make([]*llms.ContentChoice, len(resp.Choices))
	for i, ch := range resp.Choices {
		choice := &llms.ContentChoice{
			Content:    ch.Message.Content,
			StopReason: ch.FinishReason,
		}
		for _, tc := range ch.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		choices[i] = choice
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// wireMessage converts a transcript message to its wire shape. This is
// the only place variant-to-wire conversion happens.
func wireMessage(m llms.Message) (*ChatMessage, error) {
	msg := &ChatMessage{}
	switch m.Role {
	case llms.RoleSystem:
		msg.Role = roleSystem
		msg.Content = m.GetContent()
	case llms.RoleHuman:
		msg.Role = roleUser
		msg.Content = m.GetContent()
	case llms.RoleAI:
		msg.Role = roleAssistant
		msg.Content = m.GetContent()
		for _, tc := range m.ToolCalls() {
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: ToolFunction{
					Name:      tc.FunctionCall.Name,
					Arguments: tc.FunctionCall.Arguments,
				},
			})
		}
	case llms.RoleTool:
		msg.Role = roleTool
		if len(m.Parts) != 1 {
			return nil, errors.Newf("expected exactly one part for role %v, got %d", m.Role, len(m.Parts))
		}
		p, ok := m.Parts[0].(llms.ToolCallResponse)
		if !ok {
			return nil, errors.Newf("expected part of type ToolCallResponse for role %v, got %T", m.Role, m.Parts[0])
		}
		msg.ToolCallID = p.ToolCallID
		msg.Name = p.Name
		msg.Content = p.Content
	default:
		return nil, errors.Newf("role %v not supported", m.Role)
	}
	return msg, nil
}

// createChat sends the request to /chat/completions and parses the reply.
func (c *Client) createChat(ctx context.Context, payload *ChatRequest) (*ChatResponse, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	u := c.buildURL("/chat/completions")
	logger.ContextKV(ctx, xlog.DEBUG,
		"url", u,
		"messages", len(payload.Messages),
		"tools", len(payload.Tools),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	c.setHeaders(req)

	r, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = r.Body.Close() }()

	if r.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("API returned unexpected status code: %d", r.StatusCode)
		if r.StatusCode == http.StatusNotFound {
			msg += ": url: " + u
		}
		var errResp errorMessage
		if err := json.NewDecoder(r.Body).Decode(&errResp); err != nil {
			return nil, errors.New(msg)
		}
		return nil, errors.Errorf("%s: %s", msg, errResp.Error.Message)
	}

	var resp ChatResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &resp, nil
}
