package llms_test

import (
	"testing"

	"github.com/effective-security/toolchat/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MessageFromTextParts(t *testing.T) {
	m := llms.MessageFromTextParts(llms.RoleHuman, "hello", " world")
	assert.Equal(t, llms.RoleHuman, m.Role)
	assert.Equal(t, "hello world", m.GetContent())
	assert.Empty(t, m.ToolCalls())
}

func Test_MessageFromToolCalls(t *testing.T) {
	call := llms.ToolCall{
		ID:   "call_1",
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      "add_numbers",
			Arguments: `{"values": [3, 4]}`,
		},
	}

	m := llms.MessageFromToolCalls("thinking...", call)
	assert.Equal(t, llms.RoleAI, m.Role)
	assert.Equal(t, "thinking...", m.GetContent())
	require.Len(t, m.ToolCalls(), 1)
	assert.Equal(t, "call_1", m.ToolCalls()[0].ID)

	// empty content produces no text part
	m = llms.MessageFromToolCalls("", call)
	assert.Empty(t, m.GetContent())
	require.Len(t, m.Parts, 1)
}

func Test_MessageFromToolResponse(t *testing.T) {
	m := llms.MessageFromToolResponse(llms.ToolCallResponse{
		ToolCallID: "call_1",
		Name:       "add_numbers",
		Content:    "7",
	})
	assert.Equal(t, llms.RoleTool, m.Role)
	require.Len(t, m.Parts, 1)
	resp, ok := m.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, "7", resp.Content)
}
