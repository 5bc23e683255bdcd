package chat_test

import (
	"encoding/json"
	"testing"

	"github.com/effective-security/toolchat/pkg/chat"
	"github.com/effective-security/toolchat/pkg/mcpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Declarations(t *testing.T) {
	defs := []mcpclient.ToolDefinition{
		{
			Name:        "add_numbers",
			Description: "Adds numbers",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"values":{"type":"array","items":{"type":"number"}}},"required":["values"]}`),
		},
		{
			Name:        "no_schema",
			Description: "Tool without a schema",
		},
		{
			Name:        "bad_schema",
			Description: "Tool with an unreadable schema",
			InputSchema: json.RawMessage(`"not an object"`),
		},
	}

	decls := chat.Declarations(defs)
	require.Len(t, decls, 3)

	assert.Equal(t, "function", decls[0].Type)
	assert.Equal(t, "add_numbers", decls[0].Function.Name)
	assert.Equal(t, "Adds numbers", decls[0].Function.Description)
	js, err := json.Marshal(decls[0].Function.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, string(defs[0].InputSchema), string(js))

	// tools with a missing or unreadable schema stay listed with
	// an empty-parameter declaration
	for _, decl := range decls[1:] {
		js, err := json.Marshal(decl.Function.Parameters)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"object","properties":{}}`, string(js))
	}
}

func Test_Declarations_Idempotent(t *testing.T) {
	defs := []mcpclient.ToolDefinition{
		{Name: "a", Description: "A", InputSchema: json.RawMessage(`{"type":"object","properties":{"x":{"type":"string"}}}`)},
		{Name: "b", Description: "B"},
	}

	first, err := json.Marshal(chat.Declarations(defs))
	require.NoError(t, err)
	second, err := json.Marshal(chat.Declarations(defs))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func Test_Declarations_Empty(t *testing.T) {
	assert.Empty(t, chat.Declarations(nil))
}
