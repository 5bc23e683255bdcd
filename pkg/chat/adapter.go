package chat

import (
	"encoding/json"

	"github.com/effective-security/toolchat/pkg/llms"
	"github.com/effective-security/toolchat/pkg/mcpclient"
)

// emptyParameters is the declaration used for tools whose advertised
// schema is absent or unreadable. Such tools stay listed but cannot be
// called with arguments.
func emptyParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Declarations converts the session's tool catalog into the function
// declarations the completion endpoint expects. Pure transform:
// the same catalog always yields the same declarations.
func Declarations(defs []mcpclient.ToolDefinition) []llms.Tool {
	res := make([]llms.Tool, 0, len(defs))
	for _, def := range defs {
		fd := &llms.FunctionDefinition{
			Name:        def.Name,
			Description: def.Description,
		}
		if isObjectSchema(def.InputSchema) {
			fd.Parameters = def.InputSchema
		} else {
			fd.Parameters = emptyParameters()
		}
		res = append(res, llms.Tool{
			Type:     "function",
			Function: fd,
		})
	}
	return res
}

func isObjectSchema(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	return obj != nil
}
