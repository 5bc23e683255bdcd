package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// parseArguments decodes the model's argument payload, preserving the
// key order the model emitted. An empty payload means no arguments;
// anything else must be a JSON object.
func parseArguments(raw string) (*orderedmap.OrderedMap[string, any], error) {
	args := orderedmap.New[string, any]()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), args); err != nil {
		return nil, errors.Wrap(err, "failed to parse tool arguments")
	}
	return args, nil
}

// formatArguments renders parsed arguments the way a Python repr would,
// matching the summary lines users of the original tooling are used to:
// {'values': [3, 4]}.
func formatArguments(args *orderedmap.OrderedMap[string, any]) string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(formatValue(pair.Key))
		sb.WriteString(": ")
		sb.WriteString(formatValue(pair.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(val) + "'"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatValue(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case *orderedmap.OrderedMap[string, any]:
		return formatArguments(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = formatValue(k) + ": " + formatValue(val[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
