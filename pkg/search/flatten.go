package search

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/crateview/pkg/crate"
)

// MaxDepth bounds recursion in [Flatten].
const MaxDepth = 10

// Flatten converts v into a single whitespace-normalized string.
func Flatten(v any) string {
	return strings.Join(strings.Fields(flatten(v, 0)), " ")
}

// FlattenEntity flattens the raw object of e.
func FlattenEntity(e *crate.Entity) string {
	if e == nil {
		return ""
	}
	return Flatten(e.Raw)
}

func flatten(v any, depth int) string {
	if depth > MaxDepth {
		return ""
	}

	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := flatten(item, depth+1); strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			if k != crate.KeyContext {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)

		parts := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			parts = append(parts, k)
			if s := flatten(t[k], depth+1); strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}
