package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// bindArgs turns --param name=value flags or positional values into the
// arguments Execute expects. The two forms cannot be mixed.
func bindArgs(params, positional []string) ([]any, error) {
	if len(params) > 0 && len(positional) > 0 {
		return nil, fmt.Errorf("use either --param name=value or positional values, not both")
	}
	if len(params) > 0 {
		named := make(map[string]any, len(params))
		for _, p := range params {
			k, v, ok := strings.Cut(p, "=")
			k = strings.TrimSpace(k)
			if !ok || k == "" {
				return nil, fmt.Errorf("bad --param %q (expected name=value)", p)
			}
			named[k] = parseValue(v)
		}
		return []any{named}, nil
	}
	if len(positional) == 0 {
		return nil, nil
	}
	vals := make([]any, len(positional))
	for i, s := range positional {
		vals[i] = parseValue(s)
	}
	return vals, nil
}

// parseValue reads NULL, integers and floats; anything else stays text.
func parseValue(s string) any {
	if strings.EqualFold(s, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
