// Package render substitutes {{key}} placeholders in notification templates.
package render

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Render replaces every {{key}} whose key is present in data with the value's string form.
// Unknown placeholders are left as written and substituted text is never scanned again.
func Render(tmpl string, data map[string]any) string {
	if tmpl == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		if strings.HasPrefix(tmpl[i:], openDelim) {
			rest := tmpl[i+len(openDelim):]
			if end := strings.Index(rest, closeDelim); end >= 0 {
				if v, ok := data[rest[:end]]; ok {
					b.WriteString(stringify(v))
					i += len(openDelim) + end + len(closeDelim)
					continue
				}
			}
		}
		// Advance a single byte so "{{{{key}}" still matches the inner placeholder.
		b.WriteByte(tmpl[i])
		i++
	}

	return b.String()
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
