// Package naming converts field names between the service's camelCase wire
// names and the snake_case names some callers prefer.
package naming

import (
	"fmt"
	"strings"
	"unicode"
)

// Style selects how response field names are presented to callers.
type Style int

const (
	Camel Style = iota // names as sent by the service, e.g. getReportJobStatusReturn
	Snake              // e.g. get_report_job_status_return
)

// ParseStyle maps a config value to a Style. The empty string means Camel.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "camel", "camelcase":
		return Camel, nil
	case "snake", "snake_case", "ruby":
		return Snake, nil
	}
	return Camel, fmt.Errorf("naming: unknown style %q", s)
}

func (s Style) String() string {
	if s == Snake {
		return "snake"
	}
	return "camel"
}

// Key returns name rendered in this style.
func (s Style) Key(name string) string {
	if s == Snake {
		return ToSnake(name)
	}
	return ToCamel(name)
}

// Shape returns a copy of v with every map key rendered in this style.
// Slices and nested maps are walked; other values are returned as is.
func (s Style) Shape(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[s.Key(k)] = s.Shape(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = s.Shape(val)
		}
		return out
	default:
		return v
	}
}

// ToSnake converts getReportJobStatus to get_report_job_status. Runs of
// capitals are kept together: clientCustomerID -> client_customer_id.
func ToSnake(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts get_report_job_status to getReportJobStatus. Names
// without underscores are returned unchanged.
func ToCamel(name string) string {
	if !strings.Contains(name, "_") {
		return name
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
