package forms

import (
	"fmt"
	"strconv"
	"strings"
)

// Data is the caller-owned JSON-like tree the engine reads values from.
// The engine never writes into it; proposed mutations flow out as
// FieldChange events and the caller applies them (see Apply).
type Data = map[string]any

// Resolve walks the data object along the path. A missing or mistyped step
// short-circuits to nil rather than erroring, matching the tolerance the
// display layer needs for partially populated records.
func (p Path) Resolve(data Data) any {
	if p.IsZero() || data == nil {
		return nil
	}
	if p.arrayItem {
		item, ok := p.ResolveItem(data)
		if !ok {
			return nil
		}
		return digMap(item, p.sub)
	}
	return digMap(data, p.segments)
}

// ResolveItem returns the array element addressed by an array-item path.
// Visibility and disabled predicates on array-item fields receive this
// value instead of the whole array.
func (p Path) ResolveItem(data Data) (any, bool) {
	if !p.arrayItem || data == nil {
		return nil, false
	}
	arr, ok := asSlice(data[p.array])
	if !ok || p.index >= len(arr) {
		return nil, false
	}
	return arr[p.index], true
}

func digMap(value any, segments []string) any {
	current := value
	for _, seg := range segments {
		m, ok := asMap(current)
		if !ok {
			return nil
		}
		current, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return current
}

// asMap accepts both map[string]any and the map[any]any shape that
// yaml.v3 produces for untyped nested mappings.
func asMap(value any) (Data, bool) {
	switch m := value.(type) {
	case Data:
		return m, true
	case map[any]any:
		converted := make(Data, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			converted[key] = v
		}
		return converted, true
	default:
		return nil, false
	}
}

func asSlice(value any) ([]any, bool) {
	s, ok := value.([]any)
	return s, ok
}

// OrDefault substitutes def when value is absent or an empty string.
// Falsy-but-present values (0, false) are preserved; checkbox and numeric
// elements depend on that.
func OrDefault(value, def any) any {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok && s == "" && def != nil {
		return def
	}
	return value
}

// Format describes optional presentation post-processing of a resolved
// value. All fields are data, so formats survive YAML round trips.
type Format struct {
	// Style is an opaque style hint passed through to the renderer.
	Style string `json:"style,omitempty" yaml:"style,omitempty"`

	// Link is a hyperlink template. The uppercase leaf name of the field
	// acts as the substitution token: field "id" with template
	// "https://hpo.jax.org/app/browse/term/ID" links each value in place.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// Decimals truncates a numeric value to N decimal places when >= 0.
	Decimals *int `json:"decimals,omitempty" yaml:"decimals,omitempty"`

	// ClassName is an opaque class hint for the renderer.
	ClassName string `json:"className,omitempty" yaml:"className,omitempty"`
}

// FormattedValue is the output of applying a Format: the display text plus
// the presentation hints the rendering strategy interprets.
type FormattedValue struct {
	Text  string
	Style string
	Class string
	Link  string
}

// Apply renders a resolved value through the format. The zero Format
// produces plain text.
func (f Format) Apply(value any, leaf string) FormattedValue {
	out := FormattedValue{Style: f.Style, Class: f.ClassName}
	text := Stringify(value)
	if f.Decimals != nil && *f.Decimals >= 0 {
		if num, ok := toFloat(value); ok {
			text = strconv.FormatFloat(num, 'f', *f.Decimals, 64)
		}
	}
	out.Text = text
	if f.Link != "" {
		token := strings.ToUpper(strings.TrimSpace(leaf))
		if token != "" && strings.Contains(f.Link, token) {
			out.Link = strings.ReplaceAll(f.Link, token, text)
		} else {
			out.Link = f.Link
		}
	}
	return out
}

// Stringify renders a scalar value for display. Maps and slices are left
// to structured renderers and come back as a terse summary here.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		return fmt.Sprintf("%d item(s)", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// IsEmptyValue reports whether a value counts as empty for required-field
// checks: nil, empty string, or an empty slice.
func IsEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
