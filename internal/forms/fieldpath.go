package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Path parsing errors callers may want to branch on.
var (
	// ErrEmptyPath is returned when a field path is blank.
	ErrEmptyPath = errors.New("forms: field path is empty")

	// ErrPathTooDeep is returned for array-item paths addressing more than
	// two dotted levels below the item index. The grammar stops there on
	// purpose; deeper nesting is an unsupported configuration, not a
	// silent truncation.
	ErrPathTooDeep = errors.New("forms: array-item path supports at most two levels below the index")
)

// Path is a parsed field path addressing one location inside a data object.
//
// Two grammars are supported:
//
//	a.b.c            plain dotted path into nested objects
//	arr[].2.id       the id field of the 3rd element of array arr
//	arr[].2.a.b      one extra dotted level below the item is allowed
type Path struct {
	raw      string
	segments []string

	array     string
	index     int
	sub       []string
	arrayItem bool
}

const arrayMarker = "[]."

// ParsePath parses a field path string. The result is a value type built
// once per element, not re-parsed per access.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Path{}, ErrEmptyPath
	}
	if pos := strings.Index(trimmed, arrayMarker); pos >= 0 {
		return parseArrayItemPath(trimmed, pos)
	}
	if strings.Contains(trimmed, "[]") {
		return Path{}, fmt.Errorf("forms: malformed array marker in path %q", trimmed)
	}
	segments := strings.Split(trimmed, ".")
	for _, seg := range segments {
		if seg == "" {
			return Path{}, fmt.Errorf("forms: empty segment in path %q", trimmed)
		}
	}
	return Path{raw: trimmed, segments: segments}, nil
}

func parseArrayItemPath(raw string, markerPos int) (Path, error) {
	array := raw[:markerPos]
	if array == "" || strings.Contains(array, ".") {
		return Path{}, fmt.Errorf("forms: malformed array-item path %q", raw)
	}
	rest := raw[markerPos+len(arrayMarker):]
	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return Path{}, fmt.Errorf("forms: array-item path %q is missing an index or field", raw)
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil || index < 0 {
		return Path{}, fmt.Errorf("forms: array-item path %q has invalid index %q", raw, parts[0])
	}
	sub := parts[1:]
	if len(sub) > 2 {
		return Path{}, fmt.Errorf("%w: %q", ErrPathTooDeep, raw)
	}
	for _, seg := range sub {
		if seg == "" {
			return Path{}, fmt.Errorf("forms: empty segment in path %q", raw)
		}
	}
	return Path{raw: raw, array: array, index: index, sub: sub, arrayItem: true}, nil
}

// MustParsePath panics on parse failure. Reserved for hand-written
// configuration literals in code and tests.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original path text.
func (p Path) String() string { return p.raw }

// IsZero reports whether the path was never parsed (element without a field).
func (p Path) IsZero() bool { return p.raw == "" }

// IsArrayItem reports whether the path uses the arr[].idx.field grammar.
func (p Path) IsArrayItem() bool { return p.arrayItem }

// Array returns the array field name for array-item paths.
func (p Path) Array() string { return p.array }

// Index returns the item index for array-item paths.
func (p Path) Index() int { return p.index }

// Sub returns the dotted sub-path below the item index.
func (p Path) Sub() []string { return p.sub }

// Segments returns the dotted segments of a plain path.
func (p Path) Segments() []string { return p.segments }

// Leaf returns the last segment of the path, the name batch parsing and
// link formatting key off.
func (p Path) Leaf() string {
	if p.arrayItem {
		if len(p.sub) == 0 {
			return p.array
		}
		return p.sub[len(p.sub)-1]
	}
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}
