package forms

import (
	"fmt"
)

// Apply performs a FieldChange against a caller-owned data object. The
// engine never calls this: the caller decides whether and when a proposed
// mutation lands. After Apply succeeds, resolving the same path yields
// the applied value (the round-trip property the engine's tests pin).
func Apply(data Data, change FieldChange) error {
	if data == nil {
		return fmt.Errorf("forms: apply requires a data object")
	}
	path, err := ParsePath(change.Param)
	if err != nil {
		return err
	}
	switch change.Action {
	case ActionSet:
		if path.IsArrayItem() {
			return setArrayItem(data, path, change.Value)
		}
		return setPlain(data, path, change.Value)

	case ActionEdit:
		if !path.IsArrayItem() {
			return fmt.Errorf("forms: EDIT requires an array-item path, got %q", change.Param)
		}
		return setArrayItem(data, path, change.Value)

	case ActionAdd:
		if path.IsArrayItem() {
			return fmt.Errorf("forms: ADD addresses the array field, got item path %q", change.Param)
		}
		arr, _ := asSlice(path.Resolve(data))
		return setPlain(data, path, append(arr, change.Value))

	case ActionRemove:
		arr, ok := asSlice(path.Resolve(data))
		if !ok {
			return fmt.Errorf("forms: REMOVE target %q is not an array", change.Param)
		}
		if change.Index < 0 || change.Index >= len(arr) {
			return fmt.Errorf("forms: REMOVE index %d out of range for %q", change.Index, change.Param)
		}
		next := make([]any, 0, len(arr)-1)
		next = append(next, arr[:change.Index]...)
		next = append(next, arr[change.Index+1:]...)
		return setPlain(data, path, next)

	case ActionReset:
		value := change.Value
		if value == nil {
			value = []any{}
		}
		return setPlain(data, path, value)

	default:
		return fmt.Errorf("forms: unknown change action %q", change.Action)
	}
}

func setPlain(data Data, path Path, value any) error {
	segments := path.Segments()
	if len(segments) == 0 {
		return fmt.Errorf("forms: cannot apply to empty path")
	}
	current := data
	for _, seg := range segments[:len(segments)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			next = Data{}
		}
		current[seg] = next
		current = next
	}
	current[segments[len(segments)-1]] = value
	return nil
}

func setArrayItem(data Data, path Path, value any) error {
	arr, ok := asSlice(data[path.Array()])
	if !ok {
		return fmt.Errorf("forms: %q is not an array", path.Array())
	}
	if path.Index() >= len(arr) {
		return fmt.Errorf("forms: index %d out of range for %q", path.Index(), path.Array())
	}
	sub := path.Sub()
	if len(sub) == 0 {
		arr[path.Index()] = value
		return nil
	}
	item, ok := asMap(arr[path.Index()])
	if !ok {
		item = Data{}
		arr[path.Index()] = item
	}
	current := item
	for _, seg := range sub[:len(sub)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			next = Data{}
		}
		current[seg] = next
		current = next
	}
	current[sub[len(sub)-1]] = value
	// Map conversion may have produced a fresh map; write it back so the
	// caller's array holds the mutated item.
	arr[path.Index()] = item
	return nil
}

// DeepCopy clones a JSON-like value: maps and slices are copied
// recursively, scalars are returned as-is.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case Data:
		clone := make(Data, len(v))
		for key, val := range v {
			clone[key] = DeepCopy(val)
		}
		return clone
	case map[any]any:
		if m, ok := asMap(v); ok {
			return DeepCopy(m)
		}
		return nil
	case []any:
		clone := make([]any, len(v))
		for i, val := range v {
			clone[i] = DeepCopy(val)
		}
		return clone
	default:
		return v
	}
}
