package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Data is the business-data tree carried by a workflow.
// Leaves are string, float64 or bool; containers are Data/map[string]any and []any.
type Data = map[string]any

// MergePolicy folds a delta into the current business data and returns the result.
// Implementations must not mutate delta.
type MergePolicy func(current, delta Data) Data

// Normalize returns a deep copy of data with every number converted to float64,
// so that the copy survives a JSON round trip unchanged.
func Normalize(data Data) (Data, error) {
	if data == nil {
		return Data{}, nil
	}

	out, err := normalizeValue("", data)
	if err != nil {
		return nil, err
	}

	return out.(Data), nil
}

func normalizeValue(path string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case map[string]any:
		out := make(Data, len(val))
		for k, child := range val {
			n, err := normalizeValue(joinPath(path, k), child)
			if err != nil {
				return nil, err
			}

			out[k] = n
		}

		return out, nil
	case map[string]string:
		out := make(Data, len(val))
		for k, child := range val {
			out[k] = child
		}

		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			n, err := normalizeValue(fmt.Sprintf("%s[%d]", path, i), child)
			if err != nil {
				return nil, err
			}

			out[i] = n
		}

		return out, nil
	case []string:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = child
		}

		return out, nil
	default:
		return nil, &UnsupportedValueError{Path: path, Value: v}
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}

	return parent + "." + key
}

// UnsupportedValueError reports a business-data leaf that cannot be stored.
type UnsupportedValueError struct {
	Path  string
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported value of type %T at %q", e.Value, e.Path)
}

// Lookup walks a dot separated path into nested maps.
func Lookup(data Data, path string) (any, bool) {
	var current any = data

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Clone returns a deep copy of already normalized data.
func Clone(data Data) Data {
	if data == nil {
		return nil
	}

	return cloneValue(data).(Data)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(Data, len(val))
		for k, child := range val {
			out[k] = cloneValue(child)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = cloneValue(child)
		}

		return out
	default:
		return val
	}
}

// DeepMerge is the default policy: maps merge key by key recursively and any
// other conflicting value is overwritten by the delta.
func DeepMerge(current, delta Data) Data {
	out := Clone(current)
	if out == nil {
		out = Data{}
	}

	for k, v := range delta {
		existing, ok := out[k].(map[string]any)
		incoming, isMap := v.(map[string]any)

		if ok && isMap {
			out[k] = DeepMerge(existing, incoming)

			continue
		}

		out[k] = cloneValue(v)
	}

	return out
}

// AppendMerge behaves like DeepMerge except that lists are appended positionally
// instead of being replaced.
func AppendMerge(current, delta Data) Data {
	out := Clone(current)
	if out == nil {
		out = Data{}
	}

	for k, v := range delta {
		switch incoming := v.(type) {
		case map[string]any:
			if existing, ok := out[k].(map[string]any); ok {
				out[k] = AppendMerge(existing, incoming)

				continue
			}
		case []any:
			if existing, ok := out[k].([]any); ok {
				out[k] = append(slices.Clone(existing), cloneValue(incoming).([]any)...)

				continue
			}
		}

		out[k] = cloneValue(v)
	}

	return out
}

// Namespaced returns a policy that deep merges the delta under the given key,
// keeping each node's contribution apart from the rest of the record.
func Namespaced(key string) MergePolicy {
	return func(current, delta Data) Data {
		return DeepMerge(current, Data{key: maps.Clone(delta)})
	}
}
