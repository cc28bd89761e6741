package value

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// FromAny converts the output of encoding/json or yaml.v3 decoding into a
// Value. Integer and float types become Number; map keys must be strings
// (yaml.v3 map[string]any) or stringable scalars (map[any]any).
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return Number(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", x.String(), err)
		}
		return Number(f), nil
	case time.Time:
		// yaml.v3 decodes unquoted timestamps into time.Time.
		return String(x.UTC().Format(time.RFC3339)), nil
	case []any:
		arr := make(Array, len(x))
		for i, elem := range x {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(x))
		for k, elem := range x {
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	case map[any]any:
		obj := make(Object, len(x))
		for k, elem := range x {
			key := fmt.Sprint(k)
			ev, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			obj[key] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// ToAny converts a Value back into plain Go values suitable for
// encoding/json and yaml.v3.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case String:
		return string(x)
	case Array:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// Decode parses JSON or YAML bytes into a Value. JSON is a subset of YAML so
// a single yaml.v3 pass handles both.
func Decode(data []byte) (Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return FromAny(raw)
}

// MarshalJSON encodes any Value as JSON.
func MarshalJSON(v Value) ([]byte, error) {
	return json.Marshal(ToAny(v))
}
