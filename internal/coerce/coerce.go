// Package coerce normalizes dynamic values to declared parameter kinds.
// Evaluator engines and callers feed values of varying numeric widths
// (int64 from expression VMs, json.Number from decoded payloads); coercion
// settles them into the canonical Go representation for each kind tag.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// To converts value into the representation declared by tag. Union tags
// ("int|string") try each alternative in order. Unknown tags pass the
// value through untouched: declared-type enforcement beyond defaults and
// required-ness is out of contract.
func To(value any, tag string) (any, error) {
	if value == nil {
		return nil, nil
	}

	parts := strings.Split(tag, "|")
	var firstErr error
	for _, part := range parts {
		out, err := toSingle(value, strings.TrimSpace(part))
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil && len(parts) > 1 {
		return nil, fmt.Errorf("coerce: value %v fits no alternative of %q", value, tag)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return value, nil
}

func toSingle(value any, tag string) (any, error) {
	switch tag {
	case "int":
		return toInt(value)
	case "float":
		return toFloat(value)
	case "string":
		return toString(value)
	case "bool":
		return toBool(value)
	case "nested":
		return toNested(value)
	default:
		return value, nil
	}
}

func toInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("coerce: %d overflows int", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("coerce: %v is not a whole number", v)
		}
		return int(v), nil
	case float32:
		return toInt(float64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		return nil, fmt.Errorf("coerce: %q is not an int", v.String())
	default:
		return nil, fmt.Errorf("coerce: cannot make int from %T", value)
	}
}

func toFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("coerce: %q is not a float", v.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("coerce: cannot make float from %T", value)
	}
}

func toString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, fmt.Errorf("coerce: cannot make string from %T", value)
	}
}

func toBool(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("coerce: cannot make bool from %T", value)
}

func toNested(value any) (any, error) {
	if v, ok := value.(map[string]any); ok {
		return v, nil
	}
	return nil, fmt.Errorf("coerce: cannot make nested map from %T", value)
}
