package recipe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/louisbranch/tally.space/internal/engine"
)

// Interpolate substitutes every {key} placeholder in template with the
// string form of the matching input or stored value. Stored values
// overwrite inputs sharing a key.
func Interpolate(template string, inputs, stored map[string]any) string {
	result := template
	for key, value := range merged(inputs, stored) {
		result = strings.ReplaceAll(result, "{"+key+"}", formatValue(value))
	}
	return result
}

// interpolateValue resolves a template to a value. A template that is
// exactly one placeholder yields the underlying value with its type
// intact, so numbers survive a metadata round trip as numbers. Any
// other template yields an interpolated string.
func interpolateValue(template string, inputs, stored map[string]any) any {
	if key, ok := exactKey(template); ok {
		if value, ok := lookup(key, inputs, stored); ok {
			return value
		}
	}
	return Interpolate(template, inputs, stored)
}

// EvaluateAmount resolves an amount expression to an integer. Numeric
// literals pass through; strings are interpolated and then matched
// against hash(<value>) and timestamp() before falling back to integer
// parsing.
func EvaluateAmount(expr any, inputs, stored map[string]any) (int64, error) {
	switch v := expr.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrUnparseableAmount, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrUnparseableAmount, v)
		}
		return n, nil
	case string:
		resolved := Interpolate(v, inputs, stored)
		if inner, ok := strings.CutPrefix(resolved, "hash("); ok && strings.HasSuffix(inner, ")") {
			return engine.HashText(strings.TrimSuffix(inner, ")")), nil
		}
		if resolved == "timestamp()" {
			return engine.NowMillis(), nil
		}
		n, err := strconv.ParseInt(resolved, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableAmount, resolved)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unsupported expression type %T", ErrUnparseableAmount, expr)
	}
}

func merged(inputs, stored map[string]any) map[string]any {
	out := make(map[string]any, len(inputs)+len(stored))
	for key, value := range inputs {
		out[key] = value
	}
	for key, value := range stored {
		out[key] = value
	}
	return out
}

func lookup(key string, inputs, stored map[string]any) (any, bool) {
	if value, ok := stored[key]; ok {
		return value, true
	}
	value, ok := inputs[key]
	return value, ok
}

// exactKey reports whether template is a single bare placeholder and
// returns its key.
func exactKey(template string) (string, bool) {
	if len(template) < 3 || template[0] != '{' || template[len(template)-1] != '}' {
		return "", false
	}
	key := template[1 : len(template)-1]
	if strings.ContainsAny(key, "{}") {
		return "", false
	}
	return key, true
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
