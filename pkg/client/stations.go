package client

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StationIdentifiers turns a decoded station list into option values. Each
// element is stringified the way the page renders it: strings as-is, numbers
// in shortest form, booleans as true/false, and rows (the backend returns
// one-column result tuples) joined with commas. Null or object elements reject
// the whole payload.
func StationIdentifiers(payload any) ([]string, error) {
	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: station list is %T, want array", ErrMalformedResponse, payload)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: station %d is null", ErrMalformedResponse, i)
		}
		s, err := stringify(item, false)
		if err != nil {
			return nil, fmt.Errorf("%w: station %d: %v", ErrMalformedResponse, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringify(value any, nested bool) (string, error) {
	switch v := value.(type) {
	case nil:
		if nested {
			return "", nil
		}
		return "", fmt.Errorf("null value")
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return formatNumber(v), nil
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			s, err := stringify(elem, true)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported %T", value)
	}
}

func formatNumber(v float64) string {
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
