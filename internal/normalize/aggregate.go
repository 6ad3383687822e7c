package normalize

import (
	"strconv"
	"strings"
)

// numericKeys are tried in order when a numeric field arrives as a wrapper
// object instead of a bare number. First present key wins.
var numericKeys = [...]string{"count", "avg", "value", "rating"}

// aggregate is the decoded form of a numeric backend field. Decoding to a
// tagged variant before extracting keeps every wire shape an explicit case;
// a new backend encoding becomes a new variant plus a switch arm.
type aggregate interface {
	isAggregate()
}

type (
	// plain is a bare numeric value (number or numeric string).
	plain struct{ v float64 }
	// wrapped is an object keyed by one of numericKeys, e.g. {"count": 12}.
	wrapped struct {
		key   string
		inner aggregate
	}
	// firstOf is an aggregate array; only the first element is meaningful.
	firstOf struct{ inner aggregate }
	// absent is a null, missing, or unrecognizable value.
	absent struct{}
)

func (plain) isAggregate()   {}
func (wrapped) isAggregate() {}
func (firstOf) isAggregate() {}
func (absent) isAggregate()  {}

// parseAggregate decodes an arbitrary backend value into its aggregate form.
func parseAggregate(v any) aggregate {
	switch val := v.(type) {
	case nil:
		return absent{}
	case float64:
		return plain{val}
	case float32:
		return plain{float64(val)}
	case int:
		return plain{float64(val)}
	case int32:
		return plain{float64(val)}
	case int64:
		return plain{float64(val)}
	case uint64:
		return plain{float64(val)}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return absent{}
		}
		return plain{f}
	case map[string]any:
		for _, key := range numericKeys {
			if inner, ok := val[key]; ok {
				parsed := parseAggregate(inner)
				if _, missing := parsed.(absent); !missing {
					return wrapped{key: key, inner: parsed}
				}
			}
		}
		return absent{}
	case []any:
		if len(val) == 0 {
			return absent{}
		}
		return firstOf{inner: parseAggregate(val[0])}
	default:
		return absent{}
	}
}

// extract resolves an aggregate to its numeric value. The switch is
// exhaustive over the variants above; absent resolves to zero.
func extract(a aggregate) float64 {
	switch agg := a.(type) {
	case plain:
		return agg.v
	case wrapped:
		return extract(agg.inner)
	case firstOf:
		return extract(agg.inner)
	case absent:
		return 0
	default:
		return 0
	}
}

// Number coerces any backend numeric shape to a non-negative float.
func Number(v any) float64 {
	n := extract(parseAggregate(v))
	if n < 0 {
		return 0
	}
	return n
}

// Count coerces any backend numeric shape to a non-negative integer count.
func Count(v any) int64 {
	return int64(Number(v))
}
