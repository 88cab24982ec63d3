package types

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Enforce constrains the values an EntryInfo accepts. Check receives the
// raw value and returns it back, possibly coerced to a canonical form, or
// an error describing why the value is unacceptable.
//
// Enforcement variants are explicit, declaration-time constructs; there is
// no reflection over loaded code. A nil Enforce on an EntryInfo accepts
// any value unchanged.
type Enforce interface {
	Check(key string, value any) (any, error)
}

// checkFn adapts a plain function to the Enforce interface.
type checkFn func(key string, value any) (any, error)

func (f checkFn) Check(key string, value any) (any, error) { return f(key, value) }

// CheckFunc wraps a custom validator. The function must return the value,
// possibly coerced, or an error.
func CheckFunc(fn func(value any) (any, error)) Enforce {
	return checkFn(func(key string, value any) (any, error) {
		v, err := fn(value)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// AsString coerces any value to its string form.
func AsString() Enforce {
	return checkFn(func(key string, value any) (any, error) {
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil
	})
}

// AsInt coerces numeric values and numeric strings to int. Floats are
// truncated toward zero.
func AsInt() Enforce {
	return checkFn(func(key string, value any) (any, error) {
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
			return int(v), nil
		case float32:
			return int(v), nil
		case float64:
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("cannot interpret %q as an integer", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("cannot interpret %T as an integer", value)
		}
	})
}

// AsFloat coerces numeric values and numeric strings to float64.
func AsFloat() Enforce {
	return checkFn(func(key string, value any) (any, error) {
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case uint:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot interpret %q as a number", v)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot interpret %T as a number", value)
		}
	})
}

// Truthy and falsy spellings accepted by AsBool for string input.
var (
	trueStrings  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
	falseStrings = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}
)

// AsBool coerces booleans, the usual true/false string spellings, and
// numeric zero/non-zero values to bool.
func AsBool() Enforce {
	return checkFn(func(key string, value any) (any, error) {
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			if trueStrings[s] {
				return true, nil
			}
			if falseStrings[s] {
				return false, nil
			}
			return nil, fmt.Errorf("%q is not interpretable as a boolean", v)
		case int:
			return v != 0, nil
		case int64:
			return v != 0, nil
		case float64:
			return v != 0, nil
		default:
			return nil, fmt.Errorf("cannot interpret %T as a boolean", value)
		}
	})
}

// AsList coerces slice values to []any.
func AsList() Enforce {
	return checkFn(func(key string, value any) (any, error) {
		if l, ok := value.([]any); ok {
			return l, nil
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("cannot interpret %T as a list", value)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	})
}

// AsMap coerces string-keyed map values to map[string]any.
func AsMap() Enforce {
	return checkFn(func(key string, value any) (any, error) {
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot interpret %T as a mapping", value)
		}
		out := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			out[k.String()] = rv.MapIndex(k).Interface()
		}
		return out, nil
	})
}

// OneOf requires the value to be a member of the given set of allowed
// values. The value is returned unchanged.
func OneOf(choices ...any) Enforce {
	return checkFn(func(key string, value any) (any, error) {
		for _, c := range choices {
			if reflect.DeepEqual(value, c) {
				return value, nil
			}
		}
		return nil, fmt.Errorf("%v was not found in the allowed set %v", value, choices)
	})
}

// Matches requires the stringified value to match the pattern in full.
// The pattern is compiled once at declaration time; an invalid pattern
// panics, which surfaces schema declaration mistakes immediately.
func Matches(pattern string) Enforce {
	re := regexp.MustCompile(`\A(?:` + pattern + `)\z`)
	return checkFn(func(key string, value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprint(value)
		}
		if !re.MatchString(s) {
			return nil, fmt.Errorf("%s=%q did not match the enforced pattern %q", key, s, pattern)
		}
		return value, nil
	})
}

// Identifier is the name-field pattern: a letter or underscore followed
// by letters, digits, or underscores.
const Identifier = `[A-Za-z_][A-Za-z0-9_]*`
