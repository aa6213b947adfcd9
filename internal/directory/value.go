package directory

import (
	"sort"
	"strings"
)

// Value is an attribute value read from the directory: either a single
// string or an ordered multi-value.
type Value interface {
	isValue()
}

// Scalar is a single-string attribute value
type Scalar string

func (Scalar) isValue() {}

// MultiValue is an ordered key/value attribute, iterated in sorted key
// order. Group memberships use it with the member DN as key and the
// resolved group name as value.
type MultiValue map[string]string

func (MultiValue) isValue() {}

// Keys returns the keys in sorted order
func (m MultiValue) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the values in sorted key order
func (m MultiValue) Values() []string {
	keys := m.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return values
}

// Render flattens a value to a string for substitution and logging.
// Multi-values join their entries with commas.
func Render(v Value) string {
	switch val := v.(type) {
	case Scalar:
		return string(val)
	case MultiValue:
		return strings.Join(val.Values(), ",")
	default:
		return ""
	}
}
