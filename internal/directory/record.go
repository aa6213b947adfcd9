package directory

import (
	"encoding/json"
	"sort"
)

// AttributeDistinguishedName is the attribute every record must carry to
// be addressable across runs.
const AttributeDistinguishedName = "distinguishedName"

// Record is one user read from the directory: the configured attributes
// after filtering, keyed by attribute name (or alias). The processing
// engine treats records as read-only.
type Record struct {
	attrs map[string]Value
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{attrs: make(map[string]Value)}
}

// Set stores an attribute value. A nil value removes the attribute.
func (r *Record) Set(name string, v Value) {
	if v == nil {
		delete(r.attrs, name)
		return
	}
	r.attrs[name] = v
}

// Get returns the named attribute value
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// GetString returns the named attribute rendered as a string, empty when
// absent.
func (r *Record) GetString(name string) string {
	v, ok := r.attrs[name]
	if !ok {
		return ""
	}
	return Render(v)
}

// GetMulti returns the named attribute as a MultiValue, nil when the
// attribute is absent or scalar.
func (r *Record) GetMulti(name string) MultiValue {
	v, ok := r.attrs[name]
	if !ok {
		return nil
	}
	m, _ := v.(MultiValue)
	return m
}

// Names returns the attribute names in sorted order
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.attrs))
	for name := range r.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DN returns the record's distinguished name attribute
func (r *Record) DN() string {
	return r.GetString(AttributeDistinguishedName)
}

// JSON serializes the record for error logs, rendering every value to a
// string.
func (r *Record) JSON() string {
	flat := make(map[string]string, len(r.attrs))
	for name, v := range r.attrs {
		flat[name] = Render(v)
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return "{}"
	}
	return string(data)
}
