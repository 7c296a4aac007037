// Package record defines the field-tagged bibliographic record produced by
// interpreters.
package record

import "encoding/json"

// UnknownTag collects lines that could not be attributed to a field.
const UnknownTag = "UNKW"

// Value is a field value: either a single line or a multi-line list.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// Scalar returns a single-line value.
func Scalar(s string) Value {
	return Value{scalar: s}
}

// List returns a multi-line value. The slice is copied.
func List(items ...string) Value {
	return Value{list: append([]string(nil), items...), isList: true}
}

// IsList reports whether the value holds multiple lines.
func (v Value) IsList() bool { return v.isList }

// String returns the scalar value, or the first element of a list.
// Empty lists yield "".
func (v Value) String() string {
	if !v.isList {
		return v.scalar
	}
	if len(v.list) == 0 {
		return ""
	}
	return v.list[0]
}

// Strings returns the value as a list, wrapping a scalar in a single-element
// slice. The returned slice is a copy.
func (v Value) Strings() []string {
	if !v.isList {
		return []string{v.scalar}
	}
	return append([]string(nil), v.list...)
}

// Equal reports whether two values have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.scalar == o.scalar
	}
	if len(v.list) != len(o.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes scalars as strings and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// Record is an ordered mapping from two-character field tags to values.
// Tags keep the position of their first appearance.
type Record struct {
	tags   []string
	fields map[string]Value
}

// New returns an empty record.
func New() *Record {
	return &Record{fields: make(map[string]Value)}
}

// Set assigns a value to tag. Re-assigning an existing tag keeps its position.
func (r *Record) Set(tag string, v Value) {
	if _, ok := r.fields[tag]; !ok {
		r.tags = append(r.tags, tag)
	}
	r.fields[tag] = v
}

// Append adds a line to a list-valued tag, creating the list if the tag is
// absent. It returns false, leaving the record unchanged, when the tag holds a
// scalar.
func (r *Record) Append(tag, line string) bool {
	v, ok := r.fields[tag]
	if !ok {
		r.Set(tag, List(line))
		return true
	}
	if !v.isList {
		return false
	}
	v.list = append(v.list, line)
	r.fields[tag] = v
	return true
}

// Get returns the value stored under tag.
func (r *Record) Get(tag string) (Value, bool) {
	v, ok := r.fields[tag]
	return v, ok
}

// Has reports whether tag is present.
func (r *Record) Has(tag string) bool {
	_, ok := r.fields[tag]
	return ok
}

// Text returns the scalar form of tag, or "" when absent.
func (r *Record) Text(tag string) string {
	return r.fields[tag].String()
}

// Tags returns the field tags in order of first appearance.
func (r *Record) Tags() []string {
	return append([]string(nil), r.tags...)
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.tags) }

// Equal reports whether two records hold the same fields in the same order.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.tags) != len(o.tags) {
		return false
	}
	for i, tag := range r.tags {
		if o.tags[i] != tag {
			return false
		}
		if !r.fields[tag].Equal(o.fields[tag]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, tag := range r.tags {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.fields[tag])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
