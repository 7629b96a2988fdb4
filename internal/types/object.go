// Package types defines the in-memory values handled by the codec.
//
// Objects and arrays are always manipulated through pointers: two fields
// holding the same *Object share it, which is what allows graphs with shared
// nodes and cycles to be described. Scalars are plain Go values (integers,
// floats, bool, string, []byte).
package types

import (
	"sort"
)

// An Object is an ordered list of fields.
type Object struct {
	fields []field
	index  map[string]int
}

type field struct {
	name  string
	value any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{}
}

// NewObjectFromMap creates an object from a map.
// Fields are sorted by name since maps are not ordered.
func NewObjectFromMap(m map[string]any) *Object {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	o := NewObject()
	for _, n := range names {
		o.Set(n, m[n])
	}

	return o
}

// Set replaces the value of the given field, or appends it if it doesn't exist.
func (o *Object) Set(name string, v any) *Object {
	if i, ok := o.index[name]; ok {
		o.fields[i].value = v
		return o
	}

	if o.index == nil {
		o.index = make(map[string]int)
	}
	o.index[name] = len(o.fields)
	o.fields = append(o.fields, field{name: name, value: v})
	return o
}

// Get returns the value of the given field.
func (o *Object) Get(name string) (any, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}

	return o.fields[i].value, true
}

// Has reports whether the field exists.
func (o *Object) Has(name string) bool {
	_, ok := o.index[name]
	return ok
}

// Delete removes a field. It returns false if the field doesn't exist.
func (o *Object) Delete(name string) bool {
	i, ok := o.index[name]
	if !ok {
		return false
	}

	o.fields = append(o.fields[:i], o.fields[i+1:]...)
	delete(o.index, name)
	for j := i; j < len(o.fields); j++ {
		o.index[o.fields[j].name] = j
	}
	return true
}

// Fields returns the names of the fields, in order.
func (o *Object) Fields() []string {
	names := make([]string, len(o.fields))
	for i := range o.fields {
		names[i] = o.fields[i].name
	}
	return names
}

// Len returns the number of fields.
func (o *Object) Len() int {
	return len(o.fields)
}

// Iterate calls fn for each field, in order, until fn returns an error.
func (o *Object) Iterate(fn func(name string, v any) error) error {
	for _, f := range o.fields {
		if err := fn(f.name, f.value); err != nil {
			return err
		}
	}

	return nil
}
