package types

// An Array is an ordered list of values.
type Array struct {
	values []any
}

// NewArray returns an array holding the given values.
func NewArray(values ...any) *Array {
	return &Array{values: values}
}

// MakeArray returns an array of n nil values.
func MakeArray(n int) *Array {
	return &Array{values: make([]any, n)}
}

// Len returns the number of values.
func (a *Array) Len() int {
	return len(a.values)
}

// Get returns the value at index i, or false if i is out of range.
func (a *Array) Get(i int) (any, bool) {
	if i < 0 || i >= len(a.values) {
		return nil, false
	}

	return a.values[i], true
}

// Set replaces the value at index i, growing the array with nil values if needed.
func (a *Array) Set(i int, v any) {
	if i >= len(a.values) {
		a.values = append(a.values, make([]any, i-len(a.values)+1)...)
	}
	a.values[i] = v
}

// Append adds v at the end of the array.
func (a *Array) Append(v any) *Array {
	a.values = append(a.values, v)
	return a
}

// Values returns the underlying values.
func (a *Array) Values() []any {
	return a.values
}

// Iterate calls fn for each value, in order, until fn returns an error.
func (a *Array) Iterate(fn func(i int, v any) error) error {
	for i, v := range a.values {
		if err := fn(i, v); err != nil {
			return err
		}
	}

	return nil
}
