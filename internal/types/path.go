package types

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrPathNotFound is returned when a path doesn't lead to a value.
var ErrPathNotFound = errors.New("path not found")

// FragmentKind describes how a path fragment indexes its container.
type FragmentKind uint8

const (
	// FieldFragment selects a field of an object.
	FieldFragment FragmentKind = iota + 1
	// TupleFragment selects a position in a fixed-size array.
	TupleFragment
	// IndexFragment selects an element of a variable-length array.
	IndexFragment
)

func (k FragmentKind) String() string {
	switch k {
	case FieldFragment:
		return "field"
	case TupleFragment:
		return "tuple"
	case IndexFragment:
		return "index"
	}
	return "invalid"
}

// A PathFragment is a fragment of a path representing either a field name or
// a position in an array.
type PathFragment struct {
	Kind      FragmentKind
	FieldName string
	Index     int
}

// A Path represents the location of a value relative to an object or an array.
type Path []PathFragment

// String representation of all the fragments of the path.
func (p Path) String() string {
	var b strings.Builder

	for i := range p {
		switch p[i].Kind {
		case FieldFragment:
			if i != 0 {
				b.WriteRune('.')
			}
			b.WriteString(p[i].FieldName)
		default:
			b.WriteString("[" + strconv.Itoa(p[i].Index) + "]")
		}
	}
	return b.String()
}

// IsEqual returns whether other is equal to p.
func (p Path) IsEqual(other Path) bool {
	if len(other) != len(p) {
		return false
	}

	for i := range p {
		if other[i] != p[i] {
			return false
		}
	}

	return true
}

func (p Path) Clone() Path {
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// Extend clones the path and appends the fragments to it.
func (p Path) Extend(f ...PathFragment) Path {
	c := make(Path, len(p)+len(f))
	copy(c, p)
	copy(c[len(p):], f)
	return c
}

// ExtendField clones the path and appends the field to it.
func (p Path) ExtendField(field string) Path {
	return p.Extend(PathFragment{Kind: FieldFragment, FieldName: field})
}

// ExtendTuple clones the path and appends the tuple position to it.
func (p Path) ExtendTuple(index int) Path {
	return p.Extend(PathFragment{Kind: TupleFragment, Index: index})
}

// ExtendIndex clones the path and appends the array index to it.
func (p Path) ExtendIndex(index int) Path {
	return p.Extend(PathFragment{Kind: IndexFragment, Index: index})
}

// Get returns the value found at path p starting from root.
func (p Path) Get(root any) (any, error) {
	cur := root
	for i, f := range p {
		var ok bool
		switch c := cur.(type) {
		case *Object:
			if f.Kind != FieldFragment {
				return nil, errors.Wrapf(ErrPathNotFound, "%s: expected a field", p[:i+1])
			}
			cur, ok = c.Get(f.FieldName)
		case *Array:
			if f.Kind == FieldFragment {
				return nil, errors.Wrapf(ErrPathNotFound, "%s: expected an index", p[:i+1])
			}
			cur, ok = c.Get(f.Index)
		}
		if !ok {
			return nil, errors.Wrapf(ErrPathNotFound, "%s", p[:i+1])
		}
	}

	return cur, nil
}

// Set places v at path p inside root, creating the missing intermediate objects
// and arrays. Root must be an *Object or an *Array compatible with the first fragment.
func (p Path) Set(root any, v any) error {
	if len(p) == 0 {
		return errors.New("cannot set a value at an empty path")
	}

	cur := root
	for i, f := range p {
		last := i == len(p)-1

		var next any
		switch c := cur.(type) {
		case *Object:
			if f.Kind != FieldFragment {
				return errors.Wrapf(ErrPathNotFound, "%s: expected a field", p[:i+1])
			}
			if last {
				c.Set(f.FieldName, v)
				return nil
			}
			next, _ = c.Get(f.FieldName)
			if next == nil {
				next = newContainer(p[i+1])
				c.Set(f.FieldName, next)
			}
		case *Array:
			if f.Kind == FieldFragment {
				return errors.Wrapf(ErrPathNotFound, "%s: expected an index", p[:i+1])
			}
			if last {
				c.Set(f.Index, v)
				return nil
			}
			next, _ = c.Get(f.Index)
			if next == nil {
				next = newContainer(p[i+1])
				c.Set(f.Index, next)
			}
		default:
			return errors.Wrapf(ErrPathNotFound, "%s: cannot descend into %T", p[:i], cur)
		}
		cur = next
	}

	return nil
}

// NewContainer returns an empty container able to hold the value designated by f.
func NewContainer(f PathFragment) any {
	return newContainer(f)
}

func newContainer(f PathFragment) any {
	if f.Kind == FieldFragment {
		return NewObject()
	}

	return NewArray()
}
