package codec

import (
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

// A Leaf is a scalar or enum value on its way to or from the wire.
type Leaf struct {
	// Node describing the value, either a *schema.Scalar or a *schema.Enum.
	Node schema.Node
	// Type of the value. Zero for enums.
	Type schema.PrimitiveType
	// Path of the value, relative to the reference containing it.
	Path types.Path
	// RefID is the id of the reference containing the value.
	RefID int
	// Value, as found in the input when encoding, or as read when decoding.
	Value any
}

// IsEnum reports whether the leaf is an enum value.
func (l *Leaf) IsEnum() bool {
	_, ok := l.Node.(*schema.Enum)
	return ok
}

// A Transform returns the value to use in place of l.Value.
// Returning l.Value unchanged is valid.
type Transform func(l *Leaf) (any, error)

// Chain returns a transform calling each of the given transforms in order,
// each one receiving the value returned by the previous one.
// Nil transforms are skipped.
func Chain(fns ...Transform) Transform {
	return func(l *Leaf) (any, error) {
		cur := *l
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			v, err := fn(&cur)
			if err != nil {
				return nil, err
			}
			cur.Value = v
		}
		return cur.Value, nil
	}
}

func apply(fn Transform, node schema.Node, path types.Path, refID int, v any) (any, error) {
	if fn == nil {
		return v, nil
	}

	l := Leaf{
		Node:  node,
		Path:  path,
		RefID: refID,
		Value: v,
	}
	if sc, ok := node.(*schema.Scalar); ok {
		l.Type = sc.Type
	}

	return fn(&l)
}
