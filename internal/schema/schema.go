// Package schema describes the shape of the values handled by the codec.
//
// A schema is built once, from a tree (or graph) of nodes, and is then
// shared, read-only, by any number of concurrent encode and decode calls.
package schema

import (
	"sort"

	"github.com/cockroachdb/errors"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/types"
)

// An Option configures how a schema is built.
type Option func(*config)

type config struct {
	names *NameTable
}

// WithNames uses the given name table instead of assigning ids automatically.
// Every field name of the schema must be part of it.
func WithNames(t *NameTable) Option {
	return func(c *config) {
		c.names = t
	}
}

// Schema is a validated root node, along with its name table and the
// result of the analysis of its shape.
type Schema struct {
	root  Node
	names *NameTable

	// number of times each composite node is reached while walking the schema.
	visits map[Node]int
	// composite nodes reached through a cycle.
	recursive map[Node]struct{}
	// fields of each object, ordered as they are laid out on the wire.
	fields map[*Object][]Field
}

// New validates root and builds a schema out of it.
// Field names are assigned ids in the order they are first encountered,
// starting at 1, unless WithNames is used.
func New(root Node, opts ...Option) (*Schema, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := Schema{
		root:      root,
		names:     cfg.names,
		visits:    make(map[Node]int),
		recursive: make(map[Node]struct{}),
		fields:    make(map[*Object][]Field),
	}

	explicitNames := s.names != nil
	if !explicitNames {
		s.names = NewNameTable()
	}

	w := walker{
		s:        &s,
		explicit: explicitNames,
		state:    make(map[Node]uint8),
	}
	if err := w.walk(root, nil); err != nil {
		return nil, err
	}

	for _, o := range w.objects {
		fields := append([]Field(nil), o.Fields...)
		sort.SliceStable(fields, func(i, j int) bool {
			ci, cj := s.sortCode(fields[i].Node), s.sortCode(fields[j].Node)
			if ci != cj {
				return ci < cj
			}
			idi, _ := s.names.ID(fields[i].Name)
			idj, _ := s.names.ID(fields[j].Name)
			return idi < idj
		})
		s.fields[o] = fields
	}

	return &s, nil
}

// MustNew calls New and panics on error.
func MustNew(root Node, opts ...Option) *Schema {
	s, err := New(root, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Root returns the root node.
func (s *Schema) Root() Node {
	return s.root
}

// Names returns the name table.
func (s *Schema) Names() *NameTable {
	return s.names
}

// Fields returns the fields of o in the order they are laid out on the wire:
// sorted by type, then by name id.
func (s *Schema) Fields(o *Object) []Field {
	if f, ok := s.fields[o]; ok {
		return f
	}

	return o.Fields
}

// Revisited reports whether n is reached more than once when walking the schema,
// i.e. if it is shared by several fields or used recursively.
func (s *Schema) Revisited(n Node) bool {
	return s.visits[n] > 1
}

// IsRecursive reports whether n is reachable from itself.
func (s *Schema) IsRecursive(n Node) bool {
	_, ok := s.recursive[n]
	return ok
}

// IsRefSlot reports whether a value described by n, found outside of a variable-length
// array, is stored as a reference. This is the case of recursive objects and arrays,
// which would otherwise have no bounded representation.
func (s *Schema) IsRefSlot(n Node) bool {
	return IsComposite(n) && s.IsRecursive(n)
}

// IsRefItem reports whether the elements of a are stored as references.
// Composite elements of variable-length arrays always are, since the same
// value can legitimately appear several times in the array.
func (s *Schema) IsRefItem(a *VarArray) bool {
	return IsComposite(a.Item)
}

// sortCode orders the fields of an object on the wire.
// Scalars come first, by type, then enums, then nested values, then references.
func (s *Schema) sortCode(n Node) int {
	switch x := n.(type) {
	case *Scalar:
		return int(x.Type)
	case *Enum:
		return 32
	}

	if s.IsRefSlot(n) {
		return 64
	}

	switch n.(type) {
	case *Tuple:
		return 33
	case *VarArray:
		return 34
	}
	return 35
}

const (
	onStack uint8 = iota + 1
	done
)

// walker walks the schema depth-first, validating nodes, collecting names
// and detecting shared and recursive nodes.
type walker struct {
	s        *Schema
	explicit bool
	state    map[Node]uint8
	objects  []*Object
}

func (w *walker) walk(n Node, path types.Path) error {
	if n == nil {
		return invalidf(path, "nil node")
	}

	if IsComposite(n) {
		w.s.visits[n]++
		switch w.state[n] {
		case onStack:
			w.s.recursive[n] = struct{}{}
			return nil
		case done:
			return nil
		}
		w.state[n] = onStack
		defer func() { w.state[n] = done }()
	}

	switch x := n.(type) {
	case *Scalar:
		if !x.Type.IsValid() {
			return invalidf(path, "unknown primitive type %d", x.Type)
		}
	case *Enum:
		if len(x.Values) == 0 {
			return invalidf(path, "enum without values")
		}
		seen := make(map[string]struct{}, len(x.Values))
		for _, v := range x.Values {
			if _, ok := seen[v]; ok {
				return invalidf(path, "duplicate enum value %q", v)
			}
			seen[v] = struct{}{}
		}
	case *Tuple:
		if len(x.Items) < 2 {
			return invalidf(path, "tuple with %d items, use a variable-length array for a single item", len(x.Items))
		}
		for i, item := range x.Items {
			if err := w.walk(item, path.ExtendTuple(i)); err != nil {
				return err
			}
		}
	case *VarArray:
		return w.walk(x.Item, path.ExtendIndex(0))
	case *Object:
		w.objects = append(w.objects, x)
		seen := make(map[string]struct{}, len(x.Fields))
		for _, f := range x.Fields {
			if _, ok := seen[f.Name]; ok {
				return invalidf(path, "duplicate field %q", f.Name)
			}
			seen[f.Name] = struct{}{}

			if w.explicit {
				if _, ok := w.s.names.ID(f.Name); !ok {
					return invalidf(path, "field %q is missing from the name table", f.Name)
				}
			} else {
				w.s.names.Add(f.Name)
			}
		}
		for _, f := range x.Fields {
			if err := w.walk(f.Node, path.ExtendField(f.Name)); err != nil {
				return err
			}
		}
	default:
		return invalidf(path, "unsupported node %T", n)
	}

	return nil
}

func invalidf(path types.Path, format string, args ...any) error {
	err := errors.Wrapf(serrors.ErrInvalidSchema, format, args...)
	if len(path) > 0 {
		err = errors.Wrapf(err, "at %s", path)
	}
	return err
}
