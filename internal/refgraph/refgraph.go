// Package refgraph finds which objects and arrays of a value must be stored
// as references, i.e. once, and addressed by id everywhere else.
package refgraph

import (
	"strconv"
	"sync"

	"github.com/op/go-logging"

	"github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

var log = logging.MustGetLogger("refgraph")

// the package is silent unless the program configures a logging backend.
func init() {
	logging.SetLevel(logging.WARNING, "refgraph")
}

// A Ref is a value stored once and addressed by its id.
type Ref struct {
	ID    int
	Value any
	Node  schema.Node
}

type refKey struct {
	value any
	node  schema.Node
}

// Graph is the result of the analysis of a value.
type Graph struct {
	refs []Ref
	ids  map[refKey]int

	root   any
	s      *schema.Schema
	once   sync.Once
	occurs map[any]int
}

// Analyze walks v following s and returns its references.
//
// The root is always the reference 0. Every other object or array found in a
// reference slot of the schema (see schema.IsRefSlot and schema.IsRefItem) is
// promoted too, once per identity, in discovery order.
// Objects and arrays found more than once outside of reference slots are
// reported by Reoccurring but are not promoted: the decoder can only follow
// references where the schema declares them, so these are written as copies.
func Analyze(v any, s *schema.Schema) (*Graph, error) {
	g := Graph{
		ids:  make(map[refKey]int),
		root: v,
		s:    s,
	}

	if err := g.promote(v, s); err != nil {
		return nil, err
	}

	if log.IsEnabledFor(logging.DEBUG) {
		var reoccurring int
		for _, n := range g.occurrences() {
			if n > 1 {
				reoccurring++
			}
		}
		log.Debugf("found %d references and %d reoccurring values", len(g.refs), reoccurring)
	}

	return &g, nil
}

// Len returns the number of references, root included.
func (g *Graph) Len() int {
	return len(g.refs)
}

// Refs returns the references, ordered by id.
func (g *Graph) Refs() []Ref {
	return g.refs
}

// ID returns the id of v, when found in a slot described by n.
func (g *Graph) ID(v any, n schema.Node) (int, bool) {
	id, ok := g.ids[refKey{v, n}]
	return id, ok
}

// Reoccurring reports whether v is reachable more than once from the root.
// It is a diagnostic: the encoder doesn't use it. The value is walked
// on the first call only.
func (g *Graph) Reoccurring(v any) bool {
	return g.occurrences()[v] > 1
}

func (g *Graph) occurrences() map[any]int {
	g.once.Do(func() {
		g.occurs = countOccurrences(g.root, g.s)
	})
	return g.occurs
}

// countOccurrences walks the value breadth-first, through the fields covered by the schema,
// and counts how many times each object and array is reached.
// Analyze has already validated the value against the schema.
func countOccurrences(v any, s *schema.Schema) map[any]int {
	occurs := make(map[any]int)
	queue := []Child{{Value: v, Node: s.Root()}}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		if isContainer(it.Value) {
			occurs[it.Value]++
			if occurs[it.Value] > 1 {
				continue
			}
		}

		children, err := Children(it.Value, it.Node, it.Path, s)
		if err != nil {
			break
		}
		queue = append(queue, children...)
	}

	return occurs
}

// promote computes the closure of the references reachable from the root.
// The content of each reference is walked, in the order it is written, until
// other reference slots are found, which are promoted in turn. Ids are thus
// assigned in the order the decoder discovers them.
func (g *Graph) promote(v any, s *schema.Schema) error {
	g.add(v, s.Root())

	for i := 0; i < len(g.refs); i++ {
		r := g.refs[i]
		if err := g.visit(Child{Value: r.Value, Node: r.Node}, s); err != nil {
			return err
		}
	}

	return nil
}

// visit walks the inline content of c. The depth is bounded by the schema
// since recursive nodes are always reference slots.
func (g *Graph) visit(c Child, s *schema.Schema) error {
	children, err := Children(c.Value, c.Node, c.Path, s)
	if err != nil {
		return err
	}

	for _, child := range children {
		if !child.Ref {
			if err := g.visit(child, s); err != nil {
				return err
			}
			continue
		}
		if IsNil(child.Value) {
			continue
		}
		if _, ok := g.ids[refKey{child.Value, child.Node}]; !ok {
			g.add(child.Value, child.Node)
		}
	}

	return nil
}

func (g *Graph) add(v any, n schema.Node) {
	id := len(g.refs)
	g.refs = append(g.refs, Ref{ID: id, Value: v, Node: n})
	g.ids[refKey{v, n}] = id
}

// IsNil reports whether v is nil or a nil object or array.
func IsNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *types.Object:
		return x == nil
	case *types.Array:
		return x == nil
	}
	return false
}

func isContainer(v any) bool {
	switch x := v.(type) {
	case *types.Object:
		return x != nil
	case *types.Array:
		return x != nil
	}
	return false
}

// A Child is a value contained in an object or an array, along with the node describing it.
type Child struct {
	Value any
	Node  schema.Node
	Path  types.Path
	// Ref is true if the child is in a reference slot.
	Ref bool
}

// Children returns the values directly contained in v, as described by n.
// Scalars and nil values have no children. Missing fields are returned as nil values.
func Children(v any, n schema.Node, path types.Path, s *schema.Schema) ([]Child, error) {
	if v == nil {
		return nil, nil
	}

	switch x := n.(type) {
	case *schema.Object:
		o, ok := v.(*types.Object)
		if !ok {
			return nil, errors.NewSchemaMismatch(path.String(), "object", v)
		}
		if o == nil {
			return nil, nil
		}
		children := make([]Child, 0, len(x.Fields))
		for _, f := range s.Fields(x) {
			fv, _ := o.Get(f.Name)
			children = append(children, Child{
				Value: fv,
				Node:  f.Node,
				Path:  path.ExtendField(f.Name),
				Ref:   s.IsRefSlot(f.Node),
			})
		}
		return children, nil
	case *schema.Tuple:
		a, ok := v.(*types.Array)
		if !ok {
			return nil, errors.NewSchemaMismatch(path.String(), "tuple", v)
		}
		if a == nil {
			return nil, nil
		}
		if a.Len() > len(x.Items) {
			return nil, errors.NewSchemaMismatch(path.String(), "tuple of at most "+strconv.Itoa(len(x.Items))+" values", v)
		}
		children := make([]Child, 0, len(x.Items))
		for i, itemNode := range x.Items {
			iv, _ := a.Get(i)
			children = append(children, Child{
				Value: iv,
				Node:  itemNode,
				Path:  path.ExtendTuple(i),
				Ref:   s.IsRefSlot(itemNode),
			})
		}
		return children, nil
	case *schema.VarArray:
		a, ok := v.(*types.Array)
		if !ok {
			return nil, errors.NewSchemaMismatch(path.String(), "array", v)
		}
		if a == nil {
			return nil, nil
		}
		ref := s.IsRefItem(x)
		children := make([]Child, 0, a.Len())
		for i, iv := range a.Values() {
			children = append(children, Child{
				Value: iv,
				Node:  x.Item,
				Path:  path.ExtendIndex(i),
				Ref:   ref,
			})
		}
		return children, nil
	}

	return nil, nil
}
