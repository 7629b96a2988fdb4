package codec

import (
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

type stepKind uint8

const (
	scalarStep stepKind = iota + 1
	enumStep
	// creates an inline object or tuple.
	containerStep
	// reads a length, then as many items.
	arrayStep
	// reads a reference id.
	refStep
)

// A step reads one value of a reference. Its path is relative to the reference.
type step struct {
	kind stepKind
	path types.Path
	node schema.Node
	// item is the step repeated for each element of an array.
	item *step
}

// plans are read plans, built once per node and reused for every reference
// described by that node.
type plans struct {
	s     *schema.Schema
	cache map[schema.Node][]step
}

func newPlans(s *schema.Schema) *plans {
	return &plans{
		s:     s,
		cache: make(map[schema.Node][]step),
	}
}

// get returns the steps required to read a reference described by n,
// in the order the encoder writes them.
func (p *plans) get(n schema.Node) []step {
	if steps, ok := p.cache[n]; ok {
		return steps
	}

	var steps []step
	p.build(n, nil, true, &steps)
	p.cache[n] = steps
	return steps
}

func (p *plans) build(n schema.Node, path types.Path, top bool, steps *[]step) {
	switch n.(type) {
	case *schema.Scalar:
		*steps = append(*steps, step{kind: scalarStep, path: path, node: n})
		return
	case *schema.Enum:
		*steps = append(*steps, step{kind: enumStep, path: path, node: n})
		return
	}

	if !top && p.s.IsRefSlot(n) {
		*steps = append(*steps, step{kind: refStep, path: path, node: n})
		return
	}

	switch x := n.(type) {
	case *schema.Object:
		if !top {
			*steps = append(*steps, step{kind: containerStep, path: path, node: n})
		}
		for _, f := range p.s.Fields(x) {
			p.build(f.Node, path.ExtendField(f.Name), false, steps)
		}
	case *schema.Tuple:
		if !top {
			*steps = append(*steps, step{kind: containerStep, path: path, node: n})
		}
		for i, item := range x.Items {
			p.build(item, path.ExtendTuple(i), false, steps)
		}
	case *schema.VarArray:
		// composite items are always references, others are scalars or enums.
		item := step{node: x.Item}
		switch {
		case p.s.IsRefItem(x):
			item.kind = refStep
		case x.Item.Kind() == schema.KindEnum:
			item.kind = enumStep
		default:
			item.kind = scalarStep
		}
		*steps = append(*steps, step{kind: arrayStep, path: path, node: n, item: &item})
	}
}
