package schema

import "github.com/chaisql/structbin/internal/encoding"

// Kind identifies the variant of a Node.
type Kind uint8

// List of node kinds.
const (
	KindScalar Kind = iota + 1
	KindEnum
	KindTuple
	KindVarArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindTuple:
		return "tuple"
	case KindVarArray:
		return "array"
	case KindObject:
		return "object"
	}

	return "invalid"
}

// A Node describes how a value maps to the wire.
// It is implemented by *Scalar, *Enum, *Tuple, *VarArray and *Object only.
// Nodes are compared by identity: reusing the same node in several places
// of a schema, or inside itself, is how shared and recursive shapes are described.
type Node interface {
	Kind() Kind
	node()
}

// IsComposite reports whether values described by n are objects or arrays.
func IsComposite(n Node) bool {
	switch n.(type) {
	case *Tuple, *VarArray, *Object:
		return true
	}
	return false
}

// Scalar describes a single primitive value.
type Scalar struct {
	Type PrimitiveType
}

// NewScalar returns a scalar node of type t.
func NewScalar(t PrimitiveType) *Scalar {
	return &Scalar{Type: t}
}

func (*Scalar) Kind() Kind { return KindScalar }
func (*Scalar) node()      {}

// Enum describes a string value matched against a list of strings.
// It is written as its 1-based index in the list, 0 meaning the value
// wasn't found.
type Enum struct {
	Values []string
}

// NewEnum returns an enum node.
func NewEnum(values ...string) *Enum {
	return &Enum{Values: values}
}

func (*Enum) Kind() Kind { return KindEnum }
func (*Enum) node()      {}

// Index returns the wire value of v: its 1-based position in the list,
// or 0 if it isn't part of it.
func (e *Enum) Index(v string) uint64 {
	for i, s := range e.Values {
		if s == v {
			return uint64(i + 1)
		}
	}

	return 0
}

// Value returns the string corresponding to a wire value.
func (e *Enum) Value(idx uint64) (string, bool) {
	if idx == 0 || idx > uint64(len(e.Values)) {
		return "", false
	}

	return e.Values[idx-1], true
}

// Width returns the width used to write the enum.
func (e *Enum) Width() encoding.Width {
	return encoding.SelectWidth(uint64(len(e.Values)))
}

// Tuple describes a fixed-size array whose elements each have their own node.
type Tuple struct {
	Items []Node
}

// NewTuple returns a tuple node.
func NewTuple(items ...Node) *Tuple {
	return &Tuple{Items: items}
}

func (*Tuple) Kind() Kind { return KindTuple }
func (*Tuple) node()      {}

// VarArray describes an array of any length whose elements all share the same node.
type VarArray struct {
	Item Node
}

// NewVarArray returns a variable-length array node.
func NewVarArray(item Node) *VarArray {
	return &VarArray{Item: item}
}

func (*VarArray) Kind() Kind { return KindVarArray }
func (*VarArray) node()      {}

// A Field is a named member of an Object node.
type Field struct {
	Name string
	Node Node
}

// F is a shorthand to create a Field.
func F(name string, n Node) Field {
	return Field{Name: name, Node: n}
}

// Object describes an object with a known list of fields.
// Fields of a value that are not listed are ignored.
type Object struct {
	Fields []Field
}

// NewObject returns an object node.
func NewObject(fields ...Field) *Object {
	return &Object{Fields: fields}
}

// Add appends a field. It makes it possible to describe recursive objects:
//
//	node := schema.NewObject(schema.F("name", schema.NewScalar(schema.String)))
//	node.Add("next", node)
func (o *Object) Add(name string, n Node) *Object {
	o.Fields = append(o.Fields, Field{Name: name, Node: n})
	return o
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) node()      {}
