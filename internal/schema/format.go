package schema

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
)

// MarshalJSON writes the schema using the syntax understood by Parse.
// Shared and recursive nodes are written once, in $defs. The name table is
// written in $names unless it numbers names in the order they are encountered.
func (s *Schema) MarshalJSON() ([]byte, error) {
	f := formatter{
		s:    s,
		defs: make(map[Node]string),
	}
	f.collect(s.root, make(map[Node]struct{}))

	var root bytes.Buffer
	f.write(&root, s.root, false)
	names := s.customNames()
	if len(f.order) == 0 && names == nil {
		return root.Bytes(), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if names != nil {
		buf.WriteString(`"$names": `)
		buf.Write(names)
		buf.WriteString(", ")
	}
	if len(f.order) > 0 {
		buf.WriteString(`"$defs": {`)
		for i, n := range f.order {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(f.defs[n]))
			buf.WriteString(": ")
			f.write(&buf, n, true)
		}
		buf.WriteString("}, ")
	}
	buf.WriteString(`"$root": `)
	buf.Write(root.Bytes())
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type formatter struct {
	s     *Schema
	defs  map[Node]string
	order []Node
}

func (f *formatter) collect(n Node, seen map[Node]struct{}) {
	if !IsComposite(n) {
		return
	}
	if f.s.Revisited(n) {
		if _, ok := f.defs[n]; !ok {
			f.defs[n] = "n" + strconv.Itoa(len(f.order)+1)
			f.order = append(f.order, n)
		}
	}
	if _, ok := seen[n]; ok {
		return
	}
	seen[n] = struct{}{}

	switch x := n.(type) {
	case *Tuple:
		for _, item := range x.Items {
			f.collect(item, seen)
		}
	case *VarArray:
		f.collect(x.Item, seen)
	case *Object:
		for _, fd := range x.Fields {
			f.collect(fd.Node, seen)
		}
	}
}

// write writes n. If def is false and n is declared in $defs, a $ref is written instead.
func (f *formatter) write(buf *bytes.Buffer, n Node, def bool) {
	if name, ok := f.defs[n]; ok && !def {
		buf.WriteString(`{"$ref": `)
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte('}')
		return
	}

	switch x := n.(type) {
	case *Scalar:
		buf.WriteString(strconv.Quote(x.Type.String()))
	case *Enum:
		values, _ := json.Marshal(x.Values)
		buf.WriteString(`{"$enum": `)
		buf.Write(values)
		buf.WriteByte('}')
	case *Tuple:
		buf.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				buf.WriteString(", ")
			}
			f.write(buf, item, false)
		}
		buf.WriteByte(']')
	case *VarArray:
		buf.WriteByte('[')
		f.write(buf, x.Item, false)
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, fd := range x.Fields {
			if i > 0 {
				buf.WriteString(", ")
			}
			name, _ := json.Marshal(fd.Name)
			buf.Write(name)
			buf.WriteString(": ")
			f.write(buf, fd.Node, false)
		}
		buf.WriteByte('}')
	}
}

// customNames returns the names of the table in JSON, or nil if the table
// is the one New would build without WithNames.
func (s *Schema) customNames() []byte {
	names := s.names.Names()
	auto, err := New(s.root)
	if err == nil && slices.Equal(names, auto.names.Names()) {
		return nil
	}

	data, _ := json.Marshal(names)
	return data
}
