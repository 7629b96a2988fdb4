package schema

import (
	"bytes"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	serrors "github.com/chaisql/structbin/errors"
)

// Parse reads a schema described in JSON:
//
//	"uint8"                  a scalar, see PrimitiveType.String for the list of names
//	{"$enum": ["a", "b"]}    an enum
//	["string"]               a variable-length array
//	["float32", "float32"]   a tuple (two items or more)
//	{"name": "string"}       an object, fields keep their order
//	{"$ref": "node"}         a node declared in $defs
//
// Shared and recursive nodes are declared at the top level, and so is the name
// table when field names are not numbered in the order they are encountered:
//
//	{"$defs": {"node": {"value": "int32", "next": {"$ref": "node"}}}, "$root": {"$ref": "node"}}
//	{"$names": ["next", "value"], "$root": {"value": "int32", "next": "uint8"}}
//
// A name table passed with WithNames takes precedence over $names.
func Parse(data []byte, opts ...Option) (*Schema, error) {
	data = bytes.TrimSpace(data)

	p := parser{
		defs: make(map[string]Node),
	}

	_, _, _, defsErr := jsonparser.Get(data, "$defs")
	_, _, _, namesErr := jsonparser.Get(data, "$names")
	if defsErr != nil && namesErr != nil {
		n, err := p.parseNode(data)
		if err != nil {
			return nil, err
		}
		return New(n, opts...)
	}

	if defs, dt, _, err := jsonparser.Get(data, "$defs"); err == nil {
		if dt != jsonparser.Object {
			return nil, errors.Wrap(serrors.ErrInvalidSchema, "$defs must be an object")
		}
		if err = p.parseDefs(defs); err != nil {
			return nil, err
		}
	}

	if namesErr == nil {
		t, err := parseNames(data)
		if err != nil {
			return nil, err
		}
		opts = append([]Option{WithNames(t)}, opts...)
	}

	r, rdt, _, err := jsonparser.Get(data, "$root")
	if err != nil {
		return nil, errors.Wrap(serrors.ErrInvalidSchema, "$defs and $names require $root")
	}
	n, err := p.parseElement(r, rdt)
	if err != nil {
		return nil, err
	}

	return New(n, opts...)
}

func parseNames(data []byte) (*NameTable, error) {
	var names []string
	var innerErr error
	_, err := jsonparser.ArrayEach(data, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
		if innerErr != nil {
			return
		}
		if dt != jsonparser.String {
			innerErr = errors.Wrap(serrors.ErrInvalidSchema, "$names must be an array of strings")
			return
		}
		var s string
		s, innerErr = jsonparser.ParseString(v)
		names = append(names, s)
	}, "$names")
	if innerErr != nil {
		return nil, innerErr
	}
	if err != nil {
		return nil, errors.Wrap(serrors.ErrInvalidSchema, "$names must be an array of strings")
	}

	return NewNameTable(names...), nil
}

type parser struct {
	defs map[string]Node
}

// parseDefs declares every composite definition first, so that they can refer to
// each other regardless of their order, then fills them. A definition made of a
// single $ref is the node it refers to.
func (p *parser) parseDefs(data []byte) error {
	pending := make(map[string][]byte)
	aliases := make(map[string]string)
	var order []string

	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name := string(key)
		switch dt {
		case jsonparser.String:
			t, ok := ParsePrimitiveType(string(value))
			if !ok {
				return errors.Wrapf(serrors.ErrInvalidSchema, "unknown type %q", value)
			}
			p.defs[name] = NewScalar(t)
			return nil
		case jsonparser.Object:
			if ref, err := jsonparser.GetString(value, "$ref"); err == nil {
				aliases[name] = ref
				return nil
			}
			if _, _, _, err := jsonparser.Get(value, "$enum"); err == nil {
				n, err := p.parseObject(value)
				if err != nil {
					return err
				}
				p.defs[name] = n
				return nil
			}
			p.defs[name] = &Object{}
		case jsonparser.Array:
			var count int
			_, _ = jsonparser.ArrayEach(value, func([]byte, jsonparser.ValueType, int, error) { count++ })
			if count == 1 {
				p.defs[name] = &VarArray{}
			} else {
				p.defs[name] = &Tuple{}
			}
		default:
			return errors.Wrapf(serrors.ErrInvalidSchema, "unexpected %s", dt)
		}
		pending[name] = value
		order = append(order, name)
		return nil
	})
	if err != nil {
		if errors.Is(err, serrors.ErrInvalidSchema) {
			return err
		}
		return errors.Wrap(serrors.ErrInvalidSchema, err.Error())
	}

	for name := range aliases {
		if err := p.resolveAlias(name, aliases, nil); err != nil {
			return errors.Wrapf(err, "in definition %q", name)
		}
	}

	for _, name := range order {
		if err := p.fill(name, pending[name]); err != nil {
			return errors.Wrapf(err, "in definition %q", name)
		}
	}

	return nil
}

// resolveAlias binds name to the node its chain of aliases ends with.
func (p *parser) resolveAlias(name string, aliases map[string]string, chain []string) error {
	if _, ok := p.defs[name]; ok {
		return nil
	}
	for _, c := range chain {
		if c == name {
			return errors.Wrapf(serrors.ErrInvalidSchema, "alias loop %q", append(chain, name))
		}
	}

	target := aliases[name]
	if _, ok := aliases[target]; ok {
		if err := p.resolveAlias(target, aliases, append(chain, name)); err != nil {
			return err
		}
	}
	n, ok := p.defs[target]
	if !ok {
		return errors.Wrapf(serrors.ErrInvalidSchema, "unknown definition %q", target)
	}
	p.defs[name] = n
	return nil
}

func (p *parser) fill(name string, data []byte) error {
	n, err := p.parseNode(data)
	if err != nil {
		return err
	}

	var ok bool
	switch shell := p.defs[name].(type) {
	case *Object:
		var o *Object
		if o, ok = n.(*Object); ok {
			*shell = *o
		}
	case *VarArray:
		var a *VarArray
		if a, ok = n.(*VarArray); ok {
			*shell = *a
		}
	case *Tuple:
		var t *Tuple
		if t, ok = n.(*Tuple); ok {
			*shell = *t
		}
	}
	if !ok {
		return errors.Wrapf(serrors.ErrInvalidSchema, "definition cannot be an alias of another one")
	}

	return nil
}

func (p *parser) parseNode(data []byte) (Node, error) {
	value, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(serrors.ErrInvalidSchema, err.Error())
	}

	switch dt {
	case jsonparser.String:
		t, ok := ParsePrimitiveType(string(value))
		if !ok {
			return nil, errors.Wrapf(serrors.ErrInvalidSchema, "unknown type %q", value)
		}
		return NewScalar(t), nil
	case jsonparser.Array:
		var items []Node
		var innerErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			if innerErr != nil {
				return
			}
			var n Node
			n, innerErr = p.parseElement(v, dt)
			items = append(items, n)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if err != nil {
			return nil, errors.Wrap(serrors.ErrInvalidSchema, err.Error())
		}
		switch len(items) {
		case 0:
			return nil, errors.Wrap(serrors.ErrInvalidSchema, "empty array")
		case 1:
			return NewVarArray(items[0]), nil
		}
		return NewTuple(items...), nil
	case jsonparser.Object:
		return p.parseObject(value)
	}

	return nil, errors.Wrapf(serrors.ErrInvalidSchema, "unexpected %s", dt)
}

// parseElement parses an array element or an object field. jsonparser strips
// the quotes of strings, which are handled here.
func (p *parser) parseElement(v []byte, dt jsonparser.ValueType) (Node, error) {
	if dt != jsonparser.String {
		return p.parseNode(v)
	}

	t, ok := ParsePrimitiveType(string(v))
	if !ok {
		return nil, errors.Wrapf(serrors.ErrInvalidSchema, "unknown type %q", v)
	}
	return NewScalar(t), nil
}

func (p *parser) parseObject(data []byte) (Node, error) {
	if ref, err := jsonparser.GetString(data, "$ref"); err == nil {
		n, ok := p.defs[ref]
		if !ok {
			return nil, errors.Wrapf(serrors.ErrInvalidSchema, "unknown definition %q", ref)
		}
		return n, nil
	}

	if enum, dt, _, err := jsonparser.Get(data, "$enum"); err == nil {
		if dt != jsonparser.Array {
			return nil, errors.Wrap(serrors.ErrInvalidSchema, "$enum must be an array of strings")
		}
		var values []string
		var innerErr error
		_, err := jsonparser.ArrayEach(enum, func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			if innerErr != nil {
				return
			}
			if dt != jsonparser.String {
				innerErr = errors.Wrap(serrors.ErrInvalidSchema, "$enum must be an array of strings")
				return
			}
			var s string
			s, innerErr = jsonparser.ParseString(v)
			values = append(values, s)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if err != nil {
			return nil, errors.Wrap(serrors.ErrInvalidSchema, err.Error())
		}
		return NewEnum(values...), nil
	}

	o := NewObject()
	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}

		n, err := p.parseElement(value, dt)
		if err != nil {
			return errors.Wrapf(err, "field %q", name)
		}

		o.Add(name, n)
		return nil
	})
	if err != nil {
		if errors.Is(err, serrors.ErrInvalidSchema) {
			return nil, err
		}
		return nil, errors.Wrap(serrors.ErrInvalidSchema, err.Error())
	}

	return o, nil
}
