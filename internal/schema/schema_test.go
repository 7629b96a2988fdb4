package schema_test

import (
	"testing"

	"github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	vec3 := schema.NewTuple(schema.NewScalar(schema.Float32), schema.NewScalar(schema.Float32), schema.NewScalar(schema.Float32))
	root := schema.NewObject(
		schema.F("name", schema.NewScalar(schema.String)),
		schema.F("position", vec3),
		schema.F("scale", vec3),
		schema.F("tags", schema.NewVarArray(schema.NewScalar(schema.String))),
		schema.F("kind", schema.NewEnum("mesh", "light")),
		schema.F("flags", schema.NewScalar(schema.Uint8)),
	)

	s, err := schema.New(root)
	require.NoError(t, err)

	require.Equal(t, []string{"name", "position", "scale", "tags", "kind", "flags"}, s.Names().Names())
	id, ok := s.Names().ID("tags")
	require.True(t, ok)
	require.EqualValues(t, 4, id)
	name, ok := s.Names().Name(2)
	require.True(t, ok)
	require.Equal(t, "position", name)

	// shared, but not recursive
	require.True(t, s.Revisited(vec3))
	require.False(t, s.IsRecursive(vec3))
	require.False(t, s.IsRefSlot(vec3))

	var order []string
	for _, f := range s.Fields(root) {
		order = append(order, f.Name)
	}
	// scalars by type, then enums, tuples, arrays
	require.Equal(t, []string{"flags", "name", "kind", "position", "scale", "tags"}, order)
}

func TestNewRecursive(t *testing.T) {
	node := schema.NewObject(schema.F("value", schema.NewScalar(schema.Int32)))
	node.Add("next", node)
	root := schema.NewObject(schema.F("head", node))

	s, err := schema.New(root)
	require.NoError(t, err)
	require.True(t, s.IsRecursive(node))
	require.True(t, s.IsRefSlot(node))
	require.False(t, s.IsRecursive(root))
	require.False(t, s.IsRefSlot(root))
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		root schema.Node
	}{
		{"nil", nil},
		{"nil field", schema.NewObject(schema.F("a", nil))},
		{"single item tuple", schema.NewTuple(schema.NewScalar(schema.Int8))},
		{"empty enum", schema.NewEnum()},
		{"duplicate enum value", schema.NewEnum("a", "a")},
		{"duplicate field", schema.NewObject(schema.F("a", schema.NewScalar(schema.Bool)), schema.F("a", schema.NewScalar(schema.Bool)))},
		{"unknown type", schema.NewScalar(schema.PrimitiveType(200))},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := schema.New(test.root)
			require.ErrorIs(t, err, errors.ErrInvalidSchema)
		})
	}
}

func TestWithNames(t *testing.T) {
	root := schema.NewObject(
		schema.F("name", schema.NewScalar(schema.String)),
		schema.F("tags", schema.NewVarArray(schema.NewScalar(schema.String))),
	)

	s, err := schema.New(root, schema.WithNames(schema.NewNameTable("tags", "name")))
	require.NoError(t, err)
	id, _ := s.Names().ID("tags")
	require.EqualValues(t, 1, id)

	_, err = schema.New(root, schema.WithNames(schema.NewNameTable("name")))
	require.ErrorIs(t, err, errors.ErrInvalidSchema)
}

func TestEnum(t *testing.T) {
	e := schema.NewEnum("a", "b", "c")
	require.EqualValues(t, 2, e.Index("b"))
	require.EqualValues(t, 0, e.Index("z"))
	v, ok := e.Value(3)
	require.True(t, ok)
	require.Equal(t, "c", v)
	_, ok = e.Value(0)
	require.False(t, ok)
	require.Equal(t, encoding.Width8, e.Width())
}

func TestParse(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		s, err := schema.Parse([]byte(`{"name": "string", "tags": ["string"], "pos": ["float32", "float32"], "kind": {"$enum": ["a", "b"]}, "child": {"id": "uuid"}}`))
		require.NoError(t, err)

		root := s.Root().(*schema.Object)
		require.Len(t, root.Fields, 5)
		require.Equal(t, schema.KindScalar, root.Fields[0].Node.Kind())
		require.Equal(t, schema.KindVarArray, root.Fields[1].Node.Kind())
		require.Equal(t, schema.KindTuple, root.Fields[2].Node.Kind())
		require.Equal(t, []string{"a", "b"}, root.Fields[3].Node.(*schema.Enum).Values)
		require.Equal(t, schema.KindObject, root.Fields[4].Node.Kind())

		data, err := s.MarshalJSON()
		require.NoError(t, err)
		require.JSONEq(t, `{"name": "string", "tags": ["string"], "pos": ["float32", "float32"], "kind": {"$enum": ["a", "b"]}, "child": {"id": "uuid"}}`, string(data))
	})

	t.Run("scalar root", func(t *testing.T) {
		s, err := schema.Parse([]byte(`"asset_uuid"`))
		require.NoError(t, err)
		require.Equal(t, schema.AssetUUID, s.Root().(*schema.Scalar).Type)
	})

	t.Run("recursive", func(t *testing.T) {
		src := `{"$defs": {"node": {"value": "int32", "next": {"$ref": "node"}, "children": [{"$ref": "node"}]}}, "$root": {"$ref": "node"}}`
		s, err := schema.Parse([]byte(src))
		require.NoError(t, err)

		root := s.Root().(*schema.Object)
		require.True(t, s.IsRecursive(root))
		require.Same(t, root, root.Fields[1].Node)
		require.Same(t, root, root.Fields[2].Node.(*schema.VarArray).Item)

		data, err := s.MarshalJSON()
		require.NoError(t, err)

		s2, err := schema.Parse(data)
		require.NoError(t, err)
		data2, err := s2.MarshalJSON()
		require.NoError(t, err)
		require.JSONEq(t, string(data), string(data2))
	})

	t.Run("alias definitions", func(t *testing.T) {
		s, err := schema.Parse([]byte(`{"$defs": {"a": {"$ref": "b"}, "b": {"x": "int8"}, "c": {"$ref": "a"}}, "$root": {"p": {"$ref": "a"}, "q": {"$ref": "c"}, "r": {"$ref": "b"}}}`))
		require.NoError(t, err)

		root := s.Root().(*schema.Object)
		p := root.Fields[0].Node.(*schema.Object)
		require.Len(t, p.Fields, 1)
		require.Equal(t, "x", p.Fields[0].Name)
		require.Same(t, p, root.Fields[1].Node)
		require.Same(t, p, root.Fields[2].Node)
		require.True(t, s.Revisited(p))

		s, err = schema.Parse([]byte(`{"$defs": {"a": {"$ref": "b"}, "b": "uint16"}, "$root": [{"$ref": "a"}]}`))
		require.NoError(t, err)
		require.Equal(t, schema.Uint16, s.Root().(*schema.VarArray).Item.(*schema.Scalar).Type)
	})

	t.Run("names", func(t *testing.T) {
		root := schema.NewObject(
			schema.F("a", schema.NewScalar(schema.String)),
			schema.F("b", schema.NewScalar(schema.String)),
		)
		s, err := schema.New(root, schema.WithNames(schema.NewNameTable("b", "a")))
		require.NoError(t, err)

		data, err := s.MarshalJSON()
		require.NoError(t, err)
		require.JSONEq(t, `{"$names": ["b", "a"], "$root": {"a": "string", "b": "string"}}`, string(data))

		s2, err := schema.Parse(data)
		require.NoError(t, err)
		require.Equal(t, []string{"b", "a"}, s2.Names().Names())
		require.Equal(t, "b", s2.Fields(s2.Root().(*schema.Object))[0].Name)

		// the table New builds on its own is not written
		s, err = schema.New(root, schema.WithNames(schema.NewNameTable("a", "b")))
		require.NoError(t, err)
		data, err = s.MarshalJSON()
		require.NoError(t, err)
		require.JSONEq(t, `{"a": "string", "b": "string"}`, string(data))
	})

	t.Run("invalid", func(t *testing.T) {
		for _, src := range []string{
			`{"$defs": {"a": {"$ref": "b"}, "b": {"$ref": "a"}}, "$root": {"$ref": "a"}}`,
			`{"$defs": {"a": {"$ref": "a"}}, "$root": "int8"}`,
			`{"$defs": {"a": {"$ref": "missing"}}, "$root": "int8"}`,
			`{"$names": [1], "$root": {"a": "int8"}}`,
			`{"$names": ["a"], "$root": {"b": "int8"}}`,
			`{"$names": ["a"]}`,
			`"int64"`,
			`[]`,
			`{"a": {"$ref": "missing"}}`,
			`{"a": {"$enum": [1, 2]}}`,
			`{"$defs": {"a": "int8"}}`,
			`12`,
		} {
			_, err := schema.Parse([]byte(src))
			require.ErrorIs(t, err, errors.ErrInvalidSchema, src)
		}
	})
}
