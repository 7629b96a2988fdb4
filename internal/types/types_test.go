package types_test

import (
	"testing"

	"github.com/chaisql/structbin/internal/types"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	o := types.NewObject().
		Set("a", int64(10)).
		Set("b", "hello")

	t.Run("Get", func(t *testing.T) {
		v, ok := o.Get("a")
		require.True(t, ok)
		require.Equal(t, int64(10), v)

		_, ok = o.Get("c")
		require.False(t, ok)
	})

	t.Run("Set replaces", func(t *testing.T) {
		o := types.NewObject().Set("a", 1).Set("b", 2).Set("a", 3)
		require.Equal(t, []string{"a", "b"}, o.Fields())
		v, _ := o.Get("a")
		require.Equal(t, 3, v)
	})

	t.Run("Delete", func(t *testing.T) {
		o := types.NewObject().Set("a", 1).Set("b", 2).Set("c", 3)
		require.True(t, o.Delete("b"))
		require.False(t, o.Delete("b"))
		require.Equal(t, []string{"a", "c"}, o.Fields())
		v, ok := o.Get("c")
		require.True(t, ok)
		require.Equal(t, 3, v)
	})

	t.Run("FromMap", func(t *testing.T) {
		o := types.NewObjectFromMap(map[string]any{"b": 1, "a": 2})
		require.Equal(t, []string{"a", "b"}, o.Fields())
	})
}

func TestArray(t *testing.T) {
	a := types.NewArray("a")
	a.Set(3, "d")
	require.Equal(t, 4, a.Len())
	v, ok := a.Get(1)
	require.True(t, ok)
	require.Nil(t, v)
	_, ok = a.Get(4)
	require.False(t, ok)
}

func TestPath(t *testing.T) {
	root, err := types.ParseJSON([]byte(`{"a": {"b": [1, 2, 3]}}`))
	require.NoError(t, err)

	p := types.Path{}.ExtendField("a").ExtendField("b").ExtendIndex(1)
	require.Equal(t, "a.b[1]", p.String())

	v, err := p.Get(root)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)

	_, err = types.Path{}.ExtendField("a").ExtendField("c").Get(root)
	require.ErrorIs(t, err, types.ErrPathNotFound)

	_, err = types.Path{}.ExtendField("a").ExtendIndex(0).Get(root)
	require.ErrorIs(t, err, types.ErrPathNotFound)

	t.Run("Set creates containers", func(t *testing.T) {
		o := types.NewObject()
		p := types.Path{}.ExtendField("x").ExtendTuple(2).ExtendField("y")
		require.NoError(t, p.Set(o, "z"))

		v, err := p.Get(o)
		require.NoError(t, err)
		require.Equal(t, "z", v)

		x, _ := o.Get("x")
		require.Equal(t, 3, x.(*types.Array).Len())
	})

	require.True(t, p.IsEqual(p.Clone()))
	require.False(t, p.IsEqual(p[:1]))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"numbers", int8(3), int64(3), true},
		{"float", float32(1.5), 1.5, true},
		{"different numbers", 1, 2, false},
		{"string", "a", "a", true},
		{"bytes", []byte("a"), []byte("a"), true},
		{"nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
		{"objects field order", types.NewObject().Set("a", 1).Set("b", 2), types.NewObject().Set("b", 2).Set("a", 1), true},
		{"objects different", types.NewObject().Set("a", 1), types.NewObject().Set("a", 2), false},
		{"arrays", types.NewArray(1, "a"), types.NewArray(1, "a"), true},
		{"arrays length", types.NewArray(1), types.NewArray(1, 2), false},
		{"object vs array", types.NewObject(), types.NewArray(), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.equal, types.Equal(test.a, test.b))
		})
	}

	t.Run("cycles", func(t *testing.T) {
		a := types.NewObject().Set("name", "a")
		a.Set("self", a)
		b := types.NewObject().Set("name", "a")
		b.Set("self", b)
		require.True(t, types.Equal(a, b))

		c := types.NewObject().Set("name", "c")
		c.Set("self", c)
		require.False(t, types.Equal(a, c))
	})
}

func TestJSON(t *testing.T) {
	v, err := types.ParseJSON([]byte(`{"b": 1, "a": [true, null, 1.5, "x", {"c": -2}]}`))
	require.NoError(t, err)

	data, err := types.MarshalJSON(v)
	require.NoError(t, err)
	require.Equal(t, `{"b": 1, "a": [true, null, 1.5, "x", {"c": -2}]}`, string(data))

	_, err = types.ParseJSON([]byte(`{"a": `))
	require.Error(t, err)

	o := types.NewObject()
	o.Set("self", o)
	_, err = types.MarshalJSON(o)
	require.Error(t, err)
}
