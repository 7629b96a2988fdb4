package structbin_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chaisql/structbin"
)

func TestBuilders(t *testing.T) {
	vec := structbin.Tuple(structbin.Scalar(structbin.Float32), structbin.Scalar(structbin.Float32))
	names := structbin.NewNameTable("kind", "points")

	s, err := structbin.NewSchema(structbin.Object(
		structbin.Field("kind", structbin.Enum("line", "curve")),
		structbin.Field("points", structbin.Array(vec)),
	), structbin.WithNames(names))
	require.NoError(t, err)

	v := structbin.NewObjectValue().
		Set("kind", "curve").
		Set("points", structbin.NewArrayValue(
			structbin.NewArrayValue(0.5, 1),
			structbin.NewArrayValue(2, -3.25),
		))

	data, err := structbin.Encode(v, s, nil)
	require.NoError(t, err)

	got, err := structbin.Decode(data, s, nil)
	require.NoError(t, err)

	out, err := structbin.MarshalJSON(got)
	require.NoError(t, err)
	require.JSONEq(t, `{"kind": "curve", "points": [[0.5, 1], [2, -3.25]]}`, string(out))

	parsed, err := structbin.ParseSchema([]byte(`{"kind": {"$enum": ["line", "curve"]}, "points": [["float32", "float32"]]}`))
	require.NoError(t, err)

	// same schema, same bytes
	data2, err := structbin.Encode(v, parsed, nil)
	require.NoError(t, err)
	require.Equal(t, data, data2)
}

func TestErrors(t *testing.T) {
	s, err := structbin.ParseSchema([]byte(`{"n": "uint8"}`))
	require.NoError(t, err)

	_, err = structbin.Encode(structbin.NewObjectValue().Set("n", "x"), s, nil)
	require.True(t, errors.Is(err, structbin.ErrSchemaMismatch))

	_, err = structbin.Encode(structbin.NewObjectValue().Set("n", 300), s, nil)
	require.True(t, errors.Is(err, structbin.ErrCapacityExceeded))

	_, err = structbin.Decode([]byte{0, 1, 2}, s, nil)
	require.True(t, errors.Is(err, structbin.ErrCorruptStream))

	_, err = structbin.ParseSchema([]byte(`{"n": "uint128"}`))
	require.True(t, errors.Is(err, structbin.ErrInvalidSchema))
}

func TestLegacyLayout(t *testing.T) {
	s, err := structbin.ParseSchema([]byte(`["string"]`))
	require.NoError(t, err)

	v := structbin.NewArrayValue("a", "bc")
	opts := structbin.Options{Layout: &structbin.LegacyLayout}

	data, err := structbin.Encode(v, s, &opts)
	require.NoError(t, err)
	// array length, then two strings with 16-bit lengths
	require.Len(t, data, 1+2+1+2+2)

	got, err := structbin.Decode(data, s, &opts)
	require.NoError(t, err)
	require.Equal(t, []any{"a", "bc"}, got.(*structbin.ArrayValue).Values())
}

func TestAssets(t *testing.T) {
	ctx := context.Background()
	canonical := uuid.MustParse("6f1b5a36-6a43-4c8e-9a86-2f6b7d1f6f01")
	alias := uuid.MustParse("6f1b5a36-6a43-4c8e-9a86-2f6b7d1f6f02")

	s, err := structbin.ParseSchema([]byte(`{"mesh": "asset_uuid"}`))
	require.NoError(t, err)

	resolver := aliasFunc(func(id uuid.UUID) uuid.UUID {
		if id == alias {
			return canonical
		}
		return id
	})

	data, err := structbin.EncodeWithAliases(ctx, structbin.NewObjectValue().Set("mesh", alias.String()), s, resolver, nil)
	require.NoError(t, err)

	loader := structbin.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		if id != canonical {
			return nil, errors.Newf("unknown asset %s", id)
		}
		return "cube", nil
	})

	got, err := structbin.DecodeWithAssets(ctx, data, s, loader, nil)
	require.NoError(t, err)
	mesh, _ := got.(*structbin.ObjectValue).Get("mesh")
	require.Equal(t, "cube", mesh)

	// without aliases, the loader fails
	data, err = structbin.Encode(structbin.NewObjectValue().Set("mesh", alias.String()), s, nil)
	require.NoError(t, err)
	_, err = structbin.DecodeWithAssets(ctx, data, s, loader, nil)
	require.True(t, errors.Is(err, structbin.ErrAssetLookup))
}

type aliasFunc func(id uuid.UUID) uuid.UUID

func (f aliasFunc) Resolve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f(id), nil
}
