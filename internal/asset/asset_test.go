package asset_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/asset"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/testutil"
	"github.com/chaisql/structbin/internal/testutil/assert"
	"github.com/chaisql/structbin/internal/types"
)

const sceneSchema = `{"name": "string", "mesh": "asset_uuid", "children": [{"material": "asset_uuid", "id": "uuid"}]}`

var (
	meshID     = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	materialID = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	aliasID    = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
)

type texture struct {
	id uuid.UUID
}

func (t *texture) AssetID() uuid.UUID { return t.id }

func encodeScene(t *testing.T) []byte {
	t.Helper()

	s := testutil.MakeSchema(t, sceneSchema)
	v := testutil.MakeValue(t, `{
		"name": "scene",
		"mesh": "00000000-0000-0000-0000-00000000000a",
		"children": [
			{"material": "00000000-0000-0000-0000-00000000000b", "id": "00000000-0000-0000-0000-000000000001"},
			{"material": "00000000-0000-0000-0000-00000000000b", "id": "00000000-0000-0000-0000-000000000002"},
			{"material": null, "id": "00000000-0000-0000-0000-000000000003"}
		]
	}`)

	data, err := codec.Encode(v, s, nil)
	assert.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	var calls int32
	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "asset:" + id.String()[32:], nil
	})

	got, err := asset.Decode(context.Background(), data, s, loader, nil)
	assert.NoError(t, err)
	// one lookup per leaf
	require.EqualValues(t, 3, calls)

	testutil.RequireEqual(t, testutil.MakeValue(t, `{
		"name": "scene",
		"mesh": "asset:000a",
		"children": [
			{"material": "asset:000b", "id": "00000000-0000-0000-0000-000000000001"},
			{"material": "asset:000b", "id": "00000000-0000-0000-0000-000000000002"},
			{"material": null, "id": "00000000-0000-0000-0000-000000000003"}
		]
	}`), got)
}

func TestDecodeConcurrent(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	// every lookup waits for the others: this only completes if they run concurrently.
	var started barrier
	started.init(3)
	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		started.done()
		select {
		case <-started.all:
			return id.String(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := asset.Decode(ctx, data, s, loader, nil)
	assert.NoError(t, err)
}

// barrier closes all once n calls to done have been made.
type barrier struct {
	n   int32
	all chan struct{}
}

func (s *barrier) init(n int32) {
	s.n = n
	s.all = make(chan struct{})
}

func (s *barrier) done() {
	if atomic.AddInt32(&s.n, -1) == 0 {
		close(s.all)
	}
}

func TestDecodeMaxConcurrent(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	var running, peak int32
	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			m := atomic.LoadInt32(&peak)
			if n <= m || atomic.CompareAndSwapInt32(&peak, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return id.String(), nil
	})

	_, err := asset.Decode(context.Background(), data, s, loader, &asset.Options{MaxConcurrent: 1})
	assert.NoError(t, err)
	require.EqualValues(t, 1, peak)
}

func TestDecodeFailure(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	errNotFound := errors.New("not found")
	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		if id == materialID {
			return nil, errNotFound
		}
		return id.String(), nil
	})

	_, err := asset.Decode(context.Background(), data, s, loader, nil)
	assert.ErrorIs(t, err, serrors.ErrAssetLookup)
	assert.ErrorIs(t, err, errNotFound)
	require.Contains(t, err.Error(), materialID.String())
}

func TestDecodeCanceled(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	block := make(chan struct{})
	defer close(block)
	// ignores ctx on purpose
	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		<-block
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := asset.Decode(ctx, data, s, loader, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeCorrupt(t *testing.T) {
	s := testutil.MakeSchema(t, sceneSchema)
	data := encodeScene(t)

	loader := asset.LoaderFunc(func(ctx context.Context, id uuid.UUID) (any, error) {
		t.Fatal("unexpected lookup")
		return nil, nil
	})

	_, err := asset.Decode(context.Background(), data[:len(data)-1], s, loader, nil)
	assert.ErrorIs(t, err, serrors.ErrCorruptStream)
}

type aliases map[uuid.UUID]uuid.UUID

func (a aliases) Resolve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if c, ok := a[id]; ok {
		return c, nil
	}
	return id, nil
}

func TestEncode(t *testing.T) {
	s := testutil.MakeSchema(t, `{"mesh": "asset_uuid", "textures": ["asset_uuid"]}`)
	v := types.NewObject().
		Set("mesh", aliasID.String()).
		Set("textures", types.NewArray(&texture{id: materialID}, nil, aliasID))

	data, err := asset.Encode(context.Background(), v, s, aliases{aliasID: meshID}, nil)
	assert.NoError(t, err)

	c := asset.Collect()
	got, err := codec.Decode(data, s, &codec.Options{Transform: c.Transform})
	assert.NoError(t, err)

	testutil.RequireEqual(t, testutil.MakeValue(t, `{
		"mesh": "00000000-0000-0000-0000-00000000000a",
		"textures": ["00000000-0000-0000-0000-00000000000b", "00000000-0000-0000-0000-000000000000", "00000000-0000-0000-0000-00000000000a"]
	}`), got)
	require.Equal(t, []uuid.UUID{meshID, materialID}, c.IDs())

	failing := asset.AliasTransform(context.Background(), asset.AliasResolverFunc(func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, errors.New("boom")
	}))
	_, err = codec.Encode(v, s, &codec.Options{Transform: failing})
	require.Error(t, err)
}
