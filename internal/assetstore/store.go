// Package assetstore stores encoded assets in Pebble, along with the schema
// describing each of them, and the aliases pointing to them.
//
// A Store can be used as both the asset.Loader and the asset.AliasResolver
// of the asset package.
package assetstore

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/op/go-logging"

	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
)

var log = logging.MustGetLogger("assetstore")

// the package is silent unless the program configures a logging backend.
func init() {
	logging.SetLevel(logging.WARNING, "assetstore")
}

var (
	// ErrAssetNotFound is returned when an asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAliasLoop is returned when an alias chain leads back to itself.
	ErrAliasLoop = errors.New("alias loop")
)

const (
	assetPrefix = 'a'
	aliasPrefix = 'l'
	separator   = '/'

	// DefaultCacheSize is the number of decoded assets kept in memory by default.
	DefaultCacheSize = 128

	maxAliasDepth = 64
)

// Options of a Store. The zero value is valid.
type Options struct {
	// Pebble options, used by Open.
	Pebble *pebble.Options

	// CacheSize is the number of decoded assets kept in memory.
	// Zero means DefaultCacheSize, a negative value disables the cache.
	CacheSize int

	// Codec options used to encode and decode the assets.
	// They must not change between two uses of the same database.
	Codec *codec.Options
}

// A Store of assets.
type Store struct {
	db    *pebble.DB
	owned bool
	opts  Options
	cache *lru.Cache
}

// Open a database at path.
func Open(path string, opts *Options) (*Store, error) {
	var o Options
	if opts != nil {
		o = *opts
	}

	popts := o.Pebble
	if popts == nil {
		popts = &pebble.Options{}
	}
	db, err := pebble.Open(path, popts)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", path)
	}

	s, err := New(db, &o)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New returns a store using db. Closing the store doesn't close db.
func New(db *pebble.DB, opts *Options) (*Store, error) {
	s := Store{db: db}
	if opts != nil {
		s.opts = *opts
	}

	size := s.opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New(size)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create cache")
		}
		s.cache = cache
	}

	return &s, nil
}

// Close the store. The database is closed if it was opened by Open.
func (s *Store) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database.
func (s *Store) DB() *pebble.DB {
	return s.db
}

func buildKey(prefix byte, id uuid.UUID) []byte {
	key := make([]byte, 0, 2+len(id))
	key = append(key, prefix, separator)
	return append(key, id[:]...)
}

// Key kinds returned by ParseKey.
const (
	AssetKey = "asset"
	AliasKey = "alias"
)

// ParseKey returns the kind of entry stored under key and the id it belongs to.
func ParseKey(key []byte) (kind string, id uuid.UUID, err error) {
	if len(key) != 2+len(id) || key[1] != separator {
		return "", uuid.Nil, errors.Newf("invalid key %q", key)
	}

	switch key[0] {
	case assetPrefix:
		kind = AssetKey
	case aliasPrefix:
		kind = AliasKey
	default:
		return "", uuid.Nil, errors.Newf("unknown key prefix %q", key[0])
	}

	copy(id[:], key[2:])
	return kind, id, nil
}

// Put encodes value with sch and stores it under id, replacing any previous asset.
func (s *Store) Put(ctx context.Context, id uuid.UUID, value any, sch *schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == uuid.Nil {
		return errors.New("cannot store an asset with a nil id")
	}

	rawSchema, err := sch.MarshalJSON()
	if err != nil {
		return err
	}

	data, err := codec.Encode(value, sch, s.opts.Codec)
	if err != nil {
		return errors.Wrapf(err, "cannot encode asset %s", id)
	}

	// the schema, prefixed by its length, then the data.
	w := encoding.NewWriter(int(encoding.Width32)+len(rawSchema)+len(data), encoding.DefaultByteOrder)
	w.PutBytes(encoding.Width32, rawSchema)
	w.PutRaw(data)

	if err := s.db.Set(buildKey(assetPrefix, id), w.Bytes(), pebble.Sync); err != nil {
		return errors.Wrapf(err, "cannot store asset %s", id)
	}

	if s.cache != nil {
		s.cache.Remove(id)
	}
	log.Debugf("stored asset %s (%d bytes)", id, len(data))
	return nil
}

type entry struct {
	value  any
	schema *schema.Schema
}

// Lookup returns the asset stored under id, following aliases.
// Decoded assets are cached and shared between callers: they must not be modified.
// Asset UUIDs contained in the asset are returned as is.
func (s *Store) Lookup(ctx context.Context, id uuid.UUID) (any, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Schema returns the schema of the asset stored under id, following aliases.
func (s *Store) Schema(ctx context.Context, id uuid.UUID) (*schema.Schema, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.schema, nil
}

func (s *Store) get(ctx context.Context, id uuid.UUID) (*entry, error) {
	canonical, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if e, ok := s.cache.Get(canonical); ok {
			return e.(*entry), nil
		}
	}

	raw, err := s.getRaw(buildKey(assetPrefix, canonical))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(ErrAssetNotFound, "%s", id)
		}
		return nil, err
	}

	r := encoding.NewReader(raw, encoding.DefaultByteOrder)
	rawSchema, err := r.Bytes(encoding.Width32)
	if err != nil {
		return nil, errors.Wrapf(err, "asset %s", canonical)
	}
	sch, err := schema.Parse(rawSchema)
	if err != nil {
		return nil, errors.Wrapf(err, "schema of asset %s", canonical)
	}
	data, err := r.Raw(r.Remaining())
	if err != nil {
		return nil, err
	}

	v, err := codec.Decode(data, sch, s.opts.Codec)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode asset %s", canonical)
	}

	e := entry{value: v, schema: sch}
	if s.cache != nil {
		s.cache.Add(canonical, &e)
	}
	return &e, nil
}

// getRaw returns a copy of the value stored under key.
func (s *Store) getRaw(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}

	cp := make([]byte, len(value))
	copy(cp, value)

	if err := closer.Close(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Alias makes alias point to id. Aliases can point to other aliases.
func (s *Store) Alias(ctx context.Context, alias, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if alias == id {
		return errors.Wrapf(ErrAliasLoop, "%s cannot be an alias of itself", alias)
	}

	if err := s.db.Set(buildKey(aliasPrefix, alias), id[:], pebble.Sync); err != nil {
		return errors.Wrapf(err, "cannot store alias %s", alias)
	}

	if s.cache != nil {
		s.cache.Purge()
	}
	return nil
}

// Resolve follows the aliases of id and returns the id they lead to.
// Ids that are not aliases are returned unchanged, whether they exist or not.
func (s *Store) Resolve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	cur := id
	seen := map[uuid.UUID]struct{}{cur: {}}

	for i := 0; i < maxAliasDepth; i++ {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, err
		}

		raw, err := s.getRaw(buildKey(aliasPrefix, cur))
		if errors.Is(err, pebble.ErrNotFound) {
			return cur, nil
		}
		if err != nil {
			return uuid.Nil, err
		}

		next, err := uuid.FromBytes(raw)
		if err != nil {
			return uuid.Nil, errors.Wrapf(err, "invalid alias %s", cur)
		}
		if _, ok := seen[next]; ok {
			return uuid.Nil, errors.Wrapf(ErrAliasLoop, "%s", id)
		}
		seen[next] = struct{}{}
		cur = next
	}

	return uuid.Nil, errors.Wrapf(ErrAliasLoop, "more than %d aliases from %s", maxAliasDepth, id)
}

// Delete removes the asset or the alias stored under id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Delete(buildKey(assetPrefix, id), nil); err != nil {
		return err
	}
	if err := b.Delete(buildKey(aliasPrefix, id), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrapf(err, "cannot delete %s", id)
	}

	if s.cache != nil {
		s.cache.Purge()
	}
	return nil
}

// List calls fn for the id of every stored asset, in order, until fn returns an error.
// Returning io.EOF stops the iteration without error.
func (s *Store) List(ctx context.Context, fn func(id uuid.UUID) error) error {
	lower := []byte{assetPrefix, separator}
	upper := []byte{assetPrefix, separator + 1}

	it := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})

	err := s.iterate(ctx, it, fn)
	if cerr := it.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Store) iterate(ctx context.Context, it *pebble.Iterator, fn func(id uuid.UUID) error) error {
	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, id, err := ParseKey(it.Key())
		if err != nil {
			return err
		}
		if err := fn(id); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}

	return it.Error()
}
