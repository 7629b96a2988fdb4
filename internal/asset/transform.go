package asset

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
)

// ID returns the asset id held by v: an Identifier, a uuid.UUID,
// or anything accepted by the codec for UUIDs.
func ID(v any) (uuid.UUID, error) {
	if i, ok := v.(Identifier); ok {
		return i.AssetID(), nil
	}

	return encoding.ParseUUID(v)
}

// AliasTransform returns a transform replacing every asset id by its canonical id,
// as returned by r. Loaded assets implementing Identifier are replaced by their id.
// If r is nil, ids are left as is.
func AliasTransform(ctx context.Context, r AliasResolver) codec.Transform {
	return func(l *codec.Leaf) (any, error) {
		if l.Type != schema.AssetUUID || l.Value == nil {
			return l.Value, nil
		}

		id, err := ID(l.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid asset id at %s", l.Path)
		}
		if r == nil || id == uuid.Nil {
			return id, nil
		}

		canonical, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve asset %s", id)
		}
		if canonical != id {
			log.Debugf("asset %s at %s resolved to %s", id, l.Path, canonical)
		}
		return canonical, nil
	}
}

// A Collector gathers the asset ids it sees, without modifying them.
type Collector struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	seen map[uuid.UUID]struct{}
}

// Collect returns an empty collector.
func Collect() *Collector {
	return &Collector{
		seen: make(map[uuid.UUID]struct{}),
	}
}

// Transform records the id of every asset leaf and returns the values unchanged.
// It can be used both when encoding and when decoding.
func (c *Collector) Transform(l *codec.Leaf) (any, error) {
	if l.Type != schema.AssetUUID || l.Value == nil {
		return l.Value, nil
	}

	id, err := ID(l.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid asset id at %s", l.Path)
	}
	if id == uuid.Nil {
		return l.Value, nil
	}

	c.mu.Lock()
	if _, ok := c.seen[id]; !ok {
		c.seen[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
	c.mu.Unlock()

	return l.Value, nil
}

// IDs returns the distinct ids collected so far, in the order they were seen.
func (c *Collector) IDs() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]uuid.UUID(nil), c.ids...)
}

// Encode encodes v, replacing every asset id by its canonical id and every
// Identifier by its id.
func Encode(ctx context.Context, v any, s *schema.Schema, r AliasResolver, opts *codec.Options) ([]byte, error) {
	var copts codec.Options
	if opts != nil {
		copts = *opts
	}
	copts.Transform = codec.Chain(AliasTransform(ctx, r), copts.Transform)

	return codec.Encode(v, s, &copts)
}
