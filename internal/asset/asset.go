// Package asset resolves the assets referenced by a stream.
//
// Asset UUIDs are scalars of type schema.AssetUUID. When decoding with Decode,
// each of them is replaced by the asset returned by a Loader. When encoding,
// AliasTransform replaces aliases by canonical ids and Collect gathers the ids
// without modifying them.
package asset

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

var log = logging.MustGetLogger("asset")

// the package is silent unless the program configures a logging backend.
func init() {
	logging.SetLevel(logging.WARNING, "asset")
}

// A Loader returns the asset identified by id.
// Lookup is called concurrently and must honor the cancellation of ctx.
type Loader interface {
	Lookup(ctx context.Context, id uuid.UUID) (any, error)
}

// LoaderFunc turns a function into a Loader.
type LoaderFunc func(ctx context.Context, id uuid.UUID) (any, error)

func (f LoaderFunc) Lookup(ctx context.Context, id uuid.UUID) (any, error) {
	return f(ctx, id)
}

// An AliasResolver returns the canonical id of an asset.
// Ids that are not aliases are returned unchanged.
type AliasResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// AliasResolverFunc turns a function into an AliasResolver.
type AliasResolverFunc func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

func (f AliasResolverFunc) Resolve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f(ctx, id)
}

// An Identifier is a loaded asset that knows its own id.
// Identifiers can be placed in asset UUID slots when encoding through AliasTransform.
type Identifier interface {
	AssetID() uuid.UUID
}

// Options of Decode.
type Options struct {
	// Codec options. Its transform, if any, is called before the asset is captured.
	Codec *codec.Options

	// MaxConcurrent limits the number of lookups running at the same time.
	// Zero means no limit.
	MaxConcurrent int
}

// a pending lookup, placed at path in the reference refID once loaded.
type pending struct {
	refID int
	path  types.Path
	id    uuid.UUID
}

// Decode decodes data and replaces every asset UUID by the asset returned by loader.
// Lookups run concurrently and Decode returns once all of them have completed.
// The first failure cancels the others and is returned, matching errors.ErrAssetLookup.
// Nil UUIDs are not looked up and decode as nil.
// If ctx is canceled, Decode returns without waiting for the running lookups.
func Decode(ctx context.Context, data []byte, s *schema.Schema, loader Loader, opts *Options) (any, error) {
	var copts codec.Options
	var limit int
	if opts != nil {
		if opts.Codec != nil {
			copts = *opts.Codec
		}
		limit = opts.MaxConcurrent
	}

	var lookups []pending
	capture := func(l *codec.Leaf) (any, error) {
		if l.Type != schema.AssetUUID || l.Value == nil {
			return l.Value, nil
		}

		id, err := encoding.ParseUUID(l.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid asset id at %s", l.Path)
		}
		if id != uuid.Nil {
			lookups = append(lookups, pending{refID: l.RefID, path: l.Path, id: id})
		}
		return nil, nil
	}
	copts.Transform = codec.Chain(copts.Transform, capture)

	res, err := codec.DecodeRefs(data, s, &copts)
	if err != nil {
		return nil, err
	}

	if len(lookups) == 0 {
		return res.Root(), nil
	}

	assets, err := load(ctx, loader, lookups, limit)
	if err != nil {
		return nil, err
	}

	for i, p := range lookups {
		if err := res.Set(p.refID, p.path, assets[i]); err != nil {
			return nil, errors.Wrapf(err, "cannot place asset %s", p.id)
		}
	}

	return res.Root(), nil
}

func load(ctx context.Context, loader Loader, lookups []pending, limit int) ([]any, error) {
	log.Debugf("looking up %d assets", len(lookups))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	assets := make([]any, len(lookups))
	done := make(chan error, 1)
	go func() {
		for i := range lookups {
			i := i
			g.Go(func() error {
				p := lookups[i]
				v, err := loader.Lookup(gctx, p.id)
				if err != nil {
					return errors.Mark(errors.Wrapf(err, "asset %s at %s", p.id, p.path), serrors.ErrAssetLookup)
				}
				assets[i] = v
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return assets, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for asset lookups")
	}
}
