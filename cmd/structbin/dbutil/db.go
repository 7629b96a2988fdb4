package dbutil

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/chaisql/structbin/internal/assetstore"
	"github.com/chaisql/structbin/internal/codec"
)

// OpenStore is a helper function that takes raw unvalidated parameters and opens an asset store.
func OpenStore(ctx context.Context, path string, opts *codec.Options) (*assetstore.Store, error) {
	if path == "" {
		return nil, errors.New("missing asset database path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return assetstore.Open(path, &assetstore.Options{Codec: opts})
}
