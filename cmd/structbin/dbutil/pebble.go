package dbutil

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/chaisql/structbin/internal/assetstore"
)

type DumpPebbleOptions struct {
	KeysOnly bool
}

// DumpPebble writes every entry of the asset database to w, one per line.
func DumpPebble(ctx context.Context, w io.Writer, db *pebble.DB, opt DumpPebbleOptions) error {
	iter := db.NewIter(nil)
	defer func(iter *pebble.Iterator) {
		_ = iter.Close()
	}(iter)

	var curkind string
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind, id, err := assetstore.ParseKey(iter.Key())
		if err != nil {
			fmt.Fprintf(w, "%v: %v\n", iter.Key(), iter.Value())
			continue
		}
		if curkind != "" && kind != curkind {
			fmt.Fprintln(w)
		}
		curkind = kind

		switch {
		case opt.KeysOnly:
			fmt.Fprintf(w, "%s %s\n", kind, id)
		case kind == assetstore.AliasKey:
			target, err := uuid.FromBytes(iter.Value())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s -> %s\n", kind, id, target)
		default:
			fmt.Fprintf(w, "%s %s: %d bytes\n", kind, id, len(iter.Value()))
		}
	}

	return iter.Error()
}
