package testutil

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/require"
)

// DumpPebble prints every key of the database.
func DumpPebble(t testing.TB, pdb *pebble.DB) {
	t.Helper()
	it := pdb.NewIter(nil)

	for it.First(); it.Valid(); it.Next() {
		fmt.Printf("%q: %v\n", it.Key(), it.Value())
	}

	err := it.Close()
	require.NoError(t, err)
}
