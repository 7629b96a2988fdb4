package testutil

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/go-cmp/cmp"

	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/testutil/assert"
	"github.com/chaisql/structbin/internal/types"
)

// MakeValue parses a JSON value into objects and arrays.
func MakeValue(t testing.TB, data string) any {
	t.Helper()

	v, err := types.ParseJSON([]byte(data))
	assert.NoError(t, err)
	return v
}

// MakeSchema parses a JSON schema.
func MakeSchema(t testing.TB, data string) *schema.Schema {
	t.Helper()

	s, err := schema.Parse([]byte(data))
	assert.NoError(t, err)
	return s
}

// RequireEqual fails if want and got are not structurally equal.
// The JSON representations are diffed when possible.
func RequireEqual(t testing.TB, want, got any) {
	t.Helper()

	if types.Equal(want, got) {
		return
	}

	w, werr := types.MarshalJSON(want)
	g, gerr := types.MarshalJSON(got)
	if werr == nil && gerr == nil {
		t.Fatalf("values are not equal (-want +got):\n%s", cmp.Diff(string(w), string(g)))
	}
	t.Fatalf("values are not equal:\nwant: %#v\ngot:  %#v", want, got)
}

// NewMemPebble opens an in-memory pebble database, closed when the test ends.
func NewMemPebble(t testing.TB) *pebble.DB {
	t.Helper()

	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewStrictMem()})
	assert.NoError(t, err)

	t.Cleanup(func() {
		pdb.Close()
	})
	return pdb
}
