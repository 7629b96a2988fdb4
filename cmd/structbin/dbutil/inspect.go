package dbutil

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/chaisql/structbin/internal/asset"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
)

// A Report describes the content of a stream.
type Report struct {
	Size int
	// Header widths, in order: ref id, array length, string length, buffer length.
	// Nil if the stream was written with a fixed layout.
	Widths []encoding.Width
	Refs   int
	Leaves map[string]int
	Assets []uuid.UUID
}

// Inspect decodes data and reports what it contains.
func Inspect(data []byte, s *schema.Schema, opts *codec.Options) (*Report, error) {
	r := Report{
		Size:   len(data),
		Leaves: make(map[string]int),
	}

	var copts codec.Options
	if opts != nil {
		copts = *opts
	}
	if copts.Layout == nil && len(data) > 0 {
		if ws, ok := encoding.UnpackWidths(data[0]); ok {
			r.Widths = ws[:]
		}
	}

	c := asset.Collect()
	count := func(l *codec.Leaf) (any, error) {
		if l.IsEnum() {
			r.Leaves["enum"]++
		} else {
			r.Leaves[l.Type.String()]++
		}
		return l.Value, nil
	}
	copts.Transform = codec.Chain(copts.Transform, count, c.Transform)

	res, err := codec.DecodeRefs(data, s, &copts)
	if err != nil {
		return nil, err
	}

	r.Refs = len(res.Refs)
	r.Assets = c.IDs()
	return &r, nil
}

// Print writes the report to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "size: %d bytes\n", r.Size)
	if r.Widths != nil {
		fmt.Fprintf(w, "widths: ref id %s, array length %s, string length %s, buffer length %s\n",
			r.Widths[0], r.Widths[1], r.Widths[2], r.Widths[3])
	} else {
		fmt.Fprintln(w, "widths: fixed layout")
	}
	fmt.Fprintf(w, "references: %d\n", r.Refs)

	names := make([]string, 0, len(r.Leaves))
	for name := range r.Leaves {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, r.Leaves[name])
	}

	fmt.Fprintf(w, "assets: %d\n", len(r.Assets))
	for _, id := range r.Assets {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
