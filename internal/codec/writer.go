package codec

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/op/go-logging"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
)

// layout returns the widths of the stream: the fixed ones of the options,
// or the narrowest ones able to hold the largest values.
func (e *encoder) layout() (*Layout, error) {
	if l := e.opts.layout(); l != nil {
		if !l.isValid() {
			return nil, errors.Newf("invalid layout %+v", *l)
		}
		return l, nil
	}

	l := Layout{
		RefID:        encoding.SelectWidth(uint64(e.g.Len())),
		ArrayLength:  encoding.SelectWidth(e.maxArray),
		StringLength: encoding.SelectWidth(e.maxString),
		BufferLength: encoding.SelectWidth(e.maxBuffer),
	}
	if log.IsEnabledFor(logging.DEBUG) {
		log.Debugf("%d references, %d leaves, widths: ref=%s array=%s string=%s buffer=%s",
			e.g.Len(), len(e.leaves), l.RefID, l.ArrayLength, l.StringLength, l.BufferLength)
	}
	return &l, nil
}

// size returns the number of bytes used by l, and checks that it fits in the layout.
func (e *encoder) size(l *leaf, lay *Layout) (int, error) {
	switch l.kind {
	case refLeaf:
		if !lay.RefID.Fits(l.n) {
			return 0, serrors.NewCapacityExceeded(l.path.String(), "reference id", l.n, lay.RefID.Max())
		}
		return lay.RefID.Size(), nil
	case lengthLeaf:
		if !lay.ArrayLength.Fits(l.n) {
			return 0, serrors.NewCapacityExceeded(l.path.String(), "array length", l.n, lay.ArrayLength.Max())
		}
		return lay.ArrayLength.Size(), nil
	case enumLeaf:
		return l.node.(*schema.Enum).Width().Size(), nil
	}

	t := l.node.(*schema.Scalar).Type
	switch t {
	case schema.String, schema.Buffer:
		w, what := lay.StringLength, "string length"
		if t == schema.Buffer {
			w, what = lay.BufferLength, "buffer length"
		}
		n := uint64(len(l.value.([]byte)))
		if !w.Fits(n) {
			return 0, serrors.NewCapacityExceeded(l.path.String(), what, n, w.Max())
		}
		return w.Size() + int(n), nil
	}

	return t.Size(), nil
}

// write computes the exact size of the stream, then writes it in a single buffer.
func (e *encoder) write(lay *Layout) ([]byte, error) {
	var total int
	if e.opts.layout() == nil {
		total++
	}

	for i := range e.leaves {
		n, err := e.size(&e.leaves[i], lay)
		if err != nil {
			return nil, err
		}
		total += n
	}

	w := encoding.NewWriter(total, e.opts.byteOrder())
	if e.opts.layout() == nil {
		w.PutUint8(encoding.PackWidths(lay.widths()))
	}

	for i := range e.leaves {
		l := &e.leaves[i]

		switch l.kind {
		case refLeaf:
			w.PutUint(lay.RefID, l.n)
			continue
		case lengthLeaf:
			w.PutUint(lay.ArrayLength, l.n)
			continue
		case enumLeaf:
			w.PutUint(l.node.(*schema.Enum).Width(), l.n)
			continue
		}

		switch t := l.node.(*schema.Scalar).Type; t {
		case schema.Int8, schema.Uint8:
			w.PutUint8(uint8(l.value.(int64)))
		case schema.Int16, schema.Uint16:
			w.PutUint16(uint16(l.value.(int64)))
		case schema.Int32, schema.Uint32:
			w.PutUint32(uint32(l.value.(int64)))
		case schema.Float32:
			w.PutFloat32(float32(l.value.(float64)))
		case schema.Float64:
			w.PutFloat64(l.value.(float64))
		case schema.Bool:
			w.PutBool(l.value.(bool))
		case schema.String:
			w.PutBytes(lay.StringLength, l.value.([]byte))
		case schema.Buffer:
			w.PutBytes(lay.BufferLength, l.value.([]byte))
		case schema.UUID, schema.AssetUUID:
			id := l.value.(uuid.UUID)
			w.PutRaw(id[:])
		}
	}

	return w.Bytes(), nil
}
