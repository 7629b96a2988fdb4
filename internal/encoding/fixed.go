package encoding

import (
	"encoding/binary"
	"math"

	"github.com/chaisql/structbin/errors"
)

// DefaultByteOrder is the byte order used when none is specified.
var DefaultByteOrder binary.ByteOrder = binary.LittleEndian

// A Writer writes fixed-width values into a preallocated buffer.
// The buffer size must be computed beforehand: writing past the end panics.
type Writer struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewWriter allocates a buffer of exactly size bytes.
func NewWriter(size int, order binary.ByteOrder) *Writer {
	if order == nil {
		order = DefaultByteOrder
	}

	return &Writer{
		buf:   make([]byte, size),
		order: order,
	}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int {
	return w.off
}

// Bytes returns the written buffer.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.off]
}

func (w *Writer) PutUint8(n uint8) {
	w.buf[w.off] = n
	w.off++
}

func (w *Writer) PutUint16(n uint16) {
	w.order.PutUint16(w.buf[w.off:], n)
	w.off += 2
}

func (w *Writer) PutUint32(n uint32) {
	w.order.PutUint32(w.buf[w.off:], n)
	w.off += 4
}

func (w *Writer) PutUint64(n uint64) {
	w.order.PutUint64(w.buf[w.off:], n)
	w.off += 8
}

// PutUint writes n using the given width. n must fit.
func (w *Writer) PutUint(width Width, n uint64) {
	switch width {
	case Width8:
		w.PutUint8(uint8(n))
	case Width16:
		w.PutUint16(uint16(n))
	case Width32:
		w.PutUint32(uint32(n))
	default:
		panic("invalid width " + width.String())
	}
}

func (w *Writer) PutFloat32(f float32) {
	w.PutUint32(math.Float32bits(f))
}

func (w *Writer) PutFloat64(f float64) {
	w.PutUint64(math.Float64bits(f))
}

func (w *Writer) PutBool(b bool) {
	if b {
		w.PutUint8(1)
		return
	}
	w.PutUint8(0)
}

// PutRaw copies b as is.
func (w *Writer) PutRaw(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

// PutBytes writes a length prefix of the given width followed by b.
func (w *Writer) PutBytes(width Width, b []byte) {
	w.PutUint(width, uint64(len(b)))
	w.PutRaw(b)
}

// A Reader reads fixed-width values from a buffer.
// Every method returns an error matching errors.ErrCorruptStream
// when the buffer is too short.
type Reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewReader returns a reader over buf.
func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	if order == nil {
		order = DefaultByteOrder
	}

	return &Reader{
		buf:   buf,
		order: order,
	}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errors.Corruptf("cannot read %d bytes at offset %d, %d remaining", n, r.off, r.Remaining())
	}

	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// Uint reads an unsigned integer of the given width.
func (r *Reader) Uint(width Width) (uint64, error) {
	switch width {
	case Width8:
		n, err := r.Uint8()
		return uint64(n), err
	case Width16:
		n, err := r.Uint16()
		return uint64(n), err
	case Width32:
		n, err := r.Uint32()
		return uint64(n), err
	}

	return 0, errors.Corruptf("invalid width %d", width)
}

func (r *Reader) Float32() (float32, error) {
	n, err := r.Uint32()
	return math.Float32frombits(n), err
}

func (r *Reader) Float64() (float64, error) {
	n, err := r.Uint64()
	return math.Float64frombits(n), err
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()
	if err != nil {
		return false, err
	}

	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}

	return false, errors.Corruptf("invalid boolean byte %#x at offset %d", b, r.off-1)
}

// Raw returns the next n bytes. The returned slice aliases the buffer.
func (r *Reader) Raw(n int) ([]byte, error) {
	return r.next(n)
}

// Bytes reads a length prefix of the given width followed by as many bytes.
// The returned slice is a copy.
func (r *Reader) Bytes(width Width) ([]byte, error) {
	l, err := r.Uint(width)
	if err != nil {
		return nil, err
	}

	if l > uint64(r.Remaining()) {
		return nil, errors.Corruptf("length prefix %d exceeds the %d remaining bytes", l, r.Remaining())
	}

	b, err := r.next(int(l))
	if err != nil {
		return nil, err
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
