package encoding_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/stretchr/testify/require"
)

func TestSelectWidth(t *testing.T) {
	tests := []struct {
		max  uint64
		want encoding.Width
	}{
		{0, encoding.Width8},
		{1, encoding.Width8},
		{255, encoding.Width8},
		{256, encoding.Width16},
		{257, encoding.Width16},
		{65535, encoding.Width16},
		{65536, encoding.Width32},
		{math.MaxUint32, encoding.Width32},
	}

	for _, test := range tests {
		require.Equal(t, test.want, encoding.SelectWidth(test.max), "max=%d", test.max)
	}

	require.False(t, encoding.SelectWidth(math.MaxUint32+1).Fits(math.MaxUint32+1))
}

func TestPackWidths(t *testing.T) {
	ws := [4]encoding.Width{encoding.Width16, encoding.Width8, encoding.Width32, encoding.Width16}
	b := encoding.PackWidths(ws)

	got, ok := encoding.UnpackWidths(b)
	require.True(t, ok)
	require.Equal(t, ws, got)

	_, ok = encoding.UnpackWidths(0xFF)
	require.False(t, ok)
}

func TestWriterReader(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			w := encoding.NewWriter(1+2+4+8+4+8+1+(2+5), order)
			w.PutUint8(200)
			w.PutUint16(65000)
			w.PutUint32(4000000000)
			w.PutUint64(math.MaxUint64 - 1)
			w.PutFloat32(-1.5)
			w.PutFloat64(math.Pi)
			w.PutBool(true)
			w.PutBytes(encoding.Width16, []byte("hello"))
			require.Equal(t, 35, w.Offset())

			r := encoding.NewReader(w.Bytes(), order)
			u8, err := r.Uint8()
			require.NoError(t, err)
			require.EqualValues(t, 200, u8)
			u16, err := r.Uint16()
			require.NoError(t, err)
			require.EqualValues(t, 65000, u16)
			u32, err := r.Uint32()
			require.NoError(t, err)
			require.EqualValues(t, uint32(4000000000), u32)
			u64, err := r.Uint64()
			require.NoError(t, err)
			require.EqualValues(t, uint64(math.MaxUint64-1), u64)
			f32, err := r.Float32()
			require.NoError(t, err)
			require.Equal(t, float32(-1.5), f32)
			f64, err := r.Float64()
			require.NoError(t, err)
			require.Equal(t, math.Pi, f64)
			b, err := r.Bool()
			require.NoError(t, err)
			require.True(t, b)
			data, err := r.Bytes(encoding.Width16)
			require.NoError(t, err)
			require.Equal(t, "hello", string(data))
			require.Zero(t, r.Remaining())
		})
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := encoding.NewReader([]byte{1, 2, 3}, nil)
	_, err := r.Uint32()
	require.ErrorIs(t, err, errors.ErrCorruptStream)

	r = encoding.NewReader([]byte{10, 'a'}, nil)
	_, err = r.Bytes(encoding.Width8)
	require.ErrorIs(t, err, errors.ErrCorruptStream)

	r = encoding.NewReader([]byte{2}, nil)
	_, err = r.Bool()
	require.ErrorIs(t, err, errors.ErrCorruptStream)
}

func TestUUID(t *testing.T) {
	id, err := encoding.ParseUUID("01234567-89AB-cdef-0123-456789abcdef")
	require.NoError(t, err)
	require.Len(t, id[:], encoding.UUIDSize)
	require.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", encoding.FormatUUID(id[:]))

	_, err = encoding.ParseUUID("0123456789abcdef0123456789abcdef")
	require.Error(t, err)
	_, err = encoding.ParseUUID(10)
	require.Error(t, err)
}
