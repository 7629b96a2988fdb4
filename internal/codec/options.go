package codec

import (
	"encoding/binary"

	"github.com/chaisql/structbin/internal/encoding"
)

// Options of the encoder and the decoder. Both sides must use the same
// byte order and the same layout.
type Options struct {
	// ByteOrder of every number written. Defaults to little endian.
	ByteOrder binary.ByteOrder

	// Transform, if set, is called for every scalar and enum value.
	Transform Transform

	// StrictEnums makes the encoder fail with errors.ErrUnknownEnumValue
	// when a value doesn't belong to its enum, instead of writing it as absent.
	StrictEnums bool

	// Layout, if set, fixes the widths used by the stream, which is then written
	// without header. Values that don't fit fail with errors.ErrCapacityExceeded.
	Layout *Layout
}

func (o *Options) byteOrder() binary.ByteOrder {
	if o == nil || o.ByteOrder == nil {
		return encoding.DefaultByteOrder
	}
	return o.ByteOrder
}

func (o *Options) transform() Transform {
	if o == nil {
		return nil
	}
	return o.Transform
}

func (o *Options) strictEnums() bool {
	return o != nil && o.StrictEnums
}

func (o *Options) layout() *Layout {
	if o == nil {
		return nil
	}
	return o.Layout
}

// Layout lists the widths of the variable-width integers of a stream.
type Layout struct {
	RefID        encoding.Width
	ArrayLength  encoding.Width
	StringLength encoding.Width
	BufferLength encoding.Width
}

// LegacyLayout is the headerless layout of streams produced by older writers:
// 8-bit reference ids and array lengths, 16-bit string and buffer lengths.
var LegacyLayout = Layout{
	RefID:        encoding.Width8,
	ArrayLength:  encoding.Width8,
	StringLength: encoding.Width16,
	BufferLength: encoding.Width16,
}

func (l *Layout) widths() [4]encoding.Width {
	return [4]encoding.Width{l.RefID, l.ArrayLength, l.StringLength, l.BufferLength}
}

func layoutFromWidths(ws [4]encoding.Width) Layout {
	return Layout{
		RefID:        ws[0],
		ArrayLength:  ws[1],
		StringLength: ws[2],
		BufferLength: ws[3],
	}
}

func (l *Layout) isValid() bool {
	for _, w := range l.widths() {
		if !w.IsValid() {
			return false
		}
	}
	return true
}
