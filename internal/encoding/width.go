package encoding

import "math"

// Width is the size, in bytes, of an unsigned integer on the wire.
// It is used for reference ids, array lengths and the length prefixes
// of strings and buffers.
type Width uint8

// List of supported widths.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// SelectWidth returns the narrowest width able to represent max.
// There is no zero-width type: a bound of 0 yields Width8.
// Bounds that don't fit in 32 bits return Width32; callers must
// check Fits before writing.
func SelectWidth(max uint64) Width {
	switch {
	case max <= math.MaxUint8:
		return Width8
	case max <= math.MaxUint16:
		return Width16
	default:
		return Width32
	}
}

// Size returns the number of bytes used by w.
func (w Width) Size() int {
	return int(w)
}

// Max returns the largest value representable with w.
func (w Width) Max() uint64 {
	switch w {
	case Width8:
		return math.MaxUint8
	case Width16:
		return math.MaxUint16
	case Width32:
		return math.MaxUint32
	}

	return 0
}

// Fits reports whether n can be written using w.
func (w Width) Fits(n uint64) bool {
	return n <= w.Max()
}

// IsValid reports whether w is one of the supported widths.
func (w Width) IsValid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

func (w Width) String() string {
	switch w {
	case Width8:
		return "uint8"
	case Width16:
		return "uint16"
	case Width32:
		return "uint32"
	}

	return "invalid"
}

// code returns the 2-bit code of w, used in headers.
func (w Width) code() byte {
	switch w {
	case Width16:
		return 1
	case Width32:
		return 2
	}
	return 0
}

func widthFromCode(c byte) (Width, bool) {
	switch c {
	case 0:
		return Width8, true
	case 1:
		return Width16, true
	case 2:
		return Width32, true
	}

	return 0, false
}

// PackWidths packs four widths in a single byte, two bits each,
// the first one in the lowest bits.
func PackWidths(ws [4]Width) byte {
	var b byte
	for i, w := range ws {
		b |= w.code() << (2 * i)
	}

	return b
}

// UnpackWidths is the inverse of PackWidths. It returns false if one of the
// codes doesn't correspond to a known width.
func UnpackWidths(b byte) ([4]Width, bool) {
	var ws [4]Width
	for i := range ws {
		w, ok := widthFromCode((b >> (2 * i)) & 0x3)
		if !ok {
			return ws, false
		}
		ws[i] = w
	}

	return ws, true
}
