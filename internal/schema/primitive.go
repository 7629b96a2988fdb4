package schema

import "github.com/chaisql/structbin/internal/encoding"

// PrimitiveType is the wire type of a scalar.
type PrimitiveType uint8

// List of primitive types.
const (
	Int8 PrimitiveType = iota + 1
	Int16
	Int32
	Uint8
	Uint16
	Uint32
	Float32
	Float64
	Bool
	String
	UUID
	// AssetUUID is a UUID identifying an asset. It is written like a UUID
	// but can be resolved to the asset itself when decoding.
	AssetUUID
	Buffer
)

var primitiveNames = map[PrimitiveType]string{
	Int8:      "int8",
	Int16:     "int16",
	Int32:     "int32",
	Uint8:     "uint8",
	Uint16:    "uint16",
	Uint32:    "uint32",
	Float32:   "float32",
	Float64:   "float64",
	Bool:      "bool",
	String:    "string",
	UUID:      "uuid",
	AssetUUID: "asset_uuid",
	Buffer:    "buffer",
}

func (t PrimitiveType) String() string {
	if s, ok := primitiveNames[t]; ok {
		return s
	}

	return "invalid"
}

// IsValid reports whether t is a known primitive type.
func (t PrimitiveType) IsValid() bool {
	_, ok := primitiveNames[t]
	return ok
}

// ParsePrimitiveType returns the primitive type with the given name.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	for t, s := range primitiveNames {
		if s == name {
			return t, true
		}
	}

	return 0, false
}

// Size returns the number of bytes used by t on the wire.
// Strings and buffers have a variable size and return 0.
func (t PrimitiveType) Size() int {
	switch t {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	case UUID, AssetUUID:
		return encoding.UUIDSize
	}

	return 0
}

// IsVariable reports whether values of type t are prefixed by their length.
func (t PrimitiveType) IsVariable() bool {
	return t == String || t == Buffer
}
