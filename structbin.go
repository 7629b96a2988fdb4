package structbin

import (
	"context"

	"github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/asset"
	"github.com/chaisql/structbin/internal/codec"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

type (
	// Schema is a validated description of the values a stream contains.
	Schema = schema.Schema
	// Node is a node of a schema.
	Node = schema.Node
	// PrimitiveType is the wire type of a scalar.
	PrimitiveType = schema.PrimitiveType
	// NameTable maps field names to ids.
	NameTable = schema.NameTable
	// ObjectNode is an object node of a schema.
	ObjectNode = schema.Object
	// FieldNode is a named field of an ObjectNode.
	FieldNode = schema.Field
	// SchemaOption configures NewSchema.
	SchemaOption = schema.Option

	// Options of Encode and Decode.
	Options = codec.Options
	// Layout fixes the widths used for counters and reference ids.
	Layout = codec.Layout
	// Leaf is the value passed to a Transform.
	Leaf = codec.Leaf
	// Transform is called for every scalar and enum value being encoded or decoded.
	Transform = codec.Transform

	// ObjectValue is an object of a value graph. Its fields keep their insertion order.
	ObjectValue = types.Object
	// ArrayValue is an array of a value graph.
	ArrayValue = types.Array
	// Path locates a value inside another.
	Path = types.Path

	// AssetOptions of DecodeWithAssets.
	AssetOptions = asset.Options
	// Loader returns the asset identified by a UUID.
	Loader = asset.Loader
	// LoaderFunc turns a function into a Loader.
	LoaderFunc = asset.LoaderFunc
	// AliasResolver returns the canonical id of an asset.
	AliasResolver = asset.AliasResolver
)

// List of primitive types.
const (
	Int8      = schema.Int8
	Int16     = schema.Int16
	Int32     = schema.Int32
	Uint8     = schema.Uint8
	Uint16    = schema.Uint16
	Uint32    = schema.Uint32
	Float32   = schema.Float32
	Float64   = schema.Float64
	Bool      = schema.Bool
	String    = schema.String
	UUID      = schema.UUID
	AssetUUID = schema.AssetUUID
	Buffer    = schema.Buffer
)

// Errors returned by this package. Use errors.Is to test them.
var (
	ErrSchemaMismatch   = errors.ErrSchemaMismatch
	ErrCapacityExceeded = errors.ErrCapacityExceeded
	ErrCorruptStream    = errors.ErrCorruptStream
	ErrUnknownEnumValue = errors.ErrUnknownEnumValue
	ErrAssetLookup      = errors.ErrAssetLookup
	ErrInvalidSchema    = errors.ErrInvalidSchema
)

// LegacyLayout is the headerless layout using 8-bit ref ids and array lengths,
// and 16-bit string and buffer lengths.
var LegacyLayout = codec.LegacyLayout

// NewSchema validates the schema rooted at root.
func NewSchema(root Node, opts ...SchemaOption) (*Schema, error) {
	return schema.New(root, opts...)
}

// ParseSchema reads a schema described in JSON. See schema.Parse for the syntax.
func ParseSchema(data []byte) (*Schema, error) {
	return schema.Parse(data)
}

// WithNames makes the schema use t to number its field names.
// Every field name of the schema must be in t, otherwise NewSchema returns ErrInvalidSchema.
func WithNames(t *NameTable) SchemaOption {
	return schema.WithNames(t)
}

// NewNameTable returns a name table containing names, numbered in order.
func NewNameTable(names ...string) *NameTable {
	return schema.NewNameTable(names...)
}

// Scalar returns a scalar node of type t.
func Scalar(t PrimitiveType) Node {
	return schema.NewScalar(t)
}

// Enum returns an enum node of the given values.
func Enum(values ...string) Node {
	return schema.NewEnum(values...)
}

// Tuple returns a fixed-length array node.
func Tuple(items ...Node) Node {
	return schema.NewTuple(items...)
}

// Array returns a variable-length array node.
func Array(item Node) Node {
	return schema.NewVarArray(item)
}

// Field is a named field of an object node.
func Field(name string, n Node) FieldNode {
	return schema.F(name, n)
}

// Object returns an object node. Fields can be added later with Add,
// which is how recursive objects are described.
func Object(fields ...FieldNode) *ObjectNode {
	return schema.NewObject(fields...)
}

// NewObjectValue returns an empty object.
func NewObjectValue() *ObjectValue {
	return types.NewObject()
}

// NewArrayValue returns an array holding values.
func NewArrayValue(values ...any) *ArrayValue {
	return types.NewArray(values...)
}

// ParseJSON converts a JSON document to objects, arrays and scalars.
// Integers are returned as int64, other numbers as float64.
func ParseJSON(data []byte) (any, error) {
	return types.ParseJSON(data)
}

// MarshalJSON returns the JSON representation of a value graph.
// Buffers are written in base64 and cycles are rejected.
func MarshalJSON(v any) ([]byte, error) {
	return types.MarshalJSON(v)
}

// Encode writes v as described by s.
func Encode(v any, s *Schema, opts *Options) ([]byte, error) {
	return codec.Encode(v, s, opts)
}

// Decode reads a value written by Encode with the same schema and options.
func Decode(data []byte, s *Schema, opts *Options) (any, error) {
	return codec.Decode(data, s, opts)
}

// DecodeWithAssets decodes data and replaces every asset UUID with the asset
// returned by loader. Lookups run concurrently.
func DecodeWithAssets(ctx context.Context, data []byte, s *Schema, loader Loader, opts *AssetOptions) (any, error) {
	return asset.Decode(ctx, data, s, loader, opts)
}

// EncodeWithAliases encodes v, replacing every asset id by the canonical id returned by r.
func EncodeWithAliases(ctx context.Context, v any, s *Schema, r AliasResolver, opts *Options) ([]byte, error) {
	return asset.Encode(ctx, v, s, r, opts)
}
