// Package codec implements the encoder and the decoder of the structbin format.
//
// A stream is made of an optional one-byte header followed by the content of every
// reference, ordered by id. The content of a reference is the flat list of its
// leaves, laid out as described by the schema: scalars and enums, lengths of
// variable-length arrays and ids of other references.
package codec

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/op/go-logging"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/refgraph"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

var log = logging.MustGetLogger("codec")

// the package is silent unless the program configures a logging backend.
func init() {
	logging.SetLevel(logging.WARNING, "codec")
}

type leafKind uint8

const (
	valueLeaf leafKind = iota + 1
	enumLeaf
	refLeaf
	lengthLeaf
)

// a leaf is a single value to be written.
type leaf struct {
	kind  leafKind
	node  schema.Node
	path  types.Path
	refID int
	// value of scalar and enum leaves, replaced by its wire form once coerced.
	value any
	// enum index, reference id + 1 or array length.
	n uint64
}

type encoder struct {
	s    *schema.Schema
	g    *refgraph.Graph
	opts *Options

	refID  int
	leaves []leaf

	maxArray  uint64
	maxString uint64
	maxBuffer uint64
}

// Encode writes v, described by s.
// Missing object fields and tuple items are written as zero values.
func Encode(v any, s *schema.Schema, opts *Options) ([]byte, error) {
	g, err := refgraph.Analyze(v, s)
	if err != nil {
		return nil, err
	}

	e := encoder{
		s:    s,
		g:    g,
		opts: opts,
	}

	for _, r := range g.Refs() {
		e.refID = r.ID
		if err := e.digest(r.Value, r.Node, nil, true); err != nil {
			return nil, err
		}
	}

	if err := e.coerce(); err != nil {
		return nil, err
	}

	l, err := e.layout()
	if err != nil {
		return nil, err
	}

	return e.write(l)
}

// digest appends the leaves of v. top is true if v is the value of the reference
// being written, in which case it is written inline even if n is a reference slot.
func (e *encoder) digest(v any, n schema.Node, path types.Path, top bool) error {
	switch x := n.(type) {
	case *schema.Scalar, *schema.Enum:
		kind := valueLeaf
		if _, ok := x.(*schema.Enum); ok {
			kind = enumLeaf
		}
		e.leaves = append(e.leaves, leaf{kind: kind, node: n, path: path, refID: e.refID, value: v})
		return nil
	}

	if !top && e.s.IsRefSlot(n) {
		return e.ref(v, n, path)
	}

	switch x := n.(type) {
	case *schema.Object:
		var o *types.Object
		if v != nil {
			var ok bool
			if o, ok = v.(*types.Object); !ok {
				return serrors.NewSchemaMismatch(path.String(), "object", v)
			}
		}
		for _, f := range e.s.Fields(x) {
			var fv any
			if o != nil {
				fv, _ = o.Get(f.Name)
			}
			if err := e.digest(fv, f.Node, path.ExtendField(f.Name), false); err != nil {
				return err
			}
		}
	case *schema.Tuple:
		a, err := asArray(v, path, "tuple")
		if err != nil {
			return err
		}
		if a != nil && a.Len() > len(x.Items) {
			return serrors.NewSchemaMismatch(path.String(), "tuple of "+strconv.Itoa(len(x.Items))+" items", v)
		}
		for i, item := range x.Items {
			var iv any
			if a != nil {
				iv, _ = a.Get(i)
			}
			if err := e.digest(iv, item, path.ExtendTuple(i), false); err != nil {
				return err
			}
		}
	case *schema.VarArray:
		a, err := asArray(v, path, "array")
		if err != nil {
			return err
		}
		var values []any
		if a != nil {
			values = a.Values()
		}

		l := uint64(len(values))
		if l > e.maxArray {
			e.maxArray = l
		}
		e.leaves = append(e.leaves, leaf{kind: lengthLeaf, path: path, refID: e.refID, n: l})

		ref := e.s.IsRefItem(x)
		for i, iv := range values {
			p := path.ExtendIndex(i)
			if ref {
				err = e.ref(iv, x.Item, p)
			} else {
				err = e.digest(iv, x.Item, p, false)
			}
			if err != nil {
				return err
			}
		}
	default:
		return errors.Newf("unsupported node %T", n)
	}

	return nil
}

func (e *encoder) ref(v any, n schema.Node, path types.Path) error {
	var id uint64
	if !refgraph.IsNil(v) {
		rid, ok := e.g.ID(v, n)
		if !ok {
			return serrors.NewSchemaMismatch(path.String(), n.Kind().String(), v)
		}
		id = uint64(rid) + 1
	}

	e.leaves = append(e.leaves, leaf{kind: refLeaf, node: n, path: path, refID: e.refID, n: id})
	return nil
}

func asArray(v any, path types.Path, expected string) (*types.Array, error) {
	if v == nil {
		return nil, nil
	}

	a, ok := v.(*types.Array)
	if !ok {
		return nil, serrors.NewSchemaMismatch(path.String(), expected, v)
	}
	return a, nil
}

// coerce applies the transform to every value and converts it to its wire form.
func (e *encoder) coerce() error {
	fn := e.opts.transform()

	for i := range e.leaves {
		l := &e.leaves[i]
		if l.kind != valueLeaf && l.kind != enumLeaf {
			continue
		}

		v, err := apply(fn, l.node, l.path, l.refID, l.value)
		if err != nil {
			return errors.Wrapf(err, "transform at %s", l.path)
		}

		if l.kind == enumLeaf {
			err = e.coerceEnum(l, v)
		} else {
			err = e.coerceScalar(l, v)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) coerceEnum(l *leaf, v any) error {
	en := l.node.(*schema.Enum)
	if v == nil {
		l.n = 0
		return nil
	}

	str, ok := v.(string)
	if !ok {
		return serrors.NewSchemaMismatch(l.path.String(), "enum", v)
	}

	l.n = en.Index(str)
	if l.n == 0 {
		if e.opts.strictEnums() {
			return errors.Wrapf(serrors.ErrUnknownEnumValue, "%q at %s", str, l.path)
		}
		log.Debugf("unknown enum value %q at %s, written as absent", str, l.path)
	}

	return nil
}

func (e *encoder) coerceScalar(l *leaf, v any) error {
	t := l.node.(*schema.Scalar).Type
	path := l.path.String()

	switch t {
	case schema.Int8, schema.Int16, schema.Int32:
		n, err := toInt(v, path, t)
		if err != nil {
			return err
		}
		lo, hi := signedRange(t)
		if n < lo || n > hi {
			return errors.Wrapf(serrors.ErrCapacityExceeded, "%s: %d overflows %s", path, n, t)
		}
		l.value = n
	case schema.Uint8, schema.Uint16, schema.Uint32:
		n, err := toInt(v, path, t)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.Wrapf(serrors.ErrCapacityExceeded, "%s: negative value %d for %s", path, n, t)
		}
		max := encoding.Width(t.Size()).Max()
		if uint64(n) > max {
			return serrors.NewCapacityExceeded(path, t.String(), uint64(n), max)
		}
		l.value = n
	case schema.Float32, schema.Float64:
		if v == nil {
			l.value = float64(0)
			return nil
		}
		f, ok := types.AsFloat64(v)
		if !ok {
			return serrors.NewSchemaMismatch(path, t.String(), v)
		}
		if t == schema.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return errors.Wrapf(serrors.ErrCapacityExceeded, "%s: %g overflows float32", path, f)
		}
		l.value = f
	case schema.Bool:
		if v == nil {
			l.value = false
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return serrors.NewSchemaMismatch(path, t.String(), v)
		}
		l.value = b
	case schema.String:
		var b []byte
		switch x := v.(type) {
		case nil:
		case string:
			b = []byte(x)
		default:
			return serrors.NewSchemaMismatch(path, t.String(), v)
		}
		if uint64(len(b)) > e.maxString {
			e.maxString = uint64(len(b))
		}
		l.value = b
	case schema.Buffer:
		var b []byte
		switch x := v.(type) {
		case nil:
		case []byte:
			b = x
		default:
			return serrors.NewSchemaMismatch(path, t.String(), v)
		}
		if uint64(len(b)) > e.maxBuffer {
			e.maxBuffer = uint64(len(b))
		}
		l.value = b
	case schema.UUID, schema.AssetUUID:
		if v == nil {
			l.value = uuid.Nil
			return nil
		}
		id, err := encoding.ParseUUID(v)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "at %s", path), serrors.ErrSchemaMismatch)
		}
		l.value = id
	default:
		return errors.Newf("unsupported type %s", t)
	}

	return nil
}

func toInt(v any, path string, t schema.PrimitiveType) (int64, error) {
	if v == nil {
		return 0, nil
	}

	n, ok := types.AsInt64(v)
	if !ok {
		return 0, serrors.NewSchemaMismatch(path, t.String(), v)
	}
	return n, nil
}

func signedRange(t schema.PrimitiveType) (int64, int64) {
	switch t {
	case schema.Int8:
		return math.MinInt8, math.MaxInt8
	case schema.Int16:
		return math.MinInt16, math.MaxInt16
	}
	return math.MinInt32, math.MaxInt32
}
