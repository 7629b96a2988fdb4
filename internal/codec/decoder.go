package codec

import (
	"github.com/cockroachdb/errors"

	serrors "github.com/chaisql/structbin/errors"
	"github.com/chaisql/structbin/internal/encoding"
	"github.com/chaisql/structbin/internal/schema"
	"github.com/chaisql/structbin/internal/types"
)

// Result holds every reference read from a stream.
type Result struct {
	// Refs are the values of the references, indexed by id.
	Refs []any
	// Nodes describing each reference.
	Nodes []schema.Node
}

// Root returns the decoded value.
func (r *Result) Root() any {
	if len(r.Refs) == 0 {
		return nil
	}
	return r.Refs[0]
}

// Set replaces the value found at path, inside the reference refID.
// An empty path replaces the reference itself.
func (r *Result) Set(refID int, path types.Path, v any) error {
	if refID < 0 || refID >= len(r.Refs) {
		return errors.Newf("unknown reference %d", refID)
	}

	if len(path) == 0 {
		r.Refs[refID] = v
		return nil
	}

	return path.Set(r.Refs[refID], v)
}

// link is a reference found while reading parentID, placed once every reference is read.
type link struct {
	refID    int
	parentID int
	path     types.Path
}

type decoder struct {
	s      *schema.Schema
	opts   *Options
	r      *encoding.Reader
	layout Layout
	plans  *plans

	res   Result
	links []link
}

// Decode reads a value written by Encode with the same schema and options.
// Objects are returned as *types.Object, arrays as *types.Array, integers as int64,
// floats as float64, UUIDs as strings and buffers as []byte. Enum values that
// were written as absent are returned as nil.
func Decode(data []byte, s *schema.Schema, opts *Options) (any, error) {
	res, err := DecodeRefs(data, s, opts)
	if err != nil {
		return nil, err
	}

	return res.Root(), nil
}

// DecodeRefs is like Decode but returns every reference of the stream.
func DecodeRefs(data []byte, s *schema.Schema, opts *Options) (*Result, error) {
	d := decoder{
		s:     s,
		opts:  opts,
		r:     encoding.NewReader(data, opts.byteOrder()),
		plans: newPlans(s),
	}

	if err := d.readLayout(); err != nil {
		return nil, err
	}

	d.res.Nodes = append(d.res.Nodes, s.Root())

	// Nodes grows as new references are discovered: it is the work queue.
	for id := 0; id < len(d.res.Nodes); id++ {
		if err := d.readRef(id); err != nil {
			return nil, err
		}
	}

	if d.r.Remaining() != 0 {
		return nil, serrors.Corruptf("%d trailing bytes", d.r.Remaining())
	}

	for _, l := range d.links {
		if err := l.path.Set(d.res.Refs[l.parentID], d.res.Refs[l.refID]); err != nil {
			return nil, errors.Wrapf(err, "cannot place reference %d in %d at %s", l.refID, l.parentID, l.path)
		}
	}

	log.Debugf("decoded %d references, %d links", len(d.res.Refs), len(d.links))
	return &d.res, nil
}

func (d *decoder) readLayout() error {
	if l := d.opts.layout(); l != nil {
		if !l.isValid() {
			return errors.Newf("invalid layout %+v", *l)
		}
		d.layout = *l
		return nil
	}

	b, err := d.r.Uint8()
	if err != nil {
		return errors.Wrap(err, "cannot read header")
	}

	ws, ok := encoding.UnpackWidths(b)
	if !ok {
		return serrors.Corruptf("invalid header %#x", b)
	}
	d.layout = layoutFromWidths(ws)
	return nil
}

func (d *decoder) readRef(id int) error {
	n := d.res.Nodes[id]

	var target any
	switch x := n.(type) {
	case *schema.Object:
		target = types.NewObject()
	case *schema.Tuple:
		target = types.MakeArray(len(x.Items))
	case *schema.VarArray:
		target = types.NewArray()
	}
	d.res.Refs = append(d.res.Refs, target)

	for _, st := range d.plans.get(n) {
		v, err := d.exec(id, &st, target)
		if err != nil {
			return err
		}
		// only a scalar or enum root has an empty path.
		if len(st.path) == 0 && (st.kind == scalarStep || st.kind == enumStep) {
			d.res.Refs[id] = v
		}
	}

	return nil
}

// exec runs st against the reference id, whose value is target.
func (d *decoder) exec(id int, st *step, target any) (any, error) {
	switch st.kind {
	case scalarStep, enumStep:
		v, err := d.readValue(id, st, st.path)
		if err != nil {
			return nil, err
		}
		if len(st.path) == 0 {
			return v, nil
		}
		return v, st.path.Set(target, v)
	case containerStep:
		var c any = types.NewObject()
		if t, ok := st.node.(*schema.Tuple); ok {
			c = types.MakeArray(len(t.Items))
		}
		return nil, st.path.Set(target, c)
	case refStep:
		return nil, d.readLink(id, st.node, st.path, target)
	case arrayStep:
		return nil, d.readArray(id, st, target)
	}

	return nil, errors.Newf("unknown step %d", st.kind)
}

func (d *decoder) readArray(id int, st *step, target any) error {
	l, err := d.r.Uint(d.layout.ArrayLength)
	if err != nil {
		return err
	}
	// every element uses at least one byte.
	if l > uint64(d.r.Remaining()) {
		return serrors.Corruptf("array length %d at %s exceeds the %d remaining bytes", l, st.path, d.r.Remaining())
	}

	var arr *types.Array
	if len(st.path) == 0 {
		arr = target.(*types.Array)
	} else {
		arr = types.MakeArray(int(l))
		if err := st.path.Set(target, arr); err != nil {
			return err
		}
	}

	for i := 0; i < int(l); i++ {
		p := st.path.ExtendIndex(i)
		if st.item.kind == refStep {
			arr.Set(i, nil)
			if err := d.readLink(id, st.item.node, p, target); err != nil {
				return err
			}
			continue
		}

		v, err := d.readValue(id, st.item, p)
		if err != nil {
			return err
		}
		arr.Set(i, v)
	}

	return nil
}

// readLink reads a reference id and records where to place it.
func (d *decoder) readLink(id int, n schema.Node, path types.Path, target any) error {
	v, err := d.r.Uint(d.layout.RefID)
	if err != nil {
		return err
	}

	if err := path.Set(target, nil); err != nil {
		return err
	}
	if v == 0 {
		return nil
	}

	refID := v - 1
	switch {
	case refID < uint64(len(d.res.Nodes)):
		if d.res.Nodes[refID] != n {
			return serrors.Corruptf("reference %d at %s used with two different shapes", refID, path)
		}
	case refID == uint64(len(d.res.Nodes)):
		d.res.Nodes = append(d.res.Nodes, n)
	default:
		return serrors.Corruptf("reference id %d out of range", refID)
	}

	d.links = append(d.links, link{refID: int(refID), parentID: id, path: path})
	return nil
}

func (d *decoder) readValue(id int, st *step, path types.Path) (any, error) {
	var v any
	var err error
	if st.kind == enumStep {
		v, err = d.readEnum(st.node.(*schema.Enum), path)
	} else {
		v, err = d.readScalar(st.node.(*schema.Scalar).Type)
	}
	if err != nil {
		return nil, err
	}

	v, err = apply(d.opts.transform(), st.node, path, id, v)
	if err != nil {
		return nil, errors.Wrapf(err, "transform at %s", path)
	}
	return v, nil
}

func (d *decoder) readEnum(e *schema.Enum, path types.Path) (any, error) {
	idx, err := d.r.Uint(e.Width())
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}

	v, ok := e.Value(idx)
	if !ok {
		return nil, serrors.Corruptf("enum index %d out of range at %s", idx, path)
	}
	return v, nil
}

func (d *decoder) readScalar(t schema.PrimitiveType) (any, error) {
	switch t {
	case schema.Int8:
		n, err := d.r.Uint8()
		return int64(int8(n)), err
	case schema.Int16:
		n, err := d.r.Uint16()
		return int64(int16(n)), err
	case schema.Int32:
		n, err := d.r.Uint32()
		return int64(int32(n)), err
	case schema.Uint8:
		n, err := d.r.Uint8()
		return int64(n), err
	case schema.Uint16:
		n, err := d.r.Uint16()
		return int64(n), err
	case schema.Uint32:
		n, err := d.r.Uint32()
		return int64(n), err
	case schema.Float32:
		f, err := d.r.Float32()
		return float64(f), err
	case schema.Float64:
		return d.r.Float64()
	case schema.Bool:
		return d.r.Bool()
	case schema.String:
		b, err := d.r.Bytes(d.layout.StringLength)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case schema.Buffer:
		return d.r.Bytes(d.layout.BufferLength)
	case schema.UUID, schema.AssetUUID:
		b, err := d.r.Raw(encoding.UUIDSize)
		if err != nil {
			return nil, err
		}
		return encoding.FormatUUID(b), nil
	}

	return nil, errors.Newf("unsupported type %s", t)
}
