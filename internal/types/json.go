package types

import (
	"bytes"
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
)

// ParseJSON parses a JSON document into a value.
// Objects become *Object, arrays *Array, integers int64, other numbers float64.
func ParseJSON(data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty JSON document")
	}

	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}

	return parseJSONValue(dataType, value)
}

func parseJSONValue(dataType jsonparser.ValueType, data []byte) (any, error) {
	switch dataType {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(data)
	case jsonparser.Number:
		i, err := jsonparser.ParseInt(data)
		if err != nil {
			// if it's not an integer or too big to fit in an int64, let's try parsing this as a floating point number
			return jsonparser.ParseFloat(data)
		}

		return i, nil
	case jsonparser.String:
		return jsonparser.ParseString(data)
	case jsonparser.Array:
		a := NewArray()
		var innerErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if innerErr != nil {
				return
			}
			var v any
			v, innerErr = parseJSONValue(dataType, value)
			a.Append(v)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON array")
		}
		return a, nil
	case jsonparser.Object:
		o := NewObject()
		err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			v, err := parseJSONValue(dataType, value)
			if err != nil {
				return err
			}
			o.Set(k, v)
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "invalid JSON object")
		}
		return o, nil
	}

	return nil, errors.Newf("unsupported JSON value type %s", dataType)
}

// MarshalJSON implements the json.Marshaler interface.
// It fails if the object contains a cycle.
func (o *Object) MarshalJSON() ([]byte, error) {
	return MarshalJSON(o)
}

// MarshalJSON implements the json.Marshaler interface.
// It fails if the array contains a cycle.
func (a *Array) MarshalJSON() ([]byte, error) {
	return MarshalJSON(a)
}

// MarshalJSON encodes v to JSON. Objects keep their field order.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	err := writeJSON(&buf, v, make(map[any]struct{}))
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any, stack map[any]struct{}) error {
	switch x := v.(type) {
	case *Object:
		if _, ok := stack[x]; ok {
			return errors.New("cannot marshal a cyclic object to JSON")
		}
		stack[x] = struct{}{}
		defer delete(stack, x)

		buf.WriteByte('{')
		for i, f := range x.fields {
			if i > 0 {
				buf.WriteString(", ")
			}
			k, err := json.Marshal(f.name)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteString(": ")
			if err := writeJSON(buf, f.value, stack); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *Array:
		if _, ok := stack[x]; ok {
			return errors.New("cannot marshal a cyclic array to JSON")
		}
		stack[x] = struct{}{}
		defer delete(stack, x)

		buf.WriteByte('[')
		for i, e := range x.values {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := writeJSON(buf, e, stack); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "cannot marshal %T to JSON", v)
	}
	buf.Write(data)
	return nil
}
