// Package codec converts payload bytes to and from the tree data exchanged
// with serious models: map[string]any, []any and scalars.
package codec

import (
	"github.com/cockroachdb/errors"
)

// Codec encodes tree data to bytes and decodes bytes back to tree data.
// Decoded maps are keyed by string.
type Codec interface {
	Name() string
	Encode(tree any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Shaper is implemented by codecs able to classify a payload without
// decoding it.
type Shaper interface {
	Shape(data []byte) Shape
}

// Shape is the top level form of a payload.
type Shape uint8

const (
	// ShapeUnknown is reported by shapers that cannot tell without
	// decoding.
	ShapeUnknown Shape = iota
	ShapeInvalid
	ShapeNull
	ShapeObject
	ShapeArray
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeUnknown:
		return "unknown"
	case ShapeNull:
		return "null"
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	case ShapeScalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// ShapeOf classifies a decoded tree.
func ShapeOf(tree any) Shape {
	switch tree.(type) {
	case nil:
		return ShapeNull
	case map[string]any:
		return ShapeObject
	case []any:
		return ShapeArray
	default:
		return ShapeScalar
	}
}

var ErrNonStringKey = errors.New("map key is not a string")

// Normalize rewrites maps with interface keys, as produced by the YAML,
// CBOR and msgpack decoders, into map[string]any, recursively.
func Normalize(tree any) (any, error) {
	switch v := tree.(type) {
	case map[string]any:
		for k, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			v[k] = n
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			key, ok := k.(string)
			if !ok {
				return nil, errors.Wrapf(ErrNonStringKey, "%v (%T)", k, k)
			}
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	default:
		return tree, nil
	}
}

// decodeError names the codec in decode failures.
func decodeError(name string, err error) error {
	return errors.Wrapf(err, "%s decode", name)
}
