package serious

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/SimonDaKappa/serious/codec"
)

// CodecModel loads and dumps records of type T from and to encoded
// payloads. The payload shape is checked before the model sees it.
type CodecModel[T any] struct {
	dict  *DictModel[T]
	codec codec.Codec
}

// NewCodecModel builds the model of T exchanging payloads through c.
func NewCodecModel[T any](c codec.Codec, opts ...Option) (*CodecModel[T], error) {
	dict, err := NewDictModel[T](opts...)
	if err != nil {
		return nil, err
	}
	return &CodecModel[T]{dict: dict, codec: c}, nil
}

// NewJSONModel builds a JSON model. Keys are camel case unless another
// key mapper is given, WithIndent pretty prints dumps.
func NewJSONModel[T any](opts ...Option) (*CodecModel[T], error) {
	opts = append([]Option{WithKeyMapper(CamelCaseKeys)}, opts...)
	o := newOptions(DefaultOptions(), opts)
	return NewCodecModel[T](codec.JSON{Indent: o.Indent}, opts...)
}

func NewYAMLModel[T any](opts ...Option) (*CodecModel[T], error) {
	return NewCodecModel[T](codec.YAML{}, opts...)
}

// NewCBORModel builds a CBOR model with deterministic encoding.
func NewCBORModel[T any](opts ...Option) (*CodecModel[T], error) {
	c, err := codec.NewCBOR(true)
	if err != nil {
		return nil, err
	}
	return NewCodecModel[T](c, opts...)
}

func NewMsgpackModel[T any](opts ...Option) (*CodecModel[T], error) {
	return NewCodecModel[T](codec.Msgpack{}, opts...)
}

func (c *CodecModel[T]) Dict() *DictModel[T] { return c.dict }
func (c *CodecModel[T]) Codec() codec.Codec  { return c.codec }

func (c *CodecModel[T]) Load(data []byte) (T, error) {
	var zero T
	tree, err := c.decode(data, codec.ShapeObject)
	if err != nil {
		return zero, err
	}
	return c.dict.Load(tree.(map[string]any))
}

// LoadMany loads a payload holding an array of objects.
func (c *CodecModel[T]) LoadMany(data []byte) ([]T, error) {
	tree, err := c.decode(data, codec.ShapeArray)
	if err != nil {
		return nil, err
	}

	raw := tree.([]any)
	items := make([]map[string]any, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, c.unexpected("array of objects", "array holding "+codec.ShapeOf(item).String())
		}
		items[i] = obj
	}
	return c.dict.LoadMany(items)
}

func (c *CodecModel[T]) Dump(o T) ([]byte, error) {
	tree, err := c.dict.Dump(o)
	if err != nil {
		return nil, err
	}
	return c.codec.Encode(tree)
}

func (c *CodecModel[T]) DumpMany(items []T) ([]byte, error) {
	trees, err := c.dict.DumpMany(items)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(trees))
	for i, t := range trees {
		out[i] = t
	}
	return c.codec.Encode(out)
}

// decode checks the payload shape, before decoding when the codec can tell
// it from the raw bytes, and returns the decoded tree.
func (c *CodecModel[T]) decode(data []byte, expected codec.Shape) (any, error) {
	if shaper, ok := c.codec.(codec.Shaper); ok {
		switch shape := shaper.Shape(data); shape {
		case codec.ShapeUnknown, expected:
		case codec.ShapeInvalid:
			return nil, errors.Wrapf(c.unexpected(expected.String(), shape.String()), "malformed %s payload", c.codec.Name())
		default:
			return nil, c.unexpected(expected.String(), shape.String())
		}
	}

	tree, err := c.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if shape := codec.ShapeOf(tree); shape != expected {
		return nil, c.unexpected(expected.String(), shape.String())
	}
	return tree, nil
}

func (c *CodecModel[T]) unexpected(expected, actual string) error {
	return &UnexpectedPayloadError{Type: reflect.TypeFor[T](), Expected: expected, Actual: actual}
}
