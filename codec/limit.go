package codec

import (
	"github.com/cockroachdb/errors"
)

var ErrPayloadTooLarge = errors.New("payload too large")

// Limit wraps another codec to enforce a maximum allowed payload size at
// Decode time. Encode is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
type Limit struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec
	// MaxDecode is the maximum permitted length in bytes of a payload
	// passed to Decode.
	MaxDecode int
}

var _ Codec = Limit{}

func (c Limit) Name() string { return c.Inner.Name() }

func (c Limit) Encode(tree any) ([]byte, error) { return c.Inner.Encode(tree) }

func (c Limit) Decode(data []byte) (any, error) {
	if c.MaxDecode > 0 && len(data) > c.MaxDecode {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d > %d", len(data), c.MaxDecode)
	}
	return c.Inner.Decode(data)
}

// Shape forwards to Inner when it is a Shaper.
func (c Limit) Shape(data []byte) Shape {
	if s, ok := c.Inner.(Shaper); ok {
		return s.Shape(data)
	}
	return ShapeUnknown
}
