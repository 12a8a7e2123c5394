package codec

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec backed by vmihailenco/msgpack/v5.
// The zero value is ready to use.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Encode(tree any) ([]byte, error) {
	return msgpack.Marshal(tree)
}

func (Msgpack) Decode(data []byte) (any, error) {
	var tree any
	if err := msgpack.Unmarshal(data, &tree); err != nil {
		return nil, decodeError("msgpack", err)
	}
	return Normalize(tree)
}
