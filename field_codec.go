package serious

import (
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	ErrFieldCodecNotFound          = errors.New("field codec not found")
	ErrFieldCodecAlreadyRegistered = errors.New("a field codec with this name is already registered")
	ErrInvalidFieldCodec           = errors.New("field codec must define both Load and Dump")
)

// FieldCodec overrides the serialization of the fields naming it in their
// `codec` subtag. Load receives the raw tree value and returns a value
// assignable to the field, Dump receives the field value.
type FieldCodec struct {
	Load func(value any) (any, error)
	Dump func(value any) (any, error)
}

// FieldCodecRegistry maps codec names to field codecs.
//
// The package keeps one global registry used by every model, models can
// add their own codecs with WithFieldCodec which take precedence over the
// global ones.
type FieldCodecRegistry struct {
	mu sync.RWMutex
	m  map[string]FieldCodec
}

func NewFieldCodecRegistry() *FieldCodecRegistry {
	return &FieldCodecRegistry{m: make(map[string]FieldCodec)}
}

// Register adds a codec under name. Names are registered once.
func (r *FieldCodecRegistry) Register(name string, codec FieldCodec) error {
	if codec.Load == nil || codec.Dump == nil {
		return errors.Wrapf(ErrInvalidFieldCodec, "%q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return errors.Wrapf(ErrFieldCodecAlreadyRegistered, "%q", name)
	}
	r.m[name] = codec
	return nil
}

func (r *FieldCodecRegistry) Lookup(name string) (FieldCodec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.m[name]
	return codec, ok
}

var _defaultFieldCodecs = NewFieldCodecRegistry()

// RegisterFieldCodec registers a codec in the global registry.
func RegisterFieldCodec(name string, codec FieldCodec) error {
	return _defaultFieldCodecs.Register(name, codec)
}

// LookupFieldCodec finds a codec in the global registry.
func LookupFieldCodec(name string) (FieldCodec, bool) {
	return _defaultFieldCodecs.Lookup(name)
}
