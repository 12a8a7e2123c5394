package serious

import (
	"reflect"

	"go.uber.org/zap"
)

// Options configure how models are built and how they load and dump.
type Options struct {
	// AllowAny permits empty interface fields, loaded and dumped as is.
	AllowAny bool
	// AllowMissing loads absent fields without a default as nil.
	AllowMissing bool
	// AllowUnexpected ignores keys that match no field.
	AllowUnexpected bool
	// ValidateOnLoad calls Validate on every loaded record.
	ValidateOnLoad bool
	// ValidateOnDump calls Validate before a record is dumped.
	ValidateOnDump bool
	// EnsureFrozen rejects models reaching mutable types other than
	// those in Immutable.
	EnsureFrozen bool
	Immutable    []reflect.Type

	Kinds       []Kind
	KeyMapper   KeyMapper
	FieldCodecs map[string]FieldCodec

	// TypeArgs bind the type variables of the root record, see Of.
	TypeArgs []any

	Logger *zap.Logger

	// Concurrency bounds the goroutines used by LoadMany and DumpMany.
	// Values below 2 process items sequentially.
	Concurrency int

	// Indent is used by codecs producing text, empty means compact.
	Indent string
}

type Option func(*Options)

// DefaultOptions validates on load, rejects any, missing and unexpected
// fields and maps keys to snake case.
func DefaultOptions() Options {
	return Options{
		ValidateOnLoad: true,
		Kinds:          DefaultKinds(),
		KeyMapper:      SnakeCaseKeys,
		Logger:         zap.NewNop(),
		Concurrency:    1,
	}
}

func newOptions(base Options, opts []Option) *Options {
	o := base
	for _, opt := range opts {
		opt(&o)
	}
	if o.Kinds == nil {
		o.Kinds = DefaultKinds()
	}
	if o.KeyMapper == nil {
		o.KeyMapper = NoopKeys
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &o
}

func WithAllowAny(allow bool) Option {
	return func(o *Options) { o.AllowAny = allow }
}

func WithAllowMissing(allow bool) Option {
	return func(o *Options) { o.AllowMissing = allow }
}

func WithAllowUnexpected(allow bool) Option {
	return func(o *Options) { o.AllowUnexpected = allow }
}

func WithValidateOnLoad(validate bool) Option {
	return func(o *Options) { o.ValidateOnLoad = validate }
}

func WithValidateOnDump(validate bool) Option {
	return func(o *Options) { o.ValidateOnDump = validate }
}

// WithEnsureFrozen enables the immutability check. Extra types are
// accepted as immutable.
func WithEnsureFrozen(extra ...reflect.Type) Option {
	return func(o *Options) {
		o.EnsureFrozen = true
		o.Immutable = append(o.Immutable, extra...)
	}
}

// WithKinds replaces the kinds tried for each field.
func WithKinds(kinds ...Kind) Option {
	return func(o *Options) { o.Kinds = kinds }
}

// WithCustomKinds uses the default kinds with custom kinds spliced in.
func WithCustomKinds(custom ...Kind) Option {
	return func(o *Options) { o.Kinds = DefaultKinds(custom...) }
}

func WithKeyMapper(mapper KeyMapper) Option {
	return func(o *Options) { o.KeyMapper = mapper }
}

// WithFieldCodec adds a field codec visible to this model only.
func WithFieldCodec(name string, codec FieldCodec) Option {
	return func(o *Options) {
		if o.FieldCodecs == nil {
			o.FieldCodecs = make(map[string]FieldCodec)
		}
		o.FieldCodecs[name] = codec
	}
}

// WithTypeArgs binds the root record's type variables, in the order of its
// TypeVars. Each arg is a reflect.Type, a Generic or a *TypeDescriptor.
func WithTypeArgs(args ...any) Option {
	return func(o *Options) { o.TypeArgs = args }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

func WithIndent(indent string) Option {
	return func(o *Options) { o.Indent = indent }
}
