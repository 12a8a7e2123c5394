package serious

import (
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Model is the compiled serialization plan of one record type: one
// serializer per field, resolved once, plus the policy applied on load and
// dump. A built model is immutable and safe for concurrent use.
type Model struct {
	descriptor *TypeDescriptor
	opts       *Options
	fields     []*fieldPlan
	keys       []string
	arena      *modelArena
	logger     *zap.Logger
}

// fieldPlan binds a declared field to its serialized key and serializer.
type fieldPlan struct {
	field      *Field
	key        string
	kind       string
	serializer FieldSerializer
}

// modelArena holds the models of one root build, at most one per
// descriptor. A model is stored before its fields are resolved so records
// referring to themselves find it instead of recursing.
type modelArena struct {
	models map[string]*Model
}

// NewModel builds the model of the record described by d and of every
// record reachable from it.
func NewModel(d *TypeDescriptor, opts ...Option) (*Model, error) {
	return newRootModel(d, newOptions(DefaultOptions(), opts))
}

func newRootModel(d *TypeDescriptor, o *Options) (*Model, error) {
	if d == nil || !d.IsRecord() || d.IsOptional() {
		return nil, errors.Wrapf(ErrNotRecord, "can only build models of structs, got %v", d)
	}

	types := Scan(d)
	if !o.AllowAny && types.HasAny() {
		return nil, &ModelContainsAnyError{Type: d.Type()}
	}
	if unions := types.Unions(); len(unions) > 0 {
		return nil, &ModelContainsUnionError{Type: d.Type(), Unions: unions}
	}
	if o.EnsureFrozen {
		if err := checkFrozen(d, types, o.Immutable); err != nil {
			return nil, err
		}
	}

	arena := &modelArena{models: make(map[string]*Model)}
	m, err := arena.build(d, o)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("model built",
		zap.Stringer("type", d),
		zap.Int("models", len(arena.models)),
	)
	return m, nil
}

func (a *modelArena) build(d *TypeDescriptor, o *Options) (*Model, error) {
	m := &Model{
		descriptor: d,
		opts:       o,
		arena:      a,
		logger:     o.Logger.With(zap.Stringer("model", d)),
	}
	a.models[d.Key()] = m

	fields, err := d.Fields()
	if err != nil {
		return nil, err
	}

	owners := make(map[string]string, len(fields))
	for _, f := range fields {
		key := f.Key
		if key == "" {
			key = o.KeyMapper.Key(f.Name)
		}
		if other, dup := owners[key]; dup {
			return nil, errors.Wrapf(ErrDuplicateKey, "%q used by fields %s and %s of %s", key, other, f.Name, d)
		}
		owners[key] = f.Name

		if f.HasDefault {
			zero := reflect.New(d.Type().FieldByIndex(f.Index).Type).Elem()
			if err := setFromString(zero, f.Default); err != nil {
				return nil, errors.Wrapf(ErrInvalidDefault, "%q for field %s of %s: %v", f.Default, f.Name, d, err)
			}
		}

		kind, serializer, err := m.resolve(f)
		if err != nil {
			return nil, err
		}
		m.fields = append(m.fields, &fieldPlan{
			field:      f,
			key:        key,
			kind:       kind.Name(),
			serializer: serializer,
		})
		m.keys = append(m.keys, key)

		m.logger.Debug("resolved field serializer",
			zap.String("field", f.Name),
			zap.String("key", key),
			zap.String("kind", kind.Name()),
			zap.Stringer("type", f.Type),
		)
	}
	return m, nil
}

// FindSerializer builds the serializer of the first kind fitting f.
// Serializers of containers use it for their items.
func (m *Model) FindSerializer(f *Field) (FieldSerializer, error) {
	_, s, err := m.resolve(f)
	return s, err
}

func (m *Model) resolve(f *Field) (Kind, FieldSerializer, error) {
	for _, kind := range m.opts.Kinds {
		if !kind.Fits(f) {
			continue
		}
		s, err := kind.New(f, m)
		if err != nil {
			return nil, nil, err
		}
		return kind, s, nil
	}
	return nil, nil, &UnsupportedTypeError{Descriptor: f.Type, Field: f.Name}
}

// childModel returns the arena's model for d, building it with this
// model's options when it doesn't exist yet.
func (m *Model) childModel(d *TypeDescriptor) (*Model, error) {
	if child, ok := m.arena.models[d.Key()]; ok {
		return child, nil
	}
	m.logger.Debug("building child model", zap.Stringer("child", d))
	return m.arena.build(d, m.opts)
}

func (m *Model) fieldCodec(name string) (FieldCodec, bool) {
	if codec, ok := m.opts.FieldCodecs[name]; ok {
		return codec, true
	}
	return LookupFieldCodec(name)
}

func (m *Model) Descriptor() *TypeDescriptor { return m.descriptor }
func (m *Model) Type() reflect.Type          { return m.descriptor.Type() }

// Keys lists the serialized keys in field declaration order.
func (m *Model) Keys() []string { return append([]string(nil), m.keys...) }

// Kind names the kind serializing the field with the given key.
func (m *Model) Kind(key string) (string, bool) {
	plan, ok := lo.Find(m.fields, func(p *fieldPlan) bool { return p.key == key })
	if !ok {
		return "", false
	}
	return plan.kind, true
}

///////////////////////////////////////////////////////////////////////////////
// Load
///////////////////////////////////////////////////////////////////////////////

// Load builds a record from a tree map. Failures other than validation are
// returned as *LoadError locating the failing value.
func (m *Model) Load(data any) (reflect.Value, error) {
	ctx := &Loading{}
	v, err := m.load(data, ctx)
	if err != nil {
		if isValidationError(err) {
			return reflect.Value{}, err
		}
		m.logger.Debug("load failed", zap.String("path", ctx.Path()), zap.Error(err))
		return reflect.Value{}, &LoadError{Type: m.Type(), Path: ctx.Path(), Data: data, Err: err}
	}
	return v, nil
}

func (m *Model) load(data any, ctx *Loading) (reflect.Value, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return reflect.Value{}, &TypeMismatchError{Expected: m.Type().String(), Actual: data}
	}

	if err := m.checkMissing(obj); err != nil {
		return reflect.Value{}, err
	}
	if !m.opts.AllowUnexpected {
		if err := m.checkUnexpected(obj); err != nil {
			return reflect.Value{}, err
		}
	}

	out := reflect.New(m.Type()).Elem()
	for _, p := range m.fields {
		target := out.FieldByIndex(p.field.Index)
		value, present := obj[p.key]
		if !present {
			if p.field.HasDefault {
				// checked when the model was built
				if err := setFromString(target, p.field.Default); err != nil {
					return reflect.Value{}, err
				}
			}
			continue
		}
		if err := ctx.runInto(target, fieldEntry(p.key), p.serializer, value); err != nil {
			return reflect.Value{}, err
		}
	}

	if m.opts.ValidateOnLoad {
		if err := validate(out); err != nil {
			return reflect.Value{}, err
		}
	}
	return out, nil
}

// checkMissing reports absent fields lacking a default unless missing
// fields are allowed. Absent fields are never dispatched, they keep their
// default or zero value.
func (m *Model) checkMissing(obj map[string]any) error {
	if m.opts.AllowMissing {
		return nil
	}
	missing := lo.FilterMap(m.fields, func(p *fieldPlan, _ int) (string, bool) {
		_, present := obj[p.key]
		return p.key, !present && !p.field.HasDefault
	})
	if len(missing) == 0 {
		return nil
	}
	return &MissingFieldError{Type: m.Type(), Fields: missing}
}

func (m *Model) checkUnexpected(obj map[string]any) error {
	unexpected := lo.Without(lo.Keys(obj), m.keys...)
	if len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return &UnexpectedItemError{Type: m.Type(), Keys: unexpected}
}

///////////////////////////////////////////////////////////////////////////////
// Dump
///////////////////////////////////////////////////////////////////////////////

// Dump converts a record, or a non-nil pointer to one, into a tree map.
// Failures other than validation are returned as *DumpError.
func (m *Model) Dump(value any) (map[string]any, error) {
	ctx := &Dumping{}
	out, err := m.dump(reflect.ValueOf(value), ctx)
	if err != nil {
		if isValidationError(err) {
			return nil, err
		}
		m.logger.Debug("dump failed", zap.String("path", ctx.Path()), zap.Error(err))
		return nil, &DumpError{Type: m.Type(), Path: ctx.Path(), Value: value, Err: err}
	}
	return out, nil
}

func (m *Model) dump(value reflect.Value, ctx *Dumping) (map[string]any, error) {
	value = indirect(value)
	if value.IsValid() && value.Kind() == reflect.Pointer && !value.IsNil() {
		value = value.Elem()
	}
	if !value.IsValid() || value.Type() != m.Type() {
		var actual any
		if value.IsValid() && value.CanInterface() {
			actual = value.Interface()
		}
		return nil, &TypeMismatchError{Expected: m.Type().String(), Actual: actual}
	}

	if m.opts.ValidateOnDump {
		if err := validate(value); err != nil {
			return nil, err
		}
	}

	out := make(map[string]any, len(m.fields))
	for _, p := range m.fields {
		dumped, err := ctx.Run(fieldEntry(p.key), p.serializer, value.FieldByIndex(p.field.Index))
		if err != nil {
			return nil, err
		}
		out[p.key] = dumped
	}
	return out, nil
}

// validate calls Validate on the record, through a pointer so both value
// and pointer receivers are found.
func validate(v reflect.Value) error {
	ptr := reflect.New(v.Type())
	if v.CanAddr() {
		ptr = v.Addr()
	} else {
		ptr.Elem().Set(v)
	}
	if !ptr.Type().Implements(validatableType) {
		return nil
	}
	if err := ptr.Interface().(Validatable).Validate(); err != nil {
		return &ValidationError{Type: v.Type(), Err: err}
	}
	return nil
}

func isValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
