package serious

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

///////////////////////////////////////////////////////////////////////////////
// metadata
///////////////////////////////////////////////////////////////////////////////

type metadataSerializer struct {
	typ   reflect.Type
	codec FieldCodec
}

func newMetadataSerializer(f *Field, m *Model) (FieldSerializer, error) {
	codec, ok := m.fieldCodec(f.Codec)
	if !ok {
		return nil, errors.Wrapf(ErrFieldCodecNotFound, "%q for field %s", f.Codec, f.Name)
	}
	typ := f.Type.Type()
	if f.Type.IsOptional() {
		typ = reflect.PointerTo(typ)
	}
	return metadataSerializer{typ: typ, codec: codec}, nil
}

func (s metadataSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	loaded, err := s.codec.Load(value)
	if err != nil {
		return reflect.Value{}, err
	}
	if loaded == nil {
		return reflect.Value{}, nil
	}
	out := reflect.New(s.typ).Elem()
	if err := assign(out, reflect.ValueOf(loaded)); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func (s metadataSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	var v any
	if value.IsValid() {
		v = value.Interface()
	}
	return s.codec.Dump(v)
}

///////////////////////////////////////////////////////////////////////////////
// optional
///////////////////////////////////////////////////////////////////////////////

type optionalSerializer struct {
	ptr   reflect.Type
	inner FieldSerializer
}

func newOptionalSerializer(f *Field, m *Model) (FieldSerializer, error) {
	inner, err := m.FindSerializer(f.withType(f.Type.NonOptional()))
	if err != nil {
		return nil, err
	}
	return optionalSerializer{ptr: reflect.PointerTo(f.Type.Type()), inner: inner}, nil
}

func (s optionalSerializer) Load(value any, ctx *Loading) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(s.ptr), nil
	}
	loaded, err := s.inner.Load(value, ctx)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(s.ptr.Elem())
	if err := assign(out.Elem(), loaded); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func (s optionalSerializer) Dump(value reflect.Value, ctx *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil
		}
		value = value.Elem()
	}
	return s.inner.Dump(value, ctx)
}

///////////////////////////////////////////////////////////////////////////////
// any
///////////////////////////////////////////////////////////////////////////////

type anySerializer struct{}

func (anySerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	if value == nil {
		return reflect.Value{}, nil
	}
	return reflect.ValueOf(value), nil
}

func (anySerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	return value.Interface(), nil
}

///////////////////////////////////////////////////////////////////////////////
// mapping
///////////////////////////////////////////////////////////////////////////////

type mappingSerializer struct {
	typ   reflect.Type
	value FieldSerializer
}

func newMappingSerializer(f *Field, m *Model) (FieldSerializer, error) {
	vd, ok := f.Type.Param(Pos(1))
	if !ok {
		vd = anyDescriptor()
	}
	value, err := m.FindSerializer(f.withType(vd))
	if err != nil {
		return nil, err
	}
	return mappingSerializer{typ: f.Type.Type(), value: value}, nil
}

func (s mappingSerializer) Load(value any, ctx *Loading) (reflect.Value, error) {
	data, ok := value.(map[string]any)
	if !ok {
		return reflect.Value{}, &TypeMismatchError{Expected: s.typ.String(), Actual: value}
	}

	keys := sortedKeys(data)
	out := reflect.MakeMapWithSize(s.typ, len(keys))
	for _, key := range keys {
		elem := reflect.New(s.typ.Elem()).Elem()
		if err := ctx.runInto(elem, mapEntry(key), s.value, data[key]); err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(s.typ.Key()), elem)
	}
	return out, nil
}

func (s mappingSerializer) Dump(value reflect.Value, ctx *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}

	keys := value.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make(map[string]any, len(keys))
	for _, key := range keys {
		dumped, err := ctx.Run(mapEntry(key.String()), s.value, value.MapIndex(key))
		if err != nil {
			return nil, err
		}
		out[key.String()] = dumped
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// collection
///////////////////////////////////////////////////////////////////////////////

type collectionSerializer struct {
	typ  reflect.Type
	item FieldSerializer
}

func newCollectionSerializer(f *Field, m *Model) (FieldSerializer, error) {
	id, ok := f.Type.Param(Pos(0))
	if !ok {
		id = anyDescriptor()
	}
	item, err := m.FindSerializer(f.withType(id))
	if err != nil {
		return nil, err
	}
	return collectionSerializer{typ: f.Type.Type(), item: item}, nil
}

func (s collectionSerializer) Load(value any, ctx *Loading) (reflect.Value, error) {
	items, ok := value.([]any)
	if !ok {
		return reflect.Value{}, &TypeMismatchError{Expected: s.typ.String(), Actual: value}
	}

	var out reflect.Value
	switch s.typ.Kind() {
	case reflect.Array:
		if len(items) != s.typ.Len() {
			return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "expected %d items for %s, got %d", s.typ.Len(), s.typ, len(items))
		}
		out = reflect.New(s.typ).Elem()
	case reflect.Map:
		out = reflect.MakeMapWithSize(s.typ, len(items))
	default:
		out = reflect.MakeSlice(s.typ, len(items), len(items))
	}

	for i, item := range items {
		if s.typ.Kind() == reflect.Map {
			key := reflect.New(s.typ.Key()).Elem()
			if err := ctx.runInto(key, indexEntry(i), s.item, item); err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(key, reflect.Zero(s.typ.Elem()))
			continue
		}
		if err := ctx.runInto(out.Index(i), indexEntry(i), s.item, item); err != nil {
			return reflect.Value{}, err
		}
	}
	return out, nil
}

func (s collectionSerializer) Dump(value reflect.Value, ctx *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}

	if value.Kind() == reflect.Map {
		return s.dumpSet(value, ctx)
	}

	out := make([]any, value.Len())
	for i := range out {
		dumped, err := ctx.Run(indexEntry(i), s.item, value.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = dumped
	}
	return out, nil
}

// dumpSet dumps the members of a set in a stable order.
func (s collectionSerializer) dumpSet(value reflect.Value, ctx *Dumping) (any, error) {
	keys := value.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	out := make([]any, len(keys))
	for i, key := range keys {
		dumped, err := ctx.Run(indexEntry(i), s.item, key)
		if err != nil {
			return nil, err
		}
		out[i] = dumped
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// primitive
///////////////////////////////////////////////////////////////////////////////

type primitiveSerializer struct {
	typ reflect.Type
}

func (s primitiveSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	out := reflect.New(s.typ).Elem()
	if err := coerce(out, value); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func (s primitiveSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	return basicValue(value), nil
}

// coerce stores a scalar tree value into a primitive field, converting
// between strings, numbers and booleans the way the field's kind requires.
func coerce(field reflect.Value, value any) error {
	switch v := value.(type) {
	case string:
		if field.Kind() == reflect.String {
			field.SetString(v)
			return nil
		}
		return setFromString(field, v)
	case json.Number:
		if field.Kind() == reflect.String {
			field.SetString(v.String())
			return nil
		}
		return setFromString(field, v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		switch field.Kind() {
		case reflect.Bool:
			field.SetBool(rv.Bool())
			return nil
		case reflect.String:
			field.SetString(fmt.Sprint(rv.Bool()))
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setNumber(field, float64(rv.Int()), rv.Int(), true)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			if field.Kind() >= reflect.Uint && field.Kind() <= reflect.Uint64 {
				return setUint(field, rv.Uint())
			}
			return fmt.Errorf("value %d overflows %s", rv.Uint(), field.Type())
		}
		return setNumber(field, float64(rv.Uint()), int64(rv.Uint()), true)
	case reflect.Float32, reflect.Float64:
		return setFloatNumber(field, rv.Float())
	}
	return &TypeMismatchError{Expected: field.Type().String(), Actual: value}
}

// setFloatNumber stores a float, range checking it before converting it to
// an integer.
func setFloatNumber(field reflect.Value, f float64) error {
	integral := f == math.Trunc(f) && !math.IsInf(f, 0)
	switch field.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if integral && f >= 0 && f < 1<<64 {
			return setUint(field, uint64(f))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if integral && (f < math.MinInt64 || f >= 1<<63) {
			return fmt.Errorf("value %v overflows %s", f, field.Type())
		}
	}
	if integral && f >= math.MinInt64 && f < 1<<63 {
		return setNumber(field, f, int64(f), true)
	}
	return setNumber(field, f, 0, false)
}

// setNumber stores a number given both as float and, when integral, as
// int64.
func setNumber(field reflect.Value, f float64, i int64, integral bool) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !integral {
			return fmt.Errorf("cannot load non-integral %v into %s", f, field.Type())
		}
		return setInt(field, i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !integral || i < 0 {
			return fmt.Errorf("cannot load %v into %s", f, field.Type())
		}
		return setUint(field, uint64(i))
	case reflect.Float32, reflect.Float64:
		return setFloat(field, f)
	case reflect.Bool:
		field.SetBool(f != 0)
		return nil
	case reflect.String:
		if integral {
			field.SetString(fmt.Sprint(i))
		} else {
			field.SetString(fmt.Sprint(f))
		}
		return nil
	}
	return &TypeMismatchError{Expected: field.Type().String(), Actual: f}
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeOf(""),
	reflect.Bool:    reflect.TypeOf(false),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

// basicValue strips a named scalar down to its predeclared type.
func basicValue(v reflect.Value) any {
	if bt, ok := basicTypes[v.Kind()]; ok {
		return v.Convert(bt).Interface()
	}
	return v.Interface()
}

///////////////////////////////////////////////////////////////////////////////
// record
///////////////////////////////////////////////////////////////////////////////

type recordSerializer struct {
	model *Model
}

func newRecordSerializer(f *Field, m *Model) (FieldSerializer, error) {
	child, err := m.childModel(f.Type.NonOptional())
	if err != nil {
		return nil, err
	}
	return recordSerializer{model: child}, nil
}

func (s recordSerializer) Load(value any, ctx *Loading) (reflect.Value, error) {
	return s.model.load(value, ctx)
}

func (s recordSerializer) Dump(value reflect.Value, ctx *Dumping) (any, error) {
	out, err := s.model.dump(value, ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// timestamp
///////////////////////////////////////////////////////////////////////////////

type timestampSerializer struct{}

func (timestampSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	var seconds float64
	if err := coerce(reflect.ValueOf(&seconds).Elem(), value); err != nil {
		return reflect.Value{}, errors.Wrap(err, "timestamp must be numeric seconds")
	}
	whole, frac := math.Modf(seconds)
	micros := math.Round(frac * 1e6)
	t := time.Unix(int64(whole), int64(micros)*int64(time.Microsecond)).UTC()
	return reflect.ValueOf(t), nil
}

func (timestampSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	t := value.Interface().(time.Time)
	return float64(t.Unix()) + float64(t.Nanosecond()/int(time.Microsecond))/1e6, nil
}

///////////////////////////////////////////////////////////////////////////////
// uuid
///////////////////////////////////////////////////////////////////////////////

type uuidSerializer struct{}

func (uuidSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	s, ok := value.(string)
	if !ok {
		return reflect.Value{}, &TypeMismatchError{Expected: "uuid string", Actual: value}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "invalid uuid %q", s)
	}
	return reflect.ValueOf(id), nil
}

func (uuidSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	return value.Interface().(uuid.UUID).String(), nil
}

///////////////////////////////////////////////////////////////////////////////
// decimal
///////////////////////////////////////////////////////////////////////////////

type decimalSerializer struct{}

func (decimalSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := value.(type) {
	case string:
		d, err = decimal.NewFromString(v)
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			d = decimal.NewFromInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			d, err = decimal.NewFromString(fmt.Sprint(rv.Uint()))
		default:
			return reflect.Value{}, &TypeMismatchError{Expected: "decimal string", Actual: value}
		}
	}
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "invalid decimal %v", value)
	}
	return reflect.ValueOf(d), nil
}

func (decimalSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	return value.Interface().(decimal.Decimal).String(), nil
}

///////////////////////////////////////////////////////////////////////////////
// enum
///////////////////////////////////////////////////////////////////////////////

type enumSerializer struct {
	typ     reflect.Type
	members []reflect.Value
	raw     []any
}

func newEnumSerializer(f *Field) (FieldSerializer, error) {
	typ := f.Type.Type()
	zero := reflect.Zero(typ).Interface().(Enum)

	s := enumSerializer{typ: typ}
	for _, m := range zero.EnumMembers() {
		mv := reflect.ValueOf(m)
		if !mv.IsValid() || mv.Type() != typ {
			return nil, errors.Newf("enum %s lists member %v of type %T", typ, m, m)
		}
		s.members = append(s.members, mv)
		s.raw = append(s.raw, basicValue(mv))
	}
	return s, nil
}

func (s enumSerializer) Load(value any, _ *Loading) (reflect.Value, error) {
	raw := reflect.New(basicTypes[s.typ.Kind()]).Elem()
	if err := coerce(raw, value); err != nil {
		return reflect.Value{}, &EnumLookupError{Type: s.typ, Value: value}
	}
	if i := slices.Index(s.raw, raw.Interface()); i >= 0 {
		return s.members[i], nil
	}
	return reflect.Value{}, &EnumLookupError{Type: s.typ, Value: value}
}

func (s enumSerializer) Dump(value reflect.Value, _ *Dumping) (any, error) {
	value = indirect(value)
	if !value.IsValid() {
		return nil, nil
	}
	return basicValue(value), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
