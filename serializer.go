package serious

import (
	"reflect"
)

// FieldSerializer converts one field between its tree value and its typed
// value. A serializer is built for one field of one model and holds any
// nested serializers it needs, it keeps no state across calls.
type FieldSerializer interface {
	// Load converts a tree value into a value assignable to the field.
	// The invalid Value stands for the zero value.
	Load(value any, ctx *Loading) (reflect.Value, error)

	// Dump converts a field value into its tree value.
	Dump(value reflect.Value, ctx *Dumping) (any, error)
}

// Kind is a candidate for serializing a field. Models try kinds in order
// and bind the first one that fits.
type Kind interface {
	Name() string
	Fits(f *Field) bool
	New(f *Field, m *Model) (FieldSerializer, error)
}

// Enum is implemented by named scalar types with a closed set of members.
// Members are loaded from and dumped as their underlying value.
type Enum interface {
	EnumMembers() []any
}

// Validatable records are validated after load and, when enabled, before
// dump.
type Validatable interface {
	// Validate checks the fields of the struct and returns an error
	// if any of the fields are invalid.
	Validate() error
}

// builtinKind is the closed set of kinds shipped with the package.
type builtinKind uint8

const (
	MetadataKind builtinKind = iota
	OptionalKind
	AnyKind
	MappingKind
	CollectionKind
	PrimitiveKind
	RecordKind
	TimestampKind
	UUIDKind
	DecimalKind
	EnumKind
)

// DefaultKinds returns the built in kinds in priority order with custom
// kinds spliced after the metadata and optional kinds.
func DefaultKinds(custom ...Kind) []Kind {
	kinds := make([]Kind, 0, 11+len(custom))
	kinds = append(kinds, MetadataKind, OptionalKind)
	kinds = append(kinds, custom...)
	return append(kinds,
		AnyKind,
		MappingKind,
		CollectionKind,
		PrimitiveKind,
		RecordKind,
		TimestampKind,
		UUIDKind,
		DecimalKind,
		EnumKind,
	)
}

func (k builtinKind) Name() string {
	switch k {
	case MetadataKind:
		return MetadataKindName
	case OptionalKind:
		return OptionalKindName
	case AnyKind:
		return AnyKindName
	case MappingKind:
		return MappingKindName
	case CollectionKind:
		return CollectionKindName
	case PrimitiveKind:
		return PrimitiveKindName
	case RecordKind:
		return RecordKindName
	case TimestampKind:
		return TimestampKindName
	case UUIDKind:
		return UUIDKindName
	case DecimalKind:
		return DecimalKindName
	case EnumKind:
		return EnumKindName
	default:
		return "unknown"
	}
}

func (k builtinKind) String() string { return k.Name() }

func (k builtinKind) Fits(f *Field) bool {
	d := f.Type
	t := d.Type()
	switch k {
	case MetadataKind:
		return f.Codec != ""
	case OptionalKind:
		return d.IsOptional()
	case AnyKind:
		return d.IsAny()
	case MappingKind:
		return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String && !isSetType(t)
	case CollectionKind:
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			return !isLeafType(t)
		case reflect.Map:
			return isSetType(t)
		}
		return false
	case PrimitiveKind:
		return isPrimitiveKind(t.Kind()) && !t.Implements(enumType)
	case RecordKind:
		return d.IsRecord()
	case TimestampKind:
		return t == TimeType
	case UUIDKind:
		return t == UUIDType
	case DecimalKind:
		return t == DecimalType
	case EnumKind:
		return t.Implements(enumType) && isPrimitiveKind(t.Kind())
	default:
		return false
	}
}

func (k builtinKind) New(f *Field, m *Model) (FieldSerializer, error) {
	switch k {
	case MetadataKind:
		return newMetadataSerializer(f, m)
	case OptionalKind:
		return newOptionalSerializer(f, m)
	case AnyKind:
		return anySerializer{}, nil
	case MappingKind:
		return newMappingSerializer(f, m)
	case CollectionKind:
		return newCollectionSerializer(f, m)
	case PrimitiveKind:
		return primitiveSerializer{typ: f.Type.Type()}, nil
	case RecordKind:
		return newRecordSerializer(f, m)
	case TimestampKind:
		return timestampSerializer{}, nil
	case UUIDKind:
		return uuidSerializer{}, nil
	case DecimalKind:
		return decimalSerializer{}, nil
	case EnumKind:
		return newEnumSerializer(f)
	default:
		return nil, &UnsupportedTypeError{Descriptor: f.Type, Field: f.Name}
	}
}

// NewKind builds a custom kind from its predicate and constructor.
func NewKind(
	name string,
	fits func(f *Field) bool,
	create func(f *Field, m *Model) (FieldSerializer, error),
) Kind {
	return funcKind{name: name, fits: fits, create: create}
}

type funcKind struct {
	name   string
	fits   func(f *Field) bool
	create func(f *Field, m *Model) (FieldSerializer, error)
}

func (k funcKind) Name() string                                    { return k.name }
func (k funcKind) Fits(f *Field) bool                              { return k.fits(f) }
func (k funcKind) New(f *Field, m *Model) (FieldSerializer, error) { return k.create(f, m) }

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
