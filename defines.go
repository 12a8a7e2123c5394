package serious

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// constants for subtag prefixes in the serious tag
const (
	SeriousTagName              = "serious"
	JSONTagName                 = "json"
	KeySubTagPrefix             = "key"
	DefaultValueSubTagPrefix    = "default"
	CodecSubTagPrefix           = "codec"
	SkipFieldTag                = "-"
	DefaultSubTagScopeDelimiter = byte('\'')
	DefaultKeyValueTagDelimiter = ":"
)

// Kind name constants for the built in field serializer kinds.
const (
	MetadataKindName   = "metadata"
	OptionalKindName   = "optional"
	AnyKindName        = "any"
	MappingKindName    = "mapping"
	CollectionKindName = "collection"
	PrimitiveKindName  = "primitive"
	RecordKindName     = "record"
	TimestampKindName  = "timestamp"
	UUIDKindName       = "uuid"
	DecimalKindName    = "decimal"
	EnumKindName       = "enum"
)

// reflect.TypeOf constants for type checks
var (
	AnyType         = reflect.TypeOf((*any)(nil)).Elem()
	TimeType        = reflect.TypeOf(time.Time{})
	UUIDType        = reflect.TypeOf(uuid.UUID{})
	DecimalType     = reflect.TypeOf(decimal.Decimal{})
	EmptyStructType = reflect.TypeOf(struct{}{})

	enumType          = reflect.TypeOf((*Enum)(nil)).Elem()
	validatableType   = reflect.TypeOf((*Validatable)(nil)).Elem()
	parameterizedType = reflect.TypeOf((*Parameterized)(nil)).Elem()
)

// leafTypes are composite types serialized as scalars. uuid.UUID is an
// array and the others are structs, none of them are walked.
var leafTypes = []reflect.Type{TimeType, UUIDType, DecimalType}
