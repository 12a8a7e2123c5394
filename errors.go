package serious

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrModelContainsAny   = errors.New("model contains an unconstrained any type")
	ErrModelContainsUnion = errors.New("model contains an untagged union type")
	ErrUnsupportedType    = errors.New("no field serializer fits type")
	ErrMissingField       = errors.New("missing field")
	ErrUnexpectedItem     = errors.New("unexpected field")
	ErrValidation         = errors.New("validation failed")
	ErrLoad               = errors.New("failed to load")
	ErrDump               = errors.New("failed to dump")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrNotRecord          = errors.New("type is not a record")
	ErrNoEnumMember       = errors.New("no enum member matches value")
	ErrMutableTypes       = errors.New("model contains mutable types")
	ErrUnexpectedPayload  = errors.New("unexpected payload shape")
	ErrInvalidDefault     = errors.New("invalid default value")
	ErrDuplicateKey       = errors.New("duplicate serialized key")
	ErrTypeArgs           = errors.New("type arguments do not match type variables")
)

// ModelContainsAnyError is returned by NewModel when the record reaches an
// empty interface and any is not allowed.
type ModelContainsAnyError struct {
	Type reflect.Type
}

func (e *ModelContainsAnyError) Error() string {
	return fmt.Sprintf("%s: %s (use WithAllowAny to permit it)", ErrModelContainsAny, e.Type)
}

func (e *ModelContainsAnyError) Unwrap() error { return ErrModelContainsAny }

// ModelContainsUnionError is returned by NewModel when the record reaches a
// non-empty interface.
type ModelContainsUnionError struct {
	Type   reflect.Type
	Unions []reflect.Type
}

func (e *ModelContainsUnionError) Error() string {
	names := make([]string, len(e.Unions))
	for i, u := range e.Unions {
		names[i] = u.String()
	}
	return fmt.Sprintf("%s: %s contains %s", ErrModelContainsUnion, e.Type, strings.Join(names, ", "))
}

func (e *ModelContainsUnionError) Unwrap() error { return ErrModelContainsUnion }

// UnsupportedTypeError names the descriptor no kind could serialize.
type UnsupportedTypeError struct {
	Descriptor *TypeDescriptor
	Field      string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrUnsupportedType, e.Descriptor)
	}
	return fmt.Sprintf("%s: %s of field %q", ErrUnsupportedType, e.Descriptor, e.Field)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

type MissingFieldError struct {
	Type   reflect.Type
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %s in loaded %s", ErrMissingField, quoteAll(e.Fields), e.Type)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

type UnexpectedItemError struct {
	Type reflect.Type
	Keys []string
}

func (e *UnexpectedItemError) Error() string {
	return fmt.Sprintf("%s %s in loaded %s", ErrUnexpectedItem, quoteAll(e.Keys), e.Type)
}

func (e *UnexpectedItemError) Unwrap() error { return ErrUnexpectedItem }

// ValidationError wraps a failure returned by a record's Validate method.
// It is never wrapped into a LoadError or DumpError.
type ValidationError struct {
	Type reflect.Type
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrValidation, e.Type, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Err} }

// LoadError is returned by a root load. Path locates the failing value
// inside Data.
type LoadError struct {
	Type reflect.Type
	Path string
	Data any
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %s from %v: %v", ErrLoad, e.Type, e.Data, e.Err)
	}
	return fmt.Sprintf("%s %q of %s from %v: %v", ErrLoad, e.Path, e.Type, e.Data, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Err} }

// DumpError is returned by a root dump. Path locates the failing field
// inside Value.
type DumpError struct {
	Type  reflect.Type
	Path  string
	Value any
	Err   error
}

func (e *DumpError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s %v of %s: %v", ErrDump, e.Value, e.Type, e.Err)
	}
	return fmt.Sprintf("%s %q of %s %v: %v", ErrDump, e.Path, e.Type, e.Value, e.Err)
}

func (e *DumpError) Unwrap() []error { return []error{ErrDump, e.Err} }

// TypeMismatchError reports a value of the wrong shape for the type
// expected at that position.
type TypeMismatchError struct {
	Expected string
	Actual   any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %T", ErrTypeMismatch, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

type EnumLookupError struct {
	Type  reflect.Type
	Value any
}

func (e *EnumLookupError) Error() string {
	return fmt.Sprintf("%v is not a valid %s: %s", e.Value, e.Type, ErrNoEnumMember)
}

func (e *EnumLookupError) Unwrap() error { return ErrNoEnumMember }

// MutableTypesError lists every mutable type found by the frozen check.
// Err is an errsx.Map keyed by type name.
type MutableTypesError struct {
	Type reflect.Type
	Err  error
}

func (e *MutableTypesError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Type, ErrMutableTypes, e.Err)
}

func (e *MutableTypesError) Unwrap() []error { return []error{ErrMutableTypes, e.Err} }

// UnexpectedPayloadError is returned by codec models before the payload
// reaches the model when its top level shape is wrong.
type UnexpectedPayloadError struct {
	Type     reflect.Type
	Expected string
	Actual   string
}

func (e *UnexpectedPayloadError) Error() string {
	return fmt.Sprintf("%s for %s: expected %s, got %s", ErrUnexpectedPayload, e.Type, e.Expected, e.Actual)
}

func (e *UnexpectedPayloadError) Unwrap() error { return ErrUnexpectedPayload }

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
