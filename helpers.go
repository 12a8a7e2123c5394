package serious

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

///////////////////////////////////////////////////////////////////////////////
// Helpers
///////////////////////////////////////////////////////////////////////////////

// Set field value from its string form with type conversion
//
// Used for `default` subtags and for string tree values loaded into
// primitive fields. Currently supports:
//   - string to string
//   - string to int/uint (with overflow checking)
//   - string to bool
//   - string to float (with overflow checking)
//   - string to uuid.UUID, decimal.Decimal and time.Time
//   - string to []byte (raw byte slice)
//   - string to pointer of any of the above
//   - TextUnmarshaler support for custom types
//   - Interface{} support for any type
func setFromString(field reflect.Value, value string) error {
	// Leaf types first, time.Time's own UnmarshalText only accepts RFC3339
	switch field.Type() {
	case TimeType:
		return setTimeValue(field, value)
	case UUIDType:
		return setUUIDValue(field, value)
	case DecimalType:
		return setDecimalValue(field, value)
	}

	// Handle nil/empty values
	if value == "" {
		return handleEmptyValue(field)
	}

	// Check for pointer to TextUnmarshaler
	if field.CanAddr() {
		if unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return unmarshaler.UnmarshalText([]byte(value))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntValue(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUintValue(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloatValue(field, value)
	case reflect.Bool:
		return setBoolValue(field, value)
	case reflect.Slice:
		return setSliceValue(field, value)
	case reflect.Pointer:
		return setPointerValue(field, value)
	case reflect.Interface:
		return setInterfaceValue(field, value)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
}

// handleEmptyValue handles empty string values for different field types
func handleEmptyValue(field reflect.Value) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString("")
		return nil
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		field.SetZero()
		return nil
	default:
		return fmt.Errorf("cannot set empty value for field type: %s", field.Type())
	}
}

// setIntValue sets integer field values with overflow checking
func setIntValue(field reflect.Value, value string) error {
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("error converting value to int: %w", err)
	}
	return setInt(field, intValue)
}

func setInt(field reflect.Value, intValue int64) error {
	if field.OverflowInt(intValue) {
		return fmt.Errorf("value %d overflows %s", intValue, field.Type())
	}
	field.SetInt(intValue)
	return nil
}

// setUintValue sets unsigned integer field values with overflow checking
func setUintValue(field reflect.Value, value string) error {
	uintValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("error converting value to uint: %w", err)
	}
	return setUint(field, uintValue)
}

func setUint(field reflect.Value, uintValue uint64) error {
	if field.OverflowUint(uintValue) {
		return fmt.Errorf("value %d overflows %s", uintValue, field.Type())
	}
	field.SetUint(uintValue)
	return nil
}

// setFloatValue sets float field values with overflow checking
func setFloatValue(field reflect.Value, value string) error {
	floatValue, err := strconv.ParseFloat(value, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to float: %w", err)
	}
	return setFloat(field, floatValue)
}

func setFloat(field reflect.Value, floatValue float64) error {
	if field.OverflowFloat(floatValue) {
		return fmt.Errorf("value %f overflows %s", floatValue, field.Type())
	}
	field.SetFloat(floatValue)
	return nil
}

// setBoolValue sets boolean field values with better validation
//
// Many common boolean representations are supported:
//   - "true", "1", "yes", "on" (case insensitive)
//   - "false", "0", "no", "off" (case insensitive)
//   - Standard boolean parsing using strconv.ParseBool
func setBoolValue(field reflect.Value, value string) error {
	switch value {
	case "true", "1", "yes", "on", "True", "TRUE", "YES", "ON":
		field.SetBool(true)
		return nil
	case "false", "0", "no", "off", "False", "FALSE", "NO", "OFF":
		field.SetBool(false)
		return nil
	default:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("error converting value to bool: %w", err)
		}
		field.SetBool(boolValue)
		return nil
	}
}

// setSliceValue sets slice field values
func setSliceValue(field reflect.Value, value string) error {
	if field.Type().Elem().Kind() == reflect.Uint8 {
		field.SetBytes([]byte(value))
		return nil
	}
	return fmt.Errorf("unsupported slice type: %s", field.Type())
}

func setPointerValue(field reflect.Value, value string) error {
	elem := reflect.New(field.Type().Elem())
	if err := setFromString(elem.Elem(), value); err != nil {
		return err
	}
	field.Set(elem)
	return nil
}

func setUUIDValue(field reflect.Value, value string) error {
	uuidValue, err := uuid.Parse(value)
	if err != nil {
		return fmt.Errorf("error converting value to UUID: %w", err)
	}
	field.Set(reflect.ValueOf(uuidValue))
	return nil
}

func setDecimalValue(field reflect.Value, value string) error {
	decimalValue, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("error converting value to decimal: %w", err)
	}
	field.Set(reflect.ValueOf(decimalValue))
	return nil
}

// timeFormats are tried in order for time.Time values given as strings
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

func setTimeValue(field reflect.Value, value string) error {
	var err error
	for _, format := range timeFormats {
		var timeValue time.Time
		if timeValue, err = time.Parse(format, value); err == nil {
			field.Set(reflect.ValueOf(timeValue.UTC()))
			return nil
		}
	}
	return fmt.Errorf("error converting value to time.Time: %w", err)
}

// setInterfaceValue sets interface{} field values
func setInterfaceValue(field reflect.Value, value string) error {
	if field.NumMethod() != 0 {
		return fmt.Errorf("cannot set value for interface with methods: %s", field.Type())
	}
	field.Set(reflect.ValueOf(value))
	return nil
}

// isLeafType checks if a composite type should be treated as a scalar
// rather than being walked as a record or a collection.
func isLeafType(t reflect.Type) bool {
	return lo.Contains(leafTypes, t)
}

// isRecordType reports whether t is a struct walked field by field.
func isRecordType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && !isLeafType(t)
}

// isSetType reports whether t is a map used as a set, map[K]struct{}.
func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == EmptyStructType
}

// assign stores v into dst. Values of a named type are converted to the
// declared type when both share a kind. An invalid v leaves dst at its zero
// value.
func assign(dst, v reflect.Value) error {
	if !v.IsValid() {
		dst.SetZero()
		return nil
	}

	switch {
	case v.Type().AssignableTo(dst.Type()):
		dst.Set(v)
	case v.Kind() == dst.Kind() && v.Type().ConvertibleTo(dst.Type()):
		dst.Set(v.Convert(dst.Type()))
	default:
		return &TypeMismatchError{Expected: dst.Type().String(), Actual: v.Interface()}
	}
	return nil
}

// indirect strips interfaces down to the value they hold. A nil interface
// becomes the invalid Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
