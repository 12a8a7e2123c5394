// Package serious builds schema driven models that load Go structs from
// tree data and dump them back.
//
// Tree data is what decoders of JSON, YAML, CBOR or msgpack produce:
// map[string]any, []any and scalars. A model is compiled once per record
// type and checks every value it loads, so a loaded struct is known to
// match its declaration. The model rejects missing and unexpected keys
// unless told otherwise, calls Validate on records implementing
// Validatable, and reports failures with the path of the offending value,
// for example lines[0].count.
//
// A model is built in three steps:
//   - Describe normalizes a reflect.Type into an interned TypeDescriptor.
//     Pointers become optional descriptors, containers carry their element
//     descriptors, and records carry the bindings of their type variables.
//   - Scan collects every type reachable from the descriptor so models
//     reaching an unconstrained any or a union can be rejected up front.
//   - Each field is bound to the first Kind that fits it. The built in
//     kinds cover optionals, any, string keyed maps, slices, arrays and
//     sets, primitives, nested records, time.Time, uuid.UUID,
//     decimal.Decimal and Enum types. Custom kinds are spliced in with
//     WithCustomKinds and single fields can be handed to a FieldCodec.
//
// Most callers use the typed front ends:
//   - DictModel[T] loads and dumps map[string]any.
//   - CodecModel[T] loads and dumps encoded payloads through a
//     codec.Codec, see NewJSONModel, NewYAMLModel, NewCBORModel and
//     NewMsgpackModel.
//
// Field keys come from the `serious` tag, then the json tag, then the
// model's KeyMapper:
//
//	type Order struct {
//		ID     uuid.UUID `serious:"key:'order_id'"`
//		Status Status    `serious:"default:'open'"`
//		Total  decimal.Decimal
//		Notes  []string  `serious:"-"`
//	}
//
// Type variables are named empty interfaces listed by TypeVars:
//
//	type Item any
//
//	type Page struct {
//		Items []Item
//	}
//
//	func (Page) TypeVars() []reflect.Type { return []reflect.Type{reflect.TypeFor[Item]()} }
//
//	pages, err := serious.NewDictModel[Page](serious.WithTypeArgs(reflect.TypeFor[Order]()))
package serious
