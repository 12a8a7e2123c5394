package serious

import (
	"cmp"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// Param keys a parameter slot of a descriptor. Containers use positions
// (element, map key and value), records use type variables.
type Param struct {
	Index int
	Var   reflect.Type
}

// Pos is the positional parameter i.
func Pos(i int) Param { return Param{Index: i} }

// Var is the parameter bound to type variable t.
func Var(t reflect.Type) Param { return Param{Index: -1, Var: t} }

func (p Param) String() string {
	if p.Var != nil {
		return p.Var.String()
	}
	return strconv.Itoa(p.Index)
}

func (p Param) key() string {
	if p.Var != nil {
		return "$" + typeID(p.Var)
	}
	return strconv.Itoa(p.Index)
}

// Params maps parameter slots to their descriptors.
type Params map[Param]*TypeDescriptor

// Parameterized is implemented by records whose fields are typed by type
// variables. A type variable is a named empty interface, for example
// `type ID any`. TypeVars lists them in declaration order so Generic can
// bind them by position.
type Parameterized interface {
	TypeVars() []reflect.Type
}

// Generic is a parameterized record type: Origin with its type variables
// bound to Args. Each arg is a reflect.Type, a Generic or a
// *TypeDescriptor.
type Generic struct {
	Origin reflect.Type
	Args   []any
}

// Of builds the Generic origin[args...].
func Of(origin reflect.Type, args ...any) Generic {
	return Generic{Origin: origin, Args: args}
}

// TypeDescriptor is the normalized, interned description of a type.
// Descriptors are immutable and two descriptors describe the same type
// exactly when their keys are equal.
type TypeDescriptor struct {
	typ      reflect.Type
	params   Params
	optional bool
	record   bool
	key      string

	fieldsOnce sync.Once
	fields     []*Field
	fieldsErr  error
}

// Field is a declared field of a record descriptor.
type Field struct {
	Name       string          // Go field name
	Key        string          // explicit serialized key from tags, empty when unset
	Index      []int           // index path for reflect.Value.FieldByIndex
	Type       *TypeDescriptor // resolved against the record's parameters
	Default    string          // default literal, see HasDefault
	HasDefault bool
	Codec      string // name of the field codec overriding the kinds
	Owner      reflect.Type
}

// withType derives the bare field describing an item, a map value or an
// optional's inner value.
func (f *Field) withType(d *TypeDescriptor) *Field {
	return &Field{Name: f.Name, Index: f.Index, Type: d, Owner: f.Owner}
}

func (d *TypeDescriptor) Type() reflect.Type { return d.typ }
func (d *TypeDescriptor) IsOptional() bool   { return d.optional }
func (d *TypeDescriptor) IsRecord() bool     { return d.record }
func (d *TypeDescriptor) IsAny() bool        { return d.typ == AnyType }
func (d *TypeDescriptor) Key() string        { return d.key }

// Params returns a copy of the descriptor's parameters.
func (d *TypeDescriptor) Params() Params { return maps.Clone(d.params) }

// Param returns the descriptor bound to p.
func (d *TypeDescriptor) Param(p Param) (*TypeDescriptor, bool) {
	pd, ok := d.params[p]
	return pd, ok
}

func (d *TypeDescriptor) Equal(o *TypeDescriptor) bool {
	return o != nil && d.key == o.key
}

// NonOptional is the descriptor with the optional flag cleared.
func (d *TypeDescriptor) NonOptional() *TypeDescriptor {
	if !d.optional {
		return d
	}
	return intern(d.typ, d.params, false, d.record)
}

func (d *TypeDescriptor) asOptional() *TypeDescriptor {
	if d.optional {
		return d
	}
	return intern(d.typ, d.params, true, d.record)
}

func (d *TypeDescriptor) String() string {
	var b strings.Builder
	if d.optional {
		b.WriteByte('*')
	}
	if d.IsAny() {
		b.WriteString("any")
	} else {
		b.WriteString(d.typ.String())
	}
	if d.record && len(d.params) > 0 {
		b.WriteByte('[')
		for i, p := range d.sortedParams() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
			b.WriteByte('=')
			b.WriteString(d.params[p].String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// sortedParams orders positions before type variables.
func (d *TypeDescriptor) sortedParams() []Param {
	ps := slices.Collect(maps.Keys(d.params))
	slices.SortFunc(ps, func(a, b Param) int {
		switch {
		case a.Var == nil && b.Var == nil:
			return cmp.Compare(a.Index, b.Index)
		case a.Var == nil:
			return -1
		case b.Var == nil:
			return 1
		default:
			return strings.Compare(a.Var.String(), b.Var.String())
		}
	})
	return ps
}

// Fields lists the record's declared fields in declaration order. Fields
// of value-embedded structs are promoted in place, shallower fields shadow
// deeper ones with the same name.
func (d *TypeDescriptor) Fields() ([]*Field, error) {
	if !d.record {
		return nil, nil
	}
	d.fieldsOnce.Do(func() {
		var found []promotedField
		if err := collectFields(d.typ, d.params, nil, 0, &found); err != nil {
			d.fieldsErr = err
			return
		}
		d.fields = shadowFields(found)
	})
	return d.fields, d.fieldsErr
}

type promotedField struct {
	field *Field
	depth int
}

func collectFields(t reflect.Type, params Params, prefix []int, depth int, found *[]promotedField) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		tag, err := decodeFieldTag(sf)
		if err != nil {
			return errors.Wrapf(err, "record %s", t)
		}
		if tag.Skip {
			continue
		}

		index := append(slices.Clone(prefix), i)
		if isEmbeddedBase(sf) {
			if err := collectFields(sf.Type, params, index, depth+1, found); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		*found = append(*found, promotedField{
			field: &Field{
				Name:       sf.Name,
				Key:        tag.Key,
				Index:      index,
				Type:       Describe(sf.Type, params),
				Default:    tag.Default,
				HasDefault: tag.HasDefault,
				Codec:      tag.Codec,
				Owner:      t,
			},
			depth: depth,
		})
	}
	return nil
}

func shadowFields(found []promotedField) []*Field {
	shallowest := make(map[string]int, len(found))
	for _, pf := range found {
		if d, ok := shallowest[pf.field.Name]; !ok || pf.depth < d {
			shallowest[pf.field.Name] = pf.depth
		}
	}

	fields := make([]*Field, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, pf := range found {
		name := pf.field.Name
		if pf.depth != shallowest[name] || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, pf.field)
	}
	return fields
}

// isEmbeddedBase reports whether an anonymous field is flattened into its
// parent record. Only value embedding counts, embedded pointers are plain
// fields.
func isEmbeddedBase(sf reflect.StructField) bool {
	return sf.Anonymous && isRecordType(sf.Type)
}

///////////////////////////////////////////////////////////////////////////////
// Descriptor Builder
///////////////////////////////////////////////////////////////////////////////

var (
	descriptors = NewInternCache[string, *TypeDescriptor]()
	typeIDs     = NewInternCache[reflect.Type, string]()
	nextTypeID  atomic.Uint64
)

// typeID is a process-unique short name for t, two distinct types with the
// same String never share one.
func typeID(t reflect.Type) string {
	return typeIDs.GetOrCreate(t, func() string {
		return "t" + strconv.FormatUint(nextTypeID.Add(1), 36)
	})
}

func descriptorKey(t reflect.Type, params Params, optional, record bool) string {
	var b strings.Builder
	if optional {
		b.WriteByte('?')
	}
	if record {
		b.WriteByte('&')
	}
	b.WriteString(typeID(t))
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for p, pd := range params {
			keys = append(keys, p.key()+"="+pd.key)
		}
		slices.Sort(keys)
		b.WriteByte('{')
		b.WriteString(strings.Join(keys, ","))
		b.WriteByte('}')
	}
	return b.String()
}

func intern(t reflect.Type, params Params, optional, record bool) *TypeDescriptor {
	key := descriptorKey(t, params, optional, record)
	return descriptors.GetOrCreate(key, func() *TypeDescriptor {
		return &TypeDescriptor{
			typ:      t,
			params:   maps.Clone(params),
			optional: optional,
			record:   record,
			key:      key,
		}
	})
}

func anyDescriptor() *TypeDescriptor {
	return intern(AnyType, nil, false, false)
}

// Describe builds the descriptor of t. Type variables bound in params are
// substituted, pointers become optional descriptors of their element, and
// containers carry their element descriptors as positional parameters.
// Describe never fails: a type nothing can serialize is rejected later when
// no kind fits it.
func Describe(t reflect.Type, params Params) *TypeDescriptor {
	if t == nil {
		return anyDescriptor()
	}
	if bound, ok := params[Var(t)]; ok && bound != nil {
		return bound
	}

	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Pointer {
			return intern(t, nil, false, false)
		}
		return Describe(t.Elem(), params).asOptional()
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return anyDescriptor()
		}
		return intern(t, nil, false, false)
	case reflect.Struct:
		if isLeafType(t) {
			return intern(t, nil, false, false)
		}
		return describeRecord(t, nil)
	case reflect.Slice, reflect.Array:
		if isLeafType(t) {
			return intern(t, nil, false, false)
		}
		return intern(t, Params{Pos(0): Describe(t.Elem(), params)}, false, false)
	case reflect.Map:
		return intern(t, Params{
			Pos(0): Describe(t.Key(), params),
			Pos(1): Describe(t.Elem(), params),
		}, false, false)
	default:
		return intern(t, nil, false, false)
	}
}

// DescribeGeneric builds the descriptor of a parameterized type. For a
// record origin the arguments are zipped with the origin's TypeVars, for
// any other origin they become positional parameters.
func DescribeGeneric(g Generic, params Params) *TypeDescriptor {
	if g.Origin == nil {
		return anyDescriptor()
	}
	if len(g.Args) == 0 {
		return Describe(g.Origin, params)
	}
	if g.Origin.Kind() == reflect.Pointer {
		return DescribeGeneric(Generic{Origin: g.Origin.Elem(), Args: g.Args}, params).asOptional()
	}

	args := make([]*TypeDescriptor, len(g.Args))
	for i, arg := range g.Args {
		args[i] = describeArg(arg, params)
	}

	if isRecordType(g.Origin) {
		bound := make(Params, len(args))
		for i, v := range typeVarsOf(g.Origin) {
			if i < len(args) {
				bound[Var(v)] = args[i]
			}
		}
		return describeRecord(g.Origin, bound)
	}

	positional := make(Params, len(args))
	for i, a := range args {
		positional[Pos(i)] = a
	}
	return intern(g.Origin, positional, false, false)
}

func describeArg(arg any, params Params) *TypeDescriptor {
	switch a := arg.(type) {
	case reflect.Type:
		return Describe(a, params)
	case Generic:
		return DescribeGeneric(a, params)
	case *TypeDescriptor:
		return a
	default:
		return anyDescriptor()
	}
}

// describeRecord interns a record with its bindings. Embedded bases get
// no descriptor of their own, their fields are described with the same
// bindings when the record's fields are collected.
func describeRecord(t reflect.Type, bound Params) *TypeDescriptor {
	return intern(t, bound, false, true)
}

// typeVarsOf asks a Parameterized record for its type variables.
func typeVarsOf(t reflect.Type) []reflect.Type {
	if !reflect.PointerTo(t).Implements(parameterizedType) {
		return nil
	}
	return reflect.New(t).Interface().(Parameterized).TypeVars()
}
