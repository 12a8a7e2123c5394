package serious

import (
	"reflect"
	"slices"

	"github.com/samber/lo"
)

// TypeSet is the flat set of types reachable from a descriptor, in the
// order they were first found.
type TypeSet struct {
	types []reflect.Type
}

func (s TypeSet) Contains(t reflect.Type) bool { return lo.Contains(s.types, t) }
func (s TypeSet) Types() []reflect.Type       { return slices.Clone(s.types) }
func (s TypeSet) Len() int                    { return len(s.types) }

// HasAny reports whether the unconstrained any marker is reachable.
func (s TypeSet) HasAny() bool { return s.Contains(AnyType) }

// Unions lists the reachable non-empty interfaces. Only optional values are
// supported as unions and those never reach the set as interfaces.
func (s TypeSet) Unions() []reflect.Type {
	return lo.Filter(s.types, func(t reflect.Type, _ int) bool {
		return t.Kind() == reflect.Interface && t.NumMethod() > 0
	})
}

func (s *TypeSet) add(types ...reflect.Type) {
	for _, t := range types {
		if !s.Contains(t) {
			s.types = append(s.types, t)
		}
	}
}

// Scan walks the parameters and then the fields of d and returns every
// type reached. Descriptors already on the visited list contribute
// nothing, which terminates self-referential records.
func Scan(d *TypeDescriptor) TypeSet {
	var known []*TypeDescriptor
	return scan(d, &known)
}

func scan(d *TypeDescriptor, known *[]*TypeDescriptor) TypeSet {
	if lo.ContainsBy(*known, d.Equal) {
		return TypeSet{}
	}
	*known = append(*known, d)

	var set TypeSet
	for _, p := range d.sortedParams() {
		set.add(scan(d.params[p], known).types...)
	}
	// tag errors surface when the model resolves its fields
	fields, _ := d.Fields()
	for _, f := range fields {
		set.add(scan(f.Type, known).types...)
	}
	set.add(d.typ)
	return set
}
