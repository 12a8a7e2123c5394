package serious

import (
	"reflect"

	"github.com/hengadev/errsx"
	"github.com/samber/lo"
)

// checkFrozen fails when the scanned types of d include a type whose values
// can be changed through a copy of the record: slices, maps, channels,
// functions and interfaces. Types in allowed are accepted regardless.
func checkFrozen(d *TypeDescriptor, types TypeSet, allowed []reflect.Type) error {
	var errs errsx.Map
	for _, t := range types.Types() {
		if lo.Contains(allowed, t) || isImmutable(t) {
			continue
		}
		errs.Set(t.String(), ErrMutableTypes)
	}
	if errs.IsEmpty() {
		return nil
	}
	return &MutableTypesError{Type: d.Type(), Err: errs.AsError()}
}

func isImmutable(t reflect.Type) bool {
	if isLeafType(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer, reflect.Pointer:
		return false
	}
	return true
}
