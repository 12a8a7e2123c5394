package serious

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// DictModel loads and dumps records of type T from and to tree maps.
type DictModel[T any] struct {
	model *Model
	opts  *Options
}

// NewDictModel builds the model of T. T must be a struct, its type
// variables are bound with WithTypeArgs.
func NewDictModel[T any](opts ...Option) (*DictModel[T], error) {
	return newDictModel[T](newOptions(DefaultOptions(), opts))
}

func newDictModel[T any](o *Options) (*DictModel[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrNotRecord, "%s", t)
	}

	d := Describe(t, nil)
	if len(o.TypeArgs) > 0 {
		if vars := typeVarsOf(t); len(o.TypeArgs) > len(vars) {
			return nil, errors.Wrapf(ErrTypeArgs, "%s declares %d type variables, got %d arguments", t, len(vars), len(o.TypeArgs))
		}
		d = DescribeGeneric(Of(t, o.TypeArgs...), nil)
	}

	m, err := newRootModel(d, o)
	if err != nil {
		return nil, err
	}
	return &DictModel[T]{model: m, opts: o}, nil
}

func (d *DictModel[T]) Model() *Model                { return d.model }
func (d *DictModel[T]) Descriptor() *TypeDescriptor { return d.model.Descriptor() }

func (d *DictModel[T]) Load(data map[string]any) (T, error) {
	var zero T
	v, err := d.model.Load(data)
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// LoadMany loads every item, stopping at the first failure.
func (d *DictModel[T]) LoadMany(items []map[string]any) ([]T, error) {
	out := make([]T, len(items))
	err := forEach(len(items), d.opts.Concurrency, func(i int) error {
		v, err := d.Load(items[i])
		out[i] = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DictModel[T]) Dump(o T) (map[string]any, error) {
	return d.model.Dump(o)
}

// DumpMany dumps every item, stopping at the first failure.
func (d *DictModel[T]) DumpMany(items []T) ([]map[string]any, error) {
	out := make([]map[string]any, len(items))
	err := forEach(len(items), d.opts.Concurrency, func(i int) error {
		m, err := d.Dump(items[i])
		out[i] = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEach runs fn for 0..n-1, in order when concurrency is below 2 and on
// at most concurrency goroutines otherwise.
func forEach(n, concurrency int, fn func(i int) error) error {
	if concurrency < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
