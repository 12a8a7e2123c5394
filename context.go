package serious

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Step is one entry of a traversal stack: the path segment being processed
// and the serializer handling it.
type Step struct {
	Entry      string
	Serializer FieldSerializer
}

func fieldEntry(key string) string { return "." + key }
func indexEntry(i int) string      { return "[" + strconv.Itoa(i) + "]" }
func mapEntry(key string) string   { return "[" + key + "]" }

// traversal is the per call stack shared by Loading and Dumping. The stack
// is copied at the first failure so the path survives the unwinding.
type traversal struct {
	steps  []Step
	failed []Step
}

func (t *traversal) enter(entry string, s FieldSerializer) {
	t.steps = append(t.steps, Step{Entry: entry, Serializer: s})
}

func (t *traversal) exit(err error) {
	if err != nil && t.failed == nil {
		t.failed = slices.Clone(t.steps)
	}
	t.steps = t.steps[:len(t.steps)-1]
}

// Path renders the failing steps if a step failed, the current ones
// otherwise, e.g. lines[0].count.
func (t *traversal) Path() string {
	steps := t.steps
	if t.failed != nil {
		steps = t.failed
	}
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.Entry)
	}
	return strings.TrimPrefix(b.String(), ".")
}

// Loading is the context of one top level load.
type Loading struct {
	traversal
}

// Run loads value with s under the path segment entry.
func (l *Loading) Run(entry string, s FieldSerializer, value any) (result reflect.Value, err error) {
	l.enter(entry, s)
	defer func() { l.exit(err) }()
	return s.Load(value, l)
}

// runInto loads value with s under entry and stores the result in target.
func (l *Loading) runInto(target reflect.Value, entry string, s FieldSerializer, value any) (err error) {
	l.enter(entry, s)
	defer func() { l.exit(err) }()
	loaded, err := s.Load(value, l)
	if err != nil {
		return err
	}
	return assign(target, loaded)
}

// Dumping is the context of one top level dump.
type Dumping struct {
	traversal
}

// Run dumps value with s under the path segment entry.
func (d *Dumping) Run(entry string, s FieldSerializer, value reflect.Value) (result any, err error) {
	d.enter(entry, s)
	defer func() { d.exit(err) }()
	return s.Dump(value, d)
}
