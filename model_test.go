package serious

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type Account struct {
	ID   int
	Name string
}

type Line struct {
	Sku   string
	Count int
}

type Invoice struct {
	Number string
	Lines  []Line
}

type Tree struct {
	Value    int
	Children []Tree
	Parent   *Tree
}

type Positive struct {
	N int
}

func (p Positive) Validate() error {
	if p.N < 0 {
		return errors.New("n must not be negative")
	}
	return nil
}

type Holder struct {
	Inner Positive
}

type Base struct {
	ID   int
	Name string
}

type Derived struct {
	Base
	Name  string `serious:"key:'title'"`
	Notes string `serious:"-"`
	Email string `json:"mail,omitempty"`
}

type Settings struct {
	Host    string `serious:"default:'localhost'"`
	Port    int    `serious:"default:8080"`
	Verbose *bool  `serious:"default:true"`
	Tag     string
}

type Payload any

type Envelope struct {
	Meta string
	Body Payload
}

func (Envelope) TypeVars() []reflect.Type { return []reflect.Type{reflect.TypeFor[Payload]()} }

type Message struct {
	Text string
}

type Shape interface {
	Area() float64
}

func TestModel_Load(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		m, err := NewDictModel[Account](WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{"id": 1, "name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, Account{ID: 1, Name: "Ada"}, got)
	})

	t.Run("MissingField", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)

		_, err = m.Load(map[string]any{"id": 1})
		require.ErrorIs(t, err, ErrLoad)
		require.ErrorIs(t, err, ErrMissingField)

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"name"}, missing.Fields)
		assert.Contains(t, err.Error(), `missing field "name"`)
	})

	t.Run("AllowMissing", func(t *testing.T) {
		m, err := NewDictModel[Account](WithAllowMissing(true))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, Account{ID: 1}, got)
	})

	t.Run("AllowMissingKeepsZero", func(t *testing.T) {
		type Ticket struct {
			Grade Letter
			Line  Line
			Tags  []string
		}
		m, err := NewDictModel[Ticket](WithAllowMissing(true))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, Ticket{}, got)

		_, err = m.Load(map[string]any{"grade": nil})
		require.ErrorIs(t, err, ErrNoEnumMember)
	})

	t.Run("NullForRequired", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)

		_, err = m.Load(map[string]any{"id": nil, "name": "Ada"})
		require.ErrorIs(t, err, ErrTypeMismatch)

		var lerr *LoadError
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, "id", lerr.Path)

		holder, err := NewDictModel[Holder]()
		require.NoError(t, err)
		_, err = holder.Load(map[string]any{"inner": nil})
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("UnexpectedField", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)

		_, err = m.Load(map[string]any{"id": 1, "name": "Ada", "zeta": 1, "alpha": 2})
		require.ErrorIs(t, err, ErrUnexpectedItem)

		var unexpected *UnexpectedItemError
		require.ErrorAs(t, err, &unexpected)
		assert.Equal(t, []string{"alpha", "zeta"}, unexpected.Keys)
	})

	t.Run("AllowUnexpected", func(t *testing.T) {
		m, err := NewDictModel[Account](WithAllowUnexpected(true))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{"id": 1, "name": "Ada", "extra": true})
		require.NoError(t, err)
		assert.Equal(t, Account{ID: 1, Name: "Ada"}, got)
	})

	t.Run("NotAMap", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)

		_, err = m.Model().Load([]any{1})
		require.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func TestModel_ErrorPath(t *testing.T) {
	m, err := NewDictModel[Invoice]()
	require.NoError(t, err)

	_, err = m.Load(map[string]any{
		"number": "A-1",
		"lines": []any{
			map[string]any{"sku": "x", "count": 1},
			map[string]any{"sku": "y", "count": "many"},
		},
	})
	require.Error(t, err)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "lines[1].count", lerr.Path)
	assert.Equal(t, reflect.TypeFor[Invoice](), lerr.Type)
}

func TestModel_Nested(t *testing.T) {
	m, err := NewDictModel[Invoice]()
	require.NoError(t, err)

	data := map[string]any{
		"number": "A-1",
		"lines": []any{
			map[string]any{"sku": "x", "count": 2},
		},
	}
	got, err := m.Load(data)
	require.NoError(t, err)
	assert.Equal(t, Invoice{Number: "A-1", Lines: []Line{{Sku: "x", Count: 2}}}, got)

	dumped, err := m.Dump(got)
	require.NoError(t, err)
	assert.Equal(t, data, dumped)
}

func TestModel_SelfReferential(t *testing.T) {
	m, err := NewDictModel[Tree]()
	require.NoError(t, err)

	data := map[string]any{
		"value": 1,
		"children": []any{
			map[string]any{"value": 2, "children": []any{}, "parent": nil},
		},
		"parent": nil,
	}
	got, err := m.Load(data)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, 2, got.Children[0].Value)
	assert.Nil(t, got.Parent)

	dumped, err := m.Dump(got)
	require.NoError(t, err)
	assert.Equal(t, data, dumped)
}

func TestModel_Validation(t *testing.T) {
	t.Run("OnLoad", func(t *testing.T) {
		m, err := NewDictModel[Positive]()
		require.NoError(t, err)

		_, err = m.Load(map[string]any{"n": -1})
		require.ErrorIs(t, err, ErrValidation)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, reflect.TypeFor[Positive](), verr.Type)

		var lerr *LoadError
		assert.False(t, errors.As(err, &lerr), "validation errors are not wrapped")
	})

	t.Run("Nested", func(t *testing.T) {
		m, err := NewDictModel[Holder]()
		require.NoError(t, err)

		_, err = m.Load(map[string]any{"inner": map[string]any{"n": -5}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		var lerr *LoadError
		assert.False(t, errors.As(err, &lerr))
	})

	t.Run("Disabled", func(t *testing.T) {
		m, err := NewDictModel[Positive](WithValidateOnLoad(false))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{"n": -1})
		require.NoError(t, err)
		assert.Equal(t, -1, got.N)
	})

	t.Run("OnDump", func(t *testing.T) {
		m, err := NewDictModel[Positive](WithValidateOnDump(true))
		require.NoError(t, err)

		_, err = m.Dump(Positive{N: -1})
		require.ErrorIs(t, err, ErrValidation)

		out, err := m.Dump(Positive{N: 3})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": 3}, out)
	})
}

func TestModel_Construction(t *testing.T) {
	t.Run("ContainsAny", func(t *testing.T) {
		type Loose struct {
			Data any
		}
		_, err := NewDictModel[Loose]()
		require.ErrorIs(t, err, ErrModelContainsAny)

		m, err := NewDictModel[Loose](WithAllowAny(true))
		require.NoError(t, err)
		got, err := m.Load(map[string]any{"data": map[string]any{"a": 1}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, got.Data)
	})

	t.Run("ContainsUnion", func(t *testing.T) {
		type Drawing struct {
			Shapes []Shape
		}
		_, err := NewDictModel[Drawing]()
		require.ErrorIs(t, err, ErrModelContainsUnion)

		var uerr *ModelContainsUnionError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, []reflect.Type{reflect.TypeFor[Shape]()}, uerr.Unions)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		type Pipe struct {
			C chan int
		}
		_, err := NewDictModel[Pipe]()
		require.ErrorIs(t, err, ErrUnsupportedType)

		var uerr *UnsupportedTypeError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "C", uerr.Field)
	})

	t.Run("PointerToPointer", func(t *testing.T) {
		type Deep struct {
			P **int
		}
		_, err := NewDictModel[Deep]()
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("NotRecord", func(t *testing.T) {
		_, err := NewDictModel[int]()
		require.ErrorIs(t, err, ErrNotRecord)

		_, err = NewModel(Describe(reflect.TypeFor[*Account](), nil))
		require.ErrorIs(t, err, ErrNotRecord)
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		type Clash struct {
			A int `serious:"key:'x'"`
			B int `json:"x"`
		}
		_, err := NewDictModel[Clash]()
		require.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("InvalidDefault", func(t *testing.T) {
		type Broken struct {
			N int `serious:"default:'many'"`
		}
		_, err := NewDictModel[Broken]()
		require.ErrorIs(t, err, ErrInvalidDefault)
	})

	t.Run("BadTag", func(t *testing.T) {
		type Typo struct {
			N int `serious:"defualt:1"`
		}
		_, err := NewDictModel[Typo]()
		require.ErrorIs(t, err, ErrUnknownSubTag)
	})
}

func TestModel_Defaults(t *testing.T) {
	m, err := NewDictModel[Settings]()
	require.NoError(t, err)

	got, err := m.Load(map[string]any{"tag": "a"})
	require.NoError(t, err)
	assert.Equal(t, "localhost", got.Host)
	assert.Equal(t, 8080, got.Port)
	require.NotNil(t, got.Verbose)
	assert.True(t, *got.Verbose)

	again, err := m.Load(map[string]any{"tag": "b"})
	require.NoError(t, err)
	assert.NotSame(t, got.Verbose, again.Verbose)

	got, err = m.Load(map[string]any{"tag": "a", "port": 9090, "verbose": nil})
	require.NoError(t, err)
	assert.Equal(t, 9090, got.Port)
	assert.Nil(t, got.Verbose)

	_, err = m.Load(map[string]any{})
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"tag"}, missing.Fields)
}

func TestModel_Keys(t *testing.T) {
	m, err := NewDictModel[Derived]()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "mail"}, m.Model().Keys())

	got, err := m.Load(map[string]any{"id": 7, "title": "T", "mail": "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, "T", got.Name)
	assert.Empty(t, got.Base.Name)
	assert.Equal(t, "a@b.c", got.Email)

	kind, ok := m.Model().Kind("id")
	assert.True(t, ok)
	assert.Equal(t, PrimitiveKindName, kind)

	_, ok = m.Model().Kind("nope")
	assert.False(t, ok)

	camel, err := NewDictModel[Line](WithKeyMapper(CamelCaseKeys))
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "count"}, camel.Model().Keys())

	noop, err := NewDictModel[Line](WithKeyMapper(NoopKeys))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sku", "Count"}, noop.Model().Keys())
}

func TestModel_Generic(t *testing.T) {
	t.Run("Bound", func(t *testing.T) {
		m, err := NewDictModel[Envelope](WithTypeArgs(reflect.TypeFor[Message]()))
		require.NoError(t, err)

		data := map[string]any{"meta": "m", "body": map[string]any{"text": "hi"}}
		got, err := m.Load(data)
		require.NoError(t, err)
		assert.Equal(t, Message{Text: "hi"}, got.Body)

		dumped, err := m.Dump(got)
		require.NoError(t, err)
		assert.Equal(t, data, dumped)

		kind, _ := m.Model().Kind("body")
		assert.Equal(t, RecordKindName, kind)
	})

	t.Run("Unbound", func(t *testing.T) {
		_, err := NewDictModel[Envelope]()
		require.ErrorIs(t, err, ErrModelContainsAny)
	})

	t.Run("BoundToList", func(t *testing.T) {
		m, err := NewDictModel[Envelope](WithTypeArgs(reflect.TypeFor[[]int]()))
		require.NoError(t, err)

		got, err := m.Load(map[string]any{"meta": "m", "body": []any{1, 2}})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got.Body)
	})
}

func TestModel_Dump(t *testing.T) {
	m, err := NewDictModel[Account]()
	require.NoError(t, err)

	t.Run("Pointer", func(t *testing.T) {
		out, err := m.Model().Dump(&Account{ID: 2, Name: "Bo"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": 2, "name": "Bo"}, out)
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := m.Model().Dump(Line{})
		require.ErrorIs(t, err, ErrDump)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("NilPointer", func(t *testing.T) {
		_, err := m.Model().Dump((*Account)(nil))
		require.ErrorIs(t, err, ErrTypeMismatch)
	})
}
