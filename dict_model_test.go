package serious

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictModel(t *testing.T) {
	t.Run("Descriptor", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)
		assert.Same(t, Describe(reflect.TypeFor[Account](), nil), m.Descriptor())
		assert.Equal(t, reflect.TypeFor[Account](), m.Model().Type())
	})

	t.Run("TypeArgs", func(t *testing.T) {
		m, err := NewDictModel[Envelope](WithTypeArgs(reflect.TypeFor[Message]()))
		require.NoError(t, err)
		assert.Same(t, DescribeGeneric(Of(reflect.TypeFor[Envelope](), reflect.TypeFor[Message]()), nil), m.Descriptor())
	})

	t.Run("TypeArgsWithoutTypeVars", func(t *testing.T) {
		_, err := NewDictModel[Account](WithTypeArgs(reflect.TypeFor[Message]()))
		require.ErrorIs(t, err, ErrTypeArgs)
	})

	t.Run("TooManyTypeArgs", func(t *testing.T) {
		_, err := NewDictModel[Envelope](WithTypeArgs(reflect.TypeFor[Message](), reflect.TypeFor[Account]()))
		require.ErrorIs(t, err, ErrTypeArgs)
	})

	t.Run("NotRecord", func(t *testing.T) {
		_, err := NewDictModel[*Account]()
		require.ErrorIs(t, err, ErrNotRecord)

		_, err = NewDictModel[[]Account]()
		require.ErrorIs(t, err, ErrNotRecord)
	})
}

func TestDictModel_Many(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("Concurrency%d", concurrency), func(t *testing.T) {
			m, err := NewDictModel[Account](WithConcurrency(concurrency))
			require.NoError(t, err)

			items := make([]map[string]any, 50)
			for i := range items {
				items[i] = map[string]any{"id": i, "name": fmt.Sprintf("user-%d", i)}
			}

			loaded, err := m.LoadMany(items)
			require.NoError(t, err)
			require.Len(t, loaded, len(items))
			for i, a := range loaded {
				assert.Equal(t, Account{ID: i, Name: fmt.Sprintf("user-%d", i)}, a)
			}

			dumped, err := m.DumpMany(loaded)
			require.NoError(t, err)
			assert.Equal(t, items, dumped)

			items[17] = map[string]any{"id": "x", "name": "bad"}
			_, err = m.LoadMany(items)
			var lerr *LoadError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, "id", lerr.Path)
		})
	}

	t.Run("Empty", func(t *testing.T) {
		m, err := NewDictModel[Account]()
		require.NoError(t, err)

		loaded, err := m.LoadMany(nil)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}
