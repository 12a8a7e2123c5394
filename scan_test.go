package serious

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	t.Run("SelfReferential", func(t *testing.T) {
		types := Scan(Describe(reflect.TypeFor[Tree](), nil))
		assert.True(t, types.Contains(reflect.TypeFor[Tree]()))
		assert.True(t, types.Contains(reflect.TypeFor[int]()))
		assert.True(t, types.Contains(reflect.TypeFor[[]Tree]()))
		assert.False(t, types.HasAny())
		assert.Empty(t, types.Unions())
	})

	t.Run("Nested", func(t *testing.T) {
		types := Scan(Describe(reflect.TypeFor[Invoice](), nil))
		assert.True(t, types.Contains(reflect.TypeFor[Line]()))
		assert.True(t, types.Contains(reflect.TypeFor[string]()))

		// the root comes last, after everything it reaches
		all := types.Types()
		assert.Equal(t, reflect.TypeFor[Invoice](), all[len(all)-1])
		assert.Equal(t, len(all), types.Len())
	})

	t.Run("Any", func(t *testing.T) {
		assert.True(t, Scan(Describe(reflect.TypeFor[Envelope](), nil)).HasAny())

		bound := DescribeGeneric(Of(reflect.TypeFor[Envelope](), reflect.TypeFor[Message]()), nil)
		assert.False(t, Scan(bound).HasAny())
	})

	t.Run("Unions", func(t *testing.T) {
		type Canvas struct {
			Main   Shape
			Others map[string]Shape
		}
		types := Scan(Describe(reflect.TypeFor[Canvas](), nil))
		assert.Equal(t, []reflect.Type{reflect.TypeFor[Shape]()}, types.Unions())
	})
}
