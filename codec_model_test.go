package serious

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonDaKappa/serious/codec"
)

type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Joined      time.Time
	Level       Level
	Tags        []string
	Manager     *Account
}

func sampleProfile() Profile {
	return Profile{
		ID:          uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		DisplayName: "Ada",
		Joined:      time.Unix(1700000000, 0).UTC(),
		Level:       High,
		Tags:        []string{"admin", "ops"},
		Manager:     &Account{ID: 1, Name: "Grace"},
	}
}

func TestJSONModel(t *testing.T) {
	m, err := NewJSONModel[Profile]()
	require.NoError(t, err)
	assert.Equal(t, "json", m.Codec().Name())
	assert.Equal(t, []string{"id", "displayName", "joined", "level", "tags", "manager"}, m.Dict().Model().Keys())

	t.Run("Load", func(t *testing.T) {
		got, err := m.Load([]byte(`{
			"id": "123e4567-e89b-12d3-a456-426614174000",
			"displayName": "Ada",
			"joined": 1700000000,
			"level": 2,
			"tags": ["admin", "ops"],
			"manager": {"id": 1, "name": "Grace"}
		}`))
		require.NoError(t, err)
		assert.Equal(t, sampleProfile(), got)
	})

	t.Run("Dump", func(t *testing.T) {
		out, err := m.Dump(sampleProfile())
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"displayName": "Ada",
			"id": "123e4567-e89b-12d3-a456-426614174000",
			"joined": 1700000000,
			"level": 2,
			"manager": {"id": 1, "name": "Grace"},
			"tags": ["admin", "ops"]
		}`, string(out))
	})

	t.Run("Many", func(t *testing.T) {
		profiles := []Profile{sampleProfile(), sampleProfile()}
		profiles[1].Manager = nil

		out, err := m.DumpMany(profiles)
		require.NoError(t, err)

		got, err := m.LoadMany(out)
		require.NoError(t, err)
		assert.Equal(t, profiles, got)
	})

	t.Run("Indent", func(t *testing.T) {
		pretty, err := NewJSONModel[Account](WithIndent("  "))
		require.NoError(t, err)
		out, err := pretty.Dump(Account{ID: 1, Name: "x"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id": 1, "name": "x"}`, string(out))
		assert.Contains(t, string(out), "\n  \"id\"")
	})
}

func TestJSONModel_UnexpectedPayload(t *testing.T) {
	m, err := NewJSONModel[Account]()
	require.NoError(t, err)

	tests := []struct {
		name     string
		payload  string
		many     bool
		expected string
		actual   string
	}{
		{name: "ArrayForOne", payload: `[{"id": 1, "name": "x"}]`, expected: "object", actual: "array"},
		{name: "ScalarForOne", payload: `42`, expected: "object", actual: "scalar"},
		{name: "NullForOne", payload: `null`, expected: "object", actual: "null"},
		{name: "ObjectForMany", payload: `{"id": 1, "name": "x"}`, many: true, expected: "array", actual: "object"},
		{name: "ScalarsForMany", payload: `[1, 2]`, many: true, expected: "array of objects", actual: "array holding scalar"},
		{name: "Malformed", payload: `{"id": 1,`, expected: "object", actual: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.many {
				_, err = m.LoadMany([]byte(tt.payload))
			} else {
				_, err = m.Load([]byte(tt.payload))
			}
			require.ErrorIs(t, err, ErrUnexpectedPayload)

			var perr *UnexpectedPayloadError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.expected, perr.Expected)
			assert.Equal(t, tt.actual, perr.Actual)
		})
	}

	t.Run("ModelErrorsPassThrough", func(t *testing.T) {
		_, err := m.Load([]byte(`{"id": 1}`))
		require.ErrorIs(t, err, ErrMissingField)
	})
}

func TestCodecModels(t *testing.T) {
	cbor, err := NewCBORModel[Profile]()
	require.NoError(t, err)
	yaml, err := NewYAMLModel[Profile]()
	require.NoError(t, err)
	msgpack, err := NewMsgpackModel[Profile]()
	require.NoError(t, err)

	models := map[string]interface {
		Dump(Profile) ([]byte, error)
		Load([]byte) (Profile, error)
	}{
		"cbor":    cbor,
		"yaml":    yaml,
		"msgpack": msgpack,
	}

	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			out, err := m.Dump(sampleProfile())
			require.NoError(t, err)

			got, err := m.Load(out)
			require.NoError(t, err)
			assert.Equal(t, sampleProfile(), got)
		})
	}

	t.Run("YAMLDocument", func(t *testing.T) {
		got, err := yaml.Load([]byte(`
id: 123e4567-e89b-12d3-a456-426614174000
display_name: Ada
joined: 1700000000
level: 2
tags: [admin, ops]
manager:
  id: 1
  name: Grace
`))
		require.NoError(t, err)
		assert.Equal(t, sampleProfile(), got)

		_, err = yaml.Load([]byte("- a\n- b\n"))
		require.ErrorIs(t, err, ErrUnexpectedPayload)
	})

	t.Run("Limit", func(t *testing.T) {
		limited, err := NewCodecModel[Account](codec.Limit{Inner: codec.JSON{}, MaxDecode: 8})
		require.NoError(t, err)

		_, err = limited.Load([]byte(`{"id": 1, "name": "a long name"}`))
		require.ErrorIs(t, err, codec.ErrPayloadTooLarge)
	})
}
