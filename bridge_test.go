package avro

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSchemaPrimitives(t *testing.T) {
	cases := []struct {
		v    interface{}
		kind int
	}{
		{true, Boolean},
		{int32(1), Int},
		{int64(1), Long},
		{float32(1), Float},
		{float64(1), Double},
		{"x", String},
		{[]byte("x"), Bytes},
	}
	for _, c := range cases {
		s, err := DeriveSchema(c.v)
		require.NoError(t, err)
		assert.Equal(t, c.kind, s.Type())
	}
}

func TestDeriveSchemaNil(t *testing.T) {
	s, err := DeriveSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, Null, s.Type())
}

func TestDeriveSchemaPointerIsNullableUnion(t *testing.T) {
	n := int32(1)
	s, err := DeriveSchema(&n)
	require.NoError(t, err)
	union, ok := s.(*UnionSchema)
	require.True(t, ok)
	assert.Equal(t, 0, union.NullIndex())
	assert.Equal(t, Int, union.Types[1].Type())
}

func TestDeriveSchemaStruct(t *testing.T) {
	type Inner struct {
		Value string
	}
	type Outer struct {
		Id      int64
		Name    string
		Nested  *Inner
		Tags    []string
		private int
	}

	s, err := DeriveSchema(Outer{})
	require.NoError(t, err)
	rec, ok := s.(*RecordSchema)
	require.True(t, ok)

	f, ok := rec.FieldByName("id")
	require.True(t, ok)
	assert.Equal(t, Long, f.Type.Type())

	f, ok = rec.FieldByName("tags")
	require.True(t, ok)
	assert.Equal(t, Array, f.Type.Type())

	_, ok = rec.FieldByName("private")
	assert.False(t, ok)
}

func TestDeriveSchemaLogicalTypes(t *testing.T) {
	s, err := DeriveSchema(uuid.New())
	require.NoError(t, err)
	logical, ok := s.(*LogicalSchema)
	require.True(t, ok)
	assert.Equal(t, LogicalUUID, logical.Kind)
	assert.Equal(t, String, logical.Base.Type())

	s, err = DeriveSchema(time.Now())
	require.NoError(t, err)
	logical, ok = s.(*LogicalSchema)
	require.True(t, ok)
	assert.Equal(t, LogicalTimestampMicros, logical.Kind)
}

func TestDeriveSchemaRejectsBareInterface(t *testing.T) {
	type Holder struct {
		V interface{}
	}
	_, err := DeriveSchema(Holder{})
	require.Error(t, err)
}
