package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveSchema(t *testing.T) {
	cases := map[string]int{
		"string":  String,
		"int":     Int,
		"long":    Long,
		"boolean": Boolean,
		"float":   Float,
		"double":  Double,
		"bytes":   Bytes,
		"null":    Null,
	}
	for raw, expected := range cases {
		s, err := ParseSchema(raw)
		require.NoError(t, err)
		assert.Equal(t, expected, s.Type())
	}
}

func TestArraySchema(t *testing.T) {
	s, err := ParseSchema(`{"type":"array", "items": "string"}`)
	require.NoError(t, err)
	require.Equal(t, Array, s.Type())
	assert.Equal(t, String, s.(*ArraySchema).Items.Type())

	s, err = ParseSchema(`{"type":"array", "items": {"type":"array", "items": "string"}}`)
	require.NoError(t, err)
	nested := s.(*ArraySchema).Items.(*ArraySchema)
	assert.Equal(t, String, nested.Items.Type())
}

func TestMapSchema(t *testing.T) {
	s, err := ParseSchema(`{"type":"map", "values": "int"}`)
	require.NoError(t, err)
	require.Equal(t, Map, s.Type())
	assert.Equal(t, Int, s.(*MapSchema).Values.Type())

	s, err = ParseSchema(`{"type":"map", "values": ["int", "string"]}`)
	require.NoError(t, err)
	union := s.(*MapSchema).Values.(*UnionSchema)
	assert.Equal(t, Int, union.Types[0].Type())
	assert.Equal(t, String, union.Types[1].Type())
}

func TestRecordSchema(t *testing.T) {
	raw := `{"namespace": "scalago", "type": "record", "name": "PingPong", "fields": [
		{"name": "counter", "type": "long"},
		{"name": "name", "type": "string"}
	]}`
	s, err := ParseSchema(raw)
	require.NoError(t, err)
	rec := s.(*RecordSchema)
	assert.Equal(t, "PingPong", rec.Name)
	assert.Equal(t, "counter", rec.Fields[0].Name)
	assert.Equal(t, 0, rec.Fields[0].Index)
	assert.Equal(t, Long, rec.Fields[0].Type.Type())
	assert.Equal(t, String, rec.Fields[1].Type.Type())

	field, ok := rec.FieldByName("name")
	require.True(t, ok)
	assert.Equal(t, 1, field.Index)
}

func TestRecordDuplicateFieldNameRejected(t *testing.T) {
	raw := `{"type": "record", "name": "Bad", "fields": [
		{"name": "x", "type": "long"},
		{"name": "x", "type": "string"}
	]}`
	_, err := ParseSchema(raw)
	require.Error(t, err)
}

func TestEnumSchema(t *testing.T) {
	s, err := ParseSchema(`{"type":"enum", "name":"foo", "symbols":["A", "B", "C", "D"]}`)
	require.NoError(t, err)
	enum := s.(*EnumSchema)
	assert.Equal(t, "foo", enum.Name)
	assert.Equal(t, []string{"A", "B", "C", "D"}, enum.Symbols)
	assert.Equal(t, 2, enum.Ordinal("C"))
	assert.Equal(t, -1, enum.Ordinal("Z"))
}

func TestEnumSchemaDuplicateSymbolRejected(t *testing.T) {
	_, err := ParseSchema(`{"type":"enum", "name":"foo", "symbols":["A", "A"]}`)
	require.Error(t, err)
}

func TestUnionSchema(t *testing.T) {
	s, err := ParseSchema(`["null", "string"]`)
	require.NoError(t, err)
	u := s.(*UnionSchema)
	assert.Equal(t, Null, u.Types[0].Type())
	assert.Equal(t, String, u.Types[1].Type())
	assert.Equal(t, 0, u.NullIndex())
}

func TestUnionSchemaRejectsNestedUnion(t *testing.T) {
	_, err := ParseSchema(`["null", ["string", "int"]]`)
	require.ErrorIs(t, err, ErrInvalidUnion)
}

func TestUnionSchemaRejectsDuplicateBranch(t *testing.T) {
	_, err := ParseSchema(`["string", "string"]`)
	require.ErrorIs(t, err, ErrInvalidUnion)
}

func TestFixedSchema(t *testing.T) {
	s, err := ParseSchema(`{"type": "fixed", "size": 16, "name": "md5"}`)
	require.NoError(t, err)
	fixed := s.(*FixedSchema)
	assert.Equal(t, 16, fixed.Size)
	assert.Equal(t, "md5", fixed.Name)
}

func TestSchemaRegistryMap(t *testing.T) {
	registry := make(map[string]Schema)

	_, err := ParseSchemaWithRegistry(`{"type": "record", "name": "TestRecord", "namespace": "com.github.elodina", "fields": [
		{"name": "longRecordField", "type": "long"}
	]}`, registry)
	require.NoError(t, err)
	assert.Len(t, registry, 1)

	_, err = ParseSchemaWithRegistry(`{"type": "record", "name": "TestRecord2", "namespace": "com.github.elodina", "fields": [
		{"name": "record", "type": ["null", "TestRecord"]}
	]}`, registry)
	require.NoError(t, err)
	assert.Len(t, registry, 2)
}

func TestRecordCustomProps(t *testing.T) {
	raw := `{"type": "record", "name": "TestRecord", "hello": "world", "fields": [
		{"name": "longRecordField", "type": "long"}
	]}`
	s, err := ParseSchema(raw)
	require.NoError(t, err)
	assert.Len(t, s.(*RecordSchema).Properties, 1)

	value, exists := s.Prop("hello")
	assert.True(t, exists)
	assert.Equal(t, "world", value)
}

func TestSchemaFingerprintStableAndDiscriminating(t *testing.T) {
	s0 := MustParseSchema(`{"type": "record", "name": "TestRecord", "namespace": "xyz", "hello": "world", "fields": [
		{"name": "field1", "type": "long"},
		{"name": "field2", "type": "string", "doc": "hello world"}
	]}`)
	s1 := MustParseSchema(`{"type": "record", "name": "TestRecord", "namespace": "xyz", "hello": "world", "fields": [
		{"name": "field1", "type": "long"},
		{"name": "field2", "type": "string", "doc": "hello"}
	]}`)
	assert.Equal(t, s0.Fingerprint(), s1.Fingerprint(), "doc is stripped from canonical form")

	schemas := []Schema{
		MustParseSchema(`{"type":"array", "items": "string"}`),
		MustParseSchema(`{"type":"array", "items": "long"}`),
		MustParseSchema(`{"type":"map", "values": "float"}`),
		MustParseSchema(`{"type":"map", "values": "double"}`),
		MustParseSchema(`["null", "string"]`),
		MustParseSchema(`["string", "null"]`),
		new(StringSchema),
		new(BytesSchema),
		new(IntSchema),
		new(LongSchema),
		new(FloatSchema),
		new(DoubleSchema),
		new(BooleanSchema),
		new(NullSchema),
	}
	seen := make(map[uint64]Schema)
	for _, s := range schemas {
		fp := s.Fingerprint()
		if other, ok := seen[fp]; ok {
			t.Fatalf("different schemas have same fingerprint: %s and %s", GetFullName(s), GetFullName(other))
		}
		seen[fp] = s
	}
}
