package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericRecordDecodeIntoStruct(t *testing.T) {
	schema := MustParseSchema(`{
		"type": "record", "name": "Person", "fields": [
			{ "name": "name", "type": "string" },
			{ "name": "age", "type": "int" }
		]
	}`).(*RecordSchema)

	rec := NewGenericRecord(schema)
	rec.Set("name", "ada")
	rec.Set("age", int32(36))

	type Person struct {
		Name string `avro:"name"`
		Age  int    `avro:"age"`
	}

	var p Person
	require.NoError(t, rec.Decode(&p))
	assert.Equal(t, "ada", p.Name)
	assert.Equal(t, 36, p.Age)
}
