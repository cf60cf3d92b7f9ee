package avro

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests pin the exact wire bytes for a handful of values, rather than
// merely asserting round-trip: a round-trip test alone would pass even if
// both write and read drifted to some other format that happened to agree
// with itself.

func encodeWith(t *testing.T, schema Schema, v interface{}) []byte {
	t.Helper()
	w := NewGenericDatumWriter()
	w.SetSchema(schema)
	var buf bytes.Buffer
	require.NoError(t, w.Write(v, NewBinaryEncoder(&buf)))
	return buf.Bytes()
}

func TestGoldenBoolean(t *testing.T) {
	s := new(BooleanSchema)
	assert.Equal(t, []byte{0x01}, encodeWith(t, s, true))
	assert.Equal(t, []byte{0x00}, encodeWith(t, s, false))
}

func TestGoldenLong(t *testing.T) {
	s := new(LongSchema)
	assert.Equal(t, []byte{0x02}, encodeWith(t, s, int64(1)))
	assert.Equal(t, []byte{0x7e}, encodeWith(t, s, int64(63)))
	assert.Equal(t, []byte{0x80, 0x01}, encodeWith(t, s, int64(64)))
	assert.Equal(t, []byte{0x01}, encodeWith(t, s, int64(-1)))
	assert.Equal(t, []byte{0x81, 0x01}, encodeWith(t, s, int64(-65)))
}

func TestGoldenString(t *testing.T) {
	s := new(StringSchema)
	got := encodeWith(t, s, "hey there stranger")
	require.Len(t, got, 19)
	assert.Equal(t, byte(0x24), got[0])
	assert.Equal(t, []byte("hey there stranger"), got[1:])
}

func TestGoldenNull(t *testing.T) {
	s := new(NullSchema)
	var missing interface{}
	assert.Empty(t, encodeWith(t, s, missing))
}

func TestGoldenRecord(t *testing.T) {
	schema := MustParseSchema(`{
		"type": "record",
		"name": "Reading",
		"fields": [
			{ "name": "sensor_id", "type": "long" },
			{ "name": "temp", "type": "double" },
			{ "name": "label", "type": ["null", "string"] }
		]
	}`).(*RecordSchema)

	rec := NewGenericRecord(schema)
	rec.Set("sensor_id", int64(42))
	rec.Set("temp", 21.5)
	rec.Set("label", "normal")

	got := encodeWith(t, schema, rec)

	// VarZigZag(42) = 0x54
	require.NotEmpty(t, got)
	assert.Equal(t, byte(0x54), got[0])

	// 8 little-endian bytes of the double 21.5 follow.
	doubleBytes := got[1:9]
	dec := NewBinaryDecoder(doubleBytes)
	f, err := dec.ReadDouble()
	require.NoError(t, err)
	assert.Equal(t, 21.5, f)

	// Union index 1 ("string" branch), then VarZigZag(6)=0x0c and "normal".
	rest := got[9:]
	assert.Equal(t, []byte{0x02, 0x0c}, rest[:2])
	assert.Equal(t, []byte("normal"), rest[2:])

	assert.Len(t, got, 1+8+1+1+6)

	// Size/write consistency for this same value.
	w := NewGenericDatumWriter()
	w.SetSchema(schema)
	size, err := w.Size(rec)
	require.NoError(t, err)
	assert.Equal(t, len(got), size)
}
