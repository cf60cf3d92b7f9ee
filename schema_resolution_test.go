package avro

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatumProjectorFieldRenameAndPromotion(t *testing.T) {
	writerSchema := MustParseSchema(`{
		"type": "record", "name": "Rec", "fields": [
			{ "name": "id", "type": "int" },
			{ "name": "score", "type": "long" },
			{ "name": "legacy", "type": "string" }
		]
	}`)
	readerSchema := MustParseSchema(`{
		"type": "record", "name": "Rec", "fields": [
			{ "name": "key", "type": "long", "aliases": ["id"] },
			{ "name": "score", "type": "double" },
			{ "name": "added", "type": "int", "default": 7 }
		]
	}`)

	writer := NewGenericRecord(writerSchema.(*RecordSchema))
	writer.Set("id", int32(42))
	writer.Set("score", int64(100))
	writer.Set("legacy", "dropped")

	var buf bytes.Buffer
	w := NewGenericDatumWriter()
	w.SetSchema(writerSchema)
	require.NoError(t, w.Write(writer, NewBinaryEncoder(&buf)))

	projector := NewDatumProjector(readerSchema, writerSchema)
	var decoded interface{}
	require.NoError(t, projector.Read(&decoded, NewBinaryDecoder(buf.Bytes())))

	rec, ok := decoded.(*GenericRecord)
	require.True(t, ok)
	assert.Equal(t, int64(42), rec.Get("key"))
	assert.Equal(t, float64(100), rec.Get("score"))
	assert.Equal(t, int32(7), rec.Get("added"))
}

func TestDatumProjectorIntoStruct(t *testing.T) {
	writerSchema := MustParseSchema(`{
		"type": "record", "name": "Rec", "fields": [
			{ "name": "id", "type": "int" },
			{ "name": "name", "type": "string" }
		]
	}`)
	readerSchema := MustParseSchema(`{
		"type": "record", "name": "Rec", "fields": [
			{ "name": "id", "type": "long" },
			{ "name": "name", "type": "string" }
		]
	}`)

	writer := NewGenericRecord(writerSchema.(*RecordSchema))
	writer.Set("id", int32(9))
	writer.Set("name", "hello")

	var buf bytes.Buffer
	w := NewGenericDatumWriter()
	w.SetSchema(writerSchema)
	require.NoError(t, w.Write(writer, NewBinaryEncoder(&buf)))

	type Rec struct {
		Id   int64
		Name string
	}

	projector := NewDatumProjector(readerSchema, writerSchema)
	decoded := new(Rec)
	require.NoError(t, projector.Read(decoded, NewBinaryDecoder(buf.Bytes())))
	assert.Equal(t, int64(9), decoded.Id)
	assert.Equal(t, "hello", decoded.Name)
}

func TestDatumProjectorEnumDefault(t *testing.T) {
	writerSchema := MustParseSchema(`{"type": "enum", "name": "Suit", "symbols": ["SPADES", "HEARTS"]}`)
	readerSchema := MustParseSchema(`{"type": "enum", "name": "Suit", "symbols": ["SPADES", "CLUBS"], "default": "SPADES"}`)

	var buf bytes.Buffer
	enc := NewBinaryEncoder(&buf)
	enc.WriteInt(1) // HEARTS, unknown to reader

	projector := NewDatumProjector(readerSchema, writerSchema)
	var symbol string
	require.NoError(t, projector.Read(&symbol, NewBinaryDecoder(buf.Bytes())))
	assert.Equal(t, "SPADES", symbol)
}
