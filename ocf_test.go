package avro

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFileRoundTripNullCodec(t *testing.T) {
	schema := MustParseSchema(`{
		"type": "record", "name": "Event", "fields": [
			{ "name": "id", "type": "long" },
			{ "name": "name", "type": "string" }
		]
	}`).(*RecordSchema)

	var buf bytes.Buffer
	w, err := NewDataFileWriter(&buf, schema, "null")
	require.NoError(t, err)

	for i := int64(0); i < 5; i++ {
		rec := NewGenericRecord(schema)
		rec.Set("id", i)
		rec.Set("name", "row")
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	reader, err := NewDataFileReaderBytes(buf.Bytes(), NewGenericDatumReader())
	require.NoError(t, err)
	assert.Equal(t, Record, reader.Schema().Type())

	var got []int64
	for {
		rec := NewGenericRecord(schema)
		err := reader.Next(rec)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec.Get("id").(int64))
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, got)
}

func TestDataFileRoundTripDeflate(t *testing.T) {
	schema := MustParseSchema(`{"type": "record", "name": "Event", "fields": [{ "name": "id", "type": "long" }]}`).(*RecordSchema)

	var buf bytes.Buffer
	w, err := NewDataFileWriter(&buf, schema, "deflate", WithBlockSize(8))
	require.NoError(t, err)
	for i := int64(0); i < 20; i++ {
		rec := NewGenericRecord(schema)
		rec.Set("id", i)
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	reader, err := NewDataFileReaderBytes(buf.Bytes(), NewGenericDatumReader())
	require.NoError(t, err)

	var count int
	for {
		rec := NewGenericRecord(schema)
		err := reader.Next(rec)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, int64(count), rec.Get("id"))
		count++
	}
	assert.Equal(t, 20, count)
}

func TestDataFileBadMagic(t *testing.T) {
	_, err := NewDataFileReaderBytes([]byte("not-avro-at-all"), NewGenericDatumReader())
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDataFileSeek(t *testing.T) {
	schema := MustParseSchema(`{"type": "record", "name": "Event", "fields": [{ "name": "id", "type": "long" }]}`).(*RecordSchema)

	var buf bytes.Buffer
	w, err := NewDataFileWriter(&buf, schema, "null", WithBlockSize(1))
	require.NoError(t, err)
	for i := int64(0); i < 10; i++ {
		rec := NewGenericRecord(schema)
		rec.Set("id", i)
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	reader, err := NewDataFileReaderBytes(buf.Bytes(), NewGenericDatumReader())
	require.NoError(t, err)
	require.NoError(t, reader.Seek(7))

	rec := NewGenericRecord(schema)
	require.NoError(t, reader.Next(rec))
	assert.Equal(t, int64(7), rec.Get("id"))
}
