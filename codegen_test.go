package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRecordAndNestedEnum(t *testing.T) {
	schema := MustParseSchema(`{
		"type": "record", "name": "Order", "namespace": "shop",
		"fields": [
			{ "name": "id", "type": "long" },
			{ "name": "status", "type": { "type": "enum", "name": "Status", "symbols": ["NEW", "SHIPPED"] } },
			{ "name": "note", "type": ["null", "string"] }
		]
	}`)

	src, err := Emit("shop", schema)
	require.NoError(t, err)
	assert.Contains(t, src, "package shop")
	assert.Contains(t, src, "type Order struct")
	assert.Contains(t, src, "Id int64")
	assert.Contains(t, src, "type Status string")
	assert.Contains(t, src, `Status = "NEW"`)
	assert.Contains(t, src, `Status = "SHIPPED"`)
	assert.Contains(t, src, "Note *string")
}

func TestEmitTracksLogicalImports(t *testing.T) {
	schema := MustParseSchema(`{
		"type": "record", "name": "Session", "fields": [
			{ "name": "token", "type": { "type": "string", "logicalType": "uuid" } },
			{ "name": "startedAt", "type": { "type": "long", "logicalType": "timestamp-millis" } }
		]
	}`)

	src, err := Emit("pkg", schema)
	require.NoError(t, err)
	assert.Contains(t, src, `"github.com/google/uuid"`)
	assert.Contains(t, src, `"time"`)
	assert.Contains(t, src, "uuid.UUID")
	assert.Contains(t, src, "time.Time")
}

func TestEmitFixed(t *testing.T) {
	schema := MustParseSchema(`{"type": "fixed", "name": "MD5", "size": 16}`)
	src, err := Emit("pkg", schema)
	require.NoError(t, err)
	assert.Contains(t, src, "type MD5 [16]byte")
}
