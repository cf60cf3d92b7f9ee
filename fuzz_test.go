package avro

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// complexFuzzSchemaRaw exercises every composite schema kind in one record:
// array, map, enum, union, fixed, and a nested record (itself referenced a
// second time through a map), so a single fuzz corpus drives the decoder's
// full recursive dispatch.
const complexFuzzSchemaRaw = `{
	"type": "record",
	"namespace": "fuzz.avro",
	"name": "Complex",
	"fields": [
		{ "name": "stringArray", "type": { "type": "array", "items": "string" } },
		{ "name": "longArray", "type": { "type": "array", "items": "long" } },
		{ "name": "enumField", "type": { "type": "enum", "name": "Suit", "symbols": ["A", "B", "C", "D"] } },
		{ "name": "mapOfInts", "type": { "type": "map", "values": "int" } },
		{ "name": "unionField", "type": ["null", "string", "boolean"] },
		{ "name": "fixedField", "type": { "type": "fixed", "size": 16, "name": "MD5" } },
		{ "name": "recordField", "type": ["null", {
			"type": "record",
			"name": "TestRecord",
			"fields": [
				{ "name": "longRecordField", "type": "long" },
				{ "name": "stringRecordField", "type": "string" },
				{ "name": "intRecordField", "type": "int" },
				{ "name": "floatRecordField", "type": "float" }
			]
		}] },
		{ "name": "mapOfRecord", "type": { "type": "map", "values": "TestRecord" } }
	]
}`

type fuzzTestRecord struct {
	LongRecordField   int64
	StringRecordField string
	IntRecordField    int32
	FloatRecordField  float32
}

type fuzzComplex struct {
	StringArray []string
	LongArray   []int64
	EnumField   *GenericEnum
	MapOfInts   map[string]int32
	UnionField  interface{}
	FixedField  []byte
	RecordField *fuzzTestRecord
	MapOfRecord map[string]*fuzzTestRecord
}

func complexFuzzSchema() *RecordSchema {
	return MustParseSchema(complexFuzzSchemaRaw).(*RecordSchema)
}

func complexEnumField(symbol string) *GenericEnum {
	return &GenericEnum{Symbols: []string{"A", "B", "C", "D"}, Symbol: symbol}
}

// testRecordSchema returns the "TestRecord" schema nested inside the
// complex schema's recordField union, for building values of it directly.
func testRecordSchema(schema *RecordSchema) *RecordSchema {
	field, ok := schema.FieldByName("recordField")
	if !ok {
		return nil
	}
	union := field.Type.(*UnionSchema)
	for _, t := range union.Types {
		if rs, ok := t.(*RecordSchema); ok {
			return rs
		}
	}
	return nil
}

func newTestRecord(trSchema *RecordSchema, long int64, str string, i int32, f float32) *GenericRecord {
	rec := NewGenericRecord(trSchema)
	rec.Set("longRecordField", long)
	rec.Set("stringRecordField", str)
	rec.Set("intRecordField", i)
	rec.Set("floatRecordField", f)
	return rec
}

// seedComplexRecords returns a handful of populated GenericRecords covering
// each branch of the schema, mirroring the fixtures a hand-seeded corpus
// would hold: one dense record, one record populating only the string
// array, and one record taking the boolean branch of the union.
func seedComplexRecords(schema *RecordSchema) []*GenericRecord {
	fixed16 := []byte("0123456789abcdef")
	trSchema := testRecordSchema(schema)

	dense := NewGenericRecord(schema)
	dense.Set("stringArray", []string{"abc", "def"})
	dense.Set("longArray", []int64{978, -1, math.MaxInt64, math.MinInt64})
	dense.Set("enumField", complexEnumField("D"))
	dense.Set("mapOfInts", map[string]int32{"aaa": 485, "bbb": math.MaxInt32})
	dense.Set("unionField", "AAAAAAAAAABCDEF")
	dense.Set("fixedField", fixed16)
	dense.Set("recordField", newTestRecord(trSchema, 42, "nested", 7, 1.5))
	dense.Set("mapOfRecord", map[string]interface{}{
		"x": newTestRecord(trSchema, -1, "y", 0, 0),
	})

	stringsOnly := NewGenericRecord(schema)
	stringsOnly.Set("stringArray", []string{"abc", "def", "ghi", "jkl"})
	stringsOnly.Set("longArray", []int64{})
	stringsOnly.Set("enumField", complexEnumField("A"))
	stringsOnly.Set("mapOfInts", map[string]int32{})
	stringsOnly.Set("unionField", nil)
	stringsOnly.Set("fixedField", fixed16)
	stringsOnly.Set("recordField", nil)
	stringsOnly.Set("mapOfRecord", map[string]interface{}{})

	unionBool := NewGenericRecord(schema)
	unionBool.Set("stringArray", []string{})
	unionBool.Set("longArray", []int64{})
	unionBool.Set("enumField", complexEnumField("B"))
	unionBool.Set("mapOfInts", map[string]int32{})
	unionBool.Set("unionField", true)
	unionBool.Set("fixedField", fixed16)
	unionBool.Set("recordField", nil)
	unionBool.Set("mapOfRecord", map[string]interface{}{})

	return []*GenericRecord{dense, stringsOnly, unionBool}
}

// FuzzGenericRecordDecode feeds arbitrary bytes to the generic reader
// against a schema exercising every composite kind. The property under test
// is that decode either succeeds or returns a clean error; it must never
// panic or read past the end of the input, regardless of how the corpus is
// mutated.
func FuzzGenericRecordDecode(f *testing.F) {
	schema := complexFuzzSchema()
	w := NewGenericDatumWriter()
	w.SetSchema(schema)

	for _, rec := range seedComplexRecords(schema) {
		var buf bytes.Buffer
		if err := w.Write(rec, NewBinaryEncoder(&buf)); err == nil {
			f.Add(buf.Bytes())
		}
	}
	f.Add([]byte{})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewGenericDatumReader()
		r.SetSchema(schema)
		decoded := NewGenericRecord(schema)
		if err := r.Read(decoded, NewBinaryDecoder(data)); err != nil {
			return
		}

		// A successful decode must round trip: re-encoding what was
		// decoded reproduces exactly the bytes the reader consumed.
		var reencoded bytes.Buffer
		require.NoError(t, w.Write(decoded, NewBinaryEncoder(&reencoded)))
		assertConsumedPrefix(t, data, reencoded.Bytes())
	})
}

// FuzzSpecificRecordDecode mirrors FuzzGenericRecordDecode but decodes into
// a plain Go struct, exercising the specific reader's reflection-based field
// binding (including the nested-record and map-of-record cases) against the
// same arbitrary-input-never-panics property.
func FuzzSpecificRecordDecode(f *testing.F) {
	schema := complexFuzzSchema()
	w := NewGenericDatumWriter()
	w.SetSchema(schema)

	for _, rec := range seedComplexRecords(schema) {
		var buf bytes.Buffer
		if err := w.Write(rec, NewBinaryEncoder(&buf)); err == nil {
			f.Add(buf.Bytes())
		}
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewSpecificDatumReader()
		r.SetSchema(schema)
		var dest fuzzComplex
		_ = r.Read(&dest, NewBinaryDecoder(data))
	})
}

// FuzzVarintRoundTrip is the primitive-level round-trip property behind
// every composite fuzz target above: any int64 written as a zig-zag varint
// must read back to the same value, and the byte count written must match
// varintSize's prediction exactly.
func FuzzVarintRoundTrip(f *testing.F) {
	for _, seed := range []int64{0, 1, -1, 64, -64, math.MaxInt64, math.MinInt64, 1<<32 - 1} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, n int64) {
		var buf bytes.Buffer
		enc := NewBinaryEncoder(&buf)
		enc.WriteLong(n)
		require.Equal(t, varintSize(n), buf.Len())

		got, err := NewBinaryDecoder(buf.Bytes()).ReadLong()
		require.NoError(t, err)
		require.Equal(t, n, got)
	})
}

// assertConsumedPrefix checks that reencoded is exactly the prefix of
// original that the reader consumed to produce decoded; original may carry
// fuzzer-appended trailing garbage past the value's own encoding.
func assertConsumedPrefix(t *testing.T, original, reencoded []byte) {
	t.Helper()
	require.LessOrEqual(t, len(reencoded), len(original))
	require.Equal(t, reencoded, original[:len(reencoded)])
}
