package avro

import (
	"bytes"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripLogical(t *testing.T, s *LogicalSchema, v interface{}) interface{} {
	t.Helper()
	var buf bytes.Buffer
	enc := NewBinaryEncoder(&buf)
	require.NoError(t, encodeLogical(s, reflect.ValueOf(v), enc))

	decoded, err := decodeLogical(s, NewBinaryDecoder(buf.Bytes()))
	require.NoError(t, err)
	return decoded
}

func TestLogicalDecimalBytesRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(BytesSchema), Kind: LogicalDecimal, Precision: 10, Scale: 2}
	d := Decimal{Unscaled: big.NewInt(12345), Scale: 2}
	got := roundTripLogical(t, s, d)
	assert.Equal(t, "123.45", got.(Decimal).String())
}

func TestLogicalDecimalFixedRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: &FixedSchema{Size: 8}, Kind: LogicalDecimal, Precision: 10, Scale: 2}
	d := Decimal{Unscaled: big.NewInt(-500), Scale: 2}
	got := roundTripLogical(t, s, d)
	assert.Equal(t, "-5.00", got.(Decimal).String())
}

func TestLogicalDecimalOutOfRange(t *testing.T) {
	s := &LogicalSchema{Base: new(BytesSchema), Kind: LogicalDecimal, Precision: 2, Scale: 0}
	d := Decimal{Unscaled: big.NewInt(12345), Scale: 0}
	var buf bytes.Buffer
	err := encodeLogical(s, reflect.ValueOf(d), NewBinaryEncoder(&buf))
	require.ErrorIs(t, err, ErrDecimalOutOfRange)
}

func TestLogicalUUIDRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(StringSchema), Kind: LogicalUUID}
	u := uuid.New()
	got := roundTripLogical(t, s, u)
	assert.Equal(t, u, got.(uuid.UUID))
}

func TestLogicalUUIDFromString(t *testing.T) {
	s := &LogicalSchema{Base: new(StringSchema), Kind: LogicalUUID}
	u := uuid.New()
	var buf bytes.Buffer
	require.NoError(t, encodeLogical(s, reflect.ValueOf(u.String()), NewBinaryEncoder(&buf)))
	decoded, err := decodeLogical(s, NewBinaryDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, u, decoded.(uuid.UUID))
}

func TestLogicalDateRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(IntSchema), Kind: LogicalDate}
	d := NewDate(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	got := roundTripLogical(t, s, d)
	assert.Equal(t, d.DaysSinceEpoch(), got.(Date).DaysSinceEpoch())
}

func TestLogicalTimeMillisRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(IntSchema), Kind: LogicalTimeMillis}
	got := roundTripLogical(t, s, 45*time.Second+123*time.Millisecond)
	assert.Equal(t, 45123*time.Millisecond, got.(time.Duration))
}

func TestLogicalTimeMicrosRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(LongSchema), Kind: LogicalTimeMicros}
	got := roundTripLogical(t, s, 45123456*time.Microsecond)
	assert.Equal(t, 45123456*time.Microsecond, got.(time.Duration))
}

func TestLogicalTimestampMillisRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(LongSchema), Kind: LogicalTimestampMillis}
	now := time.Now().Truncate(time.Millisecond)
	got := roundTripLogical(t, s, now)
	assert.True(t, now.Equal(got.(time.Time)))
}

func TestLogicalTimestampMicrosRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(LongSchema), Kind: LogicalTimestampMicros}
	now := time.Now().Truncate(time.Microsecond)
	got := roundTripLogical(t, s, now)
	assert.True(t, now.Equal(got.(time.Time)))
}

func TestLogicalLocalTimestampMillisRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: new(LongSchema), Kind: LogicalLocalTimestampMillis}
	now := LocalTimestamp{Time: time.Now().Truncate(time.Millisecond)}
	got := roundTripLogical(t, s, now)
	assert.True(t, now.Time.Equal(got.(LocalTimestamp).Time))
}

func TestLogicalDurationRoundTrip(t *testing.T) {
	s := &LogicalSchema{Base: &FixedSchema{Size: 12}, Kind: LogicalDuration}
	d := Duration{Months: 3, Days: 10, Millis: 5000}
	got := roundTripLogical(t, s, d)
	assert.Equal(t, d, got.(Duration))
}

func TestLogicalNilValueErrors(t *testing.T) {
	s := &LogicalSchema{Base: new(StringSchema), Kind: LogicalUUID}
	var buf bytes.Buffer
	err := encodeLogical(s, reflect.ValueOf((*uuid.UUID)(nil)), NewBinaryEncoder(&buf))
	require.ErrorIs(t, err, ErrSchemaMismatch)
}
