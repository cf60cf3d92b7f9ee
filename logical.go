package avro

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// LogicalKind names one of the logical types from
// https://avro.apache.org/docs/1.8.2/spec.html#Logical+Types
type LogicalKind string

const (
	LogicalDecimal                LogicalKind = "decimal"
	LogicalUUID                   LogicalKind = "uuid"
	LogicalDate                   LogicalKind = "date"
	LogicalTimeMillis             LogicalKind = "time-millis"
	LogicalTimeMicros             LogicalKind = "time-micros"
	LogicalTimestampMillis        LogicalKind = "timestamp-millis"
	LogicalTimestampMicros        LogicalKind = "timestamp-micros"
	LogicalLocalTimestampMillis   LogicalKind = "local-timestamp-millis"
	LogicalLocalTimestampMicros   LogicalKind = "local-timestamp-micros"
	LogicalDuration               LogicalKind = "duration"
)

// recognizedFor reports whether this logical kind is legal layered over
// base, per the table in the Avro spec (decimal over bytes/fixed, uuid
// over string, date/time-millis over int, time-micros and the timestamp
// family over long, duration over fixed(12)).
func (k LogicalKind) recognizedFor(base Schema) bool {
	switch k {
	case LogicalDecimal:
		switch base.Type() {
		case Bytes, Fixed:
			return true
		}
	case LogicalUUID:
		return base.Type() == String
	case LogicalDate, LogicalTimeMillis:
		return base.Type() == Int
	case LogicalTimeMicros, LogicalTimestampMillis, LogicalTimestampMicros,
		LogicalLocalTimestampMillis, LogicalLocalTimestampMicros:
		return base.Type() == Long
	case LogicalDuration:
		fs, ok := base.(*FixedSchema)
		return ok && fs.Size == 12
	}
	return false
}

// LogicalSchema overlays a logical type on a base primitive/fixed schema.
// Canonical form strips the overlay entirely: per the Avro Parsing Canonical
// Form rules, logicalType (and any accompanying precision/scale) is stripped,
// so Canonical/Fingerprint delegate straight to Base.
type LogicalSchema struct {
	hashable
	Base      Schema
	Kind      LogicalKind
	Precision int
	Scale     int
}

func (s *LogicalSchema) Canonical() ([]byte, error) { return s.Base.Canonical() }
func (s *LogicalSchema) Fingerprint() uint64         { return s.Base.Fingerprint() }
func (*LogicalSchema) Type() int                     { return Logical }
func (s *LogicalSchema) GetName() string             { return s.Base.GetName() }
func (s *LogicalSchema) Prop(key string) (interface{}, bool) {
	return s.Base.Prop(key)
}

func (s *LogicalSchema) String() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (s *LogicalSchema) MarshalJSON() ([]byte, error) {
	baseJSON, err := json.Marshal(s.Base)
	if err != nil {
		return nil, err
	}
	var baseFields map[string]interface{}
	// Primitive bases marshal to a bare JSON string (e.g. "long"); promote
	// to {"type": "long"} so the logicalType overlay has somewhere to live.
	if err := json.Unmarshal(baseJSON, &baseFields); err != nil {
		var baseName string
		if err := json.Unmarshal(baseJSON, &baseName); err != nil {
			return nil, err
		}
		baseFields = map[string]interface{}{"type": baseName}
	}
	baseFields["logicalType"] = string(s.Kind)
	if s.Kind == LogicalDecimal {
		baseFields["precision"] = s.Precision
		if s.Scale != 0 {
			baseFields["scale"] = s.Scale
		}
	}
	return json.Marshal(baseFields)
}

// Validate type-switches the decoded Go value against the domain type this
// logical kind is expected to bridge to.
func (s *LogicalSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	if !v.IsValid() {
		return false
	}
	iv := v.Interface()
	switch s.Kind {
	case LogicalDecimal:
		d, ok := iv.(Decimal)
		if !ok {
			return false
		}
		return d.fitsPrecision(s.Precision)
	case LogicalUUID:
		switch iv.(type) {
		case uuid.UUID, string:
			return true
		}
		return false
	case LogicalDate:
		_, ok := iv.(Date)
		return ok
	case LogicalTimeMillis, LogicalTimeMicros:
		_, ok := iv.(time.Duration)
		return ok
	case LogicalTimestampMillis, LogicalTimestampMicros:
		_, ok := iv.(time.Time)
		return ok
	case LogicalLocalTimestampMillis, LogicalLocalTimestampMicros:
		_, ok := iv.(LocalTimestamp)
		return ok
	case LogicalDuration:
		_, ok := iv.(Duration)
		return ok
	}
	return false
}

// Decimal is the host value for the "decimal" logical type: an arbitrary
// precision unscaled integer plus the number of digits after the point.
type Decimal struct {
	Unscaled *big.Int
	Scale    int
}

func (d Decimal) fitsPrecision(precision int) bool {
	if d.Unscaled == nil {
		return true
	}
	// digit count of |Unscaled| must not exceed precision.
	abs := new(big.Int).Abs(d.Unscaled)
	return len(abs.Text(10)) <= precision || abs.Sign() == 0
}

// Rat returns the decimal value as an exact rational number.
func (d Decimal) Rat() *big.Rat {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
	return new(big.Rat).SetFrac(d.Unscaled, denom)
}

func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}
	return d.Rat().FloatString(d.Scale)
}

// Date is the host value for the "date" logical type: a calendar date with
// no time-of-day or zone component, stored as days since the Unix epoch.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC on its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DaysSinceEpoch returns the day count written to the wire for "date".
func (d Date) DaysSinceEpoch() int32 {
	return int32(d.Time.Unix() / 86400)
}

// DateFromEpochDays builds a Date from the wire day count.
func DateFromEpochDays(days int32) Date {
	return Date{time.Unix(int64(days)*86400, 0).UTC()}
}

// LocalTimestamp is the host value for the local-timestamp-* logical types:
// a timestamp with no attached time zone (wall-clock time).
type LocalTimestamp struct {
	time.Time
}

// Duration is the host value for the "duration" logical type, an
// amount-of-time value not reducible to a fixed number of milliseconds
// (months vary in length), stored as three little-endian uint32 fields.
type Duration struct {
	Months uint32
	Days   uint32
	Millis uint32
}

func (d Duration) String() string {
	return fmt.Sprintf("%dmo%dd%dms", d.Months, d.Days, d.Millis)
}
