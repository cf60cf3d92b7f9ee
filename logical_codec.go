package avro

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// encodeLogical converts v's domain representation to the logical type's
// base wire shape and writes it through the ordinary primitive encoder.
func encodeLogical(s *LogicalSchema, v reflect.Value, enc Encoder) error {
	v = dereference(v)
	if !v.IsValid() {
		return fmt.Errorf("%w: nil value for logical type %s", ErrSchemaMismatch, s.Kind)
	}
	iv := v.Interface()

	switch s.Kind {
	case LogicalDecimal:
		d, ok := iv.(Decimal)
		if !ok {
			return fmt.Errorf("%w: expected Decimal, got %T", ErrSchemaMismatch, iv)
		}
		if !d.fitsPrecision(s.Precision) {
			return ErrDecimalOutOfRange
		}
		unscaled := d.Unscaled
		if unscaled == nil {
			unscaled = bigZero()
		}
		b := bigIntToTwosComplement(unscaled)
		switch s.Base.Type() {
		case Bytes:
			enc.WriteBytes(b)
		case Fixed:
			fs := s.Base.(*FixedSchema)
			enc.WriteFixed(padTwosComplement(b, fs.Size))
		}
		return nil

	case LogicalUUID:
		var u uuid.UUID
		switch t := iv.(type) {
		case uuid.UUID:
			u = t
		case string:
			parsed, err := uuid.Parse(t)
			if err != nil {
				return fmt.Errorf("%w: invalid uuid string: %v", ErrSchemaMismatch, err)
			}
			u = parsed
		default:
			return fmt.Errorf("%w: expected uuid.UUID or string, got %T", ErrSchemaMismatch, iv)
		}
		return enc.WriteString(u.String())

	case LogicalDate:
		d, ok := iv.(Date)
		if !ok {
			return fmt.Errorf("%w: expected Date, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteInt(d.DaysSinceEpoch())
		return nil

	case LogicalTimeMillis:
		dur, ok := iv.(time.Duration)
		if !ok {
			return fmt.Errorf("%w: expected time.Duration, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteInt(int32(dur.Milliseconds()))
		return nil

	case LogicalTimeMicros:
		dur, ok := iv.(time.Duration)
		if !ok {
			return fmt.Errorf("%w: expected time.Duration, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteLong(dur.Microseconds())
		return nil

	case LogicalTimestampMillis:
		t, ok := iv.(time.Time)
		if !ok {
			return fmt.Errorf("%w: expected time.Time, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteLong(t.UnixMilli())
		return nil

	case LogicalTimestampMicros:
		t, ok := iv.(time.Time)
		if !ok {
			return fmt.Errorf("%w: expected time.Time, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteLong(t.UnixMicro())
		return nil

	case LogicalLocalTimestampMillis:
		lt, ok := iv.(LocalTimestamp)
		if !ok {
			return fmt.Errorf("%w: expected LocalTimestamp, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteLong(lt.Time.UnixMilli())
		return nil

	case LogicalLocalTimestampMicros:
		lt, ok := iv.(LocalTimestamp)
		if !ok {
			return fmt.Errorf("%w: expected LocalTimestamp, got %T", ErrSchemaMismatch, iv)
		}
		enc.WriteLong(lt.Time.UnixMicro())
		return nil

	case LogicalDuration:
		d, ok := iv.(Duration)
		if !ok {
			return fmt.Errorf("%w: expected Duration, got %T", ErrSchemaMismatch, iv)
		}
		buf := make([]byte, 12)
		putUint32LE(buf[0:4], d.Months)
		putUint32LE(buf[4:8], d.Days)
		putUint32LE(buf[8:12], d.Millis)
		enc.WriteFixed(buf)
		return nil
	}
	return fmt.Errorf("%w: unhandled logical kind %s", ErrInvalidSchema, s.Kind)
}

// decodeLogical reads the logical type's base wire shape and converts it
// into the domain representation callers work with.
func decodeLogical(s *LogicalSchema, dec Decoder) (interface{}, error) {
	switch s.Kind {
	case LogicalDecimal:
		var raw []byte
		var err error
		switch s.Base.Type() {
		case Bytes:
			raw, err = dec.ReadBytes()
		case Fixed:
			raw, err = dec.ReadFixed(s.Base.(*FixedSchema).Size)
		}
		if err != nil {
			return nil, err
		}
		unscaled := twosComplementToBigInt(raw)
		d := Decimal{Unscaled: unscaled, Scale: s.Scale}
		if !d.fitsPrecision(s.Precision) {
			return nil, ErrDecimalOutOfRange
		}
		return d, nil

	case LogicalUUID:
		str, err := dec.ReadString()
		if err != nil {
			return nil, err
		}
		u, err := uuid.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid uuid on wire: %v", ErrSchemaMismatch, err)
		}
		return u, nil

	case LogicalDate:
		days, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		return DateFromEpochDays(days), nil

	case LogicalTimeMillis:
		ms, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		return time.Duration(ms) * time.Millisecond, nil

	case LogicalTimeMicros:
		us, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		return time.Duration(us) * time.Microsecond, nil

	case LogicalTimestampMillis:
		ms, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil

	case LogicalTimestampMicros:
		us, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		return time.UnixMicro(us).UTC(), nil

	case LogicalLocalTimestampMillis:
		ms, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		return LocalTimestamp{Time: time.UnixMilli(ms).UTC()}, nil

	case LogicalLocalTimestampMicros:
		us, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		return LocalTimestamp{Time: time.UnixMicro(us).UTC()}, nil

	case LogicalDuration:
		buf, err := dec.ReadFixed(12)
		if err != nil {
			return nil, err
		}
		return Duration{
			Months: getUint32LE(buf[0:4]),
			Days:   getUint32LE(buf[4:8]),
			Millis: getUint32LE(buf[8:12]),
		}, nil
	}
	return nil, fmt.Errorf("%w: unhandled logical kind %s", ErrInvalidSchema, s.Kind)
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
