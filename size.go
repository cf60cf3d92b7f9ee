package avro

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// sizeLong returns the number of bytes putVarint would write for i,
// matching the size written by BinaryEncoder.WriteInt/WriteLong exactly.
func sizeLong(i int64) int { return varintSize(i) }

// sizeBytes returns the wire size of a length-prefixed byte string.
func sizeBytes(b []byte) int { return sizeLong(int64(len(b))) + len(b) }

// sizeString returns the wire size of a length-prefixed UTF-8 string.
func sizeString(s string) int { return sizeLong(int64(len(s))) + len(s) }

// sizeValue recursively computes the number of bytes encodeValue would write
// for v against schema, without writing them. It mirrors encodeValue's
// dispatch case for case so that len(write(v, schema)) == size(v, schema)
// holds for every schema kind.
func sizeValue(schema Schema, v reflect.Value) (int, error) {
	v = dereference(v)

	switch s := schema.(type) {
	case *NullSchema:
		return 0, nil
	case *BooleanSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected bool, got %v", ErrSchemaMismatch, v)
		}
		return 1, nil
	case *IntSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected int32, got %v", ErrSchemaMismatch, v)
		}
		return sizeLong(v.Int()), nil
	case *LongSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected int64, got %v", ErrSchemaMismatch, v)
		}
		return sizeLong(v.Int()), nil
	case *FloatSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected float32, got %v", ErrSchemaMismatch, v)
		}
		return 4, nil
	case *DoubleSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected float64, got %v", ErrSchemaMismatch, v)
		}
		return 8, nil
	case *BytesSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected []byte, got %v", ErrSchemaMismatch, v)
		}
		return sizeBytes(v.Bytes()), nil
	case *StringSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected string, got %v", ErrSchemaMismatch, v)
		}
		return sizeString(v.String()), nil
	case *FixedSchema:
		if !s.Validate(v) {
			return 0, fmt.Errorf("%w: expected %d-byte fixed, got %v", ErrSchemaMismatch, s.Size, v)
		}
		return s.Size, nil
	case *EnumSchema:
		symbol, err := enumSymbol(v)
		if err != nil {
			return 0, err
		}
		ord := s.Ordinal(symbol)
		if ord < 0 {
			return 0, fmt.Errorf("%w: symbol %q not in %v", ErrEnumOutOfRange, symbol, s.Symbols)
		}
		return sizeLong(int64(ord)), nil
	case *ArraySchema:
		return sizeArray(s, v)
	case *MapSchema:
		return sizeMap(s, v)
	case *UnionSchema:
		return sizeUnion(s, v)
	case *RecordSchema:
		return sizeRecord(s, v)
	case *RecursiveSchema:
		return sizeValue(s.Actual, v)
	case *LogicalSchema:
		return sizeLogical(s, v)
	default:
		return 0, fmt.Errorf("%w: unhandled schema type %T", ErrInvalidSchema, schema)
	}
}

func sizeArray(s *ArraySchema, v reflect.Value) (int, error) {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return 0, fmt.Errorf("%w: expected slice/array for array schema, got %v", ErrSchemaMismatch, v)
	}
	n := v.Len()
	total := 0
	if n > 0 {
		total += sizeLong(int64(n))
		for i := 0; i < n; i++ {
			itemSize, err := sizeValue(s.Items, v.Index(i))
			if err != nil {
				return 0, fmt.Errorf("array[%d]: %w", i, err)
			}
			total += itemSize
		}
	}
	total += sizeLong(0) // WriteBlockEnd
	return total, nil
}

func sizeMap(s *MapSchema, v reflect.Value) (int, error) {
	if v.Kind() != reflect.Map {
		return 0, fmt.Errorf("%w: expected map for map schema, got %v", ErrSchemaMismatch, v)
	}
	keys := v.MapKeys()
	total := 0
	if len(keys) > 0 {
		total += sizeLong(int64(len(keys)))
		for _, k := range keys {
			total += sizeString(k.String())
			valSize, err := sizeValue(s.Values, v.MapIndex(k))
			if err != nil {
				return 0, fmt.Errorf("map[%q]: %w", k.String(), err)
			}
			total += valSize
		}
	}
	total += sizeLong(0) // WriteBlockEnd
	return total, nil
}

func sizeUnion(s *UnionSchema, v reflect.Value) (int, error) {
	idx, err := s.BranchFor(v)
	if err != nil {
		return 0, err
	}
	total := sizeLong(int64(idx))
	branch := s.Types[idx]
	if branch.Type() == Null {
		return total, nil
	}
	branchSize, err := sizeValue(branch, v)
	if err != nil {
		return 0, err
	}
	return total + branchSize, nil
}

func sizeRecord(s *RecordSchema, v reflect.Value) (int, error) {
	total := 0
	if rec, ok := recordish(v); ok {
		for _, field := range s.Fields {
			fv, ok := rec.fields[field.Name]
			if !ok {
				fv = field.Default
			}
			fieldSize, err := sizeValue(field.Type, reflect.ValueOf(fv))
			if err != nil {
				return 0, fmt.Errorf("field %q: %w", field.Name, err)
			}
			total += fieldSize
		}
		return total, nil
	}
	if v.Kind() != reflect.Struct {
		return 0, fmt.Errorf("%w: expected struct or GenericRecord for record schema, got %v", ErrSchemaMismatch, v)
	}
	for _, field := range s.Fields {
		var fv reflect.Value
		if sf, ok := structFieldByAvroName(v.Type(), field.Name); ok {
			fv = v.FieldByIndex(sf.Index)
		}
		if !fv.IsValid() {
			if field.HasDefault {
				fv = reflect.ValueOf(field.Default)
			} else {
				return 0, fmt.Errorf("%w: no field %q on %s", ErrSchemaMismatch, field.Name, v.Type())
			}
		}
		fieldSize, err := sizeValue(field.Type, fv)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", field.Name, err)
		}
		total += fieldSize
	}
	return total, nil
}

// sizeLogical mirrors encodeLogical's wire shape per logical kind.
func sizeLogical(s *LogicalSchema, v reflect.Value) (int, error) {
	if !v.IsValid() {
		return 0, fmt.Errorf("%w: nil value for logical type %s", ErrSchemaMismatch, s.Kind)
	}
	iv := v.Interface()

	switch s.Kind {
	case LogicalDecimal:
		d, ok := iv.(Decimal)
		if !ok {
			return 0, fmt.Errorf("%w: expected Decimal, got %T", ErrSchemaMismatch, iv)
		}
		if !d.fitsPrecision(s.Precision) {
			return 0, ErrDecimalOutOfRange
		}
		unscaled := d.Unscaled
		if unscaled == nil {
			unscaled = bigZero()
		}
		b := bigIntToTwosComplement(unscaled)
		switch s.Base.Type() {
		case Bytes:
			return sizeBytes(b), nil
		case Fixed:
			return s.Base.(*FixedSchema).Size, nil
		}
		return 0, fmt.Errorf("%w: decimal base must be bytes or fixed", ErrInvalidSchema)

	case LogicalUUID:
		switch t := iv.(type) {
		case uuid.UUID:
			return sizeString(t.String()), nil
		case string:
			if _, err := uuid.Parse(t); err != nil {
				return 0, fmt.Errorf("%w: invalid uuid string: %v", ErrSchemaMismatch, err)
			}
			return sizeString(t), nil
		default:
			return 0, fmt.Errorf("%w: expected uuid.UUID or string, got %T", ErrSchemaMismatch, iv)
		}

	case LogicalDate:
		d, ok := iv.(Date)
		if !ok {
			return 0, fmt.Errorf("%w: expected Date, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(int64(d.DaysSinceEpoch())), nil

	case LogicalTimeMillis:
		dur, ok := iv.(time.Duration)
		if !ok {
			return 0, fmt.Errorf("%w: expected time.Duration, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(int64(int32(dur.Milliseconds()))), nil

	case LogicalTimeMicros:
		dur, ok := iv.(time.Duration)
		if !ok {
			return 0, fmt.Errorf("%w: expected time.Duration, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(dur.Microseconds()), nil

	case LogicalTimestampMillis:
		t, ok := iv.(time.Time)
		if !ok {
			return 0, fmt.Errorf("%w: expected time.Time, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(t.UnixMilli()), nil

	case LogicalTimestampMicros:
		t, ok := iv.(time.Time)
		if !ok {
			return 0, fmt.Errorf("%w: expected time.Time, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(t.UnixMicro()), nil

	case LogicalLocalTimestampMillis:
		lt, ok := iv.(LocalTimestamp)
		if !ok {
			return 0, fmt.Errorf("%w: expected LocalTimestamp, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(lt.Time.UnixMilli()), nil

	case LogicalLocalTimestampMicros:
		lt, ok := iv.(LocalTimestamp)
		if !ok {
			return 0, fmt.Errorf("%w: expected LocalTimestamp, got %T", ErrSchemaMismatch, iv)
		}
		return sizeLong(lt.Time.UnixMicro()), nil

	case LogicalDuration:
		if _, ok := iv.(Duration); !ok {
			return 0, fmt.Errorf("%w: expected Duration, got %T", ErrSchemaMismatch, iv)
		}
		return 12, nil
	}
	return 0, fmt.Errorf("%w: unhandled logical kind %s", ErrInvalidSchema, s.Kind)
}
