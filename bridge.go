package avro

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/modern-go/reflect2"
)

// DeriveSchema builds a Schema describing v's shape, following the
// derivation table: bool -> boolean, int8/int16/int32/uint8/uint16 -> int,
// int/int64/uint/uint32/uint64 -> long, float32 -> float, float64 -> double,
// []byte -> bytes, string -> string, a slice -> array, a map[string]V ->
// map, an [N]byte array -> fixed(N), a pointer -> a ["null", T] union, a
// struct -> record (field order is struct field order), and the domain
// logical types (Date, Decimal, uuid.UUID, time.Time, Duration,
// LocalTimestamp, time.Duration) -> the matching logical overlay.
func DeriveSchema(v interface{}) (Schema, error) {
	if v == nil {
		return new(NullSchema), nil
	}
	return deriveFromType(reflect.TypeOf(v), make(map[reflect.Type]Schema))
}

var (
	typeOfTime           = reflect.TypeOf(time.Time{})
	typeOfDuration       = reflect.TypeOf(time.Duration(0))
	typeOfUUID           = reflect.TypeOf(uuid.UUID{})
	typeOfDate           = reflect.TypeOf(Date{})
	typeOfLocalTimestamp = reflect.TypeOf(LocalTimestamp{})
	typeOfAvroDuration   = reflect.TypeOf(Duration{})
	typeOfDecimal        = reflect.TypeOf(Decimal{})
)

func deriveFromType(t reflect.Type, seen map[reflect.Type]Schema) (Schema, error) {
	switch t {
	case typeOfDate:
		return &LogicalSchema{Base: new(IntSchema), Kind: LogicalDate}, nil
	case typeOfDuration:
		return &LogicalSchema{Base: new(LongSchema), Kind: LogicalTimeMicros}, nil
	case typeOfUUID:
		return &LogicalSchema{Base: new(StringSchema), Kind: LogicalUUID}, nil
	case typeOfTime:
		return &LogicalSchema{Base: new(LongSchema), Kind: LogicalTimestampMicros}, nil
	case typeOfLocalTimestamp:
		return &LogicalSchema{Base: new(LongSchema), Kind: LogicalLocalTimestampMicros}, nil
	case typeOfAvroDuration:
		return &LogicalSchema{Base: &FixedSchema{Name: "Duration", Size: 12}, Kind: LogicalDuration}, nil
	case typeOfDecimal:
		return nil, fmt.Errorf("%w: Decimal requires an explicit schema (precision/scale are not inferrable)", ErrPrecisionRequired)
	}

	if existing, ok := seen[t]; ok {
		return existing, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return new(BooleanSchema), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return new(IntSchema), nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return new(LongSchema), nil
	case reflect.Float32:
		return new(FloatSchema), nil
	case reflect.Float64:
		return new(DoubleSchema), nil
	case reflect.String:
		return new(StringSchema), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return new(BytesSchema), nil
		}
		items, err := deriveFromType(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return &ArraySchema{Items: items}, nil
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &FixedSchema{Name: fmt.Sprintf("Fixed%d", t.Len()), Size: t.Len()}, nil
		}
		items, err := deriveFromType(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return &ArraySchema{Items: items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key must be string, got %s", ErrInvalidSchema, t.Key())
		}
		values, err := deriveFromType(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return &MapSchema{Values: values}, nil
	case reflect.Ptr:
		inner, err := deriveFromType(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		if inner.Type() == Null {
			return inner, nil
		}
		return &UnionSchema{Types: []Schema{new(NullSchema), inner}}, nil
	case reflect.Interface:
		return nil, fmt.Errorf("%w: cannot derive a schema from a bare interface value", ErrInvalidSchema)
	case reflect.Struct:
		return deriveStruct(t, seen)
	default:
		return nil, fmt.Errorf("%w: cannot derive schema from kind %s", ErrInvalidSchema, t.Kind())
	}
}

func deriveStruct(t reflect.Type, seen map[reflect.Type]Schema) (Schema, error) {
	record := &RecordSchema{Name: t.Name()}
	if t.Name() == "" {
		record.Name = "Anonymous"
	}
	seen[t] = newRecursiveSchema(record)

	rType := reflect2.Type2(t).(reflect2.StructType)
	fields := make([]*SchemaField, 0, rType.NumField())
	for i := 0; i < rType.NumField(); i++ {
		sf := rType.Field(i)
		structField := sf.Type().Type1()
		if sf.Name() == "" || !isExportedFieldName(sf.Name()) {
			continue
		}
		fieldSchema, err := deriveFromType(structField, seen)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", sf.Name(), err)
		}
		name := fieldNameFromGo(sf.Name())
		if goField, ok := t.FieldByName(sf.Name()); ok {
			if tag, ok := goField.Tag.Lookup("avro"); ok && tag != "" {
				// An explicit tag (as the code generator emits for names it
				// had to sanitize) is the original wire name; PascalCase
				// lowercasing cannot recover it losslessly on its own.
				name = tag
			}
		}
		fields = append(fields, &SchemaField{
			Name:  name,
			Type:  fieldSchema,
			Index: len(fields),
		})
	}
	record.Fields = fields
	return record, nil
}

func isExportedFieldName(name string) bool {
	r := []rune(name)
	return len(r) > 0 && r[0] >= 'A' && r[0] <= 'Z'
}

// fieldNameFromGo lower-cases the first letter of a Go exported field name
// to produce the conventional Avro field name the code generator's
// identifier sanitization would have started from.
func fieldNameFromGo(name string) string {
	r := []rune(name)
	if len(r) == 0 {
		return name
	}
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] + ('a' - 'A')
	}
	return string(r)
}
