package avro

import (
	"fmt"
	"reflect"

	"github.com/ettle/strcase"
)

// GenericRecord is the schema-carrying, map-backed stand-in for a record
// value when the caller has no specific Go struct for it (or wants to
// operate generically across many record shapes, as the OCF reader does
// before a caller has opted into a specific type).
type GenericRecord struct {
	schema *RecordSchema
	fields map[string]interface{}
}

// NewGenericRecord allocates an empty record value for schema.
func NewGenericRecord(schema *RecordSchema) *GenericRecord {
	return &GenericRecord{schema: schema, fields: make(map[string]interface{}, len(schema.Fields))}
}

// Schema returns the record schema this value was built against.
func (r *GenericRecord) Schema() *RecordSchema { return r.schema }

// Get returns the named field's value, or nil if unset.
func (r *GenericRecord) Get(name string) interface{} { return r.fields[name] }

// Set assigns the named field's value.
func (r *GenericRecord) Set(name string, value interface{}) { r.fields[name] = value }

// GenericEnum is the schema-carrying stand-in for an enum value.
type GenericEnum struct {
	Symbols []string
	Symbol  string
}

// NewGenericEnum builds an enum value that can hold any of symbols.
func NewGenericEnum(symbols []string) *GenericEnum {
	return &GenericEnum{Symbols: symbols}
}

// DatumWriter writes an arbitrary Go value to the wire against a fixed
// schema, shared by the generic and specific writer constructors.
type DatumWriter interface {
	SetSchema(Schema)
	Write(v interface{}, enc Encoder) error
	Size(v interface{}) (int, error)
}

// DatumReader reads a wire value into target against a fixed schema,
// shared by the generic and specific reader constructors.
type DatumReader interface {
	SetSchema(Schema)
	Read(target interface{}, dec Decoder) error
}

type datumWriter struct {
	schema Schema
}

// NewGenericDatumWriter returns a DatumWriter able to encode GenericRecord,
// GenericEnum, and plain Go container values (map/slice/primitives).
func NewGenericDatumWriter() *datumWriter { return &datumWriter{} }

// NewSpecificDatumWriter returns a DatumWriter able to encode Go structs
// whose exported field names match the schema's field names (case folded
// through the same PascalCase convention the code generator emits).
func NewSpecificDatumWriter() *datumWriter { return &datumWriter{} }

func (w *datumWriter) SetSchema(s Schema) { w.schema = s }

func (w *datumWriter) Write(v interface{}, enc Encoder) error {
	if w.schema == nil {
		return ErrInvalidSchema
	}
	return encodeValue(w.schema, reflect.ValueOf(v), enc)
}

// Size reports the number of bytes Write would produce for v without
// writing them, satisfying len(write(v, schema)) == size(v, schema).
func (w *datumWriter) Size(v interface{}) (int, error) {
	if w.schema == nil {
		return 0, ErrInvalidSchema
	}
	return sizeValue(w.schema, reflect.ValueOf(v))
}

type datumReader struct {
	schema Schema
}

// NewGenericDatumReader returns a DatumReader decoding into GenericRecord /
// GenericEnum / plain Go container values.
func NewGenericDatumReader() *datumReader { return &datumReader{} }

// NewSpecificDatumReader returns a DatumReader decoding into a caller's
// struct pointer.
func NewSpecificDatumReader() *datumReader { return &datumReader{} }

// NewDatumReader returns a generic reader with schema already set, for
// callers that only have a schema in hand.
func NewDatumReader(schema Schema) *datumReader {
	return &datumReader{schema: schema}
}

func (r *datumReader) SetSchema(s Schema) { r.schema = s }

func (r *datumReader) Read(target interface{}, dec Decoder) error {
	if r.schema == nil {
		return ErrInvalidSchema
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrNotAPointer
	}
	decoded, err := decodeValue(r.schema, dec)
	if err != nil {
		return err
	}
	return assignDecoded(rv.Elem(), decoded)
}

// exportedFieldName maps an Avro field/record name onto the Go exported
// identifier the code generator would have produced for it, so the
// specific writer/reader can locate struct fields by schema field name
// when no generated `avro` struct tag is present to consult directly (e.g.
// a hand-written struct rather than one produced by the code generator).
func exportedFieldName(name string) string {
	return strcase.ToPascal(name)
}

// structFieldByAvroName locates the field of struct type t that encodes
// avroName, preferring an explicit `avro:"..."` struct tag (as the code
// generator emits for names it had to sanitize into a different Go
// identifier) over recomputing the PascalCase convention from the raw
// Avro name, since that recomputation is not guaranteed to invert a
// sanitized identifier back to the original wire name.
func structFieldByAvroName(t reflect.Type, avroName string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if tag, ok := sf.Tag.Lookup("avro"); ok && tag == avroName {
			return sf, true
		}
	}
	return t.FieldByName(exportedFieldName(avroName))
}

// encodeValue recursively writes v (which may be a GenericRecord/GenericEnum,
// a plain Go container, or a specific struct) against schema.
func encodeValue(schema Schema, v reflect.Value, enc Encoder) error {
	v = dereference(v)

	switch s := schema.(type) {
	case *NullSchema:
		enc.WriteNull()
		return nil
	case *BooleanSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected bool, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteBoolean(v.Bool())
		return nil
	case *IntSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected int32, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteInt(int32(v.Int()))
		return nil
	case *LongSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected int64, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteLong(v.Int())
		return nil
	case *FloatSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected float32, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteFloat(float32(v.Float()))
		return nil
	case *DoubleSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected float64, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteDouble(v.Float())
		return nil
	case *BytesSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected []byte, got %v", ErrSchemaMismatch, v)
		}
		enc.WriteBytes(v.Bytes())
		return nil
	case *StringSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected string, got %v", ErrSchemaMismatch, v)
		}
		return enc.WriteString(v.String())
	case *FixedSchema:
		if !s.Validate(v) {
			return fmt.Errorf("%w: expected %d-byte fixed, got %v", ErrSchemaMismatch, s.Size, v)
		}
		b := make([]byte, s.Size)
		reflect.Copy(reflect.ValueOf(b), v)
		enc.WriteFixed(b)
		return nil
	case *EnumSchema:
		symbol, err := enumSymbol(v)
		if err != nil {
			return err
		}
		ord := s.Ordinal(symbol)
		if ord < 0 {
			return fmt.Errorf("%w: symbol %q not in %v", ErrEnumOutOfRange, symbol, s.Symbols)
		}
		enc.WriteInt(int32(ord))
		return nil
	case *ArraySchema:
		return encodeArray(s, v, enc)
	case *MapSchema:
		return encodeMap(s, v, enc)
	case *UnionSchema:
		return encodeUnion(s, v, enc)
	case *RecordSchema:
		return encodeRecord(s, v, enc)
	case *RecursiveSchema:
		return encodeValue(s.Actual, v, enc)
	case *LogicalSchema:
		return encodeLogical(s, v, enc)
	default:
		return fmt.Errorf("%w: unhandled schema type %T", ErrInvalidSchema, schema)
	}
}

func enumSymbol(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return "", fmt.Errorf("%w: nil enum value", ErrSchemaMismatch)
	}
	switch iv := v.Interface().(type) {
	case GenericEnum:
		return iv.Symbol, nil
	case *GenericEnum:
		return iv.Symbol, nil
	case string:
		return iv, nil
	}
	if v.Kind() == reflect.String {
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: cannot use %v as enum symbol", ErrSchemaMismatch, v)
}

func encodeArray(s *ArraySchema, v reflect.Value, enc Encoder) error {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("%w: expected slice/array for array schema, got %v", ErrSchemaMismatch, v)
	}
	n := v.Len()
	if n > 0 {
		enc.WriteBlockHeader(int64(n), 0, false)
		for i := 0; i < n; i++ {
			if err := encodeValue(s.Items, v.Index(i), enc); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
	}
	enc.WriteBlockEnd()
	return nil
}

func encodeMap(s *MapSchema, v reflect.Value, enc Encoder) error {
	if v.Kind() != reflect.Map {
		return fmt.Errorf("%w: expected map for map schema, got %v", ErrSchemaMismatch, v)
	}
	keys := v.MapKeys()
	if len(keys) > 0 {
		enc.WriteBlockHeader(int64(len(keys)), 0, false)
		for _, k := range keys {
			if err := enc.WriteString(k.String()); err != nil {
				return err
			}
			if err := encodeValue(s.Values, v.MapIndex(k), enc); err != nil {
				return fmt.Errorf("map[%q]: %w", k.String(), err)
			}
		}
	}
	enc.WriteBlockEnd()
	return nil
}

func encodeUnion(s *UnionSchema, v reflect.Value, enc Encoder) error {
	idx, err := s.BranchFor(v)
	if err != nil {
		return err
	}
	enc.WriteLong(int64(idx))
	branch := s.Types[idx]
	if branch.Type() == Null {
		return nil
	}
	return encodeValue(branch, v, enc)
}

func encodeRecord(s *RecordSchema, v reflect.Value, enc Encoder) error {
	if rec, ok := recordish(v); ok {
		for _, field := range s.Fields {
			fv, ok := rec.fields[field.Name]
			if !ok {
				fv = field.Default
			}
			if err := encodeValue(field.Type, reflect.ValueOf(fv), enc); err != nil {
				return fmt.Errorf("field %q: %w", field.Name, err)
			}
		}
		return nil
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected struct or GenericRecord for record schema, got %v", ErrSchemaMismatch, v)
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
				return fmt.Errorf("%w: no field %q on %s", ErrSchemaMismatch, field.Name, v.Type())
			}
		}
		if err := encodeValue(field.Type, fv, enc); err != nil {
			return fmt.Errorf("field %q: %w", field.Name, err)
		}
	}
	return nil
}

func recordish(v reflect.Value) (*GenericRecord, bool) {
	if !v.IsValid() {
		return nil, false
	}
	switch rv := v.Interface().(type) {
	case GenericRecord:
		return &rv, true
	case *GenericRecord:
		return rv, true
	}
	return nil, false
}

// decodeValue recursively reads schema's wire encoding, returning a generic
// Go representation: GenericRecord for records, GenericEnum for enums,
// []interface{} for arrays, map[string]interface{} for maps.
func decodeValue(schema Schema, dec Decoder) (interface{}, error) {
	switch s := schema.(type) {
	case *NullSchema:
		return dec.ReadNull()
	case *BooleanSchema:
		return dec.ReadBoolean()
	case *IntSchema:
		return dec.ReadInt()
	case *LongSchema:
		return dec.ReadLong()
	case *FloatSchema:
		return dec.ReadFloat()
	case *DoubleSchema:
		return dec.ReadDouble()
	case *BytesSchema:
		return dec.ReadBytes()
	case *StringSchema:
		return dec.ReadString()
	case *FixedSchema:
		return dec.ReadFixed(s.Size)
	case *EnumSchema:
		ord, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		if int(ord) < 0 || int(ord) >= len(s.Symbols) {
			return nil, ErrEnumOutOfRange
		}
		return GenericEnum{Symbols: s.Symbols, Symbol: s.Symbols[ord]}, nil
	case *ArraySchema:
		var out []interface{}
		err := decodeBlocks(dec, func() error {
			item, err := decodeValue(s.Items, dec)
			if err != nil {
				return err
			}
			out = append(out, item)
			return nil
		})
		return out, err
	case *MapSchema:
		out := make(map[string]interface{})
		err := decodeBlocks(dec, func() error {
			key, err := dec.ReadString()
			if err != nil {
				return err
			}
			val, err := decodeValue(s.Values, dec)
			if err != nil {
				return err
			}
			out[key] = val
			return nil
		})
		return out, err
	case *UnionSchema:
		idx, err := dec.ReadLong()
		if err != nil {
			return nil, err
		}
		if idx < 0 || int(idx) >= len(s.Types) {
			return nil, ErrNoUnionBranch
		}
		return decodeValue(s.Types[idx], dec)
	case *RecordSchema:
		rec := NewGenericRecord(s)
		for _, field := range s.Fields {
			val, err := decodeValue(field.Type, dec)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			rec.Set(field.Name, val)
		}
		return rec, nil
	case *RecursiveSchema:
		return decodeValue(s.Actual, dec)
	case *LogicalSchema:
		return decodeLogical(s, dec)
	default:
		return nil, fmt.Errorf("%w: unhandled schema type %T", ErrInvalidSchema, schema)
	}
}

func decodeBlocks(dec Decoder, readItem func() error) error {
	for {
		count, byteLen, framed, err := dec.ReadBlockHeader()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		_ = byteLen
		_ = framed
		for i := int64(0); i < count; i++ {
			if err := readItem(); err != nil {
				return err
			}
		}
	}
}

// assignDecoded stores decoded into target, which may be a *GenericRecord,
// a specific struct, an interface{}, or a primitive-typed field.
func assignDecoded(target reflect.Value, decoded interface{}) error {
	if !target.CanSet() {
		return fmt.Errorf("%w: target is not settable", ErrSchemaMismatch)
	}
	switch target.Kind() {
	case reflect.Interface:
		if decoded == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		target.Set(reflect.ValueOf(decoded))
		return nil
	case reflect.Struct:
		if rec, ok := decoded.(*GenericRecord); ok {
			if target.Type() == reflect.TypeOf(GenericRecord{}) {
				target.Set(reflect.ValueOf(*rec))
				return nil
			}
			return fillStruct(target, rec)
		}
	case reflect.Ptr:
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		return assignDecoded(target.Elem(), decoded)
	case reflect.String:
		switch e := decoded.(type) {
		case GenericEnum:
			target.SetString(e.Symbol)
			return nil
		case *GenericEnum:
			target.SetString(e.Symbol)
			return nil
		}
	case reflect.Slice:
		if decoded == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		dv := reflect.ValueOf(decoded)
		if dv.Kind() != reflect.Slice {
			return fmt.Errorf("%w: cannot assign %T into %s", ErrSchemaMismatch, decoded, target.Type())
		}
		out := reflect.MakeSlice(target.Type(), dv.Len(), dv.Len())
		for i := 0; i < dv.Len(); i++ {
			if err := assignDecoded(out.Index(i), dv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		target.Set(out)
		return nil
	case reflect.Map:
		if decoded == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		dv := reflect.ValueOf(decoded)
		if dv.Kind() != reflect.Map {
			return fmt.Errorf("%w: cannot assign %T into %s", ErrSchemaMismatch, decoded, target.Type())
		}
		out := reflect.MakeMapWithSize(target.Type(), dv.Len())
		for _, k := range dv.MapKeys() {
			elem := reflect.New(target.Type().Elem()).Elem()
			if err := assignDecoded(elem, dv.MapIndex(k).Interface()); err != nil {
				return fmt.Errorf("[%q]: %w", k.String(), err)
			}
			out.SetMapIndex(k, elem)
		}
		target.Set(out)
		return nil
	}
	dv := reflect.ValueOf(decoded)
	if dv.IsValid() && dv.Type().ConvertibleTo(target.Type()) {
		target.Set(dv.Convert(target.Type()))
		return nil
	}
	if dv.IsValid() && dv.Type().AssignableTo(target.Type()) {
		target.Set(dv)
		return nil
	}
	return fmt.Errorf("%w: cannot assign %T into %s", ErrSchemaMismatch, decoded, target.Type())
}

func fillStruct(target reflect.Value, rec *GenericRecord) error {
	for _, field := range rec.schema.Fields {
		structField, ok := structFieldByAvroName(target.Type(), field.Name)
		if !ok {
			continue
		}
		sf := target.FieldByIndex(structField.Index)
		if !sf.CanSet() {
			continue
		}
		if err := assignDecoded(sf, rec.fields[field.Name]); err != nil {
			return fmt.Errorf("field %q: %w", field.Name, err)
		}
	}
	return nil
}
