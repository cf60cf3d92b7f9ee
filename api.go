package avro

import (
	"bytes"
	"reflect"
)

// Write encodes value against schema and returns the wire bytes. When schema
// is omitted, it is derived from value's Go type via DeriveSchema (or, for a
// *GenericRecord/GenericRecord, taken from the value's own schema).
func Write(value interface{}, schema ...Schema) ([]byte, error) {
	s, err := resolveSchema(value, schema)
	if err != nil {
		return nil, err
	}
	w := NewGenericDatumWriter()
	w.SetSchema(s)
	var buf bytes.Buffer
	if err := w.Write(value, NewBinaryEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes data into target, a pointer to the destination value (or a
// *GenericRecord). When schema is omitted, it is derived from target's
// pointed-to Go type (or, for a *GenericRecord already carrying a schema,
// taken from that schema).
func Read(data []byte, target interface{}, schema ...Schema) error {
	s, err := resolveSchema(target, schema)
	if err != nil {
		return err
	}
	r := NewGenericDatumReader()
	r.SetSchema(s)
	return r.Read(target, NewBinaryDecoder(data))
}

// Size reports the number of bytes Write(value, schema...) would produce,
// without producing them.
func Size(value interface{}, schema ...Schema) (int, error) {
	s, err := resolveSchema(value, schema)
	if err != nil {
		return 0, err
	}
	w := NewGenericDatumWriter()
	w.SetSchema(s)
	return w.Size(value)
}

// resolveSchema returns schema[0] if supplied, otherwise infers a schema
// from sample: a *GenericRecord/GenericRecord's own schema if it carries
// one, or the DeriveSchema of its (possibly pointed-to) Go type.
func resolveSchema(sample interface{}, schema []Schema) (Schema, error) {
	if len(schema) > 0 {
		return schema[0], nil
	}
	switch rec := sample.(type) {
	case *GenericRecord:
		if rec != nil && rec.schema != nil {
			return rec.schema, nil
		}
	case GenericRecord:
		if rec.schema != nil {
			return rec.schema, nil
		}
	}

	v := reflect.ValueOf(sample)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v = reflect.Zero(v.Type().Elem())
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return DeriveSchema(nil)
	}
	return DeriveSchema(v.Interface())
}
