package avro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/crc64"
	"os"
	"reflect"
	"strings"
)

// ***********************
// This file started as the schema model of github.com/go-avro/avro and has
// been generalized to cover the full logical-type table and the union /
// enum / record invariants a complete Avro implementation needs.
// ***********************

const (
	// Record schema type constant
	Record int = iota

	// Enum schema type constant
	Enum

	// Array schema type constant
	Array

	// Map schema type constant
	Map

	// Union schema type constant
	Union

	// Fixed schema type constant
	Fixed

	// String schema type constant
	String

	// Bytes schema type constant
	Bytes

	// Int schema type constant
	Int

	// Long schema type constant
	Long

	// Float schema type constant
	Float

	// Double schema type constant
	Double

	// Boolean schema type constant
	Boolean

	// Null schema type constant
	Null

	// Recursive schema type constant. Recursive is an artificial type that means a Record schema without its definition
	// that should be looked up in some registry.
	Recursive

	// Logical schema type constant. An overlay on a base primitive/fixed schema.
	Logical
)

const (
	typeRecord  = "record"
	typeUnion   = "union"
	typeEnum    = "enum"
	typeArray   = "array"
	typeMap     = "map"
	typeFixed   = "fixed"
	typeString  = "string"
	typeBytes   = "bytes"
	typeInt     = "int"
	typeLong    = "long"
	typeFloat   = "float"
	typeDouble  = "double"
	typeBoolean = "boolean"
	typeNull    = "null"
)

const (
	schemaAliasesField   = "aliases"
	schemaDefaultField   = "default"
	schemaDocField       = "doc"
	schemaFieldsField    = "fields"
	schemaItemsField     = "items"
	schemaNameField      = "name"
	schemaNamespaceField = "namespace"
	schemaSizeField      = "size"
	schemaSymbolsField   = "symbols"
	schemaTypeField      = "type"
	schemaValuesField    = "values"

	// logical types - see https://avro.apache.org/docs/1.8.2/spec.html#Logical+Types
	schemaLogicalTypeField = "logicalType"
	schemaScaleField       = "scale"
	schemaPrecisionField   = "precision"
)

// Schema is an interface representing a single Avro schema (both primitive and complex).
type Schema interface {
	// Canonical returns the encoded schema JSON after
	// https://avro.apache.org/docs/1.8.2/spec.html#Transforming+into+Parsing+Canonical+Form
	Canonical() ([]byte, error)

	// Fingerprint returns a CRC64 of the canonical form and is cached in the schema.
	Fingerprint() uint64

	// Type returns an integer constant representing this schema type.
	Type() int

	// GetName returns, for a record/enum/fixed, its name, otherwise the name of the primitive type.
	GetName() string

	// Prop gets a custom non-reserved property from this schema and a bool representing if it exists.
	Prop(key string) (interface{}, bool)

	// String converts this schema to its JSON representation.
	String() string

	// Validate checks whether the given value is writeable to this schema.
	Validate(v reflect.Value) bool
}

type hashable struct {
	hash      uint64
	canonical func() []byte
	valid     bool
}

// use the polynomial from the avro spec
var polynomialTable = crc64.MakeTable(0xc15d213aa4d7a795)

// Fingerprint helps types that embed hashable to implement
func (hashable *hashable) getFingerprint(schema Schema) uint64 {
	if hashable.valid {
		return hashable.hash
	}
	data, err := schema.Canonical()
	if err != nil {
		panic(fmt.Sprintf("failed to get canonical schema for %s: %v", GetFullName(schema), err))
	}
	hash64 := crc64.New(polynomialTable)
	n, err := hash64.Write(data)
	if n != len(data) {
		panic(fmt.Sprintf("crc64 refused to accept our data? short read %d < %d", n, len(data)))
	}
	if err != nil {
		panic(fmt.Sprintf("crc64 failed: %v", err))
	}
	hashable.hash = hash64.Sum64()
	hashable.valid = true
	return hashable.hash
}

// StringSchema implements Schema and represents Avro string type.
type StringSchema struct {
	hashable
}

func (ss *StringSchema) Canonical() ([]byte, error) { return ss.MarshalJSON() }
func (ss *StringSchema) Fingerprint() uint64         { return ss.getFingerprint(ss) }
func (*StringSchema) String() string                 { return `{"type": "string"}` }
func (*StringSchema) Type() int                      { return String }
func (*StringSchema) GetName() string                { return typeString }
func (*StringSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*StringSchema) Validate(v reflect.Value) bool {
	_, ok := dereference(v).Interface().(string)
	return ok
}
func (*StringSchema) MarshalJSON() ([]byte, error) { return []byte(`"string"`), nil }

// BytesSchema implements Schema and represents Avro bytes type.
type BytesSchema struct {
	hashable
}

func (bs *BytesSchema) Canonical() ([]byte, error) { return []byte(`"bytes"`), nil }
func (bs *BytesSchema) Fingerprint() uint64        { return bs.getFingerprint(bs) }
func (bs *BytesSchema) String() string             { return `{"type": "bytes"}` }
func (*BytesSchema) Type() int                     { return Bytes }
func (*BytesSchema) GetName() string               { return typeBytes }
func (*BytesSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*BytesSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
func (bs *BytesSchema) MarshalJSON() ([]byte, error) { return []byte(`"bytes"`), nil }

// IntSchema implements Schema and represents Avro int type.
type IntSchema struct{ hashable }

func (is *IntSchema) Canonical() ([]byte, error) { return is.MarshalJSON() }
func (is *IntSchema) Fingerprint() uint64        { return is.getFingerprint(is) }
func (*IntSchema) String() string                { return `{"type": "int"}` }
func (*IntSchema) Type() int                     { return Int }
func (*IntSchema) GetName() string               { return typeInt }
func (*IntSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*IntSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Int32
}
func (*IntSchema) MarshalJSON() ([]byte, error) { return []byte(`"int"`), nil }

// LongSchema implements Schema and represents Avro long type.
type LongSchema struct{ hashable }

func (ls *LongSchema) Canonical() ([]byte, error) { return []byte(`"long"`), nil }
func (ls *LongSchema) Fingerprint() uint64        { return ls.getFingerprint(ls) }
func (ls *LongSchema) String() string             { return `{"type": "long"}` }
func (*LongSchema) Type() int                     { return Long }
func (*LongSchema) GetName() string               { return typeLong }
func (*LongSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (ls *LongSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Int64
}
func (ls *LongSchema) MarshalJSON() ([]byte, error) { return []byte(`"long"`), nil }

// FloatSchema implements Schema and represents Avro float type.
type FloatSchema struct{ hashable }

func (fs *FloatSchema) Canonical() ([]byte, error) { return fs.MarshalJSON() }
func (fs *FloatSchema) Fingerprint() uint64        { return fs.getFingerprint(fs) }
func (*FloatSchema) String() string                { return `{"type": "float"}` }
func (*FloatSchema) Type() int                     { return Float }
func (*FloatSchema) GetName() string               { return typeFloat }
func (*FloatSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*FloatSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Float32
}
func (*FloatSchema) MarshalJSON() ([]byte, error) { return []byte(`"float"`), nil }

// DoubleSchema implements Schema and represents Avro double type.
type DoubleSchema struct{ hashable }

func (ds *DoubleSchema) Canonical() ([]byte, error) { return ds.MarshalJSON() }
func (ds *DoubleSchema) Fingerprint() uint64        { return ds.getFingerprint(ds) }
func (*DoubleSchema) String() string                { return `{"type": "double"}` }
func (*DoubleSchema) Type() int                     { return Double }
func (*DoubleSchema) GetName() string               { return typeDouble }
func (*DoubleSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*DoubleSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Float64
}
func (*DoubleSchema) MarshalJSON() ([]byte, error) { return []byte(`"double"`), nil }

// BooleanSchema implements Schema and represents Avro boolean type.
type BooleanSchema struct {
	hashable
}

func (bs *BooleanSchema) Canonical() ([]byte, error) { return bs.MarshalJSON() }
func (bs *BooleanSchema) Fingerprint() uint64        { return bs.getFingerprint(bs) }
func (*BooleanSchema) String() string                { return `{"type": "boolean"}` }
func (*BooleanSchema) Type() int                     { return Boolean }
func (*BooleanSchema) GetName() string               { return typeBoolean }
func (*BooleanSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (*BooleanSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Bool
}
func (*BooleanSchema) MarshalJSON() ([]byte, error) { return []byte(`"boolean"`), nil }

// NullSchema implements Schema and represents Avro null type.
type NullSchema struct{ hashable }

func (ns *NullSchema) Canonical() ([]byte, error) { return ns.MarshalJSON() }
func (ns *NullSchema) Fingerprint() uint64        { return ns.getFingerprint(ns) }
func (*NullSchema) String() string                { return `{"type": "null"}` }
func (*NullSchema) Type() int                     { return Null }
func (*NullSchema) GetName() string               { return typeNull }
func (*NullSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}

// Validate checks whether the given value is writeable to this schema.
func (*NullSchema) Validate(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface:
		return v.IsNil()
	case reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
func (*NullSchema) MarshalJSON() ([]byte, error) { return []byte(`"null"`), nil }

// RecordSchema implements Schema and represents Avro record type.
type RecordSchema struct {
	hashable
	Name       string   `json:"name,omitempty"`
	Namespace  string   `json:"namespace,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Properties map[string]interface{}
	Fields     []*SchemaField `json:"fields"`
}

func (rs *RecordSchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "name", getFullName(rs.Name, rs.Namespace), false)
	writeString(&buf, "type", "record", true)
	writeFieldName(&buf, "fields", true)
	buf.WriteRune('[')
	for fieldIdx, field := range rs.Fields {
		if fieldIdx > 0 {
			buf.WriteRune(',')
		}
		fieldCanon, err := field.Canonical()
		if err != nil {
			return nil, fmt.Errorf("failed to convert field '%s' of %s to canonical: %w",
				field.Name, getFullName(rs.Name, rs.Namespace), err)
		}
		buf.Write(fieldCanon)
	}
	buf.WriteRune(']')
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (rs *RecordSchema) Fingerprint() uint64 { return rs.getFingerprint(rs) }

func (s *RecordSchema) String() string {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (s *RecordSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string         `json:"type,omitempty"`
		Namespace string         `json:"namespace,omitempty"`
		Name      string         `json:"name,omitempty"`
		Doc       string         `json:"doc,omitempty"`
		Aliases   []string       `json:"aliases,omitempty"`
		Fields    []*SchemaField `json:"fields"`
	}{
		Type:      "record",
		Namespace: s.Namespace,
		Name:      s.Name,
		Doc:       s.Doc,
		Aliases:   s.Aliases,
		Fields:    s.Fields,
	})
}

func (*RecordSchema) Type() int         { return Record }
func (s *RecordSchema) GetName() string { return s.Name }

func (s *RecordSchema) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

// FieldByName returns the field with the given name, and whether it exists.
func (s *RecordSchema) FieldByName(name string) (*SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (s *RecordSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	if !v.IsValid() {
		return false
	}
	if rec, ok := v.Interface().(GenericRecord); ok {
		for key, val := range rec.fields {
			field, ok := s.FieldByName(key)
			if !ok {
				return false
			}
			if !field.Type.Validate(reflect.ValueOf(val)) {
				return false
			}
		}
		return true
	}
	return v.Kind() == reflect.Struct
}

// RecursiveSchema implements Schema and represents Avro record type without a definition (e.g. that should be looked up).
type RecursiveSchema struct {
	hashable
	Actual *RecordSchema
}

func newRecursiveSchema(parent *RecordSchema) *RecursiveSchema {
	return &RecursiveSchema{Actual: parent}
}

func (s *RecursiveSchema) String() string             { return fmt.Sprintf(`{"type": "%s"}`, s.Actual.GetName()) }
func (s *RecursiveSchema) Canonical() ([]byte, error) { return s.MarshalJSON() }
func (s *RecursiveSchema) Fingerprint() uint64        { return s.getFingerprint(s) }
func (*RecursiveSchema) Type() int                    { return Recursive }
func (s *RecursiveSchema) GetName() string            { return s.Actual.GetName() }
func (*RecursiveSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}
func (s *RecursiveSchema) Validate(v reflect.Value) bool { return s.Actual.Validate(v) }
func (s *RecursiveSchema) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, s.Actual.GetName())), nil
}

// SchemaField represents a schema field for Avro record.
type SchemaField struct {
	Name       string      `json:"name,omitempty"`
	Doc        string      `json:"doc,omitempty"`
	Default    interface{} `json:"default"`
	HasDefault bool        `json:"-"`
	Aliases    []string    `json:"aliases,omitempty"`
	Type       Schema      `json:"type,omitempty"`
	// Index is the field's 0-based ordinal position in the record, which
	// also governs its position in the wire encoding.
	Index      int `json:"-"`
	Properties map[string]interface{}
}

func (s *SchemaField) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "name", s.Name, false)
	writeFieldName(&buf, "type", true)
	fieldTypeCanonical, err := s.Type.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to convert type '%s' in field '%s' to canonical: %w",
			GetFullName(s.Type), s.Name, err)
	}
	buf.Write(fieldTypeCanonical)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (s *SchemaField) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

func (s *SchemaField) MarshalJSON() ([]byte, error) {
	type alias struct {
		Name    string      `json:"name"`
		Doc     string      `json:"doc,omitempty"`
		Default interface{} `json:"default,omitempty"`
		Type    Schema      `json:"type"`
	}
	if !s.HasDefault {
		return json.Marshal(struct {
			Name string `json:"name"`
			Doc  string `json:"doc,omitempty"`
			Type Schema `json:"type"`
		}{s.Name, s.Doc, s.Type})
	}
	return json.Marshal(alias{s.Name, s.Doc, s.Default, s.Type})
}

func (s *SchemaField) String() string {
	return fmt.Sprintf("[SchemaField: Name: %s, Doc: %s, Default: %v, Type: %s]", s.Name, s.Doc, s.Default, s.Type)
}

// EnumSchema implements Schema and represents Avro enum type.
type EnumSchema struct {
	hashable
	Name       string
	Namespace  string
	Aliases    []string
	Doc        string
	Symbols    []string
	Default    string
	HasDefault bool
	Properties map[string]interface{}
}

func (s *EnumSchema) Fingerprint() uint64 { return s.getFingerprint(s) }

func (s *EnumSchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "name", getFullName(s.Name, s.Namespace), false)
	writeString(&buf, "type", "enum", true)
	writeFieldName(&buf, "symbols", true)
	buf.WriteRune('[')
	for symIdx, sym := range s.Symbols {
		if symIdx > 0 {
			buf.WriteRune(',')
		}
		buf.WriteRune('"')
		buf.WriteString(sym)
		buf.WriteRune('"')
	}
	buf.WriteRune(']')
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (s *EnumSchema) String() string {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (*EnumSchema) Type() int         { return Enum }
func (s *EnumSchema) GetName() string { return s.Name }

func (s *EnumSchema) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

// Ordinal returns the 0-based position of symbol in the enum, or -1.
func (s *EnumSchema) Ordinal(symbol string) int {
	for i, sym := range s.Symbols {
		if sym == symbol {
			return i
		}
	}
	return -1
}

func (s *EnumSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	if !v.IsValid() {
		return false
	}
	if ge, ok := v.Interface().(GenericEnum); ok {
		return s.Ordinal(ge.Symbol) >= 0
	}
	if str, ok := v.Interface().(string); ok {
		return s.Ordinal(str) >= 0
	}
	return false
}

func (s *EnumSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string   `json:"type,omitempty"`
		Namespace string   `json:"namespace,omitempty"`
		Name      string   `json:"name,omitempty"`
		Doc       string   `json:"doc,omitempty"`
		Symbols   []string `json:"symbols,omitempty"`
		Default   string   `json:"default,omitempty"`
	}{
		Type:      "enum",
		Namespace: s.Namespace,
		Name:      s.Name,
		Doc:       s.Doc,
		Symbols:   s.Symbols,
		Default:   s.Default,
	})
}

// ArraySchema implements Schema and represents Avro array type.
type ArraySchema struct {
	hashable
	Items      Schema
	Properties map[string]interface{}
}

func (s *ArraySchema) Fingerprint() uint64 { return s.getFingerprint(s) }

func (s *ArraySchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "type", "array", false)
	writeFieldName(&buf, "items", true)
	itemsCanonical, err := s.Items.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to convert array item type '%s' to canonical: %w", GetFullName(s.Items), err)
	}
	buf.Write(itemsCanonical)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (s *ArraySchema) String() string {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (*ArraySchema) Type() int      { return Array }
func (*ArraySchema) GetName() string { return typeArray }

func (s *ArraySchema) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

func (s *ArraySchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array)
}

func (s *ArraySchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type,omitempty"`
		Items Schema `json:"items,omitempty"`
	}{"array", s.Items})
}

// MapSchema implements Schema and represents Avro map type.
type MapSchema struct {
	hashable
	Values     Schema
	Properties map[string]interface{}
}

func (s *MapSchema) Fingerprint() uint64 { return s.getFingerprint(s) }

func (s *MapSchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "type", "map", false)
	writeFieldName(&buf, "values", true)
	valuesCanonical, err := s.Values.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to convert map value type '%s' to canonical: %w", GetFullName(s.Values), err)
	}
	buf.Write(valuesCanonical)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (s *MapSchema) String() string {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (*MapSchema) Type() int      { return Map }
func (*MapSchema) GetName() string { return typeMap }

func (s *MapSchema) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

func (s *MapSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String
}

func (s *MapSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type,omitempty"`
		Values Schema `json:"values,omitempty"`
	}{"map", s.Values})
}

// UnionSchema implements Schema and represents Avro union type.
type UnionSchema struct {
	hashable
	Types []Schema
}

func (s *UnionSchema) Fingerprint() uint64 { return s.getFingerprint(s) }

func (s *UnionSchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('[')
	for typeIdx, typeSchema := range s.Types {
		if typeIdx > 0 {
			buf.WriteRune(',')
		}
		typeCanon, err := typeSchema.Canonical()
		if err != nil {
			return nil, fmt.Errorf("failed to convert union value at idx #%d (%s) to canonical: %w",
				typeIdx, GetFullName(typeSchema), err)
		}
		buf.Write(typeCanon)
	}
	buf.WriteRune(']')
	return buf.Bytes(), nil
}

func (s *UnionSchema) String() string {
	b, err := json.MarshalIndent(s.Types, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (*UnionSchema) Type() int      { return Union }
func (*UnionSchema) GetName() string { return typeUnion }
func (*UnionSchema) Prop(key string) (interface{}, bool) {
	return nil, false
}

// NullIndex returns the index of the first null branch, or -1 if there is none.
func (s *UnionSchema) NullIndex() int {
	for i, t := range s.Types {
		if t.Type() == Null {
			return i
		}
	}
	return -1
}

// BranchFor implements the §4.4 branch-selection rule: prefer an exact
// named-type match over a primitive-type match, and treat a "nothing"
// value (invalid reflect.Value or nil pointer/interface) as selecting the
// first null branch.
func (s *UnionSchema) BranchFor(v reflect.Value) (int, error) {
	dv := dereference(v)
	if !dv.IsValid() || (dv.Kind() == reflect.Ptr && dv.IsNil()) {
		if idx := s.NullIndex(); idx >= 0 {
			return idx, nil
		}
	}

	namedMatch := -1
	primitiveMatch := -1
	for i, t := range s.Types {
		if !t.Validate(v) {
			continue
		}
		switch t.Type() {
		case Record, Enum, Fixed:
			if namedMatch >= 0 {
				return -1, ErrAmbiguousUnion
			}
			namedMatch = i
		default:
			if primitiveMatch < 0 {
				primitiveMatch = i
			}
		}
	}
	if namedMatch >= 0 {
		return namedMatch, nil
	}
	if primitiveMatch >= 0 {
		return primitiveMatch, nil
	}
	return -1, ErrNoUnionBranch
}

// GetType gets the index of actual union type for a given value.
func (s *UnionSchema) GetType(v reflect.Value) int {
	idx, err := s.BranchFor(v)
	if err != nil {
		return -1
	}
	return idx
}

func (s *UnionSchema) Validate(v reflect.Value) bool {
	_, err := s.BranchFor(v)
	return err == nil
}

func (s *UnionSchema) MarshalJSON() ([]byte, error) { return json.Marshal(s.Types) }

// validateUnionMembers enforces §3.1: no unions directly nested in a union,
// no duplicate non-named branch types, and at most one of each named type.
func validateUnionMembers(types []Schema) error {
	seenPrimitive := map[int]bool{}
	seenNamed := map[string]bool{}
	for _, t := range types {
		if t.Type() == Union {
			return fmt.Errorf("%w: unions may not directly nest", ErrInvalidUnion)
		}
		switch t.Type() {
		case Record, Enum, Fixed, Recursive:
			name := GetFullName(t)
			if seenNamed[name] {
				return fmt.Errorf("%w: duplicate named branch %q", ErrInvalidUnion, name)
			}
			seenNamed[name] = true
		default:
			kind := t.Type()
			if lt, ok := t.(*LogicalSchema); ok {
				kind = lt.Base.Type()*1000 + Logical
			}
			if seenPrimitive[kind] {
				return fmt.Errorf("%w: duplicate branch type", ErrInvalidUnion)
			}
			seenPrimitive[kind] = true
		}
	}
	return nil
}

// FixedSchema implements Schema and represents Avro fixed type.
type FixedSchema struct {
	hashable
	Namespace  string
	Name       string
	Size       int
	Properties map[string]interface{}
}

func (s *FixedSchema) Fingerprint() uint64 { return s.getFingerprint(s) }

func (s *FixedSchema) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	writeString(&buf, "name", getFullName(s.Name, s.Namespace), false)
	writeString(&buf, "type", "fixed", true)
	writeInt(&buf, "size", s.Size, true)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (s *FixedSchema) String() string {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (*FixedSchema) Type() int         { return Fixed }
func (s *FixedSchema) GetName() string { return s.Name }

func (s *FixedSchema) Prop(key string) (interface{}, bool) {
	if s.Properties != nil {
		if prop, ok := s.Properties[key]; ok {
			return prop, true
		}
	}
	return nil, false
}

func (s *FixedSchema) Validate(v reflect.Value) bool {
	v = dereference(v)
	return v.IsValid() && (v.Kind() == reflect.Array || v.Kind() == reflect.Slice) &&
		v.Type().Elem().Kind() == reflect.Uint8 && v.Len() == s.Size
}

func (s *FixedSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type,omitempty"`
		Size int    `json:"size,omitempty"`
		Name string `json:"name,omitempty"`
	}{"fixed", s.Size, s.Name})
}

// GetFullName returns a fully-qualified name for a schema if possible. The format is namespace.name.
func GetFullName(schema Schema) string {
	switch sch := schema.(type) {
	case *RecordSchema:
		return getFullName(sch.GetName(), sch.Namespace)
	case *EnumSchema:
		return getFullName(sch.GetName(), sch.Namespace)
	case *FixedSchema:
		return getFullName(sch.GetName(), sch.Namespace)
	case *LogicalSchema:
		return GetFullName(sch.Base)
	default:
		return schema.GetName()
	}
}

// FullyQualify implements §4.2 fully_qualify: if name already contains a
// dot it is returned unchanged, otherwise the enclosing namespace (which
// may be empty) is prepended.
func FullyQualify(name, enclosingNamespace string) string {
	return getFullName(name, enclosingNamespace)
}

// SchemaToJSON implements the §6.2 schema_to_json operation.
func SchemaToJSON(schema Schema) (string, error) {
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseSchemaFile parses a given file.
// May return an error if schema is not parsable or file does not exist.
func ParseSchemaFile(file string) (Schema, error) {
	fileContents, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseSchema(string(fileContents))
}

// ParseSchema parses a given schema without provided schemas to reuse.
// Equivalent to calling ParseSchemaWithRegistry(rawSchema, make(map[string]Schema)).
// May return an error if schema is not parsable or has insufficient information about any type.
func ParseSchema(rawSchema string) (Schema, error) {
	return ParseSchemaWithRegistry(rawSchema, make(map[string]Schema))
}

// ParseSchemaWithRegistry parses a given schema using the provided registry for type lookup.
// Registry will be filled up during parsing.
// May return an error if schema is not parsable or has insufficient information about any type.
func ParseSchemaWithRegistry(rawSchema string, schemas map[string]Schema) (Schema, error) {
	var schema interface{}
	if err := json.Unmarshal([]byte(rawSchema), &schema); err != nil {
		schema = rawSchema
	}
	return schemaByType(schema, schemas, "")
}

// MustParseSchema is like ParseSchema, but panics if the given schema cannot be parsed.
func MustParseSchema(rawSchema string) Schema {
	s, err := ParseSchema(rawSchema)
	if err != nil {
		panic(err)
	}
	return s
}

func schemaByType(i interface{}, registry map[string]Schema, namespace string) (Schema, error) {
	switch v := i.(type) {
	case nil:
		return new(NullSchema), nil
	case string:
		switch v {
		case typeNull:
			return new(NullSchema), nil
		case typeBoolean:
			return new(BooleanSchema), nil
		case typeInt:
			return new(IntSchema), nil
		case typeLong:
			return new(LongSchema), nil
		case typeFloat:
			return new(FloatSchema), nil
		case typeDouble:
			return new(DoubleSchema), nil
		case typeBytes:
			return new(BytesSchema), nil
		case typeString:
			return new(StringSchema), nil
		default:
			fullName := v
			if !strings.ContainsRune(fullName, '.') {
				fullName = getFullName(v, namespace)
			}
			schema, ok := registry[fullName]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownType, v)
			}
			return schema, nil
		}
	case map[string][]interface{}:
		return parseUnionSchema(v[schemaTypeField], registry, namespace)
	case map[string]interface{}:
		switch v[schemaTypeField] {
		case typeNull:
			return new(NullSchema), nil
		case typeBoolean:
			return new(BooleanSchema), nil
		case typeInt:
			return parseLogicalOverlay(v, new(IntSchema), registry, namespace)
		case typeFloat:
			return new(FloatSchema), nil
		case typeDouble:
			return new(DoubleSchema), nil
		case typeLong:
			return parseLogicalOverlay(v, new(LongSchema), registry, namespace)
		case typeBytes:
			return parseLogicalOverlay(v, new(BytesSchema), registry, namespace)
		case typeString:
			return parseLogicalOverlay(v, new(StringSchema), registry, namespace)
		case typeArray:
			items, err := schemaByType(v[schemaItemsField], registry, namespace)
			if err != nil {
				return nil, err
			}
			return &ArraySchema{Items: items, Properties: getProperties(v)}, nil
		case typeMap:
			values, err := schemaByType(v[schemaValuesField], registry, namespace)
			if err != nil {
				return nil, err
			}
			return &MapSchema{Values: values, Properties: getProperties(v)}, nil
		case typeEnum:
			return parseEnumSchema(v, registry, namespace)
		case typeFixed:
			return parseFixedSchema(v, registry, namespace)
		case typeRecord:
			return parseRecordSchema(v, registry, namespace)
		default:
			// Type references can also be done as {"type": "otherType"}.
			return schemaByType(v[schemaTypeField], registry, namespace)
		}
	case []interface{}:
		return parseUnionSchema(v, registry, namespace)
	}

	return nil, ErrInvalidSchema
}

// parseLogicalOverlay inspects a parsed JSON object's logicalType field and,
// if recognized, wraps base in a *LogicalSchema. Unrecognized logical types
// silently degrade to base, per the Avro spec.
func parseLogicalOverlay(v map[string]interface{}, base Schema, registry map[string]Schema, namespace string) (Schema, error) {
	rawKind, _ := v[schemaLogicalTypeField].(string)
	kind := LogicalKind(rawKind)
	if rawKind == "" || !kind.recognizedFor(base) {
		return base, nil
	}
	ls := &LogicalSchema{Base: base, Kind: kind}
	if kind == LogicalDecimal {
		scale, precision, err := parseDecimalParams(v)
		if err != nil {
			return nil, err
		}
		ls.Scale, ls.Precision = scale, precision
		if precision < 1 || scale < 0 || scale > precision {
			return nil, fmt.Errorf("%w: precision=%d scale=%d", ErrPrecisionRequired, precision, scale)
		}
	}
	return ls, nil
}

func parseDecimalParams(v map[string]interface{}) (scale, precision int, err error) {
	if tmp, ok := v[schemaScaleField].(float64); ok {
		scale = int(tmp)
	}
	if tmp, ok := v[schemaPrecisionField].(float64); ok {
		precision = int(tmp)
	} else {
		return 0, 0, ErrPrecisionRequired
	}
	return scale, precision, nil
}

func parseEnumSchema(v map[string]interface{}, registry map[string]Schema, namespace string) (Schema, error) {
	symbolsRaw, ok := v[schemaSymbolsField].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: enum missing symbols", ErrInvalidSchema)
	}
	symbols := make([]string, len(symbolsRaw))
	seen := map[string]bool{}
	for i, symbol := range symbolsRaw {
		s, ok := symbol.(string)
		if !ok {
			return nil, fmt.Errorf("%w: enum symbol must be a string", ErrInvalidSchema)
		}
		if seen[s] {
			return nil, fmt.Errorf("%w: duplicate enum symbol %q", ErrInvalidSchema, s)
		}
		seen[s] = true
		symbols[i] = s
	}

	schema := &EnumSchema{Name: v[schemaNameField].(string), Symbols: symbols}
	setOptionalField(&schema.Namespace, v, schemaNamespaceField)
	setOptionalField(&schema.Doc, v, schemaDocField)
	if def, ok := v[schemaDefaultField].(string); ok {
		schema.Default = def
		schema.HasDefault = true
	}
	schema.Properties = getProperties(v)

	return addSchema(getFullName(v[schemaNameField].(string), namespace), schema, registry), nil
}

func parseFixedSchema(v map[string]interface{}, registry map[string]Schema, namespace string) (Schema, error) {
	size, ok := v[schemaSizeField].(float64)
	if !ok {
		return nil, ErrInvalidFixedSize
	}
	schema := &FixedSchema{
		Name:       v[schemaNameField].(string),
		Size:       int(size),
		Properties: getProperties(v),
	}
	setOptionalField(&schema.Namespace, v, schemaNamespaceField)
	full := getFullName(v[schemaNameField].(string), namespace)
	addSchema(full, schema, registry)

	return parseLogicalOverlay(v, schema, registry, namespace)
}

func parseUnionSchema(v []interface{}, registry map[string]Schema, namespace string) (Schema, error) {
	types := make([]Schema, len(v))
	var err error
	for i := range v {
		types[i], err = schemaByType(v[i], registry, namespace)
		if err != nil {
			return nil, err
		}
	}
	if err := validateUnionMembers(types); err != nil {
		return nil, err
	}
	return &UnionSchema{Types: types}, nil
}

func parseRecordSchema(v map[string]interface{}, registry map[string]Schema, namespace string) (Schema, error) {
	schema := &RecordSchema{Name: v[schemaNameField].(string)}
	setOptionalField(&schema.Namespace, v, schemaNamespaceField)
	setOptionalField(&namespace, v, schemaNamespaceField)
	setOptionalField(&schema.Doc, v, schemaDocField)
	if err := setOptionalStringListField(&schema.Aliases, v, schemaAliasesField); err != nil {
		return nil, err
	}
	addSchema(getFullName(v[schemaNameField].(string), namespace), newRecursiveSchema(schema), registry)

	fieldsRaw, ok := v[schemaFieldsField].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: record missing fields", ErrInvalidSchema)
	}
	fields := make([]*SchemaField, len(fieldsRaw))
	seen := map[string]bool{}
	for i := range fields {
		field, err := parseSchemaField(fieldsRaw[i], registry, namespace)
		if err != nil {
			return nil, err
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("%w: duplicate field name %q in record %q", ErrInvalidSchema, field.Name, schema.Name)
		}
		seen[field.Name] = true
		field.Index = i
		fields[i] = field
	}
	schema.Fields = fields
	schema.Properties = getProperties(v)

	return schema, nil
}

func parseSchemaField(i interface{}, registry map[string]Schema, namespace string) (*SchemaField, error) {
	v, ok := i.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidSchema
	}
	name, ok := v[schemaNameField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: schema field name missing", ErrInvalidSchema)
	}
	schemaField := &SchemaField{Name: name, Properties: getProperties(v)}
	setOptionalField(&schemaField.Doc, v, schemaDocField)
	fieldType, err := schemaByType(v[schemaTypeField], registry, namespace)
	if err != nil {
		return nil, err
	}
	if err := setOptionalStringListField(&schemaField.Aliases, v, schemaAliasesField); err != nil {
		return nil, err
	}
	schemaField.Type = fieldType
	if def, exists := v[schemaDefaultField]; exists {
		schemaField.HasDefault = true
		switch def := def.(type) {
		case float64:
			switch schemaField.Type.Type() {
			case Int:
				schemaField.Default = int32(def)
			case Long:
				schemaField.Default = int64(def)
			case Float:
				schemaField.Default = float32(def)
			default:
				schemaField.Default = def
			}
		default:
			schemaField.Default = def
		}
	}
	return schemaField, nil
}

func setOptionalField(where *string, v map[string]interface{}, fieldName string) {
	if field, exists := v[fieldName]; exists {
		*where = field.(string)
	}
}

func setOptionalStringListField(where *[]string, v map[string]interface{}, fieldName string) error {
	if field, exists := v[fieldName]; exists {
		if boxedList, ok := field.([]interface{}); ok {
			stringList := make([]string, len(boxedList))
			for i := range boxedList {
				var ok bool
				if stringList[i], ok = boxedList[i].(string); !ok {
					return fmt.Errorf("%w: bad '%s' entry %#v", ErrInvalidSchema, fieldName, boxedList[i])
				}
			}
			field = stringList
		}
		if stringList, ok := field.([]string); ok {
			*where = stringList
		}
	}
	return nil
}

func addSchema(name string, schema Schema, schemas map[string]Schema) Schema {
	if schemas != nil {
		if sch, ok := schemas[name]; ok {
			return sch
		}
		schemas[name] = schema
	}
	return schema
}

func getFullName(name string, namespace string) string {
	if len(namespace) > 0 && !strings.ContainsRune(name, '.') {
		return namespace + "." + name
	}
	return name
}

// gets custom string properties from a given schema
func getProperties(v map[string]interface{}) map[string]interface{} {
	props := make(map[string]interface{})
	for name, value := range v {
		if !isReserved(name) {
			props[name] = value
		}
	}
	return props
}

func isReserved(name string) bool {
	switch name {
	case schemaAliasesField, schemaDocField, schemaFieldsField, schemaItemsField, schemaNameField,
		schemaLogicalTypeField, schemaPrecisionField, schemaScaleField,
		schemaNamespaceField, schemaSizeField, schemaSymbolsField, schemaTypeField, schemaValuesField:
		return true
	}
	return false
}

func dereference(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}
