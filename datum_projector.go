package avro

import (
	"fmt"
	"reflect"

	"github.com/mohae/deepcopy"
)

// NewDatumProjector builds a reader that resolves writerSchema's wire
// encoding against readerSchema, per the schema resolution rules in
// https://avro.apache.org/docs/1.8.2/spec.html#Schema+Resolution
func NewDatumProjector(readerSchema, writerSchema Schema) *DatumProjector {
	return &DatumProjector{projection: newProjection(readerSchema, writerSchema)}
}

// DatumProjector reads values written against one schema into a target
// shaped by a different (but resolution-compatible) reader schema.
type DatumProjector struct {
	projection *Projection
}

// Read projects one value from dec into target, which must be a non-nil
// pointer.
func (p *DatumProjector) Read(target interface{}, dec Decoder) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrNotAPointer
	}
	return p.projection.Project(rv.Elem(), dec)
}

// Projection holds the compiled resolution plan between one pair of
// reader/writer schemas.
type Projection struct {
	Project func(target reflect.Value, dec Decoder) error
}

func (p *Projection) assign(target reflect.Value, decode func() (interface{}, error)) error {
	v, err := decode()
	if err != nil {
		return err
	}
	return assignDecoded(target, v)
}

// newProjection compiles a Projection resolving writerSchema's wire shape
// onto readerSchema. It panics only on programmer error (nil schemas);
// schema incompatibilities surface as an error from Project at read time.
func newProjection(readerSchema, writerSchema Schema) *Projection {
	p := &Projection{}

	if readerSchema == nil || writerSchema == nil {
		panic("avro: newProjection requires non-nil reader and writer schemas")
	}

	if ls, ok := writerSchema.(*LogicalSchema); ok {
		writerSchema = ls.Base
	}
	readerLogical, readerIsLogical := readerSchema.(*LogicalSchema)
	if readerIsLogical {
		readerSchema = readerLogical.Base
	}

	incompatible := func() {
		p.Project = func(target reflect.Value, dec Decoder) error {
			return fmt.Errorf("%w: cannot resolve writer %s onto reader %s",
				ErrSchemaMismatch, GetFullName(writerSchema), GetFullName(readerSchema))
		}
	}

	switch readerSchema.Type() {
	case Null:
		switch writerSchema.Type() {
		case Null:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadNull() })
			}
		default:
			incompatible()
		}

	case Boolean:
		switch writerSchema.Type() {
		case Boolean:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadBoolean() })
			}
		default:
			incompatible()
		}

	case Int:
		switch writerSchema.Type() {
		case Int:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadInt() })
			}
		default:
			incompatible()
		}

	case Long:
		switch writerSchema.Type() {
		case Int:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadInt()
					return int64(v), err
				})
			}
		case Long:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadLong() })
			}
		default:
			incompatible()
		}

	case Float:
		switch writerSchema.Type() {
		case Int:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadInt()
					return float32(v), err
				})
			}
		case Long:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadLong()
					return float32(v), err
				})
			}
		case Float:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadFloat() })
			}
		default:
			incompatible()
		}

	case Double:
		switch writerSchema.Type() {
		case Int:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadInt()
					return float64(v), err
				})
			}
		case Long:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadLong()
					return float64(v), err
				})
			}
		case Float:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadFloat()
					return float64(v), err
				})
			}
		case Double:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadDouble() })
			}
		default:
			incompatible()
		}

	case Bytes:
		switch writerSchema.Type() {
		case Bytes:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadBytes() })
			}
		case String:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadString()
					return []byte(v), err
				})
			}
		default:
			incompatible()
		}

	case String:
		switch writerSchema.Type() {
		case String:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadString() })
			}
		case Bytes:
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) {
					v, err := dec.ReadBytes()
					return string(v), err
				})
			}
		default:
			incompatible()
		}

	case Fixed:
		readerFixed := readerSchema.(*FixedSchema)
		switch writerSchema.Type() {
		case Fixed:
			writerFixed := writerSchema.(*FixedSchema)
			if writerFixed.Size != readerFixed.Size {
				incompatible()
				break
			}
			p.Project = func(target reflect.Value, dec Decoder) error {
				return p.assign(target, func() (interface{}, error) { return dec.ReadFixed(readerFixed.Size) })
			}
		default:
			incompatible()
		}

	case Enum:
		readerEnum := readerSchema.(*EnumSchema)
		switch writerSchema.Type() {
		case Enum:
			writerEnum := writerSchema.(*EnumSchema)
			p.Project = func(target reflect.Value, dec Decoder) error {
				ord, err := dec.ReadInt()
				if err != nil {
					return err
				}
				if int(ord) < 0 || int(ord) >= len(writerEnum.Symbols) {
					return ErrEnumOutOfRange
				}
				symbol := writerEnum.Symbols[ord]
				if readerEnum.Ordinal(symbol) < 0 {
					if !readerEnum.HasDefault {
						return fmt.Errorf("%w: symbol %q not in reader enum and no default", ErrEnumOutOfRange, symbol)
					}
					symbol = readerEnum.Default
				}
				return assignDecoded(target, GenericEnum{Symbols: readerEnum.Symbols, Symbol: symbol})
			}
		default:
			incompatible()
		}

	case Array:
		readerArray := readerSchema.(*ArraySchema)
		switch writerSchema.Type() {
		case Array:
			writerArray := writerSchema.(*ArraySchema)
			itemProjection := newProjection(readerArray.Items, writerArray.Items)
			p.Project = func(target reflect.Value, dec Decoder) error {
				var out []interface{}
				err := decodeBlocks(dec, func() error {
					itemPtr := reflect.New(reflect.TypeOf((*interface{})(nil)).Elem())
					if err := itemProjection.Project(itemPtr.Elem(), dec); err != nil {
						return err
					}
					out = append(out, itemPtr.Elem().Interface())
					return nil
				})
				if err != nil {
					return err
				}
				return assignDecoded(target, out)
			}
		default:
			incompatible()
		}

	case Map:
		readerMap := readerSchema.(*MapSchema)
		switch writerSchema.Type() {
		case Map:
			writerMap := writerSchema.(*MapSchema)
			valueProjection := newProjection(readerMap.Values, writerMap.Values)
			p.Project = func(target reflect.Value, dec Decoder) error {
				out := make(map[string]interface{})
				err := decodeBlocks(dec, func() error {
					key, err := dec.ReadString()
					if err != nil {
						return err
					}
					valPtr := reflect.New(reflect.TypeOf((*interface{})(nil)).Elem())
					if err := valueProjection.Project(valPtr.Elem(), dec); err != nil {
						return err
					}
					out[key] = valPtr.Elem().Interface()
					return nil
				})
				if err != nil {
					return err
				}
				return assignDecoded(target, out)
			}
		default:
			incompatible()
		}

	case Union:
		readerUnion := readerSchema.(*UnionSchema)
		switch writerSchema.Type() {
		case Union:
			writerUnion := writerSchema.(*UnionSchema)
			branchProjections := make([]*Projection, len(writerUnion.Types))
			for i, wt := range writerUnion.Types {
				matched := matchUnionBranch(readerUnion, wt)
				branchProjections[i] = newProjection(matched, wt)
			}
			p.Project = func(target reflect.Value, dec Decoder) error {
				idx, err := dec.ReadLong()
				if err != nil {
					return err
				}
				if idx < 0 || int(idx) >= len(branchProjections) {
					return ErrNoUnionBranch
				}
				return branchProjections[idx].Project(target, dec)
			}
		default:
			// A non-union writer resolves against whichever reader branch matches.
			matched := matchUnionBranch(readerUnion, writerSchema)
			inner := newProjection(matched, writerSchema)
			p.Project = inner.Project
		}

	case Record:
		readerRecord := readerSchema.(*RecordSchema)
		switch writerSchema.Type() {
		case Record:
			writerRecord := writerSchema.(*RecordSchema)
			p.Project = compileRecordProjection(readerRecord, writerRecord)
		default:
			incompatible()
		}

	case Recursive:
		readerRecursive := readerSchema.(*RecursiveSchema)
		return newProjection(readerRecursive.Actual, writerSchema)

	default:
		incompatible()
	}

	return p
}

// matchUnionBranch finds the reader-union branch resolution-compatible with
// writerBranch, preferring an exact type match.
func matchUnionBranch(readerUnion *UnionSchema, writerBranch Schema) Schema {
	for _, rt := range readerUnion.Types {
		if rt.Type() == writerBranch.Type() {
			return rt
		}
	}
	if len(readerUnion.Types) > 0 {
		return readerUnion.Types[0]
	}
	return writerBranch
}

// compileRecordProjection resolves writer fields onto reader fields by
// name (aliases included), filling any reader field absent from the writer
// with its declared default, per spec.md's MissingField/ExtraField rules.
func compileRecordProjection(readerRecord, writerRecord *RecordSchema) func(reflect.Value, Decoder) error {
	type fieldPlan struct {
		writerField *SchemaField
		readerField *SchemaField
		projection  *Projection
	}
	plans := make([]fieldPlan, len(writerRecord.Fields))
	seenReaderFields := make(map[string]bool)

	for i, wf := range writerRecord.Fields {
		rf, ok := readerRecord.FieldByName(wf.Name)
		if !ok {
			for _, candidate := range readerRecord.Fields {
				for _, alias := range candidate.Aliases {
					if alias == wf.Name {
						rf = candidate
						ok = true
					}
				}
			}
		}
		plans[i] = fieldPlan{writerField: wf, readerField: rf}
		if ok {
			plans[i].projection = newProjection(rf.Type, wf.Type)
			seenReaderFields[rf.Name] = true
		}
	}

	var defaultedFields []*SchemaField
	for _, rf := range readerRecord.Fields {
		if !seenReaderFields[rf.Name] {
			defaultedFields = append(defaultedFields, rf)
		}
	}

	return func(target reflect.Value, dec Decoder) error {
		target = dereference(target)
		if target.Kind() == reflect.Interface || !target.IsValid() {
			rec := NewGenericRecord(readerRecord)
			for _, plan := range plans {
				if plan.readerField == nil {
					if err := skip(plan.writerField.Type, dec); err != nil {
						return fmt.Errorf("skipping extra field %q: %w", plan.writerField.Name, err)
					}
					continue
				}
				ptr := reflect.New(reflect.TypeOf((*interface{})(nil)).Elem())
				if err := plan.projection.Project(ptr.Elem(), dec); err != nil {
					return fmt.Errorf("field %q: %w", plan.writerField.Name, err)
				}
				rec.Set(plan.readerField.Name, ptr.Elem().Interface())
			}
			for _, rf := range defaultedFields {
				// Deep-copy mutable defaults (arrays/maps/records) so two
				// decoded records never share backing storage for a field
				// neither writer populated.
				rec.Set(rf.Name, deepcopy.Copy(rf.Default))
			}
			if target.CanSet() {
				target.Set(reflect.ValueOf(rec))
			}
			return nil
		}

		if target.Kind() != reflect.Struct {
			return fmt.Errorf("%w: projection target must be a struct or interface, got %s", ErrSchemaMismatch, target.Kind())
		}

		for _, plan := range plans {
			if plan.readerField == nil {
				if err := skip(plan.writerField.Type, dec); err != nil {
					return fmt.Errorf("skipping extra field %q: %w", plan.writerField.Name, err)
				}
				continue
			}
			structField := target.FieldByName(exportedFieldName(plan.readerField.Name))
			if !structField.IsValid() {
				return fmt.Errorf("%w: no field %q in %s", ErrSchemaMismatch, plan.readerField.Name, target.Type())
			}
			if err := plan.projection.Project(structField, dec); err != nil {
				return fmt.Errorf("field %q: %w", plan.writerField.Name, err)
			}
		}
		for _, rf := range defaultedFields {
			structField := target.FieldByName(exportedFieldName(rf.Name))
			if structField.IsValid() && structField.CanSet() {
				if err := assignDecoded(structField, deepcopy.Copy(rf.Default)); err != nil {
					return fmt.Errorf("default field %q: %w", rf.Name, err)
				}
			}
		}
		return nil
	}
}
