package avro

import "fmt"

// skip advances dec past one value of the given schema without
// materializing it. Array/map blocks that were written in framed
// (byte-length-prefixed) form are skipped in a single jump; unframed blocks
// are skipped item by item since their length in bytes is unknown up
// front.
func skip(schema Schema, dec Decoder) error {
	switch s := schema.(type) {
	case *NullSchema:
		_, err := dec.ReadNull()
		return err
	case *BooleanSchema:
		_, err := dec.ReadBoolean()
		return err
	case *IntSchema:
		_, err := dec.ReadInt()
		return err
	case *LongSchema:
		_, err := dec.ReadLong()
		return err
	case *FloatSchema:
		_, err := dec.ReadFloat()
		return err
	case *DoubleSchema:
		_, err := dec.ReadDouble()
		return err
	case *BytesSchema:
		_, err := dec.ReadBytes()
		return err
	case *StringSchema:
		_, err := dec.ReadString()
		return err
	case *FixedSchema:
		_, err := dec.ReadFixed(s.Size)
		return err
	case *LogicalSchema:
		return skip(s.Base, dec)
	case *EnumSchema:
		_, err := dec.ReadInt()
		return err
	case *ArraySchema:
		return skipBlocks(dec, func() error { return skip(s.Items, dec) })
	case *MapSchema:
		return skipBlocks(dec, func() error {
			if _, err := dec.ReadString(); err != nil {
				return err
			}
			return skip(s.Values, dec)
		})
	case *UnionSchema:
		idx, err := dec.ReadLong()
		if err != nil {
			return err
		}
		if idx < 0 || int(idx) >= len(s.Types) {
			return ErrNoUnionBranch
		}
		return skip(s.Types[idx], dec)
	case *RecordSchema:
		for _, f := range s.Fields {
			if err := skip(f.Type, dec); err != nil {
				return fmt.Errorf("skipping field %q: %w", f.Name, err)
			}
		}
		return nil
	case *RecursiveSchema:
		return skip(s.Actual, dec)
	default:
		return fmt.Errorf("%w: cannot skip schema %T", ErrSchemaMismatch, schema)
	}
}

// skipBlocks drives the array/map block-skipping loop shared by both
// container kinds: a framed block jumps straight past its byte length, an
// unframed block calls skipItem count times.
func skipBlocks(dec Decoder, skipItem func() error) error {
	for {
		count, byteLen, framed, err := dec.ReadBlockHeader()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if framed {
			if bd, ok := dec.(*BinaryDecoder); ok {
				bd.pos += int(byteLen)
				continue
			}
		}
		for i := int64(0); i < count; i++ {
			if err := skipItem(); err != nil {
				return err
			}
		}
	}
}
