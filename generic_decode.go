package avro

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies r's fields into target, a pointer to a struct whose fields
// are matched by case-insensitive name against the record's schema field
// names. Unlike the specific DatumReader path, which requires matching the
// writer schema up front, Decode works from an already-materialized
// GenericRecord, which is handy once a caller has read generically (e.g.
// off an OCF file whose writer schema it does not control) and only wants
// to project into a struct at the edge of the program.
func (r *GenericRecord) Decode(target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "avro",
	})
	if err != nil {
		return fmt.Errorf("avro: building struct decoder: %w", err)
	}
	if err := dec.Decode(r.fields); err != nil {
		return fmt.Errorf("avro: decoding record into %T: %w", target, err)
	}
	return nil
}
