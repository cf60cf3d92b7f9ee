package avro

import "errors"

// Sentinel errors for the core codec. Every kind in the error table is its
// own value so callers can errors.Is/errors.As instead of string-matching.
var (
	ErrInvalidSchema       = errors.New("avro: invalid schema")
	ErrInvalidFixedSize    = errors.New("avro: fixed schema missing or invalid size")
	ErrPrecisionRequired   = errors.New("avro: decimal logical type requires precision")
	ErrInvalidUnion        = errors.New("avro: invalid union schema")
	ErrUnknownType         = errors.New("avro: unknown or unresolved type name")
	ErrTruncated           = errors.New("avro: truncated input")
	ErrOverflow            = errors.New("avro: varint overflow")
	ErrBadMagic            = errors.New("avro: object container file missing Obj\\x01 magic")
	ErrCorruptSync         = errors.New("avro: block sync marker mismatch")
	ErrUnknownCodec        = errors.New("avro: unknown object container codec")
	ErrNoUnionBranch       = errors.New("avro: value does not match any union branch")
	ErrSchemaMismatch      = errors.New("avro: value shape incompatible with schema")
	ErrEnumOutOfRange      = errors.New("avro: decoded enum ordinal out of range")
	ErrInvalidUTF8         = errors.New("avro: string payload is not valid UTF-8")
	ErrDecimalOutOfRange   = errors.New("avro: decimal value exceeds declared precision")
	ErrAmbiguousUnion      = errors.New("avro: value matches more than one named union branch")
	ErrNotAPointer         = errors.New("avro: target must be a non-nil pointer")
	ErrCodecNotWritable    = errors.New("avro: codec supports decoding only, not encoding")
	ErrWriterClosed        = errors.New("avro: write to a closed object container writer")
)
