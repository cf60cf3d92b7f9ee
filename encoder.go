package avro

import (
	"bytes"
	"math"
	"unicode/utf8"
)

// Encoder writes Avro primitive wire values to an underlying buffer.
type Encoder interface {
	WriteNull()
	WriteBoolean(b bool)
	WriteInt(i int32)
	WriteLong(i int64)
	WriteFloat(f float32)
	WriteDouble(f float64)
	WriteBytes(b []byte)
	WriteString(s string) error
	WriteFixed(b []byte)

	// WriteBlockHeader writes the header for an array/map block of count
	// items (a count of 0 writes the empty terminating block); WriteBlockEnd
	// writes the terminator that closes the sequence.
	WriteBlockHeader(count int64, byteLen int64, framed bool)
	WriteBlockEnd()

	Bytes() []byte
}

// BinaryEncoder implements Encoder, writing the Avro binary encoding
// described in https://avro.apache.org/docs/1.8.2/spec.html#binary_encoding
type BinaryEncoder struct {
	buf *bytes.Buffer
}

// NewBinaryEncoder returns an Encoder that appends to buf.
func NewBinaryEncoder(buf *bytes.Buffer) *BinaryEncoder {
	return &BinaryEncoder{buf: buf}
}

func (e *BinaryEncoder) WriteNull() {}

func (e *BinaryEncoder) WriteBoolean(b bool) {
	if b {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *BinaryEncoder) WriteInt(i int32) {
	var tmp [maxVarintBytes]byte
	n := putVarint(tmp[:], int64(i))
	e.buf.Write(tmp[:n])
}

func (e *BinaryEncoder) WriteLong(i int64) {
	var tmp [maxVarintBytes]byte
	n := putVarint(tmp[:], i)
	e.buf.Write(tmp[:n])
}

func (e *BinaryEncoder) WriteFloat(f float32) {
	bits := math.Float32bits(f)
	e.buf.WriteByte(byte(bits))
	e.buf.WriteByte(byte(bits >> 8))
	e.buf.WriteByte(byte(bits >> 16))
	e.buf.WriteByte(byte(bits >> 24))
}

func (e *BinaryEncoder) WriteDouble(f float64) {
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		e.buf.WriteByte(byte(bits >> (8 * i)))
	}
}

func (e *BinaryEncoder) WriteBytes(b []byte) {
	e.WriteLong(int64(len(b)))
	e.buf.Write(b)
}

func (e *BinaryEncoder) WriteString(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	e.WriteLong(int64(len(s)))
	e.buf.WriteString(s)
	return nil
}

func (e *BinaryEncoder) WriteFixed(b []byte) {
	e.buf.Write(b)
}

// WriteBlockHeader writes one array/map block header. When framed is true
// the block uses the negative-count, byte-length-prefixed form that lets a
// reader skip the block without decoding every item.
func (e *BinaryEncoder) WriteBlockHeader(count int64, byteLen int64, framed bool) {
	if count == 0 {
		e.WriteLong(0)
		return
	}
	if framed {
		e.WriteLong(-count)
		e.WriteLong(byteLen)
	} else {
		e.WriteLong(count)
	}
}

func (e *BinaryEncoder) WriteBlockEnd() {
	e.WriteLong(0)
}

func (e *BinaryEncoder) Bytes() []byte { return e.buf.Bytes() }
