package avro

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Decoder reads Avro primitive wire values from an underlying buffer.
type Decoder interface {
	ReadNull() (interface{}, error)
	ReadBoolean() (bool, error)
	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadFloat() (float32, error)
	ReadDouble() (float64, error)
	ReadBytes() ([]byte, error)
	ReadString() (string, error)
	ReadFixed(size int) ([]byte, error)

	// ReadBlockHeader reads one array/map block header, returning the item
	// count (always non-negative) and, if the block was framed, the byte
	// length of the block's payload (for skip support).
	ReadBlockHeader() (count int64, byteLen int64, framed bool, err error)

	Pos() int
}

// BinaryDecoder implements Decoder over a fixed byte slice.
type BinaryDecoder struct {
	buf []byte
	pos int
}

// NewBinaryDecoder returns a Decoder reading from buf.
func NewBinaryDecoder(buf []byte) *BinaryDecoder {
	return &BinaryDecoder{buf: buf}
}

func (d *BinaryDecoder) Pos() int { return d.pos }

func (d *BinaryDecoder) ReadNull() (interface{}, error) { return nil, nil }

func (d *BinaryDecoder) ReadBoolean() (bool, error) {
	if d.pos >= len(d.buf) {
		return false, ErrTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b != 0, nil
}

func (d *BinaryDecoder) ReadInt() (int32, error) {
	v, pos, err := readVarint(d.buf, d.pos)
	d.pos = pos
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: int value %d out of int32 range", ErrOverflow, v)
	}
	return int32(v), nil
}

func (d *BinaryDecoder) ReadLong() (int64, error) {
	v, pos, err := readVarint(d.buf, d.pos)
	d.pos = pos
	return v, err
}

func (d *BinaryDecoder) ReadFloat() (float32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, ErrTruncated
	}
	bits := uint32(d.buf[d.pos]) | uint32(d.buf[d.pos+1])<<8 | uint32(d.buf[d.pos+2])<<16 | uint32(d.buf[d.pos+3])<<24
	d.pos += 4
	return math.Float32frombits(bits), nil
}

func (d *BinaryDecoder) ReadDouble() (float64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, ErrTruncated
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(d.buf[d.pos+i]) << (8 * i)
	}
	d.pos += 8
	return math.Float64frombits(bits), nil
}

func (d *BinaryDecoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadLong()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte length %d", ErrTruncated, n)
	}
	if d.pos+int(n) > len(d.buf) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

func (d *BinaryDecoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func (d *BinaryDecoder) ReadFixed(size int) ([]byte, error) {
	if d.pos+size > len(d.buf) {
		return nil, ErrTruncated
	}
	out := make([]byte, size)
	copy(out, d.buf[d.pos:d.pos+size])
	d.pos += size
	return out, nil
}

func (d *BinaryDecoder) ReadBlockHeader() (int64, int64, bool, error) {
	count, err := d.ReadLong()
	if err != nil {
		return 0, 0, false, err
	}
	if count == 0 {
		return 0, 0, false, nil
	}
	if count < 0 {
		byteLen, err := d.ReadLong()
		if err != nil {
			return 0, 0, false, err
		}
		return -count, byteLen, true, nil
	}
	return count, 0, false, nil
}
