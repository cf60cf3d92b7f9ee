package avro

import "math/bits"

// maxVarintBytes is the longest a zig-zag varint of a 64-bit value can be:
// 64 bits / 7 bits-per-byte, rounded up.
const maxVarintBytes = 10

// encodeZigZag64 maps a signed integer onto the unsigned integers so that
// numbers with a small absolute value (whether positive or negative) have a
// small encoding: zz = (n << 1) ^ (n >> 63).
func encodeZigZag64(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

func decodeZigZag64(zz uint64) int64 {
	return int64(zz>>1) ^ -int64(zz&1)
}

// appendVarint appends the zig-zag varint encoding of n to buf and returns
// the extended slice.
func appendVarint(buf []byte, n int64) []byte {
	zz := encodeZigZag64(n)
	for zz >= 0x80 {
		buf = append(buf, byte(zz)|0x80)
		zz >>= 7
	}
	return append(buf, byte(zz))
}

// putVarint writes the zig-zag varint encoding of n into buf (which must be
// at least varintSize(n) bytes) and returns the number of bytes written.
func putVarint(buf []byte, n int64) int {
	zz := encodeZigZag64(n)
	i := 0
	for zz >= 0x80 {
		buf[i] = byte(zz) | 0x80
		zz >>= 7
		i++
	}
	buf[i] = byte(zz)
	return i + 1
}

// varintSize returns the number of bytes appendVarint would produce for n,
// without producing them, using a closed-form bit-count formula equivalent
// to ceil(bitlen(zz|1) / 7).
func varintSize(n int64) int {
	zz := encodeZigZag64(n) | 1
	bitlen := 64 - bits.LeadingZeros64(zz)
	return (bitlen + 6) / 7
}

// readVarint decodes a zig-zag varint from buf starting at pos, returning
// the value, the new position, and an error. Fails with ErrTruncated if buf
// ends before a terminator byte, or ErrOverflow if no terminator appears
// within 10 bytes.
func readVarint(buf []byte, pos int) (int64, int, error) {
	var zz uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		if pos >= len(buf) {
			return 0, pos, ErrTruncated
		}
		b := buf[pos]
		pos++
		zz |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return decodeZigZag64(zz), pos, nil
		}
		shift += 7
	}
	return 0, pos, ErrOverflow
}

// skipVarint advances pos past one varint without decoding its value.
func skipVarint(buf []byte, pos int) (int, error) {
	_, pos, err := readVarint(buf, pos)
	return pos, err
}
