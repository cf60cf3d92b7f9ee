package avro

import "math/big"

// The "decimal" logical type stores its unscaled value as a two's
// complement big-endian integer, the smallest number of bytes that can
// hold it (spec.md: decimal over bytes is unpadded, decimal over fixed(N)
// is sign-extended to exactly N bytes).

func bigZero() *big.Int { return big.NewInt(0) }

// bigIntToTwosComplement returns the minimal big-endian two's complement
// encoding of n.
func bigIntToTwosComplement(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	if n.Sign() > 0 {
		b := n.Bytes()
		if len(b) == 0 || b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Negative: two's complement of the magnitude, minimal width.
	// A negative n fits in k bytes when -n-1 fits in 8k-1 bits.
	bitLen := new(big.Int).Sub(new(big.Int).Neg(n), big.NewInt(1)).BitLen()
	nBytes := bitLen/8 + 1
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8))
	twos := new(big.Int).Add(mod, n)
	b := twos.Bytes()
	for len(b) < nBytes {
		b = append([]byte{0xff}, b...)
	}
	return b
}

// padTwosComplement sign-extends a minimal two's complement encoding out to
// exactly size bytes, as required when a decimal is carried by a fixed
// schema of fixed width.
func padTwosComplement(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	pad := byte(0x00)
	if len(b) > 0 && b[0]&0x80 != 0 {
		pad = 0xff
	}
	out := make([]byte, size)
	for i := 0; i < size-len(b); i++ {
		out[i] = pad
	}
	copy(out[size-len(b):], b)
	return out
}

// twosComplementToBigInt parses a big-endian two's complement encoding back
// into a signed big.Int.
func twosComplementToBigInt(b []byte) *big.Int {
	if len(b) == 0 {
		return bigZero()
	}
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		n.Sub(n, mod)
	}
	return n
}
