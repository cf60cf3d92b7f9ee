package avro

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// blockCodec compresses and decompresses one OCF block payload.
type blockCodec interface {
	Name() string
	Encode(plain []byte) ([]byte, error)
	Decode(compressed []byte) ([]byte, error)
}

var codecRegistry = map[string]blockCodec{}

func registerCodec(c blockCodec) { codecRegistry[c.Name()] = c }

func init() {
	registerCodec(nullCodec{})
	registerCodec(deflateCodec{})
	registerCodec(bzip2Codec{})
	registerCodec(xzCodec{})
	registerCodec(zstdCodec{})
}

// lookupCodec returns the registered codec for name, or ErrUnknownCodec.
func lookupCodec(name string) (blockCodec, error) {
	c, ok := codecRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

type nullCodec struct{}

func (nullCodec) Name() string                        { return "null" }
func (nullCodec) Encode(plain []byte) ([]byte, error) { return plain, nil }
func (nullCodec) Decode(b []byte) ([]byte, error)     { return b, nil }

type deflateCodec struct{}

func (deflateCodec) Name() string { return "deflate" }

func (deflateCodec) Encode(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decode(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	return io.ReadAll(r)
}

// bzip2Codec is decode-only: the Go standard library ships a bzip2 reader
// but no encoder, and no pure-Go bzip2 encoder is available in this
// module's dependency set. Writing a new "bzip2" block is rejected with
// ErrCodecNotWritable rather than silently falling back to another codec.
type bzip2Codec struct{}

func (bzip2Codec) Name() string { return "bzip2" }

func (bzip2Codec) Encode([]byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: bzip2", ErrCodecNotWritable)
}

func (bzip2Codec) Decode(compressed []byte) ([]byte, error) {
	return io.ReadAll(bzip2.NewReader(bytes.NewReader(compressed)))
}

type xzCodec struct{}

func (xzCodec) Name() string { return "xz" }

func (xzCodec) Encode(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (xzCodec) Decode(compressed []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstandard" }

func (zstdCodec) Encode(plain []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(plain, nil), nil
}

func (zstdCodec) Decode(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}
