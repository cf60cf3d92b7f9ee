package avro

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripXZ(t *testing.T) {
	c, err := lookupCodec("xz")
	require.NoError(t, err)
	plain := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility")
	compressed, err := c.Encode(plain)
	require.NoError(t, err)
	decoded, err := c.Decode(compressed)
	require.NoError(t, err)
	assert.Equal(t, plain, decoded)
}

func TestCodecRoundTripZstandard(t *testing.T) {
	c, err := lookupCodec("zstandard")
	require.NoError(t, err)
	plain := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility")
	compressed, err := c.Encode(plain)
	require.NoError(t, err)
	decoded, err := c.Decode(compressed)
	require.NoError(t, err)
	assert.Equal(t, plain, decoded)
}

func TestCodecBzip2DecodeOnly(t *testing.T) {
	c, err := lookupCodec("bzip2")
	require.NoError(t, err)

	_, err = c.Encode([]byte("anything"))
	require.ErrorIs(t, err, ErrCodecNotWritable)

	compressed, err := base64.StdEncoding.DecodeString(
		"QlpoOTFBWSZTWd/UXdcAAAURgEAAPkzRICAAMQAACJ5Ro2UaKKBYOlVJ30+EO3HxdyRThQkN/UXdcA==")
	require.NoError(t, err)

	decoded, err := c.Decode(compressed)
	require.NoError(t, err)
	assert.Equal(t, "hello avro block payload", string(decoded))
}

func TestLookupCodecUnknown(t *testing.T) {
	_, err := lookupCodec("not-a-codec")
	require.ErrorIs(t, err, ErrUnknownCodec)
}
