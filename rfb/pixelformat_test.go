package rfb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelFormatMarshalRoundTrip(t *testing.T) {
	pf := clientPixelFormat()
	encoded, err := marshalPixelFormat(pf)
	require.NoError(t, err)
	require.Len(t, encoded, 16)

	decoded, err := unmarshalPixelFormat(encoded)
	require.NoError(t, err)
	assert.Equal(t, pf, decoded)
}

func TestIsClientCanonical(t *testing.T) {
	assert.True(t, isClientCanonical(clientPixelFormat()))

	other := clientPixelFormat()
	other.BigEndian = 1
	assert.False(t, isClientCanonical(other))
}

func TestScaleChannel(t *testing.T) {
	assert.Equal(t, uint8(255), scaleChannel(255, 255))
	assert.Equal(t, uint8(0), scaleChannel(0, 255))
	assert.Equal(t, uint8(0), scaleChannel(5, 0))
	// 5-bit channel (max 31): full-scale value maps to 255.
	assert.Equal(t, uint8(255), scaleChannel(31, 31))
	assert.Equal(t, uint8(0), scaleChannel(0, 31))
}

func TestDecodePixelLittleEndian(t *testing.T) {
	pf := clientPixelFormat() // R shift 0, G shift 8, B shift 16, little-endian
	// Little-endian 32-bit word 0x00302010 laid out as bytes: byte0=R.
	src := []byte{0x10, 0x20, 0x30, 0x00}
	r, g, b := decodePixel(pf, src)
	assert.Equal(t, uint8(0x10), r)
	assert.Equal(t, uint8(0x20), g)
	assert.Equal(t, uint8(0x30), b)
}

func TestDecodePixelBigEndian(t *testing.T) {
	pf := clientPixelFormat()
	pf.BigEndian = 1
	// Big-endian: byte0 is the MSB, so shift 0 (R) reads from the last byte.
	src := []byte{0x00, 0x30, 0x20, 0x10}
	r, g, b := decodePixel(pf, src)
	assert.Equal(t, uint8(0x10), r)
	assert.Equal(t, uint8(0x20), g)
	assert.Equal(t, uint8(0x30), b)
}
