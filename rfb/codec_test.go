package rfb

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := newWireWriter(bufio.NewWriter(&buf))

	require.NoError(t, w.writeUint8(0x42))
	require.NoError(t, w.writeUint16(0x1234))
	require.NoError(t, w.writeUint32(0xdeadbeef))
	require.NoError(t, w.writeInt32(-1))
	require.NoError(t, w.writePadding(3))
	require.NoError(t, w.writeLengthPrefixedString("hello"))
	require.NoError(t, w.flush())

	r := newWireReader(bufio.NewReader(&buf))

	u8, err := r.readUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), u8)

	u16, err := r.readUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.readUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	i32, err := r.readInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	require.NoError(t, r.readPadding(3))

	s, err := r.readLengthPrefixedString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}
