package rfb

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestZlibStreamSharesHistoryAcrossFeeds exercises the session-persistent
// inflate contract spec.md requires: two chunks written to a single zlib
// stream (with a sync flush between them, as separate FramebufferUpdate
// rectangles would arrive) must be decodable in sequence by one zlibStream,
// even though the second chunk is not independently a valid zlib stream on
// its own (it has no zlib header — proving the shared inflate context is
// what makes decoding it possible).
func TestZlibStreamSharesHistoryAcrossFeeds(t *testing.T) {
	segment1 := bytes.Repeat([]byte("ABCDEFGH-rectangle-one-"), 64)
	segment2 := bytes.Repeat([]byte("ABCDEFGH-rectangle-one-"), 64) // repeats segment1's content

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(segment1)
	require.NoError(t, err)
	require.NoError(t, zw.Flush())
	chunk1 := append([]byte(nil), compressed.Bytes()...)

	compressed.Reset()
	_, err = zw.Write(segment2)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	chunk2 := append([]byte(nil), compressed.Bytes()...)

	// chunk2 alone is not a valid zlib stream: it continues a deflate
	// stream started by chunk1, so it has no zlib header of its own.
	_, err = zlib.NewReader(bytes.NewReader(chunk2))
	assert.Error(t, err, "chunk2 must not be independently decodable")

	zs := newZlibStream()
	require.NoError(t, zs.feed(chunk1))
	out1 := make([]byte, len(segment1))
	require.NoError(t, zs.read(out1))
	assert.Equal(t, segment1, out1)

	require.NoError(t, zs.feed(chunk2))
	out2 := make([]byte, len(segment2))
	require.NoError(t, zs.read(out2))
	assert.Equal(t, segment2, out2)
}

func TestFeedReaderQueuesAcrossMultiplePushes(t *testing.T) {
	f := newFeedReader()
	f.push([]byte("ab"))
	f.push([]byte("cd"))

	buf := make([]byte, 3)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf))

	buf2 := make([]byte, 4)
	n, err = f.Read(buf2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte('d'), buf2[0])

	_, err = f.Read(buf2)
	assert.ErrorIs(t, err, io.EOF)
}
