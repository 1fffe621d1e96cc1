package rfb

import (
	"crypto/des"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reverseBitsReference re-derives the bit-reversal independently, via the
// swap-adjacent-pairs technique rnd-user-go-vnc's client_auth.go uses,
// rather than the bit-at-a-time loop vncAuthKey itself uses, so this test
// catches a regression in either implementation rather than just echoing it.
func reverseBitsReference(b byte) byte {
	b = (b&0x55)<<1 | (b&0xaa)>>1
	b = (b&0x33)<<2 | (b&0xcc)>>2
	b = (b&0x0f)<<4 | (b&0xf0)>>4
	return b
}

func TestReverseBitsMatchesIndependentImplementation(t *testing.T) {
	for i := 0; i < 256; i++ {
		assert.Equal(t, reverseBitsReference(byte(i)), reverseBits(byte(i)), "byte %d", i)
	}
}

func TestVNCAuthResponseRoundTripsThroughDES(t *testing.T) {
	// S1: all-zero challenge, a short password.
	challenge := make([]byte, 16)
	password := "secret"

	response, err := vncAuthResponse(password, challenge)
	require.NoError(t, err)
	require.Len(t, response, 16)

	// Decrypting the response under the same derived key must recover the
	// original challenge: proves vncAuthResponse is DES-ECB over two 8-byte
	// halves under the bit-reversed password key, independent of any
	// particular byte values.
	block, err := des.NewCipher(vncAuthKey(password))
	require.NoError(t, err)

	recovered := make([]byte, 16)
	block.Decrypt(recovered[0:8], response[0:8])
	block.Decrypt(recovered[8:16], response[8:16])
	assert.Equal(t, challenge, recovered)
}

func TestVNCAuthKeyPadsAndTruncates(t *testing.T) {
	short := vncAuthKey("ab")
	assert.Len(t, short, 8)

	long := vncAuthKey("0123456789")
	assert.Len(t, long, 8)
	// Truncation: only the first 8 bytes of the long password matter.
	assert.Equal(t, vncAuthKey("01234567"), long)
}

func TestVNCAuthResponseRejectsWrongChallengeLength(t *testing.T) {
	_, err := vncAuthResponse("pw", make([]byte, 8))
	require.Error(t, err)
	rfbErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, rfbErr.Kind)
}
