package rfb

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer drives the server side of one handshake over conn. secType==0
// means "reject with no security types". When secType==secTypeVNC, the
// client's response must equal the response computed from password, and
// acceptVNCAuth must be true, for the server to accept.
func fakeServer(t *testing.T, conn net.Conn, secType uint8, password string, acceptVNCAuth bool) {
	t.Helper()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	// Step 1: version banner.
	_, err := w.WriteString("RFB 003.008\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	clientVersion := make([]byte, 12)
	_, err = io.ReadFull(r, clientVersion)
	require.NoError(t, err)

	// Step 2: security types.
	if secType == secTypeInvalid {
		require.NoError(t, w.WriteByte(0))
		reason := "no soup for you"
		var lenBuf [4]byte
		lenBuf[3] = byte(len(reason))
		_, err = w.Write(lenBuf[:])
		require.NoError(t, err)
		_, err = w.WriteString(reason)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		return
	}

	require.NoError(t, w.WriteByte(1))
	require.NoError(t, w.WriteByte(secType))
	require.NoError(t, w.Flush())

	chosen, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, secType, chosen)

	if secType == secTypeVNC {
		challenge := make([]byte, 16)
		for i := range challenge {
			challenge[i] = byte(i)
		}
		_, err = w.Write(challenge)
		require.NoError(t, err)
		require.NoError(t, w.Flush())

		response := make([]byte, 16)
		_, err = io.ReadFull(r, response)
		require.NoError(t, err)

		want, err := vncAuthResponse(password, challenge)
		require.NoError(t, err)

		ok := acceptVNCAuth && string(want) == string(response)
		var result [4]byte
		if !ok {
			result[3] = 1
		}
		_, err = w.Write(result[:])
		require.NoError(t, err)
		if !ok {
			reason := "bad password"
			var lenBuf [4]byte
			lenBuf[3] = byte(len(reason))
			_, err = w.Write(lenBuf[:])
			require.NoError(t, err)
			_, err = w.WriteString(reason)
			require.NoError(t, err)
		}
		require.NoError(t, w.Flush())
		if !ok {
			return
		}
	}

	// ClientInit.
	_, err = r.ReadByte()
	require.NoError(t, err)

	// ServerInit.
	var dims [4]byte
	dims[1] = 64 // width = 64
	dims[3] = 48 // height = 48
	_, err = w.Write(dims[:])
	require.NoError(t, err)
	pf, err := marshalPixelFormat(clientPixelFormat())
	require.NoError(t, err)
	_, err = w.Write(pf)
	require.NoError(t, err)
	name := "test desktop"
	var nameLen [4]byte
	nameLen[3] = byte(len(name))
	_, err = w.Write(nameLen[:])
	require.NoError(t, err)
	_, err = w.WriteString(name)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	// Drain the client's SetPixelFormat (20 bytes) and SetEncodings
	// (1+1+2+4*2=12 bytes for 2 encodings) so its flush() doesn't block.
	_, err = io.ReadFull(r, make([]byte, 20))
	require.NoError(t, err)
	_, err = io.ReadFull(r, make([]byte, 12))
	require.NoError(t, err)
}

func TestHandshakeVNCAuthSuccess(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	dialer := DialerFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		return clientConn, nil
	})

	go fakeServer(t, serverConn, secTypeVNC, "secret", true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Dial(ctx, "ignored:5900", WithDialer(dialer), WithPassword("secret"), WithManualRead())
	require.NoError(t, err)
	defer s.conn.Close()

	w, h := s.fb.dimensions()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestHandshakeVNCAuthFailure(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	dialer := DialerFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		return clientConn, nil
	})

	go fakeServer(t, serverConn, secTypeVNC, "secret", false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Dial(ctx, "ignored:5900", WithDialer(dialer), WithPassword("wrong"), WithManualRead())
	require.Error(t, err)
	rfbErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, AuthFailed, rfbErr.Kind)
}

func TestHandshakeRejected(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	dialer := DialerFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		return clientConn, nil
	})

	go fakeServer(t, serverConn, secTypeInvalid, "", false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Dial(ctx, "ignored:5900", WithDialer(dialer), WithManualRead())
	require.Error(t, err)
	rfbErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, HandshakeRejected, rfbErr.Kind)
	assert.Equal(t, "no soup for you", rfbErr.Reason)
}

func TestChooseSecurityTypePriority(t *testing.T) {
	secureOffered := []uint8{secTypeNone, secTypeVNC, secTypeApple}

	chosen, err := chooseSecurityType(secureOffered, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, uint8(secTypeApple), chosen)

	chosen, err = chooseSecurityType(secureOffered, "", "pw")
	require.NoError(t, err)
	assert.Equal(t, uint8(secTypeVNC), chosen)

	chosen, err = chooseSecurityType(secureOffered, "", "")
	require.NoError(t, err)
	assert.Equal(t, uint8(secTypeNone), chosen)

	_, err = chooseSecurityType([]uint8{secTypeVNC}, "bob", "")
	require.Error(t, err)
}
