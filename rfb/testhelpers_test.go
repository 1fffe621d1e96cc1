package rfb

import (
	"bufio"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
)

// newTestSession builds a Session wired to one end of an in-process
// net.Pipe, with the handshake already "complete" (canonical pixel format,
// a width x height framebuffer, fresh zlib stream). The caller drives the
// other end of the pipe directly to simulate the server side, without
// spawning the background reader goroutine — tests call ReadMessage or the
// package-internal handlers directly so assertions can run deterministically.
func newTestSession(t *testing.T, width, height int) (*Session, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })

	discard := logrus.New()
	discard.SetOutput(discardWriter{})

	s := &Session{
		conn:       clientConn,
		r:          newWireReader(bufio.NewReader(clientConn)),
		w:          newWireWriter(bufio.NewWriter(clientConn)),
		zlib:       newZlibStream(),
		format:     clientPixelFormat(),
		fb:         newFramebuffer(width, height),
		log:        logrus.NewEntry(discard),
		readerDone: make(chan struct{}),
	}
	close(s.readerDone)
	s.Keyboard = newKeyboard(s)
	s.Mouse = newMouse(s)
	s.Clipboard = newClipboard(s)
	s.Video = newVideo(s)

	return s, serverConn
}

func newBufWriter(conn net.Conn) *bufio.Writer {
	return bufio.NewWriter(conn)
}
