package rfb

import (
	"bufio"
	"encoding/binary"
	"io"
)

// wireReader wraps the session's buffered reader with the fixed-width and
// length-prefixed primitives the RFB wire format uses throughout the
// handshake, message loop and input surface. Every read is a blocking call
// on the underlying stream; an EOF or reset at any point surfaces as
// TransportClosed to the caller, because each call site wraps the error
// with wrapError(TransportClosed, ...).
type wireReader struct {
	r *bufio.Reader
}

func newWireReader(r *bufio.Reader) *wireReader {
	return &wireReader{r: r}
}

func (w *wireReader) readByte() (byte, error) {
	return w.r.ReadByte()
}

func (w *wireReader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(w.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (w *wireReader) readPadding(n int) error {
	_, err := w.readFull(n)
	return err
}

func (w *wireReader) readUint8() (uint8, error) {
	b, err := w.readByte()
	return b, err
}

func (w *wireReader) readUint16() (uint16, error) {
	buf, err := w.readFull(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (w *wireReader) readUint32() (uint32, error) {
	buf, err := w.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (w *wireReader) readInt32() (int32, error) {
	v, err := w.readUint32()
	return int32(v), err
}

// readLengthPrefixedString reads a u32 big-endian length followed by that
// many bytes, per spec.md §4.1.
func (w *wireReader) readLengthPrefixedString() (string, error) {
	n, err := w.readUint32()
	if err != nil {
		return "", err
	}
	buf, err := w.readFull(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// wireWriter is the write-half counterpart. The session serializes all
// outbound writes with its write mutex; wireWriter itself performs no
// locking.
type wireWriter struct {
	w *bufio.Writer
}

func newWireWriter(w *bufio.Writer) *wireWriter {
	return &wireWriter{w: w}
}

func (w *wireWriter) writeUint8(v uint8) error {
	return w.w.WriteByte(v)
}

func (w *wireWriter) writePadding(n int) error {
	for i := 0; i < n; i++ {
		if err := w.w.WriteByte(0); err != nil {
			return err
		}
	}
	return nil
}

func (w *wireWriter) writeUint16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

func (w *wireWriter) writeUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

func (w *wireWriter) writeInt32(v int32) error {
	return w.writeUint32(uint32(v))
}

func (w *wireWriter) writeBytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// writeLengthPrefixedString writes a u32 big-endian length followed by the
// bytes of s, per spec.md §4.1.
func (w *wireWriter) writeLengthPrefixedString(s string) error {
	if err := w.writeUint32(uint32(len(s))); err != nil {
		return err
	}
	return w.writeBytes([]byte(s))
}

func (w *wireWriter) flush() error {
	return w.w.Flush()
}

