package rfb

import (
	"compress/zlib"
	"io"
)

// zlibStream is the session-persistent inflate context spec.md §3 and §4.5
// require: the server may reference compression history from earlier
// rectangles, even across separate FramebufferUpdate messages, so the
// zlib.Reader must never be recreated mid-session (spec.md §3's "ZlibStream
// is never reset mid-session" invariant).
//
// This mirrors the feed-then-read shape CambridgeSoftwareLtd's go-vnc client
// uses (its ClientConn.zlibStream is Written to with the compressed chunk
// before the decoder Reads decompressed bytes from it), but backs it with a
// small non-blocking queue instead of an io.Pipe: every rectangle feeds exactly
// the bytes needed to produce its w*h*4 decompressed output before the
// decoder reads, so the queue is always non-empty when Read is called and
// no second goroutine is required.
type zlibStream struct {
	queue    *feedReader
	inflator io.ReadCloser
}

func newZlibStream() *zlibStream {
	return &zlibStream{queue: newFeedReader()}
}

// feed queues len(data) compressed bytes and lazily starts the inflate
// context on the very first call (zlib.NewReader must consume the 2-byte
// zlib header immediately, which is only available once data has been fed).
func (z *zlibStream) feed(data []byte) error {
	z.queue.push(data)
	if z.inflator == nil {
		r, err := zlib.NewReader(z.queue)
		if err != nil {
			return err
		}
		z.inflator = r
	}
	return nil
}

// read decompresses exactly len(out) bytes, per spec.md §4.5: a zlib
// rectangle's decompressed output length is always w*h*4.
func (z *zlibStream) read(out []byte) error {
	_, err := io.ReadFull(z.inflator, out)
	return err
}

// feedReader is a single-goroutine-safe byte queue satisfying io.Reader.
// Because feed() is always called before the corresponding read() within
// the same goroutine (the message loop), Read never needs to block: the
// bytes it needs are already queued.
type feedReader struct {
	buf []byte
}

func newFeedReader() *feedReader {
	return &feedReader{}
}

func (f *feedReader) push(data []byte) {
	f.buf = append(f.buf, data...)
}

func (f *feedReader) Read(p []byte) (int, error) {
	if len(f.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
