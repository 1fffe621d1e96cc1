package rfb

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Session owns an authenticated RFB connection: the read half (driven by a
// single reader, either the background runLoop goroutine or a caller
// manually invoking ReadMessage), the write half (guarded by writeMu so
// exactly one writer proceeds at a time, per spec.md §3's invariants), and
// the protocol state the message loop mutates: PixelFormat, Framebuffer,
// ZlibStream, KeyboardState, MouseState, Clipboard.
type Session struct {
	conn net.Conn
	r    *wireReader
	w    *wireWriter

	writeMu sync.Mutex

	format PixelFormat
	fb     *Framebuffer
	zlib   *zlibStream

	Keyboard  *Keyboard
	Mouse     *Mouse
	Video     *Video
	Clipboard *Clipboard

	log *logrus.Entry

	bellMu      sync.Mutex
	bellHandler func()

	manualRead bool
	cancel     context.CancelFunc
	readerDone chan struct{}

	failed atomic.Value // stores error
}

// Option configures Dial/Connect.
type Option func(*options)

type options struct {
	username   string
	password   string
	dialer     Dialer
	logger     *logrus.Entry
	manualRead bool
	bell       func()
}

// WithUsername supplies a username, selecting Apple (type 30) security per
// spec.md §4.4.
func WithUsername(username string) Option {
	return func(o *options) { o.username = username }
}

// WithPassword supplies a password, preferring VNC (type 2) security over
// None per spec.md §4.4, unless a username is also supplied.
func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

// WithDialer supplies the transport factory collaborator spec.md §6
// describes, e.g. an SSH-tunneled Dialer in place of plain TCP.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithLogger supplies a structured logger entry; Dial/Connect otherwise
// uses a disabled (discard) logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(o *options) { o.logger = entry }
}

// WithManualRead disables the automatic background reader goroutine;
// the caller must then drive the message loop with Session.ReadMessage(),
// satisfying spec.md §6's "read() advance the message loop by one message
// (for callers driving it manually)" surface.
func WithManualRead() Option {
	return func(o *options) { o.manualRead = true }
}

// WithBellHandler registers a callback invoked from the reader goroutine
// (or the caller's own goroutine in manual mode) whenever the server sends
// a Bell message, per spec.md §3/§4.6.
func WithBellHandler(fn func()) Option {
	return func(o *options) { o.bell = fn }
}

// Dial establishes a transport, runs the RFB handshake (spec.md §4.4), and
// returns a ready Session. It is the scoped "connect" entry point from
// spec.md §6; callers should defer Close() to release held input state and
// close the transport.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	cfg := options{dialer: defaultDialer}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		discard := logrus.New()
		discard.SetOutput(discardWriter{})
		cfg.logger = logrus.NewEntry(discard)
	}

	conn, err := cfg.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, wrapError(TransportClosed, err, "dialing "+addr)
	}

	s := &Session{
		conn:        conn,
		r:           newWireReader(bufio.NewReader(conn)),
		w:           newWireWriter(bufio.NewWriter(conn)),
		zlib:        newZlibStream(),
		log:         cfg.logger,
		manualRead:  cfg.manualRead,
		bellHandler: cfg.bell,
		readerDone:  make(chan struct{}),
	}
	s.Keyboard = newKeyboard(s)
	s.Mouse = newMouse(s)
	s.Clipboard = newClipboard(s)

	if err := s.handshake(cfg.username, cfg.password); err != nil {
		conn.Close()
		return nil, err
	}
	s.Video = newVideo(s)

	if !s.manualRead {
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.runLoop(loopCtx)
	} else {
		close(s.readerDone)
	}

	return s, nil
}

// Connect is an alias for Dial kept for readers coming from the
// asyncvnc-style "connect(host, port, ...)" API named in spec.md §6;
// it simply joins host and port before delegating to Dial.
func Connect(ctx context.Context, host string, port int, opts ...Option) (*Session, error) {
	return Dial(ctx, net.JoinHostPort(host, portToString(port)), opts...)
}

func portToString(port int) string {
	if port <= 0 {
		port = 5900
	}
	return strconv.Itoa(port)
}

// runLoop is the reader task spec.md §5 describes: it owns the read half
// exclusively and runs until cancellation or transport close.
func (s *Session) runLoop(ctx context.Context) {
	defer close(s.readerDone)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := s.readOneMessage(); err != nil {
			s.setFailed(err)
			return
		}
	}
}

func (s *Session) setFailed(err error) {
	s.failed.Store(err)
}

func (s *Session) failedErr() error {
	if v := s.failed.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (s *Session) emitBell() {
	s.bellMu.Lock()
	handler := s.bellHandler
	s.bellMu.Unlock()
	if handler != nil {
		handler()
	}
}

// writeLocked serializes outbound writes: only one writer proceeds at a
// time on the write half, per spec.md §3/§5.
func (s *Session) writeLocked(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

// Close releases held keys/buttons (best-effort), cancels the reader task,
// flushes pending writes, and closes the transport, per spec.md §3's
// session teardown contract.
func (s *Session) Close() error {
	s.Keyboard.releaseAll()
	s.Mouse.releaseAll()

	if s.cancel != nil {
		s.cancel()
	}
	// Closing the transport unblocks a reader waiting in Read, which the
	// context cancellation alone cannot do.
	err := s.conn.Close()
	<-s.readerDone
	return err
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
