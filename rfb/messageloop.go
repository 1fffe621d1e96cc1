package rfb

import "fmt"

// Client -> server message type bytes, per spec.md §4.7.
const (
	cmdSetPixelFormat           = 0
	cmdSetEncodings             = 2
	cmdFramebufferUpdateRequest = 3
	cmdKeyEvent                 = 4
	cmdPointerEvent             = 5
	cmdClientCutText            = 6
)

// Server -> client message type bytes, per spec.md §4.6.
const (
	msgFramebufferUpdate   = 0
	msgSetColourMapEntries = 1
	msgBell                = 2
	msgServerCutText       = 3
)

// Rectangle encodings this client supports, per spec.md §1/§3: Raw and
// zlib-compressed Raw only.
const (
	encodingRaw  int32 = 0
	encodingZlib int32 = 6
)

// ReadMessage advances the message loop by exactly one server-to-client
// message, dispatching it per spec.md §4.6. Connect/Dial normally runs this
// in a background goroutine (runLoop); callers that passed WithManualRead
// drive it themselves, satisfying the "read() advances by one message"
// surface from spec.md §6.
func (s *Session) ReadMessage() error {
	if err := s.failedErr(); err != nil {
		return err
	}
	err := s.readOneMessage()
	if err != nil {
		s.setFailed(err)
	}
	return err
}

func (s *Session) readOneMessage() error {
	cmd, err := s.r.readUint8()
	if err != nil {
		return wrapError(TransportClosed, err, "reading message type")
	}
	switch cmd {
	case msgFramebufferUpdate:
		return s.handleFramebufferUpdate()
	case msgSetColourMapEntries:
		return s.handleSetColourMapEntries()
	case msgBell:
		return s.handleBell()
	case msgServerCutText:
		return s.handleServerCutText()
	default:
		return newError(ProtocolError, fmt.Sprintf("unknown server message type %d", cmd))
	}
}

// handleFramebufferUpdate implements spec.md §4.5: u8 padding, u16 rect
// count, then that many rectangles.
func (s *Session) handleFramebufferUpdate() error {
	if err := s.r.readPadding(1); err != nil {
		return wrapError(TransportClosed, err, "reading FramebufferUpdate padding")
	}
	count, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle count")
	}
	for i := uint16(0); i < count; i++ {
		if err := s.handleRectangle(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleRectangle() error {
	x, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle x")
	}
	y, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle y")
	}
	w, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle width")
	}
	h, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle height")
	}
	encoding, err := s.r.readInt32()
	if err != nil {
		return wrapError(TransportClosed, err, "reading rectangle encoding")
	}

	switch encoding {
	case encodingRaw:
		return s.decodeRaw(int(x), int(y), int(w), int(h))
	case encodingZlib:
		return s.decodeZlib(int(x), int(y), int(w), int(h))
	default:
		return newError(ProtocolError, fmt.Sprintf("unsupported rectangle encoding %d", encoding))
	}
}

// decodeRaw implements spec.md §4.5's Raw rectangle: exactly w*h*bpp bytes,
// swizzled into RGBA per the declared pixel format (a straight copy when
// the format is already the client's canonical 32-bit RGBA).
func (s *Session) decodeRaw(x, y, w, h int) error {
	bpp := int(s.format.BitsPerPixel) / 8
	raw, err := s.r.readFull(w * h * bpp)
	if err != nil {
		return wrapError(TransportClosed, err, "reading raw rectangle data")
	}
	rgba := pixelsToRGBA(s.format, raw, w, h)
	s.fb.blit(x, y, w, h, rgba)
	return nil
}

// decodeZlib implements spec.md §4.5's zlib rectangle: u32 length, then
// that many bytes fed into the session-persistent inflate stream; output
// is w*h*bpp bytes treated like Raw.
func (s *Session) decodeZlib(x, y, w, h int) error {
	length, err := s.r.readUint32()
	if err != nil {
		return wrapError(TransportClosed, err, "reading zlib rectangle length")
	}
	compressed, err := s.r.readFull(int(length))
	if err != nil {
		return wrapError(TransportClosed, err, "reading zlib rectangle data")
	}
	if err := s.zlib.feed(compressed); err != nil {
		return wrapError(ProtocolError, err, "feeding zlib stream")
	}
	bpp := int(s.format.BitsPerPixel) / 8
	raw := make([]byte, w*h*bpp)
	if err := s.zlib.read(raw); err != nil {
		return wrapError(ProtocolError, err, "inflating zlib rectangle")
	}
	rgba := pixelsToRGBA(s.format, raw, w, h)
	s.fb.blit(x, y, w, h, rgba)
	return nil
}

// pixelsToRGBA converts a raw pixel buffer in pf's wire format into RGBA,
// taking the straight-copy fast path when pf is already the client's
// canonical 32-bit little-endian RGBA — the only case reachable from the
// current handshake, since SetPixelFormat has no confirmation and is
// assumed to take effect immediately (see handshake.go's serverInit) — and
// otherwise applying pf's declared shifts/masks, so the general case
// still decodes correctly if that assumption is ever relaxed.
func pixelsToRGBA(pf PixelFormat, raw []byte, w, h int) []byte {
	out := make([]byte, w*h*4)
	if isClientCanonical(pf) {
		bpp := int(pf.BitsPerPixel) / 8
		for i := 0; i < w*h; i++ {
			si := i * bpp
			di := i * 4
			out[di+0] = raw[si+0] // R (shift 0)
			out[di+1] = raw[si+1] // G (shift 8)
			out[di+2] = raw[si+2] // B (shift 16)
			out[di+3] = 0xff
		}
		return out
	}
	bpp := int(pf.BitsPerPixel) / 8
	for i := 0; i < w*h; i++ {
		si := i * bpp
		di := i * 4
		r, g, b := decodePixel(pf, raw[si:si+bpp])
		out[di+0] = r
		out[di+1] = g
		out[di+2] = b
		out[di+3] = 0xff
	}
	return out
}

// handleSetColourMapEntries implements spec.md §4.6: read and ignore,
// since the client always forces true-color.
func (s *Session) handleSetColourMapEntries() error {
	if err := s.r.readPadding(1); err != nil {
		return wrapError(TransportClosed, err, "reading SetColourMapEntries padding")
	}
	if _, err := s.r.readUint16(); err != nil { // first colour
		return wrapError(TransportClosed, err, "reading SetColourMapEntries first colour")
	}
	count, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading SetColourMapEntries count")
	}
	if _, err := s.r.readFull(int(count) * 6); err != nil { // 3x uint16 per entry
		return wrapError(TransportClosed, err, "reading SetColourMapEntries entries")
	}
	return nil
}

// handleBell implements spec.md §4.6: emit a bell event.
func (s *Session) handleBell() error {
	s.emitBell()
	return nil
}

// handleServerCutText implements spec.md §4.6: u8x3 padding, u32 length,
// Latin-1 bytes, update Clipboard.
func (s *Session) handleServerCutText() error {
	if err := s.r.readPadding(3); err != nil {
		return wrapError(TransportClosed, err, "reading ServerCutText padding")
	}
	length, err := s.r.readUint32()
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerCutText length")
	}
	raw, err := s.r.readFull(int(length))
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerCutText body")
	}
	s.Clipboard.setText(latin1ToString(raw))
	return nil
}

// latin1ToString decodes RFB 3.8's Latin-1 clipboard bytes into a Go
// string (each Latin-1 byte maps 1:1 onto the identically-numbered
// Unicode code point).
func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
