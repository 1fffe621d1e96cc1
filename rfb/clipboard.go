package rfb

import "sync"

// Clipboard tracks the last server-sent cut-text and lets the caller send
// its own, per spec.md §3/§6.
type Clipboard struct {
	session *Session

	mu   sync.RWMutex
	text string
}

func newClipboard(s *Session) *Clipboard {
	return &Clipboard{session: s}
}

// Text returns the last-received server cut-text.
func (c *Clipboard) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}

func (c *Clipboard) setText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Write sends a ClientCutText message, per spec.md §4.7: u8=6, u8x3
// padding, u32 length, Latin-1 bytes.
func (c *Clipboard) Write(text string) error {
	body := stringToLatin1(text)
	return c.session.writeLocked(func() error {
		w := c.session.w
		if err := w.writeUint8(cmdClientCutText); err != nil {
			return wrapError(TransportClosed, err, "writing ClientCutText header")
		}
		if err := w.writePadding(3); err != nil {
			return wrapError(TransportClosed, err, "writing ClientCutText padding")
		}
		if err := w.writeUint32(uint32(len(body))); err != nil {
			return wrapError(TransportClosed, err, "writing ClientCutText length")
		}
		if err := w.writeBytes(body); err != nil {
			return wrapError(TransportClosed, err, "writing ClientCutText body")
		}
		return w.flush()
	})
}

// stringToLatin1 encodes s as RFB 3.8 Latin-1 clipboard bytes, replacing
// any code point outside the Latin-1 range with '?'.
func stringToLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return out
}
