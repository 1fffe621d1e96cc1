package rfb

import "sync"

// Mouse button-mask bits, per spec.md §3: left=1, middle=2, right=4,
// scroll-up=8, scroll-down=16.
const (
	ButtonLeft       uint8 = 1
	ButtonMiddle     uint8 = 2
	ButtonRight      uint8 = 4
	ButtonScrollUp   uint8 = 8
	ButtonScrollDown uint8 = 16
)

// Mouse is the pointer input surface from spec.md §4.7: MouseState is
// (x, y, button-mask); Move/Click/scroll operations and scoped Hold all
// write through the session's shared write lock.
type Mouse struct {
	session *Session

	mu   sync.Mutex
	x, y int
	mask uint8
}

func newMouse(s *Session) *Mouse {
	return &Mouse{session: s}
}

// Move sends a PointerEvent at (x, y) with the current button mask.
func (m *Mouse) Move(x, y int) error {
	m.mu.Lock()
	m.x, m.y = x, y
	mask := m.mask
	m.mu.Unlock()
	return m.sendPointerEvent(x, y, mask)
}

// Click presses and releases button at the mouse's current position.
func (m *Mouse) Click(button uint8) error {
	return m.clickAt(button)
}

// MiddleClick is a convenience for Click(ButtonMiddle).
func (m *Mouse) MiddleClick() error { return m.clickAt(ButtonMiddle) }

// RightClick is a convenience for Click(ButtonRight).
func (m *Mouse) RightClick() error { return m.clickAt(ButtonRight) }

// ScrollUp sends a press+release of the scroll-up bit.
func (m *Mouse) ScrollUp() error { return m.clickAt(ButtonScrollUp) }

// ScrollDown sends a press+release of the scroll-down bit.
func (m *Mouse) ScrollDown() error { return m.clickAt(ButtonScrollDown) }

func (m *Mouse) clickAt(button uint8) error {
	release, err := m.Hold(button)
	if err != nil {
		return err
	}
	release()
	return nil
}

// Hold sets the given buttons in the mask, sends a PointerEvent, and
// returns a release closure that clears them and sends another
// PointerEvent — the Go realization (via defer) of spec.md §4.7's scoped
// mouse hold, guaranteed to clear the mask on any exit path the caller
// defers immediately on.
func (m *Mouse) Hold(buttons ...uint8) (release func(), err error) {
	var combined uint8
	for _, b := range buttons {
		combined |= b
	}

	m.mu.Lock()
	m.mask |= combined
	x, y, mask := m.x, m.y, m.mask
	m.mu.Unlock()

	if err := m.sendPointerEvent(x, y, mask); err != nil {
		return func() {}, err
	}

	return func() {
		m.mu.Lock()
		m.mask &^= combined
		x, y, mask := m.x, m.y, m.mask
		m.mu.Unlock()
		_ = m.sendPointerEvent(x, y, mask)
	}, nil
}

// releaseAll clears the button mask on session teardown, best-effort.
func (m *Mouse) releaseAll() {
	m.mu.Lock()
	m.mask = 0
	x, y := m.x, m.y
	m.mu.Unlock()
	_ = m.sendPointerEvent(x, y, 0)
}

// sendPointerEvent writes the 6-byte PointerEvent record, per spec.md
// §4.7: u8=5, u8 button-mask, u16 x, u16 y.
func (m *Mouse) sendPointerEvent(x, y int, mask uint8) error {
	return m.session.writeLocked(func() error {
		w := m.session.w
		if err := w.writeUint8(cmdPointerEvent); err != nil {
			return wrapError(TransportClosed, err, "writing PointerEvent header")
		}
		if err := w.writeUint8(mask); err != nil {
			return wrapError(TransportClosed, err, "writing PointerEvent button mask")
		}
		if err := w.writeUint16(uint16(x)); err != nil {
			return wrapError(TransportClosed, err, "writing PointerEvent x")
		}
		if err := w.writeUint16(uint16(y)); err != nil {
			return wrapError(TransportClosed, err, "writing PointerEvent y")
		}
		return w.flush()
	})
}
