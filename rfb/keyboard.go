package rfb

import "sync"

// Keyboard is the input surface spec.md §4.7 describes: press/release of
// named keys, scoped holds, and text typing built from the keysym table.
// KeyboardState (the ordered set of held keysyms) is empty outside any
// active hold, and every press has a matching release before session end
// (spec.md §3's invariant, enforced by Session.Close calling releaseAll).
type Keyboard struct {
	session *Session

	mu   sync.Mutex
	held []Keysym // ordered set: press order, for symmetric release
}

func newKeyboard(s *Session) *Keyboard {
	return &Keyboard{session: s}
}

// Press sends a KeyEvent(down=1) for each named key, in order, and adds
// them to the held set. Callers wanting guaranteed release should use
// Hold instead.
func (k *Keyboard) Press(names ...string) error {
	keysyms := make([]Keysym, len(names))
	for i, name := range names {
		ks, err := keysymForName(name)
		if err != nil {
			return err
		}
		keysyms[i] = ks
	}
	return k.session.writeLocked(func() error {
		for _, ks := range keysyms {
			if err := k.sendKeyEvent(ks, true); err != nil {
				return err
			}
		}
		k.mu.Lock()
		k.held = append(k.held, keysyms...)
		k.mu.Unlock()
		return nil
	})
}

// Release sends a KeyEvent(down=0) for each named key, in reverse order,
// and removes them from the held set.
func (k *Keyboard) Release(names ...string) error {
	keysyms := make([]Keysym, len(names))
	for i, name := range names {
		ks, err := keysymForName(name)
		if err != nil {
			return err
		}
		keysyms[i] = ks
	}
	return k.session.writeLocked(func() error {
		for i := len(keysyms) - 1; i >= 0; i-- {
			if err := k.sendKeyEvent(keysyms[i], false); err != nil {
				return err
			}
		}
		k.mu.Lock()
		k.removeLocked(keysyms)
		k.mu.Unlock()
		return nil
	})
}

func (k *Keyboard) removeLocked(keysyms []Keysym) {
	for _, ks := range keysyms {
		for i, h := range k.held {
			if h == ks {
				k.held = append(k.held[:i], k.held[i+1:]...)
				break
			}
		}
	}
}

// Hold presses the named keys and returns a release closure guaranteed to
// release them on any exit path when deferred immediately by the caller —
// the Go realization of spec.md §4.7/§9's scoped "hold" context manager,
// via defer instead of a language-level context manager.
//
//	release, err := kb.Hold("Shift")
//	if err != nil { return err }
//	defer release()
func (k *Keyboard) Hold(names ...string) (release func(), err error) {
	if err := k.Press(names...); err != nil {
		return func() {}, err
	}
	return func() {
		_ = k.Release(names...)
	}, nil
}

// Write decomposes text into keysyms per spec.md §4.3/§9: for each
// character, emit press+release; characters that require Shift on a US
// layout are bracketed with Shift press/release unless Shift is already
// held.
func (k *Keyboard) Write(text string) error {
	for _, r := range text {
		ks, needsShift := keyEventForRune(r)

		k.mu.Lock()
		shiftAlreadyHeld := k.isHeldLocked(KeysymShiftL) || k.isHeldLocked(KeysymShiftR)
		k.mu.Unlock()

		bracket := needsShift && !shiftAlreadyHeld

		if bracket {
			if err := k.Press("Shift"); err != nil {
				return err
			}
		}
		if err := k.session.writeLocked(func() error {
			if err := k.sendKeyEvent(ks, true); err != nil {
				return err
			}
			return k.sendKeyEvent(ks, false)
		}); err != nil {
			return err
		}
		if bracket {
			if err := k.Release("Shift"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (k *Keyboard) isHeldLocked(ks Keysym) bool {
	for _, h := range k.held {
		if h == ks {
			return true
		}
	}
	return false
}

// releaseAll force-releases every currently held key, best-effort, on
// session teardown (spec.md §3/§5).
func (k *Keyboard) releaseAll() {
	k.mu.Lock()
	held := append([]Keysym(nil), k.held...)
	k.mu.Unlock()

	for i := len(held) - 1; i >= 0; i-- {
		_ = k.session.writeLocked(func() error {
			return k.sendKeyEvent(held[i], false)
		})
	}
	k.mu.Lock()
	k.held = nil
	k.mu.Unlock()
}

// sendKeyEvent writes the 8-byte KeyEvent record, per spec.md §4.7:
// u8=4, u8 down-flag, u16 padding, u32 keysym. Caller must hold writeMu.
func (k *Keyboard) sendKeyEvent(ks Keysym, down bool) error {
	w := k.session.w
	if err := w.writeUint8(cmdKeyEvent); err != nil {
		return wrapError(TransportClosed, err, "writing KeyEvent header")
	}
	downFlag := uint8(0)
	if down {
		downFlag = 1
	}
	if err := w.writeUint8(downFlag); err != nil {
		return wrapError(TransportClosed, err, "writing KeyEvent down-flag")
	}
	if err := w.writePadding(2); err != nil {
		return wrapError(TransportClosed, err, "writing KeyEvent padding")
	}
	if err := w.writeUint32(uint32(ks)); err != nil {
		return wrapError(TransportClosed, err, "writing KeyEvent keysym")
	}
	return w.flush()
}
