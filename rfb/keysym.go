package rfb

// Keysym is an X11 key symbol, the 32-bit identifier RFB's KeyEvent message
// carries on the wire (spec.md §4.3, §4.7).
type Keysym uint32

// Named keysyms, per the X11 keysymdef.h values RFB clients have always
// used for these keys. Only the subset spec.md §4.3 names is included:
// modifiers, editing/navigation keys, and function keys.
const (
	KeysymBackSpace Keysym = 0xff08
	KeysymTab       Keysym = 0xff09
	KeysymReturn    Keysym = 0xff0d
	KeysymEscape    Keysym = 0xff1b
	KeysymInsert    Keysym = 0xff63
	KeysymDelete    Keysym = 0xffff
	KeysymHome      Keysym = 0xff50
	KeysymEnd       Keysym = 0xff57
	KeysymPageUp    Keysym = 0xff55
	KeysymPageDown  Keysym = 0xff56
	KeysymLeft      Keysym = 0xff51
	KeysymUp        Keysym = 0xff52
	KeysymRight     Keysym = 0xff53
	KeysymDown      Keysym = 0xff54

	KeysymShiftL   Keysym = 0xffe1
	KeysymShiftR   Keysym = 0xffe2
	KeysymControlL Keysym = 0xffe3
	KeysymControlR Keysym = 0xffe4
	KeysymAltL     Keysym = 0xffe9
	KeysymAltR     Keysym = 0xffea
	KeysymSuperL   Keysym = 0xffeb
	KeysymSuperR   Keysym = 0xffec

	KeysymF1  Keysym = 0xffbe
	KeysymF2  Keysym = 0xffbf
	KeysymF3  Keysym = 0xffc0
	KeysymF4  Keysym = 0xffc1
	KeysymF5  Keysym = 0xffc2
	KeysymF6  Keysym = 0xffc3
	KeysymF7  Keysym = 0xffc4
	KeysymF8  Keysym = 0xffc5
	KeysymF9  Keysym = 0xffc6
	KeysymF10 Keysym = 0xffc7
	KeysymF11 Keysym = 0xffc8
	KeysymF12 Keysym = 0xffc9
)

// namedKeysyms maps the symbolic names callers pass to Keyboard.Press /
// Keyboard.Hold to their keysym, per spec.md §4.3.
var namedKeysyms = map[string]Keysym{
	"BackSpace": KeysymBackSpace,
	"Tab":       KeysymTab,
	"Return":    KeysymReturn,
	"Enter":     KeysymReturn,
	"Escape":    KeysymEscape,
	"Insert":    KeysymInsert,
	"Delete":    KeysymDelete,
	"Home":      KeysymHome,
	"End":       KeysymEnd,
	"PageUp":    KeysymPageUp,
	"PageDown":  KeysymPageDown,
	"Left":      KeysymLeft,
	"Up":        KeysymUp,
	"Right":     KeysymRight,
	"Down":      KeysymDown,

	"Shift":     KeysymShiftL,
	"Shift_L":   KeysymShiftL,
	"Shift_R":   KeysymShiftR,
	"Ctrl":      KeysymControlL,
	"Control":   KeysymControlL,
	"Control_L": KeysymControlL,
	"Control_R": KeysymControlR,
	"Alt":       KeysymAltL,
	"Alt_L":     KeysymAltL,
	"Alt_R":     KeysymAltR,
	"Super":     KeysymSuperL,
	"Super_L":   KeysymSuperL,
	"Super_R":   KeysymSuperR,

	"F1": KeysymF1, "F2": KeysymF2, "F3": KeysymF3, "F4": KeysymF4,
	"F5": KeysymF5, "F6": KeysymF6, "F7": KeysymF7, "F8": KeysymF8,
	"F9": KeysymF9, "F10": KeysymF10, "F11": KeysymF11, "F12": KeysymF12,
}

// keysymForName resolves a symbolic key name to its keysym, per spec.md
// §4.3. Unknown names are rejected with ProtocolError.
func keysymForName(name string) (Keysym, error) {
	if ks, ok := namedKeysyms[name]; ok {
		return ks, nil
	}
	return 0, newError(ProtocolError, "unknown key name "+name)
}

// shiftedUS maps a shifted US-layout character to its unshifted keysym, so
// write(text) knows when to bracket with Shift. Unshifted ASCII letters and
// digits map to their own keysym value identically to their rune (X11's
// printable-ASCII keysym range matches Latin-1 code points 0x20-0x7e).
var shiftedUS = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '<': ',', '>': '.', '?': '/', '~': '`',
}

// keyEventForRune decomposes one rune into the keysym to press and whether
// Shift must bracket it, per spec.md §4.3's "write(text)" decomposition.
func keyEventForRune(r rune) (ks Keysym, needsShift bool) {
	if r >= 'A' && r <= 'Z' {
		return Keysym(r - 'A' + 'a'), true
	}
	if base, ok := shiftedUS[r]; ok {
		return Keysym(base), true
	}
	if r >= 0x20 && r <= 0x7e {
		return Keysym(r), false
	}
	switch r {
	case '\n':
		return KeysymReturn, false
	case '\t':
		return KeysymTab, false
	case '\b':
		return KeysymBackSpace, false
	}
	// Outside printable ASCII and not a recognized control character: X11
	// keysyms for Unicode code points above Latin-1 use the 0x01000000 |
	// codepoint convention (per the X11 keysymdef.h comment on Unicode
	// keysyms), which every modern RFB server honours even though it is
	// not part of the 3.8 spec text.
	return Keysym(0x01000000 | uint32(r)), false
}
