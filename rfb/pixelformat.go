package rfb

import (
	"bytes"

	"github.com/lunixbochs/struc"
)

// PixelFormat mirrors the 16-byte PixelFormat record from RFB 3.8 §7.4,
// unchanged in shape from the teacher's PixelFormat (hduplooy-gorfb's
// gorfb.go) but tagged for struc so it can be marshaled/unmarshaled as a
// single fixed-width record wherever it appears on the wire (ServerInit,
// SetPixelFormat).
type PixelFormat struct {
	BitsPerPixel uint8   `struc:"uint8"`
	Depth        uint8   `struc:"uint8"`
	BigEndian    uint8   `struc:"uint8"` // 1 = big-endian on the wire
	TrueColor    uint8   `struc:"uint8"` // 1 = true-color; the client always requests this
	RedMax       uint16  `struc:"big"`
	GreenMax     uint16  `struc:"big"`
	BlueMax      uint16  `struc:"big"`
	RedShift     uint8   `struc:"uint8"`
	GreenShift   uint8   `struc:"uint8"`
	BlueShift    uint8   `struc:"uint8"`
	Padding      [3]byte `struc:"[3]byte"`
}

// clientPixelFormat is the fixed 32-bit true-color format this client
// always requests from the server, per spec.md §3: R shift 0, G shift 8,
// B shift 16, little-endian on the wire.
func clientPixelFormat() PixelFormat {
	return PixelFormat{
		BitsPerPixel: 32,
		Depth:        24,
		BigEndian:    0,
		TrueColor:    1,
		RedMax:       255,
		GreenMax:     255,
		BlueMax:      255,
		RedShift:     0,
		GreenShift:   8,
		BlueShift:    16,
	}
}

func marshalPixelFormat(pf PixelFormat) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.Pack(&buf, &pf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalPixelFormat(data []byte) (PixelFormat, error) {
	var pf PixelFormat
	if err := struc.Unpack(bytes.NewReader(data), &pf); err != nil {
		return PixelFormat{}, err
	}
	return pf, nil
}

// decodePixel reads one pixel of bpp/8 bytes from src according to pf's
// byte order, and returns 8-bit R, G, B extracted via pf's shifts/masks.
// RFB 3.8 has no SetPixelFormat confirmation, so the handshake simply
// assumes the client's requested canonical format takes effect once sent
// (see handshake.go's serverInit); this general shift/mask path only runs
// against a non-canonical PixelFormat if that assumption is ever relaxed.
func decodePixel(pf PixelFormat, src []byte) (r, g, b uint8) {
	bpp := int(pf.BitsPerPixel) / 8
	var raw uint32
	if pf.BigEndian != 0 {
		for i := 0; i < bpp; i++ {
			raw = raw<<8 | uint32(src[i])
		}
	} else {
		for i := bpp - 1; i >= 0; i-- {
			raw = raw<<8 | uint32(src[i])
		}
	}
	r = scaleChannel((raw>>pf.RedShift)&uint32(pf.RedMax), pf.RedMax)
	g = scaleChannel((raw>>pf.GreenShift)&uint32(pf.GreenMax), pf.GreenMax)
	b = scaleChannel((raw>>pf.BlueShift)&uint32(pf.BlueMax), pf.BlueMax)
	return
}

// scaleChannel rescales a channel value from [0, max] to [0, 255].
func scaleChannel(v uint32, max uint16) uint8 {
	if max == 0 {
		return 0
	}
	if max == 255 {
		return uint8(v)
	}
	return uint8((v * 255) / uint32(max))
}

// isClientCanonical reports whether pf is exactly the format the client
// always requests, letting the Raw decoder take the straight-copy fast
// path described in spec.md §4.5.
func isClientCanonical(pf PixelFormat) bool {
	c := clientPixelFormat()
	return pf.BitsPerPixel == c.BitsPerPixel && pf.TrueColor == c.TrueColor &&
		pf.BigEndian == c.BigEndian && pf.RedMax == c.RedMax &&
		pf.GreenMax == c.GreenMax && pf.BlueMax == c.BlueMax &&
		pf.RedShift == c.RedShift && pf.GreenShift == c.GreenShift &&
		pf.BlueShift == c.BlueShift
}
