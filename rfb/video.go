package rfb

// Video exposes the decoded framebuffer and the refresh/screen-detection
// operations from spec.md §6.
type Video struct {
	session *Session
}

func newVideo(s *Session) *Video {
	return &Video{session: s}
}

// Refresh issues a FramebufferUpdateRequest covering the whole framebuffer,
// per spec.md §4.7: u8=3, u8 incremental, u16 x, u16 y, u16 w, u16 h.
func (v *Video) Refresh(incremental bool) error {
	w, h := v.session.fb.dimensions()
	return v.session.writeLocked(func() error {
		wr := v.session.w
		if err := wr.writeUint8(cmdFramebufferUpdateRequest); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest header")
		}
		inc := uint8(0)
		if incremental {
			inc = 1
		}
		if err := wr.writeUint8(inc); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest incremental flag")
		}
		if err := wr.writeUint16(0); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest x")
		}
		if err := wr.writeUint16(0); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest y")
		}
		if err := wr.writeUint16(uint16(w)); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest width")
		}
		if err := wr.writeUint16(uint16(h)); err != nil {
			return wrapError(TransportClosed, err, "writing FramebufferUpdateRequest height")
		}
		return wr.flush()
	})
}

// AsRGBA returns a snapshot of the decoded framebuffer as H×W×4 RGBA bytes
// plus its dimensions, per spec.md §9's "numpy array export → byte buffer
// plus shape" translation: any Go image library can wrap this directly,
// e.g. with an image.RGBA sharing the same memory layout.
func (v *Video) AsRGBA() (pix []byte, width, height int) {
	return v.session.fb.snapshot()
}

// DetectScreens partitions the framebuffer's written mask into rectangular
// screens, per spec.md §4.8.
func (v *Video) DetectScreens() []Screen {
	mask, width, height := v.session.fb.writtenMask()
	return detectScreens(mask, width, height)
}
