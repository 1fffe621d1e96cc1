package rfb

import "sync"

// Framebuffer is the client-side mirror of the server's screen, stored as
// RGBA in memory order regardless of the wire's byte order (the decoder in
// messageloop.go performs the channel reordering before it ever reaches
// here). Its written mask records which pixels have ever been painted,
// feeding the Screen Detector (screen.go).
type Framebuffer struct {
	mu      sync.RWMutex
	width   int
	height  int
	pix     []byte // width*height*4, RGBA
	written []bool // width*height
}

func newFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:   width,
		height:  height,
		pix:     make([]byte, width*height*4),
		written: make([]bool, width*height),
	}
}

func (f *Framebuffer) dimensions() (width, height int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width, f.height
}

// blit writes an RGBA rectangle (row-major, 4 bytes per pixel) into the
// framebuffer at (x, y) and marks those pixels written. Per spec.md §5 a
// rectangle is applied atomically from the caller's perspective: blit holds
// the write lock for the whole rectangle.
func (f *Framebuffer) blit(x, y, w, h int, rgba []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for row := 0; row < h; row++ {
		dstY := y + row
		if dstY < 0 || dstY >= f.height {
			continue
		}
		srcOff := row * w * 4
		for col := 0; col < w; col++ {
			dstX := x + col
			if dstX < 0 || dstX >= f.width {
				continue
			}
			di := (dstY*f.width + dstX) * 4
			si := srcOff + col*4
			copy(f.pix[di:di+4], rgba[si:si+4])
			f.written[dstY*f.width+dstX] = true
		}
	}
}

// snapshot returns a copy of the current pixel buffer plus dimensions, so
// concurrent readers never observe a partially-applied rectangle.
func (f *Framebuffer) snapshot() (pix []byte, width, height int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	pix = make([]byte, len(f.pix))
	copy(pix, f.pix)
	return pix, f.width, f.height
}

// writtenMask returns a copy of the written mask for the Screen Detector,
// which must not observe the reader mutating it mid-scan.
func (f *Framebuffer) writtenMask() (mask []bool, width, height int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	mask = make([]bool, len(f.written))
	copy(mask, f.written)
	return mask, f.width, f.height
}
