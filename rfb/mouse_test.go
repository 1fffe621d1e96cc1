package rfb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointerEvent struct {
	mask uint8
	x, y uint16
}

func readPointerEvents(t *testing.T, conn interface{ Read([]byte) (int, error) }, n int) []pointerEvent {
	t.Helper()
	events := make([]pointerEvent, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, 6)
		_, err := readFullHelper(conn, buf)
		require.NoError(t, err)
		require.Equal(t, uint8(cmdPointerEvent), buf[0])
		events[i] = pointerEvent{
			mask: buf[1],
			x:    uint16(buf[2])<<8 | uint16(buf[3]),
			y:    uint16(buf[4])<<8 | uint16(buf[5]),
		}
	}
	return events
}

func TestMouseMove(t *testing.T) {
	s, serverConn := newTestSession(t, 100, 100)

	done := make(chan []pointerEvent, 1)
	go func() { done <- readPointerEvents(t, serverConn, 1) }()

	require.NoError(t, s.Mouse.Move(10, 20))
	events := <-done
	assert.Equal(t, []pointerEvent{{mask: 0, x: 10, y: 20}}, events)
}

// TestMouseHoldSymmetry verifies a held button mask is fully cleared by the
// release closure: press sets the bit, release clears it back to zero, with
// no other bits disturbed.
func TestMouseHoldSymmetry(t *testing.T) {
	s, serverConn := newTestSession(t, 100, 100)

	done := make(chan []pointerEvent, 1)
	go func() { done <- readPointerEvents(t, serverConn, 2) }()

	release, err := s.Mouse.Hold(ButtonLeft)
	require.NoError(t, err)
	release()

	events := <-done
	assert.Equal(t, ButtonLeft, events[0].mask)
	assert.Equal(t, uint8(0), events[1].mask)
}

func TestMouseClickIsPressThenRelease(t *testing.T) {
	s, serverConn := newTestSession(t, 100, 100)

	done := make(chan []pointerEvent, 1)
	go func() { done <- readPointerEvents(t, serverConn, 2) }()

	require.NoError(t, s.Mouse.RightClick())
	events := <-done
	assert.Equal(t, ButtonRight, events[0].mask)
	assert.Equal(t, uint8(0), events[1].mask)
}

func TestMouseHoldCombinesButtons(t *testing.T) {
	s, serverConn := newTestSession(t, 100, 100)

	done := make(chan []pointerEvent, 1)
	go func() { done <- readPointerEvents(t, serverConn, 1) }()

	release, err := s.Mouse.Hold(ButtonLeft, ButtonRight)
	require.NoError(t, err)
	events := <-done
	assert.Equal(t, ButtonLeft|ButtonRight, events[0].mask)

	done2 := make(chan []pointerEvent, 1)
	go func() { done2 <- readPointerEvents(t, serverConn, 1) }()
	release()
	events2 := <-done2
	assert.Equal(t, uint8(0), events2[0].mask)
}
