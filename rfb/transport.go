package rfb

import (
	"context"
	"net"
)

// Dialer is the transport factory collaborator spec.md §6 describes:
// "a function (host, port) → (read_half, write_half); defaults to plain
// TCP; caller may supply an alternative (e.g., SSH-tunneled) to connect."
// In Go a single net.Conn already provides both halves, so the collaborator
// contract collapses to a Dial func returning one.
type Dialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// DialerFunc adapts a plain function to the Dialer interface.
type DialerFunc func(ctx context.Context, addr string) (net.Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return f(ctx, addr)
}

// defaultDialer opens a plain TCP connection, the default transport
// spec.md §6 specifies.
var defaultDialer Dialer = DialerFunc(func(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
})
