package rfb

import "github.com/pkg/errors"

// Kind classifies why a session or handshake failed, per the RFB client's
// error taxonomy. Nothing in this package retries automatically; that is
// the caller's responsibility.
type Kind int

const (
	// TransportClosed means a read or write hit EOF or a reset.
	TransportClosed Kind = iota
	// HandshakeRejected means the server refused at security negotiation,
	// with a reason string.
	HandshakeRejected
	// AuthUnsupported means none of the server's offered security types
	// matched the credentials supplied to Dial.
	AuthUnsupported
	// AuthFailed means the server rejected credentials after the
	// authentication exchange completed.
	AuthFailed
	// ProtocolError means a malformed message, an unknown encoding, or
	// inconsistent lengths.
	ProtocolError
	// CryptoError means a Diffie-Hellman public key was out of range, or
	// a decrypt/encrypt step failed.
	CryptoError
)

func (k Kind) String() string {
	switch k {
	case TransportClosed:
		return "transport closed"
	case HandshakeRejected:
		return "handshake rejected"
	case AuthUnsupported:
		return "auth unsupported"
	case AuthFailed:
		return "auth failed"
	case ProtocolError:
		return "protocol error"
	case CryptoError:
		return "crypto error"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by every exported operation in this
// package. It wraps an underlying cause (when there is one, e.g. an I/O
// error) so callers can still reach it with errors.Unwrap, errors.Is or
// errors.As.
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func wrapError(kind Kind, cause error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, cause: errors.Wrap(cause, reason)}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Reason
}

// Unwrap lets errors.Is / errors.As reach the underlying transport or
// decoding error, if any.
func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return nil
}
