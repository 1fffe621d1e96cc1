package rfb

import (
	"fmt"
	"strings"
)

const (
	secTypeInvalid = 0
	secTypeNone    = 1
	secTypeVNC     = 2
	secTypeApple   = 30

	securityResultOK     = 0
	securityResultFailed = 1

	protocolVersion = "RFB 003.008\n"
)

// handshake drives the RFB protocol-version exchange, security
// negotiation, authentication, and Client/ServerInit, per spec.md §4.4.
// It is run once, synchronously, before the message loop starts; any
// failure here surfaces straight to Dial/Connect (spec.md §7's
// "handshake surfaces errors synchronously" policy).
func (s *Session) handshake(username, password string) error {
	if err := s.negotiateVersion(); err != nil {
		return err
	}
	secType, err := s.negotiateSecurity(username, password)
	if err != nil {
		return err
	}
	if err := s.authenticate(secType, username, password); err != nil {
		return err
	}
	if err := s.clientInit(); err != nil {
		return err
	}
	if err := s.serverInit(); err != nil {
		return err
	}
	return nil
}

// negotiateVersion implements spec.md §4.4 step 1: read the server's
// 12-byte "RFB xxx.yyy\n" banner and reply with our own 3.8 banner.
func (s *Session) negotiateVersion() error {
	buf, err := s.r.readFull(12)
	if err != nil {
		return wrapError(TransportClosed, err, "reading server protocol version")
	}
	s.log.WithField("server_version", strings.TrimSpace(string(buf))).Debug("negotiated protocol version")

	if err := s.w.writeBytes([]byte(protocolVersion)); err != nil {
		return wrapError(TransportClosed, err, "writing client protocol version")
	}
	return s.w.flush()
}

// negotiateSecurity implements spec.md §4.4 step 2.
func (s *Session) negotiateSecurity(username, password string) (uint8, error) {
	count, err := s.r.readUint8()
	if err != nil {
		return 0, wrapError(TransportClosed, err, "reading security type count")
	}
	if count == 0 {
		reason, err := s.r.readLengthPrefixedString()
		if err != nil {
			return 0, wrapError(TransportClosed, err, "reading handshake rejection reason")
		}
		return 0, newError(HandshakeRejected, reason)
	}

	offered := make([]uint8, count)
	for i := range offered {
		t, err := s.r.readUint8()
		if err != nil {
			return 0, wrapError(TransportClosed, err, "reading security type")
		}
		offered[i] = t
	}

	chosen, err := chooseSecurityType(offered, username, password)
	if err != nil {
		return 0, err
	}

	if err := s.w.writeUint8(chosen); err != nil {
		return 0, wrapError(TransportClosed, err, "writing chosen security type")
	}
	if err := s.w.flush(); err != nil {
		return 0, wrapError(TransportClosed, err, "flushing chosen security type")
	}
	return chosen, nil
}

// chooseSecurityType implements spec.md §4.4's selection priority: a
// username requires Apple auth (30); otherwise a password prefers VNC auth
// (2); otherwise None (1) is preferred.
func chooseSecurityType(offered []uint8, username, password string) (uint8, error) {
	has := func(t uint8) bool {
		for _, o := range offered {
			if o == t {
				return true
			}
		}
		return false
	}

	if username != "" {
		if has(secTypeApple) {
			return secTypeApple, nil
		}
		return 0, newError(AuthUnsupported, "server does not offer Apple (30) security for username/password auth")
	}
	if password != "" {
		if has(secTypeVNC) {
			return secTypeVNC, nil
		}
		return 0, newError(AuthUnsupported, "server does not offer VNC (2) security for password auth")
	}
	if has(secTypeNone) {
		return secTypeNone, nil
	}
	return 0, newError(AuthUnsupported, fmt.Sprintf("server offered no acceptable security type (got %v)", offered))
}

// authenticate implements spec.md §4.2's two schemes plus the no-op None
// scheme, then reads the SecurityResult for schemes that send one.
func (s *Session) authenticate(secType uint8, username, password string) error {
	switch secType {
	case secTypeNone:
		return nil
	case secTypeVNC:
		if err := s.authenticateVNC(password); err != nil {
			return err
		}
		return s.readSecurityResult()
	case secTypeApple:
		// Apple auth has no SecurityResult message; failure manifests as
		// a transport close on the next read, per spec.md §4.2.
		return s.authenticateApple(username, password)
	default:
		return newError(AuthUnsupported, fmt.Sprintf("unsupported security type %d", secType))
	}
}

func (s *Session) authenticateVNC(password string) error {
	challenge, err := s.r.readFull(16)
	if err != nil {
		return wrapError(TransportClosed, err, "reading VNC auth challenge")
	}
	response, err := vncAuthResponse(password, challenge)
	if err != nil {
		return err
	}
	if err := s.w.writeBytes(response); err != nil {
		return wrapError(TransportClosed, err, "writing VNC auth response")
	}
	return s.w.flush()
}

// readSecurityResult implements spec.md §4.4 step 3's SecurityResult read,
// including the RFB 3.8 optional reason string on failure.
func (s *Session) readSecurityResult() error {
	status, err := s.r.readUint32()
	if err != nil {
		return wrapError(TransportClosed, err, "reading security result")
	}
	if status == securityResultOK {
		return nil
	}
	reason, err := s.r.readLengthPrefixedString()
	if err != nil {
		// Some servers omit the reason string on older protocol versions;
		// treat a read failure here as a generic auth failure rather than
		// masking it as TransportClosed.
		return newError(AuthFailed, "")
	}
	return newError(AuthFailed, reason)
}

// authenticateApple implements spec.md §4.2's Diffie-Hellman + AES-128-ECB
// scheme (security type 30).
func (s *Session) authenticateApple(username, password string) error {
	if _, err := s.r.readFull(2); err != nil { // 2 unknown bytes
		return wrapError(TransportClosed, err, "reading Apple auth header")
	}
	keyLen, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading Apple auth key length")
	}
	primeBytes, err := s.r.readFull(int(keyLen))
	if err != nil {
		return wrapError(TransportClosed, err, "reading Apple auth DH prime")
	}
	serverPubBytes, err := s.r.readFull(int(keyLen))
	if err != nil {
		return wrapError(TransportClosed, err, "reading Apple auth server public key")
	}

	params := appleDHParams{
		generator: 2,
		prime:     ardToBigInt(primeBytes),
		serverPub: ardToBigInt(serverPubBytes),
	}

	priv, pub, err := appleGenerateKeyPair(params)
	if err != nil {
		return err
	}
	shared, err := appleSharedSecret(params, priv)
	if err != nil {
		return err
	}
	aesKey := appleAESKey(shared)

	creds, err := appleCredentialsBlock(username, password)
	if err != nil {
		return err
	}
	ciphertext, err := appleEncryptCredentials(aesKey, creds)
	if err != nil {
		return err
	}

	if err := s.w.writeBytes(ciphertext); err != nil {
		return wrapError(TransportClosed, err, "writing Apple auth credentials")
	}
	if err := s.w.writeBytes(bigIntToARD(pub, int(keyLen))); err != nil {
		return wrapError(TransportClosed, err, "writing Apple auth client public key")
	}
	return s.w.flush()
}

// clientInit implements spec.md §4.4 step 4: write the shared-flag byte.
func (s *Session) clientInit() error {
	if err := s.w.writeUint8(1); err != nil {
		return wrapError(TransportClosed, err, "writing ClientInit")
	}
	return s.w.flush()
}

// serverInit implements spec.md §4.4 step 5: read dimensions, pixel
// format, and desktop name, then force the client's canonical pixel format
// and advertise only the two supported encodings.
func (s *Session) serverInit() error {
	width, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerInit width")
	}
	height, err := s.r.readUint16()
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerInit height")
	}
	pfBytes, err := s.r.readFull(16)
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerInit pixel format")
	}
	pf, err := unmarshalPixelFormat(pfBytes)
	if err != nil {
		return wrapError(ProtocolError, err, "decoding ServerInit pixel format")
	}
	name, err := s.r.readLengthPrefixedString()
	if err != nil {
		return wrapError(TransportClosed, err, "reading ServerInit desktop name")
	}

	s.log.WithFields(map[string]interface{}{
		"width": width, "height": height, "desktop_name": name,
	}).Debug("ServerInit received")

	s.fb = newFramebuffer(int(width), int(height))
	s.format = pf // replaced by sendSetPixelFormat below, which assumes the server honours it

	if err := s.sendSetPixelFormat(clientPixelFormat()); err != nil {
		return err
	}
	return s.sendSetEncodings([]int32{encodingZlib, encodingRaw})
}

func (s *Session) sendSetPixelFormat(pf PixelFormat) error {
	if err := s.w.writeUint8(cmdSetPixelFormat); err != nil {
		return wrapError(TransportClosed, err, "writing SetPixelFormat header")
	}
	if err := s.w.writePadding(3); err != nil {
		return wrapError(TransportClosed, err, "writing SetPixelFormat padding")
	}
	encoded, err := marshalPixelFormat(pf)
	if err != nil {
		return wrapError(ProtocolError, err, "encoding SetPixelFormat")
	}
	if err := s.w.writeBytes(encoded); err != nil {
		return wrapError(TransportClosed, err, "writing SetPixelFormat body")
	}
	s.format = pf
	return s.w.flush()
}

func (s *Session) sendSetEncodings(encodings []int32) error {
	if err := s.w.writeUint8(cmdSetEncodings); err != nil {
		return wrapError(TransportClosed, err, "writing SetEncodings header")
	}
	if err := s.w.writePadding(1); err != nil {
		return wrapError(TransportClosed, err, "writing SetEncodings padding")
	}
	if err := s.w.writeUint16(uint16(len(encodings))); err != nil {
		return wrapError(TransportClosed, err, "writing SetEncodings count")
	}
	for _, e := range encodings {
		if err := s.w.writeInt32(e); err != nil {
			return wrapError(TransportClosed, err, "writing SetEncodings entry")
		}
	}
	return s.w.flush()
}
