package rfb

import "crypto/des"

// vncAuthKey derives the DES key VNC authentication uses from a password:
// null-padded/truncated to 8 bytes, then each byte's bits reversed. This is
// ported directly from the teacher's fixDesKey/fixDesKeyByte
// (hduplooy-gorfb's gorfb.go), which documents the same non-RFC behaviour
// this client needs on the other side of the handshake: "This is not
// clearly indicated by the document, but is in actual fact used."
func vncAuthKey(password string) []byte {
	key := make([]byte, 8)
	copy(key, password) // truncates if password is longer than 8 bytes
	for i := range key {
		key[i] = reverseBits(key[i])
	}
	return key
}

func reverseBits(b byte) byte {
	var out byte
	for i := 0; i < 8; i++ {
		out <<= 1
		out |= b & 1
		b >>= 1
	}
	return out
}

// vncAuthResponse implements spec.md §4.2's VNC authentication (misnamed
// Triple-DES; it is single DES, ECB, applied to two 8-byte halves):
// encrypt each 8-byte half of the 16-byte server challenge under the
// bit-reversed password key and return the 16-byte response.
func vncAuthResponse(password string, challenge []byte) ([]byte, error) {
	if len(challenge) != 16 {
		return nil, newError(ProtocolError, "VNC auth challenge must be 16 bytes")
	}
	block, err := des.NewCipher(vncAuthKey(password))
	if err != nil {
		return nil, wrapError(CryptoError, err, "constructing DES cipher")
	}
	response := make([]byte, 16)
	block.Encrypt(response[0:8], challenge[0:8])
	block.Encrypt(response[8:16], challenge[8:16])
	return response, nil
}
