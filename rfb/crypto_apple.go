package rfb

import (
	"crypto/aes"
	"crypto/md5"
	"crypto/rand"
	"math/big"
)

// appleAuthKeyLen is the observed size (256 bytes / 2048 bits) of the DH
// prime modulus and public keys exchanged by security type 30 (Apple
// Remote Desktop). spec.md §4.2/§9 note the exact byte layout is not part
// of any public spec and must match observed wire behaviour.
const appleAuthKeyLen = 256

// appleDHParams holds the server-supplied DH prime and server public key,
// read by the handshake engine before computing the shared secret.
type appleDHParams struct {
	generator int64 // always 2 on the observed wire behaviour
	prime     *big.Int
	serverPub *big.Int
}

// appleGenerateKeyPair produces this client's DH private exponent and the
// corresponding public key (g^priv mod p), using a cryptographically
// random 256-byte private exponent per spec.md §4.2.
func appleGenerateKeyPair(params appleDHParams) (priv *big.Int, pub *big.Int, err error) {
	privBytes := make([]byte, appleAuthKeyLen)
	if _, err := rand.Read(privBytes); err != nil {
		return nil, nil, wrapError(CryptoError, err, "generating DH private exponent")
	}
	priv = new(big.Int).SetBytes(privBytes)
	g := big.NewInt(params.generator)
	pub = new(big.Int).Exp(g, priv, params.prime)
	return priv, pub, nil
}

// appleSharedSecret computes the Diffie-Hellman shared secret
// server_pub^priv mod p, validating the server's public key is in range
// (1, p-1) to guard against small-subgroup/degenerate keys.
func appleSharedSecret(params appleDHParams, priv *big.Int) (*big.Int, error) {
	one := big.NewInt(1)
	pMinusOne := new(big.Int).Sub(params.prime, one)
	if params.serverPub.Cmp(one) <= 0 || params.serverPub.Cmp(pMinusOne) >= 0 {
		return nil, newError(CryptoError, "server DH public key out of range")
	}
	return new(big.Int).Exp(params.serverPub, priv, params.prime), nil
}

// appleAESKey derives the AES-128 key from the DH shared secret: MD5 of the
// secret's big-endian bytes, per spec.md §4.2.
func appleAESKey(shared *big.Int) []byte {
	sum := md5.Sum(bigIntToARD(shared, appleAuthKeyLen))
	return sum[:]
}

// appleCredentialsBlock assembles the 128-byte plaintext credentials block:
// 64 bytes null-padded username concatenated with 64 bytes null-padded
// password, per spec.md §4.2.
func appleCredentialsBlock(username, password string) ([]byte, error) {
	if len(username) > 64 || len(password) > 64 {
		return nil, newError(ProtocolError, "Apple auth username/password must be at most 64 bytes")
	}
	block := make([]byte, 128)
	copy(block[0:64], username)
	copy(block[64:128], password)
	return block, nil
}

// appleEncryptCredentials AES-128-ECB-encrypts the 128-byte credentials
// block under key. crypto/cipher deliberately omits an ECB mode (it is
// unsafe for general use), so legacy ECB-only protocols like this one
// encrypt each 16-byte block directly with the block cipher, which is what
// this does.
func appleEncryptCredentials(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(CryptoError, err, "constructing AES cipher")
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, newError(CryptoError, "Apple auth credentials block is not block-aligned")
	}
	ciphertext := make([]byte, len(plaintext))
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		block.Encrypt(ciphertext[off:off+aes.BlockSize], plaintext[off:off+aes.BlockSize])
	}
	return ciphertext, nil
}

// bigIntToARD serializes a big.Int into RFB's fixed-width, zero-padded,
// big-endian "ard" big-integer form. spec.md §2 calls this out as "RSA
// public-key serialization (modulus/exponent in RFB 'ard' form)"; this
// client never negotiates an RSA-based security type, so the one
// big-integer-on-the-wire case it actually exercises is the Apple DH
// public key, serialized the same way.
func bigIntToARD(v *big.Int, size int) []byte {
	out := make([]byte, size)
	b := v.Bytes()
	if len(b) > size {
		b = b[len(b)-size:]
	}
	copy(out[size-len(b):], b)
	return out
}

func ardToBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
