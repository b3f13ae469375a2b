package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed secret-key storage for the dev keystore: the seal key is derived
// from a passphrase with argon2id and the secret is boxed with
// ChaCha20-Poly1305. Production deployments should hold keys in an external
// signer instead.

const (
	sealSaltLen = 16

	sealTime      = 3
	sealMemoryKiB = 64 * 1024
	sealThreads   = 4
)

func sealKeyFromPassphrase(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, sealTime, sealMemoryKiB, sealThreads, chacha20poly1305.KeySize)
}

// SealKey encrypts secret under a passphrase. Returns the KDF salt, the AEAD
// nonce and the sealed box; all three are needed to open it again.
func SealKey(passphrase, secret []byte) (salt, nonce, box []byte, err error) {
	if len(passphrase) == 0 {
		return nil, nil, nil, errors.New("keyseal: empty passphrase")
	}
	if len(secret) == 0 {
		return nil, nil, nil, errors.New("keyseal: empty secret")
	}

	salt = make([]byte, sealSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, nil, err
	}
	aead, err := chacha20poly1305.New(sealKeyFromPassphrase(passphrase, salt))
	if err != nil {
		return nil, nil, nil, err
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, err
	}
	box = aead.Seal(nil, nonce, secret, nil)
	return salt, nonce, box, nil
}

// OpenKey decrypts a box produced by SealKey. A wrong passphrase fails the
// AEAD tag check.
func OpenKey(passphrase, salt, nonce, box []byte) ([]byte, error) {
	if len(salt) != sealSaltLen {
		return nil, errors.New("keyseal: bad salt length")
	}
	aead, err := chacha20poly1305.New(sealKeyFromPassphrase(passphrase, salt))
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, errors.New("keyseal: bad nonce length")
	}
	secret, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, errors.New("keyseal: open failed (wrong passphrase or corrupt keystore)")
	}
	return secret, nil
}
