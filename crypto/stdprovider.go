package crypto

import (
	"crypto/ed25519"

	"golang.org/x/crypto/sha3"
)

// StdProvider hashes with x/crypto sha3 and verifies ed25519 with the
// standard library. It is the default backend for node deployments.
type StdProvider struct{}

func (p StdProvider) SHA3_256(input []byte) [32]byte {
	h := sha3.New256()
	_, _ = h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (p StdProvider) VerifyEd25519(pubkey []byte, sig []byte, digest32 [32]byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), digest32[:], sig)
}

// IdentityFromPubkey maps an ed25519 public key to its 32-byte identity.
func (p StdProvider) IdentityFromPubkey(pubkey []byte) [32]byte {
	return p.SHA3_256(pubkey)
}
