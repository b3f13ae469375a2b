package crypto

// Provider is the narrow crypto interface used by the node boundary:
// identity hashing and operation-signature verification. Implementations may
// swap the hash backend; signatures are ed25519 throughout.
type Provider interface {
	SHA3_256(input []byte) [32]byte
	VerifyEd25519(pubkey []byte, sig []byte, digest32 [32]byte) bool
}
