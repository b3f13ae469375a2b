package node

import (
	"fmt"

	"warden.dev/warden/crypto"
	"warden.dev/warden/engine"
)

const opDigestTag = "warden/op/v1"

// OpSignature is one signer attached to an operation request: a raw ed25519
// public key and a signature over the operation digest.
type OpSignature struct {
	Pubkey    []byte
	Signature []byte
}

// OpDigest binds an operation name to its exact parameter bytes. Signers
// sign this digest; any change to the name or parameters invalidates every
// attached signature.
func OpDigest(p crypto.Provider, op string, params []byte) [32]byte {
	pre := make([]byte, 0, len(opDigestTag)+1+len(op)+len(params))
	pre = append(pre, opDigestTag...)
	pre = append(pre, byte(len(op)))
	pre = append(pre, op...)
	pre = append(pre, params...)
	return p.SHA3_256(pre)
}

// BuildAuthContext verifies every attached signature over digest and builds
// the engine's authorization context. A signature that fails verification
// rejects the whole request: it is malformed input, not an unsigned
// reference. Identities in readonly are recorded as present-but-unsigned.
func BuildAuthContext(p crypto.Provider, digest [32]byte, sigs []OpSignature, readonly []engine.Address) (*engine.AuthContext, error) {
	auth := engine.NewAuthContext()
	for i, s := range sigs {
		if !p.VerifyEd25519(s.Pubkey, s.Signature, digest) {
			return nil, fmt.Errorf("signature %d invalid", i)
		}
		auth.AddSigned(engine.Address(p.SHA3_256(s.Pubkey)))
	}
	for _, id := range readonly {
		auth.AddUnsigned(id)
	}
	return auth, nil
}
