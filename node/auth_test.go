package node

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"warden.dev/warden/crypto"
	"warden.dev/warden/engine"
)

func genKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return pub, priv
}

func TestOpDigestBindsNameAndParams(t *testing.T) {
	var p crypto.StdProvider
	d1 := OpDigest(p, "withdraw", []byte(`{"amount":1}`))
	d2 := OpDigest(p, "withdraw", []byte(`{"amount":2}`))
	d3 := OpDigest(p, "deposit", []byte(`{"amount":1}`))
	if d1 == d2 || d1 == d3 {
		t.Fatalf("digest does not separate name/params")
	}
	if d1 != OpDigest(p, "withdraw", []byte(`{"amount":1}`)) {
		t.Fatalf("digest not deterministic")
	}
}

func TestBuildAuthContextSigned(t *testing.T) {
	var prov crypto.StdProvider
	pub, priv := genKey(t)
	digest := OpDigest(prov, "withdraw", []byte(`{}`))
	sig := ed25519.Sign(priv, digest[:])

	auth, err := BuildAuthContext(prov, digest, []OpSignature{{Pubkey: pub, Signature: sig}}, nil)
	if err != nil {
		t.Fatalf("BuildAuthContext: %v", err)
	}
	id := engine.Address(prov.SHA3_256(pub))
	// The signed identity satisfies an authority binding for itself.
	if err := engine.CheckAuthority(id, auth); err != nil {
		t.Fatalf("signed identity rejected: %v", err)
	}
}

func TestBuildAuthContextRejectsBadSignature(t *testing.T) {
	var prov crypto.StdProvider
	pub, priv := genKey(t)
	digest := OpDigest(prov, "withdraw", []byte(`{}`))
	other := OpDigest(prov, "withdraw", []byte(`{"amount":9}`))
	sig := ed25519.Sign(priv, other[:]) // signature over the wrong digest

	if _, err := BuildAuthContext(prov, digest, []OpSignature{{Pubkey: pub, Signature: sig}}, nil); err == nil {
		t.Fatalf("bad signature accepted")
	}
}

func TestBuildAuthContextReadonlyIsUnsigned(t *testing.T) {
	var prov crypto.StdProvider
	pub, _ := genKey(t)
	id := engine.Address(prov.SHA3_256(pub))
	digest := OpDigest(prov, "withdraw", []byte(`{}`))

	auth, err := BuildAuthContext(prov, digest, nil, []engine.Address{id})
	if err != nil {
		t.Fatalf("BuildAuthContext: %v", err)
	}
	err = engine.CheckAuthority(id, auth)
	if engine.CodeOf(err) != engine.ACC_ERR_SIGNATURE_MISSING {
		t.Fatalf("readonly identity treated as signed: %v", err)
	}
}
