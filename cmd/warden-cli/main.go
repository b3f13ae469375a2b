package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"warden.dev/warden/crypto"
	"warden.dev/warden/engine"
	"warden.dev/warden/node"
)

// Dev keystore: one ed25519 keypair per file, secret key sealed under a
// passphrase. The identity an operator puts into records and configs is
// SHA3-256 of the public key, never the key itself.

const keystoreVersion = "WKSv1"

type keystoreV1 struct {
	Version     string `json:"version"`
	PubkeyHex   string `json:"pubkey_hex"`
	IdentityHex string `json:"identity_hex"`
	SaltHex     string `json:"salt_hex"`
	NonceHex    string `json:"nonce_hex"`
	SealedSKHex string `json:"sealed_sk_hex"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = cmdKeygen(os.Args[2:])
	case "inspect":
		err = cmdInspect(os.Args[2:])
	case "derive":
		err = cmdDerive(os.Args[2:])
	case "sign":
		err = cmdSign(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warden-cli %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	_, _ = fmt.Fprintln(os.Stderr, "usage: warden-cli <keygen|inspect|derive|sign> [flags]")
}

func passphraseFromEnvOrFlag(flagVal string) ([]byte, error) {
	if flagVal != "" {
		return []byte(flagVal), nil
	}
	if env := os.Getenv("WARDEN_PASSPHRASE"); env != "" {
		return []byte(env), nil
	}
	return nil, fmt.Errorf("passphrase required: set -passphrase or WARDEN_PASSPHRASE")
}

func cmdKeygen(argv []string) error {
	fs := flag.NewFlagSet("warden-cli keygen", flag.ExitOnError)
	out := fs.String("out", "", "output keystore json path")
	pass := fs.String("passphrase", "", "sealing passphrase (or WARDEN_PASSPHRASE)")
	_ = fs.Parse(argv)
	if *out == "" {
		return fmt.Errorf("missing required flag: -out")
	}
	passphrase, err := passphraseFromEnvOrFlag(*pass)
	if err != nil {
		return err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	salt, nonce, box, err := crypto.SealKey(passphrase, priv.Seed())
	if err != nil {
		return err
	}
	id := crypto.StdProvider{}.IdentityFromPubkey(pub)

	ks := keystoreV1{
		Version:     keystoreVersion,
		PubkeyHex:   hex.EncodeToString(pub),
		IdentityHex: hex.EncodeToString(id[:]),
		SaltHex:     hex.EncodeToString(salt),
		NonceHex:    hex.EncodeToString(nonce),
		SealedSKHex: hex.EncodeToString(box),
	}
	b, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.WriteFile(*out, b, 0o600); err != nil {
		return err
	}
	fmt.Printf("pubkey:   %s\n", ks.PubkeyHex)
	fmt.Printf("identity: %s\n", ks.IdentityHex)
	return nil
}

func readKeystore(path string) (*keystoreV1, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided
	if err != nil {
		return nil, err
	}
	var ks keystoreV1
	if err := json.Unmarshal(raw, &ks); err != nil {
		return nil, err
	}
	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %q", ks.Version)
	}
	return &ks, nil
}

func keystoreIdentity(ks *keystoreV1) (engine.Address, error) {
	pub, err := hex.DecodeString(ks.PubkeyHex)
	if err != nil {
		return engine.Address{}, fmt.Errorf("pubkey_hex: %w", err)
	}
	id := engine.Address(crypto.StdProvider{}.IdentityFromPubkey(pub))
	if ks.IdentityHex != "" && !strings.EqualFold(ks.IdentityHex, id.Hex()) {
		return engine.Address{}, fmt.Errorf("identity mismatch: embedded=%s computed=%s", ks.IdentityHex, id.Hex())
	}
	return id, nil
}

func cmdInspect(argv []string) error {
	fs := flag.NewFlagSet("warden-cli inspect", flag.ExitOnError)
	in := fs.String("in", "", "keystore json path")
	_ = fs.Parse(argv)
	if *in == "" {
		return fmt.Errorf("missing required flag: -in")
	}
	ks, err := readKeystore(*in)
	if err != nil {
		return err
	}
	id, err := keystoreIdentity(ks)
	if err != nil {
		return err
	}
	fmt.Printf("pubkey:   %s\n", ks.PubkeyHex)
	fmt.Printf("identity: %s\n", id.Hex())
	return nil
}

func cmdDerive(argv []string) error {
	fs := flag.NewFlagSet("warden-cli derive", flag.ExitOnError)
	controllerHex := fs.String("controller", "", "controller identity hex")
	authorityHex := fs.String("authority", "", "authority identity hex")
	kind := fs.String("kind", "user", "record kind: user|vault")
	_ = fs.Parse(argv)
	if *controllerHex == "" || *authorityHex == "" {
		return fmt.Errorf("missing required flags: -controller -authority")
	}
	controller, err := engine.AddressFromHex(*controllerHex)
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	authority, err := engine.AddressFromHex(*authorityHex)
	if err != nil {
		return fmt.Errorf("authority: %w", err)
	}

	var seeds [][]byte
	switch *kind {
	case "user":
		seeds = engine.UserSeeds(authority)
	case "vault":
		seeds = engine.VaultSeeds(authority)
	default:
		return fmt.Errorf("unknown kind %q", *kind)
	}
	addr, bump, err := engine.Derive(seeds, controller)
	if err != nil {
		return err
	}
	fmt.Printf("address: %s\n", addr.Hex())
	fmt.Printf("bump:    %d\n", bump)
	return nil
}

func cmdSign(argv []string) error {
	fs := flag.NewFlagSet("warden-cli sign", flag.ExitOnError)
	in := fs.String("in", "", "keystore json path")
	pass := fs.String("passphrase", "", "sealing passphrase (or WARDEN_PASSPHRASE)")
	op := fs.String("op", "", "operation name")
	paramsFile := fs.String("params", "", "params json path (\"-\" for stdin)")
	_ = fs.Parse(argv)
	if *in == "" || *op == "" || *paramsFile == "" {
		return fmt.Errorf("missing required flags: -in -op -params")
	}
	passphrase, err := passphraseFromEnvOrFlag(*pass)
	if err != nil {
		return err
	}

	ks, err := readKeystore(*in)
	if err != nil {
		return err
	}
	salt, err1 := hex.DecodeString(ks.SaltHex)
	nonce, err2 := hex.DecodeString(ks.NonceHex)
	box, err3 := hex.DecodeString(ks.SealedSKHex)
	if err1 != nil || err2 != nil || err3 != nil {
		return fmt.Errorf("malformed keystore hex fields")
	}
	seed, err := crypto.OpenKey(passphrase, salt, nonce, box)
	if err != nil {
		return err
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("sealed key has wrong length %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)

	var params []byte
	if *paramsFile == "-" {
		params, err = io.ReadAll(os.Stdin)
	} else {
		params, err = os.ReadFile(*paramsFile) // #nosec G304 -- operator-provided
	}
	if err != nil {
		return err
	}
	params = []byte(strings.TrimSpace(string(params)))
	if !json.Valid(params) {
		return fmt.Errorf("params are not valid JSON")
	}

	digest := node.OpDigest(crypto.StdProvider{}, *op, params)
	sig := ed25519.Sign(priv, digest[:])

	out := struct {
		Pubkey    string `json:"pubkey"`
		Signature string `json:"signature"`
	}{
		Pubkey:    hex.EncodeToString(priv.Public().(ed25519.PublicKey)),
		Signature: hex.EncodeToString(sig),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
