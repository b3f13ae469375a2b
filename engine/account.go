package engine

import (
	"bytes"
	"encoding/hex"
)

// Address is a 32-byte identity: either sha3-256 of an ed25519 public key
// (a key-holding identity) or a derived program address (no key exists).
type Address [32]byte

func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

func (a Address) IsZero() bool { return a == Address{} }

// AddressFromHex parses a 64-hex-char address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return a, perr(ACC_ERR_PARSE, "address must be 32 bytes of hex")
	}
	copy(a[:], raw)
	return a, nil
}

// SchemaTag discriminates record variants. Stored as the first 8 bytes of a
// record's data payload; checked before any other field is decoded.
type SchemaTag [8]byte

// schemaTagFor derives a variant's tag from its name, so tags cannot collide
// with user-controlled payload bytes by accident.
func schemaTagFor(name string) SchemaTag {
	h := sha3_256([]byte("account:" + name))
	var tag SchemaTag
	copy(tag[:], h[:8])
	return tag
}

var (
	SchemaUser  = schemaTagFor("UserRecord")
	SchemaVault = schemaTagFor("VaultRecord")

	// schemaTombstone marks a closed address. A tombstoned envelope never
	// passes a schema check, so a closed account cannot be resurrected as
	// the same entity.
	schemaTombstone = SchemaTag{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// Envelope is the stored form of an account: runtime metadata plus the typed
// data payload. Value is the native residual drained on closure.
type Envelope struct {
	Owner Address
	Value uint64
	Data  []byte
}

func (e *Envelope) schemaTag() (SchemaTag, bool) {
	var tag SchemaTag
	if e == nil || len(e.Data) < len(tag) {
		return tag, false
	}
	copy(tag[:], e.Data[:len(tag)])
	return tag, true
}

// Tombstoned reports whether the envelope marks a closed address.
func (e *Envelope) Tombstoned() bool {
	tag, ok := e.schemaTag()
	return ok && tag == schemaTombstone
}

// Tombstone builds the envelope written over a closed address: zero value,
// payload reduced to the tombstone tag. Ledger implementations use it for
// the compound close effect.
func Tombstone(owner Address) *Envelope {
	return &Envelope{
		Owner: owner,
		Value: 0,
		Data:  append([]byte(nil), schemaTombstone[:]...),
	}
}

// Clone deep-copies the envelope so callers can mutate without aliasing
// store-held bytes.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := &Envelope{Owner: e.Owner, Value: e.Value}
	if e.Data != nil {
		out.Data = bytes.Clone(e.Data)
	}
	return out
}

// MaxUserNameLen bounds the user record's display name, matching the fixed
// 50-byte field the wire layout reserves for it.
const MaxUserNameLen = 50

// UserRecord is the points-holding per-authority account.
type UserRecord struct {
	Authority Address
	Name      string
	Points    uint64
	Bump      uint8
}

// VaultRecord is the value-holding per-authority account. Locked is the
// reentrancy guard flag for guarded operations.
type VaultRecord struct {
	Authority Address
	Balance   uint64
	Bump      uint8
	Locked    bool
}
