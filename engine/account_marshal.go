package engine

import (
	"encoding/binary"
	"unicode/utf8"
)

// Record payload layouts, little-endian, fixed width:
//
//	UserRecord:  tag(8) | authority(32) | name_len(1) | name(50) | points(8) | bump(1)
//	VaultRecord: tag(8) | authority(32) | balance(8) | bump(1) | locked(1)
//
// Decoding is the exact inverse of encoding (roundtrip property). Lengths are
// fixed so a payload of the wrong size is rejected before any field is read.

const (
	userRecordLen  = 8 + 32 + 1 + MaxUserNameLen + 8 + 1
	vaultRecordLen = 8 + 32 + 8 + 1 + 1
)

// MarshalUserRecord serialises a UserRecord into its stored payload bytes.
func MarshalUserRecord(u *UserRecord) ([]byte, error) {
	if u == nil {
		return nil, perr(ACC_ERR_PARSE, "nil user record")
	}
	if len(u.Name) > MaxUserNameLen {
		return nil, perr(ACC_ERR_PARSE, "user name exceeds 50 bytes")
	}
	if !utf8.ValidString(u.Name) {
		return nil, perr(ACC_ERR_PARSE, "user name is not valid UTF-8")
	}

	b := make([]byte, 0, userRecordLen)
	b = append(b, SchemaUser[:]...)
	b = append(b, u.Authority[:]...)
	b = append(b, byte(len(u.Name)))
	var name [MaxUserNameLen]byte
	copy(name[:], u.Name)
	b = append(b, name[:]...)
	b = appendU64le(b, u.Points)
	b = append(b, u.Bump)
	return b, nil
}

// UnmarshalUserRecord decodes a stored payload previously produced by
// MarshalUserRecord. The schema tag must already have been verified.
func UnmarshalUserRecord(data []byte) (*UserRecord, error) {
	if len(data) != userRecordLen {
		return nil, perr(ACC_ERR_PARSE, "user record payload length invalid")
	}
	var u UserRecord
	off := 8
	copy(u.Authority[:], data[off:off+32])
	off += 32
	nameLen := int(data[off])
	off++
	if nameLen > MaxUserNameLen {
		return nil, perr(ACC_ERR_PARSE, "user name length invalid")
	}
	u.Name = string(data[off : off+nameLen])
	off += MaxUserNameLen
	u.Points = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	u.Bump = data[off]
	return &u, nil
}

// MarshalVaultRecord serialises a VaultRecord into its stored payload bytes.
func MarshalVaultRecord(v *VaultRecord) ([]byte, error) {
	if v == nil {
		return nil, perr(ACC_ERR_PARSE, "nil vault record")
	}
	b := make([]byte, 0, vaultRecordLen)
	b = append(b, SchemaVault[:]...)
	b = append(b, v.Authority[:]...)
	b = appendU64le(b, v.Balance)
	b = append(b, v.Bump)
	if v.Locked {
		b = append(b, 0x01)
	} else {
		b = append(b, 0x00)
	}
	return b, nil
}

// UnmarshalVaultRecord decodes a stored payload previously produced by
// MarshalVaultRecord. The schema tag must already have been verified.
func UnmarshalVaultRecord(data []byte) (*VaultRecord, error) {
	if len(data) != vaultRecordLen {
		return nil, perr(ACC_ERR_PARSE, "vault record payload length invalid")
	}
	var v VaultRecord
	off := 8
	copy(v.Authority[:], data[off:off+32])
	off += 32
	v.Balance = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	v.Bump = data[off]
	off++
	switch data[off] {
	case 0x00:
		v.Locked = false
	case 0x01:
		v.Locked = true
	default:
		return nil, perr(ACC_ERR_PARSE, "vault lock flag invalid")
	}
	return &v, nil
}

func appendU64le(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
