package store

import (
	"encoding/binary"
	"fmt"

	"warden.dev/warden/engine"
)

// Persistence KV encoding (not an operation wire format):
//
//	envelope: owner(32) | value u64le | data_len u32le | data
//	balance:  u64le
func encodeEnvelope(env *engine.Envelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("envelope: nil")
	}
	if len(env.Data) > 0xffffffff {
		return nil, fmt.Errorf("envelope: data too large")
	}
	out := make([]byte, 0, 32+8+4+len(env.Data))
	out = append(out, env.Owner[:]...)
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], env.Value)
	out = append(out, tmp8[:]...)
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(env.Data)))
	out = append(out, tmp4[:]...)
	out = append(out, env.Data...)
	return out, nil
}

func decodeEnvelope(b []byte) (*engine.Envelope, error) {
	if len(b) < 32+8+4 {
		return nil, fmt.Errorf("envelope: truncated")
	}
	var env engine.Envelope
	copy(env.Owner[:], b[0:32])
	env.Value = binary.LittleEndian.Uint64(b[32:40])
	dataLen := int(binary.LittleEndian.Uint32(b[40:44]))
	if 44+dataLen != len(b) {
		return nil, fmt.Errorf("envelope: bad data_len")
	}
	env.Data = append([]byte(nil), b[44:44+dataLen]...)
	return &env, nil
}

func encodeBalance(v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return tmp[:]
}

func decodeBalance(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("balance: expected 8 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
