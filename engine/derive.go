package engine

// Derived program addresses. An address is computed from a seed sequence, the
// controller identity and a bump byte; no private key exists for it, so only
// the controller can act for the account stored there.
//
// Candidates whose low three address bits are zero fall in the space reserved
// for key-holding identities and are skipped. Scanning the bump from MaxBump
// down to zero, the first usable candidate is the canonical one; every other
// bump is rejected at verification even when it also yields a usable address.

const (
	MaxBump = 255

	maxSeeds   = 16
	maxSeedLen = 32

	deriveDomainTag = "warden/derive/v1"
)

// Seed prefixes for the record variants. One authority owns at most one user
// record and one vault record.
var (
	seedUser  = []byte("user")
	seedVault = []byte("vault")
)

func UserSeeds(authority Address) [][]byte {
	return [][]byte{seedUser, authority[:]}
}

func VaultSeeds(authority Address) [][]byte {
	return [][]byte{seedVault, authority[:]}
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) == 0 {
		return perr(ACC_ERR_PARSE, "derivation requires at least one seed")
	}
	if len(seeds) > maxSeeds {
		return perr(ACC_ERR_PARSE, "too many derivation seeds")
	}
	for _, s := range seeds {
		if len(s) > maxSeedLen {
			return perr(ACC_ERR_PARSE, "derivation seed exceeds 32 bytes")
		}
	}
	return nil
}

// deriveCandidate hashes one (seeds, controller, bump) combination. Seeds are
// length-prefixed so ["ab","c"] and ["a","bc"] cannot collide.
func deriveCandidate(seeds [][]byte, controller Address, bump uint8) Address {
	pre := make([]byte, 0, len(deriveDomainTag)+32+2+len(seeds)*(1+maxSeedLen))
	pre = append(pre, deriveDomainTag...)
	pre = append(pre, controller[:]...)
	pre = append(pre, byte(len(seeds)))
	for _, s := range seeds {
		pre = append(pre, byte(len(s)))
		pre = append(pre, s...)
	}
	pre = append(pre, bump)
	return Address(sha3_256(pre))
}

func usableDerivedAddress(a Address) bool {
	return a[31]&0x07 != 0
}

// Derive returns the canonical derived address and bump for a seed sequence:
// the first usable candidate scanning the bump from MaxBump down to zero.
func Derive(seeds [][]byte, controller Address) (Address, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, 0, err
	}
	for bump := MaxBump; bump >= 0; bump-- {
		cand := deriveCandidate(seeds, controller, uint8(bump))
		if usableDerivedAddress(cand) {
			return cand, uint8(bump), nil
		}
	}
	return Address{}, 0, perr(ACC_ERR_DERIVATION_MISMATCH, "no usable bump for seed sequence")
}

// VerifyDerived checks that candidate is the one true address for the seed
// sequence and that bump is the canonical bump. A usable-but-non-canonical
// bump fails with ACC_ERR_BUMP_NONCANONICAL; anything else that does not
// reproduce the candidate fails with ACC_ERR_DERIVATION_MISMATCH.
func VerifyDerived(candidate Address, bump uint8, seeds [][]byte, controller Address) error {
	addr, canonical, err := Derive(seeds, controller)
	if err != nil {
		return err
	}
	if bump == canonical {
		if candidate != addr {
			return perr(ACC_ERR_DERIVATION_MISMATCH, "address does not match canonical derivation")
		}
		return nil
	}
	alt := deriveCandidate(seeds, controller, bump)
	if usableDerivedAddress(alt) && alt == candidate {
		return perr(ACC_ERR_BUMP_NONCANONICAL, "usable bump is not the canonical bump")
	}
	return perr(ACC_ERR_DERIVATION_MISMATCH, "address does not match canonical derivation")
}
