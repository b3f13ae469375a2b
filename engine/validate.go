package engine

// AuthContext lists the identities attached to the current operation and
// whether each produced a valid signature. It is built by the boundary
// (signature verification lives there); the engine only ever consults it and
// never accepts an authority identity from operation parameters instead.
type AuthContext struct {
	entries map[Address]bool // identity -> signed
}

func NewAuthContext() *AuthContext {
	return &AuthContext{entries: make(map[Address]bool)}
}

// AddSigned records an identity that produced a valid signature.
func (a *AuthContext) AddSigned(id Address) *AuthContext {
	a.entries[id] = true
	return a
}

// AddUnsigned records an identity that was supplied without a signature
// (a readonly account reference).
func (a *AuthContext) AddUnsigned(id Address) *AuthContext {
	if _, ok := a.entries[id]; !ok {
		a.entries[id] = false
	}
	return a
}

func (a *AuthContext) present(id Address) bool {
	if a == nil {
		return false
	}
	_, ok := a.entries[id]
	return ok
}

func (a *AuthContext) signed(id Address) bool {
	if a == nil {
		return false
	}
	return a.entries[id]
}

// verifyOwner confirms the envelope is controlled by this program. Must pass
// before any payload field is trusted.
func verifyOwner(env *Envelope, controller Address) error {
	if env == nil {
		return perr(ACC_ERR_NOT_FOUND, "account missing")
	}
	if env.Owner != controller {
		return perr(ACC_ERR_OWNER_MISMATCH, "account not owned by program")
	}
	return nil
}

// verifySchema confirms the payload's leading tag matches the expected record
// variant. A tombstoned or foreign payload fails here, before decoding.
func verifySchema(env *Envelope, want SchemaTag) error {
	tag, ok := env.schemaTag()
	if !ok {
		return perr(ACC_ERR_SCHEMA_MISMATCH, "payload too short for schema tag")
	}
	if tag != want {
		return perr(ACC_ERR_SCHEMA_MISMATCH, "schema tag mismatch")
	}
	return nil
}

// CheckAuthority reports whether id is a verified signer in auth, with the
// same error taxonomy the engine's own operations use. Boundary code uses it
// to pre-check requests without loading records.
func CheckAuthority(id Address, auth *AuthContext) error {
	return verifyAuthority(id, auth)
}

// verifyAuthority binds a record's stored authority to the operation's
// verified signer set. Presence of the identity without a signature is not
// enough: a public key value can be supplied by anyone.
func verifyAuthority(authority Address, auth *AuthContext) error {
	if !auth.present(authority) {
		return perr(ACC_ERR_UNAUTHORIZED, "stored authority not in authorization context")
	}
	if !auth.signed(authority) {
		return perr(ACC_ERR_SIGNATURE_MISSING, "authority did not sign this operation")
	}
	return nil
}
