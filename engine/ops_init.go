package engine

// InitializeUser creates the user record for the signing authority at its
// canonical derived address, with the canonical bump stored in the record.
// The authority must have signed: record creation is a privileged mutation
// of the authority's one derivation slot.
func (e *Engine) InitializeUser(l Ledger, auth *AuthContext, authority Address, name string) (Address, error) {
	if err := verifyAuthority(authority, auth); err != nil {
		return Address{}, err
	}
	if len(name) > MaxUserNameLen {
		return Address{}, perr(ACC_ERR_PARSE, "user name exceeds 50 bytes")
	}

	addr, bump, err := Derive(UserSeeds(authority), e.controller)
	if err != nil {
		return Address{}, err
	}
	existing, err := l.GetRecord(addr)
	if err != nil {
		return Address{}, err
	}
	if existing != nil {
		if existing.Tombstoned() {
			return Address{}, perr(ACC_ERR_SCHEMA_MISMATCH, "address was closed and cannot be reused")
		}
		return Address{}, perr(ACC_ERR_EXISTS, "user record already initialized")
	}

	rec := &UserRecord{Authority: authority, Name: name, Points: 0, Bump: bump}
	env := &Envelope{Owner: e.controller, Value: RECORD_RESERVE}
	if err := e.storeUser(l, addr, env, rec); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// InitializeVault creates the vault record for the signing authority at its
// canonical derived address, funded with an initial balance.
func (e *Engine) InitializeVault(l Ledger, auth *AuthContext, authority Address, initial uint64) (Address, error) {
	if err := verifyAuthority(authority, auth); err != nil {
		return Address{}, err
	}

	addr, bump, err := Derive(VaultSeeds(authority), e.controller)
	if err != nil {
		return Address{}, err
	}
	existing, err := l.GetRecord(addr)
	if err != nil {
		return Address{}, err
	}
	if existing != nil {
		if existing.Tombstoned() {
			return Address{}, perr(ACC_ERR_SCHEMA_MISMATCH, "address was closed and cannot be reused")
		}
		return Address{}, perr(ACC_ERR_EXISTS, "vault record already initialized")
	}

	value, err := checkedAdd(RECORD_RESERVE, initial)
	if err != nil {
		return Address{}, err
	}
	rec := &VaultRecord{Authority: authority, Balance: initial, Bump: bump, Locked: false}
	env := &Envelope{Owner: e.controller, Value: value}
	if err := e.storeVault(l, addr, env, rec); err != nil {
		return Address{}, err
	}
	return addr, nil
}
