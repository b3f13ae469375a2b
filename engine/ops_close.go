package engine

// Closure drains a record's residual value to a validated destination, zeros
// its payload and tombstones the address, as one compound ledger effect. The
// destination is the stored authority unless a variant validates an explicit
// one; it is never taken unchecked from operation input.

// CloseVault closes a vault to its own authority.
func (e *Engine) CloseVault(l Ledger, auth *AuthContext, vault Address) error {
	return e.closeVault(l, auth, vault, nil, false)
}

// CloseVaultTo closes a vault to an explicit destination, which must equal
// the vault's stored authority.
func (e *Engine) CloseVaultTo(l Ledger, auth *AuthContext, vault Address, dest Address) error {
	return e.closeVault(l, auth, vault, &dest, false)
}

// CloseVaultIfEmpty closes a vault to its authority only when the tracked
// balance is zero, so a funded vault cannot be torn down by accident.
func (e *Engine) CloseVaultIfEmpty(l Ledger, auth *AuthContext, vault Address) error {
	return e.closeVault(l, auth, vault, nil, true)
}

func (e *Engine) closeVault(l Ledger, auth *AuthContext, vault Address, dest *Address, requireEmpty bool) error {
	_, rec, err := e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	if rec.Locked {
		return perr(OP_ERR_REENTRANT, "vault locked by in-flight operation")
	}

	target := rec.Authority
	if dest != nil {
		if dest.IsZero() || *dest != rec.Authority {
			return perr(OP_ERR_DEST_INVALID, "destination must be the vault authority")
		}
		target = *dest
	}
	if requireEmpty && rec.Balance != 0 {
		return perr(OP_ERR_NOT_EMPTY, "vault still holds a balance")
	}

	return l.CloseRecord(vault, target)
}

// CloseUser closes a user record to its authority. Points are forfeited;
// only the native reserve is returned.
func (e *Engine) CloseUser(l Ledger, auth *AuthContext, user Address) error {
	_, rec, err := e.loadUser(l, user)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	return l.CloseRecord(user, rec.Authority)
}
