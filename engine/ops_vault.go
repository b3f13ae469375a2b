package engine

// Withdraw debits the vault balance and credits the authority's native
// balance. The destination is always the stored, signer-verified authority;
// no destination parameter is accepted.
func (e *Engine) Withdraw(l Ledger, auth *AuthContext, vault Address, amount uint64) error {
	env, rec, err := e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	if rec.Locked {
		return perr(OP_ERR_REENTRANT, "vault locked by in-flight operation")
	}

	rec.Balance, err = checkedSub(rec.Balance, amount)
	if err != nil {
		return err
	}
	env.Value, err = checkedSub(env.Value, amount)
	if err != nil {
		return err
	}
	if err := l.Credit(rec.Authority, amount); err != nil {
		return err
	}
	return e.storeVault(l, vault, env, rec)
}

// Deposit credits the vault balance. The vault authority must sign; the
// native funding leg is settled by the execution environment at the
// operation boundary.
func (e *Engine) Deposit(l Ledger, auth *AuthContext, vault Address, amount uint64) error {
	env, rec, err := e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	if rec.Locked {
		return perr(OP_ERR_REENTRANT, "vault locked by in-flight operation")
	}

	rec.Balance, err = checkedAdd(rec.Balance, amount)
	if err != nil {
		return err
	}
	env.Value, err = checkedAdd(env.Value, amount)
	if err != nil {
		return err
	}
	return e.storeVault(l, vault, env, rec)
}

// TransferChecked validates and applies a plain vault debit with no
// delegation involved: amount bounds and checked arithmetic only.
func (e *Engine) TransferChecked(l Ledger, auth *AuthContext, vault Address, amount uint64) error {
	env, rec, err := e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	if rec.Locked {
		return perr(OP_ERR_REENTRANT, "vault locked by in-flight operation")
	}
	if amount == 0 {
		return perr(OP_ERR_AMOUNT_INVALID, "zero amount")
	}
	if amount > rec.Balance {
		return perr(OP_ERR_INSUFFICIENT_FUNDS, "amount exceeds vault balance")
	}

	rec.Balance, err = checkedSub(rec.Balance, amount)
	if err != nil {
		return err
	}
	env.Value, err = checkedSub(env.Value, amount)
	if err != nil {
		return err
	}
	return e.storeVault(l, vault, env, rec)
}
