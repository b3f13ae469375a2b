package engine

// Guarded operations delegate to an external call target. The sequence is
// fixed: guard check, lock persisted, effect, validated delegation, reload
// from the session, declared post-call invariant, unlock. The pre-call
// decoded record is never trusted after the delegation returns.

// Repay credits a flash-loan repayment to the vault. It is permissionless
// and works while the vault is locked: it is the one mutation a borrower's
// callback is expected to make mid-loan.
func (e *Engine) Repay(l Ledger, vault Address, amount uint64) error {
	env, rec, err := e.loadVault(l, vault)
	if err != nil {
		return err
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

// FlashLoan lends amount to the vault authority for the duration of one
// delegated call. The callback must repay at least amount+expectedFee into
// the vault before returning; the repayment is verified against reloaded
// state, never the pre-call copy.
func (e *Engine) FlashLoan(l Ledger, auth *AuthContext, vault Address, amount, expectedFee uint64, callback Address) error {
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
		return perr(OP_ERR_AMOUNT_INVALID, "zero loan amount")
	}
	if amount > rec.Balance {
		return perr(OP_ERR_INSUFFICIENT_FUNDS, "loan exceeds vault balance")
	}
	if !e.registry.Trusted(callback) {
		return perr(OP_ERR_TARGET_UNTRUSTED, "callback target not in allow-list")
	}

	initialBalance := rec.Balance
	expectedTotal, err := checkedAdd(initialBalance, expectedFee)
	if err != nil {
		return err
	}

	// Lock and disburse before the delegation; the lock must be visible to
	// any re-entering operation.
	rec.Locked = true
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
	if err := e.storeVault(l, vault, env, rec); err != nil {
		return err
	}

	if err := e.invoke(l, Invocation{Target: callback, Accounts: []Address{vault}}); err != nil {
		return err
	}

	// Reload: the callback may have mutated the vault through any entry
	// point. The invariant holds against authoritative state only.
	env, rec, err = e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if rec.Balance < expectedTotal {
		return perr(OP_ERR_NOT_REPAID, "flash loan not repaid with fee")
	}

	rec.Locked = false
	return e.storeVault(l, vault, env, rec)
}

// SwapViaDex delegates a swap of amount to a trusted exchange target, then
// debits the vault against reloaded state. The target must be in the
// allow-list; it is never taken on faith from operation input.
func (e *Engine) SwapViaDex(l Ledger, auth *AuthContext, vault Address, dex Address, amount uint64) error {
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
	if !e.registry.Trusted(dex) {
		return perr(OP_ERR_TARGET_UNTRUSTED, "exchange target not in allow-list")
	}
	if amount == 0 {
		return perr(OP_ERR_AMOUNT_INVALID, "zero swap amount")
	}
	if amount > rec.Balance {
		return perr(OP_ERR_INSUFFICIENT_FUNDS, "swap exceeds vault balance")
	}

	rec.Locked = true
	if err := e.storeVault(l, vault, env, rec); err != nil {
		return err
	}

	data := appendU64le(nil, amount)
	if err := e.invoke(l, Invocation{Target: dex, Accounts: []Address{vault}, Data: data}); err != nil {
		return err
	}

	env, rec, err = e.loadVault(l, vault)
	if err != nil {
		return err
	}
	rec.Balance, err = checkedSub(rec.Balance, amount)
	if err != nil {
		return err
	}
	env.Value, err = checkedSub(env.Value, amount)
	if err != nil {
		return err
	}
	rec.Locked = false
	return e.storeVault(l, vault, env, rec)
}

// ExecuteCallback delegates to a trusted validation target with opaque call
// data. The declared post-call invariant is that the vault balance did not
// move at all.
func (e *Engine) ExecuteCallback(l Ledger, auth *AuthContext, vault Address, target Address, data []byte) error {
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
	if !e.registry.Trusted(target) {
		return perr(OP_ERR_TARGET_UNTRUSTED, "callback target not in allow-list")
	}

	balanceBefore := rec.Balance
	rec.Locked = true
	if err := e.storeVault(l, vault, env, rec); err != nil {
		return err
	}

	if err := e.invoke(l, Invocation{Target: target, Accounts: []Address{vault}, Data: data}); err != nil {
		return err
	}

	env, rec, err = e.loadVault(l, vault)
	if err != nil {
		return err
	}
	if rec.Balance != balanceBefore {
		return perr(OP_ERR_STATE_CHANGED, "vault balance changed during callback")
	}

	rec.Locked = false
	return e.storeVault(l, vault, env, rec)
}

// invoke runs one delegation and inspects its explicit result. Absence of a
// delegation primitive or a failed call is terminal for the operation.
func (e *Engine) invoke(l Ledger, call Invocation) error {
	if e.invoker == nil {
		return perr(OP_ERR_CALL_FAILED, "no delegation primitive configured")
	}
	if err := e.invoker.Invoke(l, call); err != nil {
		return perr(OP_ERR_CALL_FAILED, "delegated call failed: "+err.Error())
	}
	return nil
}
