package engine

// TransferPoints moves points from one user record to another. The sender's
// stored authority must be a verified signer; the recipient only needs to be
// a valid record (its authority does not sign). Both legs use checked
// arithmetic, and the debit is computed before the credit so a failing credit
// aborts the session with the sender untouched.
func (e *Engine) TransferPoints(l Ledger, auth *AuthContext, from, to Address, amount uint64) error {
	if from == to {
		return perr(OP_ERR_DEST_INVALID, "self transfer")
	}

	fromEnv, fromRec, err := e.loadUser(l, from)
	if err != nil {
		return err
	}
	if err := verifyAuthority(fromRec.Authority, auth); err != nil {
		return err
	}
	toEnv, toRec, err := e.loadUser(l, to)
	if err != nil {
		return err
	}

	fromRec.Points, err = checkedSub(fromRec.Points, amount)
	if err != nil {
		return err
	}
	toRec.Points, err = checkedAdd(toRec.Points, amount)
	if err != nil {
		return err
	}

	if err := e.storeUser(l, from, fromEnv, fromRec); err != nil {
		return err
	}
	return e.storeUser(l, to, toEnv, toRec)
}

// GrantPoints credits points to a user record. The record's own authority
// must sign; points are not conjured for third parties.
func (e *Engine) GrantPoints(l Ledger, auth *AuthContext, user Address, amount uint64) error {
	env, rec, err := e.loadUser(l, user)
	if err != nil {
		return err
	}
	if err := verifyAuthority(rec.Authority, auth); err != nil {
		return err
	}
	rec.Points, err = checkedAdd(rec.Points, amount)
	if err != nil {
		return err
	}
	return e.storeUser(l, user, env, rec)
}
