package engine

import (
	"errors"
	"testing"
)

func TestFlashLoanRepaid(t *testing.T) {
	var e *Engine
	borrower := InvokerFunc(func(l Ledger, call Invocation) error {
		// Repay principal + fee mid-call.
		return e.Repay(l, call.Accounts[0], 101)
	})
	e = newTestEngine(borrower)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	if err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	}); err != nil {
		t.Fatalf("FlashLoan: %v", err)
	}

	rec := mustLoadVault(t, e, l, vault)
	if rec.Balance != 1001 {
		t.Fatalf("balance=%d, want 1001", rec.Balance)
	}
	if rec.Locked {
		t.Fatalf("guard left locked after success")
	}
	if got := mustBalance(t, l, authorityA); got != 100 {
		t.Fatalf("borrower native balance=%d, want 100", got)
	}
}

func TestFlashLoanReentrancyBlocked(t *testing.T) {
	var e *Engine
	reentered := false
	borrower := InvokerFunc(func(l Ledger, call Invocation) error {
		vault := call.Accounts[0]
		// Mid-loan the guard must be visible through the session.
		err := e.FlashLoan(l, signedBy(authorityA), vault, 100, 1, trustedChecker)
		if CodeOf(err) != OP_ERR_REENTRANT {
			return errors.New("nested borrow was not blocked")
		}
		reentered = true
		return e.Repay(l, vault, 101)
	})
	e = newTestEngine(borrower)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	if err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	}); err != nil {
		t.Fatalf("FlashLoan: %v", err)
	}
	if !reentered {
		t.Fatalf("nested borrow never attempted")
	}
	if got := mustLoadVault(t, e, l, vault).Balance; got != 1001 {
		t.Fatalf("balance=%d, want 1001", got)
	}
}

func TestFlashLoanNotRepaid(t *testing.T) {
	silent := InvokerFunc(func(l Ledger, call Invocation) error { return nil })
	e := newTestEngine(silent)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	})
	wantErrCode(t, err, OP_ERR_NOT_REPAID)

	// The aborted session discards the disbursement and the lock.
	rec := mustLoadVault(t, e, l, vault)
	if rec.Balance != 1000 || rec.Locked {
		t.Fatalf("aborted loan left effects: %+v", rec)
	}
	if got := mustBalance(t, l, authorityA); got != 0 {
		t.Fatalf("aborted loan left disbursement: %d", got)
	}
}

func TestFlashLoanShortRepayment(t *testing.T) {
	var e *Engine
	cheapskate := InvokerFunc(func(l Ledger, call Invocation) error {
		return e.Repay(l, call.Accounts[0], 100) // principal only, no fee
	})
	e = newTestEngine(cheapskate)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	})
	wantErrCode(t, err, OP_ERR_NOT_REPAID)
}

func TestFlashLoanValidation(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	auth := signedBy(authorityA)
	wantErrCode(t, e.FlashLoan(l, auth, vault, 0, 1, trustedChecker), OP_ERR_AMOUNT_INVALID)
	wantErrCode(t, e.FlashLoan(l, auth, vault, 1001, 1, trustedChecker), OP_ERR_INSUFFICIENT_FUNDS)
	wantErrCode(t, e.FlashLoan(l, auth, vault, 100, 1, testAddr(0x13)), OP_ERR_TARGET_UNTRUSTED)
	wantErrCode(t, e.FlashLoan(l, signedBy(authorityB), vault, 100, 1, trustedChecker), ACC_ERR_UNAUTHORIZED)
}

func TestFlashLoanDelegationFailure(t *testing.T) {
	failing := InvokerFunc(func(l Ledger, call Invocation) error {
		return errors.New("target aborted")
	})
	e := newTestEngine(failing)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	})
	wantErrCode(t, err, OP_ERR_CALL_FAILED)
	if got := mustLoadVault(t, e, l, vault).Balance; got != 1000 {
		t.Fatalf("failed delegation left effects: %d", got)
	}
}

func TestFlashLoanNoInvoker(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	})
	wantErrCode(t, err, OP_ERR_CALL_FAILED)
}

func TestSwapViaDex(t *testing.T) {
	quiet := InvokerFunc(func(l Ledger, call Invocation) error { return nil })
	e := newTestEngine(quiet)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 500)

	wantErrCode(t, e.SwapViaDex(l, signedBy(authorityA), vault, testAddr(0x24), 100), OP_ERR_TARGET_UNTRUSTED)

	if err := l.Run(func(s Ledger) error {
		return e.SwapViaDex(s, signedBy(authorityA), vault, trustedDex, 100)
	}); err != nil {
		t.Fatalf("SwapViaDex: %v", err)
	}
	rec := mustLoadVault(t, e, l, vault)
	if rec.Balance != 400 || rec.Locked {
		t.Fatalf("bad post-swap state: %+v", rec)
	}
}

// The swap debit runs against reloaded state: a target that drains the vault
// mid-call cannot leave the debit to underflow silently.
func TestSwapViaDexDrainedDuringCall(t *testing.T) {
	var e *Engine
	drainer := InvokerFunc(func(l Ledger, call Invocation) error {
		vault := call.Accounts[0]
		env, err := l.GetRecord(vault)
		if err != nil {
			return err
		}
		rec, err := UnmarshalVaultRecord(env.Data)
		if err != nil {
			return err
		}
		rec.Balance = 10
		data, err := MarshalVaultRecord(rec)
		if err != nil {
			return err
		}
		env.Data = data
		return l.PutRecord(vault, env)
	})
	e = newTestEngine(drainer)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 500)

	err := l.Run(func(s Ledger) error {
		return e.SwapViaDex(s, signedBy(authorityA), vault, trustedDex, 100)
	})
	wantErrCode(t, err, OP_ERR_INSUFFICIENT_FUNDS)
	if got := mustLoadVault(t, e, l, vault).Balance; got != 500 {
		t.Fatalf("aborted swap left effects: %d", got)
	}
}

func TestExecuteCallbackBalanceUnchanged(t *testing.T) {
	quiet := InvokerFunc(func(l Ledger, call Invocation) error { return nil })
	e := newTestEngine(quiet)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 250)

	if err := l.Run(func(s Ledger) error {
		return e.ExecuteCallback(s, signedBy(authorityA), vault, trustedChecker, []byte{0x01})
	}); err != nil {
		t.Fatalf("ExecuteCallback: %v", err)
	}
	rec := mustLoadVault(t, e, l, vault)
	if rec.Balance != 250 || rec.Locked {
		t.Fatalf("bad post-callback state: %+v", rec)
	}
}

func TestExecuteCallbackDetectsStateChange(t *testing.T) {
	var e *Engine
	meddler := InvokerFunc(func(l Ledger, call Invocation) error {
		// Repay is the only mutation open while locked; any drift trips
		// the declared invariant.
		return e.Repay(l, call.Accounts[0], 5)
	})
	e = newTestEngine(meddler)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 250)

	err := l.Run(func(s Ledger) error {
		return e.ExecuteCallback(s, signedBy(authorityA), vault, trustedChecker, nil)
	})
	wantErrCode(t, err, OP_ERR_STATE_CHANGED)
	if got := mustLoadVault(t, e, l, vault).Balance; got != 250 {
		t.Fatalf("aborted callback left effects: %d", got)
	}
}

// The guard flag blocks every guarded and mutating entry point mid-call, not
// just the one that took the lock.
func TestGuardBlocksAllEntryPointsMidCall(t *testing.T) {
	var e *Engine
	prober := InvokerFunc(func(l Ledger, call Invocation) error {
		vault := call.Accounts[0]
		auth := signedBy(authorityA)
		for name, err := range map[string]error{
			"withdraw": e.Withdraw(l, auth, vault, 1),
			"deposit":  e.Deposit(l, auth, vault, 1),
			"swap":     e.SwapViaDex(l, auth, vault, trustedDex, 1),
			"callback": e.ExecuteCallback(l, auth, vault, trustedChecker, nil),
			"close":    e.CloseVault(l, auth, vault),
		} {
			if CodeOf(err) != OP_ERR_REENTRANT {
				return errors.New(name + " not blocked mid-call")
			}
		}
		return e.Repay(l, vault, 101)
	})
	e = newTestEngine(prober)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 1000)

	if err := l.Run(func(s Ledger) error {
		return e.FlashLoan(s, signedBy(authorityA), vault, 100, 1, trustedChecker)
	}); err != nil {
		t.Fatalf("FlashLoan: %v", err)
	}
}
