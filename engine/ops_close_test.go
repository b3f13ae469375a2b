package engine

import "testing"

func TestCloseVaultAtomicEffect(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 600)

	before := mustBalance(t, l, authorityA)
	if err := e.CloseVault(l, signedBy(authorityA), vault); err != nil {
		t.Fatalf("CloseVault: %v", err)
	}

	// Destination receives exactly the residual value.
	if got := mustBalance(t, l, authorityA); got != before+600+RECORD_RESERVE {
		t.Fatalf("destination credited %d, want %d", got-before, 600+RECORD_RESERVE)
	}

	// The address is tombstoned: payload cleared, no value left, and any
	// later reference fails the schema gate.
	env, err := l.GetRecord(vault)
	if err != nil || env == nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !env.Tombstoned() || env.Value != 0 || len(env.Data) != 8 {
		t.Fatalf("bad tombstone: %+v", env)
	}
	wantErrCode(t, e.Withdraw(l, signedBy(authorityA), vault, 1), ACC_ERR_SCHEMA_MISMATCH)
	wantErrCode(t, e.CloseVault(l, signedBy(authorityA), vault), ACC_ERR_SCHEMA_MISMATCH)
}

func TestCloseVaultAuthority(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 100)

	wantErrCode(t, e.CloseVault(l, signedBy(authorityB), vault), ACC_ERR_UNAUTHORIZED)
	wantErrCode(t, e.CloseVault(l, unsignedPresence(authorityA), vault), ACC_ERR_SIGNATURE_MISSING)
	if got := mustLoadVault(t, e, l, vault).Balance; got != 100 {
		t.Fatalf("failed closure mutated state")
	}
}

func TestCloseVaultToValidatesDestination(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 100)

	wantErrCode(t, e.CloseVaultTo(l, signedBy(authorityA), vault, authorityB), OP_ERR_DEST_INVALID)
	wantErrCode(t, e.CloseVaultTo(l, signedBy(authorityA), vault, Address{}), OP_ERR_DEST_INVALID)

	if err := e.CloseVaultTo(l, signedBy(authorityA), vault, authorityA); err != nil {
		t.Fatalf("CloseVaultTo: %v", err)
	}
	if got := mustBalance(t, l, authorityA); got != 100+RECORD_RESERVE {
		t.Fatalf("destination credited %d", got)
	}
}

func TestCloseVaultIfEmpty(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 40)

	wantErrCode(t, e.CloseVaultIfEmpty(l, signedBy(authorityA), vault), OP_ERR_NOT_EMPTY)

	if err := e.Withdraw(l, signedBy(authorityA), vault, 40); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if err := e.CloseVaultIfEmpty(l, signedBy(authorityA), vault); err != nil {
		t.Fatalf("CloseVaultIfEmpty: %v", err)
	}
}

func TestCloseUserReturnsReserveOnly(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	user := mustInitUser(t, e, l, authorityA, "alice")
	if err := e.GrantPoints(l, signedBy(authorityA), user, 77); err != nil {
		t.Fatalf("GrantPoints: %v", err)
	}

	if err := e.CloseUser(l, signedBy(authorityA), user); err != nil {
		t.Fatalf("CloseUser: %v", err)
	}
	if got := mustBalance(t, l, authorityA); got != RECORD_RESERVE {
		t.Fatalf("reserve refund=%d, want %d", got, RECORD_RESERVE)
	}
}

func TestClosedSlotCannotBeReinitialized(t *testing.T) {
	e := newTestEngine(nil)
	l := NewMemLedger()
	vault := mustInitVault(t, e, l, authorityA, 0)

	if err := e.CloseVault(l, signedBy(authorityA), vault); err != nil {
		t.Fatalf("CloseVault: %v", err)
	}
	_, err := e.InitializeVault(l, signedBy(authorityA), authorityA, 10)
	wantErrCode(t, err, ACC_ERR_SCHEMA_MISMATCH)
}
