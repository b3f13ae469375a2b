package engine

import "testing"

func testAddr(b byte) Address {
	var a Address
	a[0] = b
	a[31] = 0x5a
	return a
}

var (
	testController = testAddr(0xc0)
	authorityA     = testAddr(0xa1)
	authorityB     = testAddr(0xb2)
	trustedDex     = testAddr(0xd3)
	trustedChecker = testAddr(0xe4)
)

func mustErrCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	code := CodeOf(err)
	if code == "" {
		t.Fatalf("foreign error: %v", err)
	}
	return code
}

func wantErrCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if got := mustErrCode(t, err); got != want {
		t.Fatalf("code=%s, want %s", got, want)
	}
}

func signedBy(ids ...Address) *AuthContext {
	auth := NewAuthContext()
	for _, id := range ids {
		auth.AddSigned(id)
	}
	return auth
}

// unsignedPresence mimics an attacker supplying a public key value without a
// signature behind it.
func unsignedPresence(id Address) *AuthContext {
	return NewAuthContext().AddUnsigned(id)
}

func newTestEngine(inv Invoker) *Engine {
	return New(testController, NewTargetRegistry(trustedDex, trustedChecker), inv)
}

func mustInitUser(t *testing.T, e *Engine, l Ledger, authority Address, name string) Address {
	t.Helper()
	addr, err := e.InitializeUser(l, signedBy(authority), authority, name)
	if err != nil {
		t.Fatalf("InitializeUser: %v", err)
	}
	return addr
}

func mustInitVault(t *testing.T, e *Engine, l Ledger, authority Address, initial uint64) Address {
	t.Helper()
	addr, err := e.InitializeVault(l, signedBy(authority), authority, initial)
	if err != nil {
		t.Fatalf("InitializeVault: %v", err)
	}
	return addr
}

func mustLoadVault(t *testing.T, e *Engine, l Ledger, addr Address) *VaultRecord {
	t.Helper()
	_, rec, err := e.loadVault(l, addr)
	if err != nil {
		t.Fatalf("loadVault: %v", err)
	}
	return rec
}

func mustLoadUser(t *testing.T, e *Engine, l Ledger, addr Address) *UserRecord {
	t.Helper()
	_, rec, err := e.loadUser(l, addr)
	if err != nil {
		t.Fatalf("loadUser: %v", err)
	}
	return rec
}

func mustBalance(t *testing.T, l Ledger, id Address) uint64 {
	t.Helper()
	bal, err := l.Balance(id)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return bal
}
