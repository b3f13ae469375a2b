package engine

import (
	"errors"
	"testing"
)

func TestMemLedgerRunCommitsOnSuccess(t *testing.T) {
	l := NewMemLedger()
	err := l.Run(func(s Ledger) error {
		return s.Credit(authorityA, 42)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := mustBalance(t, l, authorityA); got != 42 {
		t.Fatalf("balance=%d, want 42", got)
	}
}

func TestMemLedgerRunDiscardsOnFailure(t *testing.T) {
	l := NewMemLedger()
	if err := l.Credit(authorityA, 10); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	boom := errors.New("boom")
	err := l.Run(func(s Ledger) error {
		if err := s.Credit(authorityA, 100); err != nil {
			return err
		}
		if err := s.PutRecord(testAddr(0x01), &Envelope{Owner: testController, Data: SchemaVault[:]}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run err=%v", err)
	}
	if got := mustBalance(t, l, authorityA); got != 10 {
		t.Fatalf("balance=%d, want 10", got)
	}
	env, err := l.GetRecord(testAddr(0x01))
	if err != nil || env != nil {
		t.Fatalf("aborted put visible: %+v", env)
	}
}

func TestMemLedgerGetReturnsCopy(t *testing.T) {
	l := NewMemLedger()
	addr := testAddr(0x02)
	if err := l.PutRecord(addr, &Envelope{Owner: testController, Value: 5, Data: append([]byte(nil), SchemaUser[:]...)}); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	env, err := l.GetRecord(addr)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	env.Data[0] ^= 0xff
	env.Value = 999

	again, err := l.GetRecord(addr)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if again.Value != 5 || again.Data[0] != SchemaUser[0] {
		t.Fatalf("stored envelope aliased by caller mutation")
	}
}

func TestMemLedgerCloseRecord(t *testing.T) {
	l := NewMemLedger()
	addr := testAddr(0x03)
	if err := l.PutRecord(addr, &Envelope{Owner: testController, Value: 70, Data: append([]byte(nil), SchemaVault[:]...)}); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	if err := l.CloseRecord(addr, authorityB); err != nil {
		t.Fatalf("CloseRecord: %v", err)
	}
	if got := mustBalance(t, l, authorityB); got != 70 {
		t.Fatalf("destination=%d, want 70", got)
	}
	env, _ := l.GetRecord(addr)
	if env == nil || !env.Tombstoned() || env.Value != 0 {
		t.Fatalf("bad tombstone: %+v", env)
	}

	wantErrCode(t, l.CloseRecord(testAddr(0x04), authorityB), ACC_ERR_NOT_FOUND)
}
