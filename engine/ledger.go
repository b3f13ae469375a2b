package engine

// Ledger is the system of record for account envelopes and native balances.
// Engine operations must run inside a single ledger session: implementations
// commit the session only when the operation returns nil, so a failing check
// leaves no partial effect behind.
//
// GetRecord is also the post-delegation reload primitive; it must always
// return the session's current authoritative state, never a stale copy.
type Ledger interface {
	// GetRecord returns the envelope at addr, or (nil, nil) when the
	// address holds no record.
	GetRecord(addr Address) (*Envelope, error)
	// PutRecord stores env at addr, replacing any previous envelope.
	PutRecord(addr Address, env *Envelope) error
	// Balance returns the native balance of a key-holding identity.
	Balance(id Address) (uint64, error)
	// Credit adds amount to a key-holding identity's native balance.
	Credit(id Address, amount uint64) error
	// CloseRecord performs the atomic compound close effect: move the
	// envelope's residual value to dest's native balance, zero the data
	// payload and write the tombstone tag. Mechanical only; all
	// authorization checks happen before this is called.
	CloseRecord(addr Address, dest Address) error
}

// MemLedger is a minimal, non-persistent ledger for tests and audit/repro
// tooling. It is NOT the node database: node deployments use the bbolt-backed
// store, which provides the same session semantics on disk.
type MemLedger struct {
	records  map[Address]*Envelope
	balances map[Address]uint64
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		records:  make(map[Address]*Envelope),
		balances: make(map[Address]uint64),
	}
}

func (m *MemLedger) clone() *MemLedger {
	out := NewMemLedger()
	for k, v := range m.records {
		out.records[k] = v.Clone()
	}
	for k, v := range m.balances {
		out.balances[k] = v
	}
	return out
}

// Run executes op against a working copy and commits the copy only on
// success. This is the session boundary required by engine operations.
func (m *MemLedger) Run(op func(Ledger) error) error {
	work := m.clone()
	if err := op(work); err != nil {
		return err
	}
	m.records = work.records
	m.balances = work.balances
	return nil
}

func (m *MemLedger) GetRecord(addr Address) (*Envelope, error) {
	env, ok := m.records[addr]
	if !ok {
		return nil, nil
	}
	return env.Clone(), nil
}

func (m *MemLedger) PutRecord(addr Address, env *Envelope) error {
	if env == nil {
		return perr(ACC_ERR_PARSE, "nil envelope")
	}
	m.records[addr] = env.Clone()
	return nil
}

func (m *MemLedger) Balance(id Address) (uint64, error) {
	return m.balances[id], nil
}

func (m *MemLedger) Credit(id Address, amount uint64) error {
	next, err := checkedAdd(m.balances[id], amount)
	if err != nil {
		return err
	}
	m.balances[id] = next
	return nil
}

func (m *MemLedger) CloseRecord(addr Address, dest Address) error {
	env, ok := m.records[addr]
	if !ok {
		return perr(ACC_ERR_NOT_FOUND, "close of missing record")
	}
	if err := m.Credit(dest, env.Value); err != nil {
		return err
	}
	m.records[addr] = Tombstone(env.Owner)
	return nil
}
