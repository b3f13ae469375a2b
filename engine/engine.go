package engine

// Engine validates and applies account operations for one controller
// identity. All entry points follow the same discipline: derive and verify
// every referenced account, bind the stored authority to the verified signer
// set, mutate through checked arithmetic only, and run inside a single
// ledger session so a failing check discards every in-progress effect.
type Engine struct {
	controller Address
	registry   *TargetRegistry
	invoker    Invoker
}

// RECORD_RESERVE is the native value locked into every record at creation
// and returned to the destination at closure.
const RECORD_RESERVE uint64 = 1000

func New(controller Address, registry *TargetRegistry, invoker Invoker) *Engine {
	return &Engine{controller: controller, registry: registry, invoker: invoker}
}

func (e *Engine) Controller() Address { return e.controller }

// loadUser fetches, fully validates and decodes a user record: owner and
// schema first (nothing is trusted before those), then payload decode, then
// the derivation check against the stored authority and bump.
func (e *Engine) loadUser(l Ledger, addr Address) (*Envelope, *UserRecord, error) {
	env, err := l.GetRecord(addr)
	if err != nil {
		return nil, nil, err
	}
	if env == nil {
		return nil, nil, perr(ACC_ERR_NOT_FOUND, "user record missing")
	}
	if err := verifyOwner(env, e.controller); err != nil {
		return nil, nil, err
	}
	if err := verifySchema(env, SchemaUser); err != nil {
		return nil, nil, err
	}
	rec, err := UnmarshalUserRecord(env.Data)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifyDerived(addr, rec.Bump, UserSeeds(rec.Authority), e.controller); err != nil {
		return nil, nil, err
	}
	return env, rec, nil
}

func (e *Engine) loadVault(l Ledger, addr Address) (*Envelope, *VaultRecord, error) {
	env, err := l.GetRecord(addr)
	if err != nil {
		return nil, nil, err
	}
	if env == nil {
		return nil, nil, perr(ACC_ERR_NOT_FOUND, "vault record missing")
	}
	if err := verifyOwner(env, e.controller); err != nil {
		return nil, nil, err
	}
	if err := verifySchema(env, SchemaVault); err != nil {
		return nil, nil, err
	}
	rec, err := UnmarshalVaultRecord(env.Data)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifyDerived(addr, rec.Bump, VaultSeeds(rec.Authority), e.controller); err != nil {
		return nil, nil, err
	}
	return env, rec, nil
}

func (e *Engine) storeUser(l Ledger, addr Address, env *Envelope, rec *UserRecord) error {
	data, err := MarshalUserRecord(rec)
	if err != nil {
		return err
	}
	env.Data = data
	return l.PutRecord(addr, env)
}

func (e *Engine) storeVault(l Ledger, addr Address, env *Envelope, rec *VaultRecord) error {
	data, err := MarshalVaultRecord(rec)
	if err != nil {
		return err
	}
	env.Data = data
	return l.PutRecord(addr, env)
}
