package engine

// TargetRegistry is the fixed allow-list of external call targets. It is
// built once at startup from node configuration and passed to the engine as
// a capability; there is no mutation path after construction.
type TargetRegistry struct {
	targets map[Address]struct{}
}

func NewTargetRegistry(targets ...Address) *TargetRegistry {
	r := &TargetRegistry{targets: make(map[Address]struct{}, len(targets))}
	for _, t := range targets {
		r.targets[t] = struct{}{}
	}
	return r
}

func (r *TargetRegistry) Trusted(target Address) bool {
	if r == nil {
		return false
	}
	_, ok := r.targets[target]
	return ok
}

// Invocation is one delegation to an external call target: the target
// identity, the minimal account set it may touch, and opaque call data.
// Supplied per operation, never persisted.
type Invocation struct {
	Target   Address
	Accounts []Address
	Data     []byte
}

// Invoker is the delegation primitive supplied by the execution environment.
// The invoked target runs arbitrary logic against the same ledger session,
// including re-entering this program through any entry point, before Invoke
// returns. A nil error is the only success signal; the engine never assumes
// success without it.
type Invoker interface {
	Invoke(l Ledger, call Invocation) error
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(l Ledger, call Invocation) error

func (f InvokerFunc) Invoke(l Ledger, call Invocation) error { return f(l, call) }
