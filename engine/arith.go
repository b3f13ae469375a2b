package engine

// checkedAdd returns a+b, or OP_ERR_OVERFLOW when the sum would exceed uint64.
func checkedAdd(a, b uint64) (uint64, error) {
	if b > (^uint64(0) - a) {
		return 0, perr(OP_ERR_OVERFLOW, "u64 addition overflow")
	}
	return a + b, nil
}

// checkedSub returns a-b, or OP_ERR_INSUFFICIENT_FUNDS when b exceeds a.
func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, perr(OP_ERR_INSUFFICIENT_FUNDS, "u64 subtraction underflow")
	}
	return a - b, nil
}
