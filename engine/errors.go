package engine

import "fmt"

type ErrorCode string

const (
	ACC_ERR_PARSE               ErrorCode = "ACC_ERR_PARSE"
	ACC_ERR_NOT_FOUND           ErrorCode = "ACC_ERR_NOT_FOUND"
	ACC_ERR_EXISTS              ErrorCode = "ACC_ERR_EXISTS"
	ACC_ERR_DERIVATION_MISMATCH ErrorCode = "ACC_ERR_DERIVATION_MISMATCH"
	ACC_ERR_BUMP_NONCANONICAL   ErrorCode = "ACC_ERR_BUMP_NONCANONICAL"
	ACC_ERR_OWNER_MISMATCH      ErrorCode = "ACC_ERR_OWNER_MISMATCH"
	ACC_ERR_SCHEMA_MISMATCH     ErrorCode = "ACC_ERR_SCHEMA_MISMATCH"
	ACC_ERR_UNAUTHORIZED        ErrorCode = "ACC_ERR_UNAUTHORIZED"
	ACC_ERR_SIGNATURE_MISSING   ErrorCode = "ACC_ERR_SIGNATURE_MISSING"

	OP_ERR_AMOUNT_INVALID     ErrorCode = "OP_ERR_AMOUNT_INVALID"
	OP_ERR_INSUFFICIENT_FUNDS ErrorCode = "OP_ERR_INSUFFICIENT_FUNDS"
	OP_ERR_OVERFLOW           ErrorCode = "OP_ERR_OVERFLOW"
	OP_ERR_REENTRANT          ErrorCode = "OP_ERR_REENTRANT"
	OP_ERR_TARGET_UNTRUSTED   ErrorCode = "OP_ERR_TARGET_UNTRUSTED"
	OP_ERR_CALL_FAILED        ErrorCode = "OP_ERR_CALL_FAILED"
	OP_ERR_NOT_REPAID         ErrorCode = "OP_ERR_NOT_REPAID"
	OP_ERR_STATE_CHANGED      ErrorCode = "OP_ERR_STATE_CHANGED"
	OP_ERR_DEST_INVALID       ErrorCode = "OP_ERR_DEST_INVALID"
	OP_ERR_NOT_EMPTY          ErrorCode = "OP_ERR_NOT_EMPTY"
)

type ProgError struct {
	Code ErrorCode
	Msg  string
}

func (e *ProgError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func perr(code ErrorCode, msg string) error {
	return &ProgError{Code: code, Msg: msg}
}

// CodeOf extracts the ErrorCode from an error produced by this package.
// Returns "" for nil or foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*ProgError); ok {
		return pe.Code
	}
	return ""
}
