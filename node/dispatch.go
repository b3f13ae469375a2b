package node

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"warden.dev/warden/engine"
)

// Operation names accepted by POST /v1/ops. Parameters are strict JSON: the
// signature covers the exact parameter bytes, so unknown fields are rejected
// rather than ignored.

func decodeParams(raw json.RawMessage, into any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return &engine.ProgError{Code: engine.ACC_ERR_PARSE, Msg: "invalid params: " + err.Error()}
	}
	return nil
}

type addrParam string

func (p addrParam) address() (engine.Address, error) {
	return engine.AddressFromHex(string(p))
}

func (s *Server) dispatch(op string, raw json.RawMessage, auth *engine.AuthContext) (gin.H, error) {
	switch op {
	case "initialize_user":
		var p struct {
			Authority addrParam `json:"authority"`
			Name      string    `json:"name"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		authority, err := p.Authority.address()
		if err != nil {
			return nil, err
		}
		var addr engine.Address
		err = s.db.Run(func(l engine.Ledger) error {
			var ierr error
			addr, ierr = s.eng.InitializeUser(l, auth, authority, p.Name)
			return ierr
		})
		if err != nil {
			return nil, err
		}
		return gin.H{"address": addr.Hex()}, nil

	case "initialize_vault":
		var p struct {
			Authority addrParam `json:"authority"`
			Initial   uint64    `json:"initial"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		authority, err := p.Authority.address()
		if err != nil {
			return nil, err
		}
		var addr engine.Address
		err = s.db.Run(func(l engine.Ledger) error {
			var ierr error
			addr, ierr = s.eng.InitializeVault(l, auth, authority, p.Initial)
			return ierr
		})
		if err != nil {
			return nil, err
		}
		return gin.H{"address": addr.Hex()}, nil

	case "transfer_points":
		var p struct {
			From   addrParam `json:"from"`
			To     addrParam `json:"to"`
			Amount uint64    `json:"amount"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		from, err := p.From.address()
		if err != nil {
			return nil, err
		}
		to, err := p.To.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.TransferPoints(l, auth, from, to, p.Amount)
		}))

	case "grant_points":
		var p struct {
			User   addrParam `json:"user"`
			Amount uint64    `json:"amount"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		user, err := p.User.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.GrantPoints(l, auth, user, p.Amount)
		}))

	case "withdraw", "deposit", "transfer_checked", "repay":
		var p struct {
			Vault  addrParam `json:"vault"`
			Amount uint64    `json:"amount"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			switch op {
			case "withdraw":
				return s.eng.Withdraw(l, auth, vault, p.Amount)
			case "deposit":
				return s.eng.Deposit(l, auth, vault, p.Amount)
			case "transfer_checked":
				return s.eng.TransferChecked(l, auth, vault, p.Amount)
			default:
				return s.eng.Repay(l, vault, p.Amount)
			}
		}))

	case "flash_loan":
		var p struct {
			Vault       addrParam `json:"vault"`
			Amount      uint64    `json:"amount"`
			ExpectedFee uint64    `json:"expected_fee"`
			Callback    addrParam `json:"callback"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		callback, err := p.Callback.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.FlashLoan(l, auth, vault, p.Amount, p.ExpectedFee, callback)
		}))

	case "swap":
		var p struct {
			Vault  addrParam `json:"vault"`
			Dex    addrParam `json:"dex"`
			Amount uint64    `json:"amount"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		dex, err := p.Dex.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.SwapViaDex(l, auth, vault, dex, p.Amount)
		}))

	case "execute_callback":
		var p struct {
			Vault   addrParam `json:"vault"`
			Target  addrParam `json:"target"`
			DataHex string    `json:"data,omitempty"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		target, err := p.Target.address()
		if err != nil {
			return nil, err
		}
		data, err := hex.DecodeString(p.DataHex)
		if err != nil {
			return nil, &engine.ProgError{Code: engine.ACC_ERR_PARSE, Msg: "invalid call data"}
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.ExecuteCallback(l, auth, vault, target, data)
		}))

	case "close_vault", "close_vault_if_empty":
		var p struct {
			Vault addrParam `json:"vault"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			if op == "close_vault_if_empty" {
				return s.eng.CloseVaultIfEmpty(l, auth, vault)
			}
			return s.eng.CloseVault(l, auth, vault)
		}))

	case "close_vault_to":
		var p struct {
			Vault       addrParam `json:"vault"`
			Destination addrParam `json:"destination"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		vault, err := p.Vault.address()
		if err != nil {
			return nil, err
		}
		dest, err := p.Destination.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.CloseVaultTo(l, auth, vault, dest)
		}))

	case "close_user":
		var p struct {
			User addrParam `json:"user"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		user, err := p.User.address()
		if err != nil {
			return nil, err
		}
		return okResult(s.db.Run(func(l engine.Ledger) error {
			return s.eng.CloseUser(l, auth, user)
		}))

	default:
		return nil, &engine.ProgError{Code: engine.ACC_ERR_PARSE, Msg: fmt.Sprintf("unknown op %q", op)}
	}
}

func okResult(err error) (gin.H, error) {
	if err != nil {
		return nil, err
	}
	return gin.H{"ok": true}, nil
}
