package node

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"warden.dev/warden/crypto"
	"warden.dev/warden/engine"
	"warden.dev/warden/node/store"
)

// Server exposes the engine's operations over HTTP. Every mutating request
// carries ed25519 signatures over the operation digest; the server verifies
// them into an authorization context before the engine sees the request, so
// no authority identity ever arrives as trusted plain input.
type Server struct {
	db   *store.DB
	eng  *engine.Engine
	prov crypto.Provider
}

func NewServer(db *store.DB, eng *engine.Engine, prov crypto.Provider) *Server {
	return &Server{db: db, eng: eng, prov: prov}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/accounts/:address", s.handleGetAccount)
	v1.GET("/balances/:identity", s.handleGetBalance)
	v1.POST("/ops", s.handleOp)
	return r
}

type wireSignature struct {
	PubkeyHex    string `json:"pubkey"`
	SignatureHex string `json:"signature"`
}

type opRequest struct {
	Op         string          `json:"op"`
	Params     json.RawMessage `json:"params"`
	Signatures []wireSignature `json:"signatures"`
	Readonly   []string        `json:"readonly,omitempty"`
}

type opError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"controller": s.eng.Controller().Hex(),
	})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	addr, err := engine.AddressFromHex(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}

	var env *engine.Envelope
	err = s.db.View(func(l engine.Ledger) error {
		var verr error
		env, verr = l.GetRecord(addr)
		return verr
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if env == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record at address"})
		return
	}
	c.JSON(http.StatusOK, describeEnvelope(addr, env))
}

func (s *Server) handleGetBalance(c *gin.Context) {
	id, err := engine.AddressFromHex(c.Param("identity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
		return
	}
	var bal uint64
	err = s.db.View(func(l engine.Ledger) error {
		var verr error
		bal, verr = l.Balance(id)
		return verr
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": id.Hex(), "balance": bal})
}

func (s *Server) handleOp(c *gin.Context) {
	var req opRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request: " + err.Error()})
		return
	}
	if req.Op == "" || len(req.Op) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid op name"})
		return
	}

	sigs := make([]OpSignature, 0, len(req.Signatures))
	for _, ws := range req.Signatures {
		pub, err1 := hex.DecodeString(ws.PubkeyHex)
		sig, err2 := hex.DecodeString(ws.SignatureHex)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature encoding"})
			return
		}
		sigs = append(sigs, OpSignature{Pubkey: pub, Signature: sig})
	}
	readonly := make([]engine.Address, 0, len(req.Readonly))
	for _, r := range req.Readonly {
		id, err := engine.AddressFromHex(r)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid readonly identity"})
			return
		}
		readonly = append(readonly, id)
	}

	digest := OpDigest(s.prov, req.Op, req.Params)
	auth, err := BuildAuthContext(s.prov, digest, sigs, readonly)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	result, err := s.dispatch(req.Op, req.Params, auth)
	if err != nil {
		code := engine.CodeOf(err)
		if code == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusForCode(code), opError{Code: string(code), Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func statusForCode(code engine.ErrorCode) int {
	switch code {
	case engine.ACC_ERR_NOT_FOUND:
		return http.StatusNotFound
	case engine.ACC_ERR_UNAUTHORIZED, engine.ACC_ERR_SIGNATURE_MISSING:
		return http.StatusForbidden
	case engine.ACC_ERR_PARSE:
		return http.StatusBadRequest
	case engine.ACC_ERR_EXISTS:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func describeEnvelope(addr engine.Address, env *engine.Envelope) gin.H {
	out := gin.H{
		"address": addr.Hex(),
		"owner":   env.Owner.Hex(),
		"value":   env.Value,
	}
	if env.Tombstoned() {
		out["schema"] = "tombstone"
		return out
	}
	if u, err := engine.UnmarshalUserRecord(env.Data); err == nil {
		out["schema"] = "user"
		out["record"] = gin.H{
			"authority": u.Authority.Hex(),
			"name":      u.Name,
			"points":    u.Points,
			"bump":      u.Bump,
		}
		return out
	}
	if v, err := engine.UnmarshalVaultRecord(env.Data); err == nil {
		out["schema"] = "vault"
		out["record"] = gin.H{
			"authority": v.Authority.Hex(),
			"balance":   v.Balance,
			"bump":      v.Bump,
			"locked":    v.Locked,
		}
		return out
	}
	out["schema"] = "unknown"
	return out
}
