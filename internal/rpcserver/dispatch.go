package rpcserver

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"go.uber.org/zap"

	"github.com/pandoracore/keyring/internal/audit"
	"github.com/pandoracore/keyring/internal/ratelimit"
	"github.com/pandoracore/keyring/internal/vault"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// decryptBearingMethods are rate-limited per key id (§4.10): each
// forces the vault to attempt an ElGamal decryption under a
// caller-supplied key, which is exactly the operation a brute-force
// guess would hammer. sign_psbt is listed too, but its params carry no
// key_id, so requestKeyID yields no key for it and it is never throttled.
var decryptBearingMethods = map[string]bool{
	"export_xpriv": true,
	"sign_key":     true,
	"sign_data":    true,
	"sign_psbt":    true,
}

const (
	defaultRateLimitAttempts = 5
	defaultRateLimitWindow   = time.Minute
)

// Dispatcher turns one Request into one Reply by calling exactly one
// Vault method, matching §4.4.3's concurrency rule: one RPC maps to one
// vault method maps to at most one driver call. Besides the vault and a
// logger it holds the per-key-id rate limiter and an optional audit
// logger; the HTTP and websocket
// transports in server.go each wrap the same Dispatcher.
type Dispatcher struct {
	vault   *vault.Vault
	log     *zap.Logger
	limiter *ratelimit.Limiter
	audit   *audit.Logger
}

// NewDispatcher builds a Dispatcher over v. A nil log is replaced with
// a no-op logger. The rate limiter defaults to 5 attempts/minute per
// key id; set it explicitly with WithLimiter. Audit logging is off
// unless WithAudit is called.
func NewDispatcher(v *vault.Vault, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		vault:   v,
		log:     log,
		limiter: ratelimit.New(defaultRateLimitAttempts, defaultRateLimitWindow),
	}
}

// WithLimiter overrides the default rate limiter.
func (d *Dispatcher) WithLimiter(l *ratelimit.Limiter) *Dispatcher {
	d.limiter = l
	return d
}

// WithAudit attaches an audit logger; every dispatched request is then
// recorded regardless of outcome.
func (d *Dispatcher) WithAudit(a *audit.Logger) *Dispatcher {
	d.audit = a
	return d
}

// Dispatch decodes req.Params for the named method, calls the matching
// Vault method, and builds the Reply. Every error, whatever its
// source (bad params, vault failure), becomes a Failure reply per §7's
// propagation policy — no panic escapes this call.
func (d *Dispatcher) Dispatch(req Request) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch panic recovered", zap.Any("recover", r), zap.String("method", req.Method))
			reply = failure(uint16(vaulterr.CodeUnspecified), "internal error")
		}
		d.recordAudit(req, reply)
	}()

	d.log.Debug("dispatch", zap.String("method", req.Method), zap.Uint32("auth_code", req.AuthCode))

	if decryptBearingMethods[req.Method] {
		if keyID, ok := requestKeyID(req.Params); ok && !d.limiter.Allow(keyID) {
			return failure(uint16(vaulterr.CodeUnspecified), "rate limit exceeded for this key")
		}
	}

	switch req.Method {
	case "list":
		return d.list()
	case "seed":
		return d.seed(req.Params)
	case "export_xpub":
		return d.exportXpub(req.Params)
	case "export_xpriv":
		reply = d.exportXpriv(req.Params)
	case "derive":
		return d.derive(req.Params)
	case "sign_psbt":
		reply = d.signPsbt(req.Params)
	case "sign_key":
		reply = d.signKey(req.Params)
	case "sign_data":
		reply = d.signData(req.Params)
	default:
		return failure(uint16(vaulterr.CodeUnspecified), "unknown method: "+req.Method)
	}

	if decryptBearingMethods[req.Method] && reply.Type != "failure" {
		if keyID, ok := requestKeyID(req.Params); ok {
			d.limiter.Reset(keyID)
		}
	}
	return reply
}

// requestKeyID pulls the "key_id" field out of a request's raw params
// without fully decoding them into a method-specific struct, so the
// rate-limit check can run before dispatch picks a handler.
func requestKeyID(raw json.RawMessage) (string, bool) {
	var probe struct {
		KeyId string `json:"key_id"`
	}
	if len(raw) == 0 {
		return "", false
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.KeyId == "" {
		return "", false
	}
	return probe.KeyId, true
}

func (d *Dispatcher) recordAudit(req Request, reply Reply) {
	if d.audit == nil {
		return
	}
	entry := audit.Entry{Timestamp: time.Now(), Method: req.Method, Status: "success"}
	if keyID, ok := requestKeyID(req.Params); ok {
		entry.KeyId = keyID
	}
	if reply.Type == "failure" && reply.Failure != nil {
		entry.Status = "failure"
		entry.FailureReason = reply.Failure.Info
	}
	if err := d.audit.Log(entry); err != nil {
		d.log.Warn("audit log write failed", zap.Error(err))
	}
}

func failureFrom(err error) Reply {
	return failure(uint16(vaulterr.CodeOf(err)), err.Error())
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing params")
	}
	return json.Unmarshal(raw, v)
}

func (d *Dispatcher) list() Reply {
	accounts, err := d.vault.List()
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "keylist", Keylist: accounts}
}

func (d *Dispatcher) seed(raw json.RawMessage) Reply {
	var p SeedParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	encryptionKey, err := secp256k1.ParsePubKey(p.EncryptionKey)
	if err != nil {
		return failure(uint16(vaulterr.CodeSecp256k1Broken), err.Error())
	}

	info, err := d.vault.Seed(p.Name, p.Details, p.Chain, p.Application, encryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "account_info", Account: &info}
}

func (d *Dispatcher) exportXpub(raw json.RawMessage) Reply {
	var p ExportXpubParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	acc, err := d.vault.Xpub(p.KeyId)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "xpub", Xpub: acc.Xpubkey.String()}
}

func (d *Dispatcher) exportXpriv(raw json.RawMessage) Reply {
	var p ExportXprivParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	xpriv, err := d.vault.Xpriv(p.KeyId, p.DecryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	defer xpriv.Zero()
	return Reply{Type: "xpriv", Xpriv: xpriv.String()}
}

func (d *Dispatcher) derive(raw json.RawMessage) Reply {
	var p DeriveParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	info, err := d.vault.Derive(p.FromId, p.Path, p.Name, p.Details, p.Assets, p.DecryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "account_info", Account: &info}
}

func (d *Dispatcher) signPsbt(raw json.RawMessage) Reply {
	var p SignPsbtParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	signed, err := d.vault.SignPsbt(p.Psbt, p.DecryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "psbt", Psbt: signed}
}

func (d *Dispatcher) signKey(raw json.RawMessage) Reply {
	var p SignKeyParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	sig, err := d.vault.SignKey(p.KeyId, p.DecryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "signature", Signature: sig}
}

func (d *Dispatcher) signData(raw json.RawMessage) Reply {
	var p SignDataParams
	if err := decodeParams(raw, &p); err != nil {
		return failure(uint16(vaulterr.CodeUnspecified), err.Error())
	}

	sig, err := d.vault.SignData(p.KeyId, p.Data, p.DecryptionKey)
	if err != nil {
		return failureFrom(err)
	}
	return Reply{Type: "signature", Signature: sig}
}
