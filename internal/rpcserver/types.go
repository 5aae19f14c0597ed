// Package rpcserver implements the §6 request/reply surface over two
// transports that share one dispatcher: a gorilla/mux HTTP+JSON
// endpoint and a gorilla/websocket duplex socket. Framing itself is
// explicitly out of core scope (§4.7); this package is the one
// concrete choice a runnable daemon needs.
package rpcserver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pandoracore/keyring/internal/model"
)

// Request is the wire envelope for every RPC call: Method selects one
// of the §6 request variants, Params carries its method-specific
// fields, and AuthCode is opaque: the Dispatcher logs it at debug level
// and does not pass it to the vault.
type Request struct {
	Method   string          `json:"method"`
	Params   json.RawMessage `json:"params,omitempty"`
	AuthCode uint32          `json:"auth_code,omitempty"`
}

// Reply is the wire envelope for every RPC response. Type names which
// field is populated; every Reply variant from §6 has a home here.
type Reply struct {
	Type      string             `json:"type"`
	Failure   *FailureInfo       `json:"failure,omitempty"`
	Keylist   []model.AccountInfo `json:"keylist,omitempty"`
	Account   *model.AccountInfo  `json:"account,omitempty"`
	Xpub      string             `json:"xpub,omitempty"`
	Xpriv     string             `json:"xpriv,omitempty"`
	Signature HexString          `json:"signature,omitempty"`
	Psbt      HexString          `json:"psbt,omitempty"`
}

// FailureInfo mirrors §7's `Failure{code, info}` reply: code is the
// vaulterr.CodeOf value of the error (0 when it carries no taxonomy
// code), info is the printable rendering of the error.
type FailureInfo struct {
	Code uint16 `json:"code"`
	Info string `json:"info"`
}

// HexString is a byte blob that marshals as a lowercase hex string,
// matching the driver package's HexBytes convention for every
// byte-blob wire field (signatures, PSBTs) so the RPC layer never
// round-trips raw bytes through JSON's base64 default.
type HexString []byte

func (h HexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}
	*h = decoded
	return nil
}

func success() Reply { return Reply{Type: "success"} }

func failure(code uint16, info string) Reply {
	return Reply{Type: "failure", Failure: &FailureInfo{Code: code, Info: info}}
}

// --- Method-specific parameter payloads (§6 request variants) ---

type ListParams struct{}

type SeedParams struct {
	Name          string               `json:"name"`
	Details       string               `json:"details"`
	Chain         model.Chain          `json:"chain"`
	Application   model.KeyApplication `json:"application"`
	EncryptionKey HexString            `json:"encryption_key"`
}

type ExportXpubParams struct {
	KeyId model.XpubId `json:"key_id"`
}

type ExportXprivParams struct {
	KeyId         model.XpubId `json:"key_id"`
	DecryptionKey HexString    `json:"decryption_key"`
}

type DeriveParams struct {
	FromId        model.XpubId         `json:"from_id"`
	Path          model.DerivationPath `json:"path"`
	Name          string               `json:"name"`
	Details       string               `json:"details"`
	Assets        []model.AssetId      `json:"assets"`
	DecryptionKey HexString            `json:"decryption_key"`
}

type SignPsbtParams struct {
	Psbt          HexString `json:"psbt"`
	DecryptionKey HexString `json:"decryption_key"`
}

type SignKeyParams struct {
	KeyId         model.XpubId `json:"key_id"`
	DecryptionKey HexString    `json:"decryption_key"`
}

type SignDataParams struct {
	KeyId         model.XpubId `json:"key_id"`
	Data          HexString    `json:"data"`
	DecryptionKey HexString    `json:"decryption_key"`
}
