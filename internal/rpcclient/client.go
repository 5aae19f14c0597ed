// Package rpcclient is the matching client for internal/rpcserver,
// used by cmd/keyring-cli to talk to a running keyringd over HTTP+JSON.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pandoracore/keyring/internal/rpcserver"
)

// Client calls a keyringd's POST /rpc endpoint. It is deliberately
// thin: one Call method, no retry/failover policy, since a CLI talking
// to a single local daemon has none of the multi-endpoint concerns the
// upstream chain-adapter RPC client carries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a Client against baseURL (e.g. "http://127.0.0.1:8787").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call sends req to /rpc and decodes the Reply. A failed HTTP round
// trip surfaces as a Go error prefixed "transport:", a request or
// response body that cannot be encoded or decoded as one prefixed
// "message:", and a non-2xx status whose body carries no reply type as
// an "unexpected_server_response" error. A well-formed Failure reply
// (whatever its HTTP status) is returned as a normal (non-error) Reply
// for the caller to inspect via reply.Type == "failure".
func (c *Client) Call(req rpcserver.Request) (rpcserver.Reply, error) {
	var reply rpcserver.Reply

	body, err := json.Marshal(req)
	if err != nil {
		return reply, fmt.Errorf("message: encoding request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/rpc", "application/json", bytes.NewReader(body))
	if err != nil {
		return reply, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return reply, fmt.Errorf("message: decoding reply: %w", err)
	}
	if resp.StatusCode >= 300 && reply.Type == "" {
		return reply, fmt.Errorf("unexpected_server_response: HTTP %d", resp.StatusCode)
	}
	return reply, nil
}

// List calls the "list" method.
func (c *Client) List() (rpcserver.Reply, error) {
	return c.Call(rpcserver.Request{Method: "list"})
}

// Seed calls the "seed" method with p marshaled as Params.
func (c *Client) Seed(p rpcserver.SeedParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("seed", p, authCode)
}

// ExportXpub calls the "export_xpub" method.
func (c *Client) ExportXpub(p rpcserver.ExportXpubParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("export_xpub", p, authCode)
}

// ExportXpriv calls the "export_xpriv" method.
func (c *Client) ExportXpriv(p rpcserver.ExportXprivParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("export_xpriv", p, authCode)
}

// Derive calls the "derive" method.
func (c *Client) Derive(p rpcserver.DeriveParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("derive", p, authCode)
}

// SignPsbt calls the "sign_psbt" method.
func (c *Client) SignPsbt(p rpcserver.SignPsbtParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("sign_psbt", p, authCode)
}

// SignKey calls the "sign_key" method.
func (c *Client) SignKey(p rpcserver.SignKeyParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("sign_key", p, authCode)
}

// SignData calls the "sign_data" method.
func (c *Client) SignData(p rpcserver.SignDataParams, authCode uint32) (rpcserver.Reply, error) {
	return c.callWithParams("sign_data", p, authCode)
}

func (c *Client) callWithParams(method string, params any, authCode uint32) (rpcserver.Reply, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return rpcserver.Reply{}, fmt.Errorf("message: encoding params: %w", err)
	}
	return c.Call(rpcserver.Request{Method: method, Params: raw, AuthCode: authCode})
}
