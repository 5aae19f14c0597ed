// Package vaulterr defines the vault-layer error taxonomy from spec §7.
//
// Every member is a sentinel that callers can match with errors.Is, and
// carries a stable numeric code so the RPC dispatcher can populate
// Failure.code instead of always emitting 0.
package vaulterr

import (
	"errors"
	"fmt"

	"github.com/pandoracore/keyring/internal/model"
)

// Code is a stable numeric identifier for a taxonomy member.
type Code uint16

const (
	CodeUnspecified Code = iota
	CodePrivkeyGeneration
	CodeGroupOverflow
	CodeHardenedDerivation
	CodeSecretKeyCorrupted
	CodeNotEnoughMemory
	CodeSecp256k1Broken
	CodeDerivationAlreadyUsed
	CodeNotFound
	CodeAssetIds
	CodeNoOp
	CodeMasterAccount
	CodeInvalidDerivationPath
	CodeResolverFailure
	CodeDriver
)

// vaultError is a taxonomy member; it wraps an optional underlying cause.
type vaultError struct {
	code Code
	msg  string
	err  error
}

func (e *vaultError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *vaultError) Unwrap() error { return e.err }

// Is matches by sentinel identity (same taxonomy member), not by cause.
func (e *vaultError) Is(target error) bool {
	t, ok := target.(*vaultError)
	return ok && t.code == e.code
}

// Sentinel taxonomy members. Each is comparable with errors.Is because
// it is a distinct pointer value; Wrap/Wrapf attach a cause without
// losing that identity thanks to Is above.
var (
	ErrPrivkeyGeneration     = &vaultError{code: CodePrivkeyGeneration, msg: "PrivkeyGeneration"}
	ErrGroupOverflow         = &vaultError{code: CodeGroupOverflow, msg: "GroupOverflow"}
	ErrHardenedDerivation    = &vaultError{code: CodeHardenedDerivation, msg: "HardenedDerivation"}
	ErrSecretKeyCorrupted    = &vaultError{code: CodeSecretKeyCorrupted, msg: "SecretKeyCorrupted"}
	ErrNotEnoughMemory       = &vaultError{code: CodeNotEnoughMemory, msg: "NotEnoughMemory"}
	ErrSecp256k1Broken       = &vaultError{code: CodeSecp256k1Broken, msg: "Secp256k1Broken"}
	ErrDerivationAlreadyUsed = &vaultError{code: CodeDerivationAlreadyUsed, msg: "DerivationAlreadyUsed"}
	ErrNotFound              = &vaultError{code: CodeNotFound, msg: "NotFound"}
	ErrNoOp                  = &vaultError{code: CodeNoOp, msg: "NoOp"}
	ErrMasterAccount         = &vaultError{code: CodeMasterAccount, msg: "MasterAccount"}
	ErrInvalidDerivationPath = &vaultError{code: CodeInvalidDerivationPath, msg: "InvalidDerivationPath"}
	ErrResolverFailure       = &vaultError{code: CodeResolverFailure, msg: "ResolverFailure"}
	ErrDriver                = &vaultError{code: CodeDriver, msg: "Driver"}
)

// Wrap attaches a cause to a sentinel while preserving its errors.Is identity.
func Wrap(sentinel error, cause error) error {
	se := sentinel.(*vaultError)
	return &vaultError{code: se.code, msg: se.msg, err: cause}
}

// Wrapf attaches a formatted cause to a sentinel.
func Wrapf(sentinel error, format string, args ...any) error {
	return Wrap(sentinel, fmt.Errorf(format, args...))
}

// CodeOf returns the stable numeric code of err, walking its Unwrap chain.
// Returns CodeUnspecified (and CodeAssetIds for *AssetIds) when err does
// not carry a taxonomy code.
func CodeOf(err error) Code {
	var ve *vaultError
	if errors.As(err, &ve) {
		return ve.code
	}
	var ai *AssetIds
	if errors.As(err, &ai) {
		return CodeAssetIds
	}
	return CodeUnspecified
}

// AssetIds is the parameterized error carrying the set of asset ids that
// were missing during a RemoveOrFail update (§4.2.5).
type AssetIds struct {
	Missing []model.AssetId
}

func (e *AssetIds) Error() string {
	return fmt.Sprintf("AssetIds: %d missing", len(e.Missing))
}

func (e *AssetIds) Is(target error) bool {
	_, ok := target.(*AssetIds)
	return ok
}

// NewAssetIds builds the AssetIds error for a RemoveOrFail failure.
func NewAssetIds(missing []model.AssetId) error {
	return &AssetIds{Missing: missing}
}
