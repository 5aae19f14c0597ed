package model

import (
	"encoding/hex"
	"fmt"
)

// AssetId is an opaque 256-bit identifier labelling a blockchain asset.
type AssetId [32]byte

// String renders the id as lowercase hex.
func (a AssetId) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText renders a as lowercase hex, so JSON/YAML/TOML encoders
// that honor encoding.TextMarshaler (all three do) produce a hex string
// rather than an array of numbers.
func (a AssetId) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the lowercase-hex form produced by MarshalText.
func (a *AssetId) UnmarshalText(text []byte) error {
	id, err := ParseAssetId(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// ParseAssetId decodes a 64-character hex string into an AssetId.
func ParseAssetId(s string) (AssetId, error) {
	var id AssetId
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid asset id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid asset id length: got %d want %d", len(b), len(id))
	}
	copy(id[:], b)
	return id, nil
}

// Chain is an enumerated blockchain network.
type Chain string

const (
	ChainMainnet Chain = "mainnet"
	ChainTestnet Chain = "testnet"
	ChainSignet  Chain = "signet"
	ChainRegtest Chain = "regtest"
)

// Valid reports whether c is one of the recognized network variants.
func (c Chain) Valid() bool {
	switch c {
	case ChainMainnet, ChainTestnet, ChainSignet, ChainRegtest:
		return true
	default:
		return false
	}
}

// KeyApplication is the enumerated script scope of a key. It determines
// the BIP32 extended-key version bytes via SLIP-132 resolution.
type KeyApplication string

const (
	AppPKH       KeyApplication = "pkh"
	AppSH        KeyApplication = "sh"
	AppWPKH      KeyApplication = "wpkh"
	AppWSH       KeyApplication = "wsh"
	AppWPKHInSH  KeyApplication = "wpkh-in-sh"
	AppWSHInSH   KeyApplication = "wsh-in-sh"
)

// Valid reports whether a is one of the recognized script scopes.
func (a KeyApplication) Valid() bool {
	switch a {
	case AppPKH, AppSH, AppWPKH, AppWSH, AppWPKHInSH, AppWSHInSH:
		return true
	default:
		return false
	}
}

// XpubId is the 160-bit hash-derived identifier of an extended public key.
type XpubId [20]byte

func (x XpubId) String() string {
	return hex.EncodeToString(x[:])
}

// ParseXpubId decodes a 40-character hex string into an XpubId.
func ParseXpubId(s string) (XpubId, error) {
	var id XpubId
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid xpub id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid xpub id length: got %d want %d", len(b), len(id))
	}
	copy(id[:], b)
	return id, nil
}

// MarshalText renders x as lowercase hex.
func (x XpubId) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText parses the lowercase-hex form produced by MarshalText.
func (x *XpubId) UnmarshalText(text []byte) error {
	id, err := ParseXpubId(string(text))
	if err != nil {
		return err
	}
	*x = id
	return nil
}

// Fingerprint is the 32-bit prefix of an XpubId.
type Fingerprint [4]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// MarshalText renders f as lowercase hex.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses the lowercase-hex form produced by MarshalText.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid fingerprint: %w", err)
	}
	if len(b) != len(f) {
		return fmt.Errorf("invalid fingerprint length: got %d want %d", len(b), len(f))
	}
	copy(f[:], b)
	return nil
}

// FingerprintOf returns the fingerprint of an XpubId.
func FingerprintOf(id XpubId) Fingerprint {
	var fp Fingerprint
	copy(fp[:], id[:4])
	return fp
}

// KeySource pairs a parent fingerprint with the derivation path relative
// to it. It is present on keyrings that are themselves derivations of an
// external master (outside this vault's custody).
type KeySource struct {
	ParentFingerprint Fingerprint
	Path              DerivationPath
}
