package driver

import (
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/pandoracore/keyring/internal/cryptocore"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vault"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// AccountState is the §6 persisted form of a KeysAccount: the five
// fields of §3, with byte blobs hex-encoded in text formats (see
// HexBytes) and the asset set flattened to a sorted, stable-order list.
type AccountState struct {
	Xpubkey    HexBytes `yaml:"xpubkey" toml:"xpubkey" json:"xpubkey"`
	Encrypted  HexBytes `yaml:"encrypted" toml:"encrypted" json:"encrypted"`
	Unblinding HexBytes `yaml:"unblinding" toml:"unblinding" json:"unblinding"`
	Name       string   `yaml:"name" toml:"name" json:"name"`
	Details    string   `yaml:"details" toml:"details" json:"details"`
	Assets     []string `yaml:"assets" toml:"assets" json:"assets"`
}

// SubAccountState pairs an AccountState with its absolute path, the
// ordered-sequence element of §6's "sub_accounts as an ordered sequence
// of (DerivationPath, KeysAccount) pairs".
type SubAccountState struct {
	Path    []uint32 `yaml:"path" toml:"path" json:"path"`
	Account AccountState `yaml:"account" toml:"account" json:"account"`
}

// KeySourceState is the persisted optional KeySource.
type KeySourceState struct {
	ParentFingerprint HexBytes `yaml:"parent_fingerprint" toml:"parent_fingerprint" json:"parent_fingerprint"`
	Path              []uint32 `yaml:"path" toml:"path" json:"path"`
}

// KeyringState is one Keyring's persisted form.
type KeyringState struct {
	Master      AccountState      `yaml:"master" toml:"master" json:"master"`
	KeySource   *KeySourceState   `yaml:"key_source,omitempty" toml:"key_source,omitempty" json:"key_source,omitempty"`
	SubAccounts []SubAccountState `yaml:"sub_accounts" toml:"sub_accounts" json:"sub_accounts"`
}

// VaultState is the top-level on-disk artifact: an ordered sequence of
// Keyrings (§6 "Persisted state layout").
type VaultState struct {
	Keyrings []KeyringState `yaml:"keyrings" toml:"keyrings" json:"keyrings"`
}

func accountToState(a *vault.Account) (AccountState, error) {
	xpubRaw, err := cryptocore.SerializeRaw(a.Xpubkey)
	if err != nil {
		return AccountState{}, err
	}

	assets := make([]string, 0, len(a.Assets))
	for id := range a.Assets {
		assets = append(assets, id.String())
	}
	sort.Strings(assets)

	return AccountState{
		Xpubkey:    HexBytes(xpubRaw),
		Encrypted:  HexBytes(a.Encrypted),
		Unblinding: HexBytes(a.Unblinding.SerializeCompressed()),
		Name:       a.Name,
		Details:    a.Details,
		Assets:     assets,
	}, nil
}

func accountFromState(s AccountState) (*vault.Account, error) {
	xpub, err := cryptocore.ParseRaw(s.Xpubkey)
	if err != nil {
		return nil, err
	}
	unblinding, err := secp256k1.ParsePubKey(s.Unblinding)
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "parsing unblinding key: %w", err)
	}

	assets := make(map[model.AssetId]struct{}, len(s.Assets))
	for _, hexId := range s.Assets {
		id, err := model.ParseAssetId(hexId)
		if err != nil {
			return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "parsing asset id: %w", err)
		}
		assets[id] = struct{}{}
	}

	return &vault.Account{
		Xpubkey:    xpub,
		Encrypted:  []byte(s.Encrypted),
		Unblinding: unblinding,
		Name:       s.Name,
		Details:    s.Details,
		Assets:     assets,
	}, nil
}

func keyringToState(k *vault.Keyring) (KeyringState, error) {
	master, err := accountToState(k.Master)
	if err != nil {
		return KeyringState{}, err
	}

	var keySource *KeySourceState
	if k.KeySource != nil {
		keySource = &KeySourceState{
			ParentFingerprint: HexBytes(k.KeySource.ParentFingerprint[:]),
			Path:              []uint32(k.KeySource.Path),
		}
	}

	subs := k.SubAccounts()
	out := make([]SubAccountState, 0, len(subs))
	for _, e := range subs {
		accState, err := accountToState(e.Account)
		if err != nil {
			return KeyringState{}, err
		}
		out = append(out, SubAccountState{Path: []uint32(e.Path), Account: accState})
	}

	return KeyringState{Master: master, KeySource: keySource, SubAccounts: out}, nil
}

func keyringFromState(s KeyringState) (*vault.Keyring, error) {
	master, err := accountFromState(s.Master)
	if err != nil {
		return nil, err
	}

	var keySource *model.KeySource
	if s.KeySource != nil {
		var fp model.Fingerprint
		copy(fp[:], s.KeySource.ParentFingerprint)
		keySource = &model.KeySource{ParentFingerprint: fp, Path: model.DerivationPath(s.KeySource.Path)}
	}

	entries := make([]vault.AccountEntry, 0, len(s.SubAccounts))
	for _, sub := range s.SubAccounts {
		acc, err := accountFromState(sub.Account)
		if err != nil {
			return nil, err
		}
		entries = append(entries, vault.AccountEntry{Path: model.DerivationPath(sub.Path), Account: acc})
	}

	return vault.Restore(keySource, master, entries), nil
}

// ToVaultState converts the in-memory keyring sequence to its persisted
// form.
func ToVaultState(keyrings []*vault.Keyring) (VaultState, error) {
	out := VaultState{Keyrings: make([]KeyringState, 0, len(keyrings))}
	for _, k := range keyrings {
		ks, err := keyringToState(k)
		if err != nil {
			return VaultState{}, err
		}
		out.Keyrings = append(out.Keyrings, ks)
	}
	return out, nil
}

// FromVaultState reconstructs the in-memory keyring sequence from its
// persisted form.
func FromVaultState(s VaultState) ([]*vault.Keyring, error) {
	out := make([]*vault.Keyring, 0, len(s.Keyrings))
	for _, ks := range s.Keyrings {
		k, err := keyringFromState(ks)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
