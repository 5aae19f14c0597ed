// Package vault implements the KeysAccount/Keyring/Vault aggregate of
// spec §3–§4: the encrypted key-store, its derivation discipline and
// the PSBT signing algorithm.
package vault

import (
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/pandoracore/keyring/internal/cryptocore"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Account is a KeysAccount (spec §3): an encrypted-seed-plus-extended-
// public-key capsule representing a single derivable key. The private
// half is never held in this struct outside the single call that needs
// it (Decrypt/DeriveRelative/SignDigest all wipe it before returning).
type Account struct {
	Xpubkey    *hdkeychain.ExtendedKey
	Encrypted  []byte
	Unblinding *secp256k1.PublicKey
	Name       string
	Details    string
	Assets     map[model.AssetId]struct{}
}

// NewMasterAccount implements spec §4.2.1: draw fresh entropy, derive a
// BIP32 master key under the SLIP-132 version for (chain, application),
// ElGamal-encrypt its serialization under encryptionKey, and wipe every
// intermediate secret before returning.
func NewMasterAccount(
	name, details string,
	assets []model.AssetId,
	chain model.Chain,
	app model.KeyApplication,
	encryptionKey *secp256k1.PublicKey,
) (*Account, error) {
	privVersion, pubVersion, err := cryptocore.ResolveVersions(chain, app)
	if err != nil {
		return nil, err
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrPrivkeyGeneration, "reading seed entropy: %w", err)
	}

	xpriv, err := cryptocore.MasterFromSeed(seed, privVersion)
	cryptocore.Wipe(seed)
	if err != nil {
		return nil, err
	}

	return finishAccountFromXpriv(xpriv, pubVersion, name, details, assets, encryptionKey)
}

// finishAccountFromXpriv carries out steps 4–9 of §4.2.1/§4.2.3: neuter,
// encrypt, wipe, emit. xpriv is consumed and wiped by this call.
func finishAccountFromXpriv(
	xpriv *hdkeychain.ExtendedKey,
	pubVersion [4]byte,
	name, details string,
	assets []model.AssetId,
	encryptionKey *secp256k1.PublicKey,
) (*Account, error) {
	defer xpriv.Zero()

	xprivRaw, err := cryptocore.SerializeRaw(xpriv)
	if err != nil {
		return nil, err
	}
	defer cryptocore.Wipe(xprivRaw)

	xpub, err := neuterWithVersion(xpriv, pubVersion)
	if err != nil {
		return nil, err
	}

	encrypted, unblinding, err := cryptocore.Encrypt(xprivRaw, encryptionKey)
	if err != nil {
		return nil, err
	}

	assetSet := make(map[model.AssetId]struct{}, len(assets))
	for _, a := range assets {
		assetSet[a] = struct{}{}
	}

	return &Account{
		Xpubkey:    xpub,
		Encrypted:  encrypted,
		Unblinding: unblinding,
		Name:       name,
		Details:    details,
		Assets:     assetSet,
	}, nil
}

// neuterWithVersion neuters xpriv and re-stamps the resulting public key
// with pubVersion, in case the chaincfg HD key ID registry hasn't been
// primed for this exact version pair (e.g. in tests that construct a
// resolver table ad hoc).
func neuterWithVersion(xpriv *hdkeychain.ExtendedKey, pubVersion [4]byte) (*hdkeychain.ExtendedKey, error) {
	xpub, err := cryptocore.Neuter(xpriv)
	if err == nil {
		return xpub, nil
	}

	// Fall back to manual construction from the raw components; this
	// keeps Neuter working even for version pairs the process-global
	// registry doesn't know about.
	pubKey, pkErr := xpriv.ECPubKey()
	if pkErr != nil {
		return nil, err
	}
	built := hdkeychain.NewExtendedKey(
		pubVersion[:],
		pubKey.SerializeCompressed(),
		chainCodeOf(xpriv),
		parentFPOf(xpriv),
		xpriv.Depth(),
		xpriv.ChildIndex(),
		false,
	)
	return built, nil
}

func chainCodeOf(key *hdkeychain.ExtendedKey) []byte {
	raw, err := cryptocore.SerializeRaw(key)
	if err != nil {
		return nil
	}
	// version(4) depth(1) parentFP(4) childNum(4) chainCode(32) keyData(33)
	return raw[13:45]
}

func parentFPOf(key *hdkeychain.ExtendedKey) []byte {
	raw, err := cryptocore.SerializeRaw(key)
	if err != nil {
		return nil
	}
	return raw[5:9]
}

// XpubId returns the hash-derived identifier of the account's extended
// public key (§3: 160-bit HASH160 of the 33-byte compressed pubkey).
func (a *Account) XpubId() (model.XpubId, error) {
	var id model.XpubId
	pub, err := a.Xpubkey.ECPubKey()
	if err != nil {
		return id, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "reading public key: %w", err)
	}
	copy(id[:], btcutil.Hash160(pub.SerializeCompressed()))
	return id, nil
}

// Decrypt implements spec §4.2.2: decrypt, parse as a 78-byte extended
// private key, and wipe decryptionKey in place before returning on every
// exit path.
func (a *Account) Decrypt(decryptionKey []byte) (*hdkeychain.ExtendedKey, error) {
	defer cryptocore.Wipe(decryptionKey)

	plaintext, err := cryptocore.Decrypt(a.Encrypted, decryptionKey, a.Unblinding)
	if err != nil {
		return nil, err
	}
	defer cryptocore.Wipe(plaintext)

	xpriv, err := cryptocore.ParseRaw(plaintext)
	if err != nil {
		return nil, err
	}
	return xpriv, nil
}

// DeriveRelative implements spec §4.2.3: decrypt the parent, verify it
// matches this account's xpubkey, derive along path (hardened steps now
// possible since the parent xpriv is in hand), and re-encrypt under a
// fresh encryption key derived from the caller's decryptionKey.
func (a *Account) DeriveRelative(
	path model.DerivationPath,
	name, details string,
	assets []model.AssetId,
	decryptionKey []byte,
) (*Account, error) {
	// encryptionKey = G * decryptionKey must be computed before Decrypt
	// wipes decryptionKey out from under us.
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(decryptionKey); overflow || scalar.IsZero() {
		cryptocore.Wipe(decryptionKey)
		return nil, vaulterr.Wrapf(vaulterr.ErrGroupOverflow, "decryption key is not a valid secp256k1 scalar")
	}
	encryptionKey := secp256k1.NewPrivateKey(&scalar).PubKey()

	parentXpriv, err := a.Decrypt(decryptionKey)
	if err != nil {
		return nil, err
	}
	defer parentXpriv.Zero()

	parentPub, err := parentXpriv.Neuter()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrSecp256k1Broken, err)
	}
	if parentPub.String() != a.Xpubkey.String() {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "decrypted parent does not match stored xpubkey")
	}

	childXpriv, err := cryptocore.DerivePath(parentXpriv, path)
	if err != nil {
		return nil, err
	}

	pubVersion, err := pubVersionOf(a.Xpubkey)
	if err != nil {
		return nil, err
	}

	return finishAccountFromXpriv(childXpriv, pubVersion, name, details, assets, encryptionKey)
}

// pubVersionOf extracts the 4-byte version prefix a public extended key
// already carries, so re-derivation downstream keeps the same SLIP-132
// application/chain stamp as its parent.
func pubVersionOf(xpub *hdkeychain.ExtendedKey) ([4]byte, error) {
	var v [4]byte
	raw, err := cryptocore.SerializeRaw(xpub)
	if err != nil {
		return v, err
	}
	copy(v[:], raw[:4])
	return v, nil
}

// SignDigest implements spec §4.2.4: decrypt, sign h with deterministic
// ECDSA, wipe the decrypted xpriv, return the signature.
func (a *Account) SignDigest(h []byte, decryptionKey []byte) ([]byte, error) {
	xpriv, err := a.Decrypt(decryptionKey)
	if err != nil {
		return nil, err
	}
	defer xpriv.Zero()

	privKey, err := xpriv.ECPrivKey()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrSecp256k1Broken, err)
	}
	defer zeroECPrivKey(privKey)

	return cryptocore.SignDigest(privKey, h)
}

func zeroECPrivKey(k *btcec.PrivateKey) {
	k.Zero()
}

// AssetMode is the modification kind spec §4.2.5 allows for an Update's
// asset list.
type AssetMode int

const (
	AssetAdd AssetMode = iota
	AssetReplace
	AssetRemoveIgnore
	AssetRemoveOrFail
)

// AssetUpdate bundles an AssetMode with the asset ids it applies to.
type AssetUpdate struct {
	Mode   AssetMode
	Assets []model.AssetId
}

// Update implements spec §4.2.5: optionally rename/re-describe the
// account and/or mutate its asset set, returning an asset count: for
// Add, the number of ids requested (including ids already present); for
// Replace, the old set's size plus the new set's size; for the two
// remove modes, the number of ids removed; 0 when op is nil. A nil
// name/details/op leaves that field untouched. An empty update
// (nothing provided) is rejected with ErrNoOp (§4.2.5).
func (a *Account) Update(name, details *string, op *AssetUpdate) (int, error) {
	if name == nil && details == nil && op == nil {
		return 0, vaulterr.ErrNoOp
	}

	if name != nil {
		a.Name = *name
	}
	if details != nil {
		a.Details = *details
	}

	if op == nil {
		return 0, nil
	}

	changed := 0
	switch op.Mode {
	case AssetAdd:
		changed = len(op.Assets)
		for _, id := range op.Assets {
			a.Assets[id] = struct{}{}
		}
	case AssetReplace:
		changed = len(a.Assets) + len(op.Assets)
		a.Assets = make(map[model.AssetId]struct{}, len(op.Assets))
		for _, id := range op.Assets {
			a.Assets[id] = struct{}{}
		}
	case AssetRemoveIgnore:
		for _, id := range op.Assets {
			if _, exists := a.Assets[id]; exists {
				delete(a.Assets, id)
				changed++
			}
		}
	case AssetRemoveOrFail:
		var missing []model.AssetId
		for _, id := range op.Assets {
			if _, exists := a.Assets[id]; !exists {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return 0, vaulterr.NewAssetIds(missing)
		}
		for _, id := range op.Assets {
			delete(a.Assets, id)
			changed++
		}
	default:
		return 0, vaulterr.Wrapf(vaulterr.ErrNoOp, "unknown asset update mode %d", op.Mode)
	}

	return changed, nil
}
