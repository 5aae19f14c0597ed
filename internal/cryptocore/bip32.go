package cryptocore

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

// serializedKeyLen is the size of a BIP32 extended key before its 4-byte
// checksum: version(4) + depth(1) + parentFP(4) + childNum(4) +
// chainCode(32) + keyData(33) = 78 bytes, per spec §3's KeysAccount
// serialization requirement.
const serializedKeyLen = 78

// MasterFromSeed derives a master extended private key from 32 bytes of
// entropy, stamped with the given SLIP-132 private version bytes. It
// reuses hdkeychain's BIP32 state machine (hardened bit handling, chain
// code HMAC, fingerprint bookkeeping) by constructing a throwaway
// chaincfg.Params that carries only the version bytes we want — the same
// trick real SLIP-132 wallets use to mint non-default zpub/ypub/etc.
func MasterFromSeed(seed []byte, privVersion [4]byte) (*hdkeychain.ExtendedKey, error) {
	params := &chaincfg.Params{HDPrivateKeyID: privVersion}
	key, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "deriving master key: %w", err)
	}
	return key, nil
}

// Child derives one BIP32 child step. Hardened steps (index >=
// model.HardenedStart) require key to hold a private extended key.
func Child(key *hdkeychain.ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	child, err := key.Derive(index)
	if err != nil {
		if err == hdkeychain.ErrDeriveHardFromPublic {
			return nil, vaulterr.Wrap(vaulterr.ErrHardenedDerivation, err)
		}
		if err == hdkeychain.ErrInvalidChild {
			// Negligible-probability event per BIP32; surfaced as
			// GroupOverflow since it is a curve-order wraparound.
			return nil, vaulterr.Wrap(vaulterr.ErrGroupOverflow, err)
		}
		return nil, vaulterr.Wrap(vaulterr.ErrSecp256k1Broken, err)
	}
	return child, nil
}

// DerivePath walks every step of path from key.
func DerivePath(key *hdkeychain.ExtendedKey, path []uint32) (*hdkeychain.ExtendedKey, error) {
	cur := key
	for _, idx := range path {
		next, err := Child(cur, idx)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Neuter converts a private extended key to its public counterpart,
// using the SLIP-132 version pairing registered by RegisterVersionPair.
func Neuter(key *hdkeychain.ExtendedKey) (*hdkeychain.ExtendedKey, error) {
	pub, err := key.Neuter()
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrResolverFailure, "neutering extended key: %w", err)
	}
	return pub, nil
}

// RegisterVersionPair registers a SLIP-132 (private, public) version byte
// pair with the btcd chaincfg registry so Neuter() resolves the correct
// public version for non-default (e.g. zpub/zprv, ypub/yprv) pairs.
// Double registration is tolerated (chaincfg returns an error the second
// time a given pair is registered; this package's init runs it once but
// callers of the library in tests may re-register harmlessly).
func RegisterVersionPair(privVersion, pubVersion [4]byte) {
	_ = chaincfg.RegisterHDKeyID(pubVersion[:], privVersion[:])
}

// SerializeRaw returns the 78-byte BIP32 serialization of key (version,
// depth, parent fingerprint, child number, chain code, key data) with no
// base58 encoding and no checksum — the exact plaintext form spec §4.2.1
// step 7 encrypts and §4.2.2 step 3 parses.
func SerializeRaw(key *hdkeychain.ExtendedKey) ([]byte, error) {
	decoded := base58.Decode(key.String())
	if len(decoded) != serializedKeyLen+4 {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "unexpected serialized key length %d", len(decoded))
	}
	raw := make([]byte, serializedKeyLen)
	copy(raw, decoded[:serializedKeyLen])
	return raw, nil
}

// ParseRaw reconstructs an ExtendedKey from the 78-byte raw form produced
// by SerializeRaw, re-deriving the checksum hdkeychain expects.
func ParseRaw(raw []byte) (*hdkeychain.ExtendedKey, error) {
	if len(raw) != serializedKeyLen {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "raw extended key must be %d bytes, got %d", serializedKeyLen, len(raw))
	}
	checksum := chainhash.DoubleHashB(raw)[:4]
	buf := make([]byte, 0, serializedKeyLen+4)
	buf = append(buf, raw...)
	buf = append(buf, checksum...)

	key, err := hdkeychain.NewKeyFromString(base58.Encode(buf))
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "parsing extended key: %w", err)
	}
	return key, nil
}
