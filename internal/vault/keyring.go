package vault

import (
	"sort"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Keyring implements spec §3's Keyring: a master account plus an ordered
// collection of sub-accounts reachable from it by relative derivation.
// Sub-accounts are keyed by their absolute path from the master, so a
// lookup for a path first finds the nearest registered ancestor and
// derives the remaining suffix (§4.3.1).
type Keyring struct {
	// KeySource is non-nil only when this keyring is itself a derivation
	// of an external wallet outside this vault's custody (§3).
	KeySource   *model.KeySource
	Master      *Account
	subaccounts map[string]*Account
	order       []model.DerivationPath
}

// NewKeyring wraps a freshly created master Account into a self-rooted
// Keyring (no external KeySource).
func NewKeyring(master *Account) (*Keyring, error) {
	return &Keyring{
		Master:      master,
		subaccounts: make(map[string]*Account),
	}, nil
}

func pathKey(p model.DerivationPath) string { return p.String() }

// nearestAncestor returns the registered account (master or sub-account)
// whose absolute path is the longest registered prefix of target, along
// with the path still remaining to derive.
func (k *Keyring) nearestAncestor(target model.DerivationPath) (*Account, model.DerivationPath, model.DerivationPath) {
	best := k.Master
	bestPath := model.DerivationPath{}

	for _, candidate := range k.order {
		if !target.HasPrefix(candidate) {
			continue
		}
		if len(candidate) > len(bestPath) {
			bestPath = candidate
			best = k.subaccounts[pathKey(candidate)]
		}
	}

	return best, bestPath, target.Suffix(bestPath)
}

// CreateAccount implements spec §4.3.1: locate the nearest ancestor of
// absPath already known to this keyring, derive the remaining relative
// path from it, and register the result at absPath.
func (k *Keyring) CreateAccount(
	absPath model.DerivationPath,
	name, details string,
	assets []model.AssetId,
	decryptionKey []byte,
) (*Account, error) {
	if absPath.IsMaster() {
		return nil, vaulterr.Wrapf(vaulterr.ErrMasterAccount, "cannot create a sub-account at the master path")
	}
	if _, exists := k.subaccounts[pathKey(absPath)]; exists {
		return nil, vaulterr.Wrapf(vaulterr.ErrDerivationAlreadyUsed, "account already registered at %s", absPath)
	}

	ancestor, _, relative := k.nearestAncestor(absPath)

	child, err := ancestor.DeriveRelative(relative, name, details, assets, decryptionKey)
	if err != nil {
		return nil, err
	}

	k.subaccounts[pathKey(absPath)] = child
	k.order = append(k.order, absPath)
	sort.Slice(k.order, func(i, j int) bool { return len(k.order[i]) < len(k.order[j]) })

	return child, nil
}

// LookupByXpubId scans the master and every sub-account for a matching
// XpubId, master first, per §4.3.2.
func (k *Keyring) LookupByXpubId(id model.XpubId) (model.DerivationPath, *Account, error) {
	masterId, err := k.Master.XpubId()
	if err != nil {
		return nil, nil, err
	}
	if masterId == id {
		return model.DerivationPath{}, k.Master, nil
	}
	for _, p := range k.order {
		acc := k.subaccounts[pathKey(p)]
		accId, err := acc.XpubId()
		if err != nil {
			return nil, nil, err
		}
		if accId == id {
			return p, acc, nil
		}
	}
	return nil, nil, vaulterr.ErrNotFound
}

// MatchesFingerprint reports whether fp equals this keyring's master
// fingerprint, for PSBT bip32_derivation matching (§4.4.2).
func (k *Keyring) MatchesFingerprint(fp model.Fingerprint) bool {
	id, err := k.Master.XpubId()
	if err != nil {
		return false
	}
	return model.FingerprintOf(id) == fp
}

// AccountAt returns the account registered at the given absolute path
// (empty path selects the master), without deriving.
func (k *Keyring) AccountAt(path model.DerivationPath) (*Account, bool) {
	if path.IsMaster() {
		return k.Master, true
	}
	acc, ok := k.subaccounts[pathKey(path)]
	return acc, ok
}

// UpdateAt applies an Account.Update at the given path (§4.2.5 surfaced
// through the keyring), returning Account.Update's asset count.
func (k *Keyring) UpdateAt(path model.DerivationPath, name, details *string, op *AssetUpdate) (int, error) {
	acc, ok := k.AccountAt(path)
	if !ok {
		return 0, vaulterr.ErrNotFound
	}
	return acc.Update(name, details, op)
}

// AccountEntry pairs a sub-account with its absolute derivation path, for
// listing and for driver serialization.
type AccountEntry struct {
	Path    model.DerivationPath
	Account *Account
}

// Accounts returns every account in this keyring paired with its
// absolute path (master first, then sub-accounts by ascending path
// length; the relative order of equal-length paths is not guaranteed
// to be registration order), for listing.
func (k *Keyring) Accounts() []AccountEntry {
	out := make([]AccountEntry, 0, len(k.order)+1)
	out = append(out, AccountEntry{model.DerivationPath{}, k.Master})
	for _, p := range k.order {
		out = append(out, AccountEntry{p, k.subaccounts[pathKey(p)]})
	}
	return out
}

// SubAccounts returns only the registered sub-accounts (no master), by
// ascending path length (equal-length paths in no guaranteed order),
// for driver serialization (§6's persisted layout).
func (k *Keyring) SubAccounts() []AccountEntry {
	out := make([]AccountEntry, 0, len(k.order))
	for _, p := range k.order {
		out = append(out, AccountEntry{p, k.subaccounts[pathKey(p)]})
	}
	return out
}

// Restore reconstructs a Keyring from persisted state (§6: master,
// optional key_source, ordered sub_accounts) without re-deriving —
// the driver layer calls this on load.
func Restore(keySource *model.KeySource, master *Account, subs []AccountEntry) *Keyring {
	k := &Keyring{
		KeySource:   keySource,
		Master:      master,
		subaccounts: make(map[string]*Account, len(subs)),
		order:       make([]model.DerivationPath, 0, len(subs)),
	}
	for _, e := range subs {
		k.subaccounts[pathKey(e.Path)] = e.Account
		k.order = append(k.order, e.Path)
	}
	sort.Slice(k.order, func(i, j int) bool { return len(k.order[i]) < len(k.order[j]) })
	return k
}
