package vault

import (
	"crypto/sha256"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"go.uber.org/zap"

	"github.com/pandoracore/keyring/internal/cryptocore"
	"github.com/pandoracore/keyring/internal/metrics"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Vault is the §3 aggregate: an ordered sequence of Keyrings plus an
// owned driver handle. It mediates every mutation and invokes the
// driver's Store after each one succeeds (§3's write invariant).
type Vault struct {
	driver   Driver
	keyrings []*Keyring
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// Open constructs a Vault by loading the full keyring set from driver,
// per §3's lifecycle ("vault is constructed once at process startup
// from a driver config; it loads the entire keyring set into memory").
// m may be nil, in which case operations are not metered.
func Open(d Driver, log *zap.Logger, m *metrics.Metrics) (*Vault, error) {
	if log == nil {
		log = zap.NewNop()
	}
	keyrings, err := d.Load()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrDriver, err)
	}
	return &Vault{driver: d, keyrings: keyrings, log: log, metrics: m}, nil
}

// Close releases the underlying driver handle.
func (v *Vault) Close() error {
	return v.driver.Close()
}

func (v *Vault) persist() error {
	start := time.Now()
	err := v.driver.Store(v.keyrings)
	v.metrics.ObserveDriverStore(time.Since(start))
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrDriver, err)
	}
	return nil
}

// observe records method's outcome (by whether err is nil) in the
// operations counter. Call via defer with a named return, e.g.
// `defer func() { v.observe("seed", err) }()`.
func (v *Vault) observe(method string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	v.metrics.ObserveOperation(method, result)
}

func (v *Vault) findKeyringByMaster(rootId model.XpubId) (*Keyring, error) {
	for _, k := range v.keyrings {
		id, err := k.Master.XpubId()
		if err != nil {
			return nil, err
		}
		if id == rootId {
			return k, nil
		}
	}
	return nil, vaulterr.ErrNotFound
}

// resolved is the result of looking an account up by XpubId anywhere in
// the vault (§3: "lookups by id scan keyrings then all sub_accounts").
type resolved struct {
	keyring *Keyring
	path    model.DerivationPath
	account *Account
}

func (v *Vault) resolve(id model.XpubId) (*resolved, error) {
	for _, k := range v.keyrings {
		masterId, err := k.Master.XpubId()
		if err != nil {
			return nil, err
		}
		if masterId == id {
			return &resolved{keyring: k, path: model.DerivationPath{}, account: k.Master}, nil
		}
	}
	for _, k := range v.keyrings {
		path, acc, err := k.LookupByXpubId(id)
		if err == vaulterr.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if path.IsMaster() {
			continue
		}
		return &resolved{keyring: k, path: path, account: acc}, nil
	}
	return nil, vaulterr.ErrNotFound
}

func accountInfo(id model.XpubId, acc *Account, path model.DerivationPath, fingerprint model.Fingerprint, app *model.KeyApplication, src *model.KeySource) (model.AccountInfo, error) {
	assets := make([]model.AssetId, 0, len(acc.Assets))
	for a := range acc.Assets {
		assets = append(assets, a)
	}
	return model.AccountInfo{
		Id:          id,
		Name:        acc.Name,
		Details:     acc.Details,
		KeyId:       id,
		Fingerprint: fingerprint,
		Assets:      assets,
		Path:        path,
		Application: app,
		KeySource:   src,
	}, nil
}

// List implements §4.4.1 "list": AccountInfo for every keyring master
// and every sub-account, sub-accounts annotated with the master's
// fingerprint and their own path.
func (v *Vault) List() (_ []model.AccountInfo, err error) {
	defer func() { v.observe("list", err) }()

	var out []model.AccountInfo
	for _, k := range v.keyrings {
		masterId, err := k.Master.XpubId()
		if err != nil {
			return nil, err
		}
		fp := model.FingerprintOf(masterId)

		info, err := accountInfo(masterId, k.Master, model.DerivationPath{}, fp, nil, k.KeySource)
		if err != nil {
			return nil, err
		}
		out = append(out, info)

		for _, e := range k.SubAccounts() {
			subId, err := e.Account.XpubId()
			if err != nil {
				return nil, err
			}
			subInfo, err := accountInfo(subId, e.Account, e.Path, fp, nil, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, subInfo)
		}
	}
	v.log.Debug("vault list", zap.Int("keyrings", len(v.keyrings)), zap.Int("accounts", len(out)))
	return out, nil
}

// Seed implements §4.4.1 "seed": creates a new Keyring with a fresh
// master account, appends it, and persists.
func (v *Vault) Seed(name, details string, chain model.Chain, app model.KeyApplication, encryptionKey *secp256k1.PublicKey) (_ model.AccountInfo, err error) {
	defer func() { v.observe("seed", err) }()

	master, err := NewMasterAccount(name, details, nil, chain, app, encryptionKey)
	if err != nil {
		v.log.Warn("seed failed", zap.Error(err))
		return model.AccountInfo{}, err
	}
	kr, err := NewKeyring(master)
	if err != nil {
		return model.AccountInfo{}, err
	}

	v.keyrings = append(v.keyrings, kr)
	if err := v.persist(); err != nil {
		v.keyrings = v.keyrings[:len(v.keyrings)-1]
		return model.AccountInfo{}, err
	}

	id, err := master.XpubId()
	if err != nil {
		return model.AccountInfo{}, err
	}
	fp := model.FingerprintOf(id)
	appCopy := app
	v.log.Info("seed created", zap.String("xpub_id", id.String()))
	return accountInfo(id, master, model.DerivationPath{}, fp, &appCopy, nil)
}

// Derive implements §4.4.1 "derive": a new sub-account under the
// keyring whose master XpubId equals rootId.
func (v *Vault) Derive(rootId model.XpubId, path model.DerivationPath, name, details string, assets []model.AssetId, decryptionKey []byte) (_ model.AccountInfo, err error) {
	defer func() { v.observe("derive", err) }()

	kr, err := v.findKeyringByMaster(rootId)
	if err != nil {
		cryptocore.Wipe(decryptionKey)
		return model.AccountInfo{}, err
	}

	acc, err := kr.CreateAccount(path, name, details, assets, decryptionKey)
	if err != nil {
		return model.AccountInfo{}, err
	}

	if err := v.persist(); err != nil {
		return model.AccountInfo{}, err
	}

	masterId, err := kr.Master.XpubId()
	if err != nil {
		return model.AccountInfo{}, err
	}
	id, err := acc.XpubId()
	if err != nil {
		return model.AccountInfo{}, err
	}
	v.log.Info("derive succeeded", zap.String("root_id", rootId.String()), zap.String("path", path.String()))
	return accountInfo(id, acc, path, model.FingerprintOf(masterId), nil, nil)
}

// Xpub implements §4.4.1 "xpub": the extended public key of the account
// matching id. Fails NotFound when no account matches.
func (v *Vault) Xpub(id model.XpubId) (_ *Account, err error) {
	defer func() { v.observe("xpub", err) }()

	r, err := v.resolve(id)
	if err != nil {
		return nil, err
	}
	return r.account, nil
}

// Xpriv implements §4.4.1 "xpriv": decrypts and returns the extended
// private key, wiping decryptionKey.
func (v *Vault) Xpriv(id model.XpubId, decryptionKey []byte) (_ *hdkeychain.ExtendedKey, err error) {
	defer func() { v.observe("xpriv", err) }()

	r, err := v.resolve(id)
	if err != nil {
		cryptocore.Wipe(decryptionKey)
		return nil, err
	}
	xpriv, err := r.account.Decrypt(decryptionKey)
	if err != nil {
		v.log.Warn("xpriv decrypt failed", zap.String("id", id.String()))
		v.metrics.ObserveDecryptFailure()
		return nil, err
	}
	return xpriv, nil
}

// SignKey implements §4.4.1 "sign_key": signs SHA256 of the account's
// 33-byte compressed public key.
func (v *Vault) SignKey(id model.XpubId, decryptionKey []byte) (_ []byte, err error) {
	defer func() { v.observe("sign_key", err) }()

	r, err := v.resolve(id)
	if err != nil {
		cryptocore.Wipe(decryptionKey)
		return nil, err
	}
	pub, err := r.account.Xpubkey.ECPubKey()
	if err != nil {
		cryptocore.Wipe(decryptionKey)
		return nil, vaulterr.Wrap(vaulterr.ErrSecp256k1Broken, err)
	}
	digest := sha256.Sum256(pub.SerializeCompressed())
	return r.account.SignDigest(digest[:], decryptionKey)
}

// SignData implements §4.4.1 "sign_data": signs SHA256(data) with the
// account's private key.
func (v *Vault) SignData(id model.XpubId, data []byte, decryptionKey []byte) (_ []byte, err error) {
	defer func() { v.observe("sign_data", err) }()

	r, err := v.resolve(id)
	if err != nil {
		cryptocore.Wipe(decryptionKey)
		return nil, err
	}
	digest := sha256.Sum256(data)
	return r.account.SignDigest(digest[:], decryptionKey)
}

// UpdateMaster implements §4.3.3 "update_master".
func (v *Vault) UpdateMaster(rootId model.XpubId, name, details *string, op *AssetUpdate) (_ int, err error) {
	defer func() { v.observe("update_master", err) }()

	kr, err := v.findKeyringByMaster(rootId)
	if err != nil {
		return 0, err
	}
	n, err := kr.Master.Update(name, details, op)
	if err != nil {
		return 0, err
	}
	if err := v.persist(); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateSubaccount implements §4.3.3 "update_subaccount": path must not
// be the master path.
func (v *Vault) UpdateSubaccount(rootId model.XpubId, path model.DerivationPath, name, details *string, op *AssetUpdate) (_ int, err error) {
	defer func() { v.observe("update_subaccount", err) }()

	if path.IsMaster() {
		return 0, vaulterr.ErrMasterAccount
	}
	kr, err := v.findKeyringByMaster(rootId)
	if err != nil {
		return 0, err
	}
	n, err := kr.UpdateAt(path, name, details, op)
	if err != nil {
		return 0, err
	}
	if err := v.persist(); err != nil {
		return 0, err
	}
	return n, nil
}
