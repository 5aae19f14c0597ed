package vault

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pandoracore/keyring/internal/cryptocore"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// memDriver is a trivial in-memory Driver standing in for a persisted
// backend, letting tests observe what a Load after a Store would see
// without touching the filesystem.
type memDriver struct {
	stored []*Keyring
}

func (m *memDriver) Load() ([]*Keyring, error) { return m.stored, nil }
func (m *memDriver) Store(k []*Keyring) error {
	m.stored = k
	return nil
}
func (m *memDriver) Close() error { return nil }

func openTestVault(t *testing.T) (*Vault, *memDriver) {
	t.Helper()
	d := &memDriver{}
	v, err := Open(d, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v, d
}

// S1 — Seed-then-list.
func TestSeedThenList(t *testing.T) {
	v, _ := openTestVault(t)
	d := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if info.Name != "A" {
		t.Errorf("expected name A, got %q", info.Name)
	}

	list, err := v.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one AccountInfo, got %d", len(list))
	}
	if list[0].Name != "A" {
		t.Errorf("listed account has wrong name: %q", list[0].Name)
	}

	expectedFp := model.FingerprintOf(list[0].Id)
	if list[0].Fingerprint != expectedFp {
		t.Error("fingerprint does not match HASH160-derived id")
	}
}

// S2 — Derive-then-xpub, plus S5 — DerivationAlreadyUsed on the repeat.
func TestDeriveThenXpubAndDuplicateFails(t *testing.T) {
	v, _ := openTestVault(t)
	d := deterministicScalar(0x01)

	seedInfo, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	path, _ := model.ParsePath("0/1")
	key1 := bytes.Repeat([]byte{0x01}, 32)
	subInfo, err := v.Derive(seedInfo.Id, path, "sub", "", nil, key1)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	master, err := v.Xpub(seedInfo.Id)
	if err != nil {
		t.Fatalf("Xpub(master): %v", err)
	}
	pubWalk := master.Xpubkey
	for _, idx := range path {
		pubWalk, err = pubWalk.Derive(idx)
		if err != nil {
			t.Fatalf("public Derive: %v", err)
		}
	}

	sub, err := v.Xpub(subInfo.Id)
	if err != nil {
		t.Fatalf("Xpub(sub): %v", err)
	}
	if pubWalk.String() != sub.Xpubkey.String() {
		t.Error("derived sub-account xpub does not match public BIP32 derivation of the master")
	}

	key2 := bytes.Repeat([]byte{0x01}, 32)
	_, err = v.Derive(seedInfo.Id, path, "sub-again", "", nil, key2)
	if !errors.Is(err, vaulterr.ErrDerivationAlreadyUsed) {
		t.Errorf("expected ErrDerivationAlreadyUsed on repeat derive, got %v", err)
	}
}

// S3 — ExportXpriv round-trip: the xpriv handed back by Xpriv, when
// re-encrypted under the same encryption key but a fresh blinding scalar,
// decrypts back to the identical 78-byte serialization.
func TestXprivReencryptRoundTrip(t *testing.T) {
	v, _ := openTestVault(t)
	d := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	key := bytes.Repeat([]byte{0x01}, 32)
	xpriv, err := v.Xpriv(info.Id, key)
	if err != nil {
		t.Fatalf("Xpriv: %v", err)
	}
	defer xpriv.Zero()

	rawBefore, err := cryptocore.SerializeRaw(xpriv)
	if err != nil {
		t.Fatalf("SerializeRaw: %v", err)
	}
	rawBeforeCopy := append([]byte(nil), rawBefore...)

	reencrypted, unblinding, err := cryptocore.Encrypt(rawBefore, d.PubKey())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	decryptKeyCopy := bytes.Repeat([]byte{0x01}, 32)
	plaintext, err := cryptocore.Decrypt(reencrypted, decryptKeyCopy, unblinding)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	if !bytes.Equal(plaintext, rawBeforeCopy) {
		t.Error("re-encrypting under a fresh blinding scalar did not round-trip to the same serialized xpriv")
	}
}

// S4 — SignKey determinism at the Vault level.
func TestVaultSignKeyDeterministic(t *testing.T) {
	v, _ := openTestVault(t)
	d := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	key1 := bytes.Repeat([]byte{0x01}, 32)
	sig1, err := v.SignKey(info.Id, key1)
	if err != nil {
		t.Fatalf("SignKey: %v", err)
	}
	key2 := bytes.Repeat([]byte{0x01}, 32)
	sig2, err := v.SignKey(info.Id, key2)
	if err != nil {
		t.Fatalf("SignKey: %v", err)
	}
	if !bytes.Equal(sig1, sig2) {
		t.Error("expected byte-identical SignKey signatures under RFC6979 determinism")
	}
}

// S6 — wrong decryption_key at the Vault level.
func TestVaultXprivWrongKeyFails(t *testing.T) {
	v, _ := openTestVault(t)
	d := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	wrongKey := bytes.Repeat([]byte{0x02}, 32)
	_, err = v.Xpriv(info.Id, wrongKey)
	if !errors.Is(err, vaulterr.ErrSecretKeyCorrupted) {
		t.Errorf("expected ErrSecretKeyCorrupted, got %v", err)
	}
}

// invariant 3 (§8): after a mutation, loading from the driver again
// returns an equal keyring sequence (the driver sees exactly what was
// stored).
func TestPersistRoundTripsKeyringSequence(t *testing.T) {
	v, d := openTestVault(t)
	scalar := deterministicScalar(0x01)

	if _, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, scalar.PubKey()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	reloaded, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded) != len(v.keyrings) {
		t.Fatalf("expected %d keyrings after reload, got %d", len(v.keyrings), len(reloaded))
	}

	wantId, err := v.keyrings[0].Master.XpubId()
	if err != nil {
		t.Fatalf("XpubId: %v", err)
	}
	gotId, err := reloaded[0].Master.XpubId()
	if err != nil {
		t.Fatalf("XpubId: %v", err)
	}
	if wantId != gotId {
		t.Error("reloaded keyring's master does not match the one just stored")
	}
}

// §4.3.3 update_master: renaming/re-describing/asset-mutating the master
// account, persisted through to the driver.
func TestVaultUpdateMasterPersists(t *testing.T) {
	v, d := openTestVault(t)
	scalar := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, scalar.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	newName := "renamed"
	var asset model.AssetId
	asset[0] = 0x01
	n, err := v.UpdateMaster(info.Id, &newName, nil, &AssetUpdate{Mode: AssetAdd, Assets: []model.AssetId{asset}})
	if err != nil {
		t.Fatalf("UpdateMaster: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 asset changed, got %d", n)
	}

	reloaded, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded[0].Master.Name != newName {
		t.Errorf("persisted master name not updated, got %q", reloaded[0].Master.Name)
	}
	if _, ok := reloaded[0].Master.Assets[asset]; !ok {
		t.Error("persisted master does not carry the added asset")
	}
}

func TestVaultUpdateMasterNotFound(t *testing.T) {
	v, _ := openTestVault(t)
	var bogus model.XpubId
	newName := "x"
	if _, err := v.UpdateMaster(bogus, &newName, nil, nil); !errors.Is(err, vaulterr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// §4.3.3 update_subaccount: dispatch to the sub-account at path, reject
// the master path, and persist on success.
func TestVaultUpdateSubaccountPersists(t *testing.T) {
	v, d := openTestVault(t)
	scalar := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, scalar.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	path, _ := model.ParsePath("0/1")
	key := bytes.Repeat([]byte{0x01}, 32)
	if _, err := v.Derive(info.Id, path, "sub", "", nil, key); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	newName := "renamed-sub"
	n, err := v.UpdateSubaccount(info.Id, path, &newName, nil, nil)
	if err != nil {
		t.Fatalf("UpdateSubaccount: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 assets changed on a name-only update, got %d", n)
	}

	reloaded, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var found *Account
	for _, e := range reloaded[0].SubAccounts() {
		if e.Path.Equal(path) {
			found = e.Account
		}
	}
	if found == nil {
		t.Fatal("persisted keyring missing the sub-account")
	}
	if found.Name != newName {
		t.Errorf("persisted sub-account name not updated, got %q", found.Name)
	}
}

func TestVaultUpdateSubaccountRejectsMasterPath(t *testing.T) {
	v, _ := openTestVault(t)
	scalar := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, scalar.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	newName := "x"
	_, err = v.UpdateSubaccount(info.Id, model.DerivationPath{}, &newName, nil, nil)
	if !errors.Is(err, vaulterr.ErrMasterAccount) {
		t.Errorf("expected ErrMasterAccount, got %v", err)
	}
}

func TestVaultUpdateSubaccountNotFound(t *testing.T) {
	v, _ := openTestVault(t)
	scalar := deterministicScalar(0x01)

	info, err := v.Seed("A", "", model.ChainRegtest, model.AppWPKH, scalar.PubKey())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	path, _ := model.ParsePath("0/9")
	newName := "x"
	_, err = v.UpdateSubaccount(info.Id, path, &newName, nil, nil)
	if !errors.Is(err, vaulterr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindKeyringByMasterNotFound(t *testing.T) {
	v, _ := openTestVault(t)
	var bogus model.XpubId
	if _, err := v.findKeyringByMaster(bogus); !errors.Is(err, vaulterr.ErrNotFound) {
		t.Errorf("findKeyringByMaster: expected ErrNotFound, got %v", err)
	}
	if _, err := v.Xpub(bogus); !errors.Is(err, vaulterr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
