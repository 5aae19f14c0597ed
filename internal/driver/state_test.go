package driver

import (
	"bytes"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vault"
)

func deterministicScalar(b byte) *secp256k1.PrivateKey {
	buf := bytes.Repeat([]byte{b}, 32)
	var s secp256k1.ModNScalar
	s.SetByteSlice(buf)
	return secp256k1.NewPrivateKey(&s)
}

func testKeyring(t *testing.T) *vault.Keyring {
	t.Helper()
	d := deterministicScalar(0x01)
	var asset model.AssetId
	asset[0] = 0x42

	master, err := vault.NewMasterAccount("root", "details", []model.AssetId{asset}, model.ChainRegtest, model.AppWPKH, d.PubKey())
	if err != nil {
		t.Fatalf("NewMasterAccount: %v", err)
	}
	kr, err := vault.NewKeyring(master)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}

	path, _ := model.ParsePath("0/1")
	key := bytes.Repeat([]byte{0x01}, 32)
	if _, err := kr.CreateAccount(path, "sub", "sub details", nil, key); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return kr
}

func TestAccountStateRoundTrip(t *testing.T) {
	kr := testKeyring(t)

	before, err := accountToState(kr.Master)
	if err != nil {
		t.Fatalf("accountToState: %v", err)
	}
	restored, err := accountFromState(before)
	if err != nil {
		t.Fatalf("accountFromState: %v", err)
	}

	if restored.Xpubkey.String() != kr.Master.Xpubkey.String() {
		t.Error("xpubkey did not round-trip")
	}
	if !bytes.Equal(restored.Encrypted, kr.Master.Encrypted) {
		t.Error("encrypted blob did not round-trip")
	}
	if !bytes.Equal(restored.Unblinding.SerializeCompressed(), kr.Master.Unblinding.SerializeCompressed()) {
		t.Error("unblinding key did not round-trip")
	}
	if restored.Name != kr.Master.Name || restored.Details != kr.Master.Details {
		t.Error("name/details did not round-trip")
	}
	if len(restored.Assets) != len(kr.Master.Assets) {
		t.Error("asset set size did not round-trip")
	}
}

func TestKeyringStateRoundTrip(t *testing.T) {
	kr := testKeyring(t)

	state, err := keyringToState(kr)
	if err != nil {
		t.Fatalf("keyringToState: %v", err)
	}
	if state.KeySource != nil {
		t.Error("a self-rooted keyring should serialize with no key_source")
	}
	if len(state.SubAccounts) != 1 {
		t.Fatalf("expected 1 sub-account, got %d", len(state.SubAccounts))
	}

	restored, err := keyringFromState(state)
	if err != nil {
		t.Fatalf("keyringFromState: %v", err)
	}

	wantId, err := kr.Master.XpubId()
	if err != nil {
		t.Fatalf("XpubId: %v", err)
	}
	gotId, err := restored.Master.XpubId()
	if err != nil {
		t.Fatalf("XpubId: %v", err)
	}
	if wantId != gotId {
		t.Error("restored keyring's master xpub id does not match")
	}

	path, _ := model.ParsePath("0/1")
	_, ok := restored.AccountAt(path)
	if !ok {
		t.Error("restored keyring lost its sub-account")
	}
}

func TestVaultStateRoundTrip(t *testing.T) {
	kr := testKeyring(t)

	state, err := ToVaultState([]*vault.Keyring{kr})
	if err != nil {
		t.Fatalf("ToVaultState: %v", err)
	}
	if len(state.Keyrings) != 1 {
		t.Fatalf("expected 1 keyring, got %d", len(state.Keyrings))
	}

	restored, err := FromVaultState(state)
	if err != nil {
		t.Fatalf("FromVaultState: %v", err)
	}
	if len(restored) != 1 {
		t.Fatalf("expected 1 restored keyring, got %d", len(restored))
	}
}
