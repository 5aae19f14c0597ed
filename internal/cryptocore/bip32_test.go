package cryptocore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

func TestMasterFromSeedDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, 32)
	privVersion, _, err := ResolveVersions(model.ChainMainnet, model.AppWPKH)
	if err != nil {
		t.Fatalf("ResolveVersions: %v", err)
	}

	k1, err := MasterFromSeed(seed, privVersion)
	if err != nil {
		t.Fatalf("MasterFromSeed: %v", err)
	}
	k2, err := MasterFromSeed(seed, privVersion)
	if err != nil {
		t.Fatalf("MasterFromSeed: %v", err)
	}

	if k1.String() != k2.String() {
		t.Error("same seed produced different master keys")
	}
}

func TestSerializeRawParseRawRoundTrip(t *testing.T) {
	seed := bytes.Repeat([]byte{0x02}, 32)
	privVersion, _, err := ResolveVersions(model.ChainTestnet, model.AppPKH)
	if err != nil {
		t.Fatalf("ResolveVersions: %v", err)
	}
	key, err := MasterFromSeed(seed, privVersion)
	if err != nil {
		t.Fatalf("MasterFromSeed: %v", err)
	}

	raw, err := SerializeRaw(key)
	if err != nil {
		t.Fatalf("SerializeRaw: %v", err)
	}
	if len(raw) != serializedKeyLen {
		t.Fatalf("expected %d bytes, got %d", serializedKeyLen, len(raw))
	}

	restored, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if restored.String() != key.String() {
		t.Error("round trip through SerializeRaw/ParseRaw changed the key")
	}
}

func TestParseRawRejectsWrongLength(t *testing.T) {
	_, err := ParseRaw([]byte{0x01, 0x02})
	if !errors.Is(err, vaulterr.ErrSecretKeyCorrupted) {
		t.Errorf("expected ErrSecretKeyCorrupted, got %v", err)
	}
}

func TestChildHardenedRequiresPrivate(t *testing.T) {
	seed := bytes.Repeat([]byte{0x03}, 32)
	privVersion, _, err := ResolveVersions(model.ChainMainnet, model.AppWPKH)
	if err != nil {
		t.Fatalf("ResolveVersions: %v", err)
	}
	priv, err := MasterFromSeed(seed, privVersion)
	if err != nil {
		t.Fatalf("MasterFromSeed: %v", err)
	}
	pub, err := Neuter(priv)
	if err != nil {
		t.Fatalf("Neuter: %v", err)
	}

	_, err = Child(pub, model.HardenedStart)
	if !errors.Is(err, vaulterr.ErrHardenedDerivation) {
		t.Errorf("expected ErrHardenedDerivation, got %v", err)
	}
}

func TestDerivePathMatchesStepwise(t *testing.T) {
	seed := bytes.Repeat([]byte{0x04}, 32)
	privVersion, _, err := ResolveVersions(model.ChainRegtest, model.AppWPKH)
	if err != nil {
		t.Fatalf("ResolveVersions: %v", err)
	}
	master, err := MasterFromSeed(seed, privVersion)
	if err != nil {
		t.Fatalf("MasterFromSeed: %v", err)
	}

	path := []uint32{0, 1}
	viaHelper, err := DerivePath(master, path)
	if err != nil {
		t.Fatalf("DerivePath: %v", err)
	}

	step1, err := Child(master, 0)
	if err != nil {
		t.Fatalf("Child: %v", err)
	}
	stepwise, err := Child(step1, 1)
	if err != nil {
		t.Fatalf("Child: %v", err)
	}

	if viaHelper.String() != stepwise.String() {
		t.Error("DerivePath did not match stepwise Child calls")
	}
}
