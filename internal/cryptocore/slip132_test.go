package cryptocore

import (
	"errors"
	"testing"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

func TestResolveVersionsKnownCombinations(t *testing.T) {
	combos := []struct {
		chain model.Chain
		app   model.KeyApplication
	}{
		{model.ChainMainnet, model.AppPKH},
		{model.ChainMainnet, model.AppWPKH},
		{model.ChainMainnet, model.AppWSH},
		{model.ChainMainnet, model.AppWPKHInSH},
		{model.ChainMainnet, model.AppWSHInSH},
		{model.ChainTestnet, model.AppWPKH},
		{model.ChainSignet, model.AppWPKH},
		{model.ChainRegtest, model.AppWPKH},
	}

	for _, c := range combos {
		priv, pub, err := ResolveVersions(c.chain, c.app)
		if err != nil {
			t.Errorf("ResolveVersions(%s, %s): %v", c.chain, c.app, err)
			continue
		}
		if priv == pub {
			t.Errorf("ResolveVersions(%s, %s): priv and pub versions must differ", c.chain, c.app)
		}
	}
}

func TestResolveVersionsUnknownChain(t *testing.T) {
	_, _, err := ResolveVersions(model.Chain("nonexistent"), model.AppWPKH)
	if !errors.Is(err, vaulterr.ErrResolverFailure) {
		t.Errorf("expected ErrResolverFailure, got %v", err)
	}
}

func TestSignetRegtestShareTestnetVersions(t *testing.T) {
	tp, tu, err := ResolveVersions(model.ChainTestnet, model.AppWSH)
	if err != nil {
		t.Fatalf("ResolveVersions testnet: %v", err)
	}
	sp, su, err := ResolveVersions(model.ChainSignet, model.AppWSH)
	if err != nil {
		t.Fatalf("ResolveVersions signet: %v", err)
	}
	if tp != sp || tu != su {
		t.Error("signet should reuse testnet version bytes")
	}
}
