package driver

import (
	"path/filepath"
	"testing"

	"github.com/pandoracore/keyring/internal/vault"
)

// invariant 6 (§8): load ∘ store ∘ load == load, for every file format.
func TestFileDriverRoundTripsAcrossFormats(t *testing.T) {
	formats := []Format{StrictBinary, Yaml, Toml, Json}

	for _, f := range formats {
		f := f
		t.Run(f.String(), func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "vault.state")

			d, err := NewFileDriver(path, f)
			if err != nil {
				t.Fatalf("NewFileDriver: %v", err)
			}

			kr := testKeyring(t)
			if err := d.Store([]*vault.Keyring{kr}); err != nil {
				t.Fatalf("Store: %v", err)
			}

			firstLoad, err := d.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(firstLoad) != 1 {
				t.Fatalf("expected 1 keyring, got %d", len(firstLoad))
			}

			if err := d.Store(firstLoad); err != nil {
				t.Fatalf("second Store: %v", err)
			}
			secondLoad, err := d.Load()
			if err != nil {
				t.Fatalf("second Load: %v", err)
			}
			if len(secondLoad) != 1 {
				t.Fatalf("expected 1 keyring after second load, got %d", len(secondLoad))
			}

			wantId, err := firstLoad[0].Master.XpubId()
			if err != nil {
				t.Fatalf("XpubId: %v", err)
			}
			gotId, err := secondLoad[0].Master.XpubId()
			if err != nil {
				t.Fatalf("XpubId: %v", err)
			}
			if wantId != gotId {
				t.Error("load after store-of-a-load diverged from the original load")
			}
		})
	}
}

func TestNewFileDriverCreatesEmptyStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.state")

	d, err := NewFileDriver(path, Json)
	if err != nil {
		t.Fatalf("NewFileDriver: %v", err)
	}

	keyrings, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(keyrings) != 0 {
		t.Errorf("expected an empty keyring sequence on first load, got %d", len(keyrings))
	}
}
