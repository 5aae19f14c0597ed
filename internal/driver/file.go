package driver

import (
	"os"
	"path/filepath"

	"github.com/pandoracore/keyring/internal/vault"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// FileDriver implements §4.1's file driver: a single file holding the
// keyring sequence in one of the four Format variants, created empty on
// first use.
type FileDriver struct {
	location string
	format   Format
}

// NewFileDriver opens (or creates) location in format. On init: if the
// file exists it is left untouched until the first Load; otherwise an
// empty keyring sequence is written immediately in the configured
// format, per §4.1.
func NewFileDriver(location string, format Format) (*FileDriver, error) {
	d := &FileDriver{location: location, format: format}

	if _, err := os.Stat(location); err != nil {
		if !os.IsNotExist(err) {
			return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "stat %s: %w", location, err)
		}
		if err := d.Store(nil); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Load seeks to start and fully deserializes the file.
func (d *FileDriver) Load() ([]*vault.Keyring, error) {
	raw, err := os.ReadFile(d.location)
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "reading %s: %w", d.location, err)
	}
	state, err := Decode(d.format, raw)
	if err != nil {
		return nil, err
	}
	return FromVaultState(state)
}

// Store truncates and rewrites the file atomically (temp file in the
// same directory, then rename — survives a crash mid-write, the
// technique this driver shares with every other atomic-persist path in
// this codebase).
func (d *FileDriver) Store(keyrings []*vault.Keyring) error {
	state, err := ToVaultState(keyrings)
	if err != nil {
		return err
	}
	raw, err := Encode(d.format, state)
	if err != nil {
		return err
	}
	return atomicWriteFile(d.location, raw, 0600)
}

// Close is a no-op: the file driver holds no persistent handle between
// calls.
func (d *FileDriver) Close() error { return nil }

// atomicWriteFile writes data to filename via temp-file-then-rename so a
// crash mid-write never leaves a partially-written keyring store.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".keyringd-tmp-*")
	if err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "syncing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "closing temp file: %w", err)
	}
	tmp = nil

	if err := os.Rename(tmpPath, filename); err != nil {
		return vaulterr.Wrapf(vaulterr.ErrDriver, "renaming %s to %s: %w", tmpPath, filename, err)
	}
	return nil
}
