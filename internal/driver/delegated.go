package driver

import (
	"github.com/pandoracore/keyring/internal/vault"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// LoadFunc and StoreFunc are the two callback signatures §4.1's
// delegated driver is built from. Serialization format is defined by
// the delegate and opaque to the vault; this package only ever hands
// the delegate the canonical binary encoding of a VaultState and
// expects the same back.
type LoadFunc func() ([]byte, error)
type StoreFunc func(raw []byte) error

// DelegatedDriver calls out to externally supplied load/store callbacks.
type DelegatedDriver struct {
	load    LoadFunc
	store   StoreFunc
	closeFn func() error
}

// NewDelegatedDriver wraps a pair of callbacks as a Driver. Close is a
// no-op; use NewDelegatedDriverWithCloser when the backend holds a
// resource (a connection, a file handle) that needs releasing.
func NewDelegatedDriver(load LoadFunc, store StoreFunc) *DelegatedDriver {
	return &DelegatedDriver{load: load, store: store}
}

// NewDelegatedDriverWithCloser is NewDelegatedDriver plus a Close
// callback invoked from Driver.Close.
func NewDelegatedDriverWithCloser(load LoadFunc, store StoreFunc, closeFn func() error) *DelegatedDriver {
	return &DelegatedDriver{load: load, store: store, closeFn: closeFn}
}

func (d *DelegatedDriver) Load() ([]*vault.Keyring, error) {
	raw, err := d.load()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrDriver, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	state, err := DecodeBinary(raw)
	if err != nil {
		return nil, err
	}
	return FromVaultState(state)
}

func (d *DelegatedDriver) Store(keyrings []*vault.Keyring) error {
	state, err := ToVaultState(keyrings)
	if err != nil {
		return err
	}
	raw, err := EncodeBinary(state)
	if err != nil {
		return err
	}
	if err := d.store(raw); err != nil {
		return vaulterr.Wrap(vaulterr.ErrDriver, err)
	}
	return nil
}

func (d *DelegatedDriver) Close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}
