package driver

import (
	"github.com/pandoracore/keyring/internal/vault"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Driver re-exports vault.Driver so callers need not import the vault
// package just to hold a handle to one.
type Driver = vault.Driver

// Kind tags the closed set of concrete driver variants (§9: "Implement
// as a tagged variant of the concrete driver kinds ... not as an open
// inheritance hierarchy").
type Kind int

const (
	KindFile Kind = iota
	KindDelegated
)

// Config is the closed tagged union driving Open: exactly one of File /
// Delegated is meaningful, selected by Kind.
type Config struct {
	Kind      Kind
	File      FileConfig
	Delegated DelegatedConfig
}

// FileConfig configures the file driver (§4.1).
type FileConfig struct {
	Location string
	Format   Format
}

// DelegatedConfig configures the delegated driver (§4.1). Callbacks are
// supplied programmatically (e.g. by cmd/keyringd wiring a backend like
// redisdelegate) rather than from a config file.
type DelegatedConfig struct {
	Load  LoadFunc
	Store StoreFunc
}

// Open constructs the concrete driver named by cfg.Kind.
func Open(cfg Config) (Driver, error) {
	switch cfg.Kind {
	case KindFile:
		return NewFileDriver(cfg.File.Location, cfg.File.Format)
	case KindDelegated:
		if cfg.Delegated.Load == nil || cfg.Delegated.Store == nil {
			return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "delegated driver requires both load and store callbacks")
		}
		return NewDelegatedDriver(cfg.Delegated.Load, cfg.Delegated.Store), nil
	default:
		return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "unknown driver kind %d", cfg.Kind)
	}
}
