package driver

import (
	"encoding/json"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Format is one of the four mutually-exclusive file driver serializations
// of §4.1. There is no auto-detection: the configured format is
// authoritative for the life of a given file.
type Format int

const (
	StrictBinary Format = iota
	Yaml
	Toml
	Json
)

func (f Format) String() string {
	switch f {
	case StrictBinary:
		return "strict-binary"
	case Yaml:
		return "yaml"
	case Toml:
		return "toml"
	case Json:
		return "json"
	default:
		return "unknown"
	}
}

// Encode serializes state per f.
func Encode(f Format, state VaultState) ([]byte, error) {
	switch f {
	case StrictBinary:
		return EncodeBinary(state)
	case Yaml:
		return yaml.Marshal(state)
	case Toml:
		return toml.Marshal(state)
	case Json:
		return json.MarshalIndent(state, "", "  ")
	default:
		return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "unknown format %d", f)
	}
}

// Decode parses raw per f.
func Decode(f Format, raw []byte) (VaultState, error) {
	var state VaultState
	switch f {
	case StrictBinary:
		return DecodeBinary(raw)
	case Yaml:
		if err := yaml.Unmarshal(raw, &state); err != nil {
			return state, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}
	case Toml:
		if err := toml.Unmarshal(raw, &state); err != nil {
			return state, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}
	case Json:
		if err := json.Unmarshal(raw, &state); err != nil {
			return state, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}
	default:
		return state, vaulterr.Wrapf(vaulterr.ErrDriver, "unknown format %d", f)
	}
	return state, nil
}
