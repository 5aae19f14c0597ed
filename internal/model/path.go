// Package model holds the data types shared across the vault, driver and
// transport layers: asset/chain/application enums, identifiers and
// derivation paths.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// HardenedStart is the first hardened child index (BIP32 2^31).
const HardenedStart uint32 = 0x80000000

// DerivationPath is an ordered list of BIP32 child indices, each already
// carrying the hardened bit (index >= HardenedStart) when applicable.
// The empty path denotes a keyring's master account.
type DerivationPath []uint32

// ParsePath parses strings like "m/0/1'" or "0'/2" into a DerivationPath.
// The leading "m" or "m/" is optional and ignored.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "m")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return DerivationPath{}, nil
	}

	parts := strings.Split(s, "/")
	path := make(DerivationPath, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("empty path component at position %d", i)
		}

		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H")
		digits := strings.TrimRight(part, "'hH")

		n, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path component %q: %w", part, err)
		}
		if n >= uint64(HardenedStart) {
			return nil, fmt.Errorf("path component %q out of range", part)
		}

		index := uint32(n)
		if hardened {
			index += HardenedStart
		}
		path = append(path, index)
	}
	return path, nil
}

// String renders the path in the canonical "m/44'/0'/0" form.
func (p DerivationPath) String() string {
	if len(p) == 0 {
		return "m"
	}
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		b.WriteString("/")
		if idx >= HardenedStart {
			fmt.Fprintf(&b, "%d'", idx-HardenedStart)
		} else {
			fmt.Fprintf(&b, "%d", idx)
		}
	}
	return b.String()
}

// MarshalText renders p in the same "m/44'/0'" form as String, so the
// RPC and CLI layers carry derivation paths as a single human-readable
// field instead of a raw index array.
func (p DerivationPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the "m/44'/0'" form produced by MarshalText.
func (p *DerivationPath) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IsMaster reports whether the path addresses the master account (empty path).
func (p DerivationPath) IsMaster() bool {
	return len(p) == 0
}

// Equal reports whether two paths have identical components.
func (p DerivationPath) Equal(other DerivationPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a strict prefix of p (prefix shorter than p).
func (p DerivationPath) HasPrefix(prefix DerivationPath) bool {
	if len(prefix) >= len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Suffix returns the relative path obtained by stripping prefix from p.
// The caller must have already verified prefix is a prefix of p.
func (p DerivationPath) Suffix(prefix DerivationPath) DerivationPath {
	rest := make(DerivationPath, len(p)-len(prefix))
	copy(rest, p[len(prefix):])
	return rest
}

// Append returns a new path with rel appended to p.
func (p DerivationPath) Append(rel DerivationPath) DerivationPath {
	out := make(DerivationPath, 0, len(p)+len(rel))
	out = append(out, p...)
	out = append(out, rel...)
	return out
}

// Clone returns an independent copy of the path.
func (p DerivationPath) Clone() DerivationPath {
	out := make(DerivationPath, len(p))
	copy(out, p)
	return out
}
