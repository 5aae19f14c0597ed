package driver

import "encoding/hex"

// HexBytes is a byte blob that renders as lowercase hex in every
// human-readable persisted format (YAML, TOML, JSON all honor
// encoding.TextMarshaler/TextUnmarshaler), per §6: "the encrypted field
// is hex-encoded in the human-readable formats and raw bytes in
// canonical binary". The same treatment is applied uniformly to every
// byte-blob field (xpubkey, encrypted, unblinding, fingerprints) so one
// type serves all of them instead of one-off hex calls scattered across
// three format packages.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	*h = b
	return nil
}
