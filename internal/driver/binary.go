package driver

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

// Canonical binary encoding for VaultState. Every variable-length field
// is a uint32 byte-length prefix followed by its raw bytes; every
// sequence is a uint32 count prefix followed by that many elements, in
// order. There is no reflection and no type descriptor, unlike
// encoding/gob — see DESIGN.md for why that distinction matters for a
// custody-grade on-disk format.
const binaryMagic = "KRNG"

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeString(w io.Writer, s string) error { return writeBytes(w, []byte(s)) }

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeUint32Slice(w io.Writer, vals []uint32) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readUint32Slice(r io.Reader) ([]uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeAccount(w io.Writer, a AccountState) error {
	if err := writeBytes(w, a.Xpubkey); err != nil {
		return err
	}
	if err := writeBytes(w, a.Encrypted); err != nil {
		return err
	}
	if err := writeBytes(w, a.Unblinding); err != nil {
		return err
	}
	if err := writeString(w, a.Name); err != nil {
		return err
	}
	if err := writeString(w, a.Details); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(a.Assets))); err != nil {
		return err
	}
	for _, id := range a.Assets {
		if err := writeString(w, id); err != nil {
			return err
		}
	}
	return nil
}

func readAccount(r io.Reader) (AccountState, error) {
	var a AccountState
	var err error
	if a.Xpubkey, err = readBytes(r); err != nil {
		return a, err
	}
	if a.Encrypted, err = readBytes(r); err != nil {
		return a, err
	}
	if a.Unblinding, err = readBytes(r); err != nil {
		return a, err
	}
	if a.Name, err = readString(r); err != nil {
		return a, err
	}
	if a.Details, err = readString(r); err != nil {
		return a, err
	}
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return a, err
	}
	a.Assets = make([]string, n)
	for i := range a.Assets {
		if a.Assets[i], err = readString(r); err != nil {
			return a, err
		}
	}
	return a, nil
}

// EncodeBinary serializes state in the canonical binary format.
func EncodeBinary(state VaultState) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(binaryMagic)

	if err := binary.Write(&buf, binary.BigEndian, uint32(len(state.Keyrings))); err != nil {
		return nil, err
	}
	for _, k := range state.Keyrings {
		if err := writeAccount(&buf, k.Master); err != nil {
			return nil, err
		}
		if k.KeySource == nil {
			if err := buf.WriteByte(0); err != nil {
				return nil, err
			}
		} else {
			if err := buf.WriteByte(1); err != nil {
				return nil, err
			}
			if err := writeBytes(&buf, k.KeySource.ParentFingerprint); err != nil {
				return nil, err
			}
			if err := writeUint32Slice(&buf, k.KeySource.Path); err != nil {
				return nil, err
			}
		}
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(k.SubAccounts))); err != nil {
			return nil, err
		}
		for _, sub := range k.SubAccounts {
			if err := writeUint32Slice(&buf, sub.Path); err != nil {
				return nil, err
			}
			if err := writeAccount(&buf, sub.Account); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// DecodeBinary parses the canonical binary format.
func DecodeBinary(raw []byte) (VaultState, error) {
	if len(raw) < len(binaryMagic) || string(raw[:len(binaryMagic)]) != binaryMagic {
		return VaultState{}, vaulterr.Wrapf(vaulterr.ErrDriver, "bad binary keyring store header")
	}
	r := bytes.NewReader(raw[len(binaryMagic):])

	var keyringCount uint32
	if err := binary.Read(r, binary.BigEndian, &keyringCount); err != nil {
		return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
	}

	state := VaultState{Keyrings: make([]KeyringState, keyringCount)}
	for i := range state.Keyrings {
		master, err := readAccount(r)
		if err != nil {
			return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}

		hasSource, err := r.ReadByte()
		if err != nil {
			return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}
		var keySource *KeySourceState
		if hasSource == 1 {
			fp, err := readBytes(r)
			if err != nil {
				return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
			}
			path, err := readUint32Slice(r)
			if err != nil {
				return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
			}
			keySource = &KeySourceState{ParentFingerprint: fp, Path: path}
		}

		var subCount uint32
		if err := binary.Read(r, binary.BigEndian, &subCount); err != nil {
			return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
		}
		subs := make([]SubAccountState, subCount)
		for j := range subs {
			path, err := readUint32Slice(r)
			if err != nil {
				return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
			}
			acc, err := readAccount(r)
			if err != nil {
				return VaultState{}, vaulterr.Wrap(vaulterr.ErrDriver, err)
			}
			subs[j] = SubAccountState{Path: path, Account: acc}
		}

		state.Keyrings[i] = KeyringState{Master: master, KeySource: keySource, SubAccounts: subs}
	}
	return state, nil
}
