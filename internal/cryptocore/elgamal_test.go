package cryptocore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

func deterministicScalar(b byte) *secp256k1.PrivateKey {
	buf := bytes.Repeat([]byte{b}, 32)
	var s secp256k1.ModNScalar
	s.SetByteSlice(buf)
	return secp256k1.NewPrivateKey(&s)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		plaintext []byte
	}{
		{"exact one block", bytes.Repeat([]byte{0x42}, 32)},
		{"exact two blocks", bytes.Repeat([]byte{0x07}, 64)},
		{"unaligned, needs padding", []byte("a 78-byte extended key would go here, shorter for this test")},
		{"single byte", []byte{0xFF}},
		{"78-byte extended key shape", bytes.Repeat([]byte{0x11}, 78)},
	}

	d := deterministicScalar(0x01)
	encryptionKey := d.PubKey()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plaintext := append([]byte(nil), tc.plaintext...)

			ciphertext, unblinding, err := Encrypt(plaintext, encryptionKey)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}

			decryptionKey := bytes.Repeat([]byte{0x01}, 32)
			got, err := Decrypt(ciphertext, decryptionKey, unblinding)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}

			if !bytes.Equal(got, tc.plaintext) {
				t.Errorf("round trip mismatch: got %x want %x", got, tc.plaintext)
			}
		})
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	d := deterministicScalar(0x01)
	plaintext := bytes.Repeat([]byte{0x55}, 78)

	ciphertext, unblinding, err := Encrypt(plaintext, d.PubKey())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wrongKey := bytes.Repeat([]byte{0x02}, 32)
	got, err := Decrypt(ciphertext, wrongKey, unblinding)
	if err == nil && bytes.Equal(got, plaintext) {
		t.Fatal("decrypting with the wrong key reproduced the plaintext")
	}
}

func TestDecryptRejectsMalformedCiphertext(t *testing.T) {
	d := deterministicScalar(0x01)
	key := bytes.Repeat([]byte{0x01}, 32)

	_, err := Decrypt([]byte{0x01, 0x02, 0x03}, key, d.PubKey())
	if !errors.Is(err, vaulterr.ErrSecretKeyCorrupted) {
		t.Errorf("expected ErrSecretKeyCorrupted, got %v", err)
	}
}

func TestDecryptRejectsInvalidScalar(t *testing.T) {
	d := deterministicScalar(0x01)
	ciphertext, unblinding, err := Encrypt(bytes.Repeat([]byte{0x01}, 32), d.PubKey())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	zeroKey := make([]byte, 32)
	_, err = Decrypt(ciphertext, zeroKey, unblinding)
	if !errors.Is(err, vaulterr.ErrGroupOverflow) {
		t.Errorf("expected ErrGroupOverflow for zero scalar, got %v", err)
	}
}

func TestNewBlindingScalarIsValid(t *testing.T) {
	for i := 0; i < 20; i++ {
		priv, err := NewBlindingScalar()
		if err != nil {
			t.Fatalf("NewBlindingScalar: %v", err)
		}
		if priv.PubKey() == nil {
			t.Fatal("expected non-nil public key")
		}
	}
}
