package cryptocore

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/hkdf"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

const (
	blockSize       = 32
	padLenHeader    = 1
	maxScalarRetries = 16
	hkdfInfo        = "pandoracore/keyring elgamal keystream v1"
)

// NewBlindingScalar draws a fresh 32-byte secp256k1 scalar, retrying on the
// negligible-probability event that the bytes don't form a valid scalar
// (zero or >= curve order), per spec §4.2.1 step 5.
func NewBlindingScalar() (*secp256k1.PrivateKey, error) {
	var buf [32]byte
	for attempt := 0; attempt < maxScalarRetries; attempt++ {
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, vaulterr.Wrapf(vaulterr.ErrPrivkeyGeneration, "reading entropy: %w", err)
		}

		var s secp256k1.ModNScalar
		overflow := s.SetByteSlice(buf[:])
		if overflow || s.IsZero() {
			continue
		}

		priv := secp256k1.NewPrivateKey(&s)
		Wipe(buf[:])
		return priv, nil
	}
	return nil, vaulterr.ErrPrivkeyGeneration
}

// sharedKeystream derives a len-byte keystream from an ECDH shared secret
// using HKDF-SHA256. The shared secret is wiped before returning.
func sharedKeystream(shared []byte, length int) ([]byte, error) {
	defer Wipe(shared)

	stream := make([]byte, length)
	r := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, stream); err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrNotEnoughMemory, "deriving keystream: %w", err)
	}
	return stream, nil
}

func xorInto(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Encrypt is the length-preserving ElGamal scheme of spec §4.5: the
// plaintext is padded to a 32-byte block boundary, XORed with a keystream
// derived from the ECDH shared secret G*b*P, and the pad length is
// prepended so Decrypt can recover the exact original length. The public
// half of the one-time blinding keypair (G*b) is returned as the
// "unblinding" value the caller must persist alongside the ciphertext.
func Encrypt(plaintext []byte, encryptionKey *secp256k1.PublicKey) (ciphertext []byte, unblinding *secp256k1.PublicKey, err error) {
	blindingPriv, err := NewBlindingScalar()
	if err != nil {
		return nil, nil, err
	}
	unblinding = blindingPriv.PubKey()

	shared := secp256k1.GenerateSharedSecret(blindingPriv, encryptionKey)

	padLen := (blockSize - len(plaintext)%blockSize) % blockSize
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	// Padding bytes are not required to be zero by the protocol, only
	// that their length is recorded; zero keeps Encrypt deterministic
	// given identical entropy, which simplifies testing.

	keystream, err := sharedKeystream(shared, len(padded))
	if err != nil {
		blindingPriv.Zero()
		return nil, nil, err
	}

	out := make([]byte, padLenHeader+len(padded))
	out[0] = byte(padLen)
	xorInto(out[padLenHeader:], padded, keystream)

	Wipe(padded)
	Wipe(keystream)
	blindingPriv.Zero()

	return out, unblinding, nil
}

// Decrypt reverses Encrypt given the long-term decryption_key d and the
// unblinding value U = G*b that accompanied the ciphertext. It does not
// mutate or wipe decryptionKey; callers (the KeysAccount layer) are
// responsible for wiping it immediately after this call returns, per
// spec §4.2.2 step 2.
func Decrypt(ciphertext []byte, decryptionKey []byte, unblinding *secp256k1.PublicKey) ([]byte, error) {
	if len(ciphertext) < padLenHeader+blockSize || (len(ciphertext)-padLenHeader)%blockSize != 0 {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "ciphertext length %d is not a valid padded block sequence", len(ciphertext))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(decryptionKey); overflow || scalar.IsZero() {
		return nil, vaulterr.Wrapf(vaulterr.ErrGroupOverflow, "decryption key is not a valid secp256k1 scalar")
	}
	privKey := secp256k1.NewPrivateKey(&scalar)
	defer privKey.Zero()

	shared := secp256k1.GenerateSharedSecret(privKey, unblinding)

	padLen := int(ciphertext[0])
	body := ciphertext[padLenHeader:]
	if padLen >= blockSize {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "invalid pad length %d", padLen)
	}

	keystream, err := sharedKeystream(shared, len(body))
	if err != nil {
		return nil, err
	}

	padded := make([]byte, len(body))
	xorInto(padded, body, keystream)
	Wipe(keystream)

	if padLen > len(padded) {
		Wipe(padded)
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "pad length exceeds payload")
	}

	plaintext := make([]byte, len(padded)-padLen)
	copy(plaintext, padded[:len(plaintext)])
	Wipe(padded)

	return plaintext, nil
}
