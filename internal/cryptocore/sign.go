package cryptocore

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/pandoracore/keyring/internal/vaulterr"
)

// SignDigest signs a 32-byte digest with deterministic RFC 6979 nonce
// generation, exactly as the teacher's bitcoin signer does
// (src/chainadapter/bitcoin/signer.go), and returns the DER-encoded
// signature required by spec §4.2.4/§8 scenario S4 (determinism).
func SignDigest(privKey *btcec.PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "digest must be 32 bytes, got %d", len(digest))
	}
	sig := ecdsa.Sign(privKey, digest)
	return sig.Serialize(), nil
}
