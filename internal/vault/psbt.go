package vault

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"

	"github.com/pandoracore/keyring/internal/cryptocore"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// fingerprintFromUint32 converts a psbt.Bip32Derivation's
// MasterKeyFingerprint (decoded by the library as a little-endian
// uint32 of the raw 4-byte BIP174 field) back to our raw Fingerprint.
func fingerprintFromUint32(v uint32) model.Fingerprint {
	var fp model.Fingerprint
	binary.LittleEndian.PutUint32(fp[:], v)
	return fp
}

// SignPsbt implements spec §4.4.2: for every input, for every
// bip32_derivation entry whose master fingerprint matches a known
// keyring, decrypt that keyring's master, derive along the entry's
// path, compute the legacy (non-witness) sighash, sign, and attach the
// partial signature. Per §4.4.2, decryptionKey is wiped once for the
// whole call rather than per-input; each keyring's decrypted master
// xpriv is cached and reused across every input that shares it, then
// wiped when the call returns.
func (v *Vault) SignPsbt(raw []byte, decryptionKey []byte) (_ []byte, err error) {
	defer func() { v.observe("sign_psbt", err) }()

	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "parsing psbt: %w", err)
	}

	decrypted := make(map[*Keyring]*hdkeychain.ExtendedKey)
	defer func() {
		for _, xpriv := range decrypted {
			xpriv.Zero()
		}
	}()
	defer cryptocore.Wipe(decryptionKey)

	tx := packet.UnsignedTx

	for i, input := range packet.Inputs {
		if len(input.Bip32Derivation) == 0 {
			continue
		}
		if input.NonWitnessUtxo == nil {
			return nil, vaulterr.Wrapf(vaulterr.ErrDriver, "input %d: non_witness_utxo required for legacy signing", i)
		}

		for _, deriv := range input.Bip32Derivation {
			fp := fingerprintFromUint32(deriv.MasterKeyFingerprint)

			var kr *Keyring
			for _, candidate := range v.keyrings {
				if candidate.MatchesFingerprint(fp) {
					kr = candidate
					break
				}
			}
			if kr == nil {
				continue
			}

			parentXpriv, ok := decrypted[kr]
			if !ok {
				// Account.Decrypt wipes its argument in place; a
				// keyring may need the key again later in this same
				// call (another input, another keyring), so decrypt
				// from a throwaway copy and let the original live
				// until the whole call is done.
				keyCopy := append([]byte(nil), decryptionKey...)
				x, err := kr.Master.Decrypt(keyCopy)
				if err != nil {
					v.metrics.ObserveDecryptFailure()
					return nil, err
				}
				decrypted[kr] = x
				parentXpriv = x
			}

			childXpriv, err := cryptocore.DerivePath(parentXpriv, deriv.Bip32Path)
			if err != nil {
				return nil, err
			}
			privKey, err := childXpriv.ECPrivKey()
			if err != nil {
				childXpriv.Zero()
				return nil, vaulterr.Wrap(vaulterr.ErrSecp256k1Broken, err)
			}

			vout := tx.TxIn[i].PreviousOutPoint.Index
			if int(vout) >= len(input.NonWitnessUtxo.TxOut) {
				childXpriv.Zero()
				zeroECPrivKey(privKey)
				return nil, vaulterr.Wrapf(vaulterr.ErrSecretKeyCorrupted, "input %d: vout %d out of range", i, vout)
			}
			prevScript := input.NonWitnessUtxo.TxOut[vout].PkScript

			sighash, err := txscript.CalcSignatureHash(prevScript, txscript.SigHashAll, tx, i)
			if err != nil {
				childXpriv.Zero()
				zeroECPrivKey(privKey)
				return nil, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "computing sighash for input %d: %w", i, err)
			}

			der, err := cryptocore.SignDigest(privKey, sighash)
			childXpriv.Zero()
			zeroECPrivKey(privKey)
			if err != nil {
				return nil, err
			}

			sig := append(der, byte(txscript.SigHashAll))
			packet.Inputs[i].PartialSigs = append(packet.Inputs[i].PartialSigs, &psbt.PartialSig{
				PubKey:    deriv.PubKey,
				Signature: sig,
			})
			packet.Inputs[i].SighashType = txscript.SigHashAll
		}
	}

	var out bytes.Buffer
	if err := packet.Serialize(&out); err != nil {
		return nil, vaulterr.Wrapf(vaulterr.ErrSecp256k1Broken, "serializing signed psbt: %w", err)
	}
	return out.Bytes(), nil
}
