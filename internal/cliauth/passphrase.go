// Package cliauth stretches a user-typed passphrase into the 32-byte
// scalar the vault RPC surface calls encryption_key/decryption_key
// (spec §4.8). This lives outside internal/vault deliberately: the
// vault never sees a passphrase, only the already-stretched key.
package cliauth

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/argon2"

	"github.com/pandoracore/keyring/internal/cryptocore"
)

// Argon2id parameters, matched to the teacher's own encryption helper.
const (
	argon2Time    = 4
	argon2Memory  = 256 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// domainSalt fixes Argon2id's salt so a passphrase always stretches to
// the same scalar. keyring-cli keeps no per-vault salt store of its
// own (unlike an account's persisted ciphertext state), so the salt is
// a fixed domain-separation constant rather than random-per-call.
var domainSalt = []byte("keyringd/cliauth/passphrase/v1")

// Stretch derives the 32-byte decryption_key for passphrase. The
// caller owns the returned slice and should cryptocore.Wipe it once
// done.
func Stretch(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), domainSalt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// PublicKeyFor stretches passphrase and returns the matching
// encryption_key public point, for use with the seed/derive RPCs.
func PublicKeyFor(passphrase string) *secp256k1.PublicKey {
	key := Stretch(passphrase)
	defer cryptocore.Wipe(key)

	var scalar secp256k1.ModNScalar
	scalar.SetByteSlice(key)
	priv := secp256k1.NewPrivateKey(&scalar)
	defer priv.Zero()
	return priv.PubKey()
}
