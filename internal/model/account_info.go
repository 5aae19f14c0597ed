package model

// AccountInfo is the §6 read-only projection of a KeysAccount returned by
// Vault.List and Vault.Derive. Id is the account's own XpubId (the value
// every other vault method addresses it by); Fingerprint is the
// fingerprint of the keyring's master (for a master, the first 4 bytes
// of Id; a sub-account carries its master's). Application is set only
// in the reply to Seed; List leaves it nil. KeySource is set only for
// masters, from the keyring's key_source (sub-accounts carry none).
type AccountInfo struct {
	Id          XpubId
	Name        string
	Details     string
	KeyId       XpubId
	Fingerprint Fingerprint
	Assets      []AssetId
	Path        DerivationPath
	Application *KeyApplication
	KeySource   *KeySource
}
