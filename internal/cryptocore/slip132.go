package cryptocore

import (
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/vaulterr"
)

// versionPair is the (private, public) SLIP-132 version byte pair for one
// (chain, application) combination.
type versionPair struct {
	priv [4]byte
	pub  [4]byte
}

// SLIP-132 defines mainnet/testnet pairs only; signet and regtest reuse
// the testnet pairs (there is no separate SLIP-132 registry entry for
// either, and both behave like testnet for extended-key purposes in
// every wallet that supports them). Bare P2SH ("sh") has no dedicated
// SLIP-132 entry either, so it reuses the standard xprv/xpub bytes.
// wsh-in-sh reuses the P2SH-multisig Ypub/Yprv pair since both describe
// a script wrapped in P2SH. These are pragmatic resolutions of an
// otherwise-unspecified mapping; see DESIGN.md.
var versionTable = map[model.Chain]map[model.KeyApplication]versionPair{
	model.ChainMainnet: {
		model.AppPKH:      {priv: [4]byte{0x04, 0x88, 0xAD, 0xE4}, pub: [4]byte{0x04, 0x88, 0xB2, 0x1E}}, // xprv/xpub
		model.AppSH:       {priv: [4]byte{0x04, 0x88, 0xAD, 0xE4}, pub: [4]byte{0x04, 0x88, 0xB2, 0x1E}}, // xprv/xpub
		model.AppWPKH:     {priv: [4]byte{0x04, 0xB2, 0x43, 0x0C}, pub: [4]byte{0x04, 0xB2, 0x47, 0x46}}, // zprv/zpub
		model.AppWSH:      {priv: [4]byte{0x02, 0xAA, 0x7A, 0x99}, pub: [4]byte{0x02, 0xAA, 0x7E, 0xD3}}, // Zprv/Zpub
		model.AppWPKHInSH: {priv: [4]byte{0x04, 0x9D, 0x78, 0x78}, pub: [4]byte{0x04, 0x9D, 0x7C, 0xB2}}, // yprv/ypub
		model.AppWSHInSH:  {priv: [4]byte{0x02, 0x95, 0xB0, 0x05}, pub: [4]byte{0x02, 0x95, 0xB4, 0x3F}}, // Yprv/Ypub
	},
	model.ChainTestnet: {
		model.AppPKH:      {priv: [4]byte{0x04, 0x35, 0x83, 0x94}, pub: [4]byte{0x04, 0x35, 0x87, 0xCF}}, // tprv/tpub
		model.AppSH:       {priv: [4]byte{0x04, 0x35, 0x83, 0x94}, pub: [4]byte{0x04, 0x35, 0x87, 0xCF}}, // tprv/tpub
		model.AppWPKH:     {priv: [4]byte{0x04, 0x5F, 0x18, 0xBC}, pub: [4]byte{0x04, 0x5F, 0x1C, 0xF6}}, // vprv/vpub
		model.AppWSH:      {priv: [4]byte{0x02, 0x57, 0x50, 0x48}, pub: [4]byte{0x02, 0x57, 0x54, 0x83}}, // testnet Zprv/Zpub analogue
		model.AppWPKHInSH: {priv: [4]byte{0x04, 0x4A, 0x4E, 0x28}, pub: [4]byte{0x04, 0x4A, 0x52, 0x62}}, // uprv/upub
		model.AppWSHInSH:  {priv: [4]byte{0x02, 0x42, 0x85, 0xB5}, pub: [4]byte{0x02, 0x42, 0x89, 0xEF}}, // testnet Yprv/Ypub analogue
	},
}

func init() {
	for _, apps := range versionTable {
		for _, pair := range apps {
			RegisterVersionPair(pair.priv, pair.pub)
		}
	}
	// signet and regtest share the testnet table (see comment above).
	versionTable[model.ChainSignet] = versionTable[model.ChainTestnet]
	versionTable[model.ChainRegtest] = versionTable[model.ChainTestnet]
}

// ResolveVersions maps a (chain, application) pair to its SLIP-132
// private/public extended-key version bytes, per spec §3's KeyApplication
// definition ("determines the BIP32 extended-key version bytes via
// SLIP-132 resolution").
func ResolveVersions(chain model.Chain, app model.KeyApplication) (privVersion, pubVersion [4]byte, err error) {
	apps, ok := versionTable[chain]
	if !ok {
		return privVersion, pubVersion, vaulterr.Wrapf(vaulterr.ErrResolverFailure, "unsupported chain %q", chain)
	}
	pair, ok := apps[app]
	if !ok {
		return privVersion, pubVersion, vaulterr.Wrapf(vaulterr.ErrResolverFailure, "unsupported application %q for chain %q", app, chain)
	}
	return pair.priv, pair.pub, nil
}
