package utils

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/relaying"
)

// WalletIndex returns the derivation index for a wallet: the registry entry's when
// there is one, otherwise --index.
func WalletIndex(cCtx *cli.Context, address ethcommon.Address, entry *common.WalletEntry) (uint64, error) {
	if entry != nil {
		return entry.Index, nil
	}
	if cCtx.IsSet(common.IndexFlag.Name) {
		return cCtx.Uint64(common.IndexFlag.Name), nil
	}
	return 0, fmt.Errorf("wallet %s is not registered, pass --index", address.Hex())
}

// SmartWalletFor builds the SmartWallet a relay or estimate needs from a resolved reference.
// The index only matters for deploys, so unregistered addresses default to 0.
func SmartWalletFor(address ethcommon.Address, entry *common.WalletEntry) relaying.SmartWallet {
	wallet := relaying.SmartWallet{Address: address}
	if entry != nil {
		wallet.Index = entry.Index
		wallet.Deployed = entry.Deployed
		if ethcommon.IsHexAddress(entry.Token) {
			wallet.TokenAddress = ethcommon.HexToAddress(entry.Token)
		}
	}
	return wallet
}

// VerifyWalletAddress recomputes the address for index and rejects a mismatch, which
// means the wallet belongs to another owner.
func VerifyWalletAddress(cCtx *cli.Context, pf *PreflightContext, address ethcommon.Address, index uint64) (*relaying.SmartWallet, error) {
	wallet, err := pf.Service.GenerateSmartWallet(cCtx.Context, index)
	if err != nil {
		return nil, err
	}
	if wallet.Address != address {
		owner, _ := pf.Service.AccountAddress()
		return nil, fmt.Errorf("wallet %s is not index %d of owner %s (computed %s)",
			address.Hex(), index, owner.Hex(), wallet.Address.Hex())
	}
	return wallet, nil
}

// DeployedLabel renders a colored deployment status.
func DeployedLabel(deployed bool) string {
	if deployed {
		return color.GreenString("deployed")
	}
	return color.YellowString("not deployed")
}
