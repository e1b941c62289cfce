package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/wallet"
)

var WalletCommand = &cli.Command{
	Name:  "wallet",
	Usage: "Generate, deploy and inspect smart wallets",
	Subcommands: []*cli.Command{
		wallet.GenerateCommand,
		wallet.DeployCommand,
		wallet.StatusCommand,
		wallet.ListCommand,
	},
}
