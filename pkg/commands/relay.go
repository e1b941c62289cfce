package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/relay"
)

var RelayCommand = &cli.Command{
	Name:  "relay",
	Usage: "Relay transactions through smart wallets",
	Subcommands: []*cli.Command{
		relay.SendCommand,
	},
}
