package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/network"
)

var NetworkCommand = &cli.Command{
	Name:    "network",
	Aliases: []string{"net"},
	Usage:   "Manage the active RSK network",
	Subcommands: []*cli.Command{
		network.SetCommand,
		network.ListCommand,
		network.ShowCommand,
	},
}
