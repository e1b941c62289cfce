package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/token"
)

var TokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Inspect and manage tokens accepted as relay fees",
	Subcommands: []*cli.Command{
		token.ListCommand,
		token.CheckCommand,
		token.AllowCommand,
	},
}
