package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/auth"
)

var AuthCommand = &cli.Command{
	Name:  "auth",
	Usage: "Manage per-network signing keys stored in the OS keyring",
	Subcommands: []*cli.Command{
		auth.GenerateCommand,
		auth.LoginCommand,
		auth.LogoutCommand,
		auth.WhoamiCommand,
		auth.ListCommand,
	},
}
