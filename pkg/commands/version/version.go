package version

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/internal/version"
	"github.com/relaykit/relayctl/pkg/common"
)

var VersionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print the version of relayctl",
	Flags: append([]cli.Flag{}, common.GlobalFlags...),
	Action: func(cCtx *cli.Context) error {
		return VersionRun(cCtx)
	},
}

func VersionRun(cCtx *cli.Context) error {
	fmt.Printf("relayctl %s (commit %s, %s build)\n", version.GetVersion(), version.GetCommit(), common.Build)
	return nil
}
