package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/testutils"
)

func TestLogoutAction(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	mock := testutils.SetupMockKeyring(t)
	flags := append(append([]cli.Flag{}, common.GlobalFlags...), common.NetworkFlag, common.ForceFlag)

	t.Run("key not found", func(t *testing.T) {
		mock.Clear()

		app, noopLogger := testutils.CreateTestAppWithNoopLoggerAndAccess("test-app", flags, func(cCtx *cli.Context) error {
			return logoutAction(cCtx)
		})

		err := app.Run([]string{"test-app"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no key found")
		assert.Empty(t, noopLogger.GetEntries())
	})

	t.Run("successful logout", func(t *testing.T) {
		mock.Clear()
		require.NoError(t, mock.StorePrivateKey("testnet", key1234))

		app, noopLogger := testutils.CreateTestAppWithNoopLoggerAndAccess("test-app", flags, func(cCtx *cli.Context) error {
			return logoutAction(cCtx)
		})

		err := app.Run([]string{"test-app", "--network", "testnet", "--force"})
		require.NoError(t, err)

		logs := noopLogger.GetEntries()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "Successfully logged out")

		_, err = common.GetPrivateKey("testnet")
		assert.ErrorIs(t, err, common.ErrKeyNotFound)
	})
}
