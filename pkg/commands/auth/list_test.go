package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/testutils"
)

func TestListAction(t *testing.T) {
	mock := testutils.SetupMockKeyring(t)

	t.Run("empty keyring", func(t *testing.T) {
		app, noopLogger := testutils.CreateTestAppWithNoopLoggerAndAccess("test-app", common.GlobalFlags, func(cCtx *cli.Context) error {
			return listAction(cCtx)
		})

		stdout, stderr := testutils.CaptureOutput(func() {
			err := app.Run([]string{"test-app"})
			require.NoError(t, err)
		})

		assert.Contains(t, stdout, "No keys stored in keyring")
		assert.Contains(t, stdout, "relayctl auth login")
		assert.Empty(t, stderr)
		assert.Empty(t, noopLogger.GetEntries())
	})

	t.Run("with stored keys", func(t *testing.T) {
		mock.Clear()
		require.NoError(t, mock.StorePrivateKey(common.FallbackNetwork, key1234))

		app, noopLogger := testutils.CreateTestAppWithNoopLoggerAndAccess("test-app", common.GlobalFlags, func(cCtx *cli.Context) error {
			return listAction(cCtx)
		})

		stdout, stderr := testutils.CaptureOutput(func() {
			err := app.Run([]string{"test-app"})
			require.NoError(t, err)
		})

		assert.Contains(t, stdout, "Stored private keys:")
		assert.Contains(t, stdout, common.FallbackNetwork)
		assert.Contains(t, stdout, address1234)
		assert.Contains(t, stdout, "Usage:")
		assert.Empty(t, stderr)
		assert.Empty(t, noopLogger.GetEntries())
	})
}
