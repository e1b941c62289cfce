package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	firstRun, err := IsFirstRun()
	require.NoError(t, err)
	assert.True(t, firstRun)

	pref, err := GetGlobalTelemetryPreference()
	require.NoError(t, err)
	assert.Nil(t, pref)

	require.NoError(t, SetGlobalTelemetryPreference(false))
	require.NoError(t, MarkFirstRunComplete())

	firstRun, err = IsFirstRun()
	require.NoError(t, err)
	assert.False(t, firstRun)

	pref, err = GetGlobalTelemetryPreference()
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.False(t, *pref)

	require.Error(t, SaveUserId("not-a-uuid"))
	require.NoError(t, SaveUserId("3f1c0f3e-8f5e-4d8a-9c8b-1c2d3e4f5a6b"))
	assert.Equal(t, "3f1c0f3e-8f5e-4d8a-9c8b-1c2d3e4f5a6b", getUserUUIDFromGlobalConfig())
}

func TestDefaultNetwork(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	network, err := GetDefaultNetwork()
	require.NoError(t, err)
	assert.Empty(t, network)

	require.Error(t, SetDefaultNetwork("no-such-network"))
	require.NoError(t, SetDefaultNetwork(FallbackNetwork))

	network, err = GetDefaultNetwork()
	require.NoError(t, err)
	assert.Equal(t, FallbackNetwork, network)
}
