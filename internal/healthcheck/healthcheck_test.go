package healthcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l3aro/tldrs/internal/config"
)

func TestRunReportsOKOnFreshWorkspace(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	result, err := Run(cfg, dir)
	require.NoError(t, err)
	require.Len(t, result.Checks, 3)

	byName := map[string]Check{}
	for _, c := range result.Checks {
		byName[c.Name] = c
	}

	require.Equal(t, StatusOK, byName["state_dir"].Status)
	require.Equal(t, StatusOK, byName["delivery_db"].Status)
	require.Contains(t, []CheckStatus{StatusOK, StatusWarn}, byName["git_binary"].Status)
	require.False(t, result.HasErrors() && byName["git_binary"].Status != StatusError)
}

func TestRunNilConfig(t *testing.T) {
	_, err := Run(nil, t.TempDir())
	require.Error(t, err)
}
