package soql_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/soql"
)

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	content := `
targetOrg: dev
apiVersion: 59.0
cacheTTLHours: 1
tooling: true
schemas: ./schemas
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".soql.yaml"), []byte(content), 0o644))

	cfg, err := soql.LoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.TargetOrg)
	assert.InDelta(t, 59.0, cfg.APIVersion, 0.001)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.True(t, cfg.Tooling)
	assert.Equal(t, filepath.Join(root, "schemas"), cfg.Schemas)

	// Unset keys fall back to defaults.
	assert.Equal(t, "sf", cfg.CLI)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := soql.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sf", cfg.CLI)
	assert.InDelta(t, soql.DefaultAPIVersion, cfg.APIVersion, 0.001)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL())
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestFindConfig_NotFound(t *testing.T) {
	t.Parallel()

	_, err := soql.FindConfig(t.TempDir())
	if err != nil {
		assert.ErrorIs(t, err, soql.ErrConfigNotFound)
	}
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "soql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targetOrg: [unclosed"), 0o644))

	_, err := soql.LoadConfigFile(path)
	assert.Error(t, err)
}
