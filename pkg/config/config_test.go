package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/framestack/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err, "explicit missing file is an error")

	cfg, err = config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "dark", cfg.Plot.Theme)
	assert.Equal(t, 1, cfg.Export.Step)
	assert.True(t, cfg.Export.Sidecar)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framestack.yaml")

	content := []byte("logging:\n  level: debug\nexport:\n  step: 5\nplot:\n  theme: light\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Export.Step)
	assert.Equal(t, "light", cfg.Plot.Theme)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		content string
		wantErr error
	}{
		"bad level": {"logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		"bad theme": {"plot:\n  theme: neon\n", config.ErrInvalidPlotTheme},
		"bad step":  {"export:\n  step: -2\n", config.ErrInvalidStep},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			_, err := config.Load(path)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
