package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swyh-go.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// TestLoadFileAutoReconnectIndependentOfAutoResume is spec.md §6: auto_resume
// and auto_reconnect are two independent booleans, not one flag reused for
// both policies.
func TestLoadFileAutoReconnectIndependentOfAutoResume(t *testing.T) {
	path := writeConfigFile(t, "auto_reconnect: true\nlast_renderer_label: Kitchen\n")

	cfg, err := LoadFile(path, Default())
	require.NoError(t, err)

	assert.True(t, cfg.AutoReconnect)
	assert.False(t, cfg.AutoResume, "auto_resume must stay false unless set separately")
	assert.Equal(t, "Kitchen", cfg.LastRendererLabel)
}

func TestLoadFileSelectedOutputDeviceName(t *testing.T) {
	path := writeConfigFile(t, "selected_output_device_name: Loopback Audio\n")

	cfg, err := LoadFile(path, Default())
	require.NoError(t, err)

	assert.Equal(t, "Loopback Audio", cfg.SelectedOutputDeviceName)
}

func TestLoadFileMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
