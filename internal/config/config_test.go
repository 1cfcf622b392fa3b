package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "pagelift-convert", cfg.Engine.Binary)
	assert.Equal(t, 5*time.Second, cfg.Engine.TerminationGrace)
	assert.Equal(t, "cpu", cfg.Runtime.Device)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagelift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  binary: /opt/converter/bin/convert
runtime:
  device: cuda
  virtual_vram: 24
  model_source: local
journal:
  enabled: true
  path: /tmp/journal.db
observability:
  log_level: debug
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/opt/converter/bin/convert", cfg.Engine.Binary)
	assert.Equal(t, 5*time.Second, cfg.Engine.TerminationGrace, "unset grace keeps the default")
	assert.Equal(t, "cuda", cfg.Runtime.Device)
	assert.Equal(t, 24, cfg.Runtime.VirtualVRAM)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAGELIFT_ENGINE_BINARY", "/usr/local/bin/convert")
	t.Setenv("PAGELIFT_DEVICE", "mps")
	t.Setenv("PAGELIFT_VIRTUAL_VRAM", "12")
	t.Setenv("PAGELIFT_JOURNAL", "1")
	t.Setenv("PAGELIFT_JOURNAL_PATH", "/tmp/j.db")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/convert", cfg.Engine.Binary)
	assert.Equal(t, "mps", cfg.Runtime.Device)
	assert.Equal(t, 12, cfg.Runtime.VirtualVRAM)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/j.db", cfg.Journal.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestValidate_BadModelSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runtime.ModelSource = "carrier-pigeon"

	assert.Error(t, cfg.Validate())
}

func TestValidate_JournalNeedsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = ""

	assert.Error(t, cfg.Validate())
}
