package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodeb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nf:\n  name: \"\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadParsesTimerDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodeb.yaml")
	contents := `
nf:
  name: nodeb-1
  instance_id: nodeb-1
  srnc_id: 1
server:
  bind_address: "0.0.0.0"
  port: 8080
umts:
  timers:
    inactivity:
      release: 10s
      delete: 60s
  rlc:
    transmission_buffer_size: 1048576
    max_dat: 4
    max_rst: 3
  best_effort:
    bytes_per_sec: 16000
  prach:
    sf: 256
  sccpch:
    sf: 128
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), cfg.NF.SRNCID)
	assert.Equal(t, 10_000_000_000, int(cfg.UMTS.Timers.Inactivity.Release))
}
