package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ProtocolChat, cfg.Backend.Protocol)
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Session.Slots)
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "http://maps.internal:9000"
  protocol: legacy
  timeout: 45s
session:
  slots: 5
storage:
  type: disk
  data_dir: /tmp/maps
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://maps.internal:9000", cfg.Backend.BaseURL)
	assert.Equal(t, ProtocolLegacy, cfg.Backend.Protocol)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Session.Slots)
	assert.Equal(t, StorageDisk, cfg.Storage.Type)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MAPCHAT_BACKEND_BASE_URL", "http://from-env:1234")
	t.Setenv("MAPCHAT_SESSION_SLOTS", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:1234", cfg.Backend.BaseURL)
	assert.Equal(t, 2, cfg.Session.Slots)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
backend:
  protocol: grpc
session:
  slots: 0
storage:
  type: s3
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.protocol")
	assert.Contains(t, err.Error(), "session.slots")
	assert.Contains(t, err.Error(), "storage.type")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
