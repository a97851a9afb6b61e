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

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 4*time.Second, cfg.Board.Interval)
	assert.Equal(t, 4, cfg.Board.PageSize)
	assert.True(t, cfg.Board.MaskPlates)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	assert.False(t, cfg.Seed.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kioskd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
boardId: shop-7
httpPort: 9000
store:
  backend: badger
board:
  interval: 10s
  pageSize: 6
  maskPlates: false
monitor:
  enabled: false
seed:
  enabled: true
  file: /etc/kioskd/seed.yaml
`), 0o644))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("BOARD_INTERVAL", "3")
	t.Setenv("MONITOR_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shop-7", cfg.BoardID)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, 3*time.Second, cfg.Board.Interval)
	assert.Equal(t, 6, cfg.Board.PageSize)
	assert.False(t, cfg.Board.MaskPlates)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "/etc/kioskd/seed.yaml", cfg.Seed.File)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvDurationForms(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "1500ms")
	t.Setenv("BOARD_INTERVAL", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Monitor.Interval)
	assert.Equal(t, 4*time.Second, cfg.Board.Interval)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":       func(c *Config) { c.HTTPPort = 0 },
		"interval":   func(c *Config) { c.Board.Interval = 0 },
		"page size":  func(c *Config) { c.Board.PageSize = -1 },
		"monitor":    func(c *Config) { c.Monitor.Interval = 0 },
		"backend":    func(c *Config) { c.Store.Backend = "postgres" },
		"send queue": func(c *Config) { c.Display.SendQueue = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	cfg := Default()
	cfg.Monitor.Enabled = false
	cfg.Monitor.Interval = 0
	assert.NoError(t, cfg.Validate())
}
