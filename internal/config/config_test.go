package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
shares:
  data:
    backend: disk
    root: /srv/data
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 445, cfg.Listen.Port)
	require.Equal(t, "0.0.0.0", cfg.Listen.Host)
	require.Equal(t, 30*time.Second, cfg.Timeouts.Shutdown)
	require.Equal(t, "INFO", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, "127.0.0.1:9445", cfg.Metrics.Listen)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 445, cfg.Listen.Port)
}

func TestLoad_IPCShareIsAlwaysForcedToIPCBackend(t *testing.T) {
	path := writeConfig(t, `
shares:
  "IPC$":
    backend: disk
    root: /should/be/ignored
    comment: overridden comment
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	ipc, ok := cfg.Shares["IPC$"]
	require.True(t, ok)
	require.Equal(t, "ipc", ipc.Backend)
	require.Equal(t, "overridden comment", ipc.Comment)
}

func TestLoad_DiskShareWithoutRootFailsValidation(t *testing.T) {
	path := writeConfig(t, `
shares:
  data:
    backend: disk
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UserNamesAreLowercased(t *testing.T) {
	path := writeConfig(t, `
users:
  Alice:
    lm_hash: "aabbccdd"
    ntlm_hash: "eeff0011"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, ok := cfg.Users["alice"]
	require.True(t, ok)
	_, ok = cfg.Users["Alice"]
	require.False(t, ok)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
listen:
  port: 445
`)

	t.Setenv("SMB1D_LISTEN_PORT", "1445")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1445, cfg.Listen.Port)
}
