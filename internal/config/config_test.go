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
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Snapshot.Driver)
	assert.Equal(t, "conf/kos.json", cfg.Snapshot.Path)
	assert.True(t, cfg.Snapshot.CreateIfMissing)
	assert.Equal(t, 10*time.Second, cfg.Discord.HandshakeTimeout)
	assert.Equal(t, "kos.roster.admitted", cfg.NATS.Subject)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
discord:
  token: file-token
  owner_id: "1001"
  application_id: "2002"
  handshake_timeout: 30s
snapshot:
  driver: sqlite
  path: /var/lib/kosbot/kos.db
  create_if_missing: false
http:
  addr: ":9090"
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.Equal(t, "1001", cfg.Discord.OwnerID)
	assert.Equal(t, 30*time.Second, cfg.Discord.HandshakeTimeout)
	assert.Equal(t, "sqlite", cfg.Snapshot.Driver)
	assert.False(t, cfg.Snapshot.CreateIfMissing)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	// не заданное в файле остаётся дефолтом
	assert.Equal(t, 3, cfg.Submissions.Burst)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateRegister())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "discord:\n  token: file-token\n")
	t.Setenv("KOSBOT_DISCORD_TOKEN", "env-token")
	t.Setenv("KOSBOT_SNAPSHOT_PATH", "/tmp/kos.json")
	t.Setenv("KOSBOT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, "/tmp/kos.json", cfg.Snapshot.Path)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.ErrorIs(t, cfg.ValidateRegister(), ErrMissingApplicationID)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "discord: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal config")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("KOSBOT_SUBMISSIONS_BURST", "many")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env")
	})
}
