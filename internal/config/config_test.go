package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// A named config file that does not exist is an error; loading with
	// no file at all falls back to defaults.
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 5*time.Minute, cfg.Auth.PrincipalCacheTTL)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
database:
  driver: postgres
  host: db.internal
  user: contacts
  database: contacts
auth:
  token_ttl: 24h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ""
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = ""
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.TokenTTL = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.BcryptCost = 99
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Logging.Level = "loud"
	require.Error(t, cfg.Validate())
}
