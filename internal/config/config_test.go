package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 3s
database:
  driver: postgres
  dsn: postgres://localhost/postboard?sslmode=disable
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 10*time.Second, cfg.Server.ReadTimeout, "unset keys keep their defaults")
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, 12, cfg.Security.BcryptCost)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("POSTBOARD_SERVER_PORT", "7070")
	t.Setenv("POSTBOARD_DATABASE_DSN", "/tmp/other.db")
	t.Setenv("POSTBOARD_SECURITY_BCRYPT_COST", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "/tmp/other.db", cfg.Database.DSN)
	require.Equal(t, 4, cfg.Security.BcryptCost)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown driver": "database:\n  driver: mysql\n",
		"port range":     "server:\n  port: 70000\n",
		"log level":      "log:\n  level: loud\n",
		"bcrypt cost":    "security:\n  bcrypt_cost: 2\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	require.ErrorContains(t, err, "parse config")
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	require.Equal(t, "127.0.0.1:8080", s.Addr())
}
