package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvPrefix+"_CONFIG", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:4040", cfg.Listen)
	assert.Equal(t, 320, cfg.Transcode.MaxBitrate)
	assert.Equal(t, "mp3", cfg.Transcode.Format)
	assert.Equal(t, 90*time.Second, cfg.Transcode.GracePeriod)
	assert.Equal(t, 16*1024, cfg.Transcode.ChunkSize)
	assert.Equal(t, 50, cfg.Scanner.BatchSize)
	assert.False(t, cfg.Scanner.Prune)
	assert.True(t, filepath.IsAbs(cfg.UserPath))
	assert.Equal(t, filepath.Join(cfg.UserPath, "sonicd.db"), cfg.DatabasePath())
}

func TestFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
listen: ":8080"
sqlite_database: /var/lib/sonicd/catalog.db
libraries:
  - name: Music
    path: /srv/music
  - path: /srv/podcasts
users:
  - username: admin
    password: secret
    admin: true
transcode:
  max_bitrate: 192
  grace_period: 10s
scanner:
  prune: true
`)
	t.Setenv(EnvPrefix+"_LOG_LEVEL", "debug")
	t.Setenv(EnvPrefix+"_TRANSCODE_FORMAT", "ogg")

	flags := Flags()
	require.NoError(t, flags.Parse([]string{"--config", path, "--listen", ":9090"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ogg", cfg.Transcode.Format)
	assert.Equal(t, 192, cfg.Transcode.MaxBitrate)
	assert.Equal(t, 10*time.Second, cfg.Transcode.GracePeriod)
	assert.True(t, cfg.Scanner.Prune)
	assert.Equal(t, "/var/lib/sonicd/catalog.db", cfg.DatabasePath())

	require.Len(t, cfg.Libraries, 2)
	assert.Equal(t, Library{Name: "Music", Path: "/srv/music"}, cfg.Libraries[0])
	assert.Equal(t, "/srv/podcasts", cfg.Libraries[1].Path)

	require.Len(t, cfg.Users, 1)
	assert.True(t, cfg.Users[0].Admin)
}

func TestBrokenFile(t *testing.T) {
	path := writeConfig(t, "listen: [")
	t.Setenv(EnvPrefix+"_CONFIG", path)

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Listen:    ":4040",
		Scanner:   Scanner{BatchSize: 50},
		Transcode: Transcode{MaxBitrate: 320},
	}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"no listen":         func(c *Config) { c.Listen = "" },
		"ssl without certs": func(c *Config) { c.SSL = true },
		"library path":      func(c *Config) { c.Libraries = []Library{{Name: "x"}} },
		"user password":     func(c *Config) { c.Users = []User{{Username: "x"}} },
		"bitrate too low":   func(c *Config) { c.Transcode.MaxBitrate = 16 },
		"bitrate too high":  func(c *Config) { c.Transcode.MaxBitrate = 640 },
		"batch size":        func(c *Config) { c.Scanner.BatchSize = 0 },
	}

	for name, change := range tests {
		cfg := valid
		change(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestTimeouts(t *testing.T) {
	cfg := Config{ReadTimeout: 15}
	read, write := cfg.Timeouts()
	assert.Equal(t, 15*time.Second, read)
	assert.Zero(t, write)
}
