package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
timezone: Europe/Berlin
first_day_of_week: 0
log_level: DEBUG
ics:
  - url: https://example.com/team.ics
    name: team
`), 0o600))

	t.Setenv("SXCAL_LISTEN", ":9100")
	t.Setenv("SXCAL_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("SXCAL_BASIC_AUTH_PASSWORD", "secret")
	t.Setenv("SXCAL_VIEWS", "createViewWeek,createViewDay")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Listen, "env wins over the file")
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 0, cfg.FirstDayOfWeek)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"createViewWeek", "createViewDay"}, cfg.Views)
	require.Len(t, cfg.ICS, 1)
	assert.Equal(t, "team", cfg.ICS[0].SourceID())
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
	assert.Equal(t, "secret", cfg.BasicAuth.Password)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		FirstDayOfWeek: 9,
		LogLevel:       "verbose",
		BasicAuth:      &BasicAuthConfig{Username: "admin"},
	}
	cfg.Normalize()

	def := DefaultConfig()
	assert.Equal(t, def.FirstDayOfWeek, cfg.FirstDayOfWeek)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, def.Views, cfg.Views)
	assert.Nil(t, cfg.BasicAuth, "incomplete credentials disable auth")
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Locale = "de-DE"
	cfg.ICS = []ICSConfig{{URL: "https://example.com/a.ics", ID: "a"}}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "de-DE", got.Locale)
	assert.Equal(t, cfg.ICS, got.ICS)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSourceID(t *testing.T) {
	assert.Equal(t, "id", ICSConfig{ID: "id", Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "n", ICSConfig{Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "u", ICSConfig{URL: "u"}.SourceID())
}
