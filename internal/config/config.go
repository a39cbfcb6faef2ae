package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	appLog "sxcal/internal/log"
)

const envPrefix = "SXCAL_"

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	URL string `yaml:"url" koanf:"url" json:"url"`
	// ID becomes the calendarId of the feed's events.
	ID   string `yaml:"id" koanf:"id" json:"id"`
	Name string `yaml:"name" koanf:"name" json:"name"`
}

// SourceID is ID, else Name, else URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	}
	return c.URL
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" koanf:"username" json:"username"`
	Password string `yaml:"password" koanf:"password" json:"password"`
}

// Config is the host process configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" koanf:"listen" json:"listen"`

	// Timezone, Locale and FirstDayOfWeek are applied to a created calendar
	// whose configuration leaves them out.
	Timezone       string `yaml:"timezone" koanf:"timezone" json:"timezone"`
	Locale         string `yaml:"locale" koanf:"locale" json:"locale"`
	FirstDayOfWeek int    `yaml:"first_day_of_week" koanf:"first_day_of_week" json:"first_day_of_week"`

	// Views are the logical view names used when a create call sends none.
	Views []string `yaml:"views" koanf:"views" json:"views"`

	// RefreshCron re-fetches the ICS feeds (e.g. "*/15 * * * *").
	RefreshCron string      `yaml:"refresh" koanf:"refresh" json:"refresh"`
	ICS         []ICSConfig `yaml:"ics" koanf:"ics" json:"ics"`
	CacheDir    string      `yaml:"cache_dir" koanf:"cache_dir" json:"cache_dir"`

	LogLevel string `yaml:"log_level" koanf:"log_level" json:"log_level"`
	Metrics  bool   `yaml:"metrics" koanf:"metrics" json:"metrics"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" koanf:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		Timezone:       "UTC",
		Locale:         "en-US",
		FirstDayOfWeek: 1,
		Views:          []string{"createViewDay", "createViewWeek", "createViewMonthGrid", "createViewMonthAgenda"},
		RefreshCron:    "*/15 * * * *",
		ICS:            []ICSConfig{},
		CacheDir:       filepath.Join(os.TempDir(), "sxcal-ics-cache"),
		LogLevel:       "info",
		Metrics:        true,
	}
}

// Normalize fills in missing or invalid values with the defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.FirstDayOfWeek < 0 || c.FirstDayOfWeek > 6 {
		c.FirstDayOfWeek = def.FirstDayOfWeek
	}
	if len(c.Views) == 0 {
		c.Views = def.Views
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

// Load reads configuration from defaults, then the YAML file at path, then
// SXCAL_* environment variables (SXCAL_BASIC_AUTH_USERNAME sets
// basic_auth.username). A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		appLog.Info("config file not found, writing defaults", "path", path)
		if err := Save(path, DefaultConfig()); err != nil {
			appLog.Error("failed to write default config", err, "path", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envKey,
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// nestedKeys are the sections whose env names map to a dotted key.
var nestedKeys = []string{"basic_auth"}

// envKey maps SXCAL_LOG_LEVEL to log_level and SXCAL_BASIC_AUTH_USERNAME to
// basic_auth.username.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, envPrefix))
	for _, section := range nestedKeys {
		if strings.HasPrefix(k, section+"_") {
			return section + "." + strings.TrimPrefix(k, section+"_"), v
		}
	}
	if k == "views" {
		return k, strings.Split(v, ",")
	}
	return k, v
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sxcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
