// Package config loads and saves cdash settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all cdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Access     AccessConfig     `toml:"access"`
	Server     ServerConfig     `toml:"server"`
	Remote     RemoteConfig     `toml:"remote"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	BucketPath string `toml:"bucket_path,omitempty"`
	ExportsDir string `toml:"exports_dir,omitempty"`
	TopSchools int    `toml:"top_schools" validate:"gte=1,lte=100"`
}

// AccessConfig holds the shared secrets checked against x-access-key.
// The admin key may upload; either key may read.
type AccessConfig struct {
	AdminKey    string `toml:"admin_key,omitempty"`
	ReadOnlyKey string `toml:"read_only_key,omitempty"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Addr        string `toml:"addr" validate:"required,hostname_port"`
	PollSeconds int    `toml:"poll_seconds" validate:"gte=2"`
}

// RemoteConfig points the CLI at another cdash server instead of the
// local bucket.
type RemoteConfig struct {
	URL       string `toml:"url,omitempty" validate:"omitempty,http_url"`
	AccessKey string `toml:"access_key,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" validate:"oneof=brand flexoki-dark catppuccin-mocha terminal"`
}

// env lists the environment variables that override the file.
type env struct {
	AdminKey    string `envconfig:"UPLOAD_ACCESS_KEY"`
	ReadOnlyKey string `envconfig:"READ_ONLY_ACCESS_KEY"`
	BucketPath  string `envconfig:"CDASH_BUCKET_PATH"`
	Addr        string `envconfig:"CDASH_ADDR"`
	Theme       string `envconfig:"CDASH_THEME"`
	RemoteURL   string `envconfig:"CDASH_SERVER"`
	RemoteKey   string `envconfig:"CDASH_ACCESS_KEY"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			TopSchools: 10,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8787",
			PollSeconds: 15,
		},
		Appearance: AppearanceConfig{
			Theme: "brand",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cdash")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the directory holding the export bucket.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cdash")
}

// StateDir returns the directory for pid, state and log files.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "cdash")
}

// BucketPath returns the configured bucket database, or the default one.
func BucketPath(cfg Config) string {
	if cfg.General.BucketPath != "" {
		return cfg.General.BucketPath
	}
	return filepath.Join(DataDir(), "bucket.db")
}

// PollInterval returns the server's bucket polling interval.
func PollInterval(cfg Config) time.Duration {
	return time.Duration(cfg.Server.PollSeconds) * time.Second
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are not applied; see Resolve.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Resolve returns cfg with environment overrides applied. Keep the result
// out of Save so secrets from the environment never land on disk.
func Resolve(cfg Config) (Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	if e.AdminKey != "" {
		cfg.Access.AdminKey = e.AdminKey
	}
	if e.ReadOnlyKey != "" {
		cfg.Access.ReadOnlyKey = e.ReadOnlyKey
	}
	if e.BucketPath != "" {
		cfg.General.BucketPath = e.BucketPath
	}
	if e.Addr != "" {
		cfg.Server.Addr = e.Addr
	}
	if e.Theme != "" {
		cfg.Appearance.Theme = e.Theme
	}
	if e.RemoteURL != "" {
		cfg.Remote.URL = e.RemoteURL
	}
	if e.RemoteKey != "" {
		cfg.Remote.AccessKey = e.RemoteKey
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // config path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// MaskKey hides all but the edges of a secret for display.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
