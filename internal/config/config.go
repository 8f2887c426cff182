package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// SteamConfig configures the Steam store lookup backend.
type SteamConfig struct {
	Enabled  *bool         `toml:"enabled"`  // nil means enabled
	BaseURL  string        `toml:"base_url"` // store endpoint, overridable for mirrors
	Language string        `toml:"language"` // appdetails "l" parameter
	Timeout  time.Duration `toml:"timeout"`  // per lookup, e.g. "10s"
}

// IsEnabled reports whether lookups should be made.
func (s SteamConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// AppsConfig configures the app package listing.
type AppsConfig struct {
	ListCommand []string `toml:"list_command"` // argv; stdout must be package JSON
}

// ThemeConfig holds UI color settings.
type ThemeConfig struct {
	Name     string `toml:"name"` // preset family: none, default, dracula, nord, gruvbox, catppuccin
	Mode     string `toml:"mode"` // auto, light or dark
	Primary  string `toml:"primary"`
	Accent   string `toml:"accent"`
	Success  string `toml:"success"`
	Error    string `toml:"error"`
	Muted    string `toml:"muted"`
	Warning  string `toml:"warning"`
	Nerdfont bool   `toml:"nerdfont"`
}

// Config holds the shelf configuration
type Config struct {
	LibraryDir string      `toml:"library_dir"` // default folder for scan and pick
	CacheFile  string      `toml:"cache_file"`  // empty means ~/.shelf/names.json
	Steam      SteamConfig `toml:"steam"`
	Apps       AppsConfig  `toml:"apps"`
	Theme      ThemeConfig `toml:"theme"`
}

// Defaults for the [steam] section
const (
	DefaultSteamBaseURL  = "https://store.steampowered.com"
	DefaultSteamLanguage = "schinese"
	DefaultSteamTimeout  = 10 * time.Second
)

// Default returns the default configuration
func Default() Config {
	return Config{
		Steam: SteamConfig{
			BaseURL:  DefaultSteamBaseURL,
			Language: DefaultSteamLanguage,
			Timeout:  DefaultSteamTimeout,
		},
	}
}

// configKey is the context key for Config
type configKey struct{}

// WithConfig returns a new context with the config stored in it.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config from context, or nil if none is stored.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return nil
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path to the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shelf", "config.toml"), nil
}

// Load reads config from ~/.config/shelf/config.toml and applies env overrides.
// Returns Default() if the file doesn't exist (no error).
// Returns error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		return cfg, applyEnvOverrides(&cfg)
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit file path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Default(), err
	}
	if err := cfg.validate(); err != nil {
		return Default(), err
	}

	// Expand ~ (shell doesn't expand in config files)
	if cfg.LibraryDir, err = expandPath(cfg.LibraryDir); err != nil {
		return Default(), fmt.Errorf("expand library_dir: %w", err)
	}
	if cfg.CacheFile, err = expandPath(cfg.CacheFile); err != nil {
		return Default(), fmt.Errorf("expand cache_file: %w", err)
	}

	// Use defaults for empty values
	if cfg.Steam.BaseURL == "" {
		cfg.Steam.BaseURL = DefaultSteamBaseURL
	}
	if cfg.Steam.Language == "" {
		cfg.Steam.Language = DefaultSteamLanguage
	}
	if cfg.Steam.Timeout == 0 {
		cfg.Steam.Timeout = DefaultSteamTimeout
	}

	return cfg, nil
}

// applyEnvOverrides applies SHELF_* environment variables.
// Empty variables leave the config unchanged.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SHELF_LIBRARY_DIR"); v != "" {
		cfg.LibraryDir = v
	}
	if v := os.Getenv("SHELF_CACHE_FILE"); v != "" {
		cfg.CacheFile = v
	}
	if v := os.Getenv("SHELF_STEAM_LANGUAGE"); v != "" {
		cfg.Steam.Language = v
	}
	if v := os.Getenv("SHELF_THEME"); v != "" {
		cfg.Theme.Name = v
	}
	if v := os.Getenv("SHELF_THEME_MODE"); v != "" {
		cfg.Theme.Mode = v
	}
	return nil
}

// DefaultConfig returns the commented config file written by Init.
func DefaultConfig() string {
	return defaultConfig
}

const defaultConfig = `# shelf configuration

# Default game library folder for "shelf scan" and "shelf pick"
# Each subfolder is one game; a steam_appid.txt inside names its Steam app id
# Must be an absolute path or start with ~ (no relative paths like "." or "..")
# library_dir = "~/Games"

# Where resolved names are cached (default: ~/.shelf/names.json)
# cache_file = "~/.shelf/names.json"

# Steam store lookups for folders with a steam_appid.txt
[steam]
# enabled = true
base_url = "https://store.steampowered.com"
language = "schinese"   # appdetails language, e.g. "english", "tchinese"
timeout = "10s"         # per lookup

# App package listing for "shelf apps"
# The command must print the package list as JSON (an array or a single object)
# with Name, PackageFullName, DisplayName and PublisherDisplayName fields.
# [apps]
# list_command = ["powershell", "-NoProfile", "-Command", "Get-AppxPackage | ConvertTo-Json"]

# UI colors
# [theme]
# name = "default"  # none, default, dracula, nord, gruvbox, catppuccin
# mode = "auto"     # auto, light, dark
# primary = "#89b4fa"
# nerdfont = false
`

// Init creates a default config file at ~/.config/shelf/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, InitAt(path, force)
}

// InitAt writes the default config to path.
func InitAt(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
