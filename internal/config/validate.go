package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Valid enum values for configuration fields.
var (
	ValidThemeNames = []string{"none", "default", "dracula", "nord", "gruvbox", "catppuccin"}
	ValidThemeModes = []string{"auto", "light", "dark"}
)

func (c *Config) validate() error {
	if err := ValidatePath(c.LibraryDir, "library_dir"); err != nil {
		return err
	}
	if err := ValidatePath(c.CacheFile, "cache_file"); err != nil {
		return err
	}
	if err := validateBaseURL(c.Steam.BaseURL); err != nil {
		return err
	}
	if c.Steam.Timeout < 0 {
		return fmt.Errorf("invalid steam.timeout %s: must not be negative", c.Steam.Timeout)
	}
	if len(c.Apps.ListCommand) > 0 && strings.TrimSpace(c.Apps.ListCommand[0]) == "" {
		return fmt.Errorf("invalid apps.list_command: first element must name a program")
	}
	if err := validateEnum(c.Theme.Name, "theme.name", ValidThemeNames); err != nil {
		return err
	}
	return validateEnum(c.Theme.Mode, "theme.mode", ValidThemeModes)
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid steam.base_url %q: must be an http or https URL", raw)
	}
	return nil
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
