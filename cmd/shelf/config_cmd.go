package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage shelf configuration.

Config file: ~/.config/shelf/config.toml`,
		Example: `  shelf config init      # Create default config
  shelf config show      # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  shelf config init       # Create config
  shelf config init -f    # Overwrite existing config
  shelf config init -s    # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}

			path, err := config.Init(force)
			if err != nil {
				if !force {
					return fmt.Errorf("%w (use -f to overwrite)", err)
				}
				return err
			}
			log.FromContext(ctx).Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

// configJSON is the --json shape of config show
type configJSON struct {
	Path       string   `json:"path"`
	LibraryDir string   `json:"library_dir"`
	CacheFile  string   `json:"cache_file"`
	Steam      steamCfg `json:"steam"`
	Apps       struct {
		ListCommand []string `json:"list_command"`
	} `json:"apps"`
	Theme struct {
		Name     string `json:"name"`
		Mode     string `json:"mode"`
		Nerdfont bool   `json:"nerdfont"`
	} `json:"theme"`
}

type steamCfg struct {
	Enabled  bool   `json:"enabled"`
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
	Timeout  string `json:"timeout"`
}

func showConfig(c *config.Config, path string) configJSON {
	if c == nil {
		d := config.Default()
		c = &d
	}
	cacheFilePath, _ := cacheFile(c)
	v := configJSON{
		Path:       path,
		LibraryDir: c.LibraryDir,
		CacheFile:  cacheFilePath,
		Steam: steamCfg{
			Enabled:  c.Steam.IsEnabled(),
			BaseURL:  c.Steam.BaseURL,
			Language: c.Steam.Language,
			Timeout:  c.Steam.Timeout.String(),
		},
	}
	v.Apps.ListCommand = c.Apps.ListCommand
	v.Theme.Name = c.Theme.Name
	v.Theme.Mode = c.Theme.Mode
	v.Theme.Nerdfont = c.Theme.Nerdfont
	return v
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show effective configuration.

Values come from the config file, then environment overrides
(SHELF_LIBRARY_DIR, SHELF_CACHE_FILE, SHELF_STEAM_LANGUAGE,
SHELF_THEME, SHELF_THEME_MODE), then defaults.`,
		Example: `  shelf config show          # Show config
  shelf config show --json   # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			path, err := config.Path()
			if err != nil {
				return err
			}
			v := showConfig(config.FromContext(ctx), path)

			if jsonOutput {
				return out.JSON(v)
			}

			out.Printf("Config file: %s\n\n", v.Path)
			out.Printf("library_dir: %s\n", v.LibraryDir)
			out.Printf("cache_file: %s\n", v.CacheFile)
			out.Printf("steam.enabled: %v\n", v.Steam.Enabled)
			out.Printf("steam.base_url: %s\n", v.Steam.BaseURL)
			out.Printf("steam.language: %s\n", v.Steam.Language)
			out.Printf("steam.timeout: %s\n", v.Steam.Timeout)
			if len(v.Apps.ListCommand) > 0 {
				out.Printf("apps.list_command: %v\n", v.Apps.ListCommand)
			}
			out.Printf("theme.name: %s\n", v.Theme.Name)
			out.Printf("theme.mode: %s\n", v.Theme.Mode)
			out.Printf("theme.nerdfont: %v\n", v.Theme.Nerdfont)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
