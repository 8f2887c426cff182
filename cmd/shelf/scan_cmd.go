package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/library"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/output"
	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/ui/static"
)

// resultJSON is one row of --json output
type resultJSON struct {
	Key    string         `json:"key"`
	Name   string         `json:"name"`
	Source resolve.Source `json:"source"`
	Error  string         `json:"error,omitempty"`
}

type batchJSON struct {
	Results []resultJSON  `json:"results"`
	Stats   resolve.Stats `json:"stats"`
}

func toJSON(results []resolve.Result, stats resolve.Stats) batchJSON {
	out := batchJSON{Results: make([]resultJSON, len(results)), Stats: stats}
	for i, r := range results {
		out.Results[i] = resultJSON{Key: r.Key, Name: r.DisplayName, Source: r.Source}
		if r.Err != nil {
			out.Results[i].Error = r.Err.Error()
		}
	}
	return out
}

var errNoLibrary = errors.New("no library folder: pass one as an argument or set library_dir in the config")

// libraryDir picks the argument or the configured library_dir.
func libraryDir(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c := config.FromContext(ctx); c != nil && c.LibraryDir != "" {
		return c.LibraryDir, nil
	}
	return "", errNoLibrary
}

func newScanCmd() *cobra.Command {
	var (
		jsonOutput bool
		offline    bool
	)

	cmd := &cobra.Command{
		Use:     "scan [dir]",
		Short:   "List games in a library folder with resolved names",
		Aliases: []string{"ls"},
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `List the games in a library folder.

Every subfolder is one game. Folders containing a steam_appid.txt are
looked up on the Steam store in the configured language; the rest keep
their folder name. Results are cached, so later scans are instant.

Lookups that fail (offline, rate limited) fall back to the folder name,
which is cached like any other result. Run 'shelf cache clear' to look
everything up again.`,
		Example: `  shelf scan ~/Games          # Scan a folder
  shelf scan                  # Scan library_dir from config
  shelf scan --offline        # Only use the cache, no Steam lookups
  shelf scan --json           # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := libraryDir(ctx, args)
			if err != nil {
				return err
			}
			opts, err := defaultBatchOptions(ctx, offline, "Resolving games")
			if err != nil {
				return err
			}

			batch, err := scanLibrary(ctx, dir, opts)
			if err != nil {
				return err
			}
			return printBatch(ctx, batch, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip Steam lookups")

	return cmd
}

// scanLibrary enumerates dir and resolves every game folder.
func scanLibrary(ctx context.Context, dir string, opts batchOptions) (*resolve.Batch, error) {
	items, err := library.Scan(dir)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("scanned library", "dir", dir, "games", len(items))
	return resolveBatch(ctx, items, opts)
}

func printBatch(ctx context.Context, batch *resolve.Batch, jsonOutput bool) error {
	out := output.FromContext(ctx)
	if jsonOutput {
		return out.JSON(toJSON(batch.Results, batch.Stats))
	}
	if len(batch.Results) == 0 {
		log.FromContext(ctx).Println("Nothing found")
		return nil
	}
	out.Styled(static.RenderResults(batch.Results))
	return nil
}
