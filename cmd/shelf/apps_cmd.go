package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/shelf/internal/appx"
	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/output"
	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/ui/progress"
	"github.com/raphi011/shelf/internal/ui/prompt"
	"github.com/raphi011/shelf/internal/ui/static"
)

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

func newAppsCmd() *cobra.Command {
	var (
		from       string
		filter     string
		jsonOutput bool
		copyFirst  bool
		choose     bool
	)

	cmd := &cobra.Command{
		Use:     "apps",
		Short:   "List installed app packages with display names",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `List installed app packages under readable names.

The package list is JSON as printed by the configured apps.list_command,
read from a file with --from, or piped in with --from -. Display names
that are unresolved resource placeholders fall back to the package name;
publisher names are appended where they help.

--filter fuzzy-matches names (and package names) and sorts by best match.
--copy puts the best match's full package name on the clipboard, ready
for an uninstall command. --select opens a filterable list to choose the
package to copy instead.`,
		Example: `  shelf apps
  shelf apps --filter photos --copy
  shelf apps --select
  powershell -c "Get-AppxPackage | ConvertTo-Json" | shelf apps --from -
  shelf apps --from packages.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			pkgs, err := loadPackages(ctx, from, cmd.InOrStdin())
			if err != nil {
				return err
			}

			opts, err := defaultBatchOptions(ctx, true, "Resolving apps")
			if err != nil {
				return err
			}
			batch, err := resolveBatch(ctx, appx.Candidates(pkgs), opts)
			if err != nil {
				return err
			}

			matches := static.Filter(filter, batch.Results)
			if choose {
				return selectAndCopy(ctx, matches)
			}
			if copyFirst {
				if len(matches) == 0 {
					return fmt.Errorf("no package matches %q", filter)
				}
				key := matches[0].Result.Key
				if err := copyToClipboard(key); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				l.Printf("Copied %s\n", key)
			}

			if jsonOutput {
				results := make([]resolve.Result, len(matches))
				for i, m := range matches {
					results[i] = m.Result
				}
				return out.JSON(toJSON(results, batch.Stats))
			}

			if len(matches) == 0 {
				l.Println("No matching packages")
				return nil
			}
			rows := make([][]string, len(matches))
			for i, m := range matches {
				rows[i] = static.ResultRow(m.Result, m.Highlighted)
			}
			out.Styled(static.RenderTable(static.ResultHeaders, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Read the package list from a file, or - for stdin")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy filter by name")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&copyFirst, "copy", "c", false, "Copy the best match's package full name to the clipboard")
	cmd.Flags().BoolVarP(&choose, "select", "i", false, "Choose the package to copy interactively")
	cmd.MarkFlagsMutuallyExclusive("select", "copy")
	cmd.MarkFlagsMutuallyExclusive("select", "json")

	return cmd
}

var errNoListCommand = errors.New("no package list: set apps.list_command in the config or use --from")

// loadPackages reads the listing from --from, stdin, or the configured command.
func loadPackages(ctx context.Context, from string, stdin io.Reader) ([]appx.Package, error) {
	switch from {
	case "-":
		if f, ok := stdin.(*os.File); ok && progress.IsTerminal(f) {
			return nil, errors.New("--from - expects the package list on stdin, not a terminal")
		}
		return appx.Decode(stdin)
	case "":
		c := config.FromContext(ctx)
		if c == nil || len(c.Apps.ListCommand) == 0 {
			return nil, errNoListCommand
		}
		return appx.List(ctx, c.Apps.ListCommand)
	default:
		f, err := os.Open(from)
		if err != nil {
			return nil, fmt.Errorf("open package list: %w", err)
		}
		defer f.Close()
		return appx.Decode(f)
	}
}

// selectAndCopy lets the user choose one of matches and copies its key.
func selectAndCopy(ctx context.Context, matches []static.Match) error {
	if !progress.IsTerminal(os.Stderr) {
		return errors.New("--select needs a terminal")
	}
	options := make([]prompt.Option, len(matches))
	for i, m := range matches {
		options[i] = prompt.Option{Label: m.Result.DisplayName, Detail: m.Result.Key}
	}

	res, err := prompt.Select("Copy package full name", options)
	if err != nil {
		return err
	}
	if res.Cancelled {
		return nil
	}
	if err := copyToClipboard(res.Option.Detail); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	log.FromContext(ctx).Printf("Copied %s\n", res.Option.Detail)
	return nil
}
