package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/shelf/internal/cmd"
	"github.com/raphi011/shelf/internal/library"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/output"
	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/ui/styles"
)

// pickIndex is replaced in tests
var pickIndex = rand.IntN

var errEmptyLibrary = errors.New("library has no games to pick from")

// pickOne returns a uniformly random result.
func pickOne(results []resolve.Result) (resolve.Result, error) {
	if len(results) == 0 {
		return resolve.Result{}, errEmptyLibrary
	}
	return results[pickIndex(len(results))], nil
}

type pickJSON struct {
	resultJSON
	Executable string `json:"executable,omitempty"`
}

func newPickCmd() *cobra.Command {
	var (
		launch     bool
		copyName   bool
		jsonOutput bool
		offline    bool
	)

	c := &cobra.Command{
		Use:     "pick [dir]",
		Short:   "Pick a random game from the library",
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Pick a random game from a library folder.

The library is scanned and resolved like 'shelf scan', then one game is
chosen at random. With --launch the first executable in the game's folder
is started (installers and redistributables are skipped).`,
		Example: `  shelf pick                  # Suggest a game
  shelf pick --launch         # Suggest and start it
  shelf pick ~/Games --copy   # Copy the name to the clipboard`,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

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

			picked, err := pickOne(batch.Results)
			if err != nil {
				return err
			}

			var exe string
			if launch || jsonOutput {
				exe, err = library.FindExecutable(filepath.Join(dir, picked.Key))
				if err != nil && launch {
					return err
				}
			}

			if copyName {
				if err := copyToClipboard(picked.DisplayName); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
			}

			if jsonOutput {
				res := toJSON([]resolve.Result{picked}, batch.Stats).Results[0]
				if err := out.JSON(pickJSON{resultJSON: res, Executable: exe}); err != nil {
					return err
				}
			} else {
				out.Styled(styles.AccentStyle.Render(picked.DisplayName) + " " +
					styles.MutedStyle.Render("("+picked.Key+")"))
			}

			if launch {
				l.Printf("Launching %s\n", picked.DisplayName)
				return cmd.Start(ctx, filepath.Dir(exe), exe)
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&launch, "launch", "l", false, "Start the picked game")
	c.Flags().BoolVarP(&copyName, "copy", "c", false, "Copy the picked name to the clipboard")
	c.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	c.Flags().BoolVar(&offline, "offline", false, "Skip Steam lookups")

	return c
}
