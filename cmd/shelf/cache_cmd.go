package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphi011/shelf/internal/config"
	"github.com/raphi011/shelf/internal/log"
	"github.com/raphi011/shelf/internal/namecache"
	"github.com/raphi011/shelf/internal/output"
	"github.com/raphi011/shelf/internal/ui/progress"
	"github.com/raphi011/shelf/internal/ui/prompt"
	"github.com/raphi011/shelf/internal/ui/static"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect or clear the name cache",
		GroupID: GroupConfig,
		Long: `Inspect or clear the name cache.

Resolved names are stored in ~/.shelf/names.json (or cache_file from the
config). Clearing it makes the next scan look every game up again.`,
		Example: `  shelf cache show     # List cached names
  shelf cache path     # Print the cache file location
  shelf cache clear    # Forget all cached names`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCachePathCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			path, err := cacheFile(config.FromContext(ctx))
			if err != nil {
				return err
			}
			store := namecache.Load(path)
			if err := store.LoadErr(); err != nil {
				log.FromContext(ctx).Warnf("name cache unusable: %v", err)
			}
			names := store.Names()

			if jsonOutput {
				return out.JSON(names)
			}
			if len(names) == 0 {
				log.FromContext(ctx).Println("Cache is empty")
				return nil
			}

			keys := slices.Sorted(maps.Keys(names))
			rows := make([][]string, len(keys))
			for i, k := range keys {
				rows[i] = []string{names[k], k}
			}
			out.Styled(static.RenderTable([]string{"NAME", "KEY"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := cacheFile(config.FromContext(ctx))
			if err != nil {
				return err
			}
			output.FromContext(ctx).Println(path)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget all cached names",
		Args:  cobra.NoArgs,
		Long: `Forget all cached names.

Asks for confirmation on a terminal. Use --yes in scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := cacheFile(config.FromContext(ctx))
			if err != nil {
				return err
			}

			if !yes {
				if !progress.IsTerminal(os.Stdin) {
					return errors.New("refusing to clear the cache without a terminal (use --yes)")
				}
				res, err := prompt.Confirm(fmt.Sprintf("Clear %d cached names in %s?", namecache.Load(path).Len(), path))
				if err != nil {
					return err
				}
				if !res.Confirmed {
					log.FromContext(ctx).Println("Cancelled")
					return nil
				}
			}

			n, err := clearCache(ctx, path)
			if err != nil {
				return err
			}
			log.FromContext(ctx).Printf("Cleared %d cached names\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Don't ask for confirmation")

	return cmd
}

// clearCache empties the cache file under the lock and returns how many
// names were dropped.
func clearCache(ctx context.Context, path string) (int, error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	store, unlock, err := namecache.LoadLocked(lockCtx, path)
	if err != nil {
		return 0, err
	}
	defer unlock()

	n := store.Len()
	store.Reset()
	return n, store.Persist()
}
