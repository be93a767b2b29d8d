package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lyricsync/internal/aligncache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the alignment cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func withCache(ctx *commandContext, fn func(*aligncache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := aligncache.Open(cfg)
	if err != nil {
		return fmt.Errorf("open alignment cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show alignment cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *aligncache.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				newest := "never"
				if !stats.Newest.IsZero() {
					newest = stats.Newest.Local().Format("2006-01-02 15:04")
				}
				rows := [][]string{
					{"Path", stats.Path},
					{"Entries", strconv.Itoa(stats.Entries)},
					{"Hits", strconv.FormatInt(stats.Hits, 10)},
					{"Size", humanBytes(stats.SizeBytes)},
					{"Newest", newest},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached alignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *aligncache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, statusLine(out, true, fmt.Sprintf("Removed %d cached alignments", removed)))
				return nil
			})
		},
	}
}
