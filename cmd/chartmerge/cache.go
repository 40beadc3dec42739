package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chartmerge/internal/synthcache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the synthesis cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show synthesis cache entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			st, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Entries: %d\nHits:    %d\nSize:    %d bytes\n", st.Entries, st.Hits, st.DBSizeBytes)
			for _, field := range sortedKeys(st.ByField) {
				fmt.Fprintf(w, "  %-28s %d\n", field, st.ByField[field])
			}
			return nil
		},
	}

	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete cache entries not used recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Purge(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries\n", n)
			return nil
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove entries unused for this long")

	cmd.AddCommand(stats, purge)
	return cmd
}

// openCache opens the configured cache, or the default location when none is set.
func (a *app) openCache() (*synthcache.Cache, error) {
	return synthcache.Open(a.cfg.Cache.Path)
}
