package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newCacheCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local cache",
	}
	cmd.AddCommand(newCacheStatsCmd(s), newCacheClearCmd(s), newCacheSweepCmd(s))
	return cmd
}

func newCacheStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts and file size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kv := s.kv()
			if kv == nil {
				return errCacheDisabled
			}
			st := kv.Stats()
			cmd.Printf("Path:            %s\n", s.store.Path())
			cmd.Printf("Total entries:   %d\n", st.TotalEntries)
			cmd.Printf("Valid entries:   %d\n", st.ValidEntries)
			cmd.Printf("Expired entries: %d\n", st.ExpiredEntries)
			cmd.Printf("Storage size:    %.2f MB\n", st.SizeMB())
			return nil
		},
	}
}

func newCacheClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [TICKER]",
		Short: "Remove one ticker's entries, or everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := s.kv()
			if kv == nil {
				return errCacheDisabled
			}
			if len(args) == 0 {
				kv.ClearAll()
				cmd.Println("Cleared all cache entries")
				return nil
			}
			n := kv.ClearTicker(args[0])
			cmd.Printf("Removed %d entries for %s\n", n, strings.ToUpper(args[0]))
			return nil
		},
	}
}

func newCacheSweepCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kv := s.kv()
			if kv == nil {
				return errCacheDisabled
			}
			cmd.Printf("Removed %d expired entries\n", kv.SweepExpired())
			return nil
		},
	}
}
