package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/scaladex/internal/config"
	"github.com/jcdickinson/scaladex/internal/daemon"
	"github.com/jcdickinson/scaladex/internal/rpc"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop decoded indexes from the daemon's search cache",
	Long: `Drop decoded indexes from the daemon's in-memory search cache, for every
source or only those named with --source. With --purge the stored sources
are deleted as well and must be imported again.`,
	Example: `  scaladex clear-cache
  scaladex clear-cache --source mill --purge`,
	Args: cobra.NoArgs,
	Run:  runClearCache,
}

var (
	clearSources []string
	clearPurge   bool
)

func init() {
	clearCacheCmd.Flags().StringSliceVar(&clearSources, "source", nil, "only clear these sources (repeatable)")
	clearCacheCmd.Flags().BoolVar(&clearPurge, "purge", false, "also delete the stored sources")
}

func runClearCache(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	resp, err := client.ClearCache(context.Background(), rpc.ClearCacheRequest{
		Sources: clearSources,
		Purge:   clearPurge,
	})
	if err != nil {
		slog.Error("failed to clear cache", "error", err)
		os.Exit(1)
	}
	fmt.Printf("cleared %d cached indexes\n", resp.Cleared)
	if clearPurge {
		fmt.Printf("deleted %d sources\n", resp.Deleted)
	}
}
