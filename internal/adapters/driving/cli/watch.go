package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skema-cli/internal/core/services"
)

var (
	watchInterval     time.Duration
	watchSourceSystem string
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>...",
	Short: "Continuously ingest files as they appear",
	Long: `Watches the given directories and re-ingests whenever files are
created or modified. Rescans are rate-limited, so a burst of writes
costs one pass.

Watching only registers raw content; run 'skema run' to transform
what accumulated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "minimum delay between rescans")
	watchCmd.Flags().StringVar(&watchSourceSystem, "source-system", "local", "label recorded as the origin of ingested files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, scratch, err := openStores()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	traversal := services.NewTraversal(store.ContentStore(), store.ManifestStore(), scratch, watchSourceSystem)
	watcher := services.NewWatcher(traversal, args, watchInterval)

	cmd.Printf("Watching %d paths (Ctrl-C to stop)\n", len(args))
	if err := watcher.Watch(cmd.Context()); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
