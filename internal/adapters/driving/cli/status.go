package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// manifestReader is the slice of the store the detail view needs,
// kept narrow so tests can fake it.
type manifestReader interface {
	ManifestStore() driven.ManifestStore
	RowQuarantineStore() driven.RowQuarantineStore
}

var statusFile string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show manifest state counts",
	Long: `Prints how many files sit in each lifecycle state. With --file,
shows the full manifest record for one content hash, including any
rows its cleaning routine quarantined.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFile, "file", "", "content hash to inspect in detail")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, _, err := openStores()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	ctx := cmd.Context()

	if statusFile != "" {
		return printFileStatus(cmd, store, statusFile)
	}

	counts, err := store.ManifestStore().CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	order := []domain.Status{
		domain.StatusRawIngested,
		domain.StatusTransformedSuccess,
		domain.StatusQuarantined,
		domain.StatusTransformationFailed,
	}
	var total int64
	for _, st := range order {
		cmd.Printf("%-22s %d\n", st, counts[st])
		total += counts[st]
	}
	cmd.Printf("%-22s %d\n", "total", total)
	return nil
}

func printFileStatus(cmd *cobra.Command, store manifestReader, hashStr string) error {
	hash, err := domain.ParseHash(hashStr)
	if err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}

	ctx := cmd.Context()
	rec, err := store.ManifestStore().Get(ctx, hash)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", hashStr, err)
	}

	cmd.Printf("File:        %s\n", rec.FileHash)
	cmd.Printf("Path:        %s\n", rec.OriginalPath)
	cmd.Printf("Source:      %s\n", rec.SourceSystem)
	cmd.Printf("Status:      %s\n", rec.Status)
	cmd.Printf("Ingested:    %s\n", rec.IngestedAt.Format("2006-01-02 15:04:05"))
	if rec.MatchedFingerprint != "" {
		cmd.Printf("Fingerprint: %s\n", rec.MatchedFingerprint)
	}
	if rec.TargetTable != "" {
		cmd.Printf("Table:       %s (%d rows)\n", rec.TargetTable, rec.ProcessedRowCount)
	}
	if rec.ErrorMessage != "" {
		cmd.Printf("Error:       %s\n", rec.ErrorMessage)
	}

	rows, err := store.RowQuarantineStore().ListByFile(ctx, hash)
	if err != nil {
		return fmt.Errorf("reading quarantined rows: %w", err)
	}
	if len(rows) > 0 {
		cmd.Printf("Quarantined rows (%d):\n", len(rows))
		for _, r := range rows {
			cmd.Printf("  row %d: %s\n    %s\n", r.RowNumber, r.Reason, r.RawRow)
		}
	}
	return nil
}
