package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/services"
)

var (
	runWorkers      int
	runReprocess    bool
	runPlainOutput  bool
	runSourceSystem string
)

var runCmd = &cobra.Command{
	Use:   "run [path...]",
	Short: "Transform and load ingested files",
	Long: `Processes every manifest record awaiting transformation: classifies
each file against the catalog, parses it, runs the cleaning routine,
and loads the rows into its curated table.

Paths given as arguments are ingested first, so 'skema run ./dropbox'
is a complete end-to-end pass. With --reprocess, previously
quarantined files are retried instead, which is how files become
processable after their format is added to the catalog.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "transform worker count (0 = one per CPU)")
	runCmd.Flags().BoolVar(&runReprocess, "reprocess", false, "retry quarantined files instead of new ones")
	runCmd.Flags().BoolVar(&runPlainOutput, "plain", false, "disable the progress bar")
	runCmd.Flags().StringVar(&runSourceSystem, "source-system", "local", "label recorded as the origin of ingested files")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(cmd, runSourceSystem, runWorkers)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()

	if len(args) > 0 {
		stats, err := p.traversal.Ingest(ctx, args)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Registered %d new files (%d already known)\n", stats.FilesRegistered, stats.FilesKnown)
	}

	doRun := func() (*services.RunSummary, error) {
		return p.orchestrator.Run(ctx, runReprocess)
	}

	var summary *services.RunSummary
	if runPlainOutput || !term.IsTerminal(int(os.Stdout.Fd())) {
		summary, err = runPlain(cmd, p.orchestrator.Status, doRun)
	} else {
		summary, err = runWithProgress(p.orchestrator.Status, doRun)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			return errors.New("a run is already in progress")
		}
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(cmd, summary)
	return nil
}

// timeRounding keeps run durations readable in the summary.
const timeRounding = 10 * time.Millisecond

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)
	summaryOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	summaryFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func printSummary(cmd *cobra.Command, s *services.RunSummary) {
	if s.Total == 0 {
		cmd.Println("Nothing to process.")
		return
	}

	cmd.Println(summaryTitleStyle.Render(fmt.Sprintf("Run %s finished in %s", s.RunID, s.EndedAt.Sub(s.StartedAt).Round(timeRounding))))
	cmd.Printf("  %s  %d succeeded\n", summaryOKStyle.Render("✓"), s.Succeeded)
	cmd.Printf("  %s  %d quarantined\n", summaryWarnStyle.Render("?"), s.Quarantined)
	cmd.Printf("  %s  %d failed\n", summaryFailStyle.Render("✗"), s.Failed)

	for _, p := range s.Problems {
		label := "failed"
		if p.Status == domain.StatusQuarantined {
			label = "quarantined"
		}
		cmd.Printf("    %s %s: %s\n", p.FileHash.Short(), label, p.ErrorMessage)
	}

	if s.Quarantined > 0 {
		cmd.Println("Quarantined fingerprints are recorded in the manifest; add catalog entries and re-run with --reprocess.")
	}
}
