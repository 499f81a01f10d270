// Package cli implements the skema command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	catalogfile "github.com/custodia-labs/skema-cli/internal/adapters/driven/catalog/file"
	"github.com/custodia-labs/skema-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/skema-cli/internal/cleaners"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/core/services"
	"github.com/custodia-labs/skema-cli/internal/logger"
	"github.com/custodia-labs/skema-cli/internal/parsers/delimited"
	"github.com/custodia-labs/skema-cli/internal/parsers/fixedwidth"
	"github.com/custodia-labs/skema-cli/internal/parsers/spreadsheet"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose     bool
	dataDir     string
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "skema",
	Short: "Ingest and curate tabular data files",
	Long: `Skema ingests raw tabular data files into a content-addressed
store, classifies them against a catalog of known formats, and loads
cleaned rows into curated tables.

Files are deduplicated by content hash, so re-ingesting the same bytes
under a different name is a no-op. Files whose header matches no
cataloged format are quarantined with the computed fingerprint, ready
for a catalog entry to be written.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default ~/.skema/data)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file (default ~/.skema/catalog.toml)")
}

// Execute runs the root command. Interrupts cancel the command
// context so long-running commands (run, watch) can wind down.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolveDataDir applies the default data directory when the flag is
// unset.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".skema", "data"), nil
}

// pipeline bundles everything a command needs to run the transform
// phase. Built fresh per invocation; the CLI holds no global service
// state beyond flags.
type pipeline struct {
	store        *sqlite.Store
	tables       *sqlite.TableStore
	traversal    *services.Traversal
	orchestrator *services.Orchestrator
}

func (p *pipeline) Close() {
	if p.tables != nil {
		p.tables.Close() //nolint:errcheck
	}
	if p.store != nil {
		p.store.Close() //nolint:errcheck
	}
}

// openStores opens the metadata store and resolves the scratch
// directory. Commands that never transform (ingest, status) use this
// instead of the full pipeline.
func openStores() (*sqlite.Store, string, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return nil, "", err
	}
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, "", fmt.Errorf("opening metadata store: %w", err)
	}
	return store, filepath.Join(dir, "scratch"), nil
}

// buildPipeline wires the full transform pipeline: stores, catalog,
// classifier, parsers, cleaners, worker and orchestrator.
func buildPipeline(cmd *cobra.Command, sourceSystem string, workers int) (*pipeline, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	tables, err := sqlite.NewTableStore(dir)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening curated store: %w", err)
	}

	loader, err := catalogfile.NewLoader(catalogPath)
	if err != nil {
		tables.Close() //nolint:errcheck
		store.Close()  //nolint:errcheck
		return nil, err
	}
	catalog, err := loader.Load(cmd.Context())
	if err != nil {
		tables.Close() //nolint:errcheck
		store.Close()  //nolint:errcheck
		return nil, fmt.Errorf("loading catalog %s: %w", loader.Path(), err)
	}
	logger.Debug("Loaded %d catalog recipes from %s", catalog.Len(), loader.Path())

	classifier := services.NewClassifier(services.ClassifierConfig{})
	registry := services.NewCleanerRegistry(cleaners.Builtin()...)

	worker := services.NewTransformWorker(
		store.ContentStore(),
		tables,
		store.RowQuarantineStore(),
		classifier,
		catalog,
		registry,
		[]driven.Parser{delimited.New(), fixedwidth.New(), spreadsheet.New()},
	)

	return &pipeline{
		store:        store,
		tables:       tables,
		traversal:    services.NewTraversal(store.ContentStore(), store.ManifestStore(), filepath.Join(dir, "scratch"), sourceSystem),
		orchestrator: services.NewOrchestrator(store.ManifestStore(), worker, workers),
	}, nil
}
