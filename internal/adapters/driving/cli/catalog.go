package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	catalogfile "github.com/custodia-labs/skema-cli/internal/adapters/driven/catalog/file"
	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/services"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the format catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged formats",
	RunE:  runCatalogList,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <fingerprint>",
	Short: "Show one format recipe",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

var fingerprintDelimiter string

var catalogFingerprintCmd = &cobra.Command{
	Use:   "fingerprint <header-line>",
	Short: "Compute the fingerprint of a header line",
	Long: `Computes the fingerprint a file with the given header line would
classify under. Useful for writing a catalog entry for a quarantined
format: paste the header, get the key.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogFingerprint,
}

func init() {
	catalogFingerprintCmd.Flags().StringVar(&fingerprintDelimiter, "delimiter", ",", "field separator of the header line")
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogFingerprintCmd)
	rootCmd.AddCommand(catalogCmd)
}

func loadCatalogForCLI(cmd *cobra.Command) (*catalogResult, error) {
	loader, err := catalogfile.NewLoader(catalogPath)
	if err != nil {
		return nil, err
	}
	catalog, err := loader.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", loader.Path(), err)
	}
	return &catalogResult{catalog: catalog, path: loader.Path()}, nil
}

type catalogResult struct {
	catalog *domain.Catalog
	path    string
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	res, err := loadCatalogForCLI(cmd)
	if err != nil {
		return err
	}

	cmd.Printf("%d formats in %s\n", res.catalog.Len(), res.path)
	for _, fp := range res.catalog.Fingerprints() {
		recipe, _ := res.catalog.Lookup(fp)
		short := fp
		if len(short) > 12 {
			short = short[:12]
		}
		cmd.Printf("  %s  %-12s -> %-20s %s\n", short, recipe.ParserKind, recipe.TargetTable, recipe.Description)
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	res, err := loadCatalogForCLI(cmd)
	if err != nil {
		return err
	}

	recipe, ok := res.catalog.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no recipe for fingerprint %s", args[0])
	}

	cmd.Printf("Fingerprint:  %s\n", recipe.Fingerprint)
	cmd.Printf("Description:  %s\n", recipe.Description)
	cmd.Printf("Parser:       %s\n", recipe.ParserKind)
	cmd.Printf("Cleaner:      %s\n", recipe.CleanerID)
	cmd.Printf("Target table: %s (%s)\n", recipe.TargetTable, recipe.LoadMode)
	if len(recipe.RequiredColumns) > 0 {
		cmd.Printf("Required:     %s\n", strings.Join(recipe.RequiredColumns, ", "))
	}
	if len(recipe.DefaultValues) > 0 {
		cmd.Printf("Defaults:\n")
		for k, v := range recipe.DefaultValues {
			cmd.Printf("  %s = %s\n", k, v)
		}
	}
	return nil
}

func runCatalogFingerprint(cmd *cobra.Command, args []string) error {
	delim := []rune(fingerprintDelimiter)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", fingerprintDelimiter)
	}

	cmd.Println(services.FingerprintHeader(args[0], delim[0]))
	return nil
}
