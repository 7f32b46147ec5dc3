package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"psy-assess/internal/catalog"
	"psy-assess/internal/engine"
)

// Códigos de salida.
const (
	exitClean  = 0
	exitIssues = 1
	exitError  = 2
)

var errIssuesFound = errors.New("catalog has integrity issues")

var (
	catalogDir string
	checkAll   bool

	rootCmd = &cobra.Command{
		Use:   "catalog_check [name...]",
		Short: "Report integrity issues in assessment catalogs",
		Long: `Loads each catalog (from --catalog-dir first, then the embedded ones) and
lists the references the engine would skip while scoring: unknown categories,
options without categories, aspiration options without targets and missing
female variants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "directory with catalog overrides (defaults to CATALOG_DIR)")
	rootCmd.Flags().BoolVar(&checkAll, "all", false, "check every catalog found")
}

func main() {
	_ = godotenv.Load()
	err := rootCmd.ExecuteContext(context.Background())
	switch {
	case err == nil:
		os.Exit(exitClean)
	case errors.Is(err, errIssuesFound):
		os.Exit(exitIssues)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}

func check(ctx context.Context, out io.Writer, names []string) error {
	if catalogDir == "" {
		catalogDir = os.Getenv("CATALOG_DIR")
	}
	var sources []fs.FS
	if catalogDir != "" {
		sources = append(sources, os.DirFS(catalogDir))
	}
	sources = append(sources, catalog.Embedded())
	loader := catalog.NewFSLoader(zap.NewNop(), sources...)

	if checkAll {
		all, err := loader.List()
		if err != nil {
			return err
		}
		names = all
	}
	if len(names) == 0 {
		names = []string{catalog.DefaultName}
	}
	return report(ctx, out, loader, names)
}

// report imprime los problemas de cada catálogo. Un catálogo que no carga es
// un error; los problemas de integridad se acumulan en errIssuesFound.
func report(ctx context.Context, out io.Writer, loader catalog.Loader, names []string) error {
	total := 0
	for _, name := range names {
		cat, err := loader.Load(ctx, name)
		if err != nil {
			return err
		}
		issues := engine.Lint(cat)
		fmt.Fprintf(out, "%s v%d: %d categories, %d questions, %d issues\n",
			cat.Name, cat.Version, len(cat.Categories), cat.QuestionCount(), len(issues))
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
		total += len(issues)
	}
	if total > 0 {
		return fmt.Errorf("%w: %d", errIssuesFound, total)
	}
	return nil
}
