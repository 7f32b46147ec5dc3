package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
	"psy-assess/internal/engine"
)

var (
	catalogDir   string
	catalogName  string
	seed         uint64
	genderFlag   string
	bracketFlag  string
	exportPath   string
	snapshotPath string
	verbose      bool

	rootCmd = &cobra.Command{
		Use:   "cli_assess",
		Short: "Run an archetype assessment in the terminal",
		Long: `Walks through every phase of the assessment interactively.
Answer with the option number (several separated by commas where allowed),
"b" to go back and "q" to quit. With --snapshot progress is saved after every
step and resumed on the next run.`,
		SilenceUsage: true,
		RunE:         runAssess,
	}
)

func init() {
	rootCmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "directory with catalog overrides (defaults to CATALOG_DIR)")
	rootCmd.Flags().StringVar(&catalogName, "catalog", catalog.DefaultName, "catalog name")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "seed for question shuffling (0 uses the clock)")
	rootCmd.Flags().StringVar(&genderFlag, "gender", "", "preselect gender (male/female)")
	rootCmd.Flags().StringVar(&bracketFlag, "bracket", "", "preselect bracket")
	rootCmd.Flags().StringVar(&exportPath, "export", "", "write the export record as JSON to this file when finished")
	rootCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "save and resume progress from this JSON file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine events")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAssess(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	logger := zap.NewNop()
	if verbose {
		logger = zap.NewExample()
	}
	defer logger.Sync()

	if catalogDir == "" {
		catalogDir = os.Getenv("CATALOG_DIR")
	}
	cat, err := loadCatalog(ctx, logger, catalogDir, catalogName)
	if err != nil {
		return err
	}

	run, err := openRun(cat, logger)
	if err != nil {
		return err
	}
	if err := preselect(run); err != nil {
		return err
	}

	sess := newSession(run, cmd.InOrStdin(), cmd.OutOrStdout(), saveSnapshot)
	err = sess.play()
	if errors.Is(err, errQuit) {
		if snapshotPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\nProgress saved to %s\n", snapshotPath)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if exportPath != "" {
		if err := writeJSON(exportPath, run.Export()); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Export written to %s\n", exportPath)
	}
	return nil
}

func loadCatalog(ctx context.Context, logger *zap.Logger, dir, name string) (*catalog.Catalog, error) {
	var sources []fs.FS
	if dir != "" {
		sources = append(sources, os.DirFS(dir))
	}
	sources = append(sources, catalog.Embedded())
	return catalog.NewFSLoader(logger, sources...).Load(ctx, name)
}

// openRun retoma el snapshot si existe; si no, arranca una corrida nueva.
func openRun(cat *catalog.Catalog, logger *zap.Logger) (*engine.Run, error) {
	opts := engine.Options{Logger: logger}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if snapshotPath == "" {
		return engine.NewRun(cat, opts), nil
	}
	data, err := os.ReadFile(snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		return engine.NewRun(cat, opts), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidSnapshot, err)
	}
	if snap.Catalog != "" && snap.Catalog != cat.Name {
		return nil, fmt.Errorf("%w: snapshot is for catalog %q", engine.ErrInvalidSnapshot, snap.Catalog)
	}
	return engine.Restore(cat, snap, opts)
}

func preselect(run *engine.Run) error {
	if genderFlag != "" && run.State() == domain.StateGenderSelect {
		g, ok := domain.ParseGender(genderFlag)
		if !ok {
			return fmt.Errorf("%w: unknown gender %q", engine.ErrValidation, genderFlag)
		}
		if err := run.SelectGender(g); err != nil {
			return err
		}
	}
	if bracketFlag != "" && run.State() == domain.StateBracketSelect {
		if err := run.SelectBracket(domain.Bracket(bracketFlag)); err != nil {
			return err
		}
	}
	return nil
}

func saveSnapshot(run *engine.Run) error {
	if snapshotPath == "" {
		return nil
	}
	return writeJSON(snapshotPath, run.Snapshot())
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
