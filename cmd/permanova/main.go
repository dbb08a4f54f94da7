// Command permanova runs the study's variance-partitioning analyses: a single
// PERMANOVA over one distance matrix, per-day or per-source sweeps, and the
// ordination export for the plotting toolchain.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/excel"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/phylip"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/postgres"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/rng"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/adapters/tsv"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/app"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/design"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/report"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/internal/config"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/ports"
)

func main() {
	// .env is optional; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "permanova",
		Short: "Vendor-study distance-matrix variance partitioning",
	}
	rootCmd.AddCommand(
		newAnalyzeCmd(cfg),
		newSweepCmd(cfg),
		newOrdinationCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags are shared by analyze and sweep.
type commonFlags struct {
	distFile     string
	metadataFile string
	formula      string
	permutations int
	seed         int64
	strata       string
	out          string
}

func (f *commonFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.distFile, "dist", cfg.Paths.DistanceMatrix, "lower-triangular distance matrix file")
	cmd.Flags().StringVar(&f.metadataFile, "metadata", cfg.Paths.Metadata, "tab-separated sample metadata file")
	cmd.Flags().StringVar(&f.formula, "formula", app.FormulaFull.String(), "design formula")
	cmd.Flags().IntVar(&f.permutations, "permutations", cfg.Analysis.Permutations, "permutation count")
	cmd.Flags().Int64Var(&f.seed, "seed", cfg.Analysis.Seed, "permutation seed")
	cmd.Flags().StringVar(&f.strata, "strata", "", "factor column restricting permutations within blocks")
	cmd.Flags().StringVar(&f.out, "out", "", "output file (default stdout)")
}

// loadInputs parses and joins the matrix and metadata, using study level
// specs derived once from the full metadata table.
func loadInputs(distFile, metadataFile string) (*dist.Matrix, *sample.Table, error) {
	m, err := phylip.ParseFile(distFile)
	if err != nil {
		return nil, nil, err
	}
	records, err := tsv.ReadMetadataFile(metadataFile, tsv.DefaultIDColumn)
	if err != nil {
		return nil, nil, err
	}
	specs, err := app.StudyLevelSpecs(records)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := sample.Join(m.Labels(), records, specs, sample.JoinOptions{})
	if err != nil {
		return nil, nil, err
	}
	return m, attrs, nil
}

func newService(cfg *config.Config) (*app.AnalysisService, error) {
	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting results database: %w", err)
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			return nil, err
		}
		repo = postgres.NewResultRepository(db)
	}
	return app.NewAnalysisService(rng.NewDeterministic(), repo), nil
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var flags commonFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one PERMANOVA over the full matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, attrs, err := loadInputs(flags.distFile, flags.metadataFile)
			if err != nil {
				return err
			}
			f, err := design.Parse(flags.formula)
			if err != nil {
				return err
			}
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			res, err := svc.Analyze(cmd.Context(), app.AnalyzeRequest{
				Matrix:       m,
				Attrs:        attrs,
				Formula:      f,
				Permutations: flags.permutations,
				Seed:         flags.seed,
				StrataColumn: flags.strata,
			})
			if err != nil {
				return err
			}
			table := app.Aggregate("", []app.SubsetResult{{Result: res}})
			return writeTable(flags.out, table)
		},
	}
	flags.register(cmd, cfg)
	return cmd
}

func newSweepCmd(cfg *config.Config) *cobra.Command {
	var flags commonFlags
	var by string
	var subsets string
	var workbook string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the design across every level of a subset column",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, attrs, err := loadInputs(flags.distFile, flags.metadataFile)
			if err != nil {
				return err
			}
			f, err := design.Parse(flags.formula)
			if err != nil {
				return err
			}
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			levels, err := subsetLevels(attrs, by, subsets)
			if err != nil {
				return err
			}
			out, err := svc.RunSweep(cmd.Context(), app.SweepRequest{
				Matrix:       m,
				Attrs:        attrs,
				Formula:      f,
				SubsetColumn: by,
				Subsets:      levels,
				Permutations: flags.permutations,
				Seed:         flags.seed,
				StrataColumn: flags.strata,
			})
			if err != nil {
				return err
			}
			if err := svc.Persist(cmd.Context(), out); err != nil {
				return err
			}
			if workbook != "" {
				if err := excel.WriteWorkbook(workbook, out.Manifest, out.Table); err != nil {
					return err
				}
			}
			return writeTable(flags.out, out.Table)
		},
	}
	flags.register(cmd, cfg)
	cmd.Flags().StringVar(&by, "by", app.ColDay, "subset column (day or source)")
	cmd.Flags().StringVar(&subsets, "subsets", "", "comma-separated subset levels (default: every populated level)")
	cmd.Flags().StringVar(&workbook, "workbook", "", "also export an xlsx workbook to this path")
	return cmd
}

func newOrdinationCmd(cfg *config.Config) *cobra.Command {
	var axesFile, loadingsFile, metadataFile, out string
	cmd := &cobra.Command{
		Use:   "ordination",
		Short: "Join PCoA coordinates with metadata for plotting",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := tsv.ReadOrdinationFile(axesFile)
			if err != nil {
				return err
			}
			var loadings []tsv.AxisLoading
			if loadingsFile != "" {
				loadings, err = tsv.ReadLoadingsFile(loadingsFile)
				if err != nil {
					return err
				}
			}
			records, err := tsv.ReadMetadataFile(metadataFile, tsv.DefaultIDColumn)
			if err != nil {
				return err
			}
			specs, err := app.StudyLevelSpecs(records)
			if err != nil {
				return err
			}
			// the ordination may cover unsequenced samples; inner join
			attrs, err := sample.Join(o.Labels, records, specs, sample.JoinOptions{InnerJoin: true})
			if err != nil {
				return err
			}
			if out == "" {
				return tsv.WriteJoinedOrdination(os.Stdout, o, attrs, loadings)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			return tsv.WriteJoinedOrdinationFile(out, o, attrs, loadings)
		},
	}
	cmd.Flags().StringVar(&axesFile, "axes", cfg.Paths.Axes, "PCoA axes file")
	cmd.Flags().StringVar(&loadingsFile, "loadings", cfg.Paths.Loadings, "PCoA loadings file")
	cmd.Flags().StringVar(&metadataFile, "metadata", cfg.Paths.Metadata, "tab-separated sample metadata file")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

// subsetLevels resolves the requested subset list, defaulting to every fixed
// level of the column that has at least one sample.
func subsetLevels(attrs *sample.Table, column, requested string) ([]string, error) {
	if requested != "" {
		parts := strings.Split(requested, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	f, err := attrs.Factor(column)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, level := range f.Levels {
		labels, err := attrs.LabelsWhere(column, level)
		if err != nil {
			return nil, err
		}
		if len(labels) > 0 {
			out = append(out, level)
		}
	}
	return out, nil
}

func writeTable(out string, t *report.Table) error {
	if out == "" {
		return tsv.WriteTable(os.Stdout, t)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return tsv.WriteTableFile(out, t)
}
