package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"psychofit/adapters/csvdata"
	"psychofit/adapters/excel"
	"psychofit/adapters/postgres"
	"psychofit/app"
	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/internal/analysis"
	"psychofit/internal/config"
	"psychofit/internal/report"
	"psychofit/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psychofit",
		Short: "2AFC psychometric threshold analysis",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		root      string
		modelName string
		target    float64
		recentN   int
		excelOut  string
		store     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [datasets...]",
		Short: "Estimate discrimination thresholds from session CSV files",
		Long: `Aggregate 2AFC session files per dataset, estimate the interpolated
threshold, fit the psychometric curve, and print the threshold summary.

Example: psychofit analyze --root ./results --model logistic bricks004 rock062`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if root != "" {
				cfg.Data.Root = root
			}
			if modelName != "" {
				model, err := psychometric.ParseModel(modelName)
				if err != nil {
					return err
				}
				cfg.Analysis.Model = model
			}
			if target != 0 {
				cfg.Analysis.Target = target
			}
			if recentN != 0 {
				cfg.Data.RecentSessions = recentN
			}

			var repo ports.ResultRepository
			if store {
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				repo = postgres.NewResultRepository(db)
			}

			provider := csvdata.NewProvider(cfg.Data.Root, cfg.Data.Datasets)
			analyzer := analysis.NewAnalyzer(cfg.Analysis.Model, cfg.Analysis.Target)
			service := app.NewAnalysisService(provider, analyzer, repo, cfg.Analysis.MaxConcurrent)

			ctx := cmd.Context()
			var outcomes []app.DatasetOutcome
			if len(args) > 0 {
				outcomes, err = service.AnalyzeNamed(ctx, datasetNames(args), cfg.Data.RecentSessions)
			} else {
				outcomes, err = service.AnalyzeAll(ctx, cfg.Data.RecentSessions)
			}
			if err != nil {
				return err
			}

			results := app.Results(outcomes)
			if len(results) == 0 {
				return fmt.Errorf("no dataset produced a result")
			}
			summary := report.BuildSummary(results)
			fmt.Print(report.RenderMarkdown(summary, results))

			for _, outcome := range outcomes {
				if outcome.Err != nil {
					fmt.Fprintf(os.Stderr, "dataset %s failed: %v\n", outcome.Dataset, outcome.Err)
				}
			}

			if excelOut != "" {
				if err := excel.WriteSummary(excelOut, summary, results); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "summary workbook written to %s\n", excelOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "dataset root directory (default DATA_ROOT or .)")
	cmd.Flags().StringVar(&modelName, "model", "", "curve model: logistic or cumulative_normal")
	cmd.Flags().Float64Var(&target, "target", 0, "target proportion correct (default 0.707)")
	cmd.Flags().IntVar(&recentN, "recent", 0, "only the newest N sessions per dataset")
	cmd.Flags().StringVar(&excelOut, "excel", "", "write the summary workbook to this path")
	cmd.Flags().BoolVar(&store, "store", false, "persist results to DATABASE_URL")
	return cmd
}

func newReportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the threshold summary from stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := postgres.NewResultRepository(db)
			results, err := repo.ListLatest(cmd.Context(), limit)
			if err != nil {
				return err
			}
			summary := report.BuildSummary(results)
			fmt.Print(report.RenderMarkdown(summary, results))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of stored results")
	return cmd
}

func datasetNames(args []string) []core.DatasetName {
	names := make([]core.DatasetName, len(args))
	for i, a := range args {
		names[i] = core.DatasetName(a)
	}
	return names
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.Exec(postgres.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}
