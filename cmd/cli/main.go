package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golifetime/adapters/excel"
	"golifetime/adapters/postgres"
	"golifetime/app"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/engine"
	"golifetime/internal/migration"
	"golifetime/internal/summary"
	"golifetime/models"
	"golifetime/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	// Pick up DATA_FILE and DATABASE_URL from a local .env when present
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "golifetime-cli",
		Short: "Lifetime data analysis: distribution fitting, B-life prediction, mixture separation",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newSeparateCmd(),
		newPredictCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var method string
	var variant string
	var ties string
	var label string
	var families []string
	var saveFile string
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Run a full distribution sweep on a lifetime data file",
		Long: `Fit every candidate distribution to a CSV or XLSX lifetime data file with
both rank regression and maximum likelihood, ranked best-first.

The file needs a characteristic column (lifetime, cycles, hours) and a status
column (f/failed or s/suspended per row). Falls back to the DATA_FILE
environment variable when no file argument is given.

Example: golifetime-cli analyze bearings.csv --method johnson --label "bearing B10 study"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataFile := os.Getenv("DATA_FILE")
			if len(args) > 0 {
				dataFile = args[0]
			}
			if dataFile == "" {
				return fmt.Errorf("no data file given and DATA_FILE is not set")
			}

			return runAnalyze(cmd.Context(), dataFile, label, method, variant, ties, families, saveFile, databaseURL)
		},
	}

	cmd.Flags().StringVar(&method, "method", "johnson", "Probability estimator: mr|johnson|kaplan|nelson")
	cmd.Flags().StringVar(&variant, "variant", "", "Median rank approximation: benard|invbeta (default benard)")
	cmd.Flags().StringVar(&ties, "ties", "", "Tied failure handling: max|average (default max)")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with the analysis")
	cmd.Flags().StringSliceVar(&families, "families", nil, "Candidate distributions, e.g. weibull,lognormal3 (default all two-parameter families)")
	cmd.Flags().StringVar(&saveFile, "save", "", "Write the full report as JSON to this file")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Persist the report to this PostgreSQL database")

	return cmd
}

func newSeparateCmd() *cobra.Command {
	var family string
	var strategy string
	var components int
	var minSegment int
	var maxIterations int
	var tolerance float64
	var saveFile string

	cmd := &cobra.Command{
		Use:   "separate [data-file]",
		Short: "Split a sample into competing failure modes",
		Long: `Separate a lifetime data file into subpopulations, either by breakpoint
search on the plotting positions (segmented) or by censoring-aware
expectation-maximization (em), and fit the chosen family to each subgroup.

Example: golifetime-cli separate field_returns.csv --strategy em --components 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataFile := os.Getenv("DATA_FILE")
			if len(args) > 0 {
				dataFile = args[0]
			}
			if dataFile == "" {
				return fmt.Errorf("no data file given and DATA_FILE is not set")
			}

			params := fit.DefaultMixtureParams()
			if components > 0 {
				params.Components = components
			}
			if minSegment > 0 {
				params.MinSegment = minSegment
			}
			if maxIterations > 0 {
				params.MaxIterations = maxIterations
			}
			if tolerance > 0 {
				params.Tolerance = tolerance
			}

			return runSeparate(cmd.Context(), dataFile, family, strategy, params, saveFile)
		},
	}

	cmd.Flags().StringVar(&family, "family", "weibull", "Distribution fitted to each subgroup")
	cmd.Flags().StringVar(&strategy, "strategy", "segmented", "Separation strategy: segmented|em")
	cmd.Flags().IntVar(&components, "components", 0, "Number of subpopulations (em only, default 2)")
	cmd.Flags().IntVar(&minSegment, "min-segment", 0, "Minimum observations per segment (segmented only, default 3)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "EM iteration budget (default 100)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "EM log-likelihood convergence tolerance (default 1e-6)")
	cmd.Flags().StringVar(&saveFile, "save", "", "Write the separation result as JSON to this file")

	return cmd
}

func newPredictCmd() *cobra.Command {
	var gamma float64
	var blives []float64
	var at []float64

	cmd := &cobra.Command{
		Use:   "predict [family] [mu] [sigma]",
		Short: "Evaluate B-lives and failure probabilities for fitted coefficients",
		Long: `Evaluate a fitted model without refitting: B-lives (the lifetime reached by
a given fraction of the population) and the failure probability at given
lifetime values. Coefficients are the internal location mu and scale sigma
reported by analyze.

Example: golifetime-cli predict weibull 7.2 0.45 --b 1,10,50 --at 500,1000`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mu, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid mu %q: %w", args[1], err)
			}
			sigma, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid sigma %q: %w", args[2], err)
			}

			withThreshold := cmd.Flags().Changed("gamma")
			return runPredict(args[0], mu, sigma, gamma, withThreshold, blives, at)
		},
	}

	cmd.Flags().Float64Var(&gamma, "gamma", 0, "Failure-free threshold, switches to the three-parameter variant")
	cmd.Flags().Float64SliceVar(&blives, "b", []float64{1, 10, 50}, "B-life percentages to evaluate")
	cmd.Flags().Float64SliceVar(&at, "at", nil, "Lifetime values to evaluate the failure probability at")

	return cmd
}

func runAnalyze(ctx context.Context, dataFile, label, method, variant, ties string, families []string, saveFile, databaseURL string) error {
	fmt.Printf("🔬 Analyzing lifetime data from %s...\n", dataFile)

	sample, err := excel.NewDataReader().ReadObservations(ctx, dataFile)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	candidates, err := parseFamilies(families)
	if err != nil {
		return err
	}

	// Optional persistence
	var repo ports.AnalysisRepository
	if databaseURL != "" {
		db, err := sqlx.Connect("postgres", databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := migration.NewRunner().Run(ctx, db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		repo = postgres.NewAnalysisRepository(db)
	}

	eng, err := engine.New()
	if err != nil {
		return err
	}
	svc := app.NewAnalysisService(eng, repo, 0)

	startTime := time.Now()
	report, err := svc.Run(ctx, app.AnalysisRequest{
		Label:       label,
		Sample:      sample,
		RankMethod:  lifedata.RankMethod(method),
		RankOptions: ports.RankOptions{Variant: variant, Ties: ties},
		Candidates:  candidates,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("\n📊 ANALYSIS RESULTS\n")
	fmt.Printf("Analysis ID: %s\n", report.ID)
	fmt.Printf("Runtime: %v\n", elapsed)
	fmt.Printf("Sample: %d observations, %d failures, %d censored (%.1f%%)\n",
		report.Sample.Count, report.Sample.Failures, report.Sample.Censored, report.Sample.CensoredShare*100)
	fmt.Printf("Characteristic range: %.4g to %.4g, median %.4g\n",
		report.Sample.Min, report.Sample.Max, report.Sample.Median)
	fmt.Printf("Rank method: %s\n", report.RankMethod)

	fmt.Printf("\n=== RANK REGRESSION CANDIDATES ===\n")
	printCandidates(report.Regression)

	fmt.Printf("\n=== MAXIMUM LIKELIHOOD CANDIDATES ===\n")
	printCandidates(report.Likelihood)

	fmt.Printf("\n=== BEST FITS ===\n")
	if best := report.BestRegression(); best != nil {
		fmt.Printf("Rank regression: %s with %s\n", best.Result.Spec, formatParameters(*best.Result))
	} else {
		fmt.Printf("Rank regression: no candidate fitted\n")
	}
	if best := report.BestLikelihood(); best != nil {
		fmt.Printf("Maximum likelihood: %s with %s\n", best.Result.Spec, formatParameters(*best.Result))
		printIntervals(*best.Result)
	} else {
		fmt.Printf("Maximum likelihood: no candidate fitted\n")
	}

	if repo != nil {
		fmt.Printf("\n💾 Report persisted as analysis %s\n", report.ID)
	}

	if saveFile != "" {
		if err := saveJSON(saveFile, report); err != nil {
			return err
		}
		fmt.Printf("💾 Report saved to: %s\n", saveFile)
	}

	return nil
}

func runSeparate(ctx context.Context, dataFile, family, strategy string, params fit.MixtureParams, saveFile string) error {
	fmt.Printf("🔬 Separating failure modes in %s...\n", dataFile)

	sample, err := excel.NewDataReader().ReadObservations(ctx, dataFile)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	spec, err := distribution.ParseSpec(family)
	if err != nil {
		return err
	}

	eng, err := engine.New()
	if err != nil {
		return err
	}
	startTime := time.Now()
	result, err := eng.SeparateMixture(sample, spec, fit.SeparationStrategy(strategy), params)
	if err != nil {
		return fmt.Errorf("mixture separation failed: %w", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("\n📊 SEPARATION RESULTS\n")
	fmt.Printf("Strategy: %s\n", result.Strategy)
	fmt.Printf("Runtime: %v\n", elapsed)
	fmt.Printf("Components: %d\n", result.Components())
	fmt.Printf("Status: %s\n", result.Status)
	if len(result.Iterations) > 0 {
		last := result.Iterations[len(result.Iterations)-1]
		fmt.Printf("EM iterations: %d (final log-likelihood %.4f)\n", len(result.Iterations), last.LogLikelihood)
	}

	fmt.Printf("\n=== SUBPOPULATIONS ===\n")
	describe := summary.NewComputer()
	for _, group := range result.Subgroups {
		fmt.Printf("%d. %s, share %.1f%%, %d observations\n",
			group.Index+1, group.Fit.Spec, group.Share*100, len(group.Observations))
		fmt.Printf("   Parameters: %s\n", formatParameters(group.Fit))
		stats := describe.DescribeObservations(group.Observations)
		fmt.Printf("   Lifetimes: median %.4g, range [%.4g, %.4g], %d censored\n",
			stats.Median, stats.Min, stats.Max, stats.Censored)
		if group.Fit.Likelihood != nil {
			fmt.Printf("   Log-likelihood: %.4f\n", group.Fit.Likelihood.LogLikelihood)
		}
		if group.Fit.Regression != nil {
			fmt.Printf("   R²: %.4f\n", group.Fit.Regression.RSquared)
		}
	}

	if saveFile != "" {
		if err := saveJSON(saveFile, result); err != nil {
			return err
		}
		fmt.Printf("\n💾 Separation result saved to: %s\n", saveFile)
	}

	return nil
}

func runPredict(family string, mu, sigma, gamma float64, withThreshold bool, blives, at []float64) error {
	spec, err := distribution.ParseSpec(family)
	if err != nil {
		return err
	}
	if withThreshold && !spec.Threshold {
		spec, err = distribution.NewSpec(spec.Family, true)
		if err != nil {
			return err
		}
	}

	coeffs := distribution.Coefficients{
		Mu:           mu,
		Sigma:        sigma,
		Threshold:    gamma,
		HasThreshold: spec.Threshold,
	}
	if err := coeffs.Validate(); err != nil {
		return err
	}

	eng, err := engine.New()
	if err != nil {
		return err
	}

	fmt.Printf("📊 %s model, %s\n", spec, formatNatural(spec, coeffs))
	fmt.Printf("Mean life: %.4g\n", distribution.MeanLife(spec, coeffs))

	if len(blives) > 0 {
		probabilities := make([]float64, len(blives))
		for i, b := range blives {
			probabilities[i] = b / 100
		}
		values, err := eng.PredictQuantile(spec, coeffs, probabilities)
		if err != nil {
			return fmt.Errorf("quantile prediction failed: %w", err)
		}

		fmt.Printf("\n=== B-LIVES ===\n")
		for i, b := range blives {
			fmt.Printf("B%-5s %.6g\n", strconv.FormatFloat(b, 'g', -1, 64), values[i])
		}
	}

	if len(at) > 0 {
		probabilities, err := eng.PredictCDF(spec, coeffs, at)
		if err != nil {
			return fmt.Errorf("probability prediction failed: %w", err)
		}

		fmt.Printf("\n=== FAILURE PROBABILITY ===\n")
		for i, characteristic := range at {
			fmt.Printf("F(%.6g) = %.4f%%\n", characteristic, probabilities[i]*100)
		}
	}

	return nil
}

func parseFamilies(names []string) ([]distribution.Spec, error) {
	if len(names) == 0 {
		return nil, nil
	}

	specs := make([]distribution.Spec, 0, len(names))
	for _, name := range names {
		spec, err := distribution.ParseSpec(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func printCandidates(candidates []models.CandidateFit) {
	for i, candidate := range candidates {
		label := distribution.Spec{Family: candidate.Family, Threshold: candidate.Threshold}.String()
		if !candidate.Fitted() {
			fmt.Printf("%d. %s\n", i+1, label)
			fmt.Printf("   ❌ %s\n", candidate.Err)
			continue
		}

		fmt.Printf("%d. %s\n", i+1, label)
		fmt.Printf("   Parameters: %s\n", formatParameters(*candidate.Result))
		if candidate.Result.Regression != nil {
			fmt.Printf("   R²: %.4f\n", candidate.Result.Regression.RSquared)
		}
		if candidate.Result.Likelihood != nil {
			fmt.Printf("   LogLik: %.4f | AIC: %.4f | BIC: %.4f\n",
				candidate.Result.Likelihood.LogLikelihood, candidate.Result.Likelihood.AIC, candidate.Result.Likelihood.BIC)
		}
		if !candidate.Result.Converged() {
			fmt.Printf("   ⚠️  %s\n", candidate.Result.Status)
		}
	}
}

func formatParameters(result fit.FitResult) string {
	return formatNatural(result.Spec, result.Coefficients)
}

func formatNatural(spec distribution.Spec, coeffs distribution.Coefficients) string {
	natural := distribution.Natural(spec, coeffs)
	parts := make([]string, 0, len(natural))
	for _, name := range distribution.ParameterNames(spec) {
		parts = append(parts, fmt.Sprintf("%s=%.6g", name, natural[name]))
	}
	return strings.Join(parts, " ")
}

func printIntervals(result fit.FitResult) {
	if len(result.Intervals) == 0 {
		return
	}
	for _, name := range result.ParameterNames() {
		interval, ok := result.Intervals[name]
		if !ok {
			continue
		}
		fmt.Printf("   %s %.0f%% CI: [%.6g, %.6g]\n", name, interval.Level*100, interval.Lower, interval.Upper)
	}
}

func saveJSON(path string, payload any) error {
	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
