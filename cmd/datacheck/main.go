package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"golifetime/adapters/excel"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/engine"
	"golifetime/internal/summary"
	"golifetime/ports"
)

func main() {
	in := flag.String("in", "", "input lifetime data path (.xlsx or .csv)")
	method := flag.String("method", "johnson", "probability estimator: mr|johnson|kaplan|nelson")
	topN := flag.Int("top", 6, "top N candidate distributions to screen")
	flag.Parse()

	if strings.TrimSpace(*in) == "" {
		fmt.Fprintln(os.Stderr, "-in is required")
		os.Exit(2)
	}

	sample, err := excel.NewDataReader().ReadObservations(context.Background(), *in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading data:", err)
		os.Exit(1)
	}

	eng, err := engine.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error creating engine:", err)
		os.Exit(1)
	}

	report(eng, sample, lifedata.RankMethod(*method), *topN)
}

func report(eng ports.LifetimeEngine, sample lifedata.Sample, method lifedata.RankMethod, topN int) {
	stats := summary.NewComputer().Describe(sample)

	fmt.Println("=== Lifetime Data Health Report ===")
	fmt.Printf("Dataset: observations=%d | failures=%d | censored=%d (%.1f%%)\n",
		stats.Count, stats.Failures, stats.Censored, stats.CensoredShare*100)
	fmt.Printf("Characteristic: min=%.6g | median=%.6g | max=%.6g | q25=%.6g | q75=%.6g\n",
		stats.Min, stats.Median, stats.Max, stats.Q25, stats.Q75)

	tieGroups, largestGroup := failureTies(sample)
	fmt.Printf("Ties: tied_failure_values=%d | largest_group=%d\n", tieGroups, largestGroup)

	// Plotting position coverage
	fmt.Println("\n-- Plotting positions --")
	ranked, rankErr := eng.EstimateProbabilities(sample, method, ports.RankOptions{})
	if rankErr != nil {
		fmt.Printf("method=%s unavailable: %v\n", method, rankErr)
	} else {
		_, probabilities := ranked.FailurePoints()
		if len(probabilities) == 0 {
			fmt.Printf("method=%s | no plotting positions (every row censored)\n", method)
		} else {
			fmt.Printf("method=%s | positions=%d | first=%.2f%% | last=%.2f%%\n",
				method, len(probabilities), probabilities[0]*100, probabilities[len(probabilities)-1]*100)
		}
	}

	// Readiness checks
	fmt.Println("\n-- Fit readiness --")
	distinct := distinctFailureValues(sample)
	check("failure count", fmt.Sprintf("%d", stats.Failures), stats.Failures >= 3,
		"fewer than 3 failures, estimates will be unstable")
	check("distinct failure values", fmt.Sprintf("%d", distinct), distinct >= 2,
		"regression needs spread on the characteristic axis")
	check("censored share", fmt.Sprintf("%.1f%%", stats.CensoredShare*100), stats.CensoredShare <= 0.9,
		"heavily censored samples carry little failure information")

	// Quick candidate screen on rank regression
	if rankErr != nil {
		return
	}
	fmt.Printf("\n-- Candidate screen (rank regression, top %d) --\n", topN)
	type screened struct {
		spec   distribution.Spec
		result fit.FitResult
		err    error
	}
	results := make([]screened, 0, len(distribution.Families()))
	for _, family := range distribution.Families() {
		spec := distribution.Spec{Family: family}
		result, err := eng.FitRankRegression(ranked, spec)
		results = append(results, screened{spec: spec, result: result, err: err})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].err == nil) != (results[j].err == nil) {
			return results[i].err == nil
		}
		return results[i].result.Regression.RSquared > results[j].result.Regression.RSquared
	})

	limit := topN
	if limit > len(results) {
		limit = len(results)
	}
	for i := 0; i < limit; i++ {
		r := results[i]
		if r.err != nil {
			fmt.Printf("  %d) %s | failed: %v\n", i+1, r.spec, r.err)
			continue
		}
		fmt.Printf("  %d) %s | R²=%.4f | %s\n", i+1, r.spec, r.result.Regression.RSquared, formatParameters(r.result))
	}
}

func check(name, value string, ok bool, warning string) {
	if ok {
		fmt.Printf("%s: %s (ok)\n", name, value)
	} else {
		fmt.Printf("%s: %s (warn: %s)\n", name, value, warning)
	}
}

// failureTies counts groups of failures sharing a characteristic value.
func failureTies(sample lifedata.Sample) (groups, largest int) {
	counts := make(map[float64]int)
	for _, obs := range sample.Observations() {
		if obs.Failure {
			counts[obs.Characteristic]++
		}
	}
	for _, c := range counts {
		if c > 1 {
			groups++
		}
		if c > largest {
			largest = c
		}
	}
	return groups, largest
}

func distinctFailureValues(sample lifedata.Sample) int {
	seen := make(map[float64]struct{})
	for _, obs := range sample.Observations() {
		if obs.Failure {
			seen[obs.Characteristic] = struct{}{}
		}
	}
	return len(seen)
}

func formatParameters(result fit.FitResult) string {
	natural := result.Parameters
	parts := make([]string, 0, len(natural))
	for _, name := range result.ParameterNames() {
		parts = append(parts, fmt.Sprintf("%s=%.6g", name, natural[name]))
	}
	return strings.Join(parts, " ")
}
