package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/district-demographics/internal/demographics"
)

var (
	validateConcurrency int
	validateTolerance   float64
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Fetch every city file and report upstream data issues",
	Long:  "Checks that subgroup counts sum to TOTAL and shares lie in [0,1]. Issues are reported, never fixed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		e, err := newEnv(cfg)
		if err != nil {
			return err
		}
		report, err := runValidate(cmd.Context(), e, validateConcurrency, validateTolerance)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		if report.Failed > 0 {
			return eris.Errorf("%d of %d cities could not be loaded", report.Failed, report.Cities)
		}
		return nil
	},
}

type cityReport struct {
	CityID   string
	Features int
	Issues   []demographics.Issue
	Err      error
}

type validateReport struct {
	Cities  int
	Failed  int
	Issues  int
	Results []cityReport
}

func runValidate(ctx context.Context, e *env, concurrency int, tolerance float64) (*validateReport, error) {
	cities := e.Registry.Sorted()
	results := make([]cityReport, len(cities))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	var failed, issues atomic.Int64
	for i, city := range cities {
		g.Go(func() error {
			r := cityReport{CityID: city.ID}
			fc, err := e.Loader.Load(gctx, city)
			if err != nil {
				failed.Add(1)
				r.Err = err
				zap.L().Warn("validate: load failed", zap.String("city", city.ID), zap.Error(err))
			} else {
				r.Features = fc.Len()
				r.Issues = demographics.Check(fc, tolerance)
				issues.Add(int64(len(r.Issues)))
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "validate")
	}

	return &validateReport{
		Cities:  len(cities),
		Failed:  int(failed.Load()),
		Issues:  int(issues.Load()),
		Results: results,
	}, nil
}

func printReport(w io.Writer, r *validateReport) {
	for _, c := range r.Results {
		switch {
		case c.Err != nil:
			fmt.Fprintf(w, "%s: FAILED %v\n", c.CityID, c.Err)
		case len(c.Issues) == 0:
			fmt.Fprintf(w, "%s: ok (%d districts)\n", c.CityID, c.Features)
		default:
			fmt.Fprintf(w, "%s: %d issue(s) in %d districts\n", c.CityID, len(c.Issues), c.Features)
			for _, is := range c.Issues {
				fmt.Fprintf(w, "  %s\n", is)
			}
		}
	}
	fmt.Fprintf(w, "%d cities, %d failed, %d issues\n", r.Cities, r.Failed, r.Issues)
}

func init() {
	validateCmd.Flags().IntVar(&validateConcurrency, "concurrency", 4, "parallel city fetches")
	validateCmd.Flags().Float64Var(&validateTolerance, "tolerance", 1, "allowed difference between subgroup sum and TOTAL")
	rootCmd.AddCommand(validateCmd)
}
