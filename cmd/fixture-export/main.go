package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/config"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/replay"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to alarmnet.db")
	last := flag.Int("last", 20, "number of most recent runs to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	precision := flag.Int("precision", 3, "decimal places compared on replay")
	keepOrder := flag.Bool("keep-order", false, "pin each case to the elimination order it ran with")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/alarmnet.db --out path/to/fixture.json [--last N] [--precision P] [--keep-order]")
		os.Exit(2)
	}

	if err := run(os.Stdout, *dbPath, *last, *outPath, *precision, *keepOrder); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(w io.Writer, dbPath string, last int, outPath string, precision int, keepOrder bool) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(last)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	// newest first from the store; fixtures read chronologically
	var kept []history.Run
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].ErrorKind == "invalid_order" {
			continue
		}
		kept = append(kept, runs[i])
	}
	if len(kept) == 0 {
		return fmt.Errorf("no exportable runs in last %d entries", last)
	}

	fmt.Fprintf(w, "Found %d runs\n", len(kept))

	fixture := buildFixture(kept, precision, keepOrder)
	if err := replay.WriteFixture(outPath, fixture); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote fixture to %s (%d cases)\n", outPath, len(fixture.Cases))
	return nil
}

// #endregion extract

// #region output

func buildFixture(runs []history.Run, precision int, keepOrder bool) *replay.Fixture {
	cases := make([]replay.FixtureCase, len(runs))
	for i, r := range runs {
		fc := replay.FixtureCase{
			ID:       r.RunID,
			Query:    r.Query,
			Evidence: r.Evidence,
		}
		if r.Failed() {
			fc.ExpectedError = r.ErrorKind
		} else {
			fc.Expected = make(map[string]float64, len(r.Distribution))
			for s, p := range r.Distribution {
				fc.Expected[s] = replay.Round(p, precision)
			}
			if keepOrder {
				fc.Order = r.Order
			}
		}
		cases[i] = fc
	}

	defaults := replay.DefaultReplayConfig()
	return &replay.Fixture{
		Description: fmt.Sprintf("History export: %d recorded runs", len(runs)),
		Config: replay.FixtureConfig{
			Ordering:  fixtureOrdering(runs),
			Precision: precision,
			EvalConfig: replay.FixtureEvalConfig{
				SumTolerance:    defaults.EvalConfig.SumTolerance,
				MinStates:       defaults.EvalConfig.MinStates,
				ConfidenceFloor: defaults.EvalConfig.ConfidenceFloor,
			},
		},
		Cases: cases,
	}
}

// fixtureOrdering picks the planner of the first run that used one. Runs with
// an explicit order carry no planner name.
func fixtureOrdering(runs []history.Run) string {
	for _, r := range runs {
		if r.Planner != "" && r.Planner != inference.ExplicitOrder {
			return r.Planner
		}
	}
	return "declaration"
}

// #endregion output
