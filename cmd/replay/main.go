package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to alarmnet.db (history mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	last := flag.Int("last", 50, "history mode: replay the N most recent runs")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/alarmnet.db [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(os.Stdout, *fixturePath)
	} else {
		exitCode = runDBMode(os.Stdout, *dbPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(w io.Writer, path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	planner, err := inference.PlannerByName(f.Config.Ordering)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture config: %v\n", err)
		return 2
	}

	engine := inference.NewEngine(network.Alarm(), inference.WithPlanner(planner))
	results := replay.Replay(engine, f.ToCases(), f.Config.ToReplayConfig())
	return printComparison(w, results)
}

// #endregion fixture-mode

// #region db-mode

// runDBMode re-runs recorded history against the current engine. Each run is
// replayed with the order it originally used, so planner changes do not count
// as divergence.
func runDBMode(w io.Writer, dbPath string, last int) int {
	store, err := history.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	runs, err := store.ListRuns(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found in query_runs")
		return 2
	}

	// store returns newest first; replay chronologically
	var cases []replay.Case
	skipped := 0
	for i := len(runs) - 1; i >= 0; i-- {
		c, ok := toCase(runs[i])
		if !ok {
			skipped++
			continue
		}
		cases = append(cases, c)
	}
	if skipped > 0 {
		fmt.Fprintf(w, "skipped %d run(s) whose requested order was not recorded\n\n", skipped)
	}

	engine := inference.NewEngine(network.Alarm())
	config := replay.DefaultReplayConfig()
	config.Precision = 9
	results := replay.Replay(engine, cases, config)
	return printComparison(w, results)
}

// toCase converts a recorded run. Runs rejected for their explicit order cannot
// be replayed because the rejected order is not stored.
func toCase(r history.Run) (replay.Case, bool) {
	if r.ErrorKind == "invalid_order" {
		return replay.Case{}, false
	}
	c := replay.Case{
		ID:            r.RunID,
		Query:         r.Query,
		Evidence:      r.Evidence,
		Expected:      r.Distribution,
		ExpectedError: r.ErrorKind,
	}
	if !r.Failed() {
		c.Order = r.Order
		if c.Order == nil {
			c.Order = []string{}
		}
	}
	return c, true
}

// #endregion db-mode

// #region output

// printComparison writes a per-case table and returns the exit code.
func printComparison(w io.Writer, results []replay.ReplayResult) int {
	fmt.Fprintf(w, "%-36s| %-16s| %s\n", "Case", "Action", "Reason")
	fmt.Fprintf(w, "%-36s+%-17s+%s\n",
		"------------------------------------", "-----------------", "------------------------")

	for _, r := range results {
		fmt.Fprintf(w, "%-36s| %-16s| %s\n", r.CaseID, r.Action, r.Reason)
	}

	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d error match, %d mismatch, %d eval fail, %d unexpected error\n",
		s.TotalCases, s.Matches, s.ErrorMatches, s.Mismatches, s.EvalFailures, s.UnexpectedErrors)

	if !s.Passed() {
		return 1
	}
	return 0
}

// #endregion output
