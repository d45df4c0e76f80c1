package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/config"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to alarmnet.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	query := flag.String("query", "", "filter list to one query variable")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/alarmnet.db [--last N] [--run id] [--query B] [--json]")
		os.Exit(2)
	}

	store, err := history.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(os.Stdout, store, *runID, *jsonOut)
	} else {
		err = runListMode(os.Stdout, store, *last, *query, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string  `json:"run_id"`
	Query     string  `json:"query"`
	Evidence  string  `json:"evidence"`
	Top       string  `json:"top,omitempty"`
	TopProb   float64 `json:"top_prob,omitempty"`
	Planner   string  `json:"planner"`
	Trigger   string  `json:"trigger,omitempty"`
	Outcome   string  `json:"outcome"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(w io.Writer, store *history.Store, last int, queryFilter string, jsonOut bool) error {
	runs, err := store.ListRunsWithLog(last)
	if err != nil {
		return err
	}

	// store returns DESC, reverse for chronological
	var rows []listRow
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		if queryFilter != "" && r.Query != queryFilter {
			continue
		}
		lr := listRow{
			RunID:     r.RunID,
			Query:     r.Query,
			Evidence:  formatEvidence(r.Evidence),
			Planner:   r.Planner,
			Trigger:   r.TriggerType,
			Outcome:   outcome(r),
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		lr.Top, lr.TopProb = mostLikely(r.Distribution)
		rows = append(rows, lr)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-10s  %-5s  %-16s  %-12s  %-12s  %-8s  %-22s  %s\n",
		"Run", "Query", "Evidence", "Most likely", "Planner", "Trigger", "Outcome", "Time")
	fmt.Fprintf(w, "%-10s+-%-5s+-%-16s+-%-12s+-%-12s+-%-8s+-%-22s+-%s\n",
		"----------", "-----", "----------------", "------------", "------------", "--------",
		"----------------------", "--------------------")
	for _, r := range rows {
		top := "-"
		if r.Top != "" {
			top = fmt.Sprintf("%s %.3f", r.Top, r.TopProb)
		}
		fmt.Fprintf(w, "%-10s  %-5s  %-16s  %-12s  %-12s  %-8s  %-22s  %s\n",
			shortID(r.RunID), r.Query, r.Evidence, top, r.Planner, dash(r.Trigger), r.Outcome, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID        string             `json:"run_id"`
	Query        string             `json:"query"`
	Evidence     map[string]string  `json:"evidence"`
	Order        []string           `json:"order"`
	Planner      string             `json:"planner"`
	Distribution map[string]float64 `json:"distribution,omitempty"`
	ErrorKind    string             `json:"error_kind,omitempty"`
	ErrorText    string             `json:"error_text,omitempty"`
	Trigger      string             `json:"trigger,omitempty"`
	Outcome      string             `json:"outcome"`
	Reason       string             `json:"reason,omitempty"`
	CreatedAt    string             `json:"created_at"`
}

func runDetailMode(w io.Writer, store *history.Store, runID string, jsonOut bool) error {
	r, err := store.GetRunWithLog(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:        r.RunID,
		Query:        r.Query,
		Evidence:     r.Evidence,
		Order:        r.Order,
		Planner:      r.Planner,
		Distribution: r.Distribution,
		ErrorKind:    r.ErrorKind,
		ErrorText:    r.ErrorText,
		Trigger:      r.TriggerType,
		Outcome:      outcome(r),
		Reason:       r.Reason,
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}

	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Run:      %s\n", out.RunID)
	fmt.Fprintf(w, "Created:  %s\n", out.CreatedAt)
	fmt.Fprintf(w, "Query:    %s\n", out.Query)
	fmt.Fprintf(w, "Evidence: %s\n", formatEvidence(r.Evidence))
	fmt.Fprintf(w, "Planner:  %s\n", out.Planner)
	fmt.Fprintf(w, "Order:    %s\n", dash(strings.Join(out.Order, " ")))
	fmt.Fprintf(w, "Trigger:  %s\n", dash(out.Trigger))
	fmt.Fprintf(w, "Outcome:  %s\n", out.Outcome)
	if out.Reason != "" {
		fmt.Fprintf(w, "Reason:   %s\n", out.Reason)
	}

	if r.Failed() {
		fmt.Fprintf(w, "\nError (%s): %s\n", out.ErrorKind, out.ErrorText)
		return nil
	}
	fmt.Fprintf(w, "\nDistribution:\n")
	for _, s := range sortedStates(out.Distribution) {
		fmt.Fprintf(w, "  %-6s %.6f\n", s, out.Distribution[s])
	}
	return nil
}

// #endregion detail-mode

// #region output

// outcome prefers the logged outcome and falls back to the run's error kind.
func outcome(r history.RunWithLog) string {
	if r.Outcome != "" {
		return r.Outcome
	}
	if r.Failed() {
		return r.ErrorKind
	}
	return "ok"
}

func mostLikely(d map[string]float64) (string, float64) {
	var best string
	bestP := -1.0
	for _, s := range sortedStates(d) {
		if d[s] > bestP {
			best, bestP = s, d[s]
		}
	}
	if best == "" {
		return "", 0
	}
	return best, bestP
}

func formatEvidence(ev map[string]string) string {
	if len(ev) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(ev))
	for k := range ev {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + ev[k]
	}
	return strings.Join(parts, ",")
}

func sortedStates(d map[string]float64) []string {
	out := make([]string, 0, len(d))
	for s := range d {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
