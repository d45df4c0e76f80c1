package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/config"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/eval"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/logging"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/rpc"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	query := flag.String("query", "B", "query variable")
	evidenceFlag := flag.String("evidence", "J=+j", "comma-separated evidence, e.g. J=+j,M=+m")
	orderFlag := flag.String("order", "", "explicit elimination order, e.g. M,A,E")
	remote := flag.Bool("remote", false, "send the query to the inference server")
	addr := flag.String("addr", cfg.ServerAddr, "inference server address (with --remote)")
	dbPath := flag.String("db", cfg.DBPath, "history database path")
	ordering := flag.String("ordering", cfg.Ordering, "elimination planner: declaration | min_degree")
	noHistory := flag.Bool("no-history", !cfg.RecordHistory, "do not record the run")
	flag.Parse()

	if *remote {
		if err := checkRemoteFlags(setFlags()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
	}

	logger, err := logging.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	evidence, err := parseEvidence(*evidenceFlag)
	if err != nil {
		logger.Fatal("bad --evidence", "err", err)
	}
	order := parseList(*orderFlag)

	var dist inference.Distribution
	if *remote {
		dist, err = runRemote(*addr, rpc.Request{Query: *query, Evidence: evidence, Order: order})
	} else {
		var store *history.Store
		if !*noHistory {
			store, err = history.NewStore(*dbPath)
			if err != nil {
				logger.Fatal("failed to open history", "db", *dbPath, "err", err)
			}
			defer store.Close()
		}
		dist, err = runLocal(logger, store, *ordering, *query, evidence, order)
	}
	if err != nil {
		logger.Error("query failed", "kind", inference.ErrorKind(err), "err", err)
		os.Exit(1)
	}

	fmt.Printf("Probability distribution of %s%s:\n", *query, givenClause(evidence))
	for _, line := range inference.FormatLines(network.Alarm(), *query, evidence, dist) {
		fmt.Println(line)
	}
}

// #endregion main

// #region local
func runLocal(logger *log.Logger, store *history.Store, ordering, query string, evidence inference.Evidence, order []string) (inference.Distribution, error) {
	planner, err := inference.PlannerByName(ordering)
	if err != nil {
		return nil, err
	}
	engine := inference.NewEngine(network.Alarm(), inference.WithPlanner(planner))

	var res inference.Result
	if order != nil {
		res, err = engine.RunWithOrder(query, evidence, order)
	} else {
		res, err = engine.Run(query, evidence)
	}

	outcome, reason := logging.OutcomeOK, ""
	if err != nil {
		outcome, reason = inference.ErrorKind(err), err.Error()
	} else {
		check := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(res.Distribution)
		reason = check.Reason
		if !check.Passed {
			logger.Warn("distribution failed validation", "reason", check.Reason)
		}
	}

	if store != nil {
		run, recErr := store.RecordRun(history.FromResult(query, evidence, inference.PlannerLabel(planner, order), res, err))
		if recErr != nil {
			logger.Error("record run", "err", recErr)
		} else {
			logErr := logging.LogQuery(store.DB(), logging.QueryEntry{
				RunID:       run.RunID,
				TriggerType: logging.TriggerCLI,
				Outcome:     outcome,
				Reason:      reason,
			})
			if logErr != nil {
				logger.Error("log query", "err", logErr)
			}
			logger.Debug("recorded run", "run_id", run.RunID, "order", res.Order)
		}
	}

	if err != nil {
		return nil, err
	}
	return res.Distribution, nil
}

// #endregion local

// #region remote
func runRemote(addr string, req rpc.Request) (inference.Distribution, error) {
	client, err := rpc.NewClient(addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reply, err := client.Infer(ctx, req)
	if err != nil {
		return nil, err
	}
	return reply.Distribution, nil
}

// #endregion remote

// #region helpers
// localOnlyFlags configure the in-process engine or its history and have no
// effect on a remote query.
var localOnlyFlags = []string{"db", "ordering", "no-history"}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func checkRemoteFlags(set map[string]bool) error {
	var bad []string
	for _, name := range localOnlyFlags {
		if set[name] {
			bad = append(bad, "-"+name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%s cannot be combined with -remote; the server applies its own configuration", strings.Join(bad, ", "))
	}
	return nil
}

func parseEvidence(s string) (inference.Evidence, error) {
	ev := inference.Evidence{}
	for _, pair := range parseList(s) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("evidence %q must look like VAR=state", pair)
		}
		ev[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return ev, nil
}

func parseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func givenClause(ev inference.Evidence) string {
	if len(ev) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ev))
	for k, v := range ev {
		parts = append(parts, k+" = "+v)
	}
	sort.Strings(parts)
	return " given " + strings.Join(parts, ", ")
}

// #endregion helpers
