package replay

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/eval"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region types
// Case is a single recorded query with its expected outcome.
type Case struct {
	ID            string
	Query         string
	Evidence      inference.Evidence
	Order         []string // optional explicit elimination order
	Expected      inference.Distribution
	ExpectedError string // inference.ErrorKind tag; empty when success is expected
}

// ReplayConfig controls comparison and validation for a replay run.
type ReplayConfig struct {
	Precision  int // decimal places compared
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig compares at three decimals, matching CLI output.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Precision:  3,
		EvalConfig: eval.DefaultEvalConfig(),
	}
}

// Actions reported per case.
const (
	ActionMatch           = "match"
	ActionMismatch        = "mismatch"
	ActionEvalFail        = "eval_fail"
	ActionErrorMatch      = "error_match"
	ActionUnexpectedError = "unexpected_error"
)

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	CaseID string
	Action string
	Reason string

	Result     inference.Result
	ErrorKind  string
	EvalResult *eval.EvalResult // nil when the query errored
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases       int
	Matches          int
	Mismatches       int
	EvalFailures     int
	ErrorMatches     int
	UnexpectedErrors int
}

// Passed reports whether every case behaved as expected.
func (s ReplaySummary) Passed() bool {
	return s.Mismatches == 0 && s.EvalFailures == 0 && s.UnexpectedErrors == 0
}

// #endregion types

// #region replay
// Replay runs every case through engine: infer → eval → compare.
func Replay(engine *inference.Engine, cases []Case, config ReplayConfig) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	evalInst := eval.NewEvalHarness(config.EvalConfig)

	for _, c := range cases {
		var res inference.Result
		var err error
		if c.Order != nil {
			res, err = engine.RunWithOrder(c.Query, c.Evidence, c.Order)
		} else {
			res, err = engine.Run(c.Query, c.Evidence)
		}

		// 1. Errors
		if err != nil {
			kind := inference.ErrorKind(err)
			action := ActionUnexpectedError
			if c.ExpectedError != "" && c.ExpectedError == kind {
				action = ActionErrorMatch
			}
			results = append(results, ReplayResult{
				CaseID:    c.ID,
				Action:    action,
				Reason:    err.Error(),
				ErrorKind: kind,
			})
			continue
		}
		if c.ExpectedError != "" {
			results = append(results, ReplayResult{
				CaseID: c.ID,
				Action: ActionMismatch,
				Reason: fmt.Sprintf("expected error %s, got a distribution", c.ExpectedError),
				Result: res,
			})
			continue
		}

		// 2. Eval
		evalResult := evalInst.Run(res.Distribution)
		if !evalResult.Passed {
			results = append(results, ReplayResult{
				CaseID:     c.ID,
				Action:     ActionEvalFail,
				Reason:     evalResult.Reason,
				Result:     res,
				EvalResult: &evalResult,
			})
			continue
		}

		// 3. Compare
		action, reason := ActionMatch, "matches expected"
		if diff := compare(res.Distribution, c.Expected, config.Precision); diff != "" {
			action, reason = ActionMismatch, diff
		}
		results = append(results, ReplayResult{
			CaseID:     c.ID,
			Action:     action,
			Reason:     reason,
			Result:     res,
			EvalResult: &evalResult,
		})
	}

	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionMismatch:
			s.Mismatches++
		case ActionEvalFail:
			s.EvalFailures++
		case ActionErrorMatch:
			s.ErrorMatches++
		case ActionUnexpectedError:
			s.UnexpectedErrors++
		}
	}
	return s
}

// #endregion replay

// #region compare
// compare returns "" when got and want agree at precision decimals, otherwise
// a description of the first differing state.
func compare(got, want inference.Distribution, precision int) string {
	states := make([]string, 0, len(want)+len(got))
	seen := make(map[string]bool)
	for s := range want {
		states = append(states, s)
		seen[s] = true
	}
	for s := range got {
		if !seen[s] {
			states = append(states, s)
		}
	}
	sort.Strings(states)

	for _, s := range states {
		w, ok := want[s]
		if !ok {
			return fmt.Sprintf("unexpected state %s", s)
		}
		g, ok := got[s]
		if !ok {
			return fmt.Sprintf("missing state %s", s)
		}
		if Round(g, precision) != Round(w, precision) {
			return fmt.Sprintf("P(%s): got %.*f, want %.*f", s, precision, g, precision, w)
		}
	}
	return ""
}

// Round rounds p half away from zero to the given number of decimals.
func Round(p float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(p*scale) / scale
}

// #endregion compare
