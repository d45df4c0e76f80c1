package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region eval-harness
// EvalHarness validates distributions returned by the engine.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks that dist is a proper probability distribution.
func (h *EvalHarness) Run(dist inference.Distribution) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. State count
	count := float64(len(dist))
	countPass := len(dist) >= h.config.MinStates
	metrics = append(metrics, EvalMetric{Name: "state_count", Value: count, Pass: countPass})
	if !countPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d states, want at least %d", len(dist), h.config.MinStates))
	}

	// 2. Each probability in [0,1]
	states := make([]string, 0, len(dist))
	for s := range dist {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		p := dist[s]
		inRange := p >= 0 && p <= 1 && !math.IsNaN(p)
		metrics = append(metrics, EvalMetric{Name: fmt.Sprintf("range_%s", s), Value: p, Pass: inRange})
		if !inRange {
			passed = false
			failReasons = append(failReasons, fmt.Sprintf("P(%s)=%v outside [0,1]", s, p))
		}
	}

	// 3. Total within tolerance of 1
	drift := math.Abs(dist.Sum() - 1)
	sumPass := drift <= h.config.SumTolerance
	metrics = append(metrics, EvalMetric{Name: "sum_drift", Value: drift, Pass: sumPass})
	if !sumPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("sum drift %g exceeds %g", drift, h.config.SumTolerance))
	}

	// 4. Confidence: informational only
	var top float64
	for _, p := range dist {
		top = math.Max(top, p)
	}
	metrics = append(metrics, EvalMetric{Name: "confidence", Value: top, Pass: top >= h.config.ConfidenceFloor})

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness
