package eval

import (
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
)

func TestEvalPassesOnEngineOutput(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	d, err := inference.NewEngine(network.Alarm()).Infer("B", inference.Evidence{"J": "+j"})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}

	result := h.Run(d)

	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if result.Reason != "all checks passed" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestEvalFailsOnSumDrift(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(inference.Distribution{"+b": 0.5, "-b": 0.6})

	if result.Passed {
		t.Fatal("expected fail on sum drift")
	}
	foundFail := false
	for _, m := range result.Metrics {
		if m.Name == "sum_drift" && !m.Pass {
			foundFail = true
		}
	}
	if !foundFail {
		t.Fatal("expected sum_drift metric to fail")
	}
}

func TestEvalFailsOnOutOfRange(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(inference.Distribution{"+b": 1.5, "-b": -0.5})

	if result.Passed {
		t.Fatal("expected fail on out-of-range probabilities")
	}
	if !strings.Contains(result.Reason, "2 checks") {
		t.Errorf("expected two failing checks in reason, got %q", result.Reason)
	}
}

func TestEvalFailsOnNaN(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(inference.Distribution{"+b": math.NaN(), "-b": 1})

	if result.Passed {
		t.Fatal("expected fail on NaN")
	}
}

func TestEvalFailsOnTooFewStates(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(inference.Distribution{"+b": 1})

	if result.Passed {
		t.Fatal("expected fail with a single state")
	}
}

func TestEvalConfidenceInformationalOnly(t *testing.T) {
	config := DefaultEvalConfig()
	config.ConfidenceFloor = 0.9
	h := NewEvalHarness(config)

	result := h.Run(inference.Distribution{"+b": 0.45, "-b": 0.55})

	if !result.Passed {
		t.Fatalf("confidence check should be informational, not blocking: %s", result.Reason)
	}
	for _, m := range result.Metrics {
		if m.Name == "confidence" && m.Pass {
			t.Fatal("confidence metric should show pass=false below floor")
		}
	}
}

func TestEvalMetricCount(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	result := h.Run(inference.Distribution{"+b": 0.25, "-b": 0.75})

	// state_count + 2 ranges + sum_drift + confidence
	if len(result.Metrics) != 5 {
		t.Fatalf("expected 5 metrics, got %d", len(result.Metrics))
	}
}
