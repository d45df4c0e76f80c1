package eval

// #region eval-config
// EvalConfig holds thresholds for post-inference validation.
type EvalConfig struct {
	SumTolerance float64 // reject if |sum - 1| exceeds this
	MinStates    int     // reject distributions with fewer states
	// warn (but pass) when the most likely state falls below this
	ConfidenceFloor float64
}

// DefaultEvalConfig returns defaults for binary query variables.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		SumTolerance:    1e-9,
		MinStates:       2,
		ConfidenceFloor: 0.5,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of distribution validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
