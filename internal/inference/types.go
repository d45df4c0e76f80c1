package inference

import (
	"errors"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/factor"
)

// #region errors
var (
	ErrUnknownVariable        = errors.New("unknown variable")
	ErrInvalidEvidence        = errors.New("invalid evidence")
	ErrNoRelevantFactors      = errors.New("no relevant factors")
	ErrDegenerateDistribution = errors.New("degenerate distribution")
	ErrInvalidOrder           = errors.New("invalid elimination order")
)

// ErrorKind maps an inference error to a stable tag for logs and history rows.
// Evidence naming an unknown variable matches both ErrInvalidEvidence and
// ErrUnknownVariable and is reported as invalid_evidence.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEvidence):
		return "invalid_evidence"
	case errors.Is(err, ErrUnknownVariable):
		return "unknown_variable"
	case errors.Is(err, ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, ErrNoRelevantFactors):
		return "no_relevant_factors"
	case errors.Is(err, ErrDegenerateDistribution):
		return "degenerate_distribution"
	default:
		return "internal"
	}
}

// #endregion errors

// #region evidence
// Evidence maps observed variables to their observed state.
type Evidence map[string]string

// Distribution maps each state of the query variable to its probability.
type Distribution map[string]float64

// Sum totals the probabilities.
func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d {
		s += p
	}
	return s
}

// #endregion evidence

// #region working-set
// WorkingSet is the factor collection owned by one query. Elimination steps
// return a new WorkingSet and never modify their input.
type WorkingSet struct {
	factors []*factor.Factor
}

// NewWorkingSet wraps factors. The slice is copied.
func NewWorkingSet(factors ...*factor.Factor) WorkingSet {
	return WorkingSet{factors: append([]*factor.Factor(nil), factors...)}
}

// Factors returns a copy of the factor list.
func (w WorkingSet) Factors() []*factor.Factor {
	return append([]*factor.Factor(nil), w.factors...)
}

// Len returns the number of factors.
func (w WorkingSet) Len() int {
	return len(w.factors)
}

// Mentions reports whether any factor's domain includes variable.
func (w WorkingSet) Mentions(variable string) bool {
	for _, f := range w.factors {
		if f.Has(variable) {
			return true
		}
	}
	return false
}

// #endregion working-set

// #region result
// Result is a completed query with the elimination order that produced it.
type Result struct {
	Query        string
	Evidence     Evidence
	Order        []string
	Distribution Distribution
}

// #endregion result
