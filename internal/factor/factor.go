// Package factor implements table factors over discrete variables with an
// explicit, ordered variable domain. Assignment keys are the concatenation of
// the assigned states in domain order and are only ever built, never parsed.
package factor

import (
	"errors"
	"fmt"
	"strings"
)

// #region errors
var (
	// ErrUnknownVariable means the state space has no entry for a variable.
	ErrUnknownVariable = errors.New("variable has no state space")
	// ErrNotInDomain means an operation named a variable outside the factor's domain.
	ErrNotInDomain = errors.New("variable not in factor domain")
)

// #endregion errors

// #region types
// StateSpace resolves the states of a variable. *network.Network satisfies it.
type StateSpace interface {
	States(variable string) []string
}

// Factor maps joint assignments of Vars to non-negative weights.
type Factor struct {
	Vars   []string
	Values map[string]float64
}

// Assignment maps variables to states.
type Assignment map[string]string

// #endregion types

// #region constructor
// New builds a factor over vars. values is copied.
func New(vars []string, values map[string]float64) *Factor {
	f := &Factor{
		Vars:   append([]string(nil), vars...),
		Values: make(map[string]float64, len(values)),
	}
	for k, v := range values {
		f.Values[k] = v
	}
	return f
}

// #endregion constructor

// #region lookups
// Has reports whether v is in the factor's domain.
func (f *Factor) Has(v string) bool {
	for _, x := range f.Vars {
		if x == v {
			return true
		}
	}
	return false
}

// Key builds the assignment key for f's domain from a (possibly wider) assignment.
func (f *Factor) Key(a Assignment) (string, error) {
	return keyFor(f.Vars, a)
}

// Lookup returns f's value for the sub-assignment of a restricted to f.Vars.
// ok is false when the combination does not exist in the factor.
func (f *Factor) Lookup(a Assignment) (float64, bool) {
	k, err := f.Key(a)
	if err != nil {
		return 0, false
	}
	v, ok := f.Values[k]
	return v, ok
}

// Total sums every weight in the factor.
func (f *Factor) Total() float64 {
	var sum float64
	for _, v := range f.Values {
		sum += v
	}
	return sum
}

// String renders the domain, for log lines.
func (f *Factor) String() string {
	return fmt.Sprintf("f(%s)[%d]", strings.Join(f.Vars, ","), len(f.Values))
}

func keyFor(vars []string, a Assignment) (string, error) {
	var b strings.Builder
	for _, v := range vars {
		s, ok := a[v]
		if !ok {
			return "", fmt.Errorf("%w: %s unassigned", ErrNotInDomain, v)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// #endregion lookups

// #region enumerate
// Enumerate calls fn for every joint assignment of vars, last variable varying
// fastest. The assignment map is reused between calls.
func Enumerate(space StateSpace, vars []string, fn func(a Assignment, key string)) error {
	states := make([][]string, len(vars))
	for i, v := range vars {
		s := space.States(v)
		if len(s) == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, v)
		}
		states[i] = s
	}

	idx := make([]int, len(vars))
	a := make(Assignment, len(vars))
	for {
		var b strings.Builder
		for i, v := range vars {
			s := states[i][idx[i]]
			a[v] = s
			b.WriteString(s)
		}
		fn(a, b.String())

		i := len(vars) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(states[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

// #endregion enumerate
