package network

import "strings"

// #region variable
// Variable is the immutable definition of one binary network variable.
type Variable struct {
	ID      string
	Parents []string
	States  [2]string // positive literal first: "+b", "-b"

	// Prior holds P(X) for root variables.
	Prior map[string]float64

	// Conditional holds P(X | parents) for non-root variables, indexed by
	// own state, then by parent key ("+b+e" for parents B, E).
	Conditional map[string]map[string]float64
}

// IsRoot reports whether the variable has no parents.
func (v Variable) IsRoot() bool {
	return len(v.Parents) == 0
}

// HasState reports whether s is one of the variable's two states.
func (v Variable) HasState(s string) bool {
	return s == v.States[0] || s == v.States[1]
}

// Probability returns the table entry for own state s under parentKey.
// parentKey is ignored for root variables.
func (v Variable) Probability(s, parentKey string) (float64, bool) {
	if v.IsRoot() {
		p, ok := v.Prior[s]
		return p, ok
	}
	row, ok := v.Conditional[s]
	if !ok {
		return 0, false
	}
	p, ok := row[parentKey]
	return p, ok
}

// #endregion variable

// #region state-literals
// BinaryStates returns the conventional "+x", "-x" literals for a variable ID.
func BinaryStates(id string) [2]string {
	lower := strings.ToLower(id)
	return [2]string{"+" + lower, "-" + lower}
}

// #endregion state-literals
