package network

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// #region constants
// sumTolerance bounds how far a CPT row may drift from 1.
const sumTolerance = 1e-9

// ErrInvalidNetwork is returned by New for malformed definitions.
var ErrInvalidNetwork = errors.New("invalid network")

// stateLiteral is a sign followed by a sign-free name. Factor keys concatenate
// states, so the sign is the only separator between them.
var stateLiteral = regexp.MustCompile(`^[+-][^+-]+$`)

// #endregion constants

// #region network-struct
// Network is an immutable set of variable definitions in declaration order.
// It is never mutated after New returns, so it may be shared across goroutines.
type Network struct {
	order []string
	vars  map[string]Variable
}

// #endregion network-struct

// #region constructor
// New validates the definitions and builds a Network. Parents must be declared
// before their children, which makes declaration order topological.
func New(defs ...Variable) (*Network, error) {
	n := &Network{
		order: make([]string, 0, len(defs)),
		vars:  make(map[string]Variable, len(defs)),
	}
	for _, def := range defs {
		if err := n.validate(def); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNetwork, def.ID, err)
		}
		n.order = append(n.order, def.ID)
		n.vars[def.ID] = copyVariable(def)
	}
	return n, nil
}

func (n *Network) validate(def Variable) error {
	if def.ID == "" {
		return errors.New("empty variable id")
	}
	if strings.ContainsAny(def.ID, "+-") {
		return errors.New("variable id must not contain '+' or '-'")
	}
	if _, dup := n.vars[def.ID]; dup {
		return errors.New("duplicate variable")
	}
	if def.States[0] == def.States[1] {
		return fmt.Errorf("states %q must be two distinct literals", def.States)
	}
	for _, s := range def.States {
		if !stateLiteral.MatchString(s) {
			return fmt.Errorf("state %q must be '+' or '-' followed by a name without signs", s)
		}
	}
	for _, p := range def.Parents {
		if _, ok := n.vars[p]; !ok {
			return fmt.Errorf("parent %s not declared before child", p)
		}
	}

	if def.IsRoot() {
		return checkRow(def.States, func(s string) (float64, bool) {
			p, ok := def.Prior[s]
			return p, ok
		})
	}

	for _, key := range n.parentKeys(def.Parents) {
		err := checkRow(def.States, func(s string) (float64, bool) {
			p, ok := def.Conditional[s][key]
			return p, ok
		})
		if err != nil {
			return fmt.Errorf("parents %s: %w", key, err)
		}
	}
	return nil
}

func checkRow(states [2]string, lookup func(string) (float64, bool)) error {
	var total float64
	for _, s := range states {
		p, ok := lookup(s)
		if !ok {
			return fmt.Errorf("missing entry for %s", s)
		}
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("probability %v for %s out of range", p, s)
		}
		total += p
	}
	if math.Abs(total-1) > sumTolerance {
		return fmt.Errorf("row sums to %v", total)
	}
	return nil
}

// #endregion constructor

// #region accessors
// Variables returns variable IDs in declaration order.
func (n *Network) Variables() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Variable looks up a definition by ID.
func (n *Network) Variable(id string) (Variable, bool) {
	v, ok := n.vars[id]
	return v, ok
}

// States returns the two states of a variable, or nil if it is unknown.
func (n *Network) States(id string) []string {
	v, ok := n.vars[id]
	if !ok {
		return nil
	}
	return []string{v.States[0], v.States[1]}
}

// Has reports whether id names a network variable.
func (n *Network) Has(id string) bool {
	_, ok := n.vars[id]
	return ok
}

// #endregion accessors

// #region parent-keys
// ParentKey concatenates parent states in parent order.
func ParentKey(states ...string) string {
	return strings.Join(states, "")
}

// parentKeys enumerates every parent assignment key, first parent varying slowest.
func (n *Network) parentKeys(parents []string) []string {
	keys := []string{""}
	for _, p := range parents {
		states := n.vars[p].States
		next := make([]string, 0, len(keys)*2)
		for _, k := range keys {
			next = append(next, k+states[0], k+states[1])
		}
		keys = next
	}
	return keys
}

// #endregion parent-keys

// #region helpers
func copyVariable(v Variable) Variable {
	out := Variable{
		ID:      v.ID,
		Parents: append([]string(nil), v.Parents...),
		States:  v.States,
	}
	if v.Prior != nil {
		out.Prior = make(map[string]float64, len(v.Prior))
		for k, p := range v.Prior {
			out.Prior[k] = p
		}
	}
	if v.Conditional != nil {
		out.Conditional = make(map[string]map[string]float64, len(v.Conditional))
		for s, row := range v.Conditional {
			cp := make(map[string]float64, len(row))
			for k, p := range row {
				cp[k] = p
			}
			out.Conditional[s] = cp
		}
	}
	return out
}

// #endregion helpers
