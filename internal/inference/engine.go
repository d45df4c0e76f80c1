package inference

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/factor"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
)

// #region engine-struct
// Engine answers posterior queries over one network by variable elimination.
// It holds no per-query state and is safe for concurrent use.
type Engine struct {
	net     *network.Network
	planner Planner
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlanner overrides the default declaration-order planner.
func WithPlanner(p Planner) Option {
	return func(e *Engine) {
		if p != nil {
			e.planner = p
		}
	}
}

// NewEngine creates an engine over net.
func NewEngine(net *network.Network, opts ...Option) *Engine {
	e := &Engine{net: net, planner: DeclarationOrder{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Network returns the engine's network.
func (e *Engine) Network() *network.Network {
	return e.net
}

// Planner returns the configured planner.
func (e *Engine) Planner() Planner {
	return e.planner
}

// #endregion engine-struct

// #region infer
// Infer returns P(query | evidence).
func (e *Engine) Infer(query string, evidence Evidence) (Distribution, error) {
	res, err := e.Run(query, evidence)
	if err != nil {
		return nil, err
	}
	return res.Distribution, nil
}

// InferWithOrder is Infer with a caller-supplied elimination order.
func (e *Engine) InferWithOrder(query string, evidence Evidence, order []string) (Distribution, error) {
	res, err := e.RunWithOrder(query, evidence, order)
	if err != nil {
		return nil, err
	}
	return res.Distribution, nil
}

// Run answers a query and reports the elimination order used.
func (e *Engine) Run(query string, evidence Evidence) (Result, error) {
	if err := e.validateQuery(query); err != nil {
		return Result{}, err
	}
	if err := e.validateEvidence(evidence); err != nil {
		return Result{}, err
	}
	return e.run(query, evidence, e.EliminationOrder(query, evidence))
}

// RunWithOrder answers a query using order, which must cover exactly the
// hidden variables.
func (e *Engine) RunWithOrder(query string, evidence Evidence, order []string) (Result, error) {
	if err := e.validateQuery(query); err != nil {
		return Result{}, err
	}
	if err := e.validateEvidence(evidence); err != nil {
		return Result{}, err
	}
	if err := ValidateOrder(e.net, query, evidence, order); err != nil {
		return Result{}, err
	}
	return e.run(query, evidence, append([]string(nil), order...))
}

func (e *Engine) run(query string, evidence Evidence, order []string) (Result, error) {
	if prior, ok := e.rootPrior(query, evidence); ok {
		return Result{
			Query:        query,
			Evidence:     copyEvidence(evidence),
			Order:        order,
			Distribution: prior,
		}, nil
	}

	ws, err := e.InitializeFactors(evidence)
	if err != nil {
		return Result{}, err
	}
	for _, v := range order {
		ws, err = e.Eliminate(v, ws)
		if err != nil {
			return Result{}, err
		}
	}

	final, err := e.collapse(query, ws)
	if err != nil {
		return Result{}, err
	}
	dist, err := Normalize(final)
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", query, err)
	}

	return Result{
		Query:        query,
		Evidence:     copyEvidence(evidence),
		Order:        order,
		Distribution: dist,
	}, nil
}

// rootPrior returns the prior table of a root queried without evidence. Every
// other factor sums to one over its child, so elimination would only add
// rounding error.
func (e *Engine) rootPrior(query string, evidence Evidence) (Distribution, bool) {
	if len(evidence) > 0 {
		return nil, false
	}
	def, ok := e.net.Variable(query)
	if !ok || !def.IsRoot() {
		return nil, false
	}
	dist := make(Distribution, len(def.States))
	for _, s := range def.States {
		dist[s] = def.Prior[s]
	}
	return dist, true
}

// collapse multiplies what is left after elimination and sums out the observed
// variables. Their factors are clamped, so summing keeps only the observed
// weight.
func (e *Engine) collapse(query string, ws WorkingSet) (*factor.Factor, error) {
	joint, err := factor.Product(e.net, ws.factors...)
	if err != nil {
		return nil, fmt.Errorf("combine remaining factors: %w", err)
	}
	for _, v := range append([]string(nil), joint.Vars...) {
		if v == query {
			continue
		}
		joint, err = factor.SumOut(e.net, joint, v)
		if err != nil {
			return nil, fmt.Errorf("collapse %s: %w", v, err)
		}
	}
	return joint, nil
}

// #endregion infer

// #region validation
func (e *Engine) validateQuery(query string) error {
	if !e.net.Has(query) {
		return fmt.Errorf("%w: query %q", ErrUnknownVariable, query)
	}
	return nil
}

func (e *Engine) validateEvidence(evidence Evidence) error {
	for _, v := range sortedKeys(evidence) {
		def, ok := e.net.Variable(v)
		if !ok {
			return fmt.Errorf("%w: %w: evidence variable %q", ErrInvalidEvidence, ErrUnknownVariable, v)
		}
		if !def.HasState(evidence[v]) {
			return fmt.Errorf("%w: %q is not a state of %s", ErrInvalidEvidence, evidence[v], v)
		}
	}
	return nil
}

// #endregion validation

// #region initialize
// InitializeFactors builds one factor per network variable. A root factor spans
// the variable alone; any other spans the variable followed by its parents.
// Observed variables keep their domain but have every inconsistent entry set
// to zero.
func (e *Engine) InitializeFactors(evidence Evidence) (WorkingSet, error) {
	if err := e.validateEvidence(evidence); err != nil {
		return WorkingSet{}, err
	}

	ids := e.net.Variables()
	factors := make([]*factor.Factor, 0, len(ids))
	for _, id := range ids {
		def, _ := e.net.Variable(id)
		vars := append([]string{id}, def.Parents...)
		observed, clamp := evidence[id]

		f := &factor.Factor{Vars: vars, Values: make(map[string]float64)}
		var missing error
		err := factor.Enumerate(e.net, vars, func(a factor.Assignment, key string) {
			parentStates := make([]string, len(def.Parents))
			for i, p := range def.Parents {
				parentStates[i] = a[p]
			}
			p, ok := def.Probability(a[id], network.ParentKey(parentStates...))
			if !ok {
				missing = fmt.Errorf("no table entry for %s", key)
				return
			}
			if clamp && a[id] != observed {
				p = 0
			}
			f.Values[key] = p
		})
		if err == nil {
			err = missing
		}
		if err != nil {
			return WorkingSet{}, fmt.Errorf("initialize %s: %w", id, err)
		}
		factors = append(factors, f)
	}
	return WorkingSet{factors: factors}, nil
}

// #endregion initialize

// #region order
// EliminationOrder returns the configured planner's order for this query.
func (e *Engine) EliminationOrder(query string, evidence Evidence) []string {
	return e.planner.Order(e.net, query, evidence)
}

// #endregion order

// #region eliminate
// Eliminate multiplies every factor whose domain includes variable, sums the
// variable out, and returns a new set holding the untouched factors followed by
// the reduced one.
func (e *Engine) Eliminate(variable string, ws WorkingSet) (WorkingSet, error) {
	var relevant, rest []*factor.Factor
	for _, f := range ws.factors {
		if f.Has(variable) {
			relevant = append(relevant, f)
		} else {
			rest = append(rest, f)
		}
	}
	if len(relevant) == 0 {
		return WorkingSet{}, fmt.Errorf("%w: %s", ErrNoRelevantFactors, variable)
	}

	joint, err := factor.Product(e.net, relevant...)
	if err != nil {
		return WorkingSet{}, fmt.Errorf("eliminate %s: %w", variable, err)
	}
	reduced, err := factor.SumOut(e.net, joint, variable)
	if err != nil {
		return WorkingSet{}, fmt.Errorf("eliminate %s: %w", variable, err)
	}
	return WorkingSet{factors: append(rest, reduced)}, nil
}

// #endregion eliminate

// #region normalize
// Normalize rescales a single-variable factor into a probability distribution.
func Normalize(f *factor.Factor) (Distribution, error) {
	if len(f.Vars) != 1 {
		return nil, fmt.Errorf("normalize: factor over %v, want exactly one variable", f.Vars)
	}
	total := f.Total()
	if total <= 0 {
		return nil, fmt.Errorf("%w: total weight %v over %s", ErrDegenerateDistribution, total, f.Vars[0])
	}
	dist := make(Distribution, len(f.Values))
	for state, w := range f.Values {
		dist[state] = w / total
	}
	return dist, nil
}

// #endregion normalize

// #region helpers
func sortedKeys(ev Evidence) []string {
	keys := make([]string, 0, len(ev))
	for k := range ev {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyEvidence(ev Evidence) Evidence {
	out := make(Evidence, len(ev))
	for k, v := range ev {
		out[k] = v
	}
	return out
}

// #endregion helpers
