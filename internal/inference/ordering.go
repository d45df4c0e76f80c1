package inference

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
)

// #region planner
// Planner decides the order in which hidden variables are eliminated. Any
// order over the hidden variables gives the same distribution; planners only
// affect intermediate factor sizes.
type Planner interface {
	Name() string
	Order(net *network.Network, query string, evidence Evidence) []string
}

// PlannerByName resolves a configured planner name.
func PlannerByName(name string) (Planner, error) {
	switch name {
	case "", "declaration":
		return DeclarationOrder{}, nil
	case "min_degree":
		return MinDegreeOrder{}, nil
	default:
		return nil, fmt.Errorf("unknown ordering %q", name)
	}
}

// ExplicitOrder labels runs whose elimination order came from the caller.
const ExplicitOrder = "explicit"

// PlannerLabel names what chose the elimination order of a run: p, unless the
// caller supplied order.
func PlannerLabel(p Planner, order []string) string {
	if order != nil {
		return ExplicitOrder
	}
	return p.Name()
}

// hidden returns every variable that is neither the query nor observed, in
// declaration order.
func hidden(net *network.Network, query string, evidence Evidence) []string {
	var out []string
	for _, v := range net.Variables() {
		if v == query {
			continue
		}
		if _, observed := evidence[v]; observed {
			continue
		}
		out = append(out, v)
	}
	return out
}

// #endregion planner

// #region declaration-order
// DeclarationOrder eliminates hidden variables in network declaration order.
type DeclarationOrder struct{}

func (DeclarationOrder) Name() string { return "declaration" }

func (DeclarationOrder) Order(net *network.Network, query string, evidence Evidence) []string {
	return hidden(net, query, evidence)
}

// #endregion declaration-order

// #region min-degree-order
// MinDegreeOrder greedily eliminates the hidden variable with the fewest
// neighbours in the moralized graph, breaking ties by declaration order.
type MinDegreeOrder struct{}

func (MinDegreeOrder) Name() string { return "min_degree" }

func (MinDegreeOrder) Order(net *network.Network, query string, evidence Evidence) []string {
	adj := moralGraph(net)
	position := make(map[string]int)
	for i, v := range net.Variables() {
		position[v] = i
	}

	remaining := hidden(net, query, evidence)
	order := make([]string, 0, len(remaining))
	for len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			di, dj := len(adj[remaining[i]]), len(adj[remaining[j]])
			if di != dj {
				return di < dj
			}
			return position[remaining[i]] < position[remaining[j]]
		})
		next := remaining[0]
		remaining = remaining[1:]
		order = append(order, next)

		// connect the neighbours of the eliminated node, then drop it
		neighbours := adj[next]
		for a := range neighbours {
			for b := range neighbours {
				if a != b {
					adj[a][b] = true
				}
			}
			delete(adj[a], next)
		}
		delete(adj, next)
	}
	return order
}

// moralGraph links each variable to its parents and all co-parents.
func moralGraph(net *network.Network) map[string]map[string]bool {
	adj := make(map[string]map[string]bool)
	link := func(a, b string) {
		if adj[a] == nil {
			adj[a] = make(map[string]bool)
		}
		if adj[b] == nil {
			adj[b] = make(map[string]bool)
		}
		adj[a][b] = true
		adj[b][a] = true
	}
	for _, id := range net.Variables() {
		if adj[id] == nil {
			adj[id] = make(map[string]bool)
		}
		v, _ := net.Variable(id)
		for i, p := range v.Parents {
			link(id, p)
			for _, q := range v.Parents[i+1:] {
				link(p, q)
			}
		}
	}
	return adj
}

// #endregion min-degree-order

// #region validate-order
// ValidateOrder checks that order eliminates every hidden variable exactly once
// and nothing else.
func ValidateOrder(net *network.Network, query string, evidence Evidence, order []string) error {
	want := make(map[string]bool)
	for _, v := range hidden(net, query, evidence) {
		want[v] = true
	}
	seen := make(map[string]bool)
	for _, v := range order {
		if !want[v] {
			return fmt.Errorf("%w: %s is not a hidden variable", ErrInvalidOrder, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: %s appears twice", ErrInvalidOrder, v)
		}
		seen[v] = true
	}
	if len(seen) != len(want) {
		return fmt.Errorf("%w: eliminates %d of %d hidden variables", ErrInvalidOrder, len(seen), len(want))
	}
	return nil
}

// #endregion validate-order
