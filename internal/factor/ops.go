package factor

import "fmt"

// #region product
// Product multiplies factors pointwise over the ordered union of their domains.
// A joint assignment for which any factor has no entry is left out of the
// result rather than counted as zero.
func Product(space StateSpace, factors ...*Factor) (*Factor, error) {
	var vars []string
	seen := make(map[string]bool)
	for _, f := range factors {
		for _, v := range f.Vars {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}

	out := &Factor{Vars: vars, Values: make(map[string]float64)}
	err := Enumerate(space, vars, func(a Assignment, key string) {
		product := 1.0
		for _, f := range factors {
			v, ok := f.Lookup(a)
			if !ok {
				return
			}
			product *= v
		}
		out.Values[key] = product
	})
	if err != nil {
		return nil, fmt.Errorf("product: %w", err)
	}
	return out, nil
}

// #endregion product

// #region sum-out
// SumOut marginalizes variable out of f. Sums accumulate into a fresh map; f is
// not modified.
func SumOut(space StateSpace, f *Factor, variable string) (*Factor, error) {
	if !f.Has(variable) {
		return nil, fmt.Errorf("sum out %s from %s: %w", variable, f, ErrNotInDomain)
	}

	remaining := make([]string, 0, len(f.Vars)-1)
	for _, v := range f.Vars {
		if v != variable {
			remaining = append(remaining, v)
		}
	}

	sums := make(map[string]float64)
	var keyErr error
	err := Enumerate(space, f.Vars, func(a Assignment, key string) {
		w, ok := f.Values[key]
		if !ok {
			return
		}
		rk, err := keyFor(remaining, a)
		if err != nil {
			keyErr = err
			return
		}
		sums[rk] += w
	})
	if err == nil {
		err = keyErr
	}
	if err != nil {
		return nil, fmt.Errorf("sum out %s: %w", variable, err)
	}
	return &Factor{Vars: remaining, Values: sums}, nil
}

// #endregion sum-out
