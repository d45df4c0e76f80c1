package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSpace map[string][]string

func (m mapSpace) States(v string) []string { return m[v] }

var space = mapSpace{
	"A": {"+a", "-a"},
	"B": {"+b", "-b"},
	"C": {"+c", "-c"},
}

func TestEnumerateOrder(t *testing.T) {
	var keys []string
	err := Enumerate(space, []string{"A", "B"}, func(_ Assignment, key string) {
		keys = append(keys, key)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"+a+b", "+a-b", "-a+b", "-a-b"}, keys)
}

func TestEnumerateEmptyDomain(t *testing.T) {
	calls := 0
	err := Enumerate(space, nil, func(_ Assignment, key string) {
		calls++
		assert.Equal(t, "", key)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEnumerateUnknownVariable(t *testing.T) {
	err := Enumerate(space, []string{"Z"}, func(Assignment, string) {})
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestLookupRestrictsWiderAssignment(t *testing.T) {
	f := New([]string{"B"}, map[string]float64{"+b": 0.3, "-b": 0.7})
	v, ok := f.Lookup(Assignment{"A": "+a", "B": "-b", "C": "+c"})
	require.True(t, ok)
	assert.Equal(t, 0.7, v)

	_, ok = f.Lookup(Assignment{"A": "+a"})
	assert.False(t, ok)
}

func TestNewCopiesInputs(t *testing.T) {
	vars := []string{"A"}
	values := map[string]float64{"+a": 1}
	f := New(vars, values)
	vars[0] = "B"
	values["+a"] = 2
	assert.Equal(t, []string{"A"}, f.Vars)
	assert.Equal(t, 1.0, f.Values["+a"])
}

func TestProductJoinsOnSharedVariable(t *testing.T) {
	fa := New([]string{"A"}, map[string]float64{"+a": 0.2, "-a": 0.8})
	fba := New([]string{"B", "A"}, map[string]float64{
		"+b+a": 0.9, "+b-a": 0.1,
		"-b+a": 0.1, "-b-a": 0.9,
	})

	p, err := Product(space, fa, fba)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, p.Vars)
	assert.InDelta(t, 0.18, p.Values["+a+b"], 1e-12)
	assert.InDelta(t, 0.02, p.Values["+a-b"], 1e-12)
	assert.InDelta(t, 0.08, p.Values["-a+b"], 1e-12)
	assert.InDelta(t, 0.72, p.Values["-a-b"], 1e-12)
	assert.InDelta(t, 1.0, p.Total(), 1e-12)
}

func TestProductSkipsMissingCombinations(t *testing.T) {
	fa := New([]string{"A"}, map[string]float64{"+a": 0.5})
	fb := New([]string{"B"}, map[string]float64{"+b": 0.4, "-b": 0.6})

	p, err := Product(space, fa, fb)
	require.NoError(t, err)
	assert.Len(t, p.Values, 2)
	_, ok := p.Values["-a+b"]
	assert.False(t, ok, "missing entries must not become zero")
}

func TestProductKeepsZeroEntries(t *testing.T) {
	fa := New([]string{"A"}, map[string]float64{"+a": 0, "-a": 1})
	p, err := Product(space, fa)
	require.NoError(t, err)
	v, ok := p.Values["+a"]
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestSumOut(t *testing.T) {
	f := New([]string{"A", "B"}, map[string]float64{
		"+a+b": 0.1, "+a-b": 0.2,
		"-a+b": 0.3, "-a-b": 0.4,
	})

	g, err := SumOut(space, f, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, g.Vars)
	assert.InDelta(t, 0.4, g.Values["+b"], 1e-12)
	assert.InDelta(t, 0.6, g.Values["-b"], 1e-12)

	// input untouched
	assert.Len(t, f.Values, 4)
	assert.Equal(t, []string{"A", "B"}, f.Vars)
}

func TestSumOutLastVariableGivesScalar(t *testing.T) {
	f := New([]string{"A"}, map[string]float64{"+a": 0.25, "-a": 0.5})
	g, err := SumOut(space, f, "A")
	require.NoError(t, err)
	assert.Empty(t, g.Vars)
	assert.InDelta(t, 0.75, g.Values[""], 1e-12)
}

func TestSumOutNotInDomain(t *testing.T) {
	f := New([]string{"A"}, map[string]float64{"+a": 1, "-a": 0})
	_, err := SumOut(space, f, "B")
	assert.ErrorIs(t, err, ErrNotInDomain)
}

// Domain membership comes from Vars, never from the text of the keys.
func TestHasUsesExplicitDomain(t *testing.T) {
	f := New([]string{"B"}, map[string]float64{"+b": 1})
	assert.False(t, f.Has("A"))
	assert.False(t, f.Has("b"))
	assert.True(t, f.Has("B"))
}
