package network

import (
	"errors"
	"testing"
)

func rootVar(id string, pos float64) Variable {
	states := BinaryStates(id)
	return Variable{
		ID:     id,
		States: states,
		Prior:  map[string]float64{states[0]: pos, states[1]: 1 - pos},
	}
}

func TestAlarmDeclarationOrder(t *testing.T) {
	got := Alarm().Variables()
	want := []string{"B", "E", "A", "J", "M"}
	if len(got) != len(want) {
		t.Fatalf("expected %d variables, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestAlarmLookups(t *testing.T) {
	n := Alarm()

	a, ok := n.Variable("A")
	if !ok {
		t.Fatal("expected A to exist")
	}
	if a.IsRoot() {
		t.Error("A should not be a root")
	}
	p, ok := a.Probability("+a", ParentKey("+b", "-e"))
	if !ok || p != 0.94 {
		t.Errorf("expected P(+a|+b,-e)=0.94, got %v (ok=%v)", p, ok)
	}

	b, _ := n.Variable("B")
	p, ok = b.Probability("+b", "ignored")
	if !ok || p != 0.001 {
		t.Errorf("expected P(+b)=0.001, got %v", p)
	}

	if states := n.States("J"); len(states) != 2 || states[0] != "+j" || states[1] != "-j" {
		t.Errorf("unexpected J states %v", states)
	}
	if n.States("Z") != nil {
		t.Error("expected nil states for unknown variable")
	}
	if n.Has("Z") {
		t.Error("Z should not exist")
	}
}

func TestVariablesReturnsCopy(t *testing.T) {
	n := Alarm()
	vars := n.Variables()
	vars[0] = "X"
	if n.Variables()[0] != "B" {
		t.Fatal("mutating Variables() result leaked into network")
	}
}

func TestNewRejectsUndeclaredParent(t *testing.T) {
	child := Variable{
		ID:      "C",
		Parents: []string{"P"},
		States:  BinaryStates("C"),
		Conditional: map[string]map[string]float64{
			"+c": {"+p": 0.5, "-p": 0.5},
			"-c": {"+p": 0.5, "-p": 0.5},
		},
	}
	_, err := New(child, rootVar("P", 0.3))
	if !errors.Is(err, ErrInvalidNetwork) {
		t.Fatalf("expected ErrInvalidNetwork, got %v", err)
	}
}

func TestNewRejectsBadRowSum(t *testing.T) {
	bad := rootVar("X", 0.3)
	bad.Prior["-x"] = 0.6
	if _, err := New(bad); !errors.Is(err, ErrInvalidNetwork) {
		t.Fatalf("expected ErrInvalidNetwork, got %v", err)
	}
}

func TestNewRejectsMissingConditionalRow(t *testing.T) {
	child := Variable{
		ID:      "C",
		Parents: []string{"P"},
		States:  BinaryStates("C"),
		Conditional: map[string]map[string]float64{
			"+c": {"+p": 0.5},
			"-c": {"+p": 0.5},
		},
	}
	if _, err := New(rootVar("P", 0.3), child); !errors.Is(err, ErrInvalidNetwork) {
		t.Fatalf("expected ErrInvalidNetwork, got %v", err)
	}
}

func TestNewRejectsDuplicateAndSignedIDs(t *testing.T) {
	if _, err := New(rootVar("X", 0.5), rootVar("X", 0.5)); err == nil {
		t.Error("expected duplicate id error")
	}
	signed := rootVar("X", 0.5)
	signed.ID = "X+"
	if _, err := New(signed); err == nil {
		t.Error("expected error for id containing '+'")
	}
}

func TestNewCopiesTables(t *testing.T) {
	def := rootVar("X", 0.25)
	n, err := New(def)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	def.Prior["+x"] = 0.9

	v, _ := n.Variable("X")
	if v.Prior["+x"] != 0.25 {
		t.Fatalf("expected stored prior 0.25, got %v", v.Prior["+x"])
	}
}

func TestParentKeysEnumeration(t *testing.T) {
	keys := Alarm().parentKeys([]string{"B", "E"})
	want := []string{"+b+e", "+b-e", "-b+e", "-b-e"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
}

func TestNewRejectsAmbiguousStates(t *testing.T) {
	// unsigned literals: (a, bx) and (ab, x) would both key as "abx"
	x := Variable{
		ID:     "X",
		States: [2]string{"a", "ab"},
		Prior:  map[string]float64{"a": 0.5, "ab": 0.5},
	}
	if _, err := New(x); !errors.Is(err, ErrInvalidNetwork) {
		t.Fatalf("expected ErrInvalidNetwork for unsigned states, got %v", err)
	}

	cases := [][2]string{
		{"+x", "+x"},
		{"", "-x"},
		{"+", "-x"},
		{"+x-y", "-x"},
		{"++x", "-x"},
	}
	for _, states := range cases {
		v := Variable{
			ID:     "X",
			States: states,
			Prior:  map[string]float64{states[0]: 0.5, states[1]: 0.5},
		}
		if _, err := New(v); !errors.Is(err, ErrInvalidNetwork) {
			t.Errorf("states %q: expected ErrInvalidNetwork, got %v", states, err)
		}
	}

	ok := Variable{
		ID:     "X",
		States: [2]string{"+on", "-on"},
		Prior:  map[string]float64{"+on": 0.5, "-on": 0.5},
	}
	if _, err := New(ok); err != nil {
		t.Errorf("signed multi-letter states should be accepted: %v", err)
	}
}
