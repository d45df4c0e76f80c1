package replay

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture_Alarm(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "alarm.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Cases) == 0 {
		t.Fatal("expected cases")
	}

	results := Replay(alarmEngine(), f.ToCases(), f.Config.ToReplayConfig())
	summary := Summarize(results)

	for _, r := range results {
		if r.Action != ActionMatch && r.Action != ActionErrorMatch {
			t.Errorf("case %s: action=%s reason=%s", r.CaseID, r.Action, r.Reason)
		}
	}
	if !summary.Passed() {
		t.Fatalf("fixture replay failed: %+v", summary)
	}
	if summary.ErrorMatches != 2 {
		t.Errorf("expected 2 error cases, got %d", summary.ErrorMatches)
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWriteFixture_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := &Fixture{
		Description: "exported",
		Config:      FixtureConfig{Precision: 3},
		Cases: []FixtureCase{
			{ID: "r1", Query: "B", Evidence: map[string]string{"J": "+j"}, Expected: map[string]float64{"+b": 0.016, "-b": 0.984}},
		},
	}
	if err := WriteFixture(path, in); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}

	out, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	c := out.Cases[0].ToCase()
	if c.Query != "B" || c.Evidence["J"] != "+j" || c.Expected["+b"] != 0.016 {
		t.Fatalf("unexpected case %+v", c)
	}
}

func TestToReplayConfig_Defaults(t *testing.T) {
	var fc FixtureConfig
	cfg := fc.ToReplayConfig()
	def := DefaultReplayConfig()
	if cfg.Precision != def.Precision || cfg.EvalConfig != def.EvalConfig {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestToCase_NilExpected(t *testing.T) {
	fc := FixtureCase{ID: "e", Query: "Z", ExpectedError: "unknown_variable"}
	c := fc.ToCase()
	if c.Expected != nil {
		t.Fatal("expected nil Expected for error case")
	}
	if c.Evidence == nil {
		t.Fatal("expected non-nil evidence map")
	}
}
