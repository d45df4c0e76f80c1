package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/history"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/logging"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
)

func newSeededStore(t *testing.T) (*history.Store, string) {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "alarmnet.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := inference.NewEngine(network.Alarm())
	ev := inference.Evidence{"J": "+j", "M": "+m"}
	res, err := engine.Run("B", ev)
	run, err := store.RecordRun(history.FromResult("B", ev, "declaration", res, err))
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := logging.LogQuery(store.DB(), logging.QueryEntry{RunID: run.RunID, TriggerType: logging.TriggerCLI}); err != nil {
		t.Fatalf("LogQuery: %v", err)
	}

	res, err = engine.Run("Z", nil)
	if _, err := store.RecordRun(history.FromResult("Z", nil, "declaration", res, err)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	return store, run.RunID
}

func TestListModeTable(t *testing.T) {
	store, _ := newSeededStore(t)
	var out bytes.Buffer
	if err := runListMode(&out, store, 10, "", false); err != nil {
		t.Fatalf("runListMode: %v", err)
	}
	text := out.String()
	for _, want := range []string{"J=+j,M=+m", "-b 0.716", "unknown_variable", "cli"} {
		if !strings.Contains(text, want) {
			t.Errorf("list output missing %q:\n%s", want, text)
		}
	}
}

func TestListModeQueryFilterJSON(t *testing.T) {
	store, _ := newSeededStore(t)
	var out bytes.Buffer
	if err := runListMode(&out, store, 10, "B", true); err != nil {
		t.Fatalf("runListMode: %v", err)
	}
	var rows []listRow
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out.String())
	}
	if len(rows) != 1 || rows[0].Query != "B" {
		t.Fatalf("rows = %+v, want one B row", rows)
	}
	if rows[0].Outcome != "ok" {
		t.Errorf("outcome = %q, want ok", rows[0].Outcome)
	}
}

func TestDetailMode(t *testing.T) {
	store, id := newSeededStore(t)
	var out bytes.Buffer
	if err := runDetailMode(&out, store, id, false); err != nil {
		t.Fatalf("runDetailMode: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Order:    E A", "+b     0.284172", "Trigger:  cli"} {
		if !strings.Contains(text, want) {
			t.Errorf("detail output missing %q:\n%s", want, text)
		}
	}
}

func TestDetailModeUnknownRun(t *testing.T) {
	store, _ := newSeededStore(t)
	var out bytes.Buffer
	if err := runDetailMode(&out, store, "missing", true); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestMostLikelyTieBreaksByState(t *testing.T) {
	s, p := mostLikely(map[string]float64{"-a": 0.5, "+a": 0.5})
	if s != "+a" || p != 0.5 {
		t.Errorf("mostLikely = %s %v, want +a 0.5", s, p)
	}
	if s, _ := mostLikely(nil); s != "" {
		t.Errorf("mostLikely(nil) = %q, want empty", s)
	}
}
