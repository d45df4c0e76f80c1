package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/eval"
	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase mirrors Case with JSON tags.
type FixtureCase struct {
	ID            string             `json:"id"`
	Query         string             `json:"query"`
	Evidence      map[string]string  `json:"evidence,omitempty"`
	Order         []string           `json:"order,omitempty"`
	Expected      map[string]float64 `json:"expected,omitempty"`
	ExpectedError string             `json:"expected_error,omitempty"`
}

// FixtureConfig bundles the replay settings.
type FixtureConfig struct {
	Ordering   string            `json:"ordering,omitempty"`
	Precision  int               `json:"precision"`
	EvalConfig FixtureEvalConfig `json:"eval_config"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags.
type FixtureEvalConfig struct {
	SumTolerance    float64 `json:"sum_tolerance"`
	MinStates       int     `json:"min_states"`
	ConfidenceFloor float64 `json:"confidence_floor"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	c := Case{
		ID:            fc.ID,
		Query:         fc.Query,
		Evidence:      inference.Evidence{},
		Order:         fc.Order,
		ExpectedError: fc.ExpectedError,
	}
	for k, v := range fc.Evidence {
		c.Evidence[k] = v
	}
	if fc.Expected != nil {
		c.Expected = inference.Distribution{}
		for k, v := range fc.Expected {
			c.Expected[k] = v
		}
	}
	return c
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase()
	}
	return out
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig. Zero
// values fall back to DefaultReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.Precision > 0 {
		cfg.Precision = fc.Precision
	}
	if fc.EvalConfig != (FixtureEvalConfig{}) {
		cfg.EvalConfig = eval.EvalConfig{
			SumTolerance:    fc.EvalConfig.SumTolerance,
			MinStates:       fc.EvalConfig.MinStates,
			ConfidenceFloor: fc.EvalConfig.ConfidenceFloor,
		}
	}
	return cfg
}

// #endregion fixture-loader
