package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/curve"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded diagnosis sequence,
// used to reproduce field incidents locally and to pin down determinism.
type Fixture struct {
	Description string              `json:"description"`
	CarrierID   string              `json:"carrier_id"`
	Config      config.SystemConfig `json:"config"`
	Steps       []Step              `json:"steps"`
	Expected    []Expectation       `json:"expected,omitempty"`
}

// Step is one diagnosis batch: every hole's curve for one fastening cycle.
type Step struct {
	Holes map[string]curve.Curve `json:"holes"`
}

// Expectation pins the outcome of one hole at one step (0-based).
type Expectation struct {
	Step   int    `json:"step"`
	HoleID string `json:"hole_id"`
	Status string `json:"status"`
	Phase  string `json:"phase,omitempty"`
}

// #endregion

// #region fixture-io

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

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion
