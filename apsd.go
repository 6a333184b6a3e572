// Package apsd is an edge-deployable diagnostic SDK for industrial
// screw-fastening operations. For each fastening event it ingests
// synchronized torque/angle/time curves and emits a structured diagnosis
// with standardized E-codes, recommended R-codes, and closed-loop
// optimization suggestions.
//
// The SDK is a two-layer pipeline: a deterministic physics constraint layer
// backed by absolute bounds, and an adaptive statistical layer that learns a
// per-carrier golden base, watches for concept drift, and recommends
// parameter adjustments. Carrier models persist atomically across restarts.
package apsd

// #region imports
import (
	"github.com/Ray9453/apsd-engine/internal/carrier"
	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/curve"
	"github.com/Ray9453/apsd-engine/internal/engine"
	"github.com/Ray9453/apsd-engine/internal/features"
	"github.com/Ray9453/apsd-engine/internal/journal"
)

// #endregion

// #region aliases

// Engine is the diagnostic orchestrator; see New.
type Engine = engine.Engine

// Curve is the raw input record for one fastening attempt at one hole.
type Curve = curve.Curve

// Result is the structured per-hole diagnosis.
type Result = engine.Result

// FeatureVector is the physical fingerprint derived from one curve.
type FeatureVector = features.Vector

// Suggestion is the closed-loop optimization record emitted under drift.
type Suggestion = carrier.Suggestion

// SystemConfig is the already-parsed configuration record the engine consumes.
type SystemConfig = config.SystemConfig

// Journal records per-diagnosis provenance rows locally in SQLite.
type Journal = journal.Journal

// Option customizes engine construction.
type Option = engine.Option

// #endregion

// #region constructors

// New builds an engine from the given configuration.
func New(cfg SystemConfig, opts ...Option) (*Engine, error) {
	return engine.New(cfg, opts...)
}

// DefaultConfig returns production defaults.
func DefaultConfig() SystemConfig {
	return config.DefaultSystemConfig()
}

// OpenJournal opens (or creates) a diagnosis journal database.
func OpenJournal(dbPath string) (*Journal, error) {
	return journal.Open(dbPath)
}

// Functional options re-exported for SDK consumers.
var (
	WithModelDir = engine.WithModelDir
	WithAutoSave = engine.WithAutoSave
	WithJournal  = engine.WithJournal
	WithLogger   = engine.WithLogger
)

// #endregion
