package carrier

// #region imports
import (
	"time"

	"github.com/Ray9453/apsd-engine/internal/physics"
	"github.com/Ray9453/apsd-engine/internal/stats"
)

// #endregion

// #region phase

// Phase is the lifecycle phase of a hole's statistical model.
type Phase string

const (
	PhaseColdStart     Phase = "cold_start"     // count < S: too little history
	PhaseShadow        Phase = "shadow"         // S <= count < G: observing, never NG statistically
	PhaseGoldenLocked  Phase = "golden_locked"  // count >= G, within drift tolerance
	PhaseDriftDetected Phase = "drift_detected" // count >= G, drift tolerances exceeded
)

// #endregion

// #region metrics

// Tracked metric names, in the fixed order they are evaluated and reported.
const (
	MetricPeakTorque    = "peak_torque"
	MetricRigiditySlope = "rigidity_slope"
	MetricTotalWork     = "total_work"
)

// TrackedMetrics lists the metrics kept per hole, in evaluation order.
var TrackedMetrics = []string{MetricPeakTorque, MetricRigiditySlope, MetricTotalWork}

// #endregion

// #region golden-base

// GoldenStat is the frozen mean/std snapshot of one metric.
type GoldenStat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// GoldenBase is the per-metric reference distribution locked when the golden
// threshold is reached. Immutable once set, unless explicitly reset.
type GoldenBase map[string]GoldenStat

// #endregion

// #region hole-state

// HoleState aggregates the lifecycle phase, per-metric accumulators, and the
// golden base for a single hole.
type HoleState struct {
	Phase           Phase
	Accs            map[string]*stats.Accumulator
	Golden          GoldenBase // nil until golden_locked
	LastUpdate      time.Time
	DriftEventCount int

	// RecoveryStreak counts consecutive passing drift tests while in
	// drift_detected; two in a row return the phase to golden_locked.
	RecoveryStreak int
}

// NewHoleState creates a cold-start hole with empty accumulators.
func NewHoleState(windowSize int) *HoleState {
	accs := make(map[string]*stats.Accumulator, len(TrackedMetrics))
	for _, m := range TrackedMetrics {
		accs[m] = stats.NewAccumulator(windowSize)
	}
	return &HoleState{Phase: PhaseColdStart, Accs: accs}
}

// Count returns the number of observations folded into this hole.
func (h *HoleState) Count() int {
	return h.Accs[MetricPeakTorque].Count
}

// #endregion

// #region model

// Model aggregates all hole states of one carrier. Mutated only by the
// orchestrator during diagnosis; persists across restarts via the model store.
type Model struct {
	CarrierID string
	Holes     map[string]*HoleState
}

// NewModel creates an empty carrier model.
func NewModel(carrierID string) *Model {
	return &Model{CarrierID: carrierID, Holes: map[string]*HoleState{}}
}

// Hole returns the state for holeID, creating a cold-start entry on first use.
func (m *Model) Hole(holeID string, windowSize int) *HoleState {
	h, ok := m.Holes[holeID]
	if !ok {
		h = NewHoleState(windowSize)
		m.Holes[holeID] = h
	}
	return h
}

// #endregion

// #region reports

// ObserveOutcome summarizes what one observation did to the hole state.
type ObserveOutcome struct {
	PhaseBefore    Phase
	PhaseAfter     Phase
	GoldenLocked   bool // golden base snapshot taken this observation
	DriftTriggered bool // transitioned into drift_detected this observation
	Recovered      bool // returned to golden_locked this observation
}

// AdaptiveReport is the statistical classification result for one observation.
type AdaptiveReport struct {
	OK          bool
	Violations  []physics.Violation
	HealthScore float64 // 100 at perfect center, 0 on NG
}

// #endregion

// #region suggestion

// SuggestionParams carries the closed-loop parameter adjustments.
type SuggestionParams struct {
	SuggestedTorqueAdjustmentPercent float64 `json:"suggested_torque_adjustment_percent"`
	SuggestedSpeedAdjustmentPercent  int     `json:"suggested_speed_adjustment_percent"`
}

// Suggestion is the optimization record emitted while drift is detected.
type Suggestion struct {
	Status string           `json:"status"` // "OPTIMIZE"
	ECode  string           `json:"e_code"` // "DRIFT_DETECTED"
	Params SuggestionParams `json:"params"`
}

// #endregion
