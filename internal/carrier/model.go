package carrier

// #region imports
import (
	"math"
	"time"

	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/features"
	"github.com/Ray9453/apsd-engine/internal/physics"
)

// #endregion

// #region metric-lookup

// metricValue maps a tracked metric name to its value in the feature vector.
func metricValue(v features.Vector, metric string) float64 {
	switch metric {
	case MetricPeakTorque:
		return v.PeakTorque
	case MetricRigiditySlope:
		return v.RigiditySlope
	case MetricTotalWork:
		return v.TotalWork
	}
	return 0
}

// #endregion

// #region observe

// Observe folds the feature vector into the accumulators and steps the
// lifecycle. Must run before Classify so the count reflects the current
// observation. The drift test runs on every observation once the golden base
// is locked and the window is at least two thirds full.
func (h *HoleState) Observe(v features.Vector, cfg config.LearningConfig, now time.Time) ObserveOutcome {
	out := ObserveOutcome{PhaseBefore: h.Phase}

	for _, m := range TrackedMetrics {
		h.Accs[m].Observe(metricValue(v, m))
	}
	h.LastUpdate = now

	count := h.Count()
	switch h.Phase {
	case PhaseColdStart:
		if count >= cfg.GoldenThreshold {
			h.lockGolden()
			out.GoldenLocked = true
		} else if count >= cfg.ShadowThreshold {
			h.Phase = PhaseShadow
		}
	case PhaseShadow:
		if count >= cfg.GoldenThreshold {
			h.lockGolden()
			out.GoldenLocked = true
		}
	}

	if h.Golden != nil && (h.Phase == PhaseGoldenLocked || h.Phase == PhaseDriftDetected) {
		h.stepDrift(cfg, &out)
	}

	out.PhaseAfter = h.Phase
	return out
}

// lockGolden snapshots the current accumulator statistics as the golden base.
func (h *HoleState) lockGolden() {
	gb := make(GoldenBase, len(TrackedMetrics))
	for _, m := range TrackedMetrics {
		acc := h.Accs[m]
		gb[m] = GoldenStat{Mean: acc.Mean, Std: acc.Std()}
	}
	h.Golden = gb
	h.Phase = PhaseGoldenLocked
}

// #endregion

// #region drift

// stepDrift runs the window-vs-golden drift test and applies the phase
// transitions: golden_locked -> drift_detected on a trigger, and
// drift_detected -> golden_locked after two consecutive passing tests.
func (h *HoleState) stepDrift(cfg config.LearningConfig, out *ObserveOutcome) {
	if h.Accs[MetricPeakTorque].WindowFill() < 2.0/3.0 {
		return
	}

	drifted := false
	for _, m := range TrackedMetrics {
		wMean, wStd, _ := h.Accs[m].WindowStats()
		g := h.Golden[m]
		if math.Abs(wMean-g.Mean) > cfg.DriftMeanFactor*g.Std || wStd > cfg.DriftStdFactor*g.Std {
			drifted = true
			break
		}
	}

	switch h.Phase {
	case PhaseGoldenLocked:
		if drifted {
			h.Phase = PhaseDriftDetected
			h.DriftEventCount++
			h.RecoveryStreak = 0
			out.DriftTriggered = true
		}
	case PhaseDriftDetected:
		if drifted {
			h.RecoveryStreak = 0
			return
		}
		h.RecoveryStreak++
		if h.RecoveryStreak >= 2 {
			h.Phase = PhaseGoldenLocked
			h.RecoveryStreak = 0
			out.Recovered = true
		}
	}
}

// #endregion

// #region classify

// Classify evaluates the observation against the golden base. In cold_start
// and shadow the statistical layer always passes; otherwise each metric's
// z-score is compared against the tolerance factor k.
func (h *HoleState) Classify(v features.Vector, tol config.ToleranceConfig, filter physics.CodeFilter) AdaptiveReport {
	if h.Phase == PhaseColdStart || h.Phase == PhaseShadow || h.Golden == nil {
		return AdaptiveReport{OK: true, HealthScore: 100}
	}

	k := tol.ProductionToleranceFactor
	var maxZ float64
	var violations []physics.Violation

	for _, m := range TrackedMetrics {
		g := h.Golden[m]
		z := math.Abs(metricValue(v, m)-g.Mean) / math.Max(g.Std, tol.StdFloor)
		if z > maxZ {
			maxZ = z
		}
		if z <= k {
			continue
		}
		var viol *physics.Violation
		switch m {
		case MetricPeakTorque:
			viol = filter.Apply(physics.ECodeTorque, physics.RCodeTorque)
		case MetricRigiditySlope:
			viol = filter.Apply(physics.ECodeSlope, physics.RCodeSlope)
		case MetricTotalWork:
			viol = filter.Apply(physics.ECodeWork, physics.RCodeWork)
		}
		if viol != nil {
			violations = append(violations, *viol)
		}
	}

	if len(violations) > 0 {
		return AdaptiveReport{OK: false, Violations: violations, HealthScore: 0}
	}
	health := 100 - maxZ/k*100
	if health < 0 {
		health = 0
	}
	return AdaptiveReport{OK: true, HealthScore: health}
}

// #endregion

// #region suggest

// Suggest produces the closed-loop optimization record. Non-nil only while
// the hole is in drift_detected: the torque adjustment recenters the drifted
// window mean onto the golden mean, and a speed reduction is advised when the
// window std exceeds DriftStdFactor times the golden std.
func (h *HoleState) Suggest(tol config.ToleranceConfig, cfg config.LearningConfig) *Suggestion {
	if h.Phase != PhaseDriftDetected || h.Golden == nil {
		return nil
	}

	g := h.Golden[MetricPeakTorque]
	wMean, wStd, _ := h.Accs[MetricPeakTorque].WindowStats()

	var torqueAdj float64
	if math.Abs(g.Mean) > tol.StdFloor {
		torqueAdj = -100 * (wMean - g.Mean) / g.Mean
	}
	torqueAdj = math.Round(torqueAdj*10) / 10
	if torqueAdj > 15.0 {
		torqueAdj = 15.0
	}
	if torqueAdj < -15.0 {
		torqueAdj = -15.0
	}

	speedAdj := 0
	if wStd/math.Max(g.Std, tol.StdFloor) > cfg.DriftStdFactor {
		speedAdj = -10
	}

	return &Suggestion{
		Status: "OPTIMIZE",
		ECode:  "DRIFT_DETECTED",
		Params: SuggestionParams{
			SuggestedTorqueAdjustmentPercent: torqueAdj,
			SuggestedSpeedAdjustmentPercent:  speedAdj,
		},
	}
}

// #endregion

// #region reset

// Reset returns the hole to cold start: zeroed accumulators, cleared golden
// base and drift bookkeeping. Administrative operation only.
func (h *HoleState) Reset() {
	for _, m := range TrackedMetrics {
		h.Accs[m].Reset()
	}
	h.Phase = PhaseColdStart
	h.Golden = nil
	h.DriftEventCount = 0
	h.RecoveryStreak = 0
	h.LastUpdate = time.Time{}
}

// #endregion
