package physics

// #region imports
import (
	"github.com/Ray9453/apsd-engine/internal/config"
	"github.com/Ray9453/apsd-engine/internal/features"
)

// #endregion

// #region codes

// Standardized E-codes (errors) and R-codes (recommended actions).
const (
	ECodeNegSlope     = "E_NEG_SLOPE"      // negative slope region: fatal physics violation
	ECodeNoTorqueRise = "E_NO_TORQUE_RISE" // peak torque never rose above snug torque
	ECodeZeroWork     = "E_ZERO_WORK"      // no mechanical work done
	ECodeBadInput     = "E_BAD_INPUT"      // malformed curve at ingress
	ECodeTorque       = "E02"              // peak torque anomaly
	ECodeSlope        = "E04"              // rigidity slope anomaly
	ECodeWork         = "E08"              // total work anomaly

	RCodeCheckFixture = "R_CHECK_FIXTURE"
	RCodeCheckScrew   = "R_CHECK_SCREW"
	RCodeCheckSensor  = "R_CHECK_SENSOR"
	RCodeCheckData    = "R_CHECK_DATA"
	RCodeTorque       = "R02"
	RCodeSlope        = "R04"
	RCodeWork         = "R08"
)

// #endregion

// #region violation

// Violation pairs an E-code with its recommended action. RCode is empty when
// the action code is disabled by configuration.
type Violation struct {
	ECode string
	RCode string
}

// #endregion

// #region code-filter

// CodeFilter suppresses disabled codes. A disabled E-code is omitted from
// output and does not cause NG; a disabled R-code is omitted only.
type CodeFilter struct {
	e map[string]bool
	r map[string]bool
}

// NewCodeFilter builds a filter from the configured disabled-code lists.
func NewCodeFilter(cfg config.CodesConfig) CodeFilter {
	f := CodeFilter{e: map[string]bool{}, r: map[string]bool{}}
	for _, c := range cfg.DisabledECodes {
		f.e[c] = true
	}
	for _, c := range cfg.DisabledRCodes {
		f.r[c] = true
	}
	return f
}

// Apply converts a rule hit into a Violation, or nil when the E-code is disabled.
func (f CodeFilter) Apply(eCode, rCode string) *Violation {
	if f.e[eCode] {
		return nil
	}
	v := Violation{ECode: eCode}
	if !f.r[rCode] {
		v.RCode = rCode
	}
	return &v
}

// #endregion

// #region report

// Report is the physics layer output. Fatal marks a violation that must keep
// the observation out of the statistical accumulators.
type Report struct {
	Pass       bool
	Fatal      bool
	Violations []Violation
}

// ECodes returns the ordered E-codes of all violations.
func (r Report) ECodes() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.ECode)
	}
	return out
}

// RCodes returns the ordered R-codes of all violations, skipping suppressed ones.
func (r Report) RCodes() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		if v.RCode != "" {
			out = append(out, v.RCode)
		}
	}
	return out
}

// #endregion

// #region check

// Check applies the hard deterministic rules in fixed order. All violated
// rules are reported; nothing short-circuits. Pure and idempotent.
func Check(v features.Vector, cfg config.PhysicsConfig, filter CodeFilter) Report {
	rep := Report{Pass: true}

	record := func(eCode, rCode string, fatal bool) {
		viol := filter.Apply(eCode, rCode)
		if viol == nil {
			return
		}
		rep.Pass = false
		if fatal {
			rep.Fatal = true
		}
		rep.Violations = append(rep.Violations, *viol)
	}

	// Rule 1: negative slope region (cam-out, cross-thread, fixture slip).
	if v.SlopeMin < cfg.NegSlopeThreshold {
		record(ECodeNegSlope, RCodeCheckFixture, true)
	}

	// Rule 2: torque never rose past the snug point.
	if v.PeakTorque <= v.SnugTorque {
		record(ECodeNoTorqueRise, RCodeCheckScrew, true)
	}

	// Rule 3: no mechanical work done.
	if v.TotalWork <= 0 {
		record(ECodeZeroWork, RCodeCheckSensor, true)
	}

	// Rule 4: rigidity slope outside absolute bounds.
	if v.RigiditySlope < cfg.SlopeMinAbs || v.RigiditySlope > cfg.SlopeMaxAbs {
		record(ECodeSlope, RCodeSlope, false)
	}

	// Rule 5: peak torque outside absolute bounds.
	if v.PeakTorque < cfg.TorqueAbsMin || v.PeakTorque > cfg.TorqueAbsMax {
		record(ECodeTorque, RCodeTorque, false)
	}

	return rep
}

// #endregion
