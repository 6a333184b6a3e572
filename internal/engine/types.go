package engine

// #region imports
import (
	"github.com/Ray9453/apsd-engine/internal/carrier"
	"github.com/Ray9453/apsd-engine/internal/features"
	"github.com/Ray9453/apsd-engine/internal/physics"
)

// #endregion

// #region statuses

const (
	StatusOK = "OK"
	StatusNG = "NG"
)

// #endregion

// #region issue-report

// IssueReport groups the codes attributed to one root-cause category.
type IssueReport struct {
	Status string   `json:"status"`
	ECodes []string `json:"e_codes"`
	RCodes []string `json:"r_codes"`
}

func okIssue() IssueReport {
	return IssueReport{Status: StatusOK, ECodes: []string{}, RCodes: []string{}}
}

// #endregion

// #region result

// Result is the structured diagnosis for one hole.
type Result struct {
	Status   string          `json:"status"`
	Features features.Vector `json:"features"`

	// Root-cause categorization: each violated rule is attributed to the
	// component most likely at fault. MachineIssue is reserved.
	ScrewIssue   IssueReport `json:"screw_issue"`
	CarrierIssue IssueReport `json:"carrier_issue"`
	ToolIssue    IssueReport `json:"tool_issue"`
	MachineIssue IssueReport `json:"machine_issue"`
	DataIssue    IssueReport `json:"data_issue"`

	// Ordered union of all codes across categories.
	ECodes []string `json:"e_codes"`
	RCodes []string `json:"r_codes"`

	// HealthScore is 100 at the golden center, degrading toward 0 as the
	// worst z-score approaches the tolerance bound; 0 on NG.
	HealthScore float64 `json:"health_score"`

	Optimization *carrier.Suggestion `json:"optimization_suggestion"`
}

// newResult returns an all-OK result skeleton.
func newResult(v features.Vector) Result {
	return Result{
		Status:       StatusOK,
		Features:     v,
		ScrewIssue:   okIssue(),
		CarrierIssue: okIssue(),
		ToolIssue:    okIssue(),
		MachineIssue: okIssue(),
		DataIssue:    okIssue(),
		ECodes:       []string{},
		RCodes:       []string{},
		HealthScore:  100,
	}
}

// #endregion

// #region dispatch

// addViolation records a violation in the flat code lists and attributes it
// to a root-cause category: slope-family codes point at the carrier fixture,
// torque-family codes at the tool, bad input at the data path, and the rest
// (work anomalies) at the screw itself.
func (r *Result) addViolation(v physics.Violation) {
	r.Status = StatusNG
	r.ECodes = append(r.ECodes, v.ECode)
	if v.RCode != "" {
		r.RCodes = append(r.RCodes, v.RCode)
	}

	var issue *IssueReport
	switch v.ECode {
	case physics.ECodeSlope, physics.ECodeNegSlope:
		issue = &r.CarrierIssue
	case physics.ECodeTorque, physics.ECodeNoTorqueRise:
		issue = &r.ToolIssue
	case physics.ECodeBadInput:
		issue = &r.DataIssue
	default:
		issue = &r.ScrewIssue
	}
	issue.Status = StatusNG
	issue.ECodes = append(issue.ECodes, v.ECode)
	if v.RCode != "" {
		issue.RCodes = append(issue.RCodes, v.RCode)
	}
}

// #endregion

// #region snapshot

// HoleSnapshot is a read-only view of a hole's learning state for
// introspection and tests.
type HoleSnapshot struct {
	Phase           carrier.Phase
	Count           int
	DriftEventCount int
	GoldenBase      carrier.GoldenBase
}

// #endregion
