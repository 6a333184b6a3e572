package features

// #region vector

// Vector is the physical fingerprint derived from one fastening curve.
type Vector struct {
	PeakTorque    float64 `json:"peak_torque"`    // max torque (Nm)
	FinalAngle    float64 `json:"final_angle"`    // last angle sample (deg)
	RigiditySlope float64 `json:"rigidity_slope"` // dT/dtheta over the linear climb (Nm/deg)
	TotalWork     float64 `json:"total_work"`     // trapezoidal integral of T over theta (J)
	SlopeMin      float64 `json:"slope_min"`      // minimum smoothed dT/dtheta (Nm/deg)
	Duration      float64 `json:"duration"`       // last time - first time (s)
	SnugTorque    float64 `json:"snug_torque"`    // torque at the snug point (Nm)
	SeatingAngle  float64 `json:"seating_angle"`  // angle travelled past the snug point (deg)
}

// #endregion
