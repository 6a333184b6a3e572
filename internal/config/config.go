package config

// #region imports
import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// #endregion

// #region errors

// ErrConfig indicates an invalid configuration value at construction time.
var ErrConfig = errors.New("invalid config")

// #endregion

// #region tolerance-config

// ToleranceConfig controls the statistical anomaly classification.
type ToleranceConfig struct {
	// ProductionToleranceFactor is the z-score threshold k. Clamped to [0.5, 5.0].
	ProductionToleranceFactor float64 `json:"production_tolerance_factor" validate:"gt=0"`

	// StdFloor guards division when a golden std collapses to zero (constant curves).
	StdFloor float64 `json:"std_floor" validate:"gt=0"`
}

// #endregion

// #region codes-config

// CodesConfig lists E/R codes that are omitted from output and never cause NG.
type CodesConfig struct {
	DisabledECodes []string `json:"disabled_e_codes"`
	DisabledRCodes []string `json:"disabled_r_codes"`
}

// #endregion

// #region physics-config

// PhysicsConfig holds the absolute bounds for the hard deterministic rules.
type PhysicsConfig struct {
	// NegSlopeThreshold is the fatal minimum slope; slope_min below it is a physics violation.
	NegSlopeThreshold float64 `json:"neg_slope_threshold" validate:"lte=0"`

	// SlopeMinAbs / SlopeMaxAbs bound the acceptable rigidity slope (Nm/deg).
	SlopeMinAbs float64 `json:"slope_min_abs" validate:"gte=0"`
	SlopeMaxAbs float64 `json:"slope_max_abs" validate:"gtfield=SlopeMinAbs"`

	// TorqueAbsMin / TorqueAbsMax bound the acceptable peak torque (Nm).
	TorqueAbsMin float64 `json:"torque_abs_min" validate:"gte=0"`
	TorqueAbsMax float64 `json:"torque_abs_max" validate:"gtfield=TorqueAbsMin"`

	// OverflowThreshold marks torque samples above it as sensor overflow to be repaired.
	OverflowThreshold float64 `json:"overflow_threshold" validate:"gt=0"`
}

// #endregion

// #region learning-config

// LearningConfig holds the lifecycle thresholds and drift test factors.
type LearningConfig struct {
	// ShadowThreshold S: observations before cold_start becomes shadow.
	ShadowThreshold int `json:"shadow_threshold" validate:"gt=0"`

	// GoldenThreshold G: observations before the golden base is locked.
	GoldenThreshold int `json:"golden_threshold" validate:"gtfield=ShadowThreshold"`

	// WindowSize W: bounded FIFO of recent raw samples used for drift tests.
	WindowSize int `json:"window_size" validate:"gte=10"`

	// DriftMeanFactor: drift when |window_mean - golden.mean| > factor * golden.std.
	DriftMeanFactor float64 `json:"drift_mean_factor" validate:"gt=0"`

	// DriftStdFactor: drift when window_std > factor * golden.std.
	DriftStdFactor float64 `json:"drift_std_factor" validate:"gt=0"`
}

// #endregion

// #region system-config

// SystemConfig is the already-parsed configuration record the engine consumes.
// Loading from YAML or elsewhere is the caller's concern.
type SystemConfig struct {
	Tolerance ToleranceConfig `json:"tolerance" validate:"required"`
	Codes     CodesConfig     `json:"codes"`
	Physics   PhysicsConfig   `json:"physics" validate:"required"`
	Learning  LearningConfig  `json:"learning" validate:"required"`
}

// DefaultSystemConfig returns production defaults.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Tolerance: ToleranceConfig{
			ProductionToleranceFactor: 3.0,
			StdFloor:                  1e-9,
		},
		Codes: CodesConfig{},
		Physics: PhysicsConfig{
			NegSlopeThreshold: -0.001,
			SlopeMinAbs:       0.005,
			SlopeMaxAbs:       10.0,
			TorqueAbsMin:      0.5,
			TorqueAbsMax:      50.0,
			OverflowThreshold: 32000,
		},
		Learning: LearningConfig{
			ShadowThreshold: 50,
			GoldenThreshold: 100,
			WindowSize:      200,
			DriftMeanFactor: 1.0,
			DriftStdFactor:  1.5,
		},
	}
}

// #endregion

// #region validate

// Validate checks structural constraints. Construction must abort on error.
func (c *SystemConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// Normalized returns a copy with the tolerance factor clamped to [0.5, 5.0].
func (c SystemConfig) Normalized() SystemConfig {
	if c.Tolerance.ProductionToleranceFactor < 0.5 {
		c.Tolerance.ProductionToleranceFactor = 0.5
	}
	if c.Tolerance.ProductionToleranceFactor > 5.0 {
		c.Tolerance.ProductionToleranceFactor = 5.0
	}
	return c
}

// #endregion
