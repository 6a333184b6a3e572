package features

// #region imports
import (
	"math"

	"github.com/Ray9453/apsd-engine/internal/curve"
)

// #endregion

// #region constants

const (
	snugFraction  = 0.20 // snug point: torque first exceeds this fraction of peak
	linearTop     = 0.80 // OLS window ends where torque reaches this fraction of peak
	minOLSSamples = 5    // below this the slope falls back to the window endpoints
	smoothHalf    = 3    // half-width k of the smoothed difference for slope_min
	angleEpsilon  = 1e-6 // minimum angle delta (deg) for a valid slope denominator
)

// #endregion

// #region extractor

// Extractor derives a feature Vector from a raw curve. Pure: no state beyond
// the configured overflow threshold.
type Extractor struct {
	overflow float64
}

// NewExtractor creates an extractor. overflowThreshold marks torque samples
// above it as sensor saturation to be repaired before feature computation.
func NewExtractor(overflowThreshold float64) *Extractor {
	return &Extractor{overflow: overflowThreshold}
}

// Extract validates the curve and computes the feature vector.
// Returns curve.ErrInvalidCurve on malformed input.
func (e *Extractor) Extract(c curve.Curve) (Vector, error) {
	if err := c.Validate(); err != nil {
		return Vector{}, err
	}

	torque := curve.SanitizeTorque(c.Torque, e.overflow)
	n := len(torque)

	peak := torque[0]
	for _, t := range torque[1:] {
		if t > peak {
			peak = t
		}
	}

	snug := snugIndex(torque, c.Angle, peak)

	v := Vector{
		PeakTorque:   peak,
		FinalAngle:   c.Angle[n-1],
		Duration:     c.Time[n-1] - c.Time[0],
		SnugTorque:   torque[snug],
		SeatingAngle: c.Angle[n-1] - c.Angle[snug],
	}
	v.RigiditySlope = rigiditySlope(torque, c.Angle, snug, peak)
	v.SlopeMin = minSlope(torque, c.Angle)
	v.TotalWork = totalWork(torque, c.Angle)

	return v, nil
}

// #endregion

// #region snug-point

// snugIndex locates the first sample where torque exceeds snugFraction of
// peak with a locally positive slope. Falls back to the first threshold
// crossing, then to 0.
func snugIndex(torque, angle []float64, peak float64) int {
	threshold := peak * snugFraction
	first := -1
	for i := 0; i < len(torque)-1; i++ {
		if torque[i] <= threshold {
			continue
		}
		if first < 0 {
			first = i
		}
		dTheta := angle[i+1] - angle[i]
		if torque[i+1] > torque[i] && dTheta > 0 {
			return i
		}
	}
	if first >= 0 {
		return first
	}
	return 0
}

// #endregion

// #region rigidity-slope

// rigiditySlope fits an ordinary least-squares line over the window from the
// snug point to the sample where torque reaches linearTop of peak. With fewer
// than minOLSSamples in the window it falls back to the endpoint slope.
func rigiditySlope(torque, angle []float64, snug int, peak float64) float64 {
	top := peak * linearTop
	end := snug
	for i := snug; i < len(torque); i++ {
		end = i
		if torque[i] >= top {
			break
		}
	}
	if end-snug+1 < minOLSSamples {
		return endpointSlope(torque, angle, snug, end)
	}
	return olsSlope(angle[snug:end+1], torque[snug:end+1])
}

// olsSlope computes the least-squares slope of y over x.
func olsSlope(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var num, den float64
	for i := range x {
		dx := x[i] - meanX
		num += dx * (y[i] - meanY)
		den += dx * dx
	}
	if den < angleEpsilon {
		return 0
	}
	return num / den
}

func endpointSlope(torque, angle []float64, a, b int) float64 {
	dTheta := angle[b] - angle[a]
	if math.Abs(dTheta) < angleEpsilon {
		return 0
	}
	return (torque[b] - torque[a]) / dTheta
}

// #endregion

// #region min-slope

// minSlope computes the minimum of the smoothed difference series
// (T[i+k]-T[i-k]) / (theta[i+k]-theta[i-k]) with k=smoothHalf, skipping
// indices whose angle delta is below angleEpsilon. Returns 0 when no index
// qualifies.
func minSlope(torque, angle []float64) float64 {
	k := smoothHalf
	min := math.Inf(1)
	for i := k; i < len(torque)-k; i++ {
		dTheta := angle[i+k] - angle[i-k]
		if dTheta < angleEpsilon {
			continue
		}
		s := (torque[i+k] - torque[i-k]) / dTheta
		if s < min {
			min = s
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// #endregion

// #region total-work

// totalWork integrates torque over angle (converted to radians) with the
// trapezoidal rule. Backward angle steps are clamped to their predecessor
// first; the result is clamped to be non-negative.
func totalWork(torque, angle []float64) float64 {
	theta := curve.CoerceMonotonic(angle)
	var work float64
	for i := 1; i < len(torque); i++ {
		dRad := (theta[i] - theta[i-1]) * math.Pi / 180.0
		work += 0.5 * (torque[i] + torque[i-1]) * dRad
	}
	if work < 0 {
		return 0
	}
	return work
}

// #endregion
