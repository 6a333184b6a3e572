package stats

// #region imports
import "math"

// #endregion

// #region accumulator

// Accumulator maintains single-pass running statistics for one metric via
// Welford's algorithm, plus a bounded FIFO window of recent raw samples for
// drift tests. The zero value is not usable; use NewAccumulator.
type Accumulator struct {
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	M2     float64   `json:"M2"`
	Window []float64 `json:"window"`

	maxWindow int
}

// NewAccumulator creates an accumulator with the given window capacity.
func NewAccumulator(windowSize int) *Accumulator {
	return &Accumulator{maxWindow: windowSize}
}

// SetWindowSize fixes the window capacity after deserialization, trimming the
// oldest samples if the restored window exceeds it.
func (a *Accumulator) SetWindowSize(windowSize int) {
	a.maxWindow = windowSize
	if len(a.Window) > windowSize {
		a.Window = append([]float64(nil), a.Window[len(a.Window)-windowSize:]...)
	}
}

// #endregion

// #region observe

// Observe folds one sample into the running statistics and the window.
func (a *Accumulator) Observe(x float64) {
	a.Count++
	delta := x - a.Mean
	a.Mean += delta / float64(a.Count)
	delta2 := x - a.Mean
	a.M2 += delta * delta2

	if a.maxWindow <= 0 {
		return
	}
	if len(a.Window) >= a.maxWindow {
		copy(a.Window, a.Window[1:])
		a.Window[len(a.Window)-1] = x
	} else {
		a.Window = append(a.Window, x)
	}
}

// #endregion

// #region summaries

// Variance returns the sample variance M2/(count-1); 0 when count < 2.
func (a *Accumulator) Variance() float64 {
	if a.Count < 2 {
		return 0
	}
	return a.M2 / float64(a.Count-1)
}

// Std returns the sample standard deviation.
func (a *Accumulator) Std() float64 {
	return math.Sqrt(a.Variance())
}

// WindowStats computes two-pass mean and sample standard deviation over the
// current window contents.
func (a *Accumulator) WindowStats() (mean, std float64, n int) {
	n = len(a.Window)
	if n == 0 {
		return 0, 0, 0
	}
	var sum float64
	for _, x := range a.Window {
		sum += x
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0, n
	}
	var sq float64
	for _, x := range a.Window {
		d := x - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(n-1))
	return mean, std, n
}

// WindowFill returns the window occupancy as a fraction of its capacity.
func (a *Accumulator) WindowFill() float64 {
	if a.maxWindow <= 0 {
		return 0
	}
	return float64(len(a.Window)) / float64(a.maxWindow)
}

// #endregion

// #region reset

// Reset zeroes the running statistics and clears the window. Administrative
// use only; never called on the diagnostic path.
func (a *Accumulator) Reset() {
	a.Count = 0
	a.Mean = 0
	a.M2 = 0
	a.Window = a.Window[:0]
}

// #endregion
