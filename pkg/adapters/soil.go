package adapters

import "math"

// Default calibration of the capacitive soil probe.
const (
	DefaultSoilADCDry = 3400
	DefaultSoilADCWet = 2000
	DefaultSoilAlpha  = 0.15
)

// SoilFilter converts raw soil ADC counts into a smoothed moisture fraction.
// Each source owns its own filter; a SoilFilter is not safe for concurrent use.
type SoilFilter struct {
	Dry   float64
	Wet   float64
	Alpha float64

	ema    float64
	primed bool
}

func NewSoilFilter() *SoilFilter {
	return &SoilFilter{Dry: DefaultSoilADCDry, Wet: DefaultSoilADCWet, Alpha: DefaultSoilAlpha}
}

// Normalize maps raw onto [0,1] where Dry is 0 and Wet is 1.
func (f *SoilFilter) Normalize(raw float64) float64 {
	span := math.Max(1, f.Dry-f.Wet)
	n := (f.Dry - raw) / span
	return math.Min(1, math.Max(0, n))
}

// Apply normalizes raw and folds it into the moving average. A NaN reading
// returns NaN and leaves the average untouched.
func (f *SoilFilter) Apply(raw float64) float64 {
	if math.IsNaN(raw) {
		return math.NaN()
	}
	n := f.Normalize(raw)
	if !f.primed {
		f.ema = n
		f.primed = true
		return n
	}
	f.ema = (1-f.Alpha)*f.ema + f.Alpha*n
	return f.ema
}
