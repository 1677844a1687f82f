package estimation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/HatiCode/plantwater/pkg/history"
)

// FitSlope returns the least-squares soil-moisture slope per hour over the
// same adaptive window Slope uses, with latest as the newest point.
//
// It is a diagnostic that is less sensitive to a single noisy endpoint than
// the two-point Slope; ETA never uses it. The boolean is false when fewer than
// two points are available or all points share one timestamp.
func FitSlope(h history.Reader, latest history.Observation, n int) (float64, bool) {
	count := h.Size()
	if count < 1 {
		return 0, false
	}
	window := count
	if n > 0 && n < count {
		window = n
	}

	// x is hours before latest, so wrapped timestamps stay ordered.
	xs := make([]float64, 0, window+1)
	ys := make([]float64, 0, window+1)
	for k := window - 1; k >= 0; k-- {
		rec, ok := h.FromEnd(k)
		if !ok {
			continue
		}
		back := float64(history.Elapsed(latest.TimestampMs, rec.Observation.TimestampMs)) / msPerHour
		xs = append(xs, -back)
		ys = append(ys, rec.Observation.SoilMoisture)
	}
	xs = append(xs, 0)
	ys = append(ys, latest.SoilMoisture)

	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return 0, false
	}

	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0, false
	}
	return beta, true
}
