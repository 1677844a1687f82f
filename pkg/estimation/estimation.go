// Package estimation derives drying dynamics from a plant's sample history.
//
// For every new observation it computes:
//   - the vapor pressure deficit of the surrounding air (VPD)
//   - the soil-moisture slope per hour over an adaptive lookback window
//   - the projected hours until the soil reaches a dry threshold (ETA),
//     corrected for VPD
//
// All functions are pure. Conditions such as insufficient history, a wetting
// trend or a missing environmental reading are reported through
// history.Estimate kinds, never as errors.
package estimation

import (
	"math"

	"github.com/HatiCode/plantwater/pkg/history"
)

const (
	// DefaultSlopeWindow is the number of points the slope looks back over
	// (about 6h at a 300s cadence, once enough history exists).
	DefaultSlopeWindow = 12

	// DefaultDryThreshold is the soil moisture fraction the ETA projects towards.
	DefaultDryThreshold = 0.35

	msPerHour = 3_600_000.0

	// minElapsedHours guards the slope against near-simultaneous samples.
	minElapsedHours = 0.0001

	// minDryingSlope is the slope magnitude below which the soil is treated
	// as never drying.
	minDryingSlope = 0.001

	vpdFactorMin = 0.5
	vpdFactorMax = 1.8
)

// Params controls the derivation.
type Params struct {
	// SlopeWindow is the maximum number of stored points spanned by the slope.
	SlopeWindow int

	// DryThreshold is the soil moisture fraction considered dry.
	DryThreshold float64
}

// DefaultParams returns the standard derivation parameters.
func DefaultParams() Params {
	return Params{
		SlopeWindow:  DefaultSlopeWindow,
		DryThreshold: DefaultDryThreshold,
	}
}

// Compute derives VPD, slope and ETA for latest against the stored history.
// The history must not yet contain latest.
func Compute(latest history.Observation, h history.Reader, p Params) history.Derived {
	vpd := history.Unknown()
	if latest.HasEnvironment() {
		vpd = VPD(latest.TemperatureC, latest.RelativeHumidityPct)
	}
	slope := Slope(h, latest, p.SlopeWindow)
	return history.Derived{
		VPD:          vpd,
		SlopePerHour: slope,
		ETA:          ETA(latest.SoilMoisture, p.DryThreshold, slope, vpd),
	}
}

// VPD returns the vapor pressure deficit in kPa for air at tempC and rhPct
// relative humidity, using the Magnus-Tetens approximation:
//
//	es  = 0.6108 * exp(17.27*T / (T+237.3))
//	ea  = es * RH/100
//	vpd = max(es - ea, 0)
//
// If either input is NaN the result is Missing.
func VPD(tempC, rhPct float64) history.Estimate {
	if math.IsNaN(tempC) || math.IsNaN(rhPct) {
		return history.Unknown()
	}
	es := 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
	ea := es * (rhPct / 100)
	return history.Known(math.Max(es-ea, 0))
}

// Slope returns the soil-moisture change per hour between latest and the
// oldest point inside the lookback window.
//
// The window is adaptive: with fewer than n stored points every available
// point is used. With fewer than two stored points, or when the two points are
// less than 0.0001h apart, the slope is 0. Elapsed time uses wrap-safe uint32
// subtraction of the millisecond timestamps.
func Slope(h history.Reader, latest history.Observation, n int) float64 {
	count := h.Size()
	if count < 2 {
		return 0
	}

	effectiveN := count
	if n > 0 && n < count {
		effectiveN = n
	}

	old, ok := h.FromEnd(effectiveN - 1)
	if !ok {
		return 0
	}

	dt := float64(history.Elapsed(latest.TimestampMs, old.Observation.TimestampMs)) / msPerHour
	if dt < minElapsedHours {
		return 0
	}

	return (latest.SoilMoisture - old.Observation.SoilMoisture) / dt
}

// ETA returns the projected hours until soilNow reaches dryThreshold at the
// given slope, corrected by VPD.
//
// A NaN soil reading or slope yields Missing. Otherwise the checks run as
// a strict priority chain:
//  1. slope > 0: RisingStable, moisture is going up
//  2. |slope| < 0.001: EffectivelyInfinite
//  3. soilNow <= dryThreshold: 0, already dry
//  4. eta = (soilNow - dryThreshold) / |slope|
//  5. if vpd is finite: eta /= clamp(1 + 0.25*(vpd-1), 0.5, 1.8)
//
// Drier air (higher VPD) shortens the ETA and humid air lengthens it.
func ETA(soilNow, dryThreshold, slope float64, vpd history.Estimate) history.Estimate {
	if math.IsNaN(soilNow) || math.IsNaN(slope) {
		return history.Unknown()
	}
	if slope > 0 {
		return history.Rising()
	}
	if math.Abs(slope) < minDryingSlope {
		return history.Never()
	}
	if soilNow <= dryThreshold {
		return history.Known(0)
	}

	eta := (soilNow - dryThreshold) / math.Abs(slope)

	if vpd.Finite() {
		eta /= VPDFactor(vpd.Val)
	}

	return history.Known(eta)
}

// VPDFactor is the drying-speed multiplier applied to the base ETA.
func VPDFactor(vpdKPa float64) float64 {
	factor := 1 + 0.25*(vpdKPa-1)
	return math.Min(math.Max(factor, vpdFactorMin), vpdFactorMax)
}
