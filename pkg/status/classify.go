// Package status turns an observation and its derived drying metrics into a
// plant status (OK, Thirsty, VeryDry, ...) plus environmental advisories,
// using a deterministic threshold policy.
package status

import (
	"math"

	"github.com/HatiCode/plantwater/pkg/history"
)

// Status is the primary plant condition.
type Status string

const (
	Unknown     Status = "Unknown"
	Calibrating Status = "Calibrating"
	TooWet      Status = "TooWet"
	OK          Status = "OK"
	Stable      Status = "Stable"
	VeryDry     Status = "VeryDry"
	Thirsty     Status = "Thirsty"
)

// Advisory is a secondary note about the plant's surroundings.
type Advisory string

const (
	Hot      Advisory = "Hot"
	Warm     Advisory = "Warm"
	Cold     Advisory = "Cold"
	DryAir   Advisory = "DryAir"
	HumidAir Advisory = "HumidAir"
	Dark     Advisory = "Dark"
	LowLight Advisory = "LowLight"
)

// DefaultMinPointsForETA is the history size below which the ETA is not
// trusted and the plant is reported as Calibrating.
const DefaultMinPointsForETA = 6

// Thresholds defines how readings map onto statuses and advisories.
type Thresholds struct {
	// MinPointsForETA is the number of stored points required before the
	// ETA is used for classification.
	MinPointsForETA int `yaml:"min_points_for_eta"`

	// Soil moisture fractions. At or above TooWetSoil the plant is TooWet;
	// at or above OKSoil it is OK regardless of the ETA.
	TooWetSoil float64 `yaml:"too_wet_soil"`
	OKSoil     float64 `yaml:"ok_soil"`

	// ETA hours. At or below VeryDryHours the plant is VeryDry, at or below
	// ThirstyHours it is Thirsty.
	VeryDryHours float64 `yaml:"very_dry_hours"`
	ThirstyHours float64 `yaml:"thirsty_hours"`

	// Temperature (°C) advisories.
	HotC  float64 `yaml:"hot_c"`
	WarmC float64 `yaml:"warm_c"`
	ColdC float64 `yaml:"cold_c"`

	// Relative humidity (%) advisories.
	LowRH  float64 `yaml:"low_rh"`
	HighRH float64 `yaml:"high_rh"`

	// Raw light advisories.
	DarkLight float64 `yaml:"dark_light"`
	LowLight  float64 `yaml:"low_light"`
}

// DefaultThresholds returns the standard houseplant thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPointsForETA: DefaultMinPointsForETA,
		TooWetSoil:      0.80,
		OKSoil:          0.40,
		VeryDryHours:    6,
		ThirstyHours:    12,
		HotC:            32,
		WarmC:           30,
		ColdC:           15,
		LowRH:           35,
		HighRH:          80,
		DarkLight:       300,
		LowLight:        800,
	}
}

// Assessment is the result of classifying one tick.
type Assessment struct {
	Status     Status     `json:"status"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Classify assigns a status to obs. historySize is the number of stored
// points the derivation ran against (after any watering reset, before obs
// itself is stored).
//
// Priority, first match wins:
//  1. Unknown: soil, temperature and light are all unavailable
//  2. Calibrating: historySize < MinPointsForETA
//  3. TooWet: soil >= TooWetSoil
//  4. OK: soil >= OKSoil
//  5. Stable: soil is rising or drying negligibly slowly
//  6. VeryDry: ETA <= VeryDryHours
//  7. Thirsty: ETA <= ThirstyHours
//  8. OK
func Classify(obs history.Observation, d history.Derived, historySize int, th Thresholds) Assessment {
	return Assessment{
		Status:     classify(obs, d, historySize, th),
		Advisories: advise(obs, th),
	}
}

func classify(obs history.Observation, d history.Derived, historySize int, th Thresholds) Status {
	if !finite(obs.SoilMoisture) && !finite(obs.TemperatureC) && !finite(obs.LightRaw) {
		return Unknown
	}
	if historySize < th.MinPointsForETA {
		return Calibrating
	}
	if obs.SoilMoisture >= th.TooWetSoil {
		return TooWet
	}
	if obs.SoilMoisture >= th.OKSoil {
		return OK
	}

	switch d.ETA.Kind {
	case history.RisingStable, history.EffectivelyInfinite:
		return Stable
	case history.Missing:
		return OK
	}

	if d.ETA.Val <= th.VeryDryHours {
		return VeryDry
	}
	if d.ETA.Val <= th.ThirstyHours {
		return Thirsty
	}
	return OK
}

func advise(obs history.Observation, th Thresholds) []Advisory {
	var out []Advisory

	if t := obs.TemperatureC; finite(t) {
		switch {
		case t > th.HotC:
			out = append(out, Hot)
		case t > th.WarmC:
			out = append(out, Warm)
		case t < th.ColdC:
			out = append(out, Cold)
		}
	}

	if rh := obs.RelativeHumidityPct; finite(rh) {
		switch {
		case rh < th.LowRH:
			out = append(out, DryAir)
		case rh > th.HighRH:
			out = append(out, HumidAir)
		}
	}

	if l := obs.LightRaw; finite(l) {
		switch {
		case l < th.DarkLight:
			out = append(out, Dark)
		case l < th.LowLight:
			out = append(out, LowLight)
		}
	}

	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
