package status

import (
	"math"
	"time"

	"github.com/HatiCode/plantwater/pkg/history"
)

// Reason explains a health deduction.
type Reason string

const (
	CriticalDry Reason = "CriticalDry"
	SoilDry     Reason = "SoilDry"
	SoilLow     Reason = "SoilLow"
	SoilTooWet  Reason = "SoilTooWet"
	HighTemp    Reason = "HighTemp"
	LowTemp     Reason = "LowTemp"
	PoorLight   Reason = "PoorLight"
)

// Channel weights of the overall score.
const (
	soilWeight  = 0.5
	tempWeight  = 0.3
	lightWeight = 0.2
)

// Soil bands (moisture fraction) and temperature comfort range (°C).
const (
	idealSoilMin  = 0.45
	idealSoilMax  = 0.65
	criticalSoil  = 0.20
	drySoil       = 0.35
	soggySoil     = 0.90
	idealTempMin  = 22
	idealTempMax  = 25
	idealTempMid  = 23.5
	tempPenalty   = 12 // points per °C away from idealTempMid
	minTempScore  = 20
	brightLight   = 3000
	nightMaxLight = 50
)

// HealthScore is a 0-100 summary of growing conditions. Sub-scores are
// 0 when their channel is missing; missing channels are left out of the
// weighted total. With no channel at all the score is 0.
type HealthScore struct {
	Score       int      `json:"score"`
	Soil        int      `json:"soil"`
	Temperature int      `json:"temperature"`
	Light       int      `json:"light"`
	Reasons     []Reason `json:"reasons,omitempty"`
}

// Health scores obs. daytime selects the light rule: during the day light
// below th.DarkLight is poor and very bright light is penalized; at night
// the plant should be dark.
func Health(obs history.Observation, daytime bool, th Thresholds) HealthScore {
	var (
		h              HealthScore
		total, weights float64
	)

	if s := obs.SoilMoisture; finite(s) {
		var r Reason
		h.Soil, r = soilScore(s)
		if r != "" {
			h.Reasons = append(h.Reasons, r)
		}
		total += soilWeight * float64(h.Soil)
		weights += soilWeight
	}

	if t := obs.TemperatureC; finite(t) {
		h.Temperature = tempScore(t)
		switch {
		case t > th.WarmC:
			h.Reasons = append(h.Reasons, HighTemp)
		case t < th.ColdC:
			h.Reasons = append(h.Reasons, LowTemp)
		}
		total += tempWeight * float64(h.Temperature)
		weights += tempWeight
	}

	if l := obs.LightRaw; finite(l) {
		switch {
		case !daytime && l < nightMaxLight:
			h.Light = 100
		case !daytime:
			h.Light = 60
		case l < th.DarkLight:
			h.Light = 50
			h.Reasons = append(h.Reasons, PoorLight)
		case l > brightLight:
			h.Light = 60
		default:
			h.Light = 100
		}
		total += lightWeight * float64(h.Light)
		weights += lightWeight
	}

	if weights > 0 {
		h.Score = int(math.Min(100, math.Max(0, total/weights)))
	}
	return h
}

func soilScore(s float64) (int, Reason) {
	switch {
	case s >= idealSoilMin && s <= idealSoilMax:
		return 100, ""
	case s < criticalSoil:
		return 10, CriticalDry
	case s < drySoil:
		return 40, SoilDry
	case s < idealSoilMin:
		return 70, SoilLow
	case s > soggySoil:
		return 50, SoilTooWet
	default:
		return 80, ""
	}
}

func tempScore(t float64) int {
	if t >= idealTempMin && t <= idealTempMax {
		return 100
	}
	return int(math.Max(minTempScore, 100-math.Abs(t-idealTempMid)*tempPenalty))
}

// Daytime reports whether t falls between 08:00 and 18:59 local time.
func Daytime(t time.Time) bool {
	h := t.Hour()
	return h >= 8 && h <= 18
}
