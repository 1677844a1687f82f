// Package watering detects watering events from a jump in soil moisture and
// truncates the sample history so the following drying trend is learned from
// a clean baseline.
package watering

import (
	"math"

	"github.com/HatiCode/plantwater/pkg/history"
)

const (
	// DefaultLookBack is how many recent stored records are compared against
	// the new reading.
	DefaultLookBack = 5

	// DefaultRiseThreshold is the soil moisture rise (15 percentage points)
	// that counts as watering.
	DefaultRiseThreshold = 0.15
)

// Policy decides when a new observation marks a watering event.
type Policy struct {
	// LookBack is the number of most recent stored records searched for the
	// minimum soil moisture. Fewer are used when the history is shorter.
	LookBack int

	// RiseThreshold is the minimum rise over that minimum, exclusive.
	RiseThreshold float64
}

// DefaultPolicy returns the standard watering policy.
func DefaultPolicy() Policy {
	return Policy{
		LookBack:      DefaultLookBack,
		RiseThreshold: DefaultRiseThreshold,
	}
}

// Event describes a detected watering.
type Event struct {
	Rise          float64 `json:"rise"`
	MinRecentSoil float64 `json:"minRecentSoil"`
	// Discarded is the number of records dropped by the reset.
	Discarded int `json:"discarded"`
}

// Detect compares latest against the lowest soil moisture among the last
// LookBack stored records. It reports an event when latest rises above that
// minimum by more than RiseThreshold. h must not yet contain latest.
func (p Policy) Detect(h history.Reader, latest history.Observation) (Event, bool) {
	minSoil := latest.SoilMoisture

	limit := h.Size()
	if p.LookBack < limit {
		limit = p.LookBack
	}
	for k := 0; k < limit; k++ {
		rec, ok := h.FromEnd(k)
		if !ok {
			break
		}
		if rec.Observation.SoilMoisture < minSoil {
			minSoil = rec.Observation.SoilMoisture
		}
	}

	rise := latest.SoilMoisture - minSoil
	if math.IsNaN(rise) || rise <= p.RiseThreshold {
		return Event{}, false
	}
	return Event{Rise: rise, MinRecentSoil: minSoil, Discarded: h.Size()}, true
}

// Apply runs Detect and resets h when watering is detected. It must run
// before latest is derived and pushed, so latest becomes the first record of
// the new history epoch.
func (p Policy) Apply(h history.Resetter, latest history.Observation) (Event, bool) {
	ev, ok := p.Detect(h, latest)
	if ok {
		h.Reset()
	}
	return ev, ok
}
