// Package history holds the bounded, time-ordered sample history of a plant
// monitor: a fixed-capacity ring of observations together with the values
// derived from them at the time they were recorded.
//
// The Store is allocated once with a fixed capacity and never grows. When it
// is full, each Push overwrites the oldest record. Reset discards every record
// in O(1) without touching the backing array, which is how a watering event
// starts a fresh history epoch.
//
// Store has no internal locking. It is meant to be owned by a single tick
// driver that serializes Push, Reset and reads.
package history

import (
	"encoding/json"
	"errors"
	"math"
)

// DefaultCapacity holds roughly 24h of samples at a 300s cadence.
const DefaultCapacity = 600

// ErrInvalidCapacity is returned by New when capacity is not positive.
var ErrInvalidCapacity = errors.New("history: capacity must be positive")

// Observation is a single sensor reading.
//
// SoilMoisture is a normalized fraction in [0,1] but may fall outside that
// range when unfiltered. TemperatureC and RelativeHumidityPct are NaN when the
// environmental sensor failed for that cycle. TimestampMs is a wrapping
// millisecond counter; use Elapsed to compare two timestamps.
type Observation struct {
	SoilMoisture        float64 `json:"soilMoisture"`
	TemperatureC        float64 `json:"temperatureC"`
	RelativeHumidityPct float64 `json:"relativeHumidityPct"`
	LightRaw            float64 `json:"lightRaw"`
	TimestampMs         uint32  `json:"timestampMs"`
}

// HasEnvironment reports whether both temperature and humidity are present.
func (o Observation) HasEnvironment() bool {
	return !math.IsNaN(o.TemperatureC) && !math.IsNaN(o.RelativeHumidityPct)
}

type observationJSON struct {
	SoilMoisture        *float64 `json:"soilMoisture"`
	TemperatureC        *float64 `json:"temperatureC"`
	RelativeHumidityPct *float64 `json:"relativeHumidityPct"`
	LightRaw            *float64 `json:"lightRaw"`
	TimestampMs         uint32   `json:"timestampMs"`
}

// MarshalJSON writes non-finite channels as null.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		SoilMoisture:        finiteOrNil(o.SoilMoisture),
		TemperatureC:        finiteOrNil(o.TemperatureC),
		RelativeHumidityPct: finiteOrNil(o.RelativeHumidityPct),
		LightRaw:            finiteOrNil(o.LightRaw),
		TimestampMs:         o.TimestampMs,
	})
}

// UnmarshalJSON reads null channels back as NaN.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var in observationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	o.SoilMoisture = nanIfNil(in.SoilMoisture)
	o.TemperatureC = nanIfNil(in.TemperatureC)
	o.RelativeHumidityPct = nanIfNil(in.RelativeHumidityPct)
	o.LightRaw = nanIfNil(in.LightRaw)
	o.TimestampMs = in.TimestampMs
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nanIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Derived holds the values computed for an observation when it was recorded.
type Derived struct {
	VPD          Estimate `json:"vpdKPa"`
	SlopePerHour float64  `json:"slopePerHour"`
	ETA          Estimate `json:"etaHours"`
}

type derivedJSON struct {
	VPD          Estimate `json:"vpdKPa"`
	SlopePerHour *float64 `json:"slopePerHour"`
	ETA          Estimate `json:"etaHours"`
}

// MarshalJSON writes a non-finite slope as null.
func (d Derived) MarshalJSON() ([]byte, error) {
	return json.Marshal(derivedJSON{
		VPD:          d.VPD,
		SlopePerHour: finiteOrNil(d.SlopePerHour),
		ETA:          d.ETA,
	})
}

// UnmarshalJSON reads a null slope back as NaN.
func (d *Derived) UnmarshalJSON(data []byte) error {
	var in derivedJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.VPD = in.VPD
	d.SlopePerHour = nanIfNil(in.SlopePerHour)
	d.ETA = in.ETA
	return nil
}

// Record is an observation stored together with its derived values.
type Record struct {
	Observation Observation `json:"observation"`
	Derived     Derived     `json:"derived"`
}

// Reader is read access to a history, newest first.
type Reader interface {
	Size() int
	FromEnd(k int) (Record, bool)
}

// Resetter is a Reader that can also discard all of its records.
type Resetter interface {
	Reader
	Reset()
}

// Store is a fixed-capacity ring buffer of Records.
type Store struct {
	records []Record
	next    int // slot the next Push writes to
	count   int
}

// New allocates a Store holding exactly capacity records.
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Store{records: make([]Record, capacity)}, nil
}

// Push appends a record, overwriting the oldest one when the store is full.
func (s *Store) Push(obs Observation, derived Derived) {
	s.records[s.next] = Record{Observation: obs, Derived: derived}
	s.next = (s.next + 1) % len(s.records)
	if s.count < len(s.records) {
		s.count++
	}
}

// Reset discards every record. The backing array is kept for reuse.
func (s *Store) Reset() {
	s.count = 0
	s.next = 0
}

// Size returns the number of records currently held.
func (s *Store) Size() int {
	return s.count
}

// Cap returns the fixed capacity of the store.
func (s *Store) Cap() int {
	return len(s.records)
}

// FromEnd returns the record k positions behind the most recent one.
// k=0 is the latest record and k=Size()-1 the oldest still retained.
// It returns false when k is out of range.
func (s *Store) FromEnd(k int) (Record, bool) {
	if k < 0 || k >= s.count {
		return Record{}, false
	}
	n := len(s.records)
	pos := (s.next + n - 1 - k) % n
	return s.records[pos], true
}

// Records returns a copy of the retained records, oldest first.
func (s *Store) Records() []Record {
	out := make([]Record, s.count)
	for i := 0; i < s.count; i++ {
		out[i], _ = s.FromEnd(s.count - 1 - i)
	}
	return out
}

// Elapsed returns newer-older in milliseconds using uint32 arithmetic, so a
// single wraparound of the timestamp counter still yields the true distance.
func Elapsed(newer, older uint32) uint32 {
	return newer - older
}
