package history

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind distinguishes the outcomes a derived value can have.
type Kind uint8

const (
	// Value means Estimate.Val holds a finite number.
	Value Kind = iota
	// Missing means an input was unavailable (e.g. no temperature reading).
	Missing
	// RisingStable means soil moisture is trending up, so there is no countdown.
	RisingStable
	// EffectivelyInfinite means the soil dries too slowly to project.
	EffectivelyInfinite
)

var kindNames = map[Kind]string{
	Value:               "value",
	Missing:             "missing",
	RisingStable:        "rising",
	EffectivelyInfinite: "infinite",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Estimate is a derived number tagged with its kind. Only Value estimates
// carry a meaningful Val.
type Estimate struct {
	Kind Kind
	Val  float64
}

// Known returns a Value estimate.
func Known(v float64) Estimate {
	return Estimate{Kind: Value, Val: v}
}

// Unknown returns a Missing estimate.
func Unknown() Estimate {
	return Estimate{Kind: Missing}
}

// Rising returns a RisingStable estimate.
func Rising() Estimate {
	return Estimate{Kind: RisingStable}
}

// Never returns an EffectivelyInfinite estimate.
func Never() Estimate {
	return Estimate{Kind: EffectivelyInfinite}
}

// Finite reports whether e holds a finite number.
func (e Estimate) Finite() bool {
	return e.Kind == Value && !math.IsNaN(e.Val) && !math.IsInf(e.Val, 0)
}

// Float maps e onto the single-float sentinel encoding used by the firmware
// telemetry: NaN for missing, -1 for rising, +Inf for effectively infinite.
func (e Estimate) Float() float64 {
	switch e.Kind {
	case Value:
		return e.Val
	case RisingStable:
		return -1
	case EffectivelyInfinite:
		return math.Inf(1)
	default:
		return math.NaN()
	}
}

func (e Estimate) String() string {
	if e.Kind == Value {
		return fmt.Sprintf("%.4g", e.Val)
	}
	return e.Kind.String()
}

type estimateJSON struct {
	Kind  string   `json:"kind"`
	Value *float64 `json:"value,omitempty"`
}

// MarshalJSON encodes e as {"kind": "...", "value": x}; value is present only
// for finite Value estimates.
func (e Estimate) MarshalJSON() ([]byte, error) {
	out := estimateJSON{Kind: e.Kind.String()}
	if e.Finite() {
		v := e.Val
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	var in estimateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for k, name := range kindNames {
		if name == in.Kind {
			e.Kind = k
			e.Val = 0
			if in.Value != nil {
				e.Val = *in.Value
			}
			return nil
		}
	}
	return fmt.Errorf("history: unknown estimate kind %q", in.Kind)
}
