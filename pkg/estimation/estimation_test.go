package estimation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/HatiCode/plantwater/pkg/history"
)

const hourMs = 3_600_000

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func sample(soil float64, ms uint32) history.Observation {
	return history.Observation{
		SoilMoisture:        soil,
		TemperatureC:        math.NaN(),
		RelativeHumidityPct: math.NaN(),
		TimestampMs:         ms,
	}
}

// newHistory returns a store holding the given observations, oldest first.
func newHistory(t *testing.T, observations ...history.Observation) *history.Store {
	t.Helper()
	s, err := history.New(history.DefaultCapacity)
	if err != nil {
		t.Fatalf("history.New() error = %v", err)
	}
	for _, o := range observations {
		s.Push(o, history.Derived{})
	}
	return s
}

// --- VPD ---

func TestVPD_MagnusTetens(t *testing.T) {
	got := VPD(25, 50)
	if got.Kind != history.Value {
		t.Fatalf("VPD(25, 50) kind = %v, want value", got.Kind)
	}
	// es ≈ 3.168 kPa, ea ≈ 1.584 kPa
	if !almostEqual(got.Val, 1.584, 0.002) {
		t.Errorf("VPD(25, 50) = %.4f, want ≈1.584", got.Val)
	}
}

func TestVPD_SaturatedAirIsZero(t *testing.T) {
	if got := VPD(20, 100); got.Val != 0 {
		t.Errorf("VPD(20, 100) = %v, want 0", got.Val)
	}
	// Humidity above 100% clamps to zero rather than going negative.
	if got := VPD(20, 110); got.Val != 0 {
		t.Errorf("VPD(20, 110) = %v, want 0", got.Val)
	}
}

func TestVPD_MissingInputs(t *testing.T) {
	tests := []struct {
		name  string
		t, rh float64
	}{
		{"missing temperature", math.NaN(), 50},
		{"missing humidity", 25, math.NaN()},
		{"both missing", math.NaN(), math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VPD(tt.t, tt.rh); got.Kind != history.Missing {
				t.Errorf("VPD(%v, %v) kind = %v, want missing", tt.t, tt.rh, got.Kind)
			}
		})
	}
}

// --- Slope ---

func TestSlope_InsufficientData(t *testing.T) {
	latest := sample(0.4, 2*hourMs)

	if got := Slope(newHistory(t), latest, DefaultSlopeWindow); got != 0 {
		t.Errorf("Slope(empty) = %v, want 0", got)
	}
	if got := Slope(newHistory(t, sample(0.5, 0)), latest, DefaultSlopeWindow); got != 0 {
		t.Errorf("Slope(1 record) = %v, want 0", got)
	}
}

func TestSlope_AdaptiveWindowUsesAllPoints(t *testing.T) {
	h := newHistory(t,
		sample(0.50, 0),
		sample(0.45, 1*hourMs),
		sample(0.40, 2*hourMs),
	)
	latest := sample(0.35, 3*hourMs)

	got := Slope(h, latest, 12)
	// (0.35 - 0.50) / 3h
	if !almostEqual(got, -0.05, 1e-9) {
		t.Errorf("Slope() = %v, want -0.05", got)
	}
}

func TestSlope_FullWindowUsesNthPoint(t *testing.T) {
	var obs []history.Observation
	// 20 points, one per hour, drying 0.01/h except a noisy early stretch.
	for i := 0; i < 20; i++ {
		soil := 0.80 - 0.01*float64(i)
		if i < 5 {
			soil = 0.99
		}
		obs = append(obs, sample(soil, uint32(i*hourMs)))
	}
	h := newHistory(t, obs...)
	latest := sample(0.60, 20*hourMs)

	got := Slope(h, latest, 4)
	// Window of 4 → oldest point is FromEnd(3) = index 16 at t=16h, soil 0.64.
	want := (0.60 - 0.64) / 4
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("Slope() = %v, want %v", got, want)
	}
}

func TestSlope_NearSimultaneousIsZero(t *testing.T) {
	h := newHistory(t, sample(0.5, 1000), sample(0.45, 1100))
	latest := sample(0.2, 1200) // 200ms after oldest < 0.0001h (360ms)
	if got := Slope(h, latest, DefaultSlopeWindow); got != 0 {
		t.Errorf("Slope() = %v, want 0", got)
	}
}

func TestSlope_TimestampWraparound(t *testing.T) {
	start := uint32(math.MaxUint32 - hourMs + 1) // one hour before the counter wraps
	h := newHistory(t,
		sample(0.50, start),
		sample(0.48, start+hourMs/2),
	)
	latest := sample(0.44, start+2*hourMs) // wrapped to hourMs-1+... past zero

	got := Slope(h, latest, DefaultSlopeWindow)
	if !almostEqual(got, -0.03, 1e-9) {
		t.Errorf("Slope() across wrap = %v, want -0.03", got)
	}
}

func TestSlope_Rewetting(t *testing.T) {
	h := newHistory(t, sample(0.30, 0), sample(0.32, hourMs))
	latest := sample(0.36, 2*hourMs)
	if got := Slope(h, latest, DefaultSlopeWindow); !almostEqual(got, 0.03, 1e-9) {
		t.Errorf("Slope() = %v, want 0.03", got)
	}
}

// --- ETA ---

func TestETA_PriorityChain(t *testing.T) {
	tests := []struct {
		name     string
		soil     float64
		dry      float64
		slope    float64
		vpd      history.Estimate
		wantKind history.Kind
		wantVal  float64
	}{
		{"rising", 0.20, 0.35, 0.01, history.Known(5), history.RisingStable, 0},
		{"rising beats already dry", 0.10, 0.35, 0.5, history.Unknown(), history.RisingStable, 0},
		{"near zero", 0.60, 0.35, -0.0001, history.Known(1), history.EffectivelyInfinite, 0},
		{"exactly zero slope", 0.35, 0.35, 0, history.Known(1), history.EffectivelyInfinite, 0},
		{"already below threshold", 0.20, 0.35, -0.05, history.Known(1), history.Value, 0},
		{"exactly at threshold", 0.35, 0.35, -0.05, history.Known(3), history.Value, 0},
		{"missing vpd uses base", 0.45, 0.35, -0.03, history.Unknown(), history.Value, 0.10 / 0.03},
		{"nan soil", math.NaN(), 0.35, 0, history.Known(1), history.Missing, 0},
		{"nan slope", 0.45, 0.35, math.NaN(), history.Known(1), history.Missing, 0},
		{"nan soil beats rising", math.NaN(), 0.35, 0.5, history.Unknown(), history.Missing, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ETA(tt.soil, tt.dry, tt.slope, tt.vpd)
			if got.Kind != tt.wantKind {
				t.Fatalf("ETA() kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantKind == history.Value && !almostEqual(got.Val, tt.wantVal, 1e-6) {
				t.Errorf("ETA() = %v, want %v", got.Val, tt.wantVal)
			}
		})
	}
}

func TestETA_VPDCorrectionBounds(t *testing.T) {
	tests := []struct {
		vpd  float64
		want float64
	}{
		{1.0, 3.3333},  // factor 1.0
		{5.0, 1.8519},  // factor clamps to 1.8
		{0.0, 6.6667},  // factor clamps to 0.5
		{2.0, 2.6667},  // factor 1.25
		{-10, 6.6667},  // far below still 0.5
		{100, 1.85185}, // far above still 1.8
	}
	for _, tt := range tests {
		got := ETA(0.45, 0.35, -0.03, history.Known(tt.vpd))
		if got.Kind != history.Value {
			t.Fatalf("ETA(vpd=%v) kind = %v, want value", tt.vpd, got.Kind)
		}
		if !almostEqual(got.Val, tt.want, 0.001) {
			t.Errorf("ETA(vpd=%v) = %.4f, want %.4f", tt.vpd, got.Val, tt.want)
		}
	}
}

func TestVPDFactor(t *testing.T) {
	if f := VPDFactor(1); f != 1 {
		t.Errorf("VPDFactor(1) = %v, want 1", f)
	}
	if f := VPDFactor(-3); f != 0.5 {
		t.Errorf("VPDFactor(-3) = %v, want 0.5", f)
	}
	if f := VPDFactor(9); f != 1.8 {
		t.Errorf("VPDFactor(9) = %v, want 1.8", f)
	}
}

// --- Compute ---

func TestCompute(t *testing.T) {
	h := newHistory(t,
		sample(0.50, 0),
		sample(0.47, hourMs),
	)
	latest := history.Observation{
		SoilMoisture:        0.44,
		TemperatureC:        25,
		RelativeHumidityPct: 50,
		TimestampMs:         2 * hourMs,
	}

	d := Compute(latest, h, DefaultParams())

	if !almostEqual(d.SlopePerHour, -0.03, 1e-9) {
		t.Errorf("SlopePerHour = %v, want -0.03", d.SlopePerHour)
	}
	if !almostEqual(d.VPD.Val, 1.584, 0.002) {
		t.Errorf("VPD = %v, want ≈1.584", d.VPD.Val)
	}
	// base (0.44-0.35)/0.03 = 3h, factor 1+0.25*0.584 ≈ 1.146
	wantETA := 3 / VPDFactor(d.VPD.Val)
	if d.ETA.Kind != history.Value || !almostEqual(d.ETA.Val, wantETA, 1e-6) {
		t.Errorf("ETA = %v, want %v", d.ETA, wantETA)
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	d := Compute(sample(0.6, 0), newHistory(t), DefaultParams())
	if d.SlopePerHour != 0 {
		t.Errorf("SlopePerHour = %v, want 0", d.SlopePerHour)
	}
	if d.VPD.Kind != history.Missing {
		t.Errorf("VPD kind = %v, want missing", d.VPD.Kind)
	}
	if d.ETA.Kind != history.EffectivelyInfinite {
		t.Errorf("ETA kind = %v, want infinite", d.ETA.Kind)
	}
}

func TestCompute_NaNSoilReading(t *testing.T) {
	h := newHistory(t,
		sample(0.50, 0),
		sample(0.48, hourMs),
	)

	d := Compute(sample(math.NaN(), 2*hourMs), h, DefaultParams())

	if !math.IsNaN(d.SlopePerHour) {
		t.Errorf("SlopePerHour = %v, want NaN", d.SlopePerHour)
	}
	if d.ETA.Kind != history.Missing {
		t.Fatalf("ETA kind = %v, want missing", d.ETA.Kind)
	}
	if d.ETA.Finite() {
		t.Error("ETA.Finite() = true, want false")
	}
	data, err := json.Marshal(d.ETA)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"kind":"missing"}` {
		t.Errorf("ETA JSON = %s, want {\"kind\":\"missing\"}", data)
	}
}

// --- FitSlope ---

func TestFitSlope_Linear(t *testing.T) {
	h := newHistory(t,
		sample(0.50, 0),
		sample(0.48, hourMs),
		sample(0.46, 2*hourMs),
	)
	got, ok := FitSlope(h, sample(0.44, 3*hourMs), DefaultSlopeWindow)
	if !ok {
		t.Fatal("FitSlope() ok = false, want true")
	}
	if !almostEqual(got, -0.02, 1e-9) {
		t.Errorf("FitSlope() = %v, want -0.02", got)
	}
}

func TestFitSlope_NotEnoughPoints(t *testing.T) {
	if _, ok := FitSlope(newHistory(t), sample(0.4, 0), DefaultSlopeWindow); ok {
		t.Error("FitSlope(empty) ok = true, want false")
	}
	if _, ok := FitSlope(newHistory(t, sample(0.5, 10)), sample(0.4, 10), DefaultSlopeWindow); ok {
		t.Error("FitSlope(same timestamp) ok = true, want false")
	}
}
