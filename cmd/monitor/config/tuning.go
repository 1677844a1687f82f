package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HatiCode/plantwater/pkg/estimation"
	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/status"
	"github.com/HatiCode/plantwater/pkg/watering"
)

// Tuning holds the algorithm constants. It is loaded once at startup and
// never changed afterwards.
type Tuning struct {
	HistoryCapacity  int               `yaml:"history_capacity"`
	SlopeWindow      int               `yaml:"slope_window"`
	DryThreshold     float64           `yaml:"dry_threshold"`
	WateringLookBack int               `yaml:"watering_lookback"`
	WateringRise     float64           `yaml:"watering_rise"`
	Status           status.Thresholds `yaml:"status"`
}

// DefaultTuning returns the stock constants: 600 records, a 12 point slope
// window, dry at 0.35, watering on a 0.15 rise over the last 5 records.
func DefaultTuning() Tuning {
	return Tuning{
		HistoryCapacity:  history.DefaultCapacity,
		SlopeWindow:      estimation.DefaultSlopeWindow,
		DryThreshold:     estimation.DefaultDryThreshold,
		WateringLookBack: watering.DefaultLookBack,
		WateringRise:     watering.DefaultRiseThreshold,
		Status:           status.DefaultThresholds(),
	}
}

// LoadTuning reads the YAML file at path over DefaultTuning. An empty path
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects constants the algorithms cannot work with.
func (t Tuning) Validate() error {
	var errs []error
	if t.HistoryCapacity <= 0 {
		errs = append(errs, errors.New("history_capacity must be positive"))
	}
	if t.SlopeWindow < 2 {
		errs = append(errs, errors.New("slope_window must be at least 2"))
	}
	if t.DryThreshold < 0 || t.DryThreshold > 1 {
		errs = append(errs, errors.New("dry_threshold must be within [0, 1]"))
	}
	if t.WateringLookBack < 0 {
		errs = append(errs, errors.New("watering_lookback cannot be negative"))
	}
	if t.WateringRise <= 0 {
		errs = append(errs, errors.New("watering_rise must be positive"))
	}
	if t.Status.MinPointsForETA < 0 {
		errs = append(errs, errors.New("status.min_points_for_eta cannot be negative"))
	}
	if t.Status.VeryDryHours > t.Status.ThirstyHours {
		errs = append(errs, errors.New("status.very_dry_hours must not exceed status.thirsty_hours"))
	}
	return errors.Join(errs...)
}

func (t Tuning) EstimationParams() estimation.Params {
	return estimation.Params{SlopeWindow: t.SlopeWindow, DryThreshold: t.DryThreshold}
}

func (t Tuning) WateringPolicy() watering.Policy {
	return watering.Policy{LookBack: t.WateringLookBack, RiseThreshold: t.WateringRise}
}
