// Package monitor implements the plantwater sampling loop. A Monitor
// samples a plant's sensors, detects watering, derives drying metrics,
// status and health, and publishes a snapshot per observation.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HatiCode/plantwater/cmd/monitor/config"
	"github.com/HatiCode/plantwater/cmd/monitor/metrics"
	"github.com/HatiCode/plantwater/pkg/adapters"
	"github.com/HatiCode/plantwater/pkg/estimation"
	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/status"
	"github.com/HatiCode/plantwater/pkg/storage"
	"github.com/HatiCode/plantwater/pkg/watering"
)

// ErrNotReady is returned by Ready until the first snapshot is published.
var ErrNotReady = errors.New("no observation processed yet")

// Monitor drives the sampling loop: read → watering → derive → classify →
// push → publish. It is the only owner of the history store; ticks and
// history reads are serialized by mu.
type Monitor struct {
	plant      string
	source     adapters.Source
	store      storage.Store
	metrics    *metrics.Metrics
	params     estimation.Params
	policy     watering.Policy
	thresholds status.Thresholds
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	history   *history.Store
	epoch     string
	published bool
}

// New creates a Monitor with a history sized by tuning.
func New(
	plant string,
	source adapters.Source,
	store storage.Store,
	tuning config.Tuning,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Monitor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	h, err := history.New(tuning.HistoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return &Monitor{
		plant:      plant,
		source:     source,
		store:      store,
		metrics:    m,
		params:     tuning.EstimationParams(),
		policy:     tuning.WateringPolicy(),
		thresholds: tuning.Status,
		logger:     logger,
		now:        time.Now,
		history:    h,
		epoch:      uuid.NewString(),
	}, nil
}

// Run executes a tick at regular intervals until ctx is canceled or the
// source is exhausted.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	m.logger.Info("starting sampling loop", "interval", interval, "source", m.source.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Tick(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				m.logger.Info("source exhausted, sampling loop stopped")
				return nil
			}
			m.logger.Error("tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("sampling loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Replay processes every observation the source yields without waiting
// between them. It returns nil when the source reports io.EOF.
func (m *Monitor) Replay(ctx context.Context) error {
	m.logger.Info("replaying source", "source", m.source.Name())
	n := 0
	for {
		if err := m.Tick(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				m.logger.Info("replay complete", "observations", n)
				return nil
			}
			return err
		}
		n++
	}
}

// Tick reads one observation and processes it. A source with nothing new
// is not an error.
func (m *Monitor) Tick(ctx context.Context) error {
	start := time.Now()
	obs, err := m.source.Read(ctx)
	m.metrics.RecordRead(time.Since(start).Seconds())

	if errors.Is(err, adapters.ErrNoData) {
		m.logger.Debug("no new observation")
		return nil
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			m.metrics.RecordError("source", "read_failed")
		}
		return fmt.Errorf("read: %w", err)
	}

	if _, err := m.Process(obs); err != nil {
		return err
	}
	return nil
}

// Process runs one observation through watering detection, derivation and
// classification, stores it and publishes the resulting snapshot.
func (m *Monitor) Process(obs history.Observation) (storage.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, watered := m.policy.Apply(m.history, obs)
	if watered {
		m.epoch = uuid.NewString()
		m.metrics.RecordWatering()
		m.logger.Info("watering detected",
			"rise", event.Rise,
			"min_recent_soil", event.MinRecentSoil,
			"discarded", event.Discarded,
			"epoch", m.epoch,
		)
	}

	derived := estimation.Compute(obs, m.history, m.params)
	fit, fitOK := estimation.FitSlope(m.history, obs, m.params.SlopeWindow)
	assessment := status.Classify(obs, derived, m.history.Size(), m.thresholds)
	now := m.now()
	health := status.Health(obs, status.Daytime(now), m.thresholds)

	m.history.Push(obs, derived)

	snap := storage.Snapshot{
		Plant:           m.plant,
		Epoch:           m.epoch,
		GeneratedAt:     now,
		Observation:     obs,
		Derived:         derived,
		TrendFitPerHour: fit,
		TrendFitOK:      fitOK,
		Assessment:      assessment,
		Health:          health,
		HistorySize:     m.history.Size(),
	}
	if watered {
		snap.Watering = &event
	}

	m.metrics.RecordTick(obs, derived, assessment.Status, snap.HistorySize)
	m.metrics.SetHealth(health.Score)

	if err := m.store.Put(snap); err != nil {
		m.metrics.RecordError("store", "put_failed")
		return snap, fmt.Errorf("store: %w", err)
	}
	m.published = true

	m.logger.Info("tick complete",
		"soil", obs.SoilMoisture,
		"vpd_kpa", derived.VPD.String(),
		"slope_per_hour", derived.SlopePerHour,
		"eta_hours", derived.ETA.String(),
		"status", assessment.Status,
		"health", health.Score,
		"records", snap.HistorySize,
	)
	return snap, nil
}

// History returns the current epoch's records for plant, oldest first.
func (m *Monitor) History(plant string) (storage.History, bool) {
	if plant != m.plant {
		return storage.History{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return storage.History{
		Plant:   m.plant,
		Epoch:   m.epoch,
		Records: m.history.Records(),
	}, true
}

// Ready returns ErrNotReady until a snapshot has been published.
func (m *Monitor) Ready() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.published {
		return ErrNotReady
	}
	return nil
}
