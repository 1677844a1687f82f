// Package adapters provides the observation sources that feed the plant
// monitor. Each source implements [Source] and yields one
// [history.Observation] per Read:
//   - PrometheusSource reads the latest sensor gauges via the Prometheus HTTP API
//   - CSVSource replays the firmware's serial CSV log
//   - TailSource follows a CSV log that is still being written
//
// Sources only fetch and shape readings. Derivation and classification
// happen in the monitor.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/HatiCode/plantwater/pkg/history"
)

// Queries holds the PromQL expressions for each sensor channel. Only Soil
// is required; an empty expression leaves that channel missing.
type Queries struct {
	Soil        string
	Temperature string
	Humidity    string
	Light       string
}

// PrometheusSource reads the current sensor values with instant queries.
// When a query returns several series their values are averaged.
type PrometheusSource struct {
	api     v1.API
	queries Queries
	// filter, when set, treats the soil query result as raw ADC counts.
	filter *SoilFilter
	now    func() time.Time
}

// NewPrometheusSource builds a source against the Prometheus server at
// serverURL. Pass a non-nil filter when the soil query yields raw ADC counts.
func NewPrometheusSource(serverURL string, q Queries, filter *SoilFilter) (*PrometheusSource, error) {
	if serverURL == "" || q.Soil == "" {
		return nil, errors.New("prometheus source: server URL and soil query are required")
	}
	client, err := api.NewClient(api.Config{Address: serverURL})
	if err != nil {
		return nil, fmt.Errorf("prometheus source: %w", err)
	}
	return &PrometheusSource{
		api:     v1.NewAPI(client),
		queries: q,
		filter:  filter,
		now:     time.Now,
	}, nil
}

func (p *PrometheusSource) Name() string { return "prometheus" }

// Read implements Source. An empty soil result yields ErrNoData; empty
// results for the other channels leave them NaN.
func (p *PrometheusSource) Read(ctx context.Context) (history.Observation, error) {
	ts := p.now()
	obs := history.Observation{
		TemperatureC:        math.NaN(),
		RelativeHumidityPct: math.NaN(),
		LightRaw:            math.NaN(),
		TimestampMs:         Millis(ts),
	}

	soil, err := p.query(ctx, p.queries.Soil, ts)
	if err != nil {
		return obs, fmt.Errorf("soil query: %w", err)
	}
	if math.IsNaN(soil) {
		return obs, fmt.Errorf("soil query: %w", ErrNoData)
	}
	if p.filter != nil {
		soil = p.filter.Apply(soil)
	}
	obs.SoilMoisture = soil

	channels := []struct {
		name  string
		query string
		dst   *float64
	}{
		{"temperature", p.queries.Temperature, &obs.TemperatureC},
		{"humidity", p.queries.Humidity, &obs.RelativeHumidityPct},
		{"light", p.queries.Light, &obs.LightRaw},
	}
	for _, c := range channels {
		v, err := p.query(ctx, c.query, ts)
		if err != nil {
			return obs, fmt.Errorf("%s query: %w", c.name, err)
		}
		*c.dst = v
	}
	return obs, nil
}

func (p *PrometheusSource) query(ctx context.Context, q string, ts time.Time) (float64, error) {
	if q == "" {
		return math.NaN(), nil
	}
	val, _, err := p.api.Query(ctx, q, ts)
	if err != nil {
		return math.NaN(), err
	}
	return sampleValue(val)
}

func sampleValue(val model.Value) (float64, error) {
	switch v := val.(type) {
	case *model.Scalar:
		return float64(v.Value), nil
	case model.Vector:
		if len(v) == 0 {
			return math.NaN(), nil
		}
		var sum float64
		for _, s := range v {
			sum += float64(s.Value)
		}
		return sum / float64(len(v)), nil
	default:
		return math.NaN(), fmt.Errorf("unexpected result type %s", val.Type())
	}
}
