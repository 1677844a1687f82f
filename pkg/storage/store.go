// Package storage holds the snapshots published by the monitor after each
// sampling tick. Only the latest snapshot per plant is kept.
package storage

import (
	"sync"
	"time"

	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/status"
	"github.com/HatiCode/plantwater/pkg/watering"
)

// Snapshot is the published result of one sampling tick.
type Snapshot struct {
	Plant       string              `json:"plant"`
	Epoch       string              `json:"epoch"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Observation history.Observation `json:"observation"`
	Derived     history.Derived     `json:"derived"`
	// TrendFitPerHour is the least-squares slope over the same window as
	// Derived.SlopePerHour. Only meaningful when TrendFitOK is set.
	TrendFitPerHour float64            `json:"trendFitPerHour"`
	TrendFitOK      bool               `json:"trendFitOk"`
	Assessment      status.Assessment  `json:"assessment"`
	Health          status.HealthScore `json:"health"`
	// HistorySize is the number of stored records after this tick's push.
	HistorySize int `json:"historySize"`
	// Watering is set when this tick detected a watering event.
	Watering *watering.Event `json:"watering,omitempty"`
}

// History is the record window of the current epoch, oldest first.
type History struct {
	Plant   string           `json:"plant"`
	Epoch   string           `json:"epoch"`
	Records []history.Record `json:"records"`
}

// Store keeps published snapshots.
type Store interface {
	Put(Snapshot) error
	GetLatest(plant string) (Snapshot, bool, error)
}

// MemoryStore keeps the latest snapshot per plant in memory.
// It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Snapshot)}
}

func (m *MemoryStore) Put(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.Plant] = s
	return nil
}

func (m *MemoryStore) GetLatest(plant string) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[plant]
	return s, ok, nil
}
