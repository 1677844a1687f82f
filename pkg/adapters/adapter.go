package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/HatiCode/plantwater/pkg/history"
)

// ErrNoData is returned by a Source that has no new observation yet.
var ErrNoData = errors.New("adapters: no new data")

// Source is the interface every observation source implements.
//
// Read returns the next observation. It must respect context cancellation
// and must not panic. Channels the source cannot provide are NaN.
type Source interface {
	Read(ctx context.Context) (history.Observation, error)

	// Name returns a short identifier such as "prometheus" or "csv".
	Name() string
}

// Millis converts t to the wrapping millisecond clock used by history.
func Millis(t time.Time) uint32 {
	return uint32(t.UnixMilli())
}
