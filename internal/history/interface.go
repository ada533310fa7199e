package history

import (
	"context"
	"time"

	"codeberg.org/mutker/hellobakery/internal/check"
	"github.com/google/uuid"
)

// Recorder defines the core domain interface
type Recorder interface {
	Record(ctx context.Context, sample *Sample) error
	Series(ctx context.Context, service string, since time.Time) ([]Sample, error)
	Close() error
}

// Repository defines the interface for history storage
type Repository interface {
	Insert(ctx context.Context, sample *Sample) error
	Query(ctx context.Context, service string, since time.Time) ([]Sample, error)
	Close() error
}

// Sample is one check run as kept in the time series. Value is nil when
// the run produced no metric.
type Sample struct {
	RunID     uuid.UUID
	Timestamp time.Time
	Service   string
	State     check.State
	Summary   string
	Stale     bool
	Value     *float64
}
