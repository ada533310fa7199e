package history

import (
	"time"

	"codeberg.org/mutker/hellobakery/internal/check"
	"codeberg.org/mutker/hellobakery/internal/registry"
	"github.com/google/uuid"
)

// FromOutcome converts a check outcome into a Sample stamped with ts. Only
// the hellobakerylevel metric is kept; with several, the last one wins.
func FromOutcome(o registry.Outcome, ts time.Time) *Sample {
	s := &Sample{
		RunID:     uuid.New(),
		Timestamp: ts.UTC(),
		Service:   o.Service,
		State:     o.Result.State,
		Summary:   o.Result.Summary,
		Stale:     o.Stale,
	}

	for _, m := range o.Metrics {
		if m.Name != check.MetricName {
			continue
		}
		v := m.Value
		s.Value = &v
	}

	return s
}
