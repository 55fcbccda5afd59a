package source

import (
	"context"
	"time"

	"civic_fetcher/internal/ingestion"
)

// Source produces normalized ingestion events for one municipal data
// platform. Implementations perform their own network I/O and emit only
// events that satisfy the minimum viable ingestion contract.
type Source interface {
	// ID returns the source identifier, e.g. "legistar".
	ID() string
	// Name returns a human-readable name.
	Name() string
	// FetchEvents returns all events with a start datetime in [begin, end).
	FetchEvents(ctx context.Context, begin, end time.Time) ([]*ingestion.EventIngestionModel, error)
}
