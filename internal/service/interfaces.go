package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/roster"
)

type EventStore interface {
	Upsert(ctx context.Context, sourceID string, event *ingestion.EventIngestionModel, hash string) (int64, error)
	GetExistingHashes(ctx context.Context, sourceID string, externalIDs []string) (map[string]string, error)
}

type PersonStore interface {
	UpsertBatch(ctx context.Context, persons []*ingestion.Person) (map[string]int64, error)
	LinkToEvent(ctx context.Context, eventID int64, personIDs []int64) error
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*ingestion.SyncState, error)
	Update(ctx context.Context, state *ingestion.SyncState) error
}

type Source interface {
	ID() string
	Name() string
	FetchEvents(ctx context.Context, begin, end time.Time) ([]*ingestion.EventIngestionModel, error)
}

type Reconciler interface {
	Compare(
		ctx context.Context,
		scraped []*ingestion.Person,
		known map[string]*ingestion.Person,
		primaryBodies map[string]*ingestion.Body,
		now time.Time,
	) roster.Comparison
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, sourceID string, event *ingestion.EventIngestionModel, isNew bool) error
	Close() error
}
