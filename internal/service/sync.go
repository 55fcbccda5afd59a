package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"civic_fetcher/internal/config"
	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/roster"
)

type SyncService struct {
	sources    []Source
	events     EventStore
	persons    PersonStore
	syncState  SyncStateStore
	txManager  TransactionManager
	publisher  Publisher
	reconciler Reconciler
	static     *roster.StaticData
	logger     *slog.Logger
	config     config.SyncConfig
}

func NewSyncService(
	sources []Source,
	events EventStore,
	persons PersonStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	reconciler Reconciler,
	static *roster.StaticData,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		sources:    sources,
		events:     events,
		persons:    persons,
		syncState:  syncState,
		txManager:  txManager,
		publisher:  publisher,
		reconciler: reconciler,
		static:     static,
		logger:     logger,
		config:     cfg,
	}
}

// Sync runs one sync pass over every configured source. A failing
// source is logged and counted; it does not stop the other sources.
func (s *SyncService) Sync(ctx context.Context) ([]*ingestion.SyncStats, error) {
	allStats := make([]*ingestion.SyncStats, 0, len(s.sources))
	for _, src := range s.sources {
		stats, err := s.syncSource(ctx, src)
		if err != nil {
			s.logger.Error("source sync failed", "source", src.ID(), "error", err)
			if stats == nil {
				stats = &ingestion.SyncStats{SourceID: src.ID(), Errors: 1}
			}
		}
		allStats = append(allStats, stats)

		if ctx.Err() != nil {
			return allStats, ctx.Err()
		}
	}
	return allStats, nil
}

func (s *SyncService) syncSource(ctx context.Context, src Source) (*ingestion.SyncStats, error) {
	startTime := time.Now()
	logger := s.logger.With("source", src.ID())

	end := time.Now()
	begin := end.AddDate(0, 0, -s.config.LookbackDays)

	logger.Info("starting sync",
		"source_name", src.Name(),
		"begin", begin,
		"end", end,
	)

	events, err := src.FetchEvents(ctx, begin, end)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	logger.Info("fetched events from source", "count", len(events))

	stats := &ingestion.SyncStats{
		SourceID: src.ID(),
		Fetched:  len(events),
	}

	hashes := make(map[string]string, len(events))
	externalIDs := make([]string, 0, len(events))
	for _, event := range events {
		hash, err := ingestion.ContentHash(event)
		if err != nil {
			logger.Error("failed to hash event", "external_id", event.ExternalSourceID, "error", err)
			stats.Errors++
			continue
		}
		hashes[event.ExternalSourceID] = hash
		externalIDs = append(externalIDs, event.ExternalSourceID)
	}

	existing, err := s.events.GetExistingHashes(ctx, src.ID(), externalIDs)
	if err != nil {
		return stats, fmt.Errorf("get existing events: %w", err)
	}

	for _, event := range events {
		hash, ok := hashes[event.ExternalSourceID]
		if !ok {
			continue
		}
		existingHash, exists := existing[event.ExternalSourceID]
		if exists && existingHash == hash {
			stats.Skipped++
			continue
		}

		if err := s.saveEvent(ctx, src.ID(), event, hash); err != nil {
			logger.Error("failed to save event", "external_id", event.ExternalSourceID, "error", err)
			stats.Errors++
			continue
		}

		isNew := !exists
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, src.ID(), event, isNew); err != nil {
				logger.Error("failed to publish event", "external_id", event.ExternalSourceID, "error", err)
				stats.Errors++
			} else {
				stats.Published++
			}
		}

		if isNew {
			stats.New++
		} else {
			stats.Updated++
		}
	}

	s.reconcileRoster(ctx, events, stats, logger)

	if err := s.updateSyncState(ctx, src.ID(), stats); err != nil {
		return stats, fmt.Errorf("update sync state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	logger.Info("sync completed",
		"new", stats.New,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// saveEvent upserts the event and its observed persons in one
// transaction.
func (s *SyncService) saveEvent(ctx context.Context, sourceID string, event *ingestion.EventIngestionModel, hash string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		eventID, err := s.events.Upsert(txCtx, sourceID, event, hash)
		if err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}

		persons := roster.ExtractPersons([]*ingestion.EventIngestionModel{event})
		if len(persons) == 0 {
			return nil
		}

		personIDs, err := s.persons.UpsertBatch(txCtx, persons)
		if err != nil {
			return fmt.Errorf("upsert persons: %w", err)
		}

		ids := make([]int64, 0, len(personIDs))
		for _, id := range personIDs {
			ids = append(ids, id)
		}
		if err := s.persons.LinkToEvent(txCtx, eventID, ids); err != nil {
			return fmt.Errorf("link persons: %w", err)
		}
		return nil
	})
}

// reconcileRoster compares the persons observed in this run against the
// static roster. The outcome is a review signal, so members who left
// are logged at info and unknown new members at warn.
func (s *SyncService) reconcileRoster(ctx context.Context, events []*ingestion.EventIngestionModel, stats *ingestion.SyncStats, logger *slog.Logger) {
	if s.reconciler == nil || s.static == nil {
		return
	}

	scraped := roster.ExtractPersons(events)
	if len(scraped) == 0 {
		return
	}

	comparison := s.reconciler.Compare(ctx, scraped, s.static.Persons, s.static.PrimaryBodies, time.Now())
	stats.OldMembers = comparison.OldNames
	stats.NewMembers = comparison.NewNames

	if len(comparison.OldNames) > 0 {
		logger.Info("known members no longer found in scraped data", "names", comparison.OldNames)
	}
	if len(comparison.NewNames) > 0 {
		logger.Warn("new members found, update the static roster", "names", comparison.NewNames)
	}
}

func (s *SyncService) updateSyncState(ctx context.Context, sourceID string, stats *ingestion.SyncStats) error {
	state, err := s.syncState.Get(ctx, sourceID)
	if err != nil {
		return err
	}

	state.SourceID = sourceID
	state.LastSyncedAt = time.Now()
	state.TotalSynced += int64(stats.New + stats.Updated)

	return s.syncState.Update(ctx, state)
}
