package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"civic_fetcher/internal/ingestion"
)

type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

// Upsert saves an event keyed by (source_id, external_id). The whole
// ingestion model is stored as a JSON payload next to its content hash,
// which is what change detection compares on the next run.
func (s *EventStore) Upsert(ctx context.Context, sourceID string, event *ingestion.EventIngestionModel, hash string) (int64, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	var bodyName string
	if event.Body != nil {
		bodyName = event.Body.Name
	}
	var eventDatetime *time.Time
	if len(event.Sessions) > 0 && event.Sessions[0] != nil {
		eventDatetime = event.Sessions[0].SessionDatetime
	}

	query := `
		INSERT INTO events (
			source_id, external_id, body_name, event_datetime, payload, content_hash
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (source_id, external_id) DO UPDATE SET
			body_name = EXCLUDED.body_name,
			event_datetime = EXCLUDED.event_datetime,
			payload = EXCLUDED.payload,
			content_hash = EXCLUDED.content_hash,
			updated_at = now()
		RETURNING id`

	var id int64
	err = GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		sourceID,
		event.ExternalSourceID,
		bodyName,
		eventDatetime,
		payload,
		hash,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetExistingHashes returns the stored content hash per external id for
// the given source.
func (s *EventStore) GetExistingHashes(ctx context.Context, sourceID string, externalIDs []string) (map[string]string, error) {
	if len(externalIDs) == 0 {
		return make(map[string]string), nil
	}

	query := `SELECT external_id, content_hash FROM events WHERE source_id = $1 AND external_id = ANY($2)`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, sourceID, pq.Array(externalIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var extID, hash string
		if err := rows.Scan(&extID, &hash); err != nil {
			return nil, err
		}
		result[extID] = hash
	}

	return result, rows.Err()
}
