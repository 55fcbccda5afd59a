package ingestion

import "time"

// SyncState tracks sync progress per source.
type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}

// SyncStats holds statistics about one sync run for one source.
type SyncStats struct {
	SourceID   string
	Fetched    int
	New        int
	Updated    int
	Skipped    int
	Errors     int
	Published  int
	OldMembers []string
	NewMembers []string
	Duration   time.Duration
}
