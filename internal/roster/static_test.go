package roster

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_fetcher/internal/ingestion"
)

const staticJSON = `{
	"seats": {
		"Position 1": {"name": "Position 1", "electoral_area": "District 1"},
		"Position 9": {"name": "Position 9", "electoral_area": "Citywide"}
	},
	"primary_bodies": {
		"City Council": {"name": "City Council", "is_active": true}
	},
	"persons": {
		"Alice Aoki": {
			"name": "Alice Aoki",
			"email": "alice.aoki@example.gov",
			"seat": "Position 1",
			"roles": [
				{
					"title": "Councilmember",
					"body": "City Council",
					"start_datetime": 1578038400,
					"end_datetime": 1924934400
				},
				{
					"title": "Chair",
					"body": {"name": "Transportation", "is_active": true}
				},
				{
					"title": "Grand Vizier",
					"body": "City Council"
				},
				{
					"title": "Member",
					"body": "Planning Commission"
				}
			]
		},
		"Bob Birch": {
			"name": "Bob Birch",
			"is_active": false,
			"seat": "Position 99"
		},
		"Carol Wu": {
			"name": "Carol Wu"
		}
	}
}`

func writeStatic(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "static.json")
	require.NoError(t, os.WriteFile(path, []byte(staticJSON), 0o644))
	return path
}

func TestLoadStaticFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	static, err := LoadStaticFile(writeStatic(t), loc, logger)
	require.NoError(t, err)

	assert.Len(t, static.Seats, 2)
	assert.Len(t, static.PrimaryBodies, 1)
	require.Len(t, static.Persons, 3)

	alice := static.Persons["Alice Aoki"]
	require.NotNil(t, alice)
	assert.True(t, alice.IsActive)
	require.NotNil(t, alice.Seat)
	assert.Equal(t, "Position 1", alice.Seat.Name)

	// the unknown title and the unknown primary body are skipped
	require.Len(t, alice.Seat.Roles, 2)

	council := alice.Seat.Roles[0]
	assert.Equal(t, ingestion.RoleCouncilmember, council.Title)
	require.NotNil(t, council.Body)
	assert.Equal(t, "City Council", council.Body.Name)
	require.NotNil(t, council.StartDatetime)
	assert.Equal(t, loc, council.StartDatetime.Location())

	committee := alice.Seat.Roles[1]
	assert.Equal(t, ingestion.RoleChair, committee.Title)
	require.NotNil(t, committee.Body)
	assert.Equal(t, "Transportation", committee.Body.Name)
	assert.Nil(t, committee.EndDatetime)

	// unknown seat reference leaves the person without a seat
	bob := static.Persons["Bob Birch"]
	require.NotNil(t, bob)
	assert.False(t, bob.IsActive)
	assert.Nil(t, bob.Seat)

	// is_active defaults to true when omitted
	assert.True(t, static.Persons["Carol Wu"].IsActive)

	// appending roles must not mutate the shared seat definition
	assert.Empty(t, static.Seats["Position 1"].Roles)
}

func TestLoadStaticFileMissingSections(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	path := filepath.Join(t.TempDir(), "static.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	static, err := LoadStaticFile(path, time.UTC, logger)
	require.NoError(t, err)
	assert.Empty(t, static.Seats)
	assert.Empty(t, static.PrimaryBodies)
	assert.Empty(t, static.Persons)
	assert.Empty(t, static.KnownPersons())
}

func TestLoadStaticFileMissing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err := LoadStaticFile(filepath.Join(t.TempDir(), "nope.json"), time.UTC, logger)
	assert.Error(t, err)
}
