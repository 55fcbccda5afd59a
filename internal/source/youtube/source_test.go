package youtube

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	videos   map[string][]Video
	err      error
	queryURL string
}

func (f *fakeLister) List(_ context.Context, queryURL string) ([]Video, error) {
	f.queryURL = queryURL
	if f.err != nil {
		return nil, f.err
	}
	return f.videos[queryURL], nil
}

func newTestSource(t *testing.T, lister VideoLister) *Source {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	src, err := New(Config{
		Channel:         "testcitycouncil",
		BodySearchTerms: map[string]string{"City Council": "city council meeting"},
		Timezone:        time.UTC,
		Lister:          lister,
	}, logger)
	require.NoError(t, err)
	return src
}

func TestSearchURL(t *testing.T) {
	begin := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	url := SearchURL("testcitycouncil", "city council meeting", begin, end)
	assert.Equal(
		t,
		"https://www.youtube.com/@testcitycouncil/search?query=city+council+meeting+after%3A2026-08-10+before%3A2026-08-14",
		url,
	)
}

func TestFetchEvents(t *testing.T) {
	begin := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	queryURL := SearchURL("testcitycouncil", "city council meeting", begin, end)

	lister := &fakeLister{videos: map[string][]Video{
		queryURL: {
			{ID: "v1", Title: "City Council Meeting August 11, 2026 Part 2", URL: "https://youtu.be/v1"},
			{ID: "v2", Title: "City Council Meeting August 11, 2026 Part 1", URL: "https://youtu.be/v2"},
			{ID: "v3", Title: "City Council Meeting August 12, 2026", URL: "https://youtu.be/v3"},
			{ID: "v4", Title: "Parks Board Meeting August 12, 2026", URL: "https://youtu.be/v4"},
			{ID: "v5", Title: "City Council Meeting July 1, 2026", URL: "https://youtu.be/v5"},
			{ID: "v6", Title: "City Council Meeting highlights reel", URL: "https://youtu.be/v6"},
		},
	}}

	src := newTestSource(t, lister)
	events, err := src.FetchEvents(context.Background(), begin, end)
	require.NoError(t, err)
	assert.Equal(t, queryURL, lister.queryURL)

	// v4 fails the title check, v5 is out of range, v6 has no date;
	// v1 and v2 are same-day sessions of one event
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "v1", first.ExternalSourceID)
	require.NotNil(t, first.Body)
	assert.Equal(t, "City Council", first.Body.Name)
	require.Len(t, first.Sessions, 2)
	assert.Equal(t, 0, first.Sessions[0].SessionIndex)
	assert.Equal(t, 1, first.Sessions[1].SessionIndex)
	assert.ElementsMatch(
		t,
		[]string{"v1", "v2"},
		[]string{first.Sessions[0].ExternalSourceID, first.Sessions[1].ExternalSourceID},
	)
	require.NotNil(t, first.Sessions[0].SessionDatetime)
	assert.Equal(t, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC), *first.Sessions[0].SessionDatetime)

	second := events[1]
	require.Len(t, second.Sessions, 1)
	assert.Equal(t, "https://youtu.be/v3", second.Sessions[0].VideoURI)
}

func TestFetchEventsListerError(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	src := newTestSource(t, lister)

	_, err := src.FetchEvents(context.Background(), time.Now().Add(-48*time.Hour), time.Now())
	assert.Error(t, err)
}

func TestSourceIdentity(t *testing.T) {
	src := newTestSource(t, &fakeLister{})
	assert.Equal(t, SourceID, src.ID())
	assert.Equal(t, SourceName, src.Name())
}
