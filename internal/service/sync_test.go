package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civic_fetcher/internal/config"
	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/roster"
	"civic_fetcher/internal/service/mocks"
)

type SyncServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source     *mocks.MockSource
	events     *mocks.MockEventStore
	persons    *mocks.MockPersonStore
	syncState  *mocks.MockSyncStateStore
	txManager  *mocks.MockTransactionManager
	publisher  *mocks.MockPublisher
	reconciler *mocks.MockReconciler

	service *SyncService
	static  *roster.StaticData
	cfg     config.SyncConfig
	logger  *slog.Logger
}

func (s *SyncServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.events = mocks.NewMockEventStore(s.ctrl)
	s.persons = mocks.NewMockPersonStore(s.ctrl)
	s.syncState = mocks.NewMockSyncStateStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.reconciler = mocks.NewMockReconciler(s.ctrl)

	s.cfg = config.SyncConfig{
		Interval:     6 * time.Hour,
		LookbackDays: 2,
		Timeout:      time.Minute,
	}

	s.static = &roster.StaticData{
		Persons: map[string]*ingestion.Person{
			"Alice Aoki": {Name: "Alice Aoki", IsActive: true},
		},
		PrimaryBodies: map[string]*ingestion.Body{
			"City Council": {Name: "City Council", IsActive: true},
		},
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().ID().Return("test-source").AnyTimes()
	s.source.EXPECT().Name().Return("Test Source").AnyTimes()

	s.service = NewSyncService(
		[]Source{s.source},
		s.events,
		s.persons,
		s.syncState,
		s.txManager,
		s.publisher,
		s.reconciler,
		s.static,
		s.logger,
		s.cfg,
	)
}

func (s *SyncServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}

func makeEvent(externalID string) *ingestion.EventIngestionModel {
	datetime := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	return &ingestion.EventIngestionModel{
		ExternalSourceID: externalID,
		Body:             &ingestion.Body{Name: "City Council", IsActive: true},
		Sessions: []*ingestion.Session{
			{SessionDatetime: &datetime, VideoURI: "https://video.example/" + externalID},
		},
	}
}

func makeEventWithVoter(externalID, voter string) *ingestion.EventIngestionModel {
	event := makeEvent(externalID)
	event.EventMinutesItems = []*ingestion.EventMinutesItem{
		{
			MinutesItem: &ingestion.MinutesItem{Name: "CB 100"},
			Votes: []*ingestion.Vote{
				{Person: &ingestion.Person{Name: voter, IsActive: true}, Decision: ingestion.VoteApprove},
			},
		},
	}
	return event
}

func (s *SyncServiceTestSuite) TestSync_NewEvents() {
	ctx := context.Background()
	event := makeEventWithVoter("1", "Alice Aoki")
	events := []*ingestion.EventIngestionModel{event}

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).Return(events, nil)

	s.events.EXPECT().GetExistingHashes(ctx, "test-source", []string{"1"}).Return(map[string]string{}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.events.EXPECT().Upsert(ctx, "test-source", event, gomock.Any()).Return(int64(100), nil)
	s.persons.EXPECT().UpsertBatch(ctx, gomock.Any()).Return(map[string]int64{"Alice Aoki": 7}, nil)
	s.persons.EXPECT().LinkToEvent(ctx, int64(100), []int64{7}).Return(nil)

	s.publisher.EXPECT().Publish(ctx, "test-source", event, true).Return(nil)

	s.reconciler.EXPECT().
		Compare(ctx, gomock.Any(), s.static.Persons, s.static.PrimaryBodies, gomock.Any()).
		Return(roster.Comparison{})

	s.syncState.EXPECT().Get(ctx, "test-source").Return(&ingestion.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	allStats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Require().Len(allStats, 1)
	stats := allStats[0]
	s.Equal(1, stats.Fetched)
	s.Equal(1, stats.New)
	s.Equal(0, stats.Updated)
	s.Equal(0, stats.Skipped)
	s.Equal(1, stats.Published)
}

func (s *SyncServiceTestSuite) TestSync_SkipsUnchangedEvents() {
	ctx := context.Background()
	event := makeEvent("1")
	hash, err := ingestion.ContentHash(event)
	s.Require().NoError(err)

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).
		Return([]*ingestion.EventIngestionModel{event}, nil)

	s.events.EXPECT().GetExistingHashes(ctx, "test-source", []string{"1"}).
		Return(map[string]string{"1": hash}, nil)

	s.syncState.EXPECT().Get(ctx, "test-source").Return(&ingestion.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	allStats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Require().Len(allStats, 1)
	s.Equal(1, allStats[0].Fetched)
	s.Equal(1, allStats[0].Skipped)
	s.Equal(0, allStats[0].New)
	s.Equal(0, allStats[0].Published)
}

func (s *SyncServiceTestSuite) TestSync_UpdatedEvents() {
	ctx := context.Background()
	event := makeEvent("1")

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).
		Return([]*ingestion.EventIngestionModel{event}, nil)

	s.events.EXPECT().GetExistingHashes(ctx, "test-source", []string{"1"}).
		Return(map[string]string{"1": "stale-hash"}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.events.EXPECT().Upsert(ctx, "test-source", event, gomock.Any()).Return(int64(100), nil)

	s.publisher.EXPECT().Publish(ctx, "test-source", event, false).Return(nil)

	s.syncState.EXPECT().Get(ctx, "test-source").Return(&ingestion.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	allStats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Require().Len(allStats, 1)
	s.Equal(0, allStats[0].New)
	s.Equal(1, allStats[0].Updated)
	s.Equal(1, allStats[0].Published)
}

func (s *SyncServiceTestSuite) TestSync_SourceError() {
	ctx := context.Background()

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("api error"))

	allStats, err := s.service.Sync(ctx)

	// a failing source is counted, not fatal
	s.NoError(err)
	s.Require().Len(allStats, 1)
	s.Equal("test-source", allStats[0].SourceID)
	s.Equal(1, allStats[0].Errors)
}

func (s *SyncServiceTestSuite) TestSync_RosterComparison() {
	ctx := context.Background()
	event := makeEventWithVoter("1", "Bob Birch")
	hash, err := ingestion.ContentHash(event)
	s.Require().NoError(err)

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).
		Return([]*ingestion.EventIngestionModel{event}, nil)

	s.events.EXPECT().GetExistingHashes(ctx, "test-source", []string{"1"}).
		Return(map[string]string{"1": hash}, nil)

	s.reconciler.EXPECT().
		Compare(ctx, gomock.Any(), s.static.Persons, s.static.PrimaryBodies, gomock.Any()).
		Return(roster.Comparison{
			OldNames: []string{"Alice Aoki"},
			NewNames: []string{"Bob Birch"},
		})

	s.syncState.EXPECT().Get(ctx, "test-source").Return(&ingestion.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	allStats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Require().Len(allStats, 1)
	s.Equal([]string{"Alice Aoki"}, allStats[0].OldMembers)
	s.Equal([]string{"Bob Birch"}, allStats[0].NewMembers)
}

func (s *SyncServiceTestSuite) TestSync_PublisherNil() {
	ctx := context.Background()
	event := makeEvent("1")

	service := NewSyncService(
		[]Source{s.source},
		s.events,
		s.persons,
		s.syncState,
		s.txManager,
		nil,
		s.reconciler,
		s.static,
		s.logger,
		s.cfg,
	)

	s.source.EXPECT().FetchEvents(ctx, gomock.Any(), gomock.Any()).
		Return([]*ingestion.EventIngestionModel{event}, nil)

	s.events.EXPECT().GetExistingHashes(ctx, "test-source", []string{"1"}).Return(map[string]string{}, nil)

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.events.EXPECT().Upsert(ctx, "test-source", event, gomock.Any()).Return(int64(100), nil)

	s.syncState.EXPECT().Get(ctx, "test-source").Return(&ingestion.SyncState{SourceID: "test-source"}, nil)
	s.syncState.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	allStats, err := service.Sync(ctx)

	s.NoError(err)
	s.Require().Len(allStats, 1)
	s.Equal(1, allStats[0].New)
	s.Equal(0, allStats[0].Published)
}
