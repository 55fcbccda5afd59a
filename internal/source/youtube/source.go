package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/source"
)

const (
	SourceID   = "youtube"
	SourceName = "YouTube"

	searchDateLayout = "2006-01-02"
	titleDateLayout  = "January 2, 2006"
)

// titles carry the meeting date as e.g. "January 1, 1960"
var titleDatePattern = regexp.MustCompile(`(?i)[a-z]+ \d{1,2}, \d{4}`)

// Video is the metadata of one search hit.
type Video struct {
	ID    string
	Title string
	URL   string
}

// VideoLister runs a channel search URL and returns the hit videos. The
// production lister shells out to a video metadata extractor; tests
// supply their own.
type VideoLister interface {
	List(ctx context.Context, queryURL string) ([]Video, error)
}

// Config holds YouTube source configuration.
type Config struct {
	// Channel is the YouTube channel hosting the meeting videos.
	Channel string
	// BodySearchTerms maps a body name to the search terms that find its
	// meeting videos, e.g. {"City Council": "city council meeting"}.
	BodySearchTerms map[string]string
	Timezone        *time.Location
	Lister          VideoLister
}

// Source scrapes ingestion events from meeting videos hosted on a
// municipality's YouTube channel. Multiple videos of one body on the
// same day are sessions of the same event.
type Source struct {
	channel string
	terms   map[string]string
	loc     *time.Location
	lister  VideoLister
	checker *ingestion.Checker
	logger  *slog.Logger
}

// New creates a YouTube source for one channel.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("youtube: channel name is required")
	}
	if len(cfg.BodySearchTerms) == 0 {
		return nil, fmt.Errorf("youtube: at least one body search term is required")
	}
	if cfg.Lister == nil {
		return nil, fmt.Errorf("youtube: video lister is required")
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	return &Source{
		channel: cfg.Channel,
		terms:   cfg.BodySearchTerms,
		loc:     cfg.Timezone,
		lister:  cfg.Lister,
		checker: ingestion.NewChecker(),
		logger:  logger.With("source", SourceID, "channel", cfg.Channel),
	}, nil
}

var _ source.Source = (*Source)(nil)

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// SearchURL builds the channel search URL for the given terms and date
// range, e.g. https://www.youtube.com/@channel/search?query=...
func SearchURL(channel, terms string, begin, end time.Time) string {
	query := fmt.Sprintf("%s after:%s before:%s",
		terms,
		begin.Format(searchDateLayout),
		end.Format(searchDateLayout),
	)
	return fmt.Sprintf(
		"https://www.youtube.com/@%s/search?query=%s",
		channel, url.QueryEscape(strings.TrimSpace(query)),
	)
}

// FetchEvents searches the channel for each configured body and returns
// the hit videos as minimally viable ingestion events.
func (s *Source) FetchEvents(ctx context.Context, begin, end time.Time) ([]*ingestion.EventIngestionModel, error) {
	bodyNames := make([]string, 0, len(s.terms))
	for name := range s.terms {
		bodyNames = append(bodyNames, name)
	}
	sort.Strings(bodyNames)

	var models []*ingestion.EventIngestionModel
	for _, bodyName := range bodyNames {
		terms := s.terms[bodyName]
		queryURL := SearchURL(s.channel, terms, begin, end)

		videos, err := s.lister.List(ctx, queryURL)
		if err != nil {
			return nil, fmt.Errorf("list videos for %q: %w", bodyName, err)
		}
		models = append(models, s.transformVideos(bodyName, terms, videos, begin, end)...)
	}

	events := ingestion.Reduce(models, false)
	s.logger.Debug("collected youtube events", "viable", len(events))
	return events, nil
}

// transformVideos converts one body's search hits into events, grouping
// same-day videos into sessions of one event.
func (s *Source) transformVideos(bodyName, terms string, videos []Video, begin, end time.Time) []*ingestion.EventIngestionModel {
	// search results can include videos that do not match the terms, so
	// double-check each title
	sessions := make([]*ingestion.Session, 0, len(videos))
	for _, video := range videos {
		if !strings.Contains(strings.ToLower(video.Title), strings.ToLower(terms)) {
			continue
		}
		if session := s.transformVideo(video, begin, end); session != nil {
			sessions = append(sessions, session)
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].SessionDatetime.Before(*sessions[j].SessionDatetime)
	})

	var models []*ingestion.EventIngestionModel
	byDay := make(map[string][]*ingestion.Session)
	var days []string
	for _, session := range sessions {
		day := session.SessionDatetime.Format(searchDateLayout)
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], session)
	}

	for _, day := range days {
		grouped := byDay[day]
		for i, session := range grouped {
			session.SessionIndex = i
		}
		models = append(models, ingestion.NoneIfEmpty(s.checker, &ingestion.EventIngestionModel{
			Body: ingestion.NoneIfEmpty(s.checker, &ingestion.Body{
				Name:     ingestion.Simplify(bodyName),
				IsActive: true,
			}),
			Sessions:         grouped,
			ExternalSourceID: grouped[0].ExternalSourceID,
		}))
	}
	return models
}

func (s *Source) transformVideo(video Video, begin, end time.Time) *ingestion.Session {
	datetime := s.titleDatetime(video.Title)
	if datetime == nil {
		s.logger.Debug("no date in video title", "video_id", video.ID, "title", video.Title)
		return nil
	}
	if datetime.Before(begin) || datetime.After(end) {
		return nil
	}

	return ingestion.NoneIfEmpty(s.checker, &ingestion.Session{
		SessionDatetime:  datetime,
		VideoURI:         ingestion.Simplify(video.URL),
		ExternalSourceID: video.ID,
	})
}

func (s *Source) titleDatetime(title string) *time.Time {
	match := titleDatePattern.FindString(title)
	if match == "" {
		return nil
	}
	t, err := time.ParseInLocation(titleDateLayout, match, s.loc)
	if err != nil {
		return nil
	}
	return &t
}
