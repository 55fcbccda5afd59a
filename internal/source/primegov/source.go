package primegov

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/source"
)

const (
	SourceID   = "primegov"
	SourceName = "PrimeGov"

	// search endpoint takes dates, the meeting payload carries the time
	searchDateLayout = "01/02/2006"
	isoLayout        = "2006-01-02T15:04:05"
	dateTimeLayout   = "01/02/2006 3:04 PM"

	// a template's agenda document compiled as a web page
	webPageOutputType = 3
)

// Config holds PrimeGov source configuration.
type Config struct {
	// Client is the PrimeGov installation name, e.g. "lacity".
	Client string
	// BaseURL overrides the https://{client}.primegov.com default.
	BaseURL  string
	Timeout  time.Duration
	Timezone *time.Location
}

// Source transforms PrimeGov public API meetings to ingestion events.
// Meetings map one to one onto events with a single session; agenda and
// journal documents are referenced by URI, not parsed.
type Source struct {
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	checker    *ingestion.Checker
	logger     *slog.Logger
}

// New creates a PrimeGov source for one installation.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Client == "" {
		return nil, fmt.Errorf("primegov: client name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.primegov.com", cfg.Client)
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	return &Source{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		loc:        cfg.Timezone,
		checker:    ingestion.NewChecker(),
		logger:     logger.With("source", SourceID, "client", cfg.Client),
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

// FetchEvents retrieves all PrimeGov meetings between begin and end and
// returns them as minimally viable ingestion events.
func (s *Source) FetchEvents(ctx context.Context, begin, end time.Time) ([]*ingestion.EventIngestionModel, error) {
	query := url.Values{}
	query.Set("from", begin.In(s.loc).Format(searchDateLayout))
	query.Set("to", end.In(s.loc).Format(searchDateLayout))
	searchURL := fmt.Sprintf("%s/api/meeting/search?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CivicFetcher/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search meetings: unexpected status: %d", resp.StatusCode)
	}

	var meetings []*apiMeeting
	if err := json.NewDecoder(resp.Body).Decode(&meetings); err != nil {
		return nil, fmt.Errorf("decode meetings: %w", err)
	}

	models := make([]*ingestion.EventIngestionModel, 0, len(meetings))
	for _, meeting := range meetings {
		models = append(models, s.transformMeeting(meeting))
	}

	events := ingestion.Reduce(models, false)
	s.logger.Debug("collected primegov meetings", "fetched", len(meetings), "viable", len(events))
	return events, nil
}

func (s *Source) transformMeeting(meeting *apiMeeting) *ingestion.EventIngestionModel {
	session := ingestion.NoneIfEmpty(s.checker, &ingestion.Session{
		SessionDatetime: s.meetingDatetime(meeting),
		SessionIndex:    0,
		VideoURI:        ingestion.Simplify(meeting.VideoURL),
	})

	return ingestion.NoneIfEmpty(s.checker, &ingestion.EventIngestionModel{
		ExternalSourceID: strconv.FormatInt(meeting.ID, 10),
		Body: ingestion.NoneIfEmpty(s.checker, &ingestion.Body{
			Name:     ingestion.Simplify(meeting.Title),
			IsActive: true,
		}),
		Sessions:   ingestion.Reduce([]*ingestion.Session{session}, true),
		AgendaURI:  s.documentURI(meeting, "agenda"),
		MinutesURI: s.documentURI(meeting, "journal"),
	})
}

// meetingDatetime parses the meeting datetime, falling back through the
// formats PrimeGov installations are known to serve.
func (s *Source) meetingDatetime(meeting *apiMeeting) *time.Time {
	if t, err := time.ParseInLocation(isoLayout, meeting.DateTime, s.loc); err == nil {
		return &t
	}
	combined := fmt.Sprintf("%s %s", meeting.Date, strings.TrimSpace(meeting.Time))
	if t, err := time.ParseInLocation(dateTimeLayout, combined, s.loc); err == nil {
		return &t
	}
	if t, err := time.ParseInLocation(searchDateLayout, meeting.Date, s.loc); err == nil {
		return &t
	}

	s.logger.Debug("failed to parse meeting datetime",
		"meeting_id", meeting.ID,
		"datetime", meeting.DateTime,
		"date", meeting.Date,
		"time", meeting.Time,
	)
	return nil
}

// documentURI finds the compiled document for the template with the
// given title, preferring the web page output when a template compiled
// to several formats.
func (s *Source) documentURI(meeting *apiMeeting, templateTitle string) *string {
	for _, template := range meeting.Templates {
		if !strings.EqualFold(strings.TrimSpace(template.Title), templateTitle) {
			continue
		}
		if len(template.Files) == 0 {
			continue
		}

		document := template.Files[0]
		for _, file := range template.Files {
			if file.CompileOutputType == webPageOutputType {
				document = file
				break
			}
		}

		uri := fmt.Sprintf("%s/Portal/MeetingPreview?compiledMeetingDocumentFileId=%d", s.baseURL, document.ID)
		return &uri
	}
	return nil
}
