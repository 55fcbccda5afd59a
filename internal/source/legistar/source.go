package legistar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/source"
)

const (
	SourceID   = "legistar"
	SourceName = "Legistar"

	defaultBaseURL = "https://webapi.legistar.com/v1"

	// EventDate carries the day, EventTime the wall-clock time
	dateLayout = "2006-01-02T15:04:05"
	timeLayout = "3:04 PM"
)

// ContentURIs point at one video segment of a meeting.
type ContentURIs struct {
	VideoURI   string
	CaptionURI *string
}

// ContentResolver resolves video/caption URIs for an event whose
// EventVideoPath is empty, e.g. by scraping the municipality's video
// portal. Optional; resolution failures reduce recall, not
// availability.
type ContentResolver func(ctx context.Context, siteURL string) ([]ContentURIs, error)

// Config holds Legistar source configuration.
type Config struct {
	// Client is the Legistar installation name, e.g. "seattle".
	Client         string
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// IgnoreMinutesItems are regex patterns; any minutes item whose
	// name matches one is dropped, e.g. ceremonial roll-call items.
	IgnoreMinutesItems []string
	Patterns           source.DecisionPatterns

	Timezone *time.Location
	// KnownPersons fills in attributes (seat, picture, contact info)
	// the API leaves blank, keyed by canonical person name.
	KnownPersons map[string]*ingestion.Person
	// Aliases maps a canonical person name to alternate spellings seen
	// in the wild for this installation.
	Aliases map[string][]string

	Resolver ContentResolver
}

// Source transforms Legistar web API data to ingestion events.
type Source struct {
	httpClient *http.Client
	baseURL    string
	client     string

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	ignorePatterns []*regexp.Regexp
	patterns       source.DecisionPatterns
	loc            *time.Location
	known          map[string]*ingestion.Person
	aliases        map[string]string
	resolver       ContentResolver
	checker        *ingestion.Checker
	logger         *slog.Logger
}

// New creates a Legistar source for one installation.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Client == "" {
		return nil, fmt.Errorf("legistar: client name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	ignore := make([]*regexp.Regexp, 0, len(cfg.IgnoreMinutesItems))
	for _, pattern := range cfg.IgnoreMinutesItems {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("legistar: compile ignore pattern %q: %w", pattern, err)
		}
		ignore = append(ignore, re)
	}

	aliases := make(map[string]string)
	for canonical, alts := range cfg.Aliases {
		for _, alt := range alts {
			aliases[ingestion.Simplify(alt)] = canonical
		}
	}

	return &Source{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		client:         cfg.Client,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		ignorePatterns: ignore,
		patterns:       cfg.Patterns,
		loc:            cfg.Timezone,
		known:          cfg.KnownPersons,
		aliases:        aliases,
		resolver:       cfg.Resolver,
		checker:        ingestion.NewChecker(),
		logger:         logger.With("source", SourceID, "client", cfg.Client),
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

// fetchRun caches persons and bodies for the lifetime of one
// FetchEvents call. A person or body changing during a single call is
// not a concern, and the cache prevents tens to hundreds of duplicate
// requests for the same person or body.
type fetchRun struct {
	persons map[int64]*apiPerson
	bodies  map[int64]*apiBody
}

// FetchEvents retrieves all Legistar events between begin and end and
// returns them as minimally viable ingestion events.
func (s *Source) FetchEvents(ctx context.Context, begin, end time.Time) ([]*ingestion.EventIngestionModel, error) {
	run := &fetchRun{
		persons: make(map[int64]*apiPerson),
		bodies:  make(map[int64]*apiBody),
	}

	filter := fmt.Sprintf(
		"EventDate+ge+datetime%%27%s%%27+and+EventDate+lt+datetime%%27%s%%27",
		begin.UTC().Format(dateLayout),
		end.UTC().Format(dateLayout),
	)
	url := fmt.Sprintf("%s/%s/Events?$filter=%s", s.baseURL, s.client, filter)

	var apiEvents []*apiEvent
	if err := s.getJSON(ctx, url, &apiEvents); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	for _, ev := range apiEvents {
		if err := s.attachEventDetail(ctx, ev, run); err != nil {
			return nil, fmt.Errorf("fetch event %d detail: %w", ev.EventID, err)
		}
	}

	models := make([]*ingestion.EventIngestionModel, 0, len(apiEvents))
	for _, ev := range apiEvents {
		models = append(models, s.transformEvent(ctx, ev))
	}

	events := ingestion.Reduce(models, false)
	s.logger.Debug("collected legistar events", "fetched", len(apiEvents), "viable", len(events))
	return events, nil
}

func (s *Source) attachEventDetail(ctx context.Context, ev *apiEvent, run *fetchRun) error {
	itemsURL := fmt.Sprintf(
		"%s/%s/Events/%d/EventItems?AgendaNote=1&MinutesNote=1&Attachments=1",
		s.baseURL, s.client, ev.EventID,
	)
	if err := s.getJSON(ctx, itemsURL, &ev.Items); err != nil {
		return fmt.Errorf("event items: %w", err)
	}

	ev.Body = s.getBody(ctx, ev.EventBodyID, run)

	for _, item := range ev.Items {
		votesURL := fmt.Sprintf("%s/%s/EventItems/%d/Votes", s.baseURL, s.client, item.EventItemID)
		if err := s.getJSON(ctx, votesURL, &item.Votes); err != nil {
			return fmt.Errorf("votes for item %d: %w", item.EventItemID, err)
		}
		for _, vote := range item.Votes {
			vote.Person = s.getPerson(ctx, vote.VotePersonID, run)
		}

		if item.EventItemMatterID == nil || *item.EventItemMatterID < 0 {
			continue
		}
		sponsorsURL := fmt.Sprintf("%s/%s/Matters/%d/Sponsors", s.baseURL, s.client, *item.EventItemMatterID)
		if err := s.getJSON(ctx, sponsorsURL, &item.Sponsors); err != nil {
			return fmt.Errorf("sponsors for matter %d: %w", *item.EventItemMatterID, err)
		}
		// a matter sponsor only references a person, so obtain the
		// actual person information
		for _, sponsor := range item.Sponsors {
			sponsor.Person = s.getPerson(ctx, sponsor.MatterSponsorNameID, run)
		}
	}
	return nil
}

func (s *Source) getBody(ctx context.Context, bodyID int64, run *fetchRun) *apiBody {
	if body, ok := run.bodies[bodyID]; ok {
		return body
	}

	var body *apiBody
	url := fmt.Sprintf("%s/%s/Bodies/%d", s.baseURL, s.client, bodyID)
	if err := s.getJSON(ctx, url, &body); err != nil {
		s.logger.Warn("failed to fetch body", "body_id", bodyID, "error", err)
		body = nil
	}
	run.bodies[bodyID] = body
	return body
}

func (s *Source) getPerson(ctx context.Context, personID int64, run *fetchRun) *apiPerson {
	if person, ok := run.persons[personID]; ok {
		return person
	}

	var person *apiPerson
	url := fmt.Sprintf("%s/%s/Persons/%d", s.baseURL, s.client, personID)
	if err := s.getJSON(ctx, url, &person); err != nil {
		s.logger.Warn("failed to fetch person", "person_id", personID, "error", err)
		run.persons[personID] = nil
		return nil
	}

	var records []*apiOfficeRecord
	recordsURL := fmt.Sprintf("%s/%s/Persons/%d/OfficeRecords", s.baseURL, s.client, personID)
	if err := s.getJSON(ctx, recordsURL, &records); err != nil {
		s.logger.Debug("no office records", "person_id", personID, "error", err)
	} else {
		for _, record := range records {
			record.Body = s.getBody(ctx, record.OfficeRecordBodyID, run)
		}
		person.OfficeRecords = records
	}

	run.persons[personID] = person
	return person
}

func (s *Source) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= max(s.maxAttempts, 1); attempt++ {
		lastErr = s.doRequest(ctx, url, out)
		if lastErr == nil {
			return nil
		}
		if attempt == max(s.maxAttempts, 1) {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("after %d attempts: %w", max(s.maxAttempts, 1), lastErr)
}

func (s *Source) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CivicFetcher/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transformEvent(ctx context.Context, ev *apiEvent) *ingestion.EventIngestionModel {
	sessionTime := s.sessionDatetime(ev)

	// prefer the video file path in the event itself
	var uris []ContentURIs
	if video := deref(ev.EventVideoPath); video != "" {
		uris = []ContentURIs{{VideoURI: ingestion.Simplify(video)}}
	} else if s.resolver != nil {
		resolved, err := s.resolver(ctx, deref(ev.EventInSiteURL))
		if err != nil {
			s.logger.Debug("content resolution failed", "event_id", ev.EventID, "error", err)
		}
		uris = resolved
	}
	if len(uris) == 0 {
		uris = []ContentURIs{{}}
	}

	sessions := make([]*ingestion.Session, 0, len(uris))
	for i, u := range uris {
		var caption *string
		if u.CaptionURI != nil {
			caption = simplified(*u.CaptionURI)
		}
		sessions = append(sessions, ingestion.NoneIfEmpty(s.checker, &ingestion.Session{
			SessionDatetime: sessionTime,
			SessionIndex:    i,
			VideoURI:        ingestion.Simplify(u.VideoURI),
			CaptionURI:      caption,
		}))
	}

	return ingestion.NoneIfEmpty(s.checker, &ingestion.EventIngestionModel{
		ExternalSourceID:  strconv.FormatInt(ev.EventID, 10),
		AgendaURI:         simplifiedPtr(ev.EventAgendaFile),
		MinutesURI:        simplifiedPtr(ev.EventMinutesFile),
		Body:              s.transformBody(ev.Body),
		Sessions:          ingestion.Reduce(sessions, true),
		EventMinutesItems: s.transformEventMinutes(ev.Items),
	})
}

// sessionDatetime combines EventDate and EventTime into a local
// datetime. Returning local time with zone info, rather than UTC, lets
// the downstream pipeline find out what the local zone is.
func (s *Source) sessionDatetime(ev *apiEvent) *time.Time {
	if ev.EventDate == nil {
		return nil
	}
	date, err := time.Parse(dateLayout, *ev.EventDate)
	if err != nil {
		s.logger.Warn("failed to parse event date", "event_id", ev.EventID, "date", *ev.EventDate)
		return nil
	}

	combined := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	if ev.EventTime != nil {
		if clock, err := time.Parse(timeLayout, strings.TrimSpace(*ev.EventTime)); err == nil {
			combined = time.Date(
				date.Year(), date.Month(), date.Day(),
				clock.Hour(), clock.Minute(), 0, 0, s.loc,
			)
		}
	}
	return &combined
}

func (s *Source) transformBody(body *apiBody) *ingestion.Body {
	if body == nil {
		return nil
	}
	return ingestion.NoneIfEmpty(s.checker, &ingestion.Body{
		Name:             ingestion.Simplify(deref(body.BodyName)),
		IsActive:         body.BodyActiveFlag == 1,
		ExternalSourceID: strconv.FormatInt(body.BodyID, 10),
	})
}

func (s *Source) transformEventMinutes(items []*apiEventItem) []*ingestion.EventMinutesItem {
	models := make([]*ingestion.EventMinutesItem, 0, len(items))
	for _, item := range items {
		models = append(models, s.transformEventMinutesItem(item))
	}
	return ingestion.Reduce(models, true)
}

func (s *Source) transformEventMinutesItem(item *apiEventItem) *ingestion.EventMinutesItem {
	minutesItem := ingestion.NoneIfEmpty(s.checker, &ingestion.MinutesItem{
		Name:             ingestion.Simplify(deref(item.EventItemTitle)),
		ExternalSourceID: strconv.FormatInt(item.EventItemID, 10),
	})
	if minutesItem == nil || s.ignored(minutesItem.Name) {
		return nil
	}

	votes := make([]*ingestion.Vote, 0, len(item.Votes))
	for _, vote := range item.Votes {
		votes = append(votes, s.transformVote(vote))
	}

	files := make([]*ingestion.SupportingFile, 0, len(item.EventItemMatterAttachments))
	for _, att := range item.EventItemMatterAttachments {
		files = append(files, ingestion.NoneIfEmpty(s.checker, &ingestion.SupportingFile{
			Name:             ingestion.Simplify(deref(att.MatterAttachmentName)),
			URI:              ingestion.Simplify(deref(att.MatterAttachmentHyperlink)),
			ExternalSourceID: strconv.FormatInt(att.MatterAttachmentID, 10),
		}))
	}

	model := &ingestion.EventMinutesItem{
		MinutesItem:     minutesItem,
		Index:           item.EventItemMinutesSequence,
		Matter:          s.transformMatter(item),
		Votes:           ingestion.Reduce(votes, true),
		SupportingFiles: ingestion.Reduce(files, true),
	}
	// a decision is only meaningful when votes were recorded
	if len(model.Votes) > 0 {
		model.Decision = s.patterns.MinutesDecision(deref(item.EventItemPassedFlagName))
	}
	return ingestion.NoneIfEmpty(s.checker, model)
}

func (s *Source) ignored(name string) bool {
	for _, re := range s.ignorePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (s *Source) transformMatter(item *apiEventItem) *ingestion.Matter {
	if item.EventItemMatterID == nil {
		return nil
	}

	sponsors := make([]*ingestion.Person, 0, len(item.Sponsors))
	for _, sponsor := range item.Sponsors {
		sponsors = append(sponsors, s.transformPerson(sponsor.Person))
	}

	return ingestion.NoneIfEmpty(s.checker, &ingestion.Matter{
		Name:             ingestion.Simplify(deref(item.EventItemMatterName)),
		MatterType:       ingestion.Simplify(deref(item.EventItemMatterType)),
		Title:            ingestion.Simplify(deref(item.EventItemMatterFile)),
		Sponsors:         ingestion.Reduce(sponsors, true),
		ResultStatus:     s.patterns.MatterStatus(deref(item.EventItemMatterStatus)),
		ExternalSourceID: strconv.FormatInt(*item.EventItemMatterID, 10),
	})
}

func (s *Source) transformVote(vote *apiVote) *ingestion.Vote {
	value := deref(vote.VoteValueName)
	if value == "" && vote.VoteValueID == nil {
		return nil
	}
	return ingestion.NoneIfEmpty(s.checker, &ingestion.Vote{
		Person:           s.transformPerson(vote.Person),
		Decision:         s.patterns.VoteDecision(value),
		ExternalSourceID: strconv.FormatInt(vote.VoteID, 10),
	})
}

func (s *Source) transformPerson(person *apiPerson) *ingestion.Person {
	if person == nil {
		return nil
	}

	name := s.resolveAlias(ingestion.Simplify(deref(person.PersonFullName)))

	model := &ingestion.Person{
		Name:             name,
		Email:            simplifiedPtr(person.PersonEmail),
		Phone:            simplifiedPtr(person.PersonPhone),
		Website:          simplifiedPtr(person.PersonWWW),
		IsActive:         person.PersonActiveFlag == 1,
		ExternalSourceID: strconv.FormatInt(person.PersonID, 10),
	}

	roles := make([]*ingestion.Role, 0, len(person.OfficeRecords))
	for _, record := range person.OfficeRecords {
		roles = append(roles, s.transformRole(record))
	}
	if len(roles) > 0 {
		model.Seat = &ingestion.Seat{Roles: ingestion.Reduce(roles, true)}
	}

	s.injectKnown(model)
	return ingestion.NoneIfEmpty(s.checker, model)
}

func (s *Source) transformRole(record *apiOfficeRecord) *ingestion.Role {
	role := ingestion.NoneIfEmpty(s.checker, &ingestion.Role{
		Title:            ingestion.Simplify(deref(record.OfficeRecordTitle)),
		Body:             s.transformBody(record.Body),
		ExternalSourceID: strconv.FormatInt(record.OfficeRecordID, 10),
	})
	if role == nil {
		return nil
	}
	if start := parseDate(deref(record.OfficeRecordStartDate), s.loc); start != nil {
		role.StartDatetime = start
	}
	if end := parseDate(deref(record.OfficeRecordEndDate), s.loc); end != nil {
		role.EndDatetime = end
	}
	return role
}

// resolveAlias replaces a name the installation spells inconsistently
// with its canonical form so improperly distinct persons resolve to the
// one correct person.
func (s *Source) resolveAlias(name string) string {
	if canonical, ok := s.aliases[name]; ok {
		s.logger.Debug("resolved person alias", "alias", name, "canonical", canonical)
		return canonical
	}
	return name
}

// injectKnown fills attributes the API left blank from the static
// roster, e.g. picture URI and seat, which Legistar does not serve.
func (s *Source) injectKnown(person *ingestion.Person) {
	known, ok := s.known[person.Name]
	if !ok {
		return
	}
	if person.Email == nil {
		person.Email = known.Email
	}
	if person.Phone == nil {
		person.Phone = known.Phone
	}
	if person.Website == nil {
		person.Website = known.Website
	}
	if person.PictureURI == nil {
		person.PictureURI = known.PictureURI
	}
	if person.Seat == nil {
		person.Seat = known.Seat
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func simplified(s string) *string {
	cleaned := ingestion.Simplify(s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func simplifiedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return simplified(*s)
}

func parseDate(value string, loc *time.Location) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil
	}
	return &t
}
