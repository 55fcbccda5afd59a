package roster

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"civic_fetcher/internal/ingestion"
	"civic_fetcher/internal/names"
)

// Comparison holds the result of reconciling scraped persons against
// the known roster: names of known persons who appear to have left and
// names of scraped persons not in the roster. It is a signal for human
// review, never an automatic roster mutation.
type Comparison struct {
	OldNames []string
	NewNames []string
}

// Engine reconciles freshly scraped persons against the static known
// roster. Persons are matched by name equivalence, not exact string
// equality, because the same human appears with minor spelling and
// title variants across sources over time.
type Engine struct {
	matcher *names.Matcher
	logger  *slog.Logger
}

func NewEngine(matcher *names.Matcher, logger *slog.Logger) *Engine {
	return &Engine{
		matcher: matcher,
		logger:  logger.With("component", "roster"),
	}
}

// ExtractPersons collects the distinct persons referenced as a matter
// sponsor or a vote's person across all minutes items of all events,
// deduplicated by simplified name. The last occurrence wins, keeping
// the most recently scraped seat and role data.
func ExtractPersons(events []*ingestion.EventIngestionModel) []*ingestion.Person {
	seen := make(map[string]int)
	var persons []*ingestion.Person

	add := func(p *ingestion.Person) {
		if p == nil {
			return
		}
		key := ingestion.Simplify(p.Name)
		if i, ok := seen[key]; ok {
			persons[i] = p
			return
		}
		seen[key] = len(persons)
		persons = append(persons, p)
	}

	for _, event := range ingestion.Reduce(events, false) {
		for _, item := range ingestion.Reduce(event.EventMinutesItems, false) {
			if item.Matter != nil {
				for _, sponsor := range ingestion.Reduce(item.Matter.Sponsors, false) {
					add(sponsor)
				}
			}
			for _, vote := range ingestion.Reduce(item.Votes, false) {
				add(vote.Person)
			}
		}
	}
	return persons
}

// Compare looks for old and new council members. A known person is old
// when no scraped person matches them, the match is inactive, or the
// match's primary-body terms have all lapsed. A scraped person is new
// when no known person matches them. Empty inputs are fine: an empty
// roster makes every scraped person new and an empty scraped set makes
// every known person old.
func (e *Engine) Compare(
	ctx context.Context,
	scraped []*ingestion.Person,
	known map[string]*ingestion.Person,
	primaryBodies map[string]*ingestion.Body,
	now time.Time,
) Comparison {
	var comparison Comparison

	for knownName := range known {
		match := e.findMatch(ctx, scraped, knownName)
		switch {
		case match == nil:
			comparison.OldNames = append(comparison.OldNames, knownName)
		case !match.IsActive:
			comparison.OldNames = append(comparison.OldNames, knownName)
		case termExpired(match, primaryBodies, now):
			comparison.OldNames = append(comparison.OldNames, knownName)
		}
	}

	for _, person := range scraped {
		if person == nil {
			continue
		}
		if !e.knownContains(ctx, known, person.Name) {
			comparison.NewNames = append(comparison.NewNames, person.Name)
		}
	}

	sort.Strings(comparison.OldNames)
	sort.Strings(comparison.NewNames)
	return comparison
}

func (e *Engine) findMatch(ctx context.Context, scraped []*ingestion.Person, name string) *ingestion.Person {
	for _, person := range scraped {
		if person == nil {
			continue
		}
		if e.matcher.Equivalent(ctx, person.Name, name) {
			return person
		}
	}
	return nil
}

func (e *Engine) knownContains(ctx context.Context, known map[string]*ingestion.Person, name string) bool {
	for knownName := range known {
		if e.matcher.Equivalent(ctx, name, knownName) {
			return true
		}
	}
	return false
}

// termExpired reports whether all of the person's roles on the given
// primary bodies ended strictly before today. Persons holding no
// primary-body role are never flagged by this check.
func termExpired(person *ingestion.Person, primaryBodies map[string]*ingestion.Body, now time.Time) bool {
	if person.Seat == nil || len(primaryBodies) == 0 {
		return false
	}

	held := false
	for _, role := range person.Seat.Roles {
		if role == nil || role.Body == nil {
			continue
		}
		if _, ok := primaryBodies[role.Body.Name]; !ok {
			continue
		}
		held = true
		if role.EndDatetime == nil || !dateBefore(*role.EndDatetime, now) {
			// an open-ended or current term keeps the person active
			return false
		}
	}
	return held
}

// dateBefore compares calendar dates, ignoring time of day.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
