package roster

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"civic_fetcher/internal/ingestion"
)

// StaticData is the long-lived known-good roster loaded at process
// start: seats and primary governing bodies defined top-level, and
// persons keyed by canonical name. It is produced by a separate
// periodic dump process and is never written back by this system.
type StaticData struct {
	Seats         map[string]*ingestion.Seat
	PrimaryBodies map[string]*ingestion.Body
	Persons       map[string]*ingestion.Person
}

// KnownPersons returns the roster persons as a slice.
func (d *StaticData) KnownPersons() []*ingestion.Person {
	persons := make([]*ingestion.Person, 0, len(d.Persons))
	for _, p := range d.Persons {
		persons = append(persons, p)
	}
	return persons
}

type staticFile struct {
	Seats         map[string]*ingestion.Seat `json:"seats"`
	PrimaryBodies map[string]*ingestion.Body `json:"primary_bodies"`
	Persons       map[string]*staticPerson   `json:"persons"`
}

// staticPerson is a person entry in the static data file. "seat" and
// "roles" are not direct serializations: the seat references a
// top-level seat by name and each role's body is either the name of a
// primary body or an inline body definition.
type staticPerson struct {
	Name             string        `json:"name"`
	Email            *string       `json:"email"`
	Phone            *string       `json:"phone"`
	Website          *string       `json:"website"`
	PictureURI       *string       `json:"picture_uri"`
	IsActive         *bool         `json:"is_active"`
	ExternalSourceID string        `json:"external_source_id"`
	Seat             string        `json:"seat"`
	Roles            []*staticRole `json:"roles"`
}

type staticRole struct {
	Title         string          `json:"title"`
	Body          json.RawMessage `json:"body"`
	StartDatetime *int64          `json:"start_datetime"`
	EndDatetime   *int64          `json:"end_datetime"`
}

var roleTitles = map[string]struct{}{
	ingestion.RoleCouncilmember:    {},
	ingestion.RoleCouncilPresident: {},
	ingestion.RoleChair:            {},
	ingestion.RoleViceChair:        {},
	ingestion.RoleAlternate:        {},
	ingestion.RoleSupervisor:       {},
	ingestion.RoleMember:           {},
}

// LoadStaticFile parses seats, primary bodies and persons from a static
// data JSON file. Role start/end values are unix seconds interpreted in
// loc. Entries referencing undefined seats or primary bodies are logged
// and skipped rather than failing the whole load.
func LoadStaticFile(path string, loc *time.Location, logger *slog.Logger) (*StaticData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static data file: %w", err)
	}

	var file staticFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse static data file: %w", err)
	}

	static := &StaticData{
		Seats:         file.Seats,
		PrimaryBodies: file.PrimaryBodies,
		Persons:       make(map[string]*ingestion.Person, len(file.Persons)),
	}
	if static.Seats == nil {
		static.Seats = map[string]*ingestion.Seat{}
	}
	if static.PrimaryBodies == nil {
		static.PrimaryBodies = map[string]*ingestion.Body{}
	}

	for name, sp := range file.Persons {
		static.Persons[name] = parsePerson(sp, static, loc, logger)
	}

	logger.Debug("static data loaded",
		"path", path,
		"seats", len(static.Seats),
		"primary_bodies", len(static.PrimaryBodies),
		"persons", len(static.Persons),
	)
	return static, nil
}

func parsePerson(sp *staticPerson, static *StaticData, loc *time.Location, logger *slog.Logger) *ingestion.Person {
	person := &ingestion.Person{
		Name:             sp.Name,
		Email:            sp.Email,
		Phone:            sp.Phone,
		Website:          sp.Website,
		PictureURI:       sp.PictureURI,
		IsActive:         sp.IsActive == nil || *sp.IsActive,
		ExternalSourceID: sp.ExternalSourceID,
	}

	if sp.Seat == "" {
		return person
	}
	seat, ok := static.Seats[sp.Seat]
	if !ok {
		logger.Error("seat is not defined in top-level seats", "person", sp.Name, "seat", sp.Seat)
		return person
	}

	// copy so appended roles do not leak into the shared seat definition
	seatCopy := *seat
	seatCopy.Roles = nil
	person.Seat = &seatCopy

	for _, sr := range sp.Roles {
		role, err := parseRole(sr, static, loc)
		if err != nil {
			logger.Error("role is ignored", "person", sp.Name, "title", sr.Title, "error", err)
			continue
		}
		person.Seat.Roles = append(person.Seat.Roles, role)
	}
	return person
}

func parseRole(sr *staticRole, static *StaticData, loc *time.Location) (*ingestion.Role, error) {
	if _, ok := roleTitles[sr.Title]; !ok {
		return nil, fmt.Errorf("%q is not a known role title", sr.Title)
	}

	role := &ingestion.Role{Title: sr.Title}

	var bodyName string
	if err := json.Unmarshal(sr.Body, &bodyName); err == nil {
		primary, ok := static.PrimaryBodies[bodyName]
		if !ok {
			return nil, fmt.Errorf("%q is not defined in top-level primary_bodies", bodyName)
		}
		role.Body = primary
	} else {
		// an inline body defines a non-primary one, e.g. a committee
		// such as Transportation that is not the main/full council
		var body ingestion.Body
		if err := json.Unmarshal(sr.Body, &body); err != nil {
			return nil, fmt.Errorf("parse role body: %w", err)
		}
		role.Body = &body
	}

	if sr.StartDatetime != nil {
		t := time.Unix(*sr.StartDatetime, 0).In(loc)
		role.StartDatetime = &t
	}
	if sr.EndDatetime != nil {
		t := time.Unix(*sr.EndDatetime, 0).In(loc)
		role.EndDatetime = &t
	}
	return role, nil
}
