package roster

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"civic_fetcher/internal/ingestion"
)

// TitlePatterns configures how free-text role titles are standardized.
// Each entry is a regex alternative matched case-insensitively.
type TitlePatterns struct {
	CouncilPresident []string
	Chair            []string
}

// DefaultTitlePatterns are reasonably good defaults for most
// municipalities.
func DefaultTitlePatterns() TitlePatterns {
	return TitlePatterns{
		CouncilPresident: []string{"chair", "pres", "super"},
		Chair:            []string{"chair", "pres"},
	}
}

var defaultPrimaryBodyNames = []string{"city council", "council briefing"}

// SanitizeRoles standardizes scraped role titles to the known constants
// and keeps at most one councilmember term per body per period.
//
// When the static data defines primary roles for the person, scraped
// primary-body roles are dropped in favor of the static ones. Roles for
// non-primary bodies can never carry a Councilmember or Council
// President title.
func SanitizeRoles(
	personName string,
	roles []*ingestion.Role,
	static *StaticData,
	patterns TitlePatterns,
	now time.Time,
) []*ingestion.Role {
	primaryNames := primaryBodyNames(static)
	staticRoles := staticPrimaryRoles(static, personName)
	havePrimary := len(staticRoles) > 0

	isPrimary := func(role *ingestion.Role) bool {
		if role.Body == nil || role.Body.Name == "" {
			return false
		}
		name := strings.ToLower(ingestion.Simplify(role.Body.Name))
		for _, primary := range primaryNames {
			if name == primary {
				return true
			}
		}
		return false
	}

	var kept []*ingestion.Role
	for _, role := range roles {
		if role == nil || !periodOK(role, staticRoles, havePrimary, now) {
			continue
		}
		if havePrimary && isPrimary(role) {
			// primary roles are given in static data
			continue
		}
		kept = append(kept, role)
	}

	presidentRe := regexp.MustCompile("(?i)" + strings.Join(patterns.CouncilPresident, "|"))
	chairRe := regexp.MustCompile("(?i)" + strings.Join(patterns.Chair, "|"))
	for _, role := range kept {
		if isPrimary(role) {
			role.Title = primaryTitle(role.Title, presidentRe)
		} else {
			role.Title = nonPrimaryTitle(role.Title, chairRe)
		}
	}

	memberTermsByBody := councilmemberTermsByBody(kept, havePrimary)

	if havePrimary {
		kept = append(kept, staticRoles...)
	}

	// if a councilmember term overlaps the next one for the same body,
	// end it the day before the next begins
	for _, terms := range memberTermsByBody {
		for i := 1; i < len(terms); i++ {
			prev, this := terms[i-1], terms[i]
			if prev.EndDatetime.After(*this.StartDatetime) {
				end := this.StartDatetime.AddDate(0, 0, -1)
				prev.EndDatetime = &end
			}
		}
	}

	return kept
}

func primaryBodyNames(static *StaticData) []string {
	if static == nil || len(static.PrimaryBodies) == 0 {
		return defaultPrimaryBodyNames
	}
	names := make([]string, 0, len(static.PrimaryBodies))
	for name := range static.PrimaryBodies {
		names = append(names, strings.ToLower(name))
	}
	return names
}

func staticPrimaryRoles(static *StaticData, personName string) []*ingestion.Role {
	if static == nil {
		return nil
	}
	person, ok := static.Persons[personName]
	if !ok || person == nil || person.Seat == nil {
		return nil
	}
	return person.Seat.Roles
}

// periodOK tests that a role's start/end datetimes are acceptable:
// current when no static roles exist, or coinciding with a static term.
func periodOK(role *ingestion.Role, staticRoles []*ingestion.Role, havePrimary bool, now time.Time) bool {
	if role.StartDatetime == nil || role.EndDatetime == nil {
		return false
	}
	if !havePrimary {
		return !role.StartDatetime.After(now) && !now.After(*role.EndDatetime)
	}
	for _, staticRole := range staticRoles {
		if staticRole.StartDatetime == nil || staticRole.EndDatetime == nil {
			continue
		}
		if !staticRole.StartDatetime.After(*role.StartDatetime) &&
			!role.EndDatetime.After(*staticRole.EndDatetime) {
			return true
		}
	}
	return false
}

func primaryTitle(title string, presidentRe *regexp.Regexp) string {
	if title != "" && presidentRe.MatchString(ingestion.Simplify(title)) {
		return ingestion.RoleCouncilPresident
	}
	return ingestion.RoleCouncilmember
}

func nonPrimaryTitle(title string, chairRe *regexp.Regexp) string {
	if title == "" {
		return ingestion.RoleMember
	}
	lowered := strings.ToLower(ingestion.Simplify(title))
	switch {
	case strings.Contains(lowered, "vice"):
		return ingestion.RoleViceChair
	case strings.Contains(lowered, "alt"):
		return ingestion.RoleAlternate
	case strings.Contains(lowered, "super"):
		return ingestion.RoleSupervisor
	case chairRe.MatchString(lowered):
		return ingestion.RoleChair
	}
	return ingestion.RoleMember
}

// councilmemberTermsByBody groups dynamically scraped councilmember
// terms per body, oldest first. Simultaneous councilmember roles in
// different bodies are acceptable and common, so overlap checks run per
// body.
func councilmemberTermsByBody(roles []*ingestion.Role, havePrimary bool) map[string][]*ingestion.Role {
	if havePrimary {
		return nil
	}

	byBody := make(map[string][]*ingestion.Role)
	for _, role := range roles {
		if role.Title != ingestion.RoleCouncilmember ||
			role.StartDatetime == nil || role.EndDatetime == nil ||
			role.Body == nil {
			continue
		}
		byBody[role.Body.Name] = append(byBody[role.Body.Name], role)
	}
	for _, terms := range byBody {
		sort.Slice(terms, func(i, j int) bool {
			if !terms[i].StartDatetime.Equal(*terms[j].StartDatetime) {
				return terms[i].StartDatetime.Before(*terms[j].StartDatetime)
			}
			return terms[i].EndDatetime.Before(*terms[j].EndDatetime)
		})
	}
	return byBody
}
