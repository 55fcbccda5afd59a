package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_fetcher/internal/ingestion"
)

func makeRole(title, body string, start, end time.Time) *ingestion.Role {
	return &ingestion.Role{
		Title:         title,
		Body:          &ingestion.Body{Name: body},
		StartDatetime: &start,
		EndDatetime:   &end,
	}
}

func TestSanitizeRolesStandardizesTitles(t *testing.T) {
	now := time.Now()
	start := now.AddDate(-1, 0, 0)
	end := now.AddDate(1, 0, 0)

	roles := []*ingestion.Role{
		makeRole("Council President Pro Tem", "City Council", start, end),
		makeRole("Committee Vice-Chair", "Transportation", start, end),
		makeRole("Alternate Member", "Transportation", start, end),
		makeRole("", "City Council", start, end),
		makeRole("Something Else", "Transportation", start, end),
	}

	sanitized := SanitizeRoles("Alice Aoki", roles, nil, DefaultTitlePatterns(), now)
	require.Len(t, sanitized, 5)

	assert.Equal(t, ingestion.RoleCouncilPresident, sanitized[0].Title)
	assert.Equal(t, ingestion.RoleViceChair, sanitized[1].Title)
	assert.Equal(t, ingestion.RoleAlternate, sanitized[2].Title)
	assert.Equal(t, ingestion.RoleCouncilmember, sanitized[3].Title)
	assert.Equal(t, ingestion.RoleMember, sanitized[4].Title)
}

func TestSanitizeRolesDropsBadPeriods(t *testing.T) {
	now := time.Now()

	expired := makeRole("Member", "Transportation", now.AddDate(-4, 0, 0), now.AddDate(-2, 0, 0))
	missing := &ingestion.Role{Title: "Member", Body: &ingestion.Body{Name: "Transportation"}}
	current := makeRole("Member", "Transportation", now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))

	sanitized := SanitizeRoles("Alice Aoki", []*ingestion.Role{expired, missing, current, nil}, nil, DefaultTitlePatterns(), now)
	require.Len(t, sanitized, 1)
	assert.Equal(t, ingestion.RoleMember, sanitized[0].Title)
}

func TestSanitizeRolesPrefersStaticPrimaryRoles(t *testing.T) {
	now := time.Now()
	start := now.AddDate(-1, 0, 0)
	end := now.AddDate(1, 0, 0)

	staticRole := makeRole(ingestion.RoleCouncilmember, "City Council", start, end)
	static := &StaticData{
		PrimaryBodies: map[string]*ingestion.Body{"City Council": {Name: "City Council"}},
		Persons: map[string]*ingestion.Person{
			"Alice Aoki": {
				Name: "Alice Aoki",
				Seat: &ingestion.Seat{Name: "Position 1", Roles: []*ingestion.Role{staticRole}},
			},
		},
	}

	scrapedPrimary := makeRole("Councilmember", "City Council", start, end)
	scrapedCommittee := makeRole("Chair", "Transportation", start, end)

	sanitized := SanitizeRoles(
		"Alice Aoki",
		[]*ingestion.Role{scrapedPrimary, scrapedCommittee},
		static,
		DefaultTitlePatterns(),
		now,
	)

	// the scraped primary role is replaced by the static one
	require.Len(t, sanitized, 2)
	assert.Same(t, staticRole, sanitized[1])
	assert.Equal(t, ingestion.RoleChair, sanitized[0].Title)
}

func TestSanitizeRolesClosesOverlappingTerms(t *testing.T) {
	now := time.Now()

	first := makeRole("Councilmember", "City Council", now.AddDate(-1, 0, 0), now.AddDate(0, 6, 0))
	second := makeRole("Councilmember", "City Council", now.AddDate(0, -1, 0), now.AddDate(1, 0, 0))

	sanitized := SanitizeRoles("Alice Aoki", []*ingestion.Role{first, second}, nil, DefaultTitlePatterns(), now)
	require.Len(t, sanitized, 2)

	// first term now ends the day before the second begins
	wantEnd := second.StartDatetime.AddDate(0, 0, -1)
	require.NotNil(t, first.EndDatetime)
	assert.True(t, first.EndDatetime.Equal(wantEnd))
	assert.True(t, first.EndDatetime.Before(*second.StartDatetime))
}
