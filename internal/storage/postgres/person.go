package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"civic_fetcher/internal/ingestion"
)

type PersonStore struct {
	db *sqlx.DB
}

func NewPersonStore(db *sqlx.DB) *PersonStore {
	return &PersonStore{db: db}
}

// UpsertBatch saves persons keyed by name and returns their row ids.
// Name is the identity within a source; equivalence across spellings is
// the roster engine's concern, not the store's.
func (s *PersonStore) UpsertBatch(ctx context.Context, persons []*ingestion.Person) (map[string]int64, error) {
	if len(persons) == 0 {
		return make(map[string]int64), nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO persons (name, email, phone, website, picture_uri, is_active, external_id) VALUES ")
	valueArgs := make([]interface{}, 0, len(persons)*7)

	for i, person := range persons {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < 7; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*7 + j + 1))
		}
		sb.WriteString(")")
		valueArgs = append(valueArgs,
			person.Name,
			person.Email,
			person.Phone,
			person.Website,
			person.PictureURI,
			person.IsActive,
			person.ExternalSourceID,
		)
	}
	sb.WriteString(` ON CONFLICT (name) DO UPDATE SET
		email = COALESCE(EXCLUDED.email, persons.email),
		phone = COALESCE(EXCLUDED.phone, persons.phone),
		website = COALESCE(EXCLUDED.website, persons.website),
		picture_uri = COALESCE(EXCLUDED.picture_uri, persons.picture_uri),
		is_active = EXCLUDED.is_active,
		external_id = EXCLUDED.external_id
	RETURNING id, name`)

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, sb.String(), valueArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64, len(persons))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		result[name] = id
	}

	return result, rows.Err()
}

// LinkToEvent replaces the persons observed at an event.
func (s *PersonStore) LinkToEvent(ctx context.Context, eventID int64, personIDs []int64) error {
	executor := GetExecutor(ctx, s.db)

	_, err := executor.ExecContext(ctx,
		"DELETE FROM event_persons WHERE event_id = $1",
		eventID,
	)
	if err != nil {
		return err
	}

	if len(personIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO event_persons (event_id, person_id) VALUES ")
	valueArgs := make([]interface{}, 0, len(personIDs)+1)
	valueArgs = append(valueArgs, eventID)

	for i, personID := range personIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(strconv.Itoa(i + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, personID)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err = executor.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

// GetByEventID returns the persons linked to an event.
func (s *PersonStore) GetByEventID(ctx context.Context, eventID int64) ([]string, error) {
	query := `
		SELECT p.name
		FROM persons p
		INNER JOIN event_persons ep ON ep.person_id = p.id
		WHERE ep.event_id = $1
		ORDER BY p.name`

	var names []string
	err := s.db.SelectContext(ctx, &names, query, eventID)
	return names, err
}
