package ingestion

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoneIfEmptySession(t *testing.T) {
	c := NewChecker()
	now := time.Now()

	// session_index 0 is a valid first index, not an empty value
	session := &Session{
		SessionDatetime: &now,
		SessionIndex:    0,
		VideoURI:        "https://video.example.com/archive/1.mp4",
	}
	assert.Equal(t, session, NoneIfEmpty(c, session))

	assert.Nil(t, NoneIfEmpty(c, &Session{SessionIndex: 1, VideoURI: "u"}))
	assert.Nil(t, NoneIfEmpty(c, &Session{SessionDatetime: &now, SessionIndex: 1}))

	var zero time.Time
	assert.Nil(t, NoneIfEmpty(c, &Session{SessionDatetime: &zero, SessionIndex: 1, VideoURI: "u"}))
}

func TestNoneIfEmptyEvent(t *testing.T) {
	c := NewChecker()
	now := time.Now()

	event := &EventIngestionModel{
		Body: &Body{Name: "City Council"},
		Sessions: []*Session{
			{SessionDatetime: &now, SessionIndex: 0, VideoURI: "https://v/0.mp4"},
		},
	}
	require.Equal(t, event, NoneIfEmpty(c, event))

	assert.Nil(t, NoneIfEmpty(c, &EventIngestionModel{Body: &Body{Name: "City Council"}}))
	assert.Nil(t, NoneIfEmpty(c, &EventIngestionModel{Sessions: event.Sessions}))

	// nested records are evaluated independently before being attached;
	// an unnamed body collapses on its own check and the event then
	// fails its required-field check through the nil
	assert.Nil(t, NoneIfEmpty(c, &EventIngestionModel{
		Body:     NoneIfEmpty(c, &Body{}),
		Sessions: event.Sessions,
	}))
}

func TestNoneIfEmptyOptionalFieldsIgnored(t *testing.T) {
	c := NewChecker()

	person := &Person{Name: "Jane Doe"}
	assert.Equal(t, person, NoneIfEmpty(c, person))
	assert.Nil(t, NoneIfEmpty(c, &Person{Email: ptr("jane@example.com")}))

	vote := &Vote{Person: person}
	assert.Equal(t, vote, NoneIfEmpty(c, vote))
	assert.Nil(t, NoneIfEmpty(c, &Vote{Decision: VoteApprove}))

	matter := &Matter{Name: "CB 120000", MatterType: "Ordinance", Title: "An ordinance"}
	assert.Equal(t, matter, NoneIfEmpty(c, matter))
	assert.Nil(t, NoneIfEmpty(c, &Matter{Name: "CB 120000", MatterType: "Ordinance"}))
}

func TestNoneIfEmptyNil(t *testing.T) {
	c := NewChecker()
	assert.Nil(t, NoneIfEmpty[Person](c, nil))
}

func TestCheckerCacheReuse(t *testing.T) {
	c := NewChecker()

	first := c.requiredFields(reflect.TypeOf(MinutesItem{}))
	second := c.requiredFields(reflect.TypeOf(MinutesItem{}))
	assert.Equal(t, first, second)
	assert.Len(t, first, 1)
}

func ptr(s string) *string { return &s }
