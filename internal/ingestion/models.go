package ingestion

import "time"

// Matter result statuses.
const (
	MatterAdopted    = "ADOPTED"
	MatterInProgress = "IN_PROGRESS"
	MatterRejected   = "REJECTED"
)

// Vote decisions.
const (
	VoteApprove          = "APPROVE"
	VoteReject           = "REJECT"
	VoteAbstainApprove   = "ABSTAIN_APPROVE"
	VoteAbstainReject    = "ABSTAIN_REJECT"
	VoteAbstainNonVoting = "ABSTAIN_NON_VOTING"
	VoteAbsentApprove    = "ABSENT_APPROVE"
	VoteAbsentReject     = "ABSENT_REJECT"
	VoteAbsentNonVoting  = "ABSENT_NON_VOTING"
)

// Event minutes item decisions.
const (
	MinutesItemPassed = "PASSED"
	MinutesItemFailed = "FAILED"
)

// Role titles.
const (
	RoleCouncilmember    = "Councilmember"
	RoleCouncilPresident = "Council President"
	RoleChair            = "Chair"
	RoleViceChair        = "Vice Chair"
	RoleAlternate        = "Alternate"
	RoleSupervisor       = "Supervisor"
	RoleMember           = "Member"
)

// Body is a governing body, e.g. "City Council" or a committee.
type Body struct {
	Name             string `json:"name" required:"true"`
	IsActive         bool   `json:"is_active"`
	ExternalSourceID string `json:"external_source_id,omitempty"`
}

// Role is one term a person serves on a body.
type Role struct {
	Title            string     `json:"title" required:"true"`
	Body             *Body      `json:"body,omitempty"`
	StartDatetime    *time.Time `json:"start_datetime,omitempty"`
	EndDatetime      *time.Time `json:"end_datetime,omitempty"`
	ExternalSourceID string     `json:"external_source_id,omitempty"`
}

// Seat is the position a person is elected or appointed to.
type Seat struct {
	Name          string  `json:"name" required:"true"`
	ElectoralArea string  `json:"electoral_area,omitempty"`
	ImageURI      *string `json:"image_uri,omitempty"`
	Roles         []*Role `json:"roles,omitempty"`
}

// Person is a council member or other vote-casting official.
// Identity within one source is by Name; across sources use names.Matcher.
type Person struct {
	Name             string  `json:"name" required:"true"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Website          *string `json:"website,omitempty"`
	PictureURI       *string `json:"picture_uri,omitempty"`
	IsActive         bool    `json:"is_active"`
	Seat             *Seat   `json:"seat,omitempty"`
	ExternalSourceID string  `json:"external_source_id,omitempty"`
}

// SupportingFile is an attachment to a matter or minutes item.
type SupportingFile struct {
	Name             string `json:"name" required:"true"`
	URI              string `json:"uri" required:"true"`
	ExternalSourceID string `json:"external_source_id,omitempty"`
}

// Matter is a piece of legislation considered during a meeting.
type Matter struct {
	Name             string    `json:"name" required:"true"`
	MatterType       string    `json:"matter_type" required:"true"`
	Title            string    `json:"title" required:"true"`
	Sponsors         []*Person `json:"sponsors,omitempty"`
	ResultStatus     string    `json:"result_status,omitempty"`
	ExternalSourceID string    `json:"external_source_id,omitempty"`
}

// Vote is one person's recorded position on a minutes item.
// Decision may be empty when the source did not record one,
// but Person must always be resolvable.
type Vote struct {
	Person           *Person `json:"person" required:"true"`
	Decision         string  `json:"decision,omitempty"`
	ExternalSourceID string  `json:"external_source_id,omitempty"`
}

// MinutesItem is the name/description pair for one agenda line item.
type MinutesItem struct {
	Name             string  `json:"name" required:"true"`
	Description      *string `json:"description,omitempty"`
	ExternalSourceID string  `json:"external_source_id,omitempty"`
}

// EventMinutesItem is one agenda line item of a meeting with its
// associated matter, votes and attachments.
type EventMinutesItem struct {
	MinutesItem     *MinutesItem      `json:"minutes_item" required:"true"`
	Matter          *Matter           `json:"matter,omitempty"`
	Index           *int              `json:"index,omitempty"`
	Decision        string            `json:"decision,omitempty"`
	Votes           []*Vote           `json:"votes,omitempty"`
	SupportingFiles []*SupportingFile `json:"supporting_files,omitempty"`
}

// Session is one video segment of a meeting. SessionIndex is zero-based
// and orders the segments chronologically within one event.
type Session struct {
	SessionDatetime  *time.Time `json:"session_datetime" required:"true"`
	SessionIndex     int        `json:"session_index" required:"true"`
	VideoURI         string     `json:"video_uri" required:"true"`
	CaptionURI       *string    `json:"caption_uri,omitempty"`
	ExternalSourceID string     `json:"external_source_id,omitempty"`
}

// EventIngestionModel is the top-level unit emitted for one meeting.
// The minimum viable ingestion contract demands a named body and at
// least one session with a datetime and a video URI.
type EventIngestionModel struct {
	Body             *Body               `json:"body" required:"true"`
	Sessions         []*Session          `json:"sessions" required:"true"`
	EventMinutesItems []*EventMinutesItem `json:"event_minutes_items,omitempty"`
	AgendaURI        *string             `json:"agenda_uri,omitempty"`
	MinutesURI       *string             `json:"minutes_uri,omitempty"`
	ExternalSourceID string              `json:"external_source_id,omitempty"`
}
