package legistar

// Structures for the subset of the Legistar web API consumed here.
// Field names follow the API's PascalCase JSON keys.

type apiEvent struct {
	EventID          int64   `json:"EventId"`
	EventBodyID      int64   `json:"EventBodyId"`
	EventDate        *string `json:"EventDate"`
	EventTime        *string `json:"EventTime"`
	EventVideoPath   *string `json:"EventVideoPath"`
	EventAgendaFile  *string `json:"EventAgendaFile"`
	EventMinutesFile *string `json:"EventMinutesFile"`
	EventInSiteURL   *string `json:"EventInSiteURL"`

	// attached by the fetch fan-out, not part of the Events payload
	Items []*apiEventItem `json:"-"`
	Body  *apiBody        `json:"-"`
}

type apiEventItem struct {
	EventItemID              int64   `json:"EventItemId"`
	EventItemTitle           *string `json:"EventItemTitle"`
	EventItemMinutesSequence *int    `json:"EventItemMinutesSequence"`
	EventItemPassedFlagName  *string `json:"EventItemPassedFlagName"`

	EventItemMatterID     *int64  `json:"EventItemMatterId"`
	EventItemMatterFile   *string `json:"EventItemMatterFile"`
	EventItemMatterName   *string `json:"EventItemMatterName"`
	EventItemMatterType   *string `json:"EventItemMatterType"`
	EventItemMatterStatus *string `json:"EventItemMatterStatus"`

	EventItemMatterAttachments []*apiAttachment `json:"EventItemMatterAttachments"`

	Votes    []*apiVote    `json:"-"`
	Sponsors []*apiSponsor `json:"-"`
}

type apiAttachment struct {
	MatterAttachmentID        int64   `json:"MatterAttachmentId"`
	MatterAttachmentName      *string `json:"MatterAttachmentName"`
	MatterAttachmentHyperlink *string `json:"MatterAttachmentHyperlink"`
}

type apiVote struct {
	VoteID        int64   `json:"VoteId"`
	VotePersonID  int64   `json:"VotePersonId"`
	VoteValueID   *int64  `json:"VoteValueId"`
	VoteValueName *string `json:"VoteValueName"`

	Person *apiPerson `json:"-"`
}

type apiSponsor struct {
	MatterSponsorNameID int64 `json:"MatterSponsorNameId"`

	Person *apiPerson `json:"-"`
}

type apiPerson struct {
	PersonID         int64   `json:"PersonId"`
	PersonFullName   *string `json:"PersonFullName"`
	PersonEmail      *string `json:"PersonEmail"`
	PersonPhone      *string `json:"PersonPhone"`
	PersonWWW        *string `json:"PersonWWW"`
	PersonActiveFlag int     `json:"PersonActiveFlag"`

	OfficeRecords []*apiOfficeRecord `json:"-"`
}

type apiOfficeRecord struct {
	OfficeRecordID        int64   `json:"OfficeRecordId"`
	OfficeRecordTitle     *string `json:"OfficeRecordTitle"`
	OfficeRecordBodyID    int64   `json:"OfficeRecordBodyId"`
	OfficeRecordStartDate *string `json:"OfficeRecordStartDate"`
	OfficeRecordEndDate   *string `json:"OfficeRecordEndDate"`

	Body *apiBody `json:"-"`
}

type apiBody struct {
	BodyID         int64   `json:"BodyId"`
	BodyName       *string `json:"BodyName"`
	BodyActiveFlag int     `json:"BodyActiveFlag"`
}
