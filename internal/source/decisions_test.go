package source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"civic_fetcher/internal/ingestion"
)

func TestVoteDecision(t *testing.T) {
	p := DefaultDecisionPatterns()

	tests := []struct {
		value    string
		expected string
	}{
		{"In Favor", ingestion.VoteApprove},
		{"Yes", ingestion.VoteApprove},
		{"Opposed", ingestion.VoteReject},
		{"Excused Absent", ""},
		{"Absent Approve", ingestion.VoteAbsentApprove},
		{"Abstain Approve", ingestion.VoteAbstainApprove},
		{"Abstained - Opposed", ingestion.VoteAbstainReject},
		{"", ""},
		{"Present", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.VoteDecision(tt.value))
		})
	}
}

func TestMatterStatus(t *testing.T) {
	p := DefaultDecisionPatterns()

	assert.Equal(t, ingestion.MatterAdopted, p.MatterStatus("Adopted"))
	assert.Equal(t, ingestion.MatterAdopted, p.MatterStatus("Passed as amended"))
	assert.Equal(t, ingestion.MatterInProgress, p.MatterStatus("Heard in Committee"))
	assert.Equal(t, ingestion.MatterInProgress, p.MatterStatus("Filed"))
	assert.Equal(t, ingestion.MatterRejected, p.MatterStatus("Dropped"))
	assert.Equal(t, "", p.MatterStatus("Mystery Status"))
	assert.Equal(t, "", p.MatterStatus(""))
}

func TestMinutesDecision(t *testing.T) {
	p := DefaultDecisionPatterns()

	assert.Equal(t, ingestion.MinutesItemPassed, p.MinutesDecision("Pass"))
	assert.Equal(t, ingestion.MinutesItemFailed, p.MinutesDecision("Fail"))
	assert.Equal(t, ingestion.MinutesItemFailed, p.MinutesDecision("Not Passed"))
	assert.Equal(t, "", p.MinutesDecision(""))
	assert.Equal(t, "", p.MinutesDecision("Tabled"))
}
