package source

import (
	"regexp"

	"civic_fetcher/internal/ingestion"
)

// DecisionPatterns maps a platform's free-text vote, matter-status and
// minutes-item values onto the ingestion model constants. The patterns
// are municipality-specific configuration, not part of the portable
// core: each adapter carries its own set, defaulting to wording common
// across US municipalities.
type DecisionPatterns struct {
	VoteApprove   string `yaml:"vote_approve"`
	VoteAbstain   string `yaml:"vote_abstain"`
	VoteReject    string `yaml:"vote_reject"`
	VoteAbsent    string `yaml:"vote_absent"`
	VoteNonVoting string `yaml:"vote_nonvoting"`

	MatterAdopted    string `yaml:"matter_adopted"`
	MatterInProgress string `yaml:"matter_in_progress"`
	MatterRejected   string `yaml:"matter_rejected"`

	MinutesItemPassed string `yaml:"minutes_item_passed"`
	MinutesItemFailed string `yaml:"minutes_item_failed"`
}

// DefaultDecisionPatterns returns patterns matching the wording most
// Legistar and PrimeGov installations use.
func DefaultDecisionPatterns() DecisionPatterns {
	return DecisionPatterns{
		VoteApprove:   `approve|favor|yes`,
		VoteAbstain:   `abstain|refuse|refrain`,
		VoteReject:    `reject|oppose|no`,
		VoteAbsent:    `absent`,
		VoteNonVoting: `nv|(?:non.*voting)`,

		MatterAdopted:    `approved|confirmed|passed|adopted|consent|(?:voted.*com+it+ee)`,
		MatterInProgress: `heard|read|filed|held|(?:in.*com+it+ee)`,
		MatterRejected:   `rejected|dropped`,

		MinutesItemPassed: `pass`,
		MinutesItemFailed: `not|fail`,
	}
}

func matches(pattern, value string) bool {
	if pattern == "" || value == "" {
		return false
	}
	matched, err := regexp.MatchString("(?i)"+pattern, value)
	return err == nil && matched
}

// VoteDecision infers a vote decision constant from a platform's vote
// value, qualifying approvals and rejections cast while absent or
// abstaining. Empty when the value matches no pattern.
func (p DecisionPatterns) VoteDecision(value string) string {
	if value == "" {
		return ""
	}

	var decision string
	switch {
	case matches(p.VoteApprove, value):
		decision = ingestion.VoteApprove
	case matches(p.VoteReject, value):
		decision = ingestion.VoteReject
	}
	nonVoting := matches(p.VoteNonVoting, value)

	switch {
	case matches(p.VoteAbsent, value):
		switch {
		case decision == ingestion.VoteApprove:
			return ingestion.VoteAbsentApprove
		case decision == ingestion.VoteReject:
			return ingestion.VoteAbsentReject
		case nonVoting:
			return ingestion.VoteAbsentNonVoting
		}
	case matches(p.VoteAbstain, value):
		switch {
		case decision == ingestion.VoteApprove:
			return ingestion.VoteAbstainApprove
		case decision == ingestion.VoteReject:
			return ingestion.VoteAbstainReject
		case nonVoting:
			return ingestion.VoteAbstainNonVoting
		}
	}

	return decision
}

// MatterStatus infers a matter result status constant. Empty when the
// value matches no pattern.
func (p DecisionPatterns) MatterStatus(value string) string {
	switch {
	case matches(p.MatterAdopted, value):
		return ingestion.MatterAdopted
	case matches(p.MatterInProgress, value):
		return ingestion.MatterInProgress
	case matches(p.MatterRejected, value):
		return ingestion.MatterRejected
	}
	return ""
}

// MinutesDecision infers a minutes item decision constant. Empty when
// the value matches no pattern.
func (p DecisionPatterns) MinutesDecision(value string) string {
	switch {
	case matches(p.MinutesItemFailed, value):
		return ingestion.MinutesItemFailed
	case matches(p.MinutesItemPassed, value):
		return ingestion.MinutesItemPassed
	}
	return ""
}
