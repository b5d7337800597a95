package flow

import "fmt"

// State is a node in the combined intake and moderator state machine.
type State int

const (
	// intake phase
	ReportStart State = iota
	AwaitingMessage
	MessageIdentified
	AwaitingCategory
	ImminentDangerSelection
	AdditionalMessage
	AwaitingAdditionalMessage
	AwaitingBlock
	ConfirmSubmit
	ReportComplete

	// moderator phase
	ModeratorReview
	AwaitingAbuseVerification
	AbuseDenied
	AwaitingModelResults
	AutoFlagged
	AwaitingAutoFlaggedReview
	ModComplete
)

var stateNames = map[State]string{
	ReportStart:               "report_start",
	AwaitingMessage:           "awaiting_message",
	MessageIdentified:         "message_identified",
	AwaitingCategory:          "awaiting_category",
	ImminentDangerSelection:   "imminent_danger_selection",
	AdditionalMessage:         "additional_message",
	AwaitingAdditionalMessage: "awaiting_additional_message",
	AwaitingBlock:             "awaiting_block",
	ConfirmSubmit:             "confirm_submit",
	ReportComplete:            "report_complete",
	ModeratorReview:           "moderator_review",
	AwaitingAbuseVerification: "awaiting_abuse_verification",
	AbuseDenied:               "abuse_denied",
	AwaitingModelResults:      "awaiting_model_results",
	AutoFlagged:               "auto_flagged",
	AwaitingAutoFlaggedReview: "awaiting_auto_flagged_review",
	ModComplete:               "mod_complete",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsIntake is true for reporter-facing states before the report is complete. These are the states where "cancel" applies.
func (s State) IsIntake() bool {
	return s >= ReportStart && s < ReportComplete
}

// IsModerator is true for every state of the moderator sub-flow, including the terminal one.
func (s State) IsModerator() bool {
	return s >= ModeratorReview && s <= ModComplete
}

func (s State) IsTerminal() bool {
	return s == ReportComplete || s == ModComplete
}

// IsPassThrough is true for states that ignore input content and advance on any message.
func (s State) IsPassThrough() bool {
	return s == ModeratorReview || s == AbuseDenied || s == AutoFlagged
}
