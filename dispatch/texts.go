package dispatch

const (
	textHelp            = "Use the `report` command to begin the reporting process.\nUse the `cancel` command to cancel the report process."
	textAwaitingReview  = "Your report has been submitted and is waiting for a moderator. You will hear back once it has been reviewed."
	textReportSubmitted = "Report submitted."
	textNoReview        = "No report is currently under review."
	textNextReview      = "Next report in the review queue:"
	textReviewThanks    = "Thank you for your review."
	textExpired         = "Your report has expired after a period of inactivity. Say `report` to start again."

	textOutcomeSynthetic   = "We have detected the user's messages to be malicious and have quarantined them. Our model has flagged the contents of their messages as AI-generated. Although the threat is likely false, please exercise caution and contact your local law enforcement."
	textOutcomeAuthentic   = "We have detected the user's messages to be malicious and have quarantined them. Our model has flagged the contents of their messages as potentially real. Please exercise caution and contact your local law enforcement."
	textOutcomeViolation   = "Our moderators have reviewed your report and taken action. Thank you for helping keep the community safe."
	textOutcomeNoViolation = "Our moderators have reviewed your report and found no violation of our policies. Thank you for reporting."
)
