package flow

// Keywords recognized outside the transition table.
const (
	StartKeyword  = "report"
	CancelKeyword = "cancel"
	HelpKeyword   = "help"
)

const (
	textStart = "Thank you for starting the reporting process. Say `help` at any time for more information.\n\n" +
		"Please copy paste the link to the message you want to report.\n" +
		"You can obtain this link by right-clicking the message and clicking `Copy Message Link`."

	textRepeat = "The same process will be repeated for the next message.\n\n" + textStart

	textCancelled = "Report cancelled."
	textClosed    = "This report is already closed."
	textYesNo     = "I'm sorry, I didn't understand that. Please respond with 'yes' or 'no'."

	textLinkUnreadable     = "I'm sorry, I could not read the message link you sent. Please try again or say `cancel` to cancel."
	textCommunityNotFound  = "I cannot accept reports of messages from communities that I'm not in. Please have the community owner add me and try again."
	textChannelNotFound    = "It seems this channel was deleted or never existed. Please try again or say `cancel` to cancel."
	textMessageNotFound    = "It seems this message was deleted or never existed. Please try again or say `cancel` to cancel."
	textResolveUnavailable = "I couldn't look up that message right now. Please try again or say `cancel` to cancel."
	textFoundMessage       = "I found this message:"
	textConfirmMessage     = "Is this the message you'd like to report? Please respond with 'yes' or 'no'."
	textAskLinkAgain       = "Please copy paste the link to the message you want to report."

	categoryChoices   = "'spam', 'inappropriate_content', 'hate_speech', 'imminent_danger', or 'other'"
	textAskCategory   = "What category would you like to report this message under? Please respond with " + categoryChoices + "."
	textCategoryRetry = "I'm sorry, I couldn't understand the category. Please respond with " + categoryChoices + "."

	dangerChoices   = "Respond with 'sh' for self-harm or suicidal intent, 'ct' for credible threat of violence, or 'kt' for kidnapping threat."
	textDangerRetry = "I'm sorry, I couldn't understand the category. " + dangerChoices

	textAskMoreMessages = "Are there other messages you would like to flag? Please respond with 'yes' or 'no'."
	textAskBlock        = "Would you like to block this user from sending you more messages in the future? Please respond with 'yes' or 'no'."
	textNotBlocked      = "This user will continue to be allowed to send you messages in the future. Do you want to submit this report? Please respond with 'yes' or 'no'."
	textSubmittedUrgent = "Thank you for your report. It has been submitted. Due to the urgent nature of this case, it has been moved to the front of our priority queue."
	textSubmitted       = "Thank you for your report, our moderators will review the message shortly."

	textAbusePrompt     = "Please review the contents of this report and decide if this is a safety violation. Respond with 'yes' or 'no'."
	textAutoFlagPrompt  = "This message was auto-flagged by our scoring system. Please decide if this is a safety violation. Respond with 'yes' or 'no'."
	textModelPrompt     = "This report alleges a virtual kidnapping. Check the flagged media with the AI-generated content detector. Is the content AI-generated? Respond with 'yes' or 'no'."
	textNoViolation     = "Recorded: this report is not a safety violation."
	textStandardAction  = "This report is a safety violation. Remove the flagged content and apply the standard enforcement policy for this category to the reported user."
	textAutoFlagAction  = "This auto-flagged message is a safety violation. Remove the message and apply the standard enforcement policy to its author."
	textUrgentAction    = "This report is an imminent danger violation. Escalate to the safety team immediately, preserve the evidence, and contact local law enforcement where there is a risk to life."
	textHoaxAction      = "The flagged media is likely AI-generated, so the kidnapping claim is likely a hoax. Quarantine the reported user, remove the content, and advise the reporter to verify the safety of the person named."
	textGenuineAction   = "The flagged media appears to be authentic. Treat this as a genuine kidnapping threat: escalate to the safety team and law enforcement immediately, and preserve all evidence."
	textDiscretionary   = "This report is not an abuse violation. No further action is required; you may still remove the content or warn the user at your discretion."
	textModCompleteNote = "This report has already been reviewed."
)

var categoryDescriptions = map[Category]string{
	CategorySpam:                 "Spam includes unsolicited, low-quality communications.",
	CategoryInappropriateContent: "Inappropriate content contains sexually explicit, violent, or otherwise inappropriate content.",
	CategoryHateSpeech:           "Hate speech contains discriminatory or derogatory language or images.",
	CategoryImminentDanger:       "Imminent danger contains threats of self-harm, violence, or kidnapping.",
	CategoryOther:                "Reported content doesn't fit into the above categories.",
}

var dangerDescriptions = map[DangerSubtype]string{
	DangerSelfHarm:       "self-harm or suicidal intent",
	DangerCredibleThreat: "credible threat of violence",
	DangerKidnapping:     "kidnapping threat",
}
