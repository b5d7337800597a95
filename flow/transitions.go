package flow

import (
	"context"
	"fmt"
)

// A transition consumes one input in the current state and returns the next state and the replies to send.
type transition func(ctx context.Context, s *Session, input string) (State, []string)

// stateSpec describes how one state consumes input. Tokens are matched exactly against the trimmed input (lowercased
// first when fold is set). Input matching no token goes to any, or, when any is nil, gets the reprompt reply and leaves
// the state unchanged.
type stateSpec struct {
	fold     bool
	tokens   map[string]transition
	any      transition
	reprompt string
}

func goTo(next State, replies ...string) transition {
	return func(ctx context.Context, s *Session, input string) (State, []string) {
		return next, replies
	}
}

func yesNo(yes, no transition) map[string]transition {
	return map[string]transition{"yes": yes, "no": no}
}

var transitions = map[State]stateSpec{
	ReportStart:     {any: goTo(AwaitingMessage, textStart)},
	AwaitingMessage: {any: identifyMessage},
	MessageIdentified: {
		fold:     true,
		tokens:   yesNo(confirmMessage, rejectMessage),
		reprompt: textYesNo,
	},
	AwaitingCategory: {
		tokens: map[string]transition{
			"spam":                  chooseCategory(CategorySpam),
			"inappropriate_content": chooseCategory(CategoryInappropriateContent),
			"hate_speech":           chooseCategory(CategoryHateSpeech),
			"imminent_danger":       chooseCategory(CategoryImminentDanger),
			"other":                 chooseCategory(CategoryOther),
			// spellings from the original chat prompt
			"inappropriate content": chooseCategory(CategoryInappropriateContent),
			"hate speech":           chooseCategory(CategoryHateSpeech),
			"imminent danger":       chooseCategory(CategoryImminentDanger),
		},
		reprompt: textCategoryRetry,
	},
	ImminentDangerSelection: {
		tokens: map[string]transition{
			"sh": chooseDanger(DangerSelfHarm),
			"ct": chooseDanger(DangerCredibleThreat),
			"kt": chooseDanger(DangerKidnapping),
		},
		reprompt: textDangerRetry,
	},
	AdditionalMessage: {any: recordNotes},
	AwaitingAdditionalMessage: {
		fold:     true,
		tokens:   yesNo(goTo(AwaitingMessage, textRepeat), goTo(AwaitingBlock, textAskBlock)),
		reprompt: textYesNo,
	},
	AwaitingBlock: {
		fold:     true,
		tokens:   yesNo(blockUser, goTo(ConfirmSubmit, textNotBlocked)),
		reprompt: textYesNo,
	},
	ConfirmSubmit: {
		fold:     true,
		tokens:   yesNo(submit, withdraw),
		reprompt: textYesNo,
	},

	ModeratorReview: {any: presentForReview(AwaitingAbuseVerification, textAbusePrompt)},
	AwaitingAbuseVerification: {
		fold:     true,
		tokens:   yesNo(confirmAbuse, denyAbuse),
		reprompt: textYesNo,
	},
	AbuseDenied: {any: goTo(ModComplete, textDiscretionary)},
	AwaitingModelResults: {
		fold:     true,
		tokens:   yesNo(setVerdict(VerdictSynthetic, textHoaxAction), setVerdict(VerdictAuthentic, textGenuineAction)),
		reprompt: textYesNo,
	},
	AutoFlagged: {any: presentForReview(AwaitingAutoFlaggedReview, textAutoFlagPrompt)},
	AwaitingAutoFlaggedReview: {
		fold:     true,
		tokens:   yesNo(confirmAutoFlag, denyAbuse),
		reprompt: textYesNo,
	},
}

func identifyMessage(ctx context.Context, s *Session, input string) (State, []string) {
	link, ok := ParseMessageLink(input)
	if !ok {
		return AwaitingMessage, []string{textLinkUnreadable}
	}
	if s.resolver == nil {
		return AwaitingMessage, []string{textResolveUnavailable}
	}
	res, err := s.resolver.ResolveMessage(ctx, link)
	if err != nil {
		s.logger.Warn("message lookup failed", "link", link.String(), "err", err)
		return AwaitingMessage, []string{textResolveUnavailable}
	}
	switch res.Status {
	case Found:
	case CommunityNotFound:
		return AwaitingMessage, []string{textCommunityNotFound}
	case ChannelNotFound:
		return AwaitingMessage, []string{textChannelNotFound}
	default:
		return AwaitingMessage, []string{textMessageNotFound}
	}

	m := res.Message
	s.candidate = &FlaggedMessage{
		Link:        link.String(),
		ChannelID:   link.ChannelID,
		AuthorID:    m.AuthorID,
		AuthorName:  m.AuthorName,
		Text:        m.Content,
		Attachments: append([]string(nil), m.Attachments...),
	}
	if len(s.rec.Messages) == 0 {
		s.snapshotPrimary(*s.candidate)
	}
	return MessageIdentified, []string{
		textFoundMessage,
		fmt.Sprintf("```%s: %s```", m.AuthorName, m.Content),
		textConfirmMessage,
	}
}

func confirmMessage(ctx context.Context, s *Session, input string) (State, []string) {
	if s.candidate != nil {
		s.rec.Messages = append(s.rec.Messages, *s.candidate)
		s.candidate = nil
	}
	return AwaitingCategory, []string{textAskCategory}
}

func rejectMessage(ctx context.Context, s *Session, input string) (State, []string) {
	s.candidate = nil
	if len(s.rec.Messages) == 0 {
		s.snapshotPrimary(FlaggedMessage{})
	}
	return AwaitingMessage, []string{textAskLinkAgain}
}

func chooseCategory(c Category) transition {
	return func(ctx context.Context, s *Session, input string) (State, []string) {
		if n := len(s.rec.Messages); n > 0 {
			s.rec.Messages[n-1].Category = c
		}
		// an imminent danger report is never downgraded by a later message in the same report
		if s.rec.Category != CategoryImminentDanger {
			s.rec.Category = c
		}
		desc := categoryDescriptions[c]
		switch c {
		case CategoryImminentDanger:
			s.rec.ImminentDanger = true
			return ImminentDangerSelection, []string{fmt.Sprintf("Thank you for your urgency. You've selected: %s. %s To further inform the action we should take, please select which category this falls under. %s", c, desc, dangerChoices)}
		case CategoryOther:
			return AdditionalMessage, []string{fmt.Sprintf("You've selected: %s. %s Please explain why you reported this message and provide any additional details you'd like to include in your report.", c, desc)}
		default:
			return AdditionalMessage, []string{fmt.Sprintf("You've selected that this message falls under: %s. %s Please provide any additional details you'd like to include in your report.", c, desc)}
		}
	}
}

func chooseDanger(d DangerSubtype) transition {
	return func(ctx context.Context, s *Session, input string) (State, []string) {
		if !s.rec.VirtualKidnapping {
			s.rec.DangerSubtype = d
		}
		if d == DangerKidnapping {
			s.rec.VirtualKidnapping = true
			return AdditionalMessage, []string{fmt.Sprintf("You've selected that this message falls under: %s. Our moderators have been notified of this report, and the message is being run through our AI-detection model. Please provide any additional details you'd like to include in your report.", dangerDescriptions[d])}
		}
		return AdditionalMessage, []string{fmt.Sprintf("You've selected that this message falls under: %s. Our moderators have been notified of this report. Please provide any additional details you'd like to include in your report.", dangerDescriptions[d])}
	}
}

func recordNotes(ctx context.Context, s *Session, input string) (State, []string) {
	if s.rec.AdditionalNotes == "" {
		s.rec.AdditionalNotes = input
	} else {
		s.rec.AdditionalNotes += "\n" + input
	}
	return AwaitingAdditionalMessage, []string{textAskMoreMessages}
}

func blockUser(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.BlockRequested = true
	return ConfirmSubmit, []string{fmt.Sprintf("%s is now blocked from sending you messages in the future. Do you want to submit this report? Please respond with 'yes' or 'no'.", nonEmpty(s.rec.ReportedUserName, "This user"))}
}

func submit(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.Submitted = true
	if s.rec.ImminentDanger {
		return ReportComplete, []string{textSubmittedUrgent}
	}
	return ReportComplete, []string{textSubmitted}
}

func withdraw(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.Submitted = false
	return ReportComplete, []string{textCancelled}
}

func presentForReview(next State, prompt string) transition {
	return func(ctx context.Context, s *Session, input string) (State, []string) {
		return next, []string{s.rec.Summary(), prompt}
	}
}

func confirmAbuse(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.Outcome = OutcomeViolation
	switch {
	case s.rec.VirtualKidnapping:
		return AwaitingModelResults, []string{textModelPrompt}
	case s.rec.ImminentDanger:
		return ModComplete, []string{textUrgentAction}
	default:
		return ModComplete, []string{textStandardAction}
	}
}

func denyAbuse(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.Outcome = OutcomeNoViolation
	return AbuseDenied, []string{textNoViolation}
}

func setVerdict(v AIVerdict, guidance string) transition {
	return func(ctx context.Context, s *Session, input string) (State, []string) {
		s.rec.AIVerdict = v
		s.logger.Debug("recorded AI-generated verdict", "verdict", v)
		return ModComplete, []string{guidance}
	}
}

func confirmAutoFlag(ctx context.Context, s *Session, input string) (State, []string) {
	s.rec.Outcome = OutcomeViolation
	return ModComplete, []string{textAutoFlagAction}
}
