package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluesky-social/warden/scoring"
)

type Category string

const (
	CategorySpam                 Category = "spam"
	CategoryInappropriateContent Category = "inappropriate_content"
	CategoryHateSpeech           Category = "hate_speech"
	CategoryImminentDanger       Category = "imminent_danger"
	CategoryOther                Category = "other"
)

type DangerSubtype string

const (
	DangerSelfHarm       DangerSubtype = "self_harm"
	DangerCredibleThreat DangerSubtype = "credible_threat"
	DangerKidnapping     DangerSubtype = "kidnapping"
)

type AIVerdict string

const (
	VerdictUnknown   AIVerdict = "unknown"
	VerdictSynthetic AIVerdict = "synthetic"
	VerdictAuthentic AIVerdict = "authentic"
)

// Outcome is the moderator's decision, empty until the abuse question is answered.
type Outcome string

const (
	OutcomeViolation   Outcome = "violation"
	OutcomeNoViolation Outcome = "no_violation"
)

// FlaggedMessage is a snapshot of one reported message, taken when it was resolved.
type FlaggedMessage struct {
	Link        string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	Text        string
	Attachments []string
	Category    Category
}

// Record is the data carried by one report from intake through moderator review.
//
// The primary Flagged* and Reported* fields describe the first message in the report. Messages holds every message
// the reporter confirmed, in order.
type Record struct {
	ID    string
	State State

	ReporterID       string
	ReporterName     string
	ReportedUserID   string
	ReportedUserName string
	ReplyChannel     string

	FlaggedText string
	FlaggedLink string
	Attachments []string
	Messages    []FlaggedMessage

	Category          Category
	DangerSubtype     DangerSubtype
	ImminentDanger    bool
	VirtualKidnapping bool
	AIVerdict         AIVerdict

	AdditionalNotes string
	BlockRequested  bool
	AutoFlagged     bool
	Submitted       bool
	Outcome         Outcome
	Scores          *scoring.ScoreVector

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) clone() Record {
	out := r
	out.Attachments = append([]string(nil), r.Attachments...)
	out.Messages = make([]FlaggedMessage, len(r.Messages))
	for i, m := range r.Messages {
		m.Attachments = append([]string(nil), m.Attachments...)
		out.Messages[i] = m
	}
	if r.Scores != nil {
		s := *r.Scores
		out.Scores = &s
	}
	return out
}

// AllAttachments returns media attached to any flagged message, without duplicates.
func (r Record) AllAttachments() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(l []string) {
		for _, a := range l {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	add(r.Attachments)
	for _, m := range r.Messages {
		add(m.Attachments)
	}
	return out
}

// Summary renders the record for moderators.
func (r Record) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Report `%s`\n", r.ID)
	if r.AutoFlagged {
		sb.WriteString("Source: auto-flagged by scoring\n")
	} else {
		fmt.Fprintf(&sb, "Reporter: %s (%s)\n", nonEmpty(r.ReporterName, "unknown"), r.ReporterID)
	}
	fmt.Fprintf(&sb, "Reported user: %s (%s)\n", nonEmpty(r.ReportedUserName, "unknown"), r.ReportedUserID)
	fmt.Fprintf(&sb, "Category: %s\n", nonEmpty(string(r.Category), "none"))
	if r.ImminentDanger {
		fmt.Fprintf(&sb, "Imminent danger: %s\n", nonEmpty(string(r.DangerSubtype), "unspecified"))
	}
	if r.VirtualKidnapping {
		sb.WriteString("Virtual kidnapping claim: yes\n")
	}
	if r.Scores != nil {
		sb.WriteString(scoring.FormatScores(*r.Scores) + "\n")
	}
	if r.BlockRequested {
		sb.WriteString("Reporter blocked this user\n")
	}
	if r.AdditionalNotes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", r.AdditionalNotes)
	}
	sb.WriteString("Flagged messages:\n")
	msgs := r.Messages
	if len(msgs) == 0 && r.FlaggedText != "" {
		msgs = []FlaggedMessage{{Link: r.FlaggedLink, AuthorName: r.ReportedUserName, Text: r.FlaggedText, Attachments: r.Attachments}}
	}
	for _, m := range msgs {
		fmt.Fprintf(&sb, "```%s: %s```", nonEmpty(m.AuthorName, m.AuthorID), m.Text)
		if m.Link != "" {
			fmt.Fprintf(&sb, " %s", m.Link)
		}
		if len(m.Attachments) > 0 {
			fmt.Fprintf(&sb, " attachments: %s", strings.Join(m.Attachments, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
