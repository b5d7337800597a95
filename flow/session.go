// Conversational report workflow: one Session per report, driven one inbound message at a time.
//
// A Session moves a Record through the reporter-facing intake states and then the moderator review states. It does no
// I/O of its own except message lookup through a Resolver; the caller relays the returned replies.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bluesky-social/warden/scoring"

	"github.com/google/uuid"
)

var (
	ErrNotSubmitted = errors.New("report is not a completed submission")
	ErrNotFresh     = errors.New("session already has report content")
)

type SessionOptions struct {
	ReporterID   string
	ReporterName string
	// channel that intake replies and outcome notices go to
	ReplyChannel string
	Resolver     Resolver
	Logger       *slog.Logger
	Now          func() time.Time
}

// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	rec          Record
	candidate    *FlaggedMessage
	resolver     Resolver
	logger       *slog.Logger
	now          func() time.Time
	lastActivity time.Time
}

func NewSession(opts SessionOptions) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ts := now()
	id := uuid.NewString()
	return &Session{
		rec: Record{
			ID:           id,
			State:        ReportStart,
			ReporterID:   opts.ReporterID,
			ReporterName: opts.ReporterName,
			ReplyChannel: opts.ReplyChannel,
			AIVerdict:    VerdictUnknown,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		},
		resolver:     opts.Resolver,
		logger:       logger.With("report", id),
		now:          now,
		lastActivity: ts,
	}
}

func (s *Session) ID() string {
	return s.rec.ID
}

func (s *Session) State() State {
	return s.rec.State
}

// Record returns a copy of the session's record.
func (s *Session) Record() Record {
	return s.rec.clone()
}

// LastActivity is the time the session last consumed a message (or was created).
func (s *Session) LastActivity() time.Time {
	return s.lastActivity
}

func (s *Session) setState(next State) {
	if next == s.rec.State {
		return
	}
	s.logger.Debug("report state transition", "from", s.rec.State, "to", next)
	s.rec.State = next
	s.rec.UpdatedAt = s.now()
}

func (s *Session) snapshotPrimary(m FlaggedMessage) {
	s.rec.ReportedUserID = m.AuthorID
	s.rec.ReportedUserName = m.AuthorName
	s.rec.FlaggedText = m.Text
	s.rec.FlaggedLink = m.Link
	s.rec.Attachments = append([]string(nil), m.Attachments...)
}

// HandleMessage feeds one inbound message to the state machine and returns the replies, in order.
//
// Input that is not understood leaves the state unchanged and yields one corrective reply. Terminal states are
// immutable and always answer with the same acknowledgment.
func (s *Session) HandleMessage(ctx context.Context, text string) []string {
	switch s.rec.State {
	case ModComplete:
		return []string{textModCompleteNote}
	case ReportComplete:
		return []string{textClosed}
	}
	s.lastActivity = s.now()

	input := strings.TrimSpace(text)
	if s.rec.State.IsIntake() && strings.ToLower(input) == CancelKeyword {
		s.candidate = nil
		s.rec.Submitted = false
		s.setState(ReportComplete)
		return []string{textCancelled}
	}

	st, ok := transitions[s.rec.State]
	if !ok {
		s.logger.Error("no transitions defined for state", "state", s.rec.State)
		return nil
	}
	key := input
	if st.fold {
		key = strings.ToLower(key)
	}

	var next State
	var replies []string
	if tr, ok := st.tokens[key]; ok {
		next, replies = tr(ctx, s, input)
	} else if st.any != nil {
		next, replies = st.any(ctx, s, text)
	} else {
		return []string{st.reprompt}
	}
	s.setState(next)
	return replies
}

// BeginReview hands a submitted report to the moderator sub-flow.
func (s *Session) BeginReview() error {
	if s.rec.State != ReportComplete || !s.rec.Submitted {
		return ErrNotSubmitted
	}
	s.setState(ModeratorReview)
	return nil
}

// ForceAutoFlag turns a fresh session into an auto-flagged report about msg, bypassing intake.
func (s *Session) ForceAutoFlag(msg FlaggedMessage, scores scoring.ScoreVector) error {
	if s.rec.State != ReportStart || len(s.rec.Messages) > 0 {
		return ErrNotFresh
	}
	msg.Attachments = append([]string(nil), msg.Attachments...)
	s.rec.AutoFlagged = true
	s.rec.Submitted = true
	s.rec.Scores = &scores
	s.rec.Messages = []FlaggedMessage{msg}
	s.snapshotPrimary(msg)
	s.lastActivity = s.now()
	s.setState(AutoFlagged)
	return nil
}
