// Routing of inbound chat messages to report sessions, and the moderator review loop around them.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/warden/countstore"
	"github.com/bluesky-social/warden/flagstore"
	"github.com/bluesky-social/warden/flow"
	"github.com/bluesky-social/warden/notify"
	"github.com/bluesky-social/warden/reportstore"
	"github.com/bluesky-social/warden/scoring"
	"github.com/bluesky-social/warden/visual"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const classifyTimeout = 30 * time.Second

// Message is one inbound chat message. CommunityID is empty for direct messages.
type Message struct {
	ID          string
	CommunityID string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorName  string
	Content     string
	Attachments []string
	Timestamp   time.Time
}

func (m Message) IsDirect() bool {
	return m.CommunityID == ""
}

// Sender delivers outbound text to a channel.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// Dispatcher is the entry point for every inbound message.
//
// Messages are processed strictly one at a time. Registry, Sender, Store and Resolver are required; the remaining
// collaborators are optional and their features are skipped when nil.
type Dispatcher struct {
	Logger     *slog.Logger
	Config     Config
	Registry   *Registry
	Gate       *scoring.Gate
	Resolver   flow.Resolver
	Sender     Sender
	Classifier visual.Classifier
	Store      reportstore.ReportStore
	Counters   countstore.CountStore
	Flags      flagstore.FlagStore
	Notifier   notify.Notifier
	Now        func() time.Time

	lk sync.Mutex
}

type route string

const (
	routeModerator route = "moderator"
	routeDirect    route = "direct"
	routeMonitored route = "monitored"
	routeIgnored   route = "ignored"
)

func autoFlagKey(authorID string) string {
	return "auto:" + authorID
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Dispatcher) classify(msg Message) route {
	switch {
	case msg.ChannelID == d.Config.ModChannelID:
		return routeModerator
	case msg.IsDirect():
		return routeDirect
	case msg.ChannelName == d.Config.Tenant.Name():
		return routeMonitored
	default:
		return routeIgnored
	}
}

// OnMessage routes one inbound message and relays any replies through the Sender.
func (d *Dispatcher) OnMessage(ctx context.Context, msg Message) (err error) {
	// similar to an HTTP server, we want to recover any panics from message handling
	defer func() {
		if r := recover(); r != nil {
			dispatchPanics.Inc()
			d.logger().Error("dispatch exception", "err", r, "channel", msg.ChannelID, "author", msg.AuthorID, "stack", string(debug.Stack()))
			err = fmt.Errorf("dispatch panic: %v", r)
		}
	}()

	d.lk.Lock()
	defer d.lk.Unlock()

	if msg.AuthorID == d.Config.BotUserID {
		return nil
	}

	rt := d.classify(msg)
	ctx, span := otel.Tracer("dispatch").Start(ctx, "OnMessage", trace.WithAttributes(
		attribute.String("route", string(rt)),
		attribute.String("channel", msg.ChannelID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		messagesRouted.WithLabelValues(string(rt)).Inc()
		dispatchDuration.WithLabelValues(string(rt)).Observe(time.Since(start).Seconds())
	}()

	switch rt {
	case routeModerator:
		d.handleModerator(ctx, msg)
	case routeDirect:
		d.handleDirect(ctx, msg)
	case routeMonitored:
		d.handleMonitored(ctx, msg)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, channelID, text string) {
	if err := d.Sender.Send(ctx, channelID, text); err != nil {
		sendFailures.Inc()
		d.logger().Warn("failed to send message", "channel", channelID, "err", err)
	}
}

func (d *Dispatcher) sendAll(ctx context.Context, channelID string, texts []string) {
	for _, t := range texts {
		d.send(ctx, channelID, t)
	}
}

func (d *Dispatcher) sendMod(ctx context.Context, text string) {
	d.send(ctx, d.Config.ModChannelID, text)
}

func (d *Dispatcher) notify(ctx context.Context, text string) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.Notify(ctx, text); err != nil {
		d.logger().Warn("failed to send notification", "err", err)
	}
}

func (d *Dispatcher) handleDirect(ctx context.Context, msg Message) {
	// every direct message is scored, whether or not it belongs to a report
	if scores, flagged := d.Gate.Evaluate(ctx, msg.Content); flagged {
		d.autoFlag(ctx, msg, *scores)
	}

	text := strings.TrimSpace(msg.Content)
	if strings.ToLower(text) == flow.HelpKeyword {
		d.send(ctx, msg.ChannelID, textHelp)
		return
	}

	key := msg.AuthorID
	sess, ok := d.Registry.Get(key)
	if !ok {
		// only respond to messages that are part of a reporting flow
		if !strings.HasPrefix(strings.ToLower(text), flow.StartKeyword) {
			return
		}
		sess, _ = d.Registry.GetOrCreate(key, func() *flow.Session {
			return flow.NewSession(flow.SessionOptions{
				ReporterID:   msg.AuthorID,
				ReporterName: msg.AuthorName,
				ReplyChannel: msg.ChannelID,
				Resolver:     d.Resolver,
				Logger:       d.logger(),
				Now:          d.Now,
			})
		})
		d.logger().Info("started report session", "report", sess.ID(), "reporter", key)
	}

	if !sess.State().IsIntake() {
		d.send(ctx, msg.ChannelID, textAwaitingReview)
		return
	}

	d.sendAll(ctx, msg.ChannelID, sess.HandleMessage(ctx, msg.Content))
	if sess.State() == flow.ReportComplete {
		d.completeIntake(ctx, key, sess)
	}
}

func (d *Dispatcher) completeIntake(ctx context.Context, key string, sess *flow.Session) {
	rec := sess.Record()
	if !rec.Submitted {
		reportsCancelled.Inc()
		if err := d.Registry.Remove(key); err != nil {
			d.logger().Error("failed to remove cancelled session", "report", rec.ID, "err", err)
		}
		return
	}

	d.sendMod(ctx, textReportSubmitted)
	reportsSubmitted.WithLabelValues("user").Inc()
	if d.Counters != nil {
		if err := d.Counters.IncrementDistinct(ctx, countstore.CounterReporters, rec.ReportedUserID, rec.ReporterID); err != nil {
			d.logger().Warn("failed to count reporter", "report", rec.ID, "err", err)
		}
	}
	if err := sess.BeginReview(); err != nil {
		d.logger().Error("failed to hand report to review", "report", rec.ID, "err", err)
		return
	}
	d.enqueue(ctx, key, sess)
}

func (d *Dispatcher) enqueue(ctx context.Context, key string, sess *flow.Session) {
	becameCurrent, ahead, err := d.Registry.EnqueueReview(key)
	if err != nil {
		d.logger().Error("failed to enqueue review", "report", sess.ID(), "key", key, "err", err)
		return
	}
	reviewQueueDepth.Set(float64(d.Registry.PendingReviews()))
	if becameCurrent {
		d.driveReview(ctx, key, sess, sess.State())
		return
	}
	d.sendMod(ctx, fmt.Sprintf("Report `%s` is queued for review; %d report(s) ahead of it.", sess.ID(), ahead))
}

func (d *Dispatcher) handleMonitored(ctx context.Context, msg Message) {
	scores, flagged := d.Gate.Evaluate(ctx, msg.Content)

	d.sendMod(ctx, fmt.Sprintf("Forwarded message:\n%s: %q", msg.AuthorName, msg.Content))
	if scores != nil {
		d.sendMod(ctx, scoring.FormatScores(*scores))
	} else {
		d.sendMod(ctx, "Scores: unavailable")
	}

	if flagged {
		d.autoFlag(ctx, msg, *scores)
	}
}

func (d *Dispatcher) autoFlag(ctx context.Context, msg Message, scores scoring.ScoreVector) {
	logger := d.logger().With("channel", msg.ChannelID, "author", msg.AuthorID)

	if d.Flags != nil {
		already, err := flagstore.Has(ctx, d.Flags, msg.ChannelID, flagstore.FlagAutoFlagged)
		if err != nil {
			logger.Warn("failed to read channel flags", "err", err)
		} else if already {
			autoFlagsSuppressed.Inc()
			logger.Info("channel already has an auto-flag review, skipping")
			return
		}
	}

	key := autoFlagKey(msg.AuthorID)
	if _, pending := d.Registry.Get(key); pending {
		autoFlagsSuppressed.Inc()
		logger.Info("author already has an auto-flag review, skipping")
		return
	}

	if d.Flags != nil {
		if err := d.Flags.Add(ctx, msg.ChannelID, []string{flagstore.FlagAutoFlagged}); err != nil {
			logger.Warn("failed to flag channel", "err", err)
		}
	}
	if d.Counters != nil {
		if err := d.Counters.Increment(ctx, countstore.CounterAutoFlag, msg.AuthorID); err != nil {
			logger.Warn("failed to count auto-flag", "err", err)
		}
	}

	d.sendMod(ctx, fmt.Sprintf("Alert! This message has been auto-flagged by our system.\n\nMessage: %s\n\n%s", msg.Content, scoring.FormatScores(scores)))
	d.notify(ctx, fmt.Sprintf("⚠️ Auto-flagged message ⚠️\n`%s` (%s) in `%s`\n%s", msg.AuthorName, msg.AuthorID, nonEmpty(msg.ChannelName, msg.ChannelID), scoring.FormatScores(scores)))

	sess, _ := d.Registry.GetOrCreate(key, func() *flow.Session {
		return flow.NewSession(flow.SessionOptions{
			Resolver: d.Resolver,
			Logger:   d.logger(),
			Now:      d.Now,
		})
	})
	fm := flow.FlaggedMessage{
		ChannelID:   msg.ChannelID,
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		Text:        msg.Content,
		Attachments: msg.Attachments,
	}
	if msg.CommunityID != "" && msg.ID != "" {
		fm.Link = flow.MessageLink{CommunityID: msg.CommunityID, ChannelID: msg.ChannelID, MessageID: msg.ID}.String()
	}
	if err := sess.ForceAutoFlag(fm, scores); err != nil {
		logger.Error("failed to open auto-flag review", "err", err)
		return
	}
	logger.Info("auto-flagged message", "report", sess.ID())
	reportsSubmitted.WithLabelValues("auto").Inc()
	d.enqueue(ctx, key, sess)
}

func (d *Dispatcher) handleModerator(ctx context.Context, msg Message) {
	key, ok := d.Registry.CurrentReviewSubject()
	if !ok {
		d.sendMod(ctx, textNoReview)
		return
	}
	sess, ok := d.Registry.Get(key)
	if !ok {
		// the subject vanished; release it so the queue cannot stall
		d.logger().Error("review subject has no session", "key", key)
		d.release(ctx, key)
		return
	}
	prev := sess.State()
	d.sendAll(ctx, d.Config.ModChannelID, sess.HandleMessage(ctx, msg.Content))
	d.driveReview(ctx, key, sess, prev)
}

// driveReview advances the current review subject through states that need no moderator input, and closes the review
// once it is complete.
func (d *Dispatcher) driveReview(ctx context.Context, key string, sess *flow.Session, prev flow.State) {
	for {
		st := sess.State()
		if st == flow.AwaitingModelResults && prev != flow.AwaitingModelResults {
			d.postModelAdvisory(ctx, sess)
		}
		if st == flow.ModComplete {
			d.closeReview(ctx, key, sess)
			return
		}
		if !st.IsPassThrough() {
			return
		}
		prev = st
		d.sendAll(ctx, d.Config.ModChannelID, sess.HandleMessage(ctx, ""))
	}
}

func (d *Dispatcher) postModelAdvisory(ctx context.Context, sess *flow.Session) {
	rec := sess.Record()
	media := rec.AllAttachments()
	if d.Classifier == nil {
		d.sendMod(ctx, "No AI-generated content detector is configured; inspect the flagged media manually.")
		return
	}
	if len(media) == 0 {
		d.sendMod(ctx, "The flagged messages have no media attached for the AI-generated content detector.")
		return
	}
	cctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()
	synthetic, err := visual.ClassifyAny(cctx, d.Classifier, media)
	if err != nil {
		d.logger().Warn("media classification failed", "report", rec.ID, "err", err)
		d.sendMod(ctx, "The AI-generated content detector is unavailable; inspect the flagged media manually.")
		return
	}
	if synthetic {
		d.sendMod(ctx, "AI-generated content detector: the flagged media is likely AI-generated.")
	} else {
		d.sendMod(ctx, "AI-generated content detector: no sign of AI generation in the flagged media.")
	}
}

func (d *Dispatcher) closeReview(ctx context.Context, key string, sess *flow.Session) {
	rec := sess.Record()
	logger := d.logger().With("report", rec.ID)

	d.sendMod(ctx, textReviewThanks)

	count, err := d.Store.CountPriorReports(ctx, rec.ReportedUserID)
	if err != nil {
		logger.Warn("failed to count prior reports", "reported", rec.ReportedUserID, "err", err)
		d.sendMod(ctx, fmt.Sprintf("Could not look up prior reports for %s.", nonEmpty(rec.ReportedUserName, rec.ReportedUserID)))
	} else {
		d.sendMod(ctx, fmt.Sprintf("%s has %d prior report(s) on record.", nonEmpty(rec.ReportedUserName, rec.ReportedUserID), count))
	}
	if d.Counters != nil && rec.ReportedUserID != "" {
		if line, err := d.signalSummary(ctx, rec); err != nil {
			logger.Warn("failed to read moderation counters", "reported", rec.ReportedUserID, "err", err)
		} else {
			d.sendMod(ctx, line)
		}
	}

	d.notifyReporter(ctx, rec)

	if err := d.Store.Save(ctx, archiveRecord(rec, d.now())); err != nil {
		archiveFailures.Inc()
		logger.Error("failed to archive report", "err", err)
		d.sendMod(ctx, fmt.Sprintf("Failed to archive report `%s`: %v", rec.ID, err))
		d.notify(ctx, fmt.Sprintf("Failed to archive report `%s`: %v", rec.ID, err))
	}

	if rec.AutoFlagged && d.Flags != nil && len(rec.Messages) > 0 {
		if err := d.Flags.Remove(ctx, rec.Messages[0].ChannelID, []string{flagstore.FlagAutoFlagged}); err != nil {
			logger.Warn("failed to clear channel auto-flag", "err", err)
		}
	}

	reviewsClosed.WithLabelValues(string(rec.Outcome)).Inc()
	if err := d.Registry.Remove(key); err != nil {
		logger.Error("failed to remove reviewed session", "err", err)
	}
	logger.Info("review closed", "outcome", rec.Outcome, "verdict", rec.AIVerdict)
	d.release(ctx, key)
}

// signalSummary describes the rolling auto-flag and reporter counters for the reported account.
func (d *Dispatcher) signalSummary(ctx context.Context, rec flow.Record) (string, error) {
	uid := rec.ReportedUserID
	today, err := d.Counters.GetCount(ctx, countstore.CounterAutoFlag, uid, countstore.PeriodDay)
	if err != nil {
		return "", err
	}
	total, err := d.Counters.GetCount(ctx, countstore.CounterAutoFlag, uid, countstore.PeriodTotal)
	if err != nil {
		return "", err
	}
	reporters, err := d.Counters.GetCountDistinct(ctx, countstore.CounterReporters, uid, countstore.PeriodTotal)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %d auto-flag(s) today, %d in total; reported by %d distinct user(s).",
		nonEmpty(rec.ReportedUserName, uid), today, total, reporters), nil
}

// release clears the review subject and presents the next queued report, if any.
func (d *Dispatcher) release(ctx context.Context, key string) {
	next, promoted, err := d.Registry.ReleaseReview(key)
	reviewQueueDepth.Set(float64(d.Registry.PendingReviews()))
	if err != nil {
		d.logger().Error("failed to release review subject", "key", key, "err", err)
		return
	}
	if !promoted {
		return
	}
	sess, ok := d.Registry.Get(next)
	if !ok {
		d.release(ctx, next)
		return
	}
	d.sendMod(ctx, textNextReview)
	d.driveReview(ctx, next, sess, sess.State())
}

func (d *Dispatcher) notifyReporter(ctx context.Context, rec flow.Record) {
	if rec.AutoFlagged || rec.ReplyChannel == "" {
		return
	}
	var text string
	switch {
	case rec.VirtualKidnapping && rec.AIVerdict == flow.VerdictSynthetic:
		text = textOutcomeSynthetic
	case rec.VirtualKidnapping && rec.AIVerdict == flow.VerdictAuthentic:
		text = textOutcomeAuthentic
	case rec.Outcome == flow.OutcomeViolation:
		text = textOutcomeViolation
	default:
		text = textOutcomeNoViolation
	}
	d.send(ctx, rec.ReplyChannel, text)
}

func archiveRecord(rec flow.Record, closedAt time.Time) *reportstore.ArchivedReport {
	return &reportstore.ArchivedReport{
		ReportID:       rec.ID,
		ReporterID:     rec.ReporterID,
		ReportedUserID: rec.ReportedUserID,
		Category:       string(rec.Category),
		DangerSubtype:  string(rec.DangerSubtype),
		AIVerdict:      string(rec.AIVerdict),
		Outcome:        string(rec.Outcome),
		AutoFlagged:    rec.AutoFlagged,
		BlockRequested: rec.BlockRequested,
		MessageCount:   len(rec.Messages),
		FlaggedText:    rec.FlaggedText,
		OpenedAt:       rec.CreatedAt,
		ClosedAt:       closedAt,
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
