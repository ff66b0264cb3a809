// Package conversation routes each inbound message through validation,
// command handling, risk assessment, and reply generation, and owns the
// crisis-intervention path.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/heartlinehq/heartline/internal/domain"
	"github.com/heartlinehq/heartline/internal/risk"
	"github.com/heartlinehq/heartline/internal/session"
	"github.com/heartlinehq/heartline/internal/store"
)

// Generator produces conversational replies. llm.Client implements it; a
// nil Generator means fixed fallback text only.
type Generator interface {
	Generate(ctx context.Context, userMsg string, snap domain.Snapshot) (string, error)
}

// Sender delivers outbound SMS. sms.Client implements it.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// ErrInvalidMessage marks input dropped by validation. Nothing is sent and
// nothing is stored.
var ErrInvalidMessage = errors.New("invalid inbound message")

const (
	// fallbackText goes out when generation fails on an ordinary message.
	fallbackText = "I'm here with you. I'm having a little trouble finding my words right now, " +
		"but I'm listening. What's on your mind?"

	// crisisFallbackText is the generation fallback for sessions already
	// flagged in crisis.
	crisisFallbackText = "I'm here with you, and what you're feeling matters. " +
		"If things get to be too much, you can call or text 988 anytime to talk to a trained counselor."

	// minimalFallbackText is the single retry body after a failed send.
	minimalFallbackText = "We're having trouble on our end. If you need support right now, call or text 988."

	// panicFallbackText is the one message attempted when handling fails
	// unexpectedly.
	panicFallbackText = "Something went wrong on our end. If you need support right now, " +
		"call or text 988 to reach the Suicide & Crisis Lifeline."
)

// Orchestrator coordinates one inbound message end to end. Storage writes
// are best-effort: a failed insert is logged and never blocks the reply.
type Orchestrator struct {
	sessions  *session.Store
	repo      store.Repository
	assessor  *risk.Assessor
	generator Generator // nil disables generated replies
	sender    Sender
	maxLen    int
}

// New creates an orchestrator. maxLen is the inbound-message size limit.
func New(sessions *session.Store, repo store.Repository, assessor *risk.Assessor, generator Generator, sender Sender, maxLen int) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		repo:      repo,
		assessor:  assessor,
		generator: generator,
		sender:    sender,
		maxLen:    maxLen,
	}
}

// Result is the outcome of handling one inbound message.
type Result struct {
	Success   bool
	Response  string
	RiskLevel domain.RiskLevel
	Err       error
}

// Handle processes one inbound message to completion. It never panics
// outward: an unexpected failure is recovered, one fallback message is
// attempted, and a failure result is returned.
func (o *Orchestrator) Handle(ctx context.Context, from, text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message handling panicked", "phone_number", from, "panic", r)
			o.sendBestEffort(ctx, from, panicFallbackText)
			res = Result{Success: false, Err: fmt.Errorf("internal failure handling message: %v", r)}
		}
	}()

	// Validation failures are silent: no reply, no storage.
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(text) > o.maxLen {
		slog.Debug("dropping invalid inbound message", "phone_number", from, "length", len(text))
		return Result{Success: false, Err: ErrInvalidMessage}
	}

	o.touchUser(ctx, from)

	// Commands bypass risk assessment entirely.
	if reply, ok := o.handleCommand(ctx, from, trimmed); ok {
		none := risk.Assessment{Level: domain.RiskNone}
		o.storeInbound(ctx, from, text, none)
		o.storeOutbound(ctx, from, reply)
		o.send(ctx, from, reply)
		return Result{Success: true, Response: reply, RiskLevel: domain.RiskNone}
	}

	// Any non-command message answers an outstanding check-in.
	if o.sessions.Get(ctx, from).Flags.NeedsCheckIn {
		o.recordCheckInResponse(ctx, from, text)
	}

	assessment := o.assessor.Assess(text)
	if risk.RequiresHumanEscalation(assessment.Level) {
		return o.handleCrisis(ctx, from, text, assessment)
	}
	return o.handleNormal(ctx, from, text, assessment)
}

// handleCrisis owns the high/critical path. The mandatory crisis response
// is composed and sent first; the conversational follow-up is attempted
// afterwards and its failure never touches the crisis message.
func (o *Orchestrator) handleCrisis(ctx context.Context, from, text string, a risk.Assessment) Result {
	ev := &domain.CrisisEvent{
		PhoneNumber:    from,
		RiskLevel:      a.Level,
		RiskCategories: a.Categories,
		MessagePreview: domain.Preview(text),
		Escalated:      a.RequiresImmediateIntervention,
	}
	if err := o.repo.InsertCrisisEvent(ctx, ev); err != nil {
		slog.Error("failed to record crisis event", "phone_number", from, "level", a.Level, "error", err)
	} else {
		slog.Warn("crisis event recorded",
			"event_id", ev.ID,
			"phone_number", from,
			"level", a.Level,
			"escalated", ev.Escalated)
	}

	crisisText := risk.CrisisResponse(a.Level)

	o.storeInbound(ctx, from, text, a)
	o.storeOutbound(ctx, from, crisisText)
	o.send(ctx, from, crisisText)

	assistantTurn := crisisText
	if followUp := o.generateFollowUp(ctx, from, text, a); followUp != "" {
		o.storeOutbound(ctx, from, followUp)
		o.send(ctx, from, followUp)
		assistantTurn = crisisText + "\n\n" + followUp
	}

	o.sessions.UpdateContext(ctx, from, text, assistantTurn, a)

	if err := o.repo.RaiseUserRisk(ctx, from, a.Level); err != nil {
		slog.Warn("failed to raise profile risk level", "phone_number", from, "error", err)
	}

	return Result{Success: true, Response: assistantTurn, RiskLevel: a.Level}
}

// handleNormal answers none/low/medium messages. A reply always goes out:
// generation failure substitutes fixed supportive text.
func (o *Orchestrator) handleNormal(ctx context.Context, from, text string, a risk.Assessment) Result {
	reply := o.generateReply(ctx, from, text)

	o.storeInbound(ctx, from, text, a)
	o.storeOutbound(ctx, from, reply)
	o.send(ctx, from, reply)

	o.sessions.UpdateContext(ctx, from, text, reply, a)

	if mood := deriveMood(text); mood != "" {
		o.sessions.UpdateMood(ctx, from, mood)
	}
	if topic := deriveTopic(text); topic != "" {
		o.sessions.SetTopic(ctx, from, topic)
	}

	return Result{Success: true, Response: reply, RiskLevel: a.Level}
}

// generateReply produces the conversational reply for the normal path,
// falling back to fixed text when the generator is absent or fails.
func (o *Orchestrator) generateReply(ctx context.Context, from, text string) string {
	snap := o.sessions.ContextForAI(ctx, from)
	if o.generator != nil {
		reply, err := o.generator.Generate(ctx, text, snap)
		if err == nil {
			return reply
		}
		slog.Warn("reply generation failed, using fallback", "phone_number", from, "error", err)
	}
	if snap.InCrisis {
		return crisisFallbackText
	}
	return fallbackText
}

// generateFollowUp attempts the post-crisis conversational message with the
// crisis context injected into the snapshot. Empty means no follow-up.
func (o *Orchestrator) generateFollowUp(ctx context.Context, from, text string, a risk.Assessment) string {
	if o.generator == nil {
		return ""
	}
	snap := o.sessions.ContextForAI(ctx, from)
	snap.InCrisis = true
	if a.Level.Above(snap.RiskLevel) {
		snap.RiskLevel = a.Level
	}
	followUp, err := o.generator.Generate(ctx, text, snap)
	if err != nil {
		slog.Warn("crisis follow-up generation failed", "phone_number", from, "error", err)
		return ""
	}
	return followUp
}

// recordCheckInResponse marks the outstanding check-in answered and clears
// the session flag.
func (o *Orchestrator) recordCheckInResponse(ctx context.Context, from, text string) {
	marked, err := o.repo.MarkCheckInResponded(ctx, from, text, time.Now())
	if err != nil {
		slog.Warn("failed to record check-in response", "phone_number", from, "error", err)
	} else if marked {
		slog.Info("check-in response recorded", "phone_number", from)
	}
	o.sessions.ClearCheckInFlag(ctx, from)
}

// send delivers body, retrying once with minimal fallback text. Reports
// whether anything went out.
func (o *Orchestrator) send(ctx context.Context, to, body string) bool {
	_, err := o.sender.Send(ctx, to, body)
	if err == nil {
		return true
	}
	slog.Error("outbound send failed, retrying with minimal text", "phone_number", to, "error", err)
	if _, err := o.sender.Send(ctx, to, minimalFallbackText); err != nil {
		slog.Error("outbound retry failed, abandoning send", "phone_number", to, "error", err)
		return false
	}
	return true
}

// sendBestEffort makes exactly one delivery attempt.
func (o *Orchestrator) sendBestEffort(ctx context.Context, to, body string) {
	if _, err := o.sender.Send(ctx, to, body); err != nil {
		slog.Error("fallback send failed", "phone_number", to, "error", err)
	}
}

func (o *Orchestrator) touchUser(ctx context.Context, from string) {
	if err := o.repo.TouchUser(ctx, from, time.Now()); err != nil {
		slog.Warn("failed to touch user profile", "phone_number", from, "error", err)
	}
}

func (o *Orchestrator) storeInbound(ctx context.Context, from, body string, a risk.Assessment) {
	rec := &domain.ConversationRecord{
		PhoneNumber:    from,
		Body:           body,
		Direction:      domain.DirectionIncoming,
		RiskLevel:      a.Level,
		RiskCategories: a.Categories,
	}
	if err := o.repo.InsertConversation(ctx, rec); err != nil {
		slog.Warn("failed to store inbound message", "phone_number", from, "error", err)
	}
}

func (o *Orchestrator) storeOutbound(ctx context.Context, to, body string) {
	rec := &domain.ConversationRecord{
		PhoneNumber: to,
		Body:        body,
		Direction:   domain.DirectionOutgoing,
		RiskLevel:   domain.RiskNone,
	}
	if err := o.repo.InsertConversation(ctx, rec); err != nil {
		slog.Warn("failed to store outbound message", "phone_number", to, "error", err)
	}
}
