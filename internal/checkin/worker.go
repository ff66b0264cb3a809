// Package checkin sends proactive follow-up messages to users who were
// recently assessed at high or critical risk and have since gone quiet.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartlinehq/heartline/internal/domain"
	"github.com/heartlinehq/heartline/internal/session"
	"github.com/heartlinehq/heartline/internal/store"
)

// Sender delivers outbound SMS. sms.Client implements it.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// checkInText is the proactive follow-up. It repeats the opt-out keyword
// because the user did not initiate this exchange.
const checkInText = "Hey, it's Heartline. We talked a little while ago and I wanted to check in. " +
	"How are you doing today? (Text STOP to opt out of messages.)"

// StartWorker runs a background goroutine that periodically finds users due
// for a check-in and sends each one a message. Candidates are active users
// at high or critical risk whose last interaction predates the delay and
// who have no unanswered check-in outstanding.
func StartWorker(ctx context.Context, repo store.Repository, sessions *session.Store, sender Sender, interval, delay time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("check-in worker started", "interval", interval, "delay", delay)

		for {
			select {
			case <-ticker.C:
				sweepDueUsers(ctx, repo, sessions, sender, delay)
			case <-ctx.Done():
				slog.Info("check-in worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepDueUsers(ctx context.Context, repo store.Repository, sessions *session.Store, sender Sender, delay time.Duration) {
	due, err := repo.ListCheckInCandidates(ctx, domain.RiskHigh.Rank(), time.Now().Add(-delay))
	if err != nil {
		slog.Error("check-in worker failed to list candidates", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("check-in worker found due users", "count", len(due))

	sent := 0
	for _, user := range due {
		if err := sendCheckIn(ctx, repo, sessions, sender, user.PhoneNumber); err != nil {
			slog.Warn("check-in failed", "phone_number", user.PhoneNumber, "error", err)
			continue
		}
		sent++
	}

	slog.Info("check-in sweep completed", "sent", sent)
}

// sendCheckIn records and delivers one check-in. The row goes in first: the
// pending row is what keeps the next sweep from picking the same user up
// again, so a user never gets two check-ins for one quiet period.
func sendCheckIn(ctx context.Context, repo store.Repository, sessions *session.Store, sender Sender, phone string) error {
	ci := &domain.CheckIn{PhoneNumber: phone}
	if err := repo.InsertCheckIn(ctx, ci); err != nil {
		return fmt.Errorf("insert check-in: %w", err)
	}

	if _, err := sender.Send(ctx, phone, checkInText); err != nil {
		return fmt.Errorf("send check-in: %w", err)
	}

	sessions.MarkForCheckIn(ctx, phone)
	slog.Info("check-in sent", "phone_number", phone, "check_in_id", ci.ID)
	return nil
}
