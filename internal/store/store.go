// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/heartlinehq/heartline/internal/domain"
)

// Repository defines the interface for the durable tier: user profiles,
// conversation history, crisis events, and check-ins.
type Repository interface {
	// GetUser retrieves a user profile by phone number.
	// Returns (nil, nil) when the user has never been seen.
	GetUser(ctx context.Context, phoneNumber string) (*domain.UserProfile, error)

	// TouchUser creates the user row on first contact and advances
	// last_interaction and total_messages on every subsequent one.
	TouchUser(ctx context.Context, phoneNumber string, at time.Time) error

	// RaiseUserRisk raises the stored risk level to the given level.
	// The stored level is a high-water mark: it only ever goes up.
	RaiseUserRisk(ctx context.Context, phoneNumber string, level domain.RiskLevel) error

	// SetUserActive flips the opt-in flag (STOP/START).
	SetUserActive(ctx context.Context, phoneNumber string, active bool) error

	// InsertConversation appends one message to the conversation log.
	InsertConversation(ctx context.Context, rec *domain.ConversationRecord) error

	// RecentConversations returns the user's most recent messages, newest
	// first.
	RecentConversations(ctx context.Context, phoneNumber string, limit int) ([]domain.ConversationRecord, error)

	// InsertCrisisEvent records a crisis detection for audit. The store
	// assigns rec.ID. Events are never deleted by this service.
	InsertCrisisEvent(ctx context.Context, ev *domain.CrisisEvent) error

	// ListCrisisEvents returns the most recent crisis events, newest first.
	ListCrisisEvents(ctx context.Context, limit int) ([]domain.CrisisEvent, error)

	// InsertCheckIn records an outbound check-in. The store assigns ci.ID.
	InsertCheckIn(ctx context.Context, ci *domain.CheckIn) error

	// MarkCheckInResponded marks the newest unanswered check-in for the
	// user as responded and reports whether one existed.
	MarkCheckInResponded(ctx context.Context, phoneNumber, responseText string, at time.Time) (bool, error)

	// ListCheckIns returns the most recent check-ins, newest first.
	ListCheckIns(ctx context.Context, limit int) ([]domain.CheckIn, error)

	// ListCheckInCandidates returns active users at or above the given risk
	// rank whose last interaction predates the cutoff and who have no
	// unanswered check-in outstanding.
	ListCheckInCandidates(ctx context.Context, minRank int, before time.Time) ([]domain.UserProfile, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
