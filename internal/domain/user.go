package domain

import (
	"time"
)

// UserProfile is the durable per-user record. Unlike the session, the
// profile persists indefinitely; its RiskLevel is a high-water mark that
// only rises.
type UserProfile struct {
	PhoneNumber      string            `json:"phone_number"`
	FirstInteraction time.Time         `json:"first_interaction"`
	LastInteraction  time.Time         `json:"last_interaction"`
	TotalMessages    int64             `json:"total_messages"`
	RiskLevel        RiskLevel         `json:"risk_level"`
	IsActive         bool              `json:"is_active"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Snapshot is the read-only merged view of session state and durable
// profile handed to the response generator. It is always well-formed: when
// either tier is unreachable the zero-value stub with IsFirstTime set is
// used instead.
type Snapshot struct {
	IsFirstTime   bool       `json:"is_first_time"`
	MessageCount  int        `json:"message_count"`
	TotalMessages int64      `json:"total_messages"`
	CurrentTopic  string     `json:"current_topic,omitempty"`
	Mood          string     `json:"mood,omitempty"`
	RiskLevel     RiskLevel  `json:"risk_level,omitempty"`
	InCrisis      bool       `json:"in_crisis"`
	IsActive      bool       `json:"is_active"`
	Recent        []Exchange `json:"recent,omitempty"`
}

// StubSnapshot is the minimal well-formed snapshot returned when session or
// profile reads fail.
func StubSnapshot() Snapshot {
	return Snapshot{IsFirstTime: true}
}
