// Package domain contains core domain types for the heartline service.
package domain

import (
	"time"
)

// ContextCapacity is the maximum number of exchanges a session retains.
const ContextCapacity = 10

// Exchange is one completed user/assistant turn in a conversation.
type Exchange struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Timestamp     time.Time `json:"timestamp"`
	RiskLevel     RiskLevel `json:"risk_level"`
}

// SessionFlags carries per-session routing state.
type SessionFlags struct {
	NeedsCheckIn     bool `json:"needs_check_in"`
	InCrisis         bool `json:"in_crisis"`
	HasSeenResources bool `json:"has_seen_resources"`
}

// Session holds per-user conversational state across messages. Sessions are
// cached in the fast tier as JSON and mirrored in the in-process fallback
// table; they are synthesized fresh on a total miss, never loaded from the
// durable store.
type Session struct {
	PhoneNumber  string            `json:"phone_number"`
	Context      []Exchange        `json:"context"`
	CurrentTopic string            `json:"current_topic,omitempty"`
	Mood         string            `json:"mood,omitempty"`
	RiskLevel    RiskLevel         `json:"risk_level"`
	Flags        SessionFlags      `json:"flags"`
	Preferences  map[string]string `json:"preferences,omitempty"`
	MessageCount int               `json:"message_count"`
	IsFirstTime  bool              `json:"is_first_time"`
	LastActivity time.Time         `json:"last_activity"`
}

// NewSession returns the default session synthesized for a user with no
// cached state.
func NewSession(phoneNumber string) *Session {
	return &Session{
		PhoneNumber:  phoneNumber,
		RiskLevel:    RiskNone,
		IsFirstTime:  true,
		LastActivity: time.Now(),
	}
}

// AppendExchange records one turn, evicting the oldest exchanges in FIFO
// order once the context exceeds ContextCapacity.
func (s *Session) AppendExchange(e Exchange) {
	s.Context = append(s.Context, e)
	if len(s.Context) > ContextCapacity {
		s.Context = s.Context[len(s.Context)-ContextCapacity:]
	}
}

// RaiseRisk lifts the session risk level when lvl is strictly more severe.
// The level never decreases here; ClearCrisis is the only way down.
func (s *Session) RaiseRisk(lvl RiskLevel) {
	if lvl.Above(s.RiskLevel) {
		s.RiskLevel = lvl
	}
}

// ClearCrisis is the explicit downgrade path: it drops the in-crisis flag
// and resets the session risk level. The durable profile's high-water mark
// is not affected.
func (s *Session) ClearCrisis() {
	s.Flags.InCrisis = false
	s.RiskLevel = RiskNone
}

// Clone returns a deep copy. The fallback tier stores and returns clones so
// callers never share a mutable session object.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Context = append([]Exchange(nil), s.Context...)
	if s.Preferences != nil {
		out.Preferences = make(map[string]string, len(s.Preferences))
		for k, v := range s.Preferences {
			out.Preferences[k] = v
		}
	}
	return &out
}

// Touch refreshes the inactivity clock.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// IdleSince reports whether the session has seen no activity since cutoff.
func (s *Session) IdleSince(cutoff time.Time) bool {
	return s.LastActivity.Before(cutoff)
}

// RecentExchanges returns the last n exchanges, oldest first.
func (s *Session) RecentExchanges(n int) []Exchange {
	if n >= len(s.Context) {
		return s.Context
	}
	return s.Context[len(s.Context)-n:]
}
