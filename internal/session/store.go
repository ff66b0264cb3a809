// Package session maintains per-user conversation state across messages,
// layered over a fast cache tier and an in-process fallback table. Reads
// never fail; every degradation path ends in a usable session.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/heartlinehq/heartline/internal/cache"
	"github.com/heartlinehq/heartline/internal/domain"
	"github.com/heartlinehq/heartline/internal/risk"
	"github.com/heartlinehq/heartline/internal/store"
)

// KV is the fast cache tier. cache.Client satisfies it; tests substitute an
// in-memory fake.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// recentWindow is how many exchanges a context snapshot carries.
const recentWindow = 5

// Store layers session state across the cache and fallback tiers and merges
// in the durable profile for read-only snapshots.
type Store struct {
	cache    KV // nil when no cache is configured
	repo     store.Repository
	cacheTTL time.Duration
	idleTTL  time.Duration
	fallback *fallbackTable
}

// New creates a tiered session store. cache may be nil; sessions then live
// only in the fallback table until the sweeper evicts them.
func New(kv KV, repo store.Repository, cacheTTL, idleTTL time.Duration) *Store {
	return &Store{
		cache:    kv,
		repo:     repo,
		cacheTTL: cacheTTL,
		idleTTL:  idleTTL,
		fallback: newFallbackTable(),
	}
}

// Get returns the session for id. It never fails: a cache miss or error
// falls back to the in-process table, and a total miss synthesizes a fresh
// first-time session and writes it through both tiers.
func (s *Store) Get(ctx context.Context, id string) *domain.Session {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, cache.SessionKey(id))
		switch {
		case err != nil:
			slog.Warn("session cache read failed, using fallback", "error", err)
		case data != nil:
			var sess domain.Session
			if err := json.Unmarshal(data, &sess); err != nil {
				slog.Warn("session cache entry corrupt, using fallback", "error", err)
			} else {
				return &sess
			}
		}
	}

	if sess := s.fallback.get(id); sess != nil {
		return sess
	}

	sess := domain.NewSession(id)
	s.Save(ctx, sess)
	return sess
}

// Save writes the session to both tiers. The returned bool reports only the
// cache-tier write; the fallback write always happens, so a false return is
// diagnostic, not a failure.
func (s *Store) Save(ctx context.Context, sess *domain.Session) bool {
	cacheOK := false
	if s.cache != nil {
		if data, err := json.Marshal(sess); err != nil {
			slog.Warn("session encode failed", "phone_number", sess.PhoneNumber, "error", err)
		} else if err := s.cache.SetWithTTL(ctx, cache.SessionKey(sess.PhoneNumber), data, s.cacheTTL); err != nil {
			slog.Warn("session cache write failed", "error", err)
		} else {
			cacheOK = true
		}
	}

	s.fallback.put(sess)
	return cacheOK
}

// UpdateContext appends a completed exchange and folds the assessment into
// the session: counters advance, the risk level ratchets upward, and the
// crisis and resource flags are set. The updated session is persisted via
// Save and returned.
func (s *Store) UpdateContext(ctx context.Context, id, userMsg, assistantMsg string, a risk.Assessment) *domain.Session {
	sess := s.Get(ctx, id)

	sess.AppendExchange(domain.Exchange{
		UserText:      userMsg,
		AssistantText: assistantMsg,
		Timestamp:     time.Now(),
		RiskLevel:     a.Level,
	})
	sess.MessageCount++
	sess.IsFirstTime = false
	sess.RaiseRisk(a.Level)
	if a.Level.AtLeast(domain.RiskHigh) {
		sess.Flags.InCrisis = true
	}
	if len(a.Resources) > 0 {
		sess.Flags.HasSeenResources = true
	}
	sess.Touch()

	s.Save(ctx, sess)
	return sess
}

// ContextForAI assembles the read-only snapshot handed to the response
// generator: session fields merged with the durable profile. A profile read
// failure degrades to the minimal stub.
func (s *Store) ContextForAI(ctx context.Context, id string) domain.Snapshot {
	sess := s.Get(ctx, id)

	snap := domain.Snapshot{
		IsFirstTime:   sess.IsFirstTime,
		MessageCount:  sess.MessageCount,
		TotalMessages: int64(sess.MessageCount),
		CurrentTopic:  sess.CurrentTopic,
		Mood:          sess.Mood,
		RiskLevel:     sess.RiskLevel,
		InCrisis:      sess.Flags.InCrisis,
		IsActive:      true,
		Recent:        sess.RecentExchanges(recentWindow),
	}

	profile, err := s.repo.GetUser(ctx, id)
	if err != nil {
		slog.Warn("profile read failed, using stub context", "error", err)
		return domain.StubSnapshot()
	}
	if profile != nil {
		snap.TotalMessages = profile.TotalMessages
		snap.IsActive = profile.IsActive
		if profile.RiskLevel.Above(snap.RiskLevel) {
			snap.RiskLevel = profile.RiskLevel
		}
	}
	return snap
}

// MarkForCheckIn flags the session so the next inbound message is treated
// as a check-in response.
func (s *Store) MarkForCheckIn(ctx context.Context, id string) {
	sess := s.Get(ctx, id)
	sess.Flags.NeedsCheckIn = true
	s.Save(ctx, sess)
}

// ClearCheckInFlag drops the check-in flag once a response has been
// recorded.
func (s *Store) ClearCheckInFlag(ctx context.Context, id string) {
	sess := s.Get(ctx, id)
	sess.Flags.NeedsCheckIn = false
	s.Save(ctx, sess)
}

// ClearCrisisFlag is the explicit de-escalation path: it drops the crisis
// flag and resets the session risk level. The durable profile's high-water
// mark stays put.
func (s *Store) ClearCrisisFlag(ctx context.Context, id string) {
	sess := s.Get(ctx, id)
	sess.ClearCrisis()
	s.Save(ctx, sess)
}

// UpdatePreferences sets one preference key.
func (s *Store) UpdatePreferences(ctx context.Context, id, key, value string) {
	sess := s.Get(ctx, id)
	if sess.Preferences == nil {
		sess.Preferences = make(map[string]string)
	}
	sess.Preferences[key] = value
	s.Save(ctx, sess)
}

// SetTopic records the current conversation topic.
func (s *Store) SetTopic(ctx context.Context, id, topic string) {
	sess := s.Get(ctx, id)
	sess.CurrentTopic = topic
	s.Save(ctx, sess)
}

// UpdateMood records the user's current mood.
func (s *Store) UpdateMood(ctx context.Context, id, mood string) {
	sess := s.Get(ctx, id)
	sess.Mood = mood
	s.Save(ctx, sess)
}

// Cleanup evicts fallback-tier sessions idle longer than the idle TTL. The
// cache tier expires entries on its own and the durable tier is never
// touched. Safe to call repeatedly.
func (s *Store) Cleanup() int {
	evicted := s.fallback.sweep(time.Now().Add(-s.idleTTL))
	if evicted > 0 {
		slog.Info("session sweeper evicted idle sessions", "count", evicted)
	}
	return evicted
}

// FallbackSize returns the number of sessions in the in-process tier.
func (s *Store) FallbackSize() int {
	return s.fallback.size()
}
