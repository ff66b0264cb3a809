package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession("+15550001111")

	if !s.IsFirstTime {
		t.Error("new session should be first-time")
	}
	if s.RiskLevel != RiskNone {
		t.Errorf("new session risk = %s, want none", s.RiskLevel)
	}
	if len(s.Context) != 0 {
		t.Errorf("new session context length = %d, want 0", len(s.Context))
	}
	if s.MessageCount != 0 {
		t.Errorf("new session message count = %d, want 0", s.MessageCount)
	}
}

func TestAppendExchangeEvictsFIFO(t *testing.T) {
	s := NewSession("+15550001111")

	for i := 0; i < 15; i++ {
		s.AppendExchange(Exchange{
			UserText:  fmt.Sprintf("message %d", i),
			Timestamp: time.Now(),
			RiskLevel: RiskNone,
		})
	}

	if len(s.Context) != ContextCapacity {
		t.Fatalf("context length = %d, want %d", len(s.Context), ContextCapacity)
	}
	// The 5 oldest entries (0..4) are gone; 5..14 remain in order.
	if got := s.Context[0].UserText; got != "message 5" {
		t.Errorf("oldest retained exchange = %q, want %q", got, "message 5")
	}
	if got := s.Context[ContextCapacity-1].UserText; got != "message 14" {
		t.Errorf("newest exchange = %q, want %q", got, "message 14")
	}
}

func TestRaiseRiskNonDecreasing(t *testing.T) {
	s := NewSession("+15550001111")

	s.RaiseRisk(RiskLow)
	s.RaiseRisk(RiskHigh)
	if s.RiskLevel != RiskHigh {
		t.Fatalf("risk after low,high = %s, want high", s.RiskLevel)
	}

	s.RaiseRisk(RiskLow)
	if s.RiskLevel != RiskHigh {
		t.Errorf("risk lowered by RaiseRisk(low): %s", s.RiskLevel)
	}
}

func TestClearCrisis(t *testing.T) {
	s := NewSession("+15550001111")
	s.RaiseRisk(RiskCritical)
	s.Flags.InCrisis = true

	s.ClearCrisis()

	if s.Flags.InCrisis {
		t.Error("in-crisis flag should be cleared")
	}
	if s.RiskLevel != RiskNone {
		t.Errorf("risk after explicit clear = %s, want none", s.RiskLevel)
	}
}

func TestRecentExchanges(t *testing.T) {
	s := NewSession("+15550001111")
	for i := 0; i < 4; i++ {
		s.AppendExchange(Exchange{UserText: fmt.Sprintf("m%d", i)})
	}

	recent := s.RecentExchanges(2)
	if len(recent) != 2 {
		t.Fatalf("RecentExchanges(2) returned %d entries", len(recent))
	}
	if recent[0].UserText != "m2" || recent[1].UserText != "m3" {
		t.Errorf("unexpected recent window: %+v", recent)
	}

	if got := len(s.RecentExchanges(10)); got != 4 {
		t.Errorf("oversized window should return all 4, got %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSession("+15550001111")
	s.AppendExchange(Exchange{UserText: "hello"})
	s.Preferences = map[string]string{"tone": "gentle"}

	c := s.Clone()
	c.AppendExchange(Exchange{UserText: "world"})
	c.Preferences["tone"] = "direct"
	c.RiskLevel = RiskHigh

	if len(s.Context) != 1 {
		t.Errorf("clone mutation leaked into original context: %d entries", len(s.Context))
	}
	if s.Preferences["tone"] != "gentle" {
		t.Errorf("clone mutation leaked into original preferences: %q", s.Preferences["tone"])
	}
	if s.RiskLevel != RiskNone {
		t.Errorf("clone mutation leaked into original risk: %s", s.RiskLevel)
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("nil clone should stay nil")
	}
}

func TestPreviewTruncates(t *testing.T) {
	short := "help me"
	if Preview(short) != short {
		t.Error("short bodies should be unchanged")
	}

	long := ""
	for i := 0; i < 40; i++ {
		long += "abcde"
	}
	got := Preview(long)
	if len([]rune(got)) != PreviewLength {
		t.Errorf("preview length = %d, want %d", len([]rune(got)), PreviewLength)
	}
}
