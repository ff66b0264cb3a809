package domain

import "fmt"

// RiskLevel is the ordinal severity classification assigned to a message or
// session: none < low < medium < high < critical.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRanks = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

var riskByRank = [...]RiskLevel{RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Rank returns the integer position of the level in the severity order.
// All comparisons go through ranks; string comparison would order the
// levels alphabetically and is never correct.
func (l RiskLevel) Rank() int {
	if r, ok := riskRanks[l]; ok {
		return r
	}
	return 0
}

// Valid reports whether l is one of the five known levels.
func (l RiskLevel) Valid() bool {
	_, ok := riskRanks[l]
	return ok
}

// Above reports whether l is strictly more severe than other.
func (l RiskLevel) Above(other RiskLevel) bool {
	return l.Rank() > other.Rank()
}

// AtLeast reports whether l is at least as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

func (l RiskLevel) String() string {
	return string(l)
}

// RiskLevelFromRank maps a stored integer rank back to its level.
// Out-of-range ranks clamp to the nearest bound so corrupt rows degrade
// to a usable value instead of failing the read.
func RiskLevelFromRank(rank int) RiskLevel {
	if rank < 0 {
		return RiskNone
	}
	if rank >= len(riskByRank) {
		return RiskCritical
	}
	return riskByRank[rank]
}

// ParseRiskLevel validates a level string read from external input.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if !l.Valid() {
		return RiskNone, fmt.Errorf("unknown risk level %q", s)
	}
	return l, nil
}
