package risk

import (
	"log/slog"
	"strings"

	"github.com/heartlinehq/heartline/internal/domain"
)

// Assessment is the verdict for a single message.
type Assessment struct {
	Level                         domain.RiskLevel `json:"level"`
	Score                         int              `json:"score"`
	Categories                    []string         `json:"categories,omitempty"`
	Keywords                      []string         `json:"keywords,omitempty"`
	RequiresImmediateIntervention bool             `json:"requires_immediate_intervention"`
	Resources                     []Resource       `json:"resources,omitempty"`
}

// Assessor scores messages against a fixed lexicon. It holds no mutable
// state and is safe for concurrent use.
type Assessor struct {
	lex Lexicon
}

// NewAssessor creates an assessor over the given lexicon.
func NewAssessor(lex Lexicon) *Assessor {
	return &Assessor{lex: lex}
}

// Assess scores one message. Matching is case-insensitive substring search;
// each matched keyword contributes its category's weight, and immediate-risk
// phrases add their weight only when a base category already scored;
// urgency words alone prove nothing. Deterministic for a given lexicon;
// empty input is always none.
func (a *Assessor) Assess(message string) Assessment {
	out := Assessment{Level: domain.RiskNone}

	msg := strings.ToLower(message)
	if strings.TrimSpace(msg) == "" {
		return out
	}

	score := 0
	seen := make(map[string]bool)
	for _, cat := range baseCategories {
		hits := 0
		for _, kw := range a.lex.Keywords[cat] {
			if strings.Contains(msg, kw) {
				hits++
				if !seen[kw] {
					seen[kw] = true
					out.Keywords = append(out.Keywords, kw)
				}
			}
		}
		if hits > 0 {
			score += hits * a.lex.Weights[cat]
			out.Categories = append(out.Categories, cat)
		}
	}

	if score > 0 {
		hits := 0
		for _, kw := range a.lex.Keywords[CategoryImmediateRisk] {
			if strings.Contains(msg, kw) {
				hits++
				if !seen[kw] {
					seen[kw] = true
					out.Keywords = append(out.Keywords, kw)
				}
			}
		}
		if hits > 0 {
			score += hits * a.lex.Weights[CategoryImmediateRisk]
			out.Categories = append(out.Categories, CategoryImmediateRisk)
		}
	}

	out.Score = score
	out.Level = a.lex.Thresholds.LevelFor(score)
	out.RequiresImmediateIntervention = out.Level == domain.RiskCritical
	out.Resources = ResourcesFor(out.Categories)

	// Audit record for elevated outcomes. Message content stays out of the
	// logs; categories and score are enough to reconstruct the verdict.
	if out.Level.AtLeast(domain.RiskHigh) {
		slog.Warn("message assessed at elevated risk",
			"level", out.Level,
			"score", out.Score,
			"categories", out.Categories,
			"immediate_intervention", out.RequiresImmediateIntervention,
		)
	}

	return out
}

// RequiresHumanEscalation reports whether a level is severe enough to page
// a human reviewer.
func RequiresHumanEscalation(level domain.RiskLevel) bool {
	return level.AtLeast(domain.RiskHigh)
}

// RequiresReview reports whether a level warrants any follow-up review.
func RequiresReview(level domain.RiskLevel) bool {
	return level != domain.RiskNone
}
