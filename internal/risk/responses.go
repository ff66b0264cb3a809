package risk

import (
	"github.com/heartlinehq/heartline/internal/domain"
)

// Resource is a hotline descriptor surfaced alongside an assessment. The
// contact strings are compliance-bearing literals and must be reproduced
// verbatim, never paraphrased or reformatted.
type Resource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

var categoryResources = map[string][]Resource{
	CategorySuicide: {
		{Name: "988 Suicide & Crisis Lifeline", Contact: "Call or text 988"},
		{Name: "Crisis Text Line", Contact: "Text HOME to 741741"},
	},
	CategorySelfHarm: {
		{Name: "Crisis Text Line", Contact: "Text HOME to 741741"},
	},
	CategoryAbuse: {
		{Name: "National Domestic Violence Hotline", Contact: "Call 1-800-799-7233"},
	},
	CategorySubstance: {
		{Name: "SAMHSA National Helpline", Contact: "Call 1-800-662-4357"},
	},
	CategoryImmediateRisk: {
		{Name: "Emergency Services", Contact: "Call 911"},
	},
}

// ResourcesFor returns the hotline descriptors for the matched categories,
// in category order, deduplicated.
func ResourcesFor(categories []string) []Resource {
	var out []Resource
	seen := make(map[string]bool)
	for _, cat := range categories {
		for _, r := range categoryResources[cat] {
			if seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			out = append(out, r)
		}
	}
	return out
}

// AllResources returns every hotline descriptor, for the RESOURCES command.
func AllResources() []Resource {
	return ResourcesFor([]string{
		CategorySuicide,
		CategorySelfHarm,
		CategoryAbuse,
		CategorySubstance,
		CategoryImmediateRisk,
	})
}

var crisisResponses = map[domain.RiskLevel]string{
	domain.RiskLow: "Thank you for trusting me with that. I'm here with you. " +
		"If you ever want extra support, you can call or text 988 anytime to reach a trained counselor.",
	domain.RiskMedium: "That sounds really hard, and I'm glad you told me. " +
		"If things start to feel like too much, support is always there: call or text 988, " +
		"or text HOME to 741741 to reach the Crisis Text Line.",
	domain.RiskHigh: "I'm really concerned about what you're going through. You don't have to face this alone. " +
		"The 988 Suicide & Crisis Lifeline is free and available 24/7: call or text 988. " +
		"You can also text HOME to 741741 to reach the Crisis Text Line.",
	domain.RiskCritical: "It sounds like you're carrying something very serious right now, and your life matters. " +
		"Please reach out for help right away: call or text 988 to reach the Suicide & Crisis Lifeline, " +
		"or text HOME to 741741. If you are in immediate danger, call 911.",
}

// CrisisResponse returns the mandatory canned reply for a level, or "" for
// none. The hotline numbers inside these templates are fixed literals.
func CrisisResponse(level domain.RiskLevel) string {
	return crisisResponses[level]
}
