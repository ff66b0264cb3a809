// Package risk scores inbound messages against weighted keyword categories
// and produces the canned crisis responses tied to each level. The scoring
// is a blunt heuristic that errs toward over-flagging; it is not a clinical
// classifier.
package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/heartlinehq/heartline/internal/domain"
)

// Category names as stored in risk_categories columns and audit logs.
const (
	CategorySuicide       = "suicide"
	CategorySelfHarm      = "self_harm"
	CategoryAbuse         = "abuse"
	CategorySubstance     = "substance"
	CategoryImmediateRisk = "immediate_risk"
)

// baseCategories are scored on their own; immediate_risk only amplifies.
// The slice fixes iteration order so assessments are deterministic.
var baseCategories = []string{CategorySuicide, CategorySelfHarm, CategoryAbuse, CategorySubstance}

// Thresholds are the cumulative-score boundaries between levels. A score of
// zero is always none; otherwise scores below Low are low, below Medium are
// medium, below High are high, and everything else is critical.
type Thresholds struct {
	Low    int `yaml:"low"`
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
}

// LevelFor maps a cumulative score onto the ordinal risk scale.
func (t Thresholds) LevelFor(score int) domain.RiskLevel {
	switch {
	case score == 0:
		return domain.RiskNone
	case score < t.Low:
		return domain.RiskLow
	case score < t.Medium:
		return domain.RiskMedium
	case score < t.High:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// Lexicon is the complete scoring configuration: keyword dictionaries,
// per-category weights, and level thresholds. The shipped defaults are
// fixed constants; compatibility depends on them staying exactly as they
// are, so an override file replaces the lexicon wholesale rather than
// merging into it.
type Lexicon struct {
	Keywords   map[string][]string `yaml:"keywords"`
	Weights    map[string]int      `yaml:"weights"`
	Thresholds Thresholds          `yaml:"thresholds"`
}

// DefaultLexicon returns the shipped dictionaries and weights.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Keywords: map[string][]string{
			CategorySuicide: {
				"suicide",
				"suicidal",
				"kill myself",
				"killing myself",
				"end my life",
				"ending my life",
				"want to die",
				"wanna die",
				"better off dead",
				"take my own life",
				"end it all",
				"no reason to live",
				"not worth living",
				"don't want to be alive",
			},
			CategorySelfHarm: {
				"cut myself",
				"cutting myself",
				"hurt myself",
				"hurting myself",
				"self harm",
				"self-harm",
				"burn myself",
				"starve myself",
				"punish myself",
			},
			CategoryAbuse: {
				"hits me",
				"hitting me",
				"beats me",
				"hurting me",
				"abusing me",
				"abuses me",
				"molested",
				"raped",
				"afraid of him",
				"afraid of her",
				"threatens me",
				"won't let me leave",
			},
			CategorySubstance: {
				"overdose",
				"overdosing",
				"too many pills",
				"drank too much",
				"blackout drunk",
				"relapse",
				"relapsed",
				"can't stop drinking",
				"can't stop using",
				"high to cope",
			},
			CategoryImmediateRisk: {
				"right now",
				"tonight",
				"about to",
				"goodbye forever",
				"this is goodbye",
				"have a plan",
				"wrote a note",
				"loaded gun",
				"on the bridge",
				"on the ledge",
				"pills in my hand",
				"kill myself",
				"want to kill",
			},
		},
		Weights: map[string]int{
			CategorySuicide:       10,
			CategorySelfHarm:      7,
			CategoryAbuse:         8,
			CategorySubstance:     5,
			CategoryImmediateRisk: 15,
		},
		Thresholds: Thresholds{Low: 10, Medium: 20, High: 40},
	}
}

// LoadLexicon reads a replacement lexicon from a YAML file.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon file: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon file: %w", err)
	}

	if err := lex.Validate(); err != nil {
		return Lexicon{}, fmt.Errorf("invalid lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Validate checks that a lexicon covers every category with usable weights
// and ascending thresholds.
func (l Lexicon) Validate() error {
	for _, cat := range append(append([]string{}, baseCategories...), CategoryImmediateRisk) {
		if len(l.Keywords[cat]) == 0 {
			return fmt.Errorf("category %q has no keywords", cat)
		}
		if l.Weights[cat] <= 0 {
			return fmt.Errorf("category %q has no positive weight", cat)
		}
	}
	t := l.Thresholds
	if t.Low <= 0 || t.Medium <= t.Low || t.High <= t.Medium {
		return fmt.Errorf("thresholds must ascend: low=%d medium=%d high=%d", t.Low, t.Medium, t.High)
	}
	return nil
}
