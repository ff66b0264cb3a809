package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heartlinehq/heartline/internal/domain"
)

func TestDefaultLexiconValid(t *testing.T) {
	if err := DefaultLexicon().Validate(); err != nil {
		t.Fatalf("shipped lexicon invalid: %v", err)
	}
}

func TestThresholdBands(t *testing.T) {
	th := DefaultLexicon().Thresholds
	tests := []struct {
		score int
		want  domain.RiskLevel
	}{
		{0, domain.RiskNone},
		{1, domain.RiskLow},
		{9, domain.RiskLow},
		{10, domain.RiskMedium},
		{19, domain.RiskMedium},
		{20, domain.RiskHigh},
		{39, domain.RiskHigh},
		{40, domain.RiskCritical},
		{500, domain.RiskCritical},
	}
	for _, tc := range tests {
		if got := th.LevelFor(tc.score); got != tc.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestLoadLexiconOverride(t *testing.T) {
	const override = `
keywords:
  suicide: ["alpha"]
  self_harm: ["beta"]
  abuse: ["gamma"]
  substance: ["delta"]
  immediate_risk: ["epsilon"]
weights:
  suicide: 20
  self_harm: 8
  abuse: 9
  substance: 6
  immediate_risk: 30
thresholds:
  low: 5
  medium: 15
  high: 50
`
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}

	// The override replaces the defaults wholesale.
	if len(lex.Keywords[CategorySuicide]) != 1 || lex.Keywords[CategorySuicide][0] != "alpha" {
		t.Errorf("suicide keywords = %v, want [alpha]", lex.Keywords[CategorySuicide])
	}
	if lex.Weights[CategorySuicide] != 20 {
		t.Errorf("suicide weight = %d, want 20", lex.Weights[CategorySuicide])
	}
	if lex.Thresholds.High != 50 {
		t.Errorf("high threshold = %d, want 50", lex.Thresholds.High)
	}

	a := NewAssessor(lex)
	got := a.Assess("alpha epsilon")
	if got.Score != 50 || got.Level != domain.RiskCritical {
		t.Errorf("override assess = %s (score %d), want critical (50)", got.Level, got.Score)
	}
	if def := a.Assess("I want to kill myself"); def.Level != domain.RiskNone {
		t.Errorf("default keywords survived override: %s", def.Level)
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadLexiconRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"missing category",
			`
keywords:
  suicide: ["alpha"]
weights:
  suicide: 10
thresholds: {low: 10, medium: 20, high: 40}
`,
		},
		{
			"zero weight",
			`
keywords:
  suicide: ["a"]
  self_harm: ["b"]
  abuse: ["c"]
  substance: ["d"]
  immediate_risk: ["e"]
weights:
  suicide: 0
  self_harm: 7
  abuse: 8
  substance: 5
  immediate_risk: 15
thresholds: {low: 10, medium: 20, high: 40}
`,
		},
		{
			"descending thresholds",
			`
keywords:
  suicide: ["a"]
  self_harm: ["b"]
  abuse: ["c"]
  substance: ["d"]
  immediate_risk: ["e"]
weights:
  suicide: 10
  self_harm: 7
  abuse: 8
  substance: 5
  immediate_risk: 15
thresholds: {low: 20, medium: 10, high: 40}
`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lexicon.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadLexicon(path); err == nil {
				t.Error("invalid lexicon accepted")
			}
		})
	}
}
