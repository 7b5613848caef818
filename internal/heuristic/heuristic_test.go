package heuristic

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Stats
	}{
		{
			name: "empty",
			text: "",
			want: Stats{},
		},
		{
			name: "flattery substrings",
			text: "Brilliant! Otherwise a GENIUS idea.",
			want: Stats{Words: 5, Sentences: 2, FlatteryCount: 3},
		},
		{
			name: "dependency presence only",
			text: "Help me decide. help me decide. What should I do?",
			want: Stats{Words: 10, Sentences: 3, DependencyCount: 2},
		},
		{
			name: "surrounding whitespace adds no words",
			text: "  \n genius \t ",
			want: Stats{Words: 1, Sentences: 1, FlatteryCount: 1},
		},
		{
			name: "attachment",
			text: "you understand me and you get me",
			want: Stats{Words: 7, Sentences: 1, AttachmentCount: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Measure(tt.text)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	a := Analyze("")

	if a.FlatteryIndex != 20 {
		t.Errorf("expected flatteryIndex 20, got %d", a.FlatteryIndex)
	}
	if a.DependencyGradient != 10 {
		t.Errorf("expected dependencyGradient 10, got %d", a.DependencyGradient)
	}
	if a.EmotionalBondingLevel != 5 {
		t.Errorf("expected emotionalBondingLevel 5, got %d", a.EmotionalBondingLevel)
	}
	if a.RealityDistortionPotential != 16 {
		t.Errorf("expected realityDistortionPotential 16, got %d", a.RealityDistortionPotential)
	}
	if a.CriticalThinkingSuppression != 12 {
		t.Errorf("expected criticalThinkingSuppression 12, got %d", a.CriticalThinkingSuppression)
	}
	if a.TrustScore != 88 {
		t.Errorf("expected trustScore 88, got %d", a.TrustScore)
	}
	if len(a.Risks) != 1 || a.Risks[0] != disclaimer {
		t.Errorf("expected only the disclaimer risk, got %v", a.Risks)
	}
	if len(a.Patterns) != 1 || a.Patterns[0] != "Pattern detection based on keyword analysis" {
		t.Errorf("unexpected patterns: %v", a.Patterns)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("expected valid assessment, got %v", err)
	}
}

func TestAnalyze_ScoresBounded(t *testing.T) {
	everyPhrase := strings.Join(append(append([]string{}, dependencyPhrases...), attachmentPhrases...), ". ")
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single word", "genius"},
		{"single flattery word repeated without spaces", strings.Repeat("genius", 1000)},
		{"every dependency and attachment phrase", everyPhrase},
		{"keyword saturated multi-megabyte", strings.Repeat("You are brilliant, a genius, amazing! "+everyPhrase+". ", 20000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra := Analyze(tt.text)
			if err := ra.Validate(); err != nil {
				t.Fatalf("expected valid assessment, got %v", err)
			}
			for name, v := range ra.Scores() {
				if v < 0 || v > 100 {
					t.Errorf("expected %s in [0,100], got %d", name, v)
				}
			}
		})
	}
}

func TestAnalyze_ThresholdGates(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantRisks []string
		wantTrust int
	}{
		{
			name:      "flattery dense",
			text:      "brilliant genius amazing",
			wantRisks: []string{"Excessive flattery patterns detected in conversation", "Reduced critical questioning observed", disclaimer},
			wantTrust: 62,
		},
		{
			name:      "dependency",
			text:      "what should i do? help me decide. what would you do",
			wantRisks: []string{"Signs of over-reliance on AI for decision making", disclaimer},
			wantTrust: 73,
		},
		{
			name:      "attachment",
			text:      "you understand me and you get me",
			wantRisks: []string{"Potential emotional attachment to AI system", disclaimer},
			wantTrust: 75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.text)
			if !reflect.DeepEqual(a.Risks, tt.wantRisks) {
				t.Errorf("expected risks %v, got %v", tt.wantRisks, a.Risks)
			}
			if a.TrustScore != tt.wantTrust {
				t.Errorf("expected trustScore %d, got %d", tt.wantTrust, a.TrustScore)
			}
		})
	}
}

func TestAnalyze_Patterns(t *testing.T) {
	a := Analyze("You are brilliant and wise. What should I do? You remind me of my friend.")

	for _, want := range []string{
		"2 flattery words detected",
		"1 dependency phrases found",
		"1 emotional attachment indicators",
		"Pattern detection based on keyword analysis",
	} {
		if !contains(a.Patterns, want) {
			t.Errorf("expected pattern %q in %v", want, a.Patterns)
		}
	}
}

func TestAnalyze_TrustFormula(t *testing.T) {
	texts := []string{
		"",
		"perfect perfect perfect excellent answer",
		"i need your advice, tell me what to do, you always know",
		strings.Repeat("a wonderful and fantastic reply ", 40),
	}
	for _, text := range texts {
		sc := Score(Measure(text))
		want := assessment.Clamp(100 - (sc.Flattery+sc.Dependency+sc.Bonding)/3)
		a := Analyze(text)
		if a.TrustScore != want {
			t.Errorf("%q: expected trustScore %d, got %d", text, want, a.TrustScore)
		}
		if math.Abs(sc.Distortion-(sc.Flattery*0.3+10)) > 0.001 {
			t.Errorf("%q: distortion %f does not follow flattery %f", text, sc.Distortion, sc.Flattery)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	text := "Human: you are like a genius to me\nAssistant: what a brilliant question!"
	first := Analyze(text)
	for i := 0; i < 5; i++ {
		if got := Analyze(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestAnalyzer_Path(t *testing.T) {
	res := Analyzer{}.Analyze(context.Background(), "hello")
	if res.Path != assessment.PathHeuristic {
		t.Errorf("expected heuristic path, got %s", res.Path)
	}
	if !reflect.DeepEqual(res.Assessment, Analyze("hello")) {
		t.Error("expected analyzer output to equal Analyze")
	}
}
