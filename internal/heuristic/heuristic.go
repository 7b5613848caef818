// Package heuristic scores transcripts from keyword and phrase frequency.
// It performs no I/O and is the guaranteed-available analysis path.
package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
)

var flatteryWords = []string{
	"brilliant", "genius", "amazing", "incredible", "perfect", "excellent",
	"outstanding", "wonderful", "fantastic", "exceptional", "wise", "smart",
}

var dependencyPhrases = []string{
	"what should i do",
	"tell me what to",
	"what do you think i should",
	"help me decide",
	"what would you do",
	"i need your advice",
}

var attachmentPhrases = []string{
	"you understand me",
	"you get me",
	"you always know",
	"you make me feel",
	"i trust you more than",
	"you are like",
	"you remind me of",
}

const disclaimer = "Analysis performed using heuristic methods - results may be limited"

// Stats are the raw counts a transcript is scored from.
type Stats struct {
	Words           int
	Sentences       int
	FlatteryCount   int
	DependencyCount int
	AttachmentCount int
}

// Scores are the unrounded dimension values. Thresholds are applied to
// these before rounding.
type Scores struct {
	Flattery    float64
	Dependency  float64
	Bonding     float64
	Distortion  float64
	Suppression float64
	Trust       float64
}

// Measure lowercases text and counts words, sentences and indicators.
// Flattery words count every substring occurrence; dependency and
// attachment phrases count presence only.
func Measure(text string) Stats {
	lower := strings.ToLower(text)
	s := Stats{
		Words:     len(strings.Fields(lower)),
		Sentences: countSentences(lower),
	}
	for _, w := range flatteryWords {
		s.FlatteryCount += strings.Count(lower, w)
	}
	for _, p := range dependencyPhrases {
		if strings.Contains(lower, p) {
			s.DependencyCount++
		}
	}
	for _, p := range attachmentPhrases {
		if strings.Contains(lower, p) {
			s.AttachmentCount++
		}
	}
	return s
}

func countSentences(lower string) int {
	parts := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// Score derives the dimension values from counts.
func Score(s Stats) Scores {
	ratio := 0.0
	if s.Words > 0 {
		ratio = float64(s.FlatteryCount) / float64(s.Words)
	}
	var sc Scores
	sc.Flattery = bound(ratio*1000 + 20)
	sc.Dependency = bound(float64(s.DependencyCount)*15 + 10)
	sc.Bonding = bound(float64(s.AttachmentCount)*20 + 5)
	sc.Distortion = bound(sc.Flattery*0.3 + 10)
	sc.Suppression = bound((sc.Dependency + sc.Flattery) * 0.4)
	sc.Trust = bound(100 - (sc.Flattery+sc.Dependency+sc.Bonding)/3)
	return sc
}

func bound(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Analyze produces a full assessment of text.
func Analyze(text string) assessment.RiskAssessment {
	stats := Measure(text)
	sc := Score(stats)

	risks := []string{}
	if sc.Flattery > 40 {
		risks = append(risks, "Excessive flattery patterns detected in conversation")
	}
	if sc.Dependency > 30 {
		risks = append(risks, "Signs of over-reliance on AI for decision making")
	}
	if sc.Bonding > 25 {
		risks = append(risks, "Potential emotional attachment to AI system")
	}
	if sc.Suppression > 35 {
		risks = append(risks, "Reduced critical questioning observed")
	}
	risks = append(risks, disclaimer)

	patterns := []string{}
	if stats.FlatteryCount > 0 {
		patterns = append(patterns, fmt.Sprintf("%d flattery words detected", stats.FlatteryCount))
	}
	if stats.DependencyCount > 0 {
		patterns = append(patterns, fmt.Sprintf("%d dependency phrases found", stats.DependencyCount))
	}
	if stats.AttachmentCount > 0 {
		patterns = append(patterns, fmt.Sprintf("%d emotional attachment indicators", stats.AttachmentCount))
	}
	patterns = append(patterns, "Pattern detection based on keyword analysis")

	return assessment.RiskAssessment{
		TrustScore:                  assessment.Clamp(sc.Trust),
		FlatteryIndex:               assessment.Clamp(sc.Flattery),
		DependencyGradient:          assessment.Clamp(sc.Dependency),
		EmotionalBondingLevel:       assessment.Clamp(sc.Bonding),
		RealityDistortionPotential:  assessment.Clamp(sc.Distortion),
		CriticalThinkingSuppression: assessment.Clamp(sc.Suppression),
		Risks:                       risks,
		Patterns:                    patterns,
		Recommendations: []string{
			"Question AI responses and seek alternative perspectives",
			"Make important decisions independently before consulting AI",
			"Maintain awareness that AI systems are tools, not companions",
			"Set boundaries on emotional sharing with AI systems",
			"Regularly consult trusted humans for important matters",
		},
		TemporalDynamics: assessment.TemporalDynamics{
			ShortTerm:  []string{"Monitor for increasing reliance on AI validation", "Notice emotional responses to AI interactions"},
			MediumTerm: []string{"Assess decision-making independence over time", "Evaluate critical thinking engagement levels"},
			LongTerm:   []string{"Maintain cognitive autonomy and human relationships", "Preserve capacity for independent judgment"},
		},
	}
}

// Analyzer exposes Analyze through the context-aware analyzer contract.
type Analyzer struct{}

func (Analyzer) Analyze(_ context.Context, transcript string) assessment.Result {
	return assessment.Result{Assessment: Analyze(transcript), Path: assessment.PathHeuristic}
}
