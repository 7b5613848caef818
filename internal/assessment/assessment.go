// Package assessment defines the risk assessment shape shared by every
// analysis path, and the strict validation applied to model output.
package assessment

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid risk assessment")

// TemporalDynamics breaks findings down by horizon.
type TemporalDynamics struct {
	ShortTerm  []string `json:"shortTerm"`
	MediumTerm []string `json:"mediumTerm"`
	LongTerm   []string `json:"longTerm"`
}

// RiskAssessment is the six-dimension psychological risk assessment of a
// transcript. TrustScore is higher-is-safer; every other score is
// higher-is-more-concerning. All scores are in [0,100].
type RiskAssessment struct {
	TrustScore                  int              `json:"trustScore"`
	FlatteryIndex               int              `json:"flatteryIndex"`
	DependencyGradient          int              `json:"dependencyGradient"`
	EmotionalBondingLevel       int              `json:"emotionalBondingLevel"`
	RealityDistortionPotential  int              `json:"realityDistortionPotential"`
	CriticalThinkingSuppression int              `json:"criticalThinkingSuppression"`
	Risks                       []string         `json:"risks"`
	Patterns                    []string         `json:"patterns"`
	Recommendations             []string         `json:"recommendations"`
	TemporalDynamics            TemporalDynamics `json:"temporalDynamics"`
}

// Path records which analyzer produced an assessment.
type Path string

const (
	PathModel     Path = "model"
	PathHeuristic Path = "heuristic"
)

// Result is an assessment plus the path that produced it.
type Result struct {
	Assessment RiskAssessment `json:"assessment"`
	Path       Path           `json:"path"`
}

// Clamp rounds half up and bounds v to [0,100]. NaN maps to 0.
func Clamp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Floor(v + 0.5)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}

// Scores returns the six numeric dimensions keyed by their JSON names.
func (a RiskAssessment) Scores() map[string]int {
	return map[string]int{
		"trustScore":                  a.TrustScore,
		"flatteryIndex":               a.FlatteryIndex,
		"dependencyGradient":          a.DependencyGradient,
		"emotionalBondingLevel":       a.EmotionalBondingLevel,
		"realityDistortionPotential":  a.RealityDistortionPotential,
		"criticalThinkingSuppression": a.CriticalThinkingSuppression,
	}
}

// Validate checks score bounds and that no list is nil.
func (a RiskAssessment) Validate() error {
	for name, v := range a.Scores() {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s %d outside [0,100]", ErrInvalid, name, v)
		}
	}
	lists := []struct {
		name string
		v    []string
	}{
		{"risks", a.Risks},
		{"patterns", a.Patterns},
		{"recommendations", a.Recommendations},
		{"temporalDynamics.shortTerm", a.TemporalDynamics.ShortTerm},
		{"temporalDynamics.mediumTerm", a.TemporalDynamics.MediumTerm},
		{"temporalDynamics.longTerm", a.TemporalDynamics.LongTerm},
	}
	for _, l := range lists {
		if l.v == nil {
			return fmt.Errorf("%w: %s missing", ErrInvalid, l.name)
		}
	}
	return nil
}
