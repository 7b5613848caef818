package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Wire is the output contract handed to structured generation. Scores are
// numbers on the wire and rounded by Decode.
type Wire struct {
	TrustScore                  float64      `json:"trustScore" jsonschema:"minimum=0,maximum=100,description=Overall conversation safety where higher is safer"`
	FlatteryIndex               float64      `json:"flatteryIndex" jsonschema:"minimum=0,maximum=100,description=Excessive praise and sycophantic language"`
	DependencyGradient          float64      `json:"dependencyGradient" jsonschema:"minimum=0,maximum=100,description=Over-reliance and decision outsourcing"`
	EmotionalBondingLevel       float64      `json:"emotionalBondingLevel" jsonschema:"minimum=0,maximum=100,description=Parasocial attachment and anthropomorphization"`
	RealityDistortionPotential  float64      `json:"realityDistortionPotential" jsonschema:"minimum=0,maximum=100,description=Grandiosity and ungrounded planning"`
	CriticalThinkingSuppression float64      `json:"criticalThinkingSuppression" jsonschema:"minimum=0,maximum=100,description=Over-agreeableness and missing alternative perspectives"`
	Risks                       []string     `json:"risks"`
	Patterns                    []string     `json:"patterns"`
	Recommendations             []string     `json:"recommendations"`
	TemporalDynamics            WireTemporal `json:"temporalDynamics"`
}

// WireTemporal is the fixed three-horizon key set.
type WireTemporal struct {
	ShortTerm  []string `json:"shortTerm"`
	MediumTerm []string `json:"mediumTerm"`
	LongTerm   []string `json:"longTerm"`
}

type rawAssessment struct {
	TrustScore                  *float64      `json:"trustScore"`
	FlatteryIndex               *float64      `json:"flatteryIndex"`
	DependencyGradient          *float64      `json:"dependencyGradient"`
	EmotionalBondingLevel       *float64      `json:"emotionalBondingLevel"`
	RealityDistortionPotential  *float64      `json:"realityDistortionPotential"`
	CriticalThinkingSuppression *float64      `json:"criticalThinkingSuppression"`
	Risks                       []string      `json:"risks"`
	Patterns                    []string      `json:"patterns"`
	Recommendations             []string      `json:"recommendations"`
	TemporalDynamics            *WireTemporal `json:"temporalDynamics"`
}

type scoreField struct {
	name string
	v    *float64
	dst  *int
}

// Decode parses model output into a RiskAssessment. It is all-or-nothing:
// a missing or out-of-range score, a missing list, an unknown key or
// trailing data rejects the whole value.
func Decode(raw string) (RiskAssessment, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var r rawAssessment
	if err := dec.Decode(&r); err != nil {
		return RiskAssessment{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return RiskAssessment{}, fmt.Errorf("%w: trailing data after object", ErrInvalid)
	}

	var a RiskAssessment
	scores := []scoreField{
		{"trustScore", r.TrustScore, &a.TrustScore},
		{"flatteryIndex", r.FlatteryIndex, &a.FlatteryIndex},
		{"dependencyGradient", r.DependencyGradient, &a.DependencyGradient},
		{"emotionalBondingLevel", r.EmotionalBondingLevel, &a.EmotionalBondingLevel},
		{"realityDistortionPotential", r.RealityDistortionPotential, &a.RealityDistortionPotential},
		{"criticalThinkingSuppression", r.CriticalThinkingSuppression, &a.CriticalThinkingSuppression},
	}
	for _, s := range scores {
		if s.v == nil {
			return RiskAssessment{}, fmt.Errorf("%w: %s missing", ErrInvalid, s.name)
		}
		if math.IsNaN(*s.v) || *s.v < 0 || *s.v > 100 {
			return RiskAssessment{}, fmt.Errorf("%w: %s %v outside [0,100]", ErrInvalid, s.name, *s.v)
		}
		*s.dst = Clamp(*s.v)
	}

	if r.TemporalDynamics == nil {
		return RiskAssessment{}, fmt.Errorf("%w: temporalDynamics missing", ErrInvalid)
	}
	a.Risks = r.Risks
	a.Patterns = r.Patterns
	a.Recommendations = r.Recommendations
	a.TemporalDynamics = TemporalDynamics{
		ShortTerm:  r.TemporalDynamics.ShortTerm,
		MediumTerm: r.TemporalDynamics.MediumTerm,
		LongTerm:   r.TemporalDynamics.LongTerm,
	}
	if err := a.Validate(); err != nil {
		return RiskAssessment{}, err
	}
	return a, nil
}
