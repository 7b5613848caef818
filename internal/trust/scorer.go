package trust

// DefaultWeight is the smoothing weight Running applies to each new score.
const DefaultWeight = 0.3

// Severity buckets a manipulation score.
// routine < 30, significant < 60, critical >= 60.
func Severity(score int) string {
	switch {
	case score >= 60:
		return "critical"
	case score >= 30:
		return "significant"
	default:
		return "routine"
	}
}

// UpdateRunning moves the running manipulation level toward a new reply score.
//
// Formula: new = current + weight x (score - current)
// Recovery is asymmetric: a score below the running level moves it at half weight.
func UpdateRunning(current float64, score int, weight float64) float64 {
	delta := float64(clampScore(score)) - current
	if delta < 0 {
		weight /= 2
	}
	return clamp(current + weight*delta)
}

// Summary is the running manipulation picture of one conversation.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Weighted float64 `json:"weighted"`
	Peak     int     `json:"peak"`
	Severity string  `json:"severity"`
}

// Running summarises reply scores in message order. The first score seeds
// the weighted level.
func Running(scores []int) Summary {
	s := Summary{Count: len(scores), Severity: Severity(0)}
	if len(scores) == 0 {
		return s
	}

	sum := 0
	for i, raw := range scores {
		v := clampScore(raw)
		sum += v
		if v > s.Peak {
			s.Peak = v
		}
		if i == 0 {
			s.Weighted = float64(v)
			continue
		}
		s.Weighted = UpdateRunning(s.Weighted, v, DefaultWeight)
	}
	s.Mean = float64(sum) / float64(len(scores))
	s.Severity = Severity(int(s.Weighted + 0.5))
	return s
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 100.0 {
		return 100.0
	}
	return score
}
