package api

const (
	// MinScore is the lowest score a step can be given
	MinScore = 1
	// MaxScore is the highest score a step can be given
	MaxScore = 10
	// MidScore is used when no score could be determined
	MidScore = (MinScore + MaxScore) / 2
)

// StageSpec is the specification of an analysis stage, one per pipeline step.
type StageSpec struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	System   string `json:"system"`   // System instructions sent to the provider
	Template string `json:"template"` // Request template, see package prompt
}

// ClampScore brings the given score into [MinScore, MaxScore]
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
