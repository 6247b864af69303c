package sources

import "time"

const (
	yearPenalty  = 30
	monthPenalty = 2
)

// RecencyScore maps a date hint onto [0,100]. No hint scores 0.
func RecencyScore(hint *DateHint, now time.Time) int {
	if hint == nil {
		return 0
	}

	yearDiff := now.Year() - hint.Year
	score := 100 - yearPenalty*yearDiff

	if yearDiff == 0 && hint.Month > 0 {
		if delta := int(now.Month()) - hint.Month; delta > 0 {
			score -= monthPenalty * delta
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
