package risk

// ActionType is the disposition recommended for a scored transaction.
type ActionType string

const (
	ActionBlock   ActionType = "BLOCK"
	ActionReview  ActionType = "REVIEW"
	ActionMonitor ActionType = "MONITOR"
	ActionAllow   ActionType = "ALLOW"
)

// Action pairs a disposition with the reason and the operational steps
// a fraud analyst should take.
type Action struct {
	Type   ActionType `json:"action"`
	Reason string     `json:"reason"`
	Steps  []string   `json:"steps"`
}

// Recommend maps a fraud verdict and risk level onto an action using
// a fixed precedence table: a fraud verdict or a critical level blocks,
// then high reviews, medium monitors, and everything else allows.
func Recommend(isFraud bool, level Level) Action {
	switch {
	case isFraud || level == LevelCritical:
		return Action{
			Type:   ActionBlock,
			Reason: "critical fraud risk detected",
			Steps: []string{
				"block transaction immediately",
				"freeze account pending investigation",
				"notify fraud operations team",
			},
		}
	case level == LevelHigh:
		return Action{
			Type:   ActionReview,
			Reason: "high fraud risk requires manual review",
			Steps: []string{
				"hold transaction for manual review",
				"request additional verification from user",
				"check recent account activity",
			},
		}
	case level == LevelMedium:
		return Action{
			Type:   ActionMonitor,
			Reason: "elevated risk warrants monitoring",
			Steps: []string{
				"allow transaction",
				"flag account for enhanced monitoring",
				"review if pattern repeats",
			},
		}
	default:
		return Action{
			Type:   ActionAllow,
			Reason: "risk within acceptable bounds",
			Steps:  []string{"process transaction normally"},
		}
	}
}
