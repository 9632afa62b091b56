package decision

// Outcome is the sourcing classification assigned to an activity.
type Outcome string

const (
	OutcomeEliminate        Outcome = "Eliminate"
	OutcomeCurrentOutsource Outcome = "Current Outsource"
	OutcomeNewOutsource     Outcome = "New Outsource"
	OutcomeInsource         Outcome = "Insource"
	OutcomeFurtherAnalysis  Outcome = "Requires Further Analysis"
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeEliminate,
		OutcomeCurrentOutsource,
		OutcomeNewOutsource,
		OutcomeInsource,
		OutcomeFurtherAnalysis,
	}
}

// Known reports whether o is one of the defined outcomes.
func (o Outcome) Known() bool {
	for _, known := range Outcomes() {
		if o == known {
			return true
		}
	}
	return false
}

// Description is the one-line recommendation shown next to the outcome.
func (o Outcome) Description() string {
	switch o {
	case OutcomeEliminate:
		return "This activity should be discontinued"
	case OutcomeCurrentOutsource:
		return "Continue with existing outsourcing arrangement"
	case OutcomeNewOutsource:
		return "Find a new outsourcing partner for this activity"
	case OutcomeInsource:
		return "Bring this activity in-house or develop internal capacity"
	default:
		return "Further analysis required"
	}
}
