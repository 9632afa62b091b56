package decision

// Determine maps a complete set of answers to an outcome.
//
// Rules are evaluated top to bottom and the first match wins:
//   - non-core work that nobody is willing to carry risk for and needs no special skill is eliminated,
//     as is core work with no legal requirement under the same conditions;
//   - specialised work is outsourced (to the current or a new partner depending on in-house skill
//     capacity) unless it is frequent, similar to current scopes, long running, affordable and backed
//     by a business case and strategic fit, in which case it is insourced;
//   - core work with a strategic fit falls back to the capacity split;
//   - everything else needs further analysis.
func Determine(a Answers) Outcome {
	a = a.Trimmed()
	core := a[FieldCore]
	legal := a[FieldLegalRequirement]
	riskTolerance := a[FieldRiskTolerance]
	frequency := a[FieldFrequency]
	specialised := a[FieldSpecialisedSkill]
	similar := a[FieldSimilarityWithCurrentScopes]
	capacity := a[FieldSkillCapacity]
	duration := a[FieldDuration]
	affordable := a[FieldAffordability]
	strategicFit := a[FieldStrategicFit]
	businessCase := a[FieldBusinessCase]

	outsource := func() Outcome {
		if capacity == "Yes" {
			return OutcomeCurrentOutsource
		}
		return OutcomeNewOutsource
	}

	if core == "No" && riskTolerance == "No" && specialised == "No" {
		return OutcomeEliminate
	}
	if core == "Yes" && legal == "No" && riskTolerance == "No" && specialised == "No" {
		return OutcomeEliminate
	}

	if specialised == "Yes" {
		switch {
		case frequency == "Low":
			return outsource()
		case similar == "No":
			return outsource()
		case duration == "Short":
			return outsource()
		case strategicFit == "No" || affordable == "No" || businessCase == "No":
			return outsource()
		case duration == "Long" && affordable == "Yes" && businessCase == "Yes":
			return OutcomeInsource
		}
	}

	if core == "Yes" && legal == "Yes" && similar == "Yes" && duration == "Long" &&
		affordable == "Yes" && businessCase == "Yes" && strategicFit != "No" {
		return OutcomeInsource
	}

	if core == "Yes" && strategicFit == "Yes" {
		return outsource()
	}
	if core == "Yes" && businessCase == "Yes" && capacity != "" {
		return outsource()
	}

	return OutcomeFurtherAnalysis
}
