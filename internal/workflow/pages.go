package workflow

import "sourcing-backend/internal/decision"

// Page is one screen of the questionnaire.
type Page struct {
	Title  string
	Fields []decision.Field
}

var pages = [...]Page{
	{
		Title: "Activity Details",
		Fields: []decision.Field{
			decision.FieldActivityName,
			decision.FieldActivityType,
			decision.FieldCore,
			decision.FieldLegalRequirement,
			decision.FieldRiskTolerance,
		},
	},
	{
		Title: "Skills & Capacity",
		Fields: []decision.Field{
			decision.FieldFrequency,
			decision.FieldSpecialisedSkill,
			decision.FieldSimilarityWithCurrentScopes,
			decision.FieldSkillCapacity,
		},
	},
	{
		Title: "Business Alignment",
		Fields: []decision.Field{
			decision.FieldDuration,
			decision.FieldAffordability,
			decision.FieldStrategicFit,
			decision.FieldBusinessCase,
		},
	},
}

// PageCount is the number of questionnaire pages per activity.
const PageCount = len(pages)

// PageAt returns the page at index i; i must be in [0, PageCount).
func PageAt(i int) Page {
	p := pages[i]
	p.Fields = append([]decision.Field(nil), p.Fields...)
	return p
}

// missingOnPage returns the required fields on page i that are empty in a.
func missingOnPage(a decision.Answers, i int) []decision.Field {
	var out []decision.Field
	missing := a.Missing()
	for _, f := range pages[i].Fields {
		for _, m := range missing {
			if f == m {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
