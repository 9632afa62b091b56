package decision

import (
	"fmt"
	"strings"
)

// Field identifies one questionnaire answer. The set is closed; FieldCount bounds it.
type Field int

const (
	FieldActivityName Field = iota
	FieldActivityType
	FieldCore
	FieldLegalRequirement
	FieldRiskTolerance
	FieldFrequency
	FieldSpecialisedSkill
	FieldSimilarityWithCurrentScopes
	FieldSkillCapacity
	FieldDuration
	FieldAffordability
	FieldStrategicFit
	FieldBusinessCase

	FieldCount
)

type fieldSpec struct {
	key      string
	label    string
	required bool
	// options is nil for free-text fields.
	options []string
}

var (
	yesNo         = []string{"Yes", "No"}
	yesNoOptional = []string{"Yes", "No", ""}
)

var fieldSpecs = [FieldCount]fieldSpec{
	FieldActivityName:                {key: "activity_name", label: "Activity Name"},
	FieldActivityType:                {key: "activity_type", label: "Activity Type"},
	FieldCore:                        {key: "core", label: "Is this a Core Activity?", required: true, options: yesNo},
	FieldLegalRequirement:            {key: "legal_requirement", label: "Is this a Legal Requirement?", options: yesNoOptional},
	FieldRiskTolerance:               {key: "risk_tolerance", label: "Risk Tolerance", options: yesNoOptional},
	FieldFrequency:                   {key: "frequency", label: "Frequency", required: true, options: []string{"High", "Low"}},
	FieldSpecialisedSkill:            {key: "specialised_skill", label: "Does this require Specialised Skills?", required: true, options: yesNo},
	FieldSimilarityWithCurrentScopes: {key: "similarity_with_current_scopes", label: "Similarity with Current Scopes", required: true, options: yesNo},
	FieldSkillCapacity:               {key: "skill_capacity", label: "Do we have Existing Skill Capacity?", required: true, options: yesNo},
	FieldDuration:                    {key: "duration", label: "Duration", required: true, options: []string{"Short", "Long"}},
	FieldAffordability:               {key: "affordability", label: "Affordability & Transferable Skill", required: true, options: yesNo},
	FieldStrategicFit:                {key: "strategic_fit", label: "Strategic Fit", options: yesNoOptional},
	FieldBusinessCase:                {key: "business_case", label: "Business Case", required: true, options: yesNo},
}

var fieldsByKey = func() map[string]Field {
	out := make(map[string]Field, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		out[fieldSpecs[f].key] = f
	}
	return out
}()

// Fields returns every field in schema order.
func Fields() []Field {
	out := make([]Field, 0, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// RequiredFields returns the checklist that gates submission.
func RequiredFields() []Field {
	var out []Field
	for f := Field(0); f < FieldCount; f++ {
		if fieldSpecs[f].required {
			out = append(out, f)
		}
	}
	return out
}

// ParseField resolves a wire key such as "core" to its Field.
func ParseField(key string) (Field, error) {
	f, ok := fieldsByKey[strings.TrimSpace(key)]
	if !ok {
		return 0, fmt.Errorf("unknown field %q", key)
	}
	return f, nil
}

// Valid reports whether f is a member of the closed set.
func (f Field) Valid() bool {
	return f >= 0 && f < FieldCount
}

// Key returns the wire name.
func (f Field) Key() string {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].key
}

func (f Field) String() string {
	return f.Key()
}

// Label returns the question shown to the user.
func (f Field) Label() string {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].label
}

func (f Field) Required() bool {
	return f.Valid() && fieldSpecs[f].required
}

// FreeText reports whether the field accepts arbitrary text.
func (f Field) FreeText() bool {
	return f.Valid() && fieldSpecs[f].options == nil
}

// Options returns the allowed values; nil for free-text fields.
func (f Field) Options() []string {
	if !f.Valid() || fieldSpecs[f].options == nil {
		return nil
	}
	return append([]string(nil), fieldSpecs[f].options...)
}

// Accepts reports whether value belongs to the field's domain.
func (f Field) Accepts(value string) bool {
	if !f.Valid() {
		return false
	}
	opts := fieldSpecs[f].options
	if opts == nil {
		return true
	}
	value = strings.TrimSpace(value)
	for _, o := range opts {
		if o == value {
			return true
		}
	}
	return false
}
