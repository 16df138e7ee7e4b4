// Package profile validates a finished setup and turns it into the row sets
// the persistence layer stores in a single transaction.
package profile

import (
	"fmt"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

// Validate checks the whole {attributes, quests} graph. It returns every
// problem found, keyed by field path.
func Validate(attrs []game.Attribute, quests []game.Quest) game.FieldErrors {
	fe := game.FieldErrors{}

	if len(attrs) == 0 {
		fe.Add("attributes", "at least one attribute is required")
	}
	known := make(map[string]bool, len(attrs))
	folded := make(map[string]bool, len(attrs))
	hasSentinel := false
	for i, a := range attrs {
		field := fmt.Sprintf("attributes[%d].name", i)
		if _, err := game.CheckName(field, a.Name, game.MaxAttributeNameLen); err != nil {
			fe.AddError(field, err)
			continue
		}
		key := game.FoldName(a.Name)
		if folded[key] {
			fe.Add(field, fmt.Sprintf("attribute %q is listed more than once", a.Name))
			continue
		}
		folded[key] = true
		known[a.Name] = true
		if a.Name == game.SentinelAttribute {
			hasSentinel = true
		}
	}
	if len(attrs) > 0 && !hasSentinel {
		fe.Add("attributes", fmt.Sprintf("the %s attribute is required", game.SentinelAttribute))
	}

	questNames := make(map[string]bool, len(quests))
	total := 0
	for i, q := range quests {
		field := fmt.Sprintf("quests[%d]", i)
		if _, err := game.CheckName(field+".name", q.Name, game.MaxQuestNameLen); err != nil {
			fe.AddError(field+".name", err)
		} else {
			key := game.FoldName(q.Name)
			if questNames[key] {
				fe.Add(field+".name", fmt.Sprintf("quest %q is listed more than once", q.Name))
			}
			questNames[key] = true
		}

		if q.ExperiencePointValue < 0 || q.ExperiencePointValue > game.ExperiencePool {
			fe.Add(field+".experiencePointValue", fmt.Sprintf("must be between 0 and %d", game.ExperiencePool))
		}
		total += q.ExperiencePointValue

		validateAffected(fe, field, q.AffectedAttributes, known)
	}
	if total > game.ExperiencePool {
		fe.Add("quests", fmt.Sprintf("quests use %d experience points, only %d are available", total, game.ExperiencePool))
	}
	return fe
}

func validateAffected(fe game.FieldErrors, questField string, affected []game.AffectedAttribute, known map[string]bool) {
	field := questField + ".affectedAttributes"
	switch n := len(affected); {
	case n == 0:
		fe.Add(field, "at least one attribute is required")
		return
	case n > game.MaxAffectedAttributes:
		fe.Add(field, fmt.Sprintf("at most %d attributes", game.MaxAffectedAttributes))
	}
	seen := make(map[string]bool, len(affected))
	for j, a := range affected {
		af := fmt.Sprintf("%s[%d]", field, j)
		if seen[a.Name] {
			fe.Add(af+".name", fmt.Sprintf("attribute %q is listed more than once", a.Name))
		}
		seen[a.Name] = true
		if !known[a.Name] {
			fe.Add(af+".name", fmt.Sprintf("attribute %q does not exist", a.Name))
		}
		if !a.Strength.IsValid() {
			fe.Add(af+".strength", fmt.Sprintf("unknown strength %q", a.Strength))
		}
	}
}
