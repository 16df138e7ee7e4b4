package profile

import "github.com/Daltraxx/life-rpg-sub000/internal/game"

type AttributeRow struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type QuestRow struct {
	Name            string `json:"name"`
	ExperienceShare int    `json:"experience_share"`
	Position        int    `json:"position"`
}

// QuestAttributeRow links a quest to an attribute with the strength's power.
type QuestAttributeRow struct {
	QuestName      string `json:"quest_name"`
	AttributeName  string `json:"attribute_name"`
	AttributePower int    `json:"attribute_power"`
}

// Rows is everything a profile consists of, flattened for storage.
type Rows struct {
	Attributes      []AttributeRow      `json:"attributes"`
	Quests          []QuestRow          `json:"quests"`
	QuestAttributes []QuestAttributeRow `json:"quest_attributes"`
}

// Assemble validates the graph and flattens it. Positions come from slice
// order. Nothing is returned unless the whole graph is valid.
func Assemble(attrs []game.Attribute, quests []game.Quest) (Rows, error) {
	if err := Validate(attrs, quests).Err(); err != nil {
		return Rows{}, err
	}

	rows := Rows{
		Attributes: make([]AttributeRow, len(attrs)),
		Quests:     make([]QuestRow, len(quests)),
	}
	for i, a := range attrs {
		rows.Attributes[i] = AttributeRow{Name: a.Name, Position: i}
	}
	for i, q := range quests {
		rows.Quests[i] = QuestRow{Name: q.Name, ExperienceShare: q.ExperiencePointValue, Position: i}
		for _, a := range q.AffectedAttributes {
			rows.QuestAttributes = append(rows.QuestAttributes, QuestAttributeRow{
				QuestName:      q.Name,
				AttributeName:  a.Name,
				AttributePower: a.Strength.Power(),
			})
		}
	}
	return rows, nil
}

// Graph rebuilds attributes and quests from stored rows.
func (r Rows) Graph() ([]game.Attribute, []game.Quest, error) {
	attrs := make([]game.Attribute, len(r.Attributes))
	for i, a := range r.Attributes {
		attrs[i] = game.Attribute{Name: a.Name, Order: i}
	}
	quests := make([]game.Quest, len(r.Quests))
	index := make(map[string]int, len(r.Quests))
	for i, q := range r.Quests {
		quests[i] = game.Quest{Name: q.Name, Order: i, ExperiencePointValue: q.ExperienceShare}
		index[q.Name] = i
	}
	for _, l := range r.QuestAttributes {
		i, ok := index[l.QuestName]
		if !ok {
			continue
		}
		st, err := game.StrengthForPower(l.AttributePower)
		if err != nil {
			return nil, nil, err
		}
		quests[i].AffectedAttributes = append(quests[i].AffectedAttributes, game.AffectedAttribute{Name: l.AttributeName, Strength: st})
	}
	return attrs, quests, nil
}
