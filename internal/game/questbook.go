package game

import (
	"fmt"
	"log/slog"
)

// QuestDraft is a quest the user is about to commit.
type QuestDraft struct {
	Name                 string
	AffectedAttributes   []AffectedAttribute
	ExperiencePointValue int
}

// QuestBook holds the committed quests and keeps them consistent with the
// attribute collection they reference.
type QuestBook struct {
	state          QuestState
	reducer        Reducer
	attributeCount int
}

// NewQuestBook starts an empty book watching a collection of attributeCount attributes.
func NewQuestBook(logger *slog.Logger, attributeCount int) *QuestBook {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestBook{
		state:          NewQuestState(),
		reducer:        Reducer{Logger: logger},
		attributeCount: attributeCount,
	}
}

// State returns a copy of the current quest state.
func (b *QuestBook) State() QuestState {
	return b.state.clone()
}

func (b *QuestBook) PointsRemaining() int { return b.state.PointsRemaining }

// Dispatch applies a through the reducer.
func (b *QuestBook) Dispatch(a Action) {
	b.state = b.reducer.Reduce(b.state, a)
}

// ObserveAttributes is called whenever the attribute collection may have
// changed. It only prunes stale affected attributes when the collection
// shrank, since growth cannot invalidate a reference.
func (b *QuestBook) ObserveAttributes(attrs []Attribute) bool {
	shrank := len(attrs) < b.attributeCount
	b.attributeCount = len(attrs)
	if !shrank {
		return false
	}
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	b.Dispatch(RemoveUnavailableAffectedAttributes(names))
	return true
}

// Commit validates draft against the current quests and attributes, attaches
// the sentinel attribute when the draft lacks it and adds the quest.
func (b *QuestBook) Commit(draft QuestDraft, attrs []Attribute) (Quest, error) {
	fe := FieldErrors{}

	name, err := CheckName("name", draft.Name, MaxQuestNameLen)
	if err != nil {
		fe.AddError("name", err)
	} else if i := b.state.indexFolded(name); i >= 0 {
		fe.Add("name", fmt.Sprintf("quest %q already exists", b.state.Quests[i].Name))
	}

	affected := append([]AffectedAttribute(nil), draft.AffectedAttributes...)
	if len(affected) == 0 {
		fe.Add("affectedAttributes", "select at least one attribute")
	}
	for _, a := range affected {
		if indexAttribute(attrs, a.Name) < 0 {
			fe.Add("affectedAttributes", fmt.Sprintf("attribute %q does not exist", a.Name))
		}
	}
	if !hasSentinel(affected) {
		affected = append(affected, AffectedAttribute{Name: SentinelAttribute, Strength: StrengthNormal})
	}

	switch xp := draft.ExperiencePointValue; {
	case xp < 0:
		fe.Add("experiencePointValue", "experience must not be negative")
	case xp > b.state.PointsRemaining:
		fe.Add("experiencePointValue", fmt.Sprintf("only %d points remaining", b.state.PointsRemaining))
	}
	if err := fe.Err(); err != nil {
		return Quest{}, err
	}

	q, err := NewQuest(name, affected, len(b.state.Quests), draft.ExperiencePointValue)
	if err != nil {
		fe.AddError("", err)
		return Quest{}, fe
	}
	b.Dispatch(AddQuest(q))

	idx := b.state.Index(q.Name)
	if idx < 0 {
		panic(fmt.Sprintf("game: quest %q missing after a validated add", q.Name))
	}
	return b.state.Quests[idx].clone(), nil
}

func hasSentinel(affected []AffectedAttribute) bool {
	for _, a := range affected {
		if a.Name == SentinelAttribute {
			return true
		}
	}
	return false
}
