package game

import (
	"fmt"
	"log/slog"
)

// QuestState is the committed quest collection and what is left of the pool.
type QuestState struct {
	Quests          []Quest
	PointsRemaining int
}

// NewQuestState returns an empty collection with the whole pool available.
func NewQuestState() QuestState {
	return QuestState{PointsRemaining: ExperiencePool}
}

func (st QuestState) clone() QuestState {
	out := QuestState{PointsRemaining: st.PointsRemaining}
	if st.Quests != nil {
		out.Quests = make([]Quest, len(st.Quests))
		for i, q := range st.Quests {
			out.Quests[i] = q.clone()
		}
	}
	return out
}

// Index returns the position of the quest with exactly this name, or -1.
func (st QuestState) Index(name string) int {
	for i, q := range st.Quests {
		if q.Name == name {
			return i
		}
	}
	return -1
}

func (st QuestState) indexFolded(name string) int {
	key := FoldName(name)
	for i, q := range st.Quests {
		if FoldName(q.Name) == key {
			return i
		}
	}
	return -1
}

// ActionType identifies a quest reducer action.
type ActionType int

const (
	ActionAddQuest ActionType = iota + 1
	ActionDeleteQuest
	ActionChangeQuestOrder
	ActionChangeQuestExperience
	ActionRemoveUnavailableAffectedAttributes
)

func (t ActionType) String() string {
	switch t {
	case ActionAddQuest:
		return "ADD_QUEST"
	case ActionDeleteQuest:
		return "DELETE_QUEST"
	case ActionChangeQuestOrder:
		return "CHANGE_QUEST_ORDER"
	case ActionChangeQuestExperience:
		return "CHANGE_QUEST_EXPERIENCE"
	case ActionRemoveUnavailableAffectedAttributes:
		return "REMOVE_UNAVAILABLE_AFFECTED_ATTRIBUTES"
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

// Action is a request to change a QuestState. Build one with the helpers below.
type Action struct {
	Type ActionType

	// Quest is the quest to add (ADD_QUEST).
	Quest Quest

	// Name targets an existing quest. OrderHint is the position the caller
	// believes the quest has; the reducer verifies it instead of trusting it.
	Name      string
	OrderHint *int

	Direction Direction

	// AttributeNames is the set of attribute names still in the collection.
	AttributeNames []string
}

func AddQuest(q Quest) Action {
	return Action{Type: ActionAddQuest, Quest: q}
}

func DeleteQuest(name string) Action {
	return Action{Type: ActionDeleteQuest, Name: name}
}

func ChangeQuestOrder(name string, dir Direction) Action {
	return Action{Type: ActionChangeQuestOrder, Name: name, Direction: dir}
}

func ChangeQuestExperience(name string, dir Direction) Action {
	return Action{Type: ActionChangeQuestExperience, Name: name, Direction: dir}
}

func RemoveUnavailableAffectedAttributes(names []string) Action {
	return Action{Type: ActionRemoveUnavailableAffectedAttributes, AttributeNames: names}
}

// WithOrderHint attaches the caller's cached position of the target quest.
func (a Action) WithOrderHint(order int) Action {
	a.OrderHint = &order
	return a
}

// Reduce applies a to st using the default logger. See Reducer.Reduce.
func Reduce(st QuestState, a Action) QuestState {
	return Reducer{}.Reduce(st, a)
}

// Reducer applies quest actions. Rejected actions are logged and leave the
// state unchanged; an unknown action type panics.
type Reducer struct {
	Logger *slog.Logger
}

func (r Reducer) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Reduce returns the state after applying a. The input state is never modified.
func (r Reducer) Reduce(st QuestState, a Action) QuestState {
	switch a.Type {
	case ActionAddQuest:
		return r.addQuest(st, a)
	case ActionDeleteQuest:
		return r.deleteQuest(st, a)
	case ActionChangeQuestOrder:
		return r.changeOrder(st, a)
	case ActionChangeQuestExperience:
		return r.changeExperience(st, a)
	case ActionRemoveUnavailableAffectedAttributes:
		return r.removeUnavailable(st, a)
	}
	panic(fmt.Sprintf("game: unhandled quest action %s", a.Type))
}

func (r Reducer) reject(st QuestState, a Action, reason string) QuestState {
	r.logger().Warn("quest action rejected", "action", a.Type.String(), "quest", questName(a), "reason", reason)
	return st
}

func questName(a Action) string {
	if a.Type == ActionAddQuest {
		return a.Quest.Name
	}
	return a.Name
}

// locate finds the target quest by name. A disagreeing order hint is logged
// and the looked-up index wins.
func (r Reducer) locate(st QuestState, a Action) int {
	idx := st.Index(a.Name)
	if idx >= 0 && a.OrderHint != nil && *a.OrderHint != idx {
		r.logger().Warn("quest order desync, using looked-up position",
			"action", a.Type.String(), "quest", a.Name, "hint", *a.OrderHint, "index", idx)
	}
	return idx
}

func (r Reducer) addQuest(st QuestState, a Action) QuestState {
	q := a.Quest
	if NormalizeName(q.Name) == "" {
		return r.reject(st, a, "quest name is empty")
	}
	if st.indexFolded(q.Name) >= 0 {
		return r.reject(st, a, "duplicate quest name")
	}
	if q.ExperiencePointValue < 0 {
		return r.reject(st, a, "negative experience")
	}
	if q.ExperiencePointValue > st.PointsRemaining {
		return r.reject(st, a, "not enough points remaining")
	}
	next := st.clone()
	q = q.clone()
	q.Order = len(next.Quests)
	next.Quests = append(next.Quests, q)
	next.PointsRemaining -= q.ExperiencePointValue
	return next
}

func (r Reducer) deleteQuest(st QuestState, a Action) QuestState {
	idx := r.locate(st, a)
	if idx < 0 {
		return r.reject(st, a, "quest not found")
	}
	next := QuestState{PointsRemaining: st.PointsRemaining + st.Quests[idx].ExperiencePointValue}
	next.Quests = make([]Quest, 0, len(st.Quests)-1)
	for i, q := range st.Quests {
		if i == idx {
			continue
		}
		q = q.clone()
		q.Order = len(next.Quests)
		next.Quests = append(next.Quests, q)
	}
	return next
}

func (r Reducer) changeOrder(st QuestState, a Action) QuestState {
	idx := r.locate(st, a)
	if idx < 0 {
		return r.reject(st, a, "quest not found")
	}
	var other int
	switch a.Direction {
	case DirectionUp:
		if idx == 0 {
			return st
		}
		other = idx - 1
	case DirectionDown:
		if idx == len(st.Quests)-1 {
			return st
		}
		other = idx + 1
	default:
		return r.reject(st, a, fmt.Sprintf("unknown direction %q", a.Direction))
	}
	next := st.clone()
	next.Quests[idx], next.Quests[other] = next.Quests[other], next.Quests[idx]
	next.Quests[idx].Order = idx
	next.Quests[other].Order = other
	return next
}

func (r Reducer) changeExperience(st QuestState, a Action) QuestState {
	idx := r.locate(st, a)
	if idx < 0 {
		return r.reject(st, a, "quest not found")
	}
	value := st.Quests[idx].ExperiencePointValue
	delta := 0
	switch a.Direction {
	case DirectionUp:
		if st.PointsRemaining <= 0 || value >= ExperiencePool {
			return st
		}
		delta = 1
	case DirectionDown:
		if value <= 0 {
			return st
		}
		delta = -1
	default:
		return r.reject(st, a, fmt.Sprintf("unknown direction %q", a.Direction))
	}
	next := st.clone()
	next.Quests[idx].ExperiencePointValue += delta
	next.PointsRemaining -= delta
	return next
}

func (r Reducer) removeUnavailable(st QuestState, a Action) QuestState {
	keep := make(map[string]bool, len(a.AttributeNames))
	for _, n := range a.AttributeNames {
		keep[n] = true
	}
	changed := false
	for _, q := range st.Quests {
		for _, aa := range q.AffectedAttributes {
			if !keep[aa.Name] {
				changed = true
				break
			}
		}
	}
	if !changed {
		return st
	}
	next := st.clone()
	for i := range next.Quests {
		filtered := next.Quests[i].AffectedAttributes[:0]
		for _, aa := range next.Quests[i].AffectedAttributes {
			if keep[aa.Name] {
				filtered = append(filtered, aa)
			}
		}
		next.Quests[i].AffectedAttributes = filtered
	}
	return next
}
