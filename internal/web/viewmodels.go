package web

import (
	"github.com/Daltraxx/life-rpg-sub000/internal/availability"
	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

// SetupViewModel contains data for rendering the setup page.
type SetupViewModel struct {
	Attributes      []game.Attribute
	Quests          []game.Quest
	PointsRemaining int
	Pool            int
	Draft           DraftViewModel
	Tag             TagViewModel
	Errors          game.FieldErrors
	Strengths       []StrengthOption
	// Sentinel is the attribute that cannot be removed.
	Sentinel string
}

// DraftViewModel is the quest being composed.
type DraftViewModel struct {
	Name       string
	Experience int
	Available  []game.Attribute
	Selected   []game.AffectedAttribute
	Current    string
	Strength   game.Strength
	// Exhausted is true once every attribute is attached.
	Exhausted bool
}

type StrengthOption struct {
	Value game.Strength
	Label string
}

// TagViewModel is the tag input and its availability status.
type TagViewModel struct {
	Value   string
	Status  availability.Status
	Message string
}

// Polling is true while a check is still running.
func (t TagViewModel) Polling() bool { return t.Status == availability.StatusPending }

type ProfileViewModel struct {
	Attributes []game.Attribute
	Quests     []game.Quest
	PointsUsed int
}

var strengthOptions = []StrengthOption{
	{Value: game.StrengthNormal, Label: "normal"},
	{Value: game.StrengthPlus, Label: "+"},
	{Value: game.StrengthPlusPlus, Label: "++"},
}

func newSetupView(ss *SetupSession) SetupViewModel {
	st := ss.Setup.Quests()
	sel := ss.Setup.Selection()
	return SetupViewModel{
		Attributes:      ss.Setup.Attributes(),
		Quests:          st.Quests,
		PointsRemaining: st.PointsRemaining,
		Pool:            game.ExperiencePool,
		Draft: DraftViewModel{
			Name:       ss.Setup.DraftName(),
			Experience: ss.Setup.DraftExperience(),
			Available:  sel.Available(),
			Selected:   sel.Selected(),
			Current:    sel.CurrentAttributeName(),
			Strength:   sel.CurrentAttributeStrength(),
			Exhausted:  sel.CurrentAttributeName() == game.NoAttributesAvailable,
		},
		Tag:       tagViewFor(ss),
		Errors:    ss.Errors,
		Strengths: strengthOptions,
		Sentinel:  game.SentinelAttribute,
	}
}

func tagViewFor(ss *SetupSession) TagViewModel {
	if ss.checker == nil {
		return newTagView(ss.Tag, availability.Result{Status: availability.StatusIdle})
	}
	return newTagView(ss.Tag, ss.checker.Latest())
}

func newTagView(tag string, r availability.Result) TagViewModel {
	vm := TagViewModel{Value: tag, Status: r.Status}
	switch r.Status {
	case availability.StatusPending:
		vm.Message = "Checking..."
	case availability.StatusAvailable:
		vm.Message = "Available"
	case availability.StatusTaken:
		vm.Message = "Already taken"
	case availability.StatusFailed:
		vm.Message = availability.ErrLookupFailed.Error()
	}
	return vm
}
