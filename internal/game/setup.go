package game

import (
	"fmt"
	"log/slog"
)

// Setup is the account-setup session: it owns the attribute collection, the
// committed quests and the quest draft, and resynchronizes the latter two
// after every attribute change.
type Setup struct {
	attributes *AttributeList
	quests     *QuestBook
	selection  *Selection

	draftName       string
	draftExperience int

	logger *slog.Logger
}

// NewSetup builds a session from seed. The required attribute is always
// present and always first.
func NewSetup(seed *Seed, logger *slog.Logger) (*Setup, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == nil {
		seed = DefaultSeed()
	}

	attrs := NewAttributeList(logger, Attribute{Name: SentinelAttribute})
	for _, name := range seed.Attributes {
		if IsSentinel(name) {
			continue
		}
		if err := attrs.Add(name); err != nil {
			return nil, fmt.Errorf("seed attribute %q: %w", name, err)
		}
	}

	s := &Setup{
		attributes: attrs,
		quests:     NewQuestBook(logger, attrs.Len()),
		selection:  NewSelection(attrs.Attributes()),
		logger:     logger,
	}
	for _, sq := range seed.Quests {
		d, err := sq.draft()
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		if _, err := s.quests.Commit(d, attrs.Attributes()); err != nil {
			return nil, fmt.Errorf("seed quest %q: %w", sq.Name, err)
		}
	}
	return s, nil
}

func (s *Setup) Attributes() []Attribute { return s.attributes.Attributes() }

func (s *Setup) Quests() QuestState { return s.quests.State() }

func (s *Setup) Selection() *Selection { return s.selection }

func (s *Setup) DraftName() string { return s.draftName }

func (s *Setup) DraftExperience() int { return s.draftExperience }

// sync propagates the attribute collection to its dependents.
func (s *Setup) sync() {
	attrs := s.attributes.Attributes()
	s.selection.Sync(attrs)
	if s.quests.ObserveAttributes(attrs) {
		s.logger.Debug("pruned affected attributes after attribute removal", "attributes", len(attrs))
	}
}

func (s *Setup) AddAttribute(name string) error {
	if err := s.attributes.Add(name); err != nil {
		return err
	}
	s.sync()
	return nil
}

func (s *Setup) DeleteAttribute(name string) bool {
	ok := s.attributes.Delete(name)
	if ok {
		s.sync()
	}
	return ok
}

func (s *Setup) MoveAttribute(name string, dir Direction) bool {
	ok := s.attributes.Move(name, dir)
	if ok {
		s.sync()
	}
	return ok
}

func (s *Setup) SetDraftName(name string) { s.draftName = name }

// SetDraftExperience clamps v to the points still available.
func (s *Setup) SetDraftExperience(v int) {
	s.draftExperience = clamp(v, 0, s.quests.PointsRemaining())
}

// AdjustDraftExperience moves the draft's share by one point.
func (s *Setup) AdjustDraftExperience(dir Direction) {
	switch dir {
	case DirectionUp:
		s.SetDraftExperience(s.draftExperience + 1)
	case DirectionDown:
		s.SetDraftExperience(s.draftExperience - 1)
	}
}

func (s *Setup) SetCurrentAttribute(name string) { s.selection.SetCurrentAttributeName(name) }

func (s *Setup) SetCurrentStrength(st Strength) { s.selection.SetAttributeStrength(st) }

func (s *Setup) AddAffectedAttribute() { s.selection.AddAffectedAttribute() }

func (s *Setup) RemoveAffectedAttribute(name string) { s.selection.DeleteAffectedAttribute(name) }

// CommitQuest turns the draft into a quest. On success the draft is reset.
func (s *Setup) CommitQuest() (Quest, error) {
	q, err := s.quests.Commit(QuestDraft{
		Name:                 s.draftName,
		AffectedAttributes:   s.selection.Selected(),
		ExperiencePointValue: s.draftExperience,
	}, s.attributes.Attributes())
	if err != nil {
		return Quest{}, err
	}
	s.ResetDraft()
	return q, nil
}

// ResetDraft discards the quest draft.
func (s *Setup) ResetDraft() {
	s.draftName = ""
	s.draftExperience = 0
	s.selection.Reset(s.attributes.Attributes())
}

func (s *Setup) DeleteQuest(name string) {
	s.DispatchQuest(DeleteQuest(name))
}

func (s *Setup) MoveQuest(name string, dir Direction) {
	s.DispatchQuest(ChangeQuestOrder(name, dir))
}

func (s *Setup) AdjustQuestExperience(name string, dir Direction) {
	s.DispatchQuest(ChangeQuestExperience(name, dir))
}

// DispatchQuest applies a quest action, typically one carrying the order the
// caller last rendered.
func (s *Setup) DispatchQuest(a Action) {
	s.quests.Dispatch(a)
	// The pool may have shrunk under the draft.
	s.SetDraftExperience(s.draftExperience)
}

// Snapshot returns the attribute and quest collections ready for submission.
func (s *Setup) Snapshot() ([]Attribute, []Quest) {
	return s.attributes.Attributes(), s.quests.State().Quests
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
