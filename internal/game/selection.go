package game

import "sort"

// Selection is the draft state of the quest currently being created: which
// attributes are still selectable, which are attached and with what strength.
//
// Available is always the complement of Selected within the attribute
// collection last passed to Reset or Sync, sorted by attribute order.
type Selection struct {
	attributes      []Attribute
	available       []Attribute
	selected        []AffectedAttribute
	currentName     string
	currentStrength Strength
}

// NewSelection starts a draft with every attribute selectable.
func NewSelection(attributes []Attribute) *Selection {
	s := &Selection{}
	s.Reset(attributes)
	return s
}

func (s *Selection) Available() []Attribute {
	return append([]Attribute(nil), s.available...)
}

func (s *Selection) Selected() []AffectedAttribute {
	return append([]AffectedAttribute(nil), s.selected...)
}

func (s *Selection) CurrentAttributeName() string { return s.currentName }

func (s *Selection) CurrentAttributeStrength() Strength { return s.currentStrength }

func (s *Selection) SetCurrentAttributeName(name string) { s.currentName = name }

func (s *Selection) SetAttributeStrength(st Strength) { s.currentStrength = st }

// AddAffectedAttribute attaches the current attribute at the current strength.
func (s *Selection) AddAffectedAttribute() {
	name := s.currentName
	if name == NoAttributesAvailable || s.isSelected(name) {
		return
	}
	idx := indexAttribute(s.available, name)
	if idx < 0 {
		return
	}
	strength := s.currentStrength
	if !strength.IsValid() {
		strength = StrengthNormal
	}
	s.selected = append(s.selected, AffectedAttribute{Name: name, Strength: strength})
	s.available = append(s.available[:idx:idx], s.available[idx+1:]...)
	s.currentStrength = StrengthNormal
	s.currentName = s.firstAvailable()
}

// DeleteAffectedAttribute detaches name and makes it selectable again.
func (s *Selection) DeleteAffectedAttribute(name string) {
	idx := -1
	for i, a := range s.selected {
		if a.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.selected = append(s.selected[:idx:idx], s.selected[idx+1:]...)

	pos := indexAttribute(s.attributes, name)
	if pos < 0 {
		// Attribute vanished from the collection; nothing to restore.
		return
	}
	s.available = append(s.available, s.attributes[pos])
	s.sortAvailable()
	if s.currentName == NoAttributesAvailable {
		s.currentName = name
	}
}

// Reset discards the draft and makes every attribute selectable again.
func (s *Selection) Reset(attributes []Attribute) {
	s.attributes = append([]Attribute(nil), attributes...)
	s.available = append([]Attribute(nil), attributes...)
	s.sortAvailable()
	s.selected = nil
	s.currentStrength = StrengthNormal
	s.currentName = s.firstAvailable()
}

// Sync reconciles the draft with a changed attribute collection: stale
// selections are dropped, the available list is recomputed and the current
// name falls back to the first available attribute when it is gone.
func (s *Selection) Sync(attributes []Attribute) {
	s.attributes = append([]Attribute(nil), attributes...)

	kept := s.selected[:0:0]
	for _, a := range s.selected {
		if indexAttribute(attributes, a.Name) >= 0 {
			kept = append(kept, a)
		}
	}
	s.selected = kept

	s.available = s.available[:0:0]
	for _, a := range attributes {
		if !s.isSelected(a.Name) {
			s.available = append(s.available, a)
		}
	}
	s.sortAvailable()

	if indexAttribute(s.available, s.currentName) < 0 {
		s.currentName = s.firstAvailable()
	}
}

func (s *Selection) isSelected(name string) bool {
	for _, a := range s.selected {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (s *Selection) firstAvailable() string {
	if len(s.available) == 0 {
		return NoAttributesAvailable
	}
	return s.available[0].Name
}

func (s *Selection) sortAvailable() {
	sort.SliceStable(s.available, func(i, j int) bool {
		return s.available[i].Order < s.available[j].Order
	})
}

func indexAttribute(attrs []Attribute, name string) int {
	for i, a := range attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}
