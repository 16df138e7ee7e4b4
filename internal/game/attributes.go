package game

import (
	"fmt"
	"log/slog"
	"sort"
)

// AttributeList owns the ordered attribute collection of a profile being set up.
type AttributeList struct {
	items  []Attribute
	logger *slog.Logger
}

// NewAttributeList builds a collection from initial attributes. Initial entries
// are ordered by their Order field, duplicates are dropped and orders are
// renumbered from zero.
func NewAttributeList(logger *slog.Logger, initial ...Attribute) *AttributeList {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := append([]Attribute(nil), initial...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	l := &AttributeList{logger: logger}
	for _, a := range sorted {
		if l.indexFolded(a.Name) >= 0 {
			logger.Warn("dropping duplicate initial attribute", "name", a.Name)
			continue
		}
		l.items = append(l.items, Attribute{Name: NormalizeName(a.Name), Order: len(l.items)})
	}
	return l
}

// Attributes returns a copy of the collection in order.
func (l *AttributeList) Attributes() []Attribute {
	return append([]Attribute(nil), l.items...)
}

func (l *AttributeList) Len() int { return len(l.items) }

// Index returns the position of the attribute with exactly this name, or -1.
func (l *AttributeList) Index(name string) int {
	for i, a := range l.items {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (l *AttributeList) Contains(name string) bool { return l.Index(name) >= 0 }

func (l *AttributeList) indexFolded(name string) int {
	key := FoldName(name)
	for i, a := range l.items {
		if FoldName(a.Name) == key {
			return i
		}
	}
	return -1
}

// Add appends a new attribute at the end of the collection.
func (l *AttributeList) Add(name string) error {
	n, err := CheckName("name", name, MaxAttributeNameLen)
	if err != nil {
		return err
	}
	if i := l.indexFolded(n); i >= 0 {
		return ValidationError{Field: "name", Message: fmt.Sprintf("attribute %q already exists", l.items[i].Name)}
	}
	l.items = append(l.items, Attribute{Name: n, Order: len(l.items)})
	return nil
}

// Delete removes the named attribute and closes the gap it leaves. Deleting
// the sentinel or an unknown attribute is a logged no-op.
func (l *AttributeList) Delete(name string) bool {
	if IsSentinel(name) {
		l.logger.Warn("refusing to delete required attribute", "name", name)
		return false
	}
	idx := l.Index(name)
	if idx < 0 {
		l.logger.Warn("attribute to delete not found", "name", name)
		return false
	}
	removed := l.items[idx].Order
	next := make([]Attribute, 0, len(l.items)-1)
	for i, a := range l.items {
		if i == idx {
			continue
		}
		if a.Order > removed {
			a.Order--
		}
		next = append(next, a)
	}
	l.items = next
	return true
}

// SwapUp moves the attribute one position towards the front.
func (l *AttributeList) SwapUp(name string) bool {
	idx := l.Index(name)
	if idx <= 0 {
		return false
	}
	l.swap(idx, idx-1)
	return true
}

// SwapDown moves the attribute one position towards the back.
func (l *AttributeList) SwapDown(name string) bool {
	idx := l.Index(name)
	if idx < 0 || idx == len(l.items)-1 {
		return false
	}
	l.swap(idx, idx+1)
	return true
}

// Move dispatches to SwapUp or SwapDown.
func (l *AttributeList) Move(name string, dir Direction) bool {
	switch dir {
	case DirectionUp:
		return l.SwapUp(name)
	case DirectionDown:
		return l.SwapDown(name)
	}
	l.logger.Warn("unknown move direction", "name", name, "direction", dir)
	return false
}

func (l *AttributeList) swap(i, j int) {
	l.items[i], l.items[j] = l.items[j], l.items[i]
	l.items[i].Order = i
	l.items[j].Order = j
}
