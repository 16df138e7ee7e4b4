package game

import "fmt"

const (
	// SentinelAttribute is the required attribute every profile carries and
	// every quest affects. It cannot be deleted.
	SentinelAttribute = "Discipline"

	// NoAttributesAvailable is the current-attribute value of a quest draft
	// once every attribute has been attached to it.
	NoAttributesAvailable = ""

	// ExperiencePool is the fixed budget of experience points shared by all quests.
	ExperiencePool = 100

	MaxAttributeNameLen   = 30
	MaxQuestNameLen       = 50
	MaxAffectedAttributes = 50
	MaxTagLen             = 30
)

// Strength is the intensity with which a quest affects an attribute.
type Strength string

const (
	StrengthNormal   Strength = "normal"
	StrengthPlus     Strength = "plus"
	StrengthPlusPlus Strength = "plusPlus"
)

func (s Strength) IsValid() bool {
	switch s {
	case StrengthNormal, StrengthPlus, StrengthPlusPlus:
		return true
	default:
		return false
	}
}

// Power is the integer encoding stored alongside a quest/attribute link.
func (s Strength) Power() int {
	switch s {
	case StrengthPlus:
		return 2
	case StrengthPlusPlus:
		return 3
	default:
		return 1
	}
}

// Label is the short marker shown next to an affected attribute.
func (s Strength) Label() string {
	switch s {
	case StrengthPlus:
		return "+"
	case StrengthPlusPlus:
		return "++"
	default:
		return ""
	}
}

// ParseStrength accepts the enum value or its label ("", "+", "++").
func ParseStrength(v string) (Strength, error) {
	switch v {
	case string(StrengthNormal), "":
		return StrengthNormal, nil
	case string(StrengthPlus), "+":
		return StrengthPlus, nil
	case string(StrengthPlusPlus), "++":
		return StrengthPlusPlus, nil
	}
	return "", fmt.Errorf("unknown strength %q", v)
}

// StrengthForPower is the inverse of Strength.Power.
func StrengthForPower(p int) (Strength, error) {
	switch p {
	case 1:
		return StrengthNormal, nil
	case 2:
		return StrengthPlus, nil
	case 3:
		return StrengthPlusPlus, nil
	}
	return "", fmt.Errorf("unknown attribute power %d", p)
}

// Attribute is a user-defined self-improvement dimension. Order always equals
// the attribute's index in its collection.
type Attribute struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// AffectedAttribute is a quest's soft reference to an attribute by name.
type AffectedAttribute struct {
	Name     string   `json:"name"`
	Strength Strength `json:"strength"`
}

// Quest is a recurring task drawing ExperiencePointValue points from the pool.
type Quest struct {
	Name                 string              `json:"name"`
	AffectedAttributes   []AffectedAttribute `json:"affectedAttributes"`
	Order                int                 `json:"order"`
	ExperiencePointValue int                 `json:"experiencePointValue"`
}

// HasAffectedAttribute reports whether the quest references the named attribute.
func (q Quest) HasAffectedAttribute(name string) bool {
	for _, a := range q.AffectedAttributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (q Quest) clone() Quest {
	q.AffectedAttributes = append([]AffectedAttribute(nil), q.AffectedAttributes...)
	return q
}

// Direction selects the neighbour for reorders and the sign of experience changes.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// NewAttribute builds a standalone attribute, rejecting invalid names.
func NewAttribute(name string, order int) (Attribute, error) {
	n, err := CheckName("name", name, MaxAttributeNameLen)
	if err != nil {
		return Attribute{}, err
	}
	if order < 0 {
		return Attribute{}, ValidationError{Field: "order", Message: "must not be negative"}
	}
	return Attribute{Name: n, Order: order}, nil
}

// NewQuest builds a standalone quest, rejecting anything that breaks the quest
// shape: bad name, empty or oversized affected list, duplicate or unknown
// strengths, and out-of-range experience.
func NewQuest(name string, affected []AffectedAttribute, order, experience int) (Quest, error) {
	n, err := CheckName("name", name, MaxQuestNameLen)
	if err != nil {
		return Quest{}, err
	}
	if len(affected) == 0 {
		return Quest{}, ValidationError{Field: "affectedAttributes", Message: "select at least one attribute"}
	}
	if len(affected) > MaxAffectedAttributes {
		return Quest{}, ValidationError{Field: "affectedAttributes", Message: fmt.Sprintf("at most %d attributes", MaxAffectedAttributes)}
	}
	seen := make(map[string]bool, len(affected))
	for _, a := range affected {
		if !a.Strength.IsValid() {
			return Quest{}, ValidationError{Field: "affectedAttributes", Message: fmt.Sprintf("invalid strength %q for %s", a.Strength, a.Name)}
		}
		key := FoldName(a.Name)
		if seen[key] {
			return Quest{}, ValidationError{Field: "affectedAttributes", Message: fmt.Sprintf("%s listed twice", a.Name)}
		}
		seen[key] = true
	}
	if order < 0 {
		return Quest{}, ValidationError{Field: "order", Message: "must not be negative"}
	}
	if experience < 0 || experience > ExperiencePool {
		return Quest{}, ValidationError{Field: "experiencePointValue", Message: fmt.Sprintf("must be between 0 and %d", ExperiencePool)}
	}
	return Quest{
		Name:                 n,
		AffectedAttributes:   append([]AffectedAttribute(nil), affected...),
		Order:                order,
		ExperiencePointValue: experience,
	}, nil
}
