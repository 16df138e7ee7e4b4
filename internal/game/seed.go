package game

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seed is the starting point of a new profile: suggested attributes and,
// optionally, starter quests.
type Seed struct {
	Attributes []string    `yaml:"attributes"`
	Quests     []SeedQuest `yaml:"quests"`
}

// SeedQuest is a starter quest. Strengths use the enum names or "+"/"++".
type SeedQuest struct {
	Name       string         `yaml:"name"`
	Experience int            `yaml:"experience"`
	Attributes []SeedAffected `yaml:"attributes"`
}

type SeedAffected struct {
	Name     string `yaml:"name"`
	Strength string `yaml:"strength"`
}

// DefaultSeed is a profile holding only the required attribute.
func DefaultSeed() *Seed {
	return &Seed{Attributes: []string{SentinelAttribute}}
}

// LoadSeed loads a seed from a YAML file.
func LoadSeed(path string) (*Seed, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, err
	}
	return ParseSeed(b)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(b []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

func (q SeedQuest) draft() (QuestDraft, error) {
	d := QuestDraft{Name: q.Name, ExperiencePointValue: q.Experience}
	for _, a := range q.Attributes {
		st, err := ParseStrength(a.Strength)
		if err != nil {
			return QuestDraft{}, fmt.Errorf("quest %q: %w", q.Name, err)
		}
		d.AffectedAttributes = append(d.AffectedAttributes, AffectedAttribute{Name: NormalizeName(a.Name), Strength: st})
	}
	return d, nil
}
