package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrength(t *testing.T) {
	tests := []struct {
		in    string
		want  Strength
		power int
		label string
	}{
		{"normal", StrengthNormal, 1, ""},
		{"", StrengthNormal, 1, ""},
		{"plus", StrengthPlus, 2, "+"},
		{"+", StrengthPlus, 2, "+"},
		{"plusPlus", StrengthPlusPlus, 3, "++"},
		{"++", StrengthPlusPlus, 3, "++"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrength(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
			assert.Equal(t, tt.power, got.Power())
			assert.Equal(t, tt.label, got.Label())

			back, err := StrengthForPower(tt.power)
			require.NoError(t, err)
			assert.Equal(t, tt.want, back)
		})
	}

	_, err := ParseStrength("mega")
	assert.Error(t, err)
	_, err = StrengthForPower(4)
	assert.Error(t, err)
	assert.False(t, Strength("mega").IsValid())
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{"trims", "  Vitality  ", "Vitality", ""},
		{"apostrophe and hyphen", "Mind's-Eye_2", "Mind's-Eye_2", ""},
		{"composes", "Café", "Café", ""},
		{"empty", " ", "", "required"},
		{"too long", strings.Repeat("a", 31), "", "at most 30"},
		{"punctuation", "Vitality!", "", "disallowed"},
		{"emoji", "Run 🏃", "", "disallowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckName("name", tt.in, MaxAttributeNameLen)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Vitality", "VITALITY"))
	assert.True(t, SameName("École", "école"))
	assert.True(t, SameName(" Focus", "focus "))
	assert.False(t, SameName("Focus", "Fokus"))
	assert.True(t, IsSentinel("discipline"))
}

func TestNewQuest(t *testing.T) {
	aa := []AffectedAttribute{{Name: "Vitality", Strength: StrengthPlus}}
	q, err := NewQuest(" Run ", aa, 0, 30)
	require.NoError(t, err)
	assert.Equal(t, "Run", q.Name)
	assert.True(t, q.HasAffectedAttribute("Vitality"))
	assert.False(t, q.HasAffectedAttribute("Wisdom"))

	aa[0].Name = "Changed"
	assert.True(t, q.HasAffectedAttribute("Vitality"), "constructor copies its input")

	bad := []struct {
		name     string
		affected []AffectedAttribute
		order    int
		xp       int
	}{
		{"", []AffectedAttribute{{Name: "A", Strength: StrengthNormal}}, 0, 0},
		{"Run", nil, 0, 0},
		{"Run", []AffectedAttribute{{Name: "A", Strength: "huge"}}, 0, 0},
		{"Run", []AffectedAttribute{{Name: "A", Strength: StrengthNormal}, {Name: "a", Strength: StrengthPlus}}, 0, 0},
		{"Run", []AffectedAttribute{{Name: "A", Strength: StrengthNormal}}, -1, 0},
		{"Run", []AffectedAttribute{{Name: "A", Strength: StrengthNormal}}, 0, 101},
	}
	for _, b := range bad {
		_, err := NewQuest(b.name, b.affected, b.order, b.xp)
		var ve ValidationError
		assert.True(t, errors.As(err, &ve), "NewQuest(%q, %v, %d, %d) should fail validation", b.name, b.affected, b.order, b.xp)
	}
}

func TestNewAttribute(t *testing.T) {
	a, err := NewAttribute("Wisdom", 2)
	require.NoError(t, err)
	assert.Equal(t, Attribute{Name: "Wisdom", Order: 2}, a)

	_, err = NewAttribute("Wisdom", -1)
	assert.Error(t, err)
	_, err = NewAttribute("", 0)
	assert.Error(t, err)
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.NoError(t, fe.Err())

	fe.Add("b", "second")
	fe.Add("a", "first")
	fe.Add("a", "ignored")
	fe.AddError("", ValidationError{Field: "c", Message: "third"})
	fe.AddError("d", errors.New("fourth"))

	err := fe.Err()
	require.Error(t, err)
	assert.Equal(t, "a: first; b: second; c: third; d: fourth", err.Error())
}
