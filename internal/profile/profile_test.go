package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

func validGraph() ([]game.Attribute, []game.Quest) {
	attrs := []game.Attribute{
		{Name: "Discipline", Order: 0},
		{Name: "Vitality", Order: 1},
		{Name: "Wisdom", Order: 2},
	}
	quests := []game.Quest{
		{
			Name:                 "Run",
			ExperiencePointValue: 30,
			AffectedAttributes: []game.AffectedAttribute{
				{Name: "Vitality", Strength: game.StrengthPlusPlus},
				{Name: "Discipline", Strength: game.StrengthNormal},
			},
		},
		{
			Name:                 "Read",
			Order:                1,
			ExperiencePointValue: 20,
			AffectedAttributes: []game.AffectedAttribute{
				{Name: "Wisdom", Strength: game.StrengthPlus},
				{Name: "Discipline", Strength: game.StrengthNormal},
			},
		},
	}
	return attrs, quests
}

func TestValidate_Valid(t *testing.T) {
	attrs, quests := validGraph()
	assert.Empty(t, Validate(attrs, quests))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(attrs []game.Attribute, quests []game.Quest) ([]game.Attribute, []game.Quest)
		field  string
	}{
		{"no attributes", func(_ []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			return nil, nil
		}, "attributes"},
		{"missing sentinel", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			return a[1:], nil
		}, "attributes"},
		{"bad attribute name", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			a[1].Name = "Vit@lity"
			return a, nil
		}, "attributes[1].name"},
		{"duplicate attribute", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			a[2].Name = "VITALITY"
			return a, nil
		}, "attributes[2].name"},
		{"duplicate quest", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[1].Name = "run"
			return a, q
		}, "quests[1].name"},
		{"quest name too long", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[0].Name = "This quest name is far too long to be accepted here"
			return a, q
		}, "quests[0].name"},
		{"no affected attributes", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[0].AffectedAttributes = nil
			return a, q
		}, "quests[0].affectedAttributes"},
		{"duplicate affected attribute", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[0].AffectedAttributes[1].Name = "Vitality"
			return a, q
		}, "quests[0].affectedAttributes[1].name"},
		{"unknown affected attribute", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[1].AffectedAttributes[0].Name = "Ghost"
			return a, q
		}, "quests[1].affectedAttributes[0].name"},
		{"bad strength", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[1].AffectedAttributes[0].Strength = "ultra"
			return a, q
		}, "quests[1].affectedAttributes[0].strength"},
		{"quest experience out of range", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[0].ExperiencePointValue = -5
			return a, q
		}, "quests[0].experiencePointValue"},
		{"pool overdrawn", func(a []game.Attribute, q []game.Quest) ([]game.Attribute, []game.Quest) {
			q[0].ExperiencePointValue = 90
			return a, q
		}, "quests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, quests := tt.mutate(validGraph())
			fe := Validate(attrs, quests)
			assert.Contains(t, fe, tt.field, "got %v", fe)
		})
	}
}

func TestValidate_TooManyAffected(t *testing.T) {
	attrs := []game.Attribute{{Name: "Discipline"}}
	var affected []game.AffectedAttribute
	for i := 0; i <= game.MaxAffectedAttributes; i++ {
		name := fmt.Sprintf("Attr %d", i)
		attrs = append(attrs, game.Attribute{Name: name, Order: i + 1})
		affected = append(affected, game.AffectedAttribute{Name: name, Strength: game.StrengthNormal})
	}
	fe := Validate(attrs, []game.Quest{{Name: "Everything", AffectedAttributes: affected}})
	assert.Contains(t, fe, "quests[0].affectedAttributes")
}

func TestAssemble(t *testing.T) {
	attrs, quests := validGraph()
	rows, err := Assemble(attrs, quests)
	require.NoError(t, err)

	assert.Equal(t, []AttributeRow{
		{Name: "Discipline", Position: 0},
		{Name: "Vitality", Position: 1},
		{Name: "Wisdom", Position: 2},
	}, rows.Attributes)
	assert.Equal(t, []QuestRow{
		{Name: "Run", ExperienceShare: 30, Position: 0},
		{Name: "Read", ExperienceShare: 20, Position: 1},
	}, rows.Quests)
	assert.Equal(t, []QuestAttributeRow{
		{QuestName: "Run", AttributeName: "Vitality", AttributePower: 3},
		{QuestName: "Run", AttributeName: "Discipline", AttributePower: 1},
		{QuestName: "Read", AttributeName: "Wisdom", AttributePower: 2},
		{QuestName: "Read", AttributeName: "Discipline", AttributePower: 1},
	}, rows.QuestAttributes)

	backAttrs, backQuests, err := rows.Graph()
	require.NoError(t, err)
	assert.Equal(t, attrs, backAttrs)
	assert.Equal(t, quests, backQuests)
}

func TestAssemble_InvalidReturnsNothing(t *testing.T) {
	attrs, quests := validGraph()
	quests[1].AffectedAttributes[0].Name = "Ghost"
	rows, err := Assemble(attrs, quests)
	require.Error(t, err)
	var fe game.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Empty(t, rows.Attributes)
	assert.Empty(t, rows.Quests)
	assert.Empty(t, rows.QuestAttributes)
}

type codedErr struct{ code string }

func (e codedErr) Error() string     { return "db: " + e.code }
func (e codedErr) ErrorCode() string { return e.code }

type fakePersister struct {
	calls  int
	userID string
	tag    string
	rows   Rows
	err    error
}

func (p *fakePersister) CreateProfile(_ context.Context, userID, tag string, rows Rows) error {
	p.calls++
	p.userID = userID
	p.tag = tag
	p.rows = rows
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitter_Success(t *testing.T) {
	p := &fakePersister{}
	s := NewSubmitter(p, quietLogger())
	attrs, quests := validGraph()

	rows, err := s.Submit(context.Background(), "user-1", "  Émile ", attrs, quests)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "user-1", p.userID)
	assert.Equal(t, "Émile", p.tag)
	assert.Equal(t, rows, p.rows)
}

func TestSubmitter_InvalidTagWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{"too long", strings.Repeat("a", game.MaxTagLen+1)},
		{"markup", "<script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePersister{}
			s := NewSubmitter(p, quietLogger())
			attrs, quests := validGraph()

			_, err := s.Submit(context.Background(), "u", tt.tag, attrs, quests)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Zero(t, p.calls)

			var se *SubmitError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.FieldErrors, "tag")
		})
	}
}

func TestSubmitter_TagTaken(t *testing.T) {
	p := &fakePersister{err: codedErr{CodeTagTaken}}
	s := NewSubmitter(p, quietLogger())
	attrs, quests := validGraph()

	_, err := s.Submit(context.Background(), "u", "alice", attrs, quests)
	require.ErrorIs(t, err, ErrTagTaken)

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "that tag is already taken", se.FieldErrors["tag"])
}

func TestSubmitter_Errors(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		invalid   bool
		storeErr  error
		wantKind  error
		wantCalls int
	}{
		{"anonymous", "", false, nil, ErrUnauthorized, 0},
		{"invalid graph", "u", true, nil, ErrInvalid, 0},
		{"unique violation", "u", false, fmt.Errorf("insert: %w", codedErr{CodeUniqueViolation}), ErrDuplicate, 1},
		{"unauthorized", "u", false, codedErr{CodeUnauthorized}, ErrUnauthorized, 1},
		{"other code", "u", false, codedErr{"disk_full"}, ErrFailed, 1},
		{"plain error", "u", false, errors.New("boom"), ErrFailed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePersister{err: tt.storeErr}
			s := NewSubmitter(p, quietLogger())
			attrs, quests := validGraph()
			if tt.invalid {
				quests[0].Name = ""
			}

			_, err := s.Submit(context.Background(), tt.userID, "", attrs, quests)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantCalls, p.calls)

			var se *SubmitError
			require.ErrorAs(t, err, &se)
			assert.NotEmpty(t, se.Message)
			if tt.invalid {
				assert.Contains(t, se.FieldErrors, "quests[0].name")
			}
			if tt.storeErr != nil {
				assert.ErrorIs(t, err, tt.storeErr)
			}
		})
	}
}
