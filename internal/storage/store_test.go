package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daltraxx/life-rpg-sub000/internal/availability"
	"github.com/Daltraxx/life-rpg-sub000/internal/profile"
	"github.com/Daltraxx/life-rpg-sub000/internal/storage"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "liferpg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRows() profile.Rows {
	return profile.Rows{
		Attributes: []profile.AttributeRow{
			{Name: "Discipline", Position: 0},
			{Name: "Vitality", Position: 1},
		},
		Quests: []profile.QuestRow{
			{Name: "Run", ExperienceShare: 30, Position: 0},
			{Name: "Stretch", ExperienceShare: 10, Position: 1},
		},
		QuestAttributes: []profile.QuestAttributeRow{
			{QuestName: "Run", AttributeName: "Vitality", AttributePower: 3},
			{QuestName: "Run", AttributeName: "Discipline", AttributePower: 1},
			{QuestName: "Stretch", AttributeName: "Discipline", AttributePower: 2},
		},
	}
}

func TestCreateProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "alice"))

	_, ok, err := s.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "no profile before creation")

	require.NoError(t, s.CreateProfile(ctx, "u1", "", sampleRows()))

	got, ok, err := s.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleRows(), got)
}

func TestCreateProfile_UnknownUserIsUnauthorized(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateProfile(context.Background(), "ghost", "", sampleRows())
	require.Error(t, err)
	assert.ErrorIs(t, profile.Classify(err), profile.ErrUnauthorized)
}

func TestCreateProfile_SecondSubmissionIsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", ""))
	require.NoError(t, s.CreateProfile(ctx, "u1", "", sampleRows()))

	err := s.CreateProfile(ctx, "u1", "", sampleRows())
	require.Error(t, err)
	assert.Equal(t, profile.ErrDuplicate, profile.Classify(err))
}

func TestCreateProfile_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", ""))

	rows := sampleRows()
	// Same name differing only in case collides with the NOCASE key.
	rows.Quests = append(rows.Quests, profile.QuestRow{Name: "RUN", ExperienceShare: 1, Position: 2})

	err := s.CreateProfile(ctx, "u1", "", rows)
	require.Error(t, err)
	assert.Equal(t, profile.ErrDuplicate, profile.Classify(err))

	_, ok, err := s.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "failed transaction must not leave a profile behind")

	require.NoError(t, s.CreateProfile(ctx, "u1", "", sampleRows()), "user can retry after a failure")
}

func TestCreateProfile_DanglingLinkFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", ""))

	rows := sampleRows()
	rows.QuestAttributes = append(rows.QuestAttributes, profile.QuestAttributeRow{QuestName: "Run", AttributeName: "Ghost", AttributePower: 1})

	err := s.CreateProfile(ctx, "u1", "", rows)
	require.Error(t, err)
	assert.Equal(t, profile.ErrFailed, profile.Classify(err))
}

func TestNameExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "Alice"))

	exists, err := s.NameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.NameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureUser_TagTaken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "alice"))
	require.NoError(t, s.EnsureUser(ctx, "u1", ""), "re-registering keeps the tag")

	exists, err := s.NameExists(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, exists)

	err = s.EnsureUser(ctx, "u2", "ALICE")
	require.Error(t, err)
	assert.Equal(t, profile.ErrDuplicate, profile.Classify(err))
}

func TestNameExists_FoldsBeyondASCII(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "Émile"))
	require.NoError(t, s.EnsureUser(ctx, "u2", "Straße"))

	for _, candidate := range []string{"Émile", "émile", "ÉMILE", "STRASSE", "strasse"} {
		exists, err := s.NameExists(ctx, candidate)
		require.NoError(t, err)
		assert.True(t, exists, candidate)
	}

	err := s.EnsureUser(ctx, "u3", "émile")
	require.Error(t, err)
	assert.Equal(t, profile.ErrDuplicate, profile.Classify(err))
}

func TestNameExists_CheckerAgreesWithStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "Émile"))

	results := make(chan availability.Result, 8)
	c := availability.NewChecker(s.NameExists, availability.Options{
		OnResult: func(r availability.Result) { results <- r },
	})
	defer c.Close()

	check := func(candidate string) availability.Status {
		c.Check(candidate)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case r := <-results:
				if r.Status != availability.StatusPending {
					require.NoError(t, r.Err)
					return r.Status
				}
			case <-timeout:
				t.Fatalf("no result for %q", candidate)
			}
		}
	}
	assert.Equal(t, availability.StatusTaken, check("Émile"))
	assert.Equal(t, availability.StatusTaken, check("éMILE"))
	assert.Equal(t, availability.StatusAvailable, check("Emile"))
}

func TestCreateProfile_RegistersTag(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", ""))
	require.NoError(t, s.CreateProfile(ctx, "u1", "Émile", sampleRows()))

	exists, err := s.NameExists(ctx, "émile")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateProfile_FailureKeepsTag(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "alice"))
	require.NoError(t, s.CreateProfile(ctx, "u1", "", sampleRows()))

	err := s.CreateProfile(ctx, "u1", "mallory", sampleRows())
	require.Error(t, err)
	assert.Equal(t, profile.ErrDuplicate, profile.Classify(err))

	alice, err := s.NameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, alice, "old tag must survive a failed submission")
	mallory, err := s.NameExists(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, mallory)
}

func TestCreateProfile_TagTakenRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureUser(ctx, "u1", "alice"))
	require.NoError(t, s.EnsureUser(ctx, "u2", ""))

	err := s.CreateProfile(ctx, "u2", "ALICE", sampleRows())
	require.Error(t, err)
	assert.Equal(t, profile.ErrTagTaken, profile.Classify(err))

	_, ok, err := s.LoadProfile(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}
