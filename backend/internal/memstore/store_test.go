package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-graph/backend/internal/memory"
	apperrors "memory-graph/backend/pkg/errors"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func create(t *testing.T, s *Store, in memory.CreateInput, at time.Time) string {
	t.Helper()
	if in.UserID == "" {
		in.UserID = "user-1"
	}
	if in.Emotion == "" {
		in.Emotion = memory.EmotionJoy
	}
	if in.Date == "" {
		in.Date = "2024-05-01"
	}
	id, err := s.Create(context.Background(), in, at)
	require.NoError(t, err)
	return id
}

func TestStore_MergesPeopleAndPlacesPerUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := create(t, s, memory.CreateInput{
		Text:   "Coffee",
		People: []memory.PersonInput{{Name: "Alice", Relationship: "friend"}},
		Places: []memory.PlaceInput{{Name: "Cafe"}},
	}, base)
	second := create(t, s, memory.CreateInput{
		Text:   "Lunch",
		People: []memory.PersonInput{{Name: "Alice"}, {Name: "Bob"}},
		Places: []memory.PlaceInput{{Name: "Cafe", Type: "restaurant"}},
	}, base.Add(time.Minute))
	create(t, s, memory.CreateInput{
		Text:   "Elsewhere",
		UserID: "user-2",
		People: []memory.PersonInput{{Name: "Alice"}},
	}, base)

	a, err := s.Get(ctx, first, "user-1")
	require.NoError(t, err)
	b, err := s.Get(ctx, second, "user-1")
	require.NoError(t, err)

	assert.Equal(t, a.People[0].ID, b.People[0].ID)
	// an empty relationship keeps the stored label
	assert.Equal(t, "friend", b.People[0].Relationship)
	assert.Equal(t, "restaurant", a.Places[0].Type)

	other, ok := s.PersonID("user-2", "Alice")
	require.True(t, ok)
	assert.NotEqual(t, a.People[0].ID, other)

	memories, people, places := s.Counts()
	assert.Equal(t, 3, memories)
	assert.Equal(t, 3, people)
	assert.Equal(t, 1, places)
}

func TestStore_ListOrderAndScope(t *testing.T) {
	s := New()
	ctx := context.Background()

	late := create(t, s, memory.CreateInput{Text: "late"}, base.Add(time.Hour))
	early := create(t, s, memory.CreateInput{Text: "early"}, base)
	create(t, s, memory.CreateInput{Text: "foreign", UserID: "user-2"}, base)

	list, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early, list[0].ID)
	assert.Equal(t, late, list[1].ID)

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_LinksResolveWithinUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	target := create(t, s, memory.CreateInput{Text: "target"}, base)
	foreign := create(t, s, memory.CreateInput{Text: "foreign", UserID: "user-2"}, base)
	src := create(t, s, memory.CreateInput{
		Text:           "source",
		LinkedMemories: []string{target, foreign, "missing"},
	}, base.Add(time.Second))

	m, err := s.Get(ctx, src, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{target}, m.LinkedMemories)

	self := []string{src, target}
	require.NoError(t, s.Update(ctx, src, "user-1", memory.UpdateInput{LinkedMemories: &self}))
	m, err = s.Get(ctx, src, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{target}, m.LinkedMemories)
}

func TestStore_UpdatePresence(t *testing.T) {
	s := New()
	ctx := context.Background()

	id := create(t, s, memory.CreateInput{
		Text:   "Hike",
		People: []memory.PersonInput{{Name: "Alice"}},
		Places: []memory.PlaceInput{{Name: "Trail"}},
		Photos: []memory.Photo{{URL: "https://example.com/1.jpg", Caption: "summit"}},
	}, base)

	text := "Long hike"
	noPeople := []memory.PersonInput{}
	require.NoError(t, s.Update(ctx, id, "user-1", memory.UpdateInput{Text: &text, People: &noPeople}))

	m, err := s.Get(ctx, id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Long hike", m.Text)
	assert.Empty(t, m.People)
	assert.Equal(t, "Trail", m.Places[0].Name)
	assert.Equal(t, []memory.Photo{{URL: "https://example.com/1.jpg", Caption: "summit"}}, m.Photos)

	// detached people stay as nodes
	_, ok := s.PersonID("user-1", "Alice")
	assert.True(t, ok)
}

func TestStore_OwnershipAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	target := create(t, s, memory.CreateInput{Text: "target"}, base)
	src := create(t, s, memory.CreateInput{Text: "source", LinkedMemories: []string{target}}, base.Add(time.Second))

	_, err := s.Get(ctx, target, "user-2")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(s.Delete(ctx, target, "user-2")))

	text := "stolen"
	assert.True(t, apperrors.IsNotFound(s.Update(ctx, target, "user-2", memory.UpdateInput{Text: &text})))

	require.NoError(t, s.Delete(ctx, target, "user-1"))
	assert.True(t, apperrors.IsNotFound(s.Delete(ctx, target, "user-1")))

	m, err := s.Get(ctx, src, "user-1")
	require.NoError(t, err)
	assert.Empty(t, m.LinkedMemories)
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, memory.CreateInput{Text: "x", UserID: "user-1"}, base)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))

	_, err = s.List(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Error(t, s.Ping(ctx))

	memories, _, _ := s.Counts()
	assert.Zero(t, memories)
}
