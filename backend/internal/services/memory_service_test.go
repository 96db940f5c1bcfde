package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"memory-graph/backend/internal/constants"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/memstore"
	apperrors "memory-graph/backend/pkg/errors"
)

type recordedOp struct {
	operation string
	err       error
}

type fakeRecorder struct {
	ops   []recordedOp
	nodes []int
}

func (r *fakeRecorder) RecordOperation(operation string, _ time.Duration, err error) {
	r.ops = append(r.ops, recordedOp{operation, err})
}

func (r *fakeRecorder) RecordGraph(nodes int) {
	r.nodes = append(r.nodes, nodes)
}

func newTestService(t *testing.T) (*MemoryService, *memstore.Store, *fakeRecorder) {
	t.Helper()
	store := memstore.New()
	rec := &fakeRecorder{}
	svc := NewMemoryService(store, zap.NewNop(), rec)

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc, store, rec
}

func create(t *testing.T, svc *MemoryService, in memory.CreateInput) *memory.Memory {
	t.Helper()
	if in.Date == "" {
		in.Date = "2024-05-01"
	}
	if in.Emotion == "" {
		in.Emotion = memory.EmotionNeutral
	}
	if in.UserID == "" {
		in.UserID = "user-1"
	}
	m, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return m
}

func people(names ...string) *[]memory.PersonInput {
	out := make([]memory.PersonInput, len(names))
	for i, n := range names {
		out[i] = memory.PersonInput{Name: n}
	}
	return &out
}

func TestCreate_RoundTripsPeople(t *testing.T) {
	svc, _, rec := newTestService(t)

	m := create(t, svc, memory.CreateInput{
		Text:   "Coffee with Alice",
		People: []memory.PersonInput{{Name: " Alice "}},
		Photos: []memory.Photo{{URL: "https://example.com/a.jpg", Caption: "latte"}},
	})

	require.Len(t, m.People, 1)
	assert.Equal(t, "Alice", m.People[0].Name)
	assert.NotEmpty(t, m.People[0].ID)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, "latte", m.Photos[0].Caption)
	assert.Equal(t, []recordedOp{{"create", nil}}, rec.ops)
}

func TestCreate_Validation(t *testing.T) {
	svc, store, rec := newTestService(t)

	tests := []struct {
		name string
		in   memory.CreateInput
	}{
		{"missing text", memory.CreateInput{Date: "2024-01-01", Emotion: "joy", UserID: "u"}},
		{"bad date", memory.CreateInput{Text: "x", Date: "yesterday", Emotion: "joy", UserID: "u"}},
		{"bad emotion", memory.CreateInput{Text: "x", Date: "2024-01-01", Emotion: "bored", UserID: "u"}},
		{"missing user", memory.CreateInput{Text: "x", Date: "2024-01-01", Emotion: "joy"}},
		{"photo without url", memory.CreateInput{
			Text: "x", Date: "2024-01-01", Emotion: "joy", UserID: "u",
			Photos: []memory.Photo{{URL: "   ", Caption: "c"}, {URL: ""}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if tt.name == "photo without url" {
				// blank photos are dropped during normalization
				require.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	memories, _, _ := store.Counts()
	assert.Equal(t, 1, memories)
	assert.Equal(t, "create", rec.ops[0].operation)
}

func TestCreate_MergesPeopleByNamePerUser(t *testing.T) {
	svc, store, _ := newTestService(t)

	a := create(t, svc, memory.CreateInput{Text: "a", People: []memory.PersonInput{{Name: "Alice"}}})
	b := create(t, svc, memory.CreateInput{Text: "b", People: []memory.PersonInput{{Name: "Alice", Relationship: "friend"}}})
	other := create(t, svc, memory.CreateInput{Text: "c", UserID: "user-2", People: []memory.PersonInput{{Name: "Alice"}}})

	assert.Equal(t, a.People[0].ID, b.People[0].ID)
	assert.NotEqual(t, a.People[0].ID, other.People[0].ID)

	_, persons, _ := store.Counts()
	assert.Equal(t, 2, persons)

	reread, err := svc.FindOne(context.Background(), a.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "friend", reread.People[0].Relationship)
}

func TestCreate_DropsForeignAndMissingLinks(t *testing.T) {
	svc, _, _ := newTestService(t)

	mine := create(t, svc, memory.CreateInput{Text: "mine"})
	theirs := create(t, svc, memory.CreateInput{Text: "theirs", UserID: "user-2"})

	m := create(t, svc, memory.CreateInput{
		Text:           "linking",
		LinkedMemories: []string{mine.ID, theirs.ID, "missing", mine.ID},
	})

	assert.Equal(t, []string{mine.ID}, m.LinkedMemories)
}

func TestUpdate_ReplacingPeopleIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	m := create(t, svc, memory.CreateInput{Text: "x", People: []memory.PersonInput{{Name: "Alice"}}})

	for i := 0; i < 2; i++ {
		_, err := svc.Update(ctx, m.ID, "user-1", memory.UpdateInput{People: people("Bob")})
		require.NoError(t, err)
	}

	got, err := svc.FindOne(ctx, m.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, got.People, 1)
	assert.Equal(t, "Bob", got.People[0].Name)
}

func TestUpdate_PresenceSemantics(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	m := create(t, svc, memory.CreateInput{
		Text:    "before",
		Emotion: memory.EmotionJoy,
		People:  []memory.PersonInput{{Name: "Alice"}},
		Places:  []memory.PlaceInput{{Name: "Park"}},
	})

	text := "after"
	empty := []memory.PlaceInput{}
	got, err := svc.Update(ctx, m.ID, "user-1", memory.UpdateInput{Text: &text, Places: &empty})
	require.NoError(t, err)

	assert.Equal(t, "after", got.Text)
	assert.Equal(t, memory.EmotionJoy, got.Emotion)
	assert.Equal(t, []string{"Alice"}, got.PersonNames())
	assert.Empty(t, got.Places)
}

func TestUpdate_EmptyPayloadReturnsMemory(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := create(t, svc, memory.CreateInput{Text: "x"})

	got, err := svc.Update(context.Background(), m.ID, "user-1", memory.UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestUpdate_RejectsInvalidFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := create(t, svc, memory.CreateInput{Text: "x"})

	bad := memory.Emotion("bored")
	_, err := svc.Update(context.Background(), m.ID, "user-1", memory.UpdateInput{Emotion: &bad})
	assert.True(t, apperrors.IsValidation(err))

	blank := "  "
	_, err = svc.Update(context.Background(), m.ID, "user-1", memory.UpdateInput{Text: &blank})
	assert.True(t, apperrors.IsValidation(err))
}

func TestOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	m := create(t, svc, memory.CreateInput{Text: "private", People: []memory.PersonInput{{Name: "Alice"}}})

	text := "hijacked"
	_, err := svc.Update(ctx, m.ID, "intruder", memory.UpdateInput{Text: &text, People: people("Mallory")})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Remove(ctx, m.ID, "intruder")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.FindOne(ctx, m.ID, "intruder")
	assert.True(t, apperrors.IsNotFound(err))

	got, err := svc.FindOne(ctx, m.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "private", got.Text)
	assert.Equal(t, []string{"Alice"}, got.PersonNames())
}

func TestRemove(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	target := create(t, svc, memory.CreateInput{Text: "target", People: []memory.PersonInput{{Name: "Alice"}}})
	source := create(t, svc, memory.CreateInput{Text: "source", LinkedMemories: []string{target.ID}})

	res, err := svc.Remove(ctx, target.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, constants.DeleteConfirmation, res.Message)

	_, err = svc.FindOne(ctx, target.ID, "user-1")
	assert.True(t, apperrors.IsNotFound(err))

	got, err := svc.FindOne(ctx, source.ID, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.LinkedMemories)

	// people outlive the memories that mention them
	_, ok := store.PersonID("user-1", "Alice")
	assert.True(t, ok)
}

func TestFindAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	list, err := svc.FindAll(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	first := create(t, svc, memory.CreateInput{Text: "first"})
	second := create(t, svc, memory.CreateInput{Text: "second"})
	create(t, svc, memory.CreateInput{Text: "other", UserID: "user-2"})

	list, err = svc.FindAll(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	_, err = svc.FindAll(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestLink(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := create(t, svc, memory.CreateInput{Text: "a"})
	b := create(t, svc, memory.CreateInput{Text: "b"})
	foreign := create(t, svc, memory.CreateInput{Text: "c", UserID: "user-2"})

	got, err := svc.Link(ctx, a.ID, b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.LinkedMemories)

	got, err = svc.Link(ctx, a.ID, b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.LinkedMemories)

	_, err = svc.Link(ctx, a.ID, a.ID, "user-1")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Link(ctx, a.ID, foreign.ID, "user-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTimeline(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	old := create(t, svc, memory.CreateInput{Text: "old", Date: "2020-01-01"})
	newer := create(t, svc, memory.CreateInput{Text: "new", Date: "2023-06-01T10:00:00Z"})
	sameDay := create(t, svc, memory.CreateInput{Text: "same", Date: "2020-01-01"})

	list, err := svc.Timeline(ctx, "user-1")
	require.NoError(t, err)

	ids := []string{}
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{newer.ID, old.ID, sameDay.ID}, ids)
}

func TestOverview(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	create(t, svc, memory.CreateInput{Text: "1", Emotion: memory.EmotionJoy, People: []memory.PersonInput{{Name: "Alice"}}})
	create(t, svc, memory.CreateInput{Text: "2", Emotion: memory.EmotionJoy, People: []memory.PersonInput{{Name: "Alice"}, {Name: "Bob"}}})
	create(t, svc, memory.CreateInput{Text: "3", Emotion: memory.EmotionSadness, Places: []memory.PlaceInput{{Name: "Home"}}})

	o, err := svc.Overview(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 3, o.Stats.TotalMemories)
	assert.Equal(t, 2, o.Stats.TotalPeople)
	assert.Equal(t, 1, o.Stats.TotalPlaces)
	assert.Equal(t, memory.EmotionJoy, o.Stats.MostCommonEmotion)
	require.Len(t, o.PeopleFrequency, 2)
	assert.Equal(t, "Alice", o.PeopleFrequency[0].Name)
	assert.Equal(t, 2, o.PeopleFrequency[0].Count)
}

func TestGraph(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	a := create(t, svc, memory.CreateInput{Text: "a", People: []memory.PersonInput{{Name: "Alice"}}})
	b := create(t, svc, memory.CreateInput{Text: "b", People: []memory.PersonInput{{Name: "Alice"}}, LinkedMemories: []string{a.ID}})

	g, err := svc.Graph(ctx, "user-1", 7)
	require.NoError(t, err)

	assert.Equal(t, constants.ZoomMax, g.Zoom)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, "link-"+b.ID+"-"+a.ID, g.Edges[0].ID)
	assert.Equal(t, []int{2}, rec.nodes)
}

func TestCreate_LogsOncePerMemory(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewMemoryService(memstore.New(), zap.New(core), nil)

	m := create(t, svc, memory.CreateInput{Text: "Picnic", People: []memory.PersonInput{{Name: "Ana"}}})

	entries := logs.FilterMessage("Memory created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, m.ID, entries[0].ContextMap()["memory_id"])
	assert.Equal(t, 1, logs.Len())
}
