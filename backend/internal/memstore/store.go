// Package memstore is an in-process memory.Store. It backs the development
// mode of the server and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"memory-graph/backend/internal/memory"
	apperrors "memory-graph/backend/pkg/errors"
)

type memoryRecord struct {
	id        string
	userID    string
	text      string
	date      string
	emotion   memory.Emotion
	createdAt time.Time
	photos    []memory.Photo
	people    []string // person ids in order
	places    []string // place ids in order
	links     []string // memory ids in order
}

type entity struct {
	id     string
	userID string
	name   string
	label  string // relationship for people, type for places
}

// nameKey is the merge key of a person or place
type nameKey struct {
	userID string
	name   string
}

// Store keeps memories, people and places in maps guarded by one lock. Each
// method checks everything it needs before mutating, so a failed call
// leaves nothing behind.
type Store struct {
	mu       sync.RWMutex
	memories map[string]*memoryRecord
	people   map[string]*entity
	places   map[string]*entity

	// name -> id lookup tables implementing merge-on-name
	personIDs map[nameKey]string
	placeIDs  map[nameKey]string

	newID func() string
}

// New creates an empty store
func New() *Store {
	return &Store{
		memories:  make(map[string]*memoryRecord),
		people:    make(map[string]*entity),
		places:    make(map[string]*entity),
		personIDs: make(map[nameKey]string),
		placeIDs:  make(map[nameKey]string),
		newID:     func() string { return uuid.New().String() },
	}
}

// PersonID returns the id a person name resolves to for userID
func (s *Store) PersonID(userID, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.personIDs[nameKey{userID, name}]
	return id, ok
}

// PlaceID returns the id a place name resolves to for userID
func (s *Store) PlaceID(userID, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.placeIDs[nameKey{userID, name}]
	return id, ok
}

// Counts reports how many memory, person and place nodes exist
func (s *Store) Counts() (memories, people, places int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories), len(s.people), len(s.places)
}

func (s *Store) Create(ctx context.Context, in memory.CreateInput, createdAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewContextCancelled("create memory", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &memoryRecord{
		id:        s.newID(),
		userID:    in.UserID,
		text:      in.Text,
		date:      in.Date,
		emotion:   in.Emotion,
		createdAt: createdAt,
		photos:    append([]memory.Photo(nil), in.Photos...),
	}
	rec.people = s.mergePeople(in.UserID, in.People)
	rec.places = s.mergePlaces(in.UserID, in.Places)
	rec.links = s.resolveLinks(rec.id, in.UserID, in.LinkedMemories)
	s.memories[rec.id] = rec

	return rec.id, nil
}

func (s *Store) List(ctx context.Context, userID string) ([]memory.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("list memories", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*memoryRecord, 0)
	for _, rec := range s.memories {
		if rec.userID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].createdAt.Equal(recs[j].createdAt) {
			return recs[i].createdAt.Before(recs[j].createdAt)
		}
		return recs[i].id < recs[j].id
	})

	out := make([]memory.Memory, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.toMemory(rec))
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id, userID string) (*memory.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("get memory", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.owned(id, userID)
	if !ok {
		return nil, apperrors.NewMemoryNotFound(id)
	}
	m := s.toMemory(rec)
	return &m, nil
}

func (s *Store) Update(ctx context.Context, id, userID string, in memory.UpdateInput) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("update memory", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(id, userID)
	if !ok {
		return apperrors.NewMemoryNotFound(id)
	}

	if in.Text != nil {
		rec.text = *in.Text
	}
	if in.Date != nil {
		rec.date = *in.Date
	}
	if in.Emotion != nil {
		rec.emotion = *in.Emotion
	}
	if in.People != nil {
		rec.people = s.mergePeople(userID, *in.People)
	}
	if in.Places != nil {
		rec.places = s.mergePlaces(userID, *in.Places)
	}
	if in.Photos != nil {
		rec.photos = append([]memory.Photo(nil), (*in.Photos)...)
	}
	if in.LinkedMemories != nil {
		rec.links = s.resolveLinks(rec.id, userID, *in.LinkedMemories)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id, userID string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("delete memory", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(id, userID); !ok {
		return apperrors.NewMemoryNotFound(id)
	}
	delete(s.memories, id)

	// detach incoming links
	for _, rec := range s.memories {
		rec.links = without(rec.links, id)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) owned(id, userID string) (*memoryRecord, bool) {
	rec, ok := s.memories[id]
	if !ok || rec.userID != userID {
		return nil, false
	}
	return rec, true
}

// mergePeople resolves each name through the lookup table, creating the
// person on first sight. A non-empty relationship label overwrites the stored one.
func (s *Store) mergePeople(userID string, in []memory.PersonInput) []string {
	ids := make([]string, 0, len(in))
	for _, p := range in {
		ids = append(ids, s.merge(s.personIDs, s.people, userID, p.Name, p.Relationship))
	}
	return ids
}

func (s *Store) mergePlaces(userID string, in []memory.PlaceInput) []string {
	ids := make([]string, 0, len(in))
	for _, p := range in {
		ids = append(ids, s.merge(s.placeIDs, s.places, userID, p.Name, p.Type))
	}
	return ids
}

func (s *Store) merge(index map[nameKey]string, nodes map[string]*entity, userID, name, label string) string {
	key := nameKey{userID, name}
	if id, ok := index[key]; ok {
		if label != "" {
			nodes[id].label = label
		}
		return id
	}
	id := s.newID()
	nodes[id] = &entity{id: id, userID: userID, name: name, label: label}
	index[key] = id
	return id
}

// resolveLinks keeps the targets that exist, belong to userID and are not the memory itself
func (s *Store) resolveLinks(selfID, userID string, targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		if target == selfID {
			continue
		}
		if _, ok := s.owned(target, userID); ok {
			out = append(out, target)
		}
	}
	return out
}

func (s *Store) toMemory(rec *memoryRecord) memory.Memory {
	m := memory.Memory{
		ID:        rec.id,
		Text:      rec.text,
		Date:      rec.date,
		Emotion:   rec.emotion,
		UserID:    rec.userID,
		CreatedAt: rec.createdAt,
		Photos:    append([]memory.Photo(nil), rec.photos...),
	}
	for _, pid := range rec.people {
		p := s.people[pid]
		m.People = append(m.People, memory.Person{ID: p.id, Name: p.name, Relationship: p.label})
	}
	for _, pid := range rec.places {
		p := s.places[pid]
		m.Places = append(m.Places, memory.Place{ID: p.id, Name: p.name, Type: p.label})
	}
	for _, lid := range rec.links {
		if _, ok := s.memories[lid]; ok {
			m.LinkedMemories = append(m.LinkedMemories, lid)
		}
	}
	m.EnsureSlices()
	return m
}

func without(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
