package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"memory-graph/backend/internal/constants"
	"memory-graph/backend/internal/layout"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/stats"
	"memory-graph/backend/internal/utils"
	apperrors "memory-graph/backend/pkg/errors"
)

// Recorder receives operation outcomes. *metrics.Collector implements it.
type Recorder interface {
	RecordOperation(operation string, duration time.Duration, err error)
	RecordGraph(nodes int)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, time.Duration, error) {}
func (nopRecorder) RecordGraph(int)                              {}

// Overview is the aggregate view of a user's journal
type Overview struct {
	Stats           stats.Summary        `json:"stats"`
	PeopleFrequency []stats.Frequency    `json:"peopleFrequency"`
	PlacesFrequency []stats.Frequency    `json:"placesFrequency"`
	Emotions        []stats.EmotionCount `json:"emotions"`
}

// MemoryService validates requests and runs them against a memory.Store.
// Every mutation returns the memory as re-read from the store.
type MemoryService struct {
	store    memory.Store
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// NewMemoryService creates a new memory service. recorder may be nil.
func NewMemoryService(store memory.Store, logger *zap.Logger, recorder Recorder) *MemoryService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &MemoryService{
		store:    store,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Create validates and persists a new memory
func (s *MemoryService) Create(ctx context.Context, in memory.CreateInput) (m *memory.Memory, err error) {
	defer s.observe("create", time.Now(), &err)

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, in, s.now().UTC())
	if err != nil {
		s.logger.Error("Failed to create memory", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}

	m, err = s.store.Get(ctx, id, in.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Memory created",
		zap.String("memory_id", id),
		zap.String("user_id", in.UserID),
		zap.String("emotion", string(m.Emotion)),
		zap.Int("links", len(m.LinkedMemories)),
	)
	return m, nil
}

// FindAll returns every memory of the user ordered by creation time
func (s *MemoryService) FindAll(ctx context.Context, userID string) (list []memory.Memory, err error) {
	defer s.observe("find_all", time.Now(), &err)

	return s.list(ctx, userID)
}

// FindOne returns one memory of the user
func (s *MemoryService) FindOne(ctx context.Context, id, userID string) (m *memory.Memory, err error) {
	defer s.observe("find_one", time.Now(), &err)

	if err := requireIDs(id, userID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id, userID)
}

// Update applies a partial update and returns the resulting memory
func (s *MemoryService) Update(ctx context.Context, id, userID string, in memory.UpdateInput) (m *memory.Memory, err error) {
	defer s.observe("update", time.Now(), &err)

	if err := requireIDs(id, userID); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Empty() {
		return s.store.Get(ctx, id, userID)
	}
	if err := s.store.Update(ctx, id, userID, in); err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to update memory",
				zap.String("memory_id", id),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Debug("Memory updated", zap.String("memory_id", id), zap.String("user_id", userID))
	return s.store.Get(ctx, id, userID)
}

// Remove deletes a memory and its relationships
func (s *MemoryService) Remove(ctx context.Context, id, userID string) (res *memory.DeleteResult, err error) {
	defer s.observe("remove", time.Now(), &err)

	if err := requireIDs(id, userID); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		return nil, err
	}

	s.logger.Info("Memory removed", zap.String("memory_id", id), zap.String("user_id", userID))
	return &memory.DeleteResult{Message: constants.DeleteConfirmation}, nil
}

// Link adds targetID to the links of memory id. Both memories must belong to userID.
func (s *MemoryService) Link(ctx context.Context, id, targetID, userID string) (m *memory.Memory, err error) {
	defer s.observe("link", time.Now(), &err)

	targetID = strings.TrimSpace(targetID)
	if err := requireIDs(id, userID); err != nil {
		return nil, err
	}
	if targetID == "" {
		return nil, apperrors.NewValidationFailed("targetId is required")
	}
	if targetID == id {
		return nil, apperrors.NewValidationFailed("a memory cannot be linked to itself")
	}

	current, err := s.store.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, targetID, userID); err != nil {
		return nil, err
	}

	links := utils.UniqueStrings(append(append([]string{}, current.LinkedMemories...), targetID))
	if err := s.store.Update(ctx, id, userID, memory.UpdateInput{LinkedMemories: &links}); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id, userID)
}

// Timeline returns the memories with a parseable date, newest date first.
// Memories sharing a date keep their creation order.
func (s *MemoryService) Timeline(ctx context.Context, userID string) (list []memory.Memory, err error) {
	defer s.observe("timeline", time.Now(), &err)

	all, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}

	type dated struct {
		m memory.Memory
		t time.Time
	}
	entries := make([]dated, 0, len(all))
	for _, m := range all {
		if t, ok := utils.ParseMemoryDate(m.Date); ok {
			entries = append(entries, dated{m, t})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].t.After(entries[j].t)
	})

	list = make([]memory.Memory, len(entries))
	for i, e := range entries {
		list[i] = e.m
	}
	return list, nil
}

// Overview computes statistics over the user's memories
func (s *MemoryService) Overview(ctx context.Context, userID string) (o *Overview, err error) {
	defer s.observe("overview", time.Now(), &err)

	all, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Stats:           stats.Summarize(all),
		PeopleFrequency: stats.PeopleFrequency(all),
		PlacesFrequency: stats.PlacesFrequency(all),
		Emotions:        stats.EmotionBreakdown(all),
	}, nil
}

// Graph lays out the user's memories on a canvas at the given zoom
func (s *MemoryService) Graph(ctx context.Context, userID string, zoom float64) (g *layout.Graph, err error) {
	defer s.observe("graph", time.Now(), &err)

	all, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	graph := layout.Build(all, layout.NewCanvas(zoom), layout.DefaultOptions())
	s.recorder.RecordGraph(len(graph.Nodes))
	return &graph, nil
}

// Ping reports whether the store is reachable
func (s *MemoryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *MemoryService) list(ctx context.Context, userID string) ([]memory.Memory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []memory.Memory{}
	}
	return list, nil
}

func (s *MemoryService) observe(operation string, start time.Time, err *error) {
	s.recorder.RecordOperation(operation, time.Since(start), *err)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewValidationFailed("userId is required")
	}
	return nil
}

func requireIDs(id, userID string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationFailed("id is required")
	}
	return requireUser(userID)
}
