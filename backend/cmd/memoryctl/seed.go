package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/services"
	apperrors "memory-graph/backend/pkg/errors"
)

type sampleMemory struct {
	text    string
	date    string
	emotion memory.Emotion
	people  []memory.PersonInput
	places  []memory.PlaceInput
	photos  []memory.Photo
	links   []int // indexes of earlier samples
}

var sampleJournal = []sampleMemory{
	{
		text:    "Moved into the new apartment. Boxes everywhere but the light in the kitchen is perfect.",
		date:    "2023-09-02",
		emotion: memory.EmotionJoy,
		people:  []memory.PersonInput{{Name: "Sam", Relationship: "partner"}},
		places:  []memory.PlaceInput{{Name: "Home", Type: "apartment"}},
	},
	{
		text:    "Grandma's birthday dinner. She told the story about the lake house again.",
		date:    "2023-10-14",
		emotion: memory.EmotionLove,
		people: []memory.PersonInput{
			{Name: "Grandma", Relationship: "family"},
			{Name: "Sam", Relationship: "partner"},
		},
		places: []memory.PlaceInput{{Name: "Rosa's Trattoria", Type: "restaurant"}},
		photos: []memory.Photo{{URL: "https://images.example.com/seed/birthday-cake.jpg", Caption: "Ninety candles"}},
	},
	{
		text:    "Missed the last train home and walked for an hour in the rain.",
		date:    "2023-11-20T23:40:00Z",
		emotion: memory.EmotionSadness,
		places:  []memory.PlaceInput{{Name: "Central Station", Type: "transit"}},
	},
	{
		text:    "Surprise party for Sam. They had no idea.",
		date:    "2024-02-10",
		emotion: memory.EmotionSurprise,
		people: []memory.PersonInput{
			{Name: "Sam", Relationship: "partner"},
			{Name: "Priya", Relationship: "friend"},
		},
		places: []memory.PlaceInput{{Name: "Home", Type: "apartment"}},
		links:  []int{0},
	},
	{
		text:    "Hiked to the lake house Grandma always talks about.",
		date:    "2024-05-18",
		emotion: memory.EmotionJoy,
		people:  []memory.PersonInput{{Name: "Priya", Relationship: "friend"}},
		places:  []memory.PlaceInput{{Name: "Lake House", Type: "outdoors"}},
		photos: []memory.Photo{
			{URL: "https://images.example.com/seed/lake.jpg", Caption: "Still water"},
			{URL: "https://images.example.com/seed/trail.jpg"},
		},
		links: []int{1},
	},
}

// seedJournal writes the sample journal for userID through the service and
// returns the created memories in order
func seedJournal(ctx context.Context, svc *services.MemoryService, userID string, log *zap.Logger) ([]*memory.Memory, error) {
	created := make([]*memory.Memory, 0, len(sampleJournal))
	for i, s := range sampleJournal {
		in := memory.CreateInput{
			Text:    s.text,
			Date:    s.date,
			Emotion: s.emotion,
			UserID:  userID,
			People:  s.people,
			Places:  s.places,
			Photos:  s.photos,
		}
		for _, idx := range s.links {
			if idx < len(created) {
				in.LinkedMemories = append(in.LinkedMemories, created[idx].ID)
			}
		}

		m, err := svc.Create(ctx, in)
		if apperrors.IsRetryable(err) {
			// a failed create rolls back whole, so one more attempt is safe
			log.Warn("Retrying seed memory", zap.Int("index", i+1), zap.Error(err))
			m, err = svc.Create(ctx, in)
		}
		if err != nil {
			return created, fmt.Errorf("seed memory %d: %w", i+1, err)
		}
		log.Info("Seeded memory",
			zap.Int("index", i+1),
			zap.String("memory_id", m.ID),
			zap.String("emotion", string(m.Emotion)),
		)
		created = append(created, m)
	}
	return created, nil
}

// purgeUser removes every memory of userID and returns how many were deleted
func purgeUser(ctx context.Context, svc *services.MemoryService, userID string) (int, error) {
	all, err := svc.FindAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range all {
		if _, err := svc.Remove(ctx, m.ID, userID); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func printOverview(w io.Writer, userID string, o *services.Overview) {
	fmt.Fprintf(w, "Journal of %s\n", userID)
	fmt.Fprintf(w, "  Memories: %d\n", o.Stats.TotalMemories)
	fmt.Fprintf(w, "  People:   %d\n", o.Stats.TotalPeople)
	fmt.Fprintf(w, "  Places:   %d\n", o.Stats.TotalPlaces)
	fmt.Fprintf(w, "  Mood:     %s\n", o.Stats.MostCommonEmotion)

	if len(o.PeopleFrequency) > 0 {
		fmt.Fprintln(w, "Top people:")
		for _, f := range o.PeopleFrequency {
			fmt.Fprintf(w, "  %-20s %d\n", f.Name, f.Count)
		}
	}
	if len(o.PlacesFrequency) > 0 {
		fmt.Fprintln(w, "Top places:")
		for _, f := range o.PlacesFrequency {
			fmt.Fprintf(w, "  %-20s %d\n", f.Name, f.Count)
		}
	}

	var parts []string
	for _, e := range o.Emotions {
		if e.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", e.Emotion, e.Count))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "Emotions: %s\n", strings.Join(parts, " "))
	}
}
