// Package stats derives aggregate figures from a user's memory list. Every
// function is pure and recomputes from the list it is given.
package stats

import (
	"sort"

	"memory-graph/backend/internal/memory"
)

// Summary holds the headline numbers of a journal
type Summary struct {
	TotalMemories     int            `json:"totalMemories"`
	TotalPeople       int            `json:"totalPeople"`
	TotalPlaces       int            `json:"totalPlaces"`
	MostCommonEmotion memory.Emotion `json:"mostCommonEmotion"`
}

// Frequency is the number of memories referencing a name
type Frequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summarize computes the summary of memories
func Summarize(memories []memory.Memory) Summary {
	return Summary{
		TotalMemories:     len(memories),
		TotalPeople:       len(PeopleFrequency(memories)),
		TotalPlaces:       len(PlacesFrequency(memories)),
		MostCommonEmotion: MostCommonEmotion(memories),
	}
}

// MostCommonEmotion returns the emotion tagged most often. On a tie the
// emotion that first appears in list order wins; an empty list yields neutral.
func MostCommonEmotion(memories []memory.Memory) memory.Emotion {
	counts := make(map[memory.Emotion]int)
	var order []memory.Emotion
	for _, m := range memories {
		if counts[m.Emotion] == 0 {
			order = append(order, m.Emotion)
		}
		counts[m.Emotion]++
	}

	best := memory.EmotionNeutral
	bestCount := 0
	for _, e := range order {
		if counts[e] > bestCount {
			best, bestCount = e, counts[e]
		}
	}
	return best
}

// PeopleFrequency counts, for every distinct person name, the memories that
// reference it. Sorted by count descending, then name ascending.
func PeopleFrequency(memories []memory.Memory) []Frequency {
	return frequency(memories, func(m *memory.Memory) []string { return m.PersonNames() })
}

// PlacesFrequency is PeopleFrequency for place names
func PlacesFrequency(memories []memory.Memory) []Frequency {
	return frequency(memories, func(m *memory.Memory) []string { return m.PlaceNames() })
}

func frequency(memories []memory.Memory, names func(*memory.Memory) []string) []Frequency {
	counts := make(map[string]int)
	for i := range memories {
		// a name counts once per memory
		seen := make(map[string]bool)
		for _, name := range names(&memories[i]) {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			counts[name]++
		}
	}

	out := make([]Frequency, 0, len(counts))
	for name, count := range counts {
		out = append(out, Frequency{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// EmotionCount is the number of memories tagged with an emotion
type EmotionCount struct {
	Emotion memory.Emotion `json:"emotion"`
	Count   int            `json:"count"`
}

// EmotionBreakdown counts memories per canonical emotion, in canonical order,
// including emotions with a zero count
func EmotionBreakdown(memories []memory.Memory) []EmotionCount {
	counts := make(map[memory.Emotion]int, len(memory.Emotions))
	for _, m := range memories {
		counts[m.Emotion]++
	}
	out := make([]EmotionCount, len(memory.Emotions))
	for i, e := range memory.Emotions {
		out[i] = EmotionCount{Emotion: e, Count: counts[e]}
	}
	return out
}
