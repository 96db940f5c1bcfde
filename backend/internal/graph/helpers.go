package graph

import (
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/utils"
)

// ============================================================================
// Record Parsing
// ============================================================================

// parseMemory maps one row of memoryProjection onto a Memory
func parseMemory(record *neo4j.Record) memory.Memory {
	m := memory.Memory{
		ID:        getStringFromRecord(record, "id"),
		Text:      getStringFromRecord(record, "text"),
		Date:      getStringFromRecord(record, "date"),
		Emotion:   memory.Emotion(getStringFromRecord(record, "emotion")),
		UserID:    getStringFromRecord(record, "user_id"),
		CreatedAt: getTimeFromRecord(record, "created_at"),
	}

	urls := getStringSliceFromRecord(record, "photo_urls")
	captions := getStringSliceFromRecord(record, "photo_captions")
	for i, url := range urls {
		photo := memory.Photo{URL: url}
		if i < len(captions) {
			photo.Caption = captions[i]
		}
		m.Photos = append(m.Photos, photo)
	}

	for _, row := range orderedRows(record, "people") {
		m.People = append(m.People, memory.Person{
			ID:           getStringFromMap(row, "id", ""),
			Name:         getStringFromMap(row, "name", ""),
			Relationship: getStringFromMap(row, "label", ""),
		})
	}
	for _, row := range orderedRows(record, "places") {
		m.Places = append(m.Places, memory.Place{
			ID:   getStringFromMap(row, "id", ""),
			Name: getStringFromMap(row, "name", ""),
			Type: getStringFromMap(row, "label", ""),
		})
	}
	var links []string
	for _, row := range orderedRows(record, "links") {
		links = append(links, getStringFromMap(row, "id", ""))
	}
	m.LinkedMemories = utils.UniqueStrings(links)

	m.EnsureSlices()
	return m
}

// orderedRows returns the maps of a pattern comprehension sorted by their
// position property, dropping rows whose id repeats.
func orderedRows(record *neo4j.Record, key string) []map[string]any {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	list, ok := val.([]any)
	if !ok {
		return nil
	}

	rows := make([]map[string]any, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := getStringFromMap(row, "id", "")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return getInt64FromMap(rows[i], "position") < getInt64FromMap(rows[j], "position")
	})
	return rows
}

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	switch t := val.(type) {
	case time.Time:
		return t.UTC()
	case neo4j.LocalDateTime:
		return t.Time().UTC()
	case string:
		if parsed, ok := utils.ParseMemoryDate(t); ok {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			} else {
				result = append(result, "")
			}
		}
		return result
	}
	return []string{}
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getInt64FromMap(m map[string]interface{}, key string) int64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case float64:
		return int64(i)
	}
	return 0
}
