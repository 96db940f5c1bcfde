package memory

import "time"

// Emotion is the single feeling a memory is tagged with
type Emotion string

const (
	EmotionJoy      Emotion = "joy"
	EmotionSadness  Emotion = "sadness"
	EmotionLove     Emotion = "love"
	EmotionAnger    Emotion = "anger"
	EmotionFear     Emotion = "fear"
	EmotionSurprise Emotion = "surprise"
	EmotionDisgust  Emotion = "disgust"
	EmotionNeutral  Emotion = "neutral"
)

// Emotions lists every accepted emotion in canonical order
var Emotions = []Emotion{
	EmotionJoy,
	EmotionSadness,
	EmotionLove,
	EmotionAnger,
	EmotionFear,
	EmotionSurprise,
	EmotionDisgust,
	EmotionNeutral,
}

var emotionColors = map[Emotion]string{
	EmotionJoy:      "#FEF08A",
	EmotionSadness:  "#93C5FD",
	EmotionLove:     "#F9A8D4",
	EmotionAnger:    "#FCA5A5",
	EmotionFear:     "#C4B5FD",
	EmotionSurprise: "#FDE68A",
	EmotionDisgust:  "#86EFAC",
	EmotionNeutral:  "#D1D5DB",
}

// Valid reports whether e is one of the canonical emotions
func (e Emotion) Valid() bool {
	_, ok := emotionColors[e]
	return ok
}

// Color returns the display color for the emotion, neutral gray for unknown values
func (e Emotion) Color() string {
	if c, ok := emotionColors[e]; ok {
		return c
	}
	return emotionColors[EmotionNeutral]
}

// Memory is a single journaled entry together with its relations
type Memory struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Date           string    `json:"date"`
	Emotion        Emotion   `json:"emotion"`
	UserID         string    `json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
	People         []Person  `json:"people"`
	Places         []Place   `json:"places"`
	Photos         []Photo   `json:"photos"`
	LinkedMemories []string  `json:"linkedMemories"`
}

// Person is someone involved in a memory. Persons are merged by name per user.
type Person struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
}

// Place is where a memory occurred. Places are merged by name per user.
type Place struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Photo is a picture attached to a memory
type Photo struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption,omitempty"`
}

// DeleteResult confirms a removal
type DeleteResult struct {
	Message string `json:"message"`
}

// PersonNames returns the names of the people in m, in order
func (m *Memory) PersonNames() []string {
	names := make([]string, len(m.People))
	for i, p := range m.People {
		names[i] = p.Name
	}
	return names
}

// PlaceNames returns the names of the places in m, in order
func (m *Memory) PlaceNames() []string {
	names := make([]string, len(m.Places))
	for i, p := range m.Places {
		names[i] = p.Name
	}
	return names
}

// EnsureSlices replaces nil relation slices with empty ones so the JSON
// representation always carries arrays.
func (m *Memory) EnsureSlices() {
	if m.People == nil {
		m.People = []Person{}
	}
	if m.Places == nil {
		m.Places = []Place{}
	}
	if m.Photos == nil {
		m.Photos = []Photo{}
	}
	if m.LinkedMemories == nil {
		m.LinkedMemories = []string{}
	}
}
