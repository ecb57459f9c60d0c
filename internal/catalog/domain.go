// Package catalog serves the built-in meditation sessions and the persisted
// lesson list.
package catalog

// Category IDs tracked by the progress counters.
const (
	CategorySleep         = "sleep"
	CategoryRelaxation    = "relaxation"
	CategorySelfAwareness = "selfawareness"
)

// Category groups sessions.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon" yaml:"icon"`
}

// Session is a guided meditation from the built-in catalog. Duration is in
// minutes.
type Session struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    float64  `json:"duration"`
	Category    Category `json:"category"`
	Audio       string   `json:"audio,omitempty"`
}

// Lesson is the persisted lesson record.
type Lesson struct {
	LessonID    string  `json:"lessonId"`
	LessonName  string  `json:"lessonName"`
	LessonType  string  `json:"lessonType"`
	LessonTime  float64 `json:"lessonTime"`
	LessonAudio string  `json:"lessonAudio"`
}
