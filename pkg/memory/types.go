// Package memory holds a user's long-lived build history: past tools,
// category patterns, interaction audit, learned preferences, and tool
// relationships. Memory only grows or is statistically updated; it is never
// silently discarded.
package memory

import (
	"time"

	"github.com/forgeloop/toolwright/pkg/build"
)

// SuccessMetrics summarize one tool's observed outcomes.
type SuccessMetrics struct {
	BuildTimeSeconds float64 `json:"build_time_seconds"`
	Satisfaction     float64 `json:"satisfaction"`
	UsageFrequency   float64 `json:"usage_frequency"`
	ErrorRate        float64 `json:"error_rate"`
}

// ToolMemory is one entry per previously completed build.
type ToolMemory struct {
	ToolID             string         `json:"tool_id"`
	Name               string         `json:"name"`
	Category           build.Category `json:"category"`
	Technologies       []string       `json:"technologies"`
	Metrics            SuccessMetrics `json:"metrics"`
	ReusableComponents []string       `json:"reusable_components"`
	Improvements       []string       `json:"improvements"`
	CreatedAt          time.Time      `json:"created_at"`
}

// PatternMemory aggregates outcomes per category+complexity key.
type PatternMemory struct {
	Key                 string   `json:"key"` // "<category>:<complexity>"
	Samples             int      `json:"samples"`
	SuccessRate         float64  `json:"success_rate"`
	AvgBuildTimeSeconds float64  `json:"avg_build_time_seconds"`
	CommonRequirements  []string `json:"common_requirements"`
	BestPractices       []string `json:"best_practices"`
	Pitfalls            []string `json:"pitfalls"`
}

// PatternKey builds the canonical PatternMemory key.
func PatternKey(category build.Category, complexity build.Complexity) string {
	return string(category) + ":" + string(complexity)
}

// InteractionMemory is one raw request/outcome audit entry.
type InteractionMemory struct {
	Request   string    `json:"request"`
	Outcome   string    `json:"outcome"`
	Feedback  string    `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LearnedPreference records an inferred preference with confidence.
type LearnedPreference struct {
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ToolRelationship links two tools by kind and strength.
type ToolRelationship struct {
	FromToolID string  `json:"from_tool_id"`
	ToToolID   string  `json:"to_tool_id"`
	Kind       string  `json:"kind"`
	Strength   float64 `json:"strength"`
}

// PersistentMemory is the per-user aggregate persisted as a whole document.
type PersistentMemory struct {
	UserID        string              `json:"user_id"`
	Tools         []ToolMemory        `json:"tools"`
	Patterns      []PatternMemory     `json:"patterns"`
	Interactions  []InteractionMemory `json:"interactions"`
	Preferences   []LearnedPreference `json:"preferences"`
	Relationships []ToolRelationship  `json:"relationships"`
}

// EmptyMemory is the documented fallback when no memory document exists or a
// load fails.
func EmptyMemory(userID string) *PersistentMemory {
	return &PersistentMemory{
		UserID:        userID,
		Tools:         []ToolMemory{},
		Patterns:      []PatternMemory{},
		Interactions:  []InteractionMemory{},
		Preferences:   []LearnedPreference{},
		Relationships: []ToolRelationship{},
	}
}

// Pattern returns the PatternMemory for key, if present.
func (m *PersistentMemory) Pattern(key string) (PatternMemory, bool) {
	for _, p := range m.Patterns {
		if p.Key == key {
			return p, true
		}
	}
	return PatternMemory{}, false
}
