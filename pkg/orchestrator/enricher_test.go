package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/memory"
)

func seededMemory() *memory.PersistentMemory {
	mem := memory.EmptyMemory("user-1")
	mem.Tools = []memory.ToolMemory{
		{
			ToolID:       "tracker-100",
			Name:         "Budget Tracker",
			Category:     build.CategoryTracker,
			Technologies: []string{"javascript"},
			Improvements: []string{"add export to csv"},
		},
		{
			ToolID:       "calc-200",
			Name:         "Tip Calculator",
			Category:     build.CategoryCalculator,
			Technologies: []string{"javascript"},
		},
	}
	mem.Patterns = []memory.PatternMemory{
		{
			Key:                memory.PatternKey(build.CategoryTracker, build.ComplexitySimple),
			Samples:            3,
			SuccessRate:        1,
			CommonRequirements: []string{"persist entries locally"},
		},
	}
	return mem
}

func trackerRequest() build.ToolBuildRequest {
	return build.ToolBuildRequest{
		Name:         "Habit Tracker",
		Description:  "track habits",
		Category:     build.CategoryTracker,
		Complexity:   build.ComplexitySimple,
		Technologies: []string{"javascript"},
		Requirements: []string{"track daily habits"},
		Confidence:   0.6,
	}
}

func TestEnhanceIsAdditive(t *testing.T) {
	req := trackerRequest()
	prefs := memory.DefaultPreferences("user-1")
	prefs.PreferredTechnologies = []string{"chart.js", "javascript"}

	enriched := Enhance(req, seededMemory(), prefs)

	// Superset property: nothing the user stated may disappear.
	for _, tech := range req.Technologies {
		assert.Contains(t, enriched.Technologies, tech)
	}
	for _, requirement := range req.Requirements {
		assert.Contains(t, enriched.Requirements, requirement)
	}

	assert.Contains(t, enriched.Technologies, "chart.js")
	assert.NotEqual(t, []string{"javascript", "chart.js", "javascript"}, enriched.Technologies,
		"preferred technologies must not duplicate existing ones")
	assert.Contains(t, enriched.Requirements, "persist entries locally")
	assert.Contains(t, enriched.Requirements, "add export to csv")
}

func TestEnhanceConfidenceBoost(t *testing.T) {
	// Both seeded tools match: one by category, one by technology overlap.
	enriched := Enhance(trackerRequest(), seededMemory(), memory.DefaultPreferences("user-1"))
	assert.InDelta(t, 0.8, enriched.Confidence, 1e-9)

	high := trackerRequest()
	high.Confidence = 0.95
	enriched = Enhance(high, seededMemory(), memory.DefaultPreferences("user-1"))
	assert.Equal(t, 1.0, enriched.Confidence, "confidence is capped at 1.0")
}

func TestEnhanceIsIdempotent(t *testing.T) {
	mem := seededMemory()
	prefs := memory.DefaultPreferences("user-1")
	prefs.PreferredTechnologies = []string{"chart.js"}

	once := Enhance(trackerRequest(), mem, prefs)
	twice := Enhance(once, mem, prefs)

	assert.Equal(t, once.Technologies, twice.Technologies)
	assert.Equal(t, once.Requirements, twice.Requirements)
	assert.Equal(t, once.Confidence, twice.Confidence)
}

func TestEnhanceWithEmptyMemory(t *testing.T) {
	req := trackerRequest()
	enriched := Enhance(req, memory.EmptyMemory("user-1"), memory.DefaultPreferences("user-1"))
	assert.Equal(t, req.Confidence, enriched.Confidence)
	assert.Equal(t, req.Technologies, enriched.Technologies)
	assert.True(t, enriched.Enriched)
}

func TestEnhanceDoesNotAliasInput(t *testing.T) {
	req := trackerRequest()
	enriched := Enhance(req, seededMemory(), memory.DefaultPreferences("user-1"))
	enriched.Requirements[0] = "mutated"
	assert.Equal(t, "track daily habits", req.Requirements[0])
}

func TestSimilarToolsMatchesCategoryOrTechnology(t *testing.T) {
	mem := seededMemory()
	similar := SimilarTools(mem, trackerRequest(), 3)
	assert.Len(t, similar, 2)
	// Most recent first.
	assert.Equal(t, "calc-200", similar[0].ToolID)

	similar = SimilarTools(mem, build.ToolBuildRequest{Category: build.CategoryScraper}, 3)
	assert.Empty(t, similar)
}
