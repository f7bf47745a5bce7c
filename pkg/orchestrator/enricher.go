package orchestrator

import (
	"strings"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/memory"
)

// enrichmentBoost is the confidence increment per matched past tool, capped
// at a final confidence of 1.0. The constant is a preserved heuristic, not a
// tuned value.
const enrichmentBoost = 0.1

// improvementNoteCap bounds how many past improvement notes enrichment adds.
const improvementNoteCap = 3

// Enhance merges a freshly classified request with the user's memory and
// preferences. It is purely additive and deterministic: nothing the user
// stated is ever removed, and identical inputs produce identical output.
// A request that was already enriched passes through unchanged.
func Enhance(req build.ToolBuildRequest, mem *memory.PersistentMemory, prefs memory.UserPreferences) build.ToolBuildRequest {
	out := req.Clone()
	if out.Enriched {
		return out
	}
	out.Enriched = true
	if mem == nil {
		return out
	}

	matched := SimilarTools(mem, req, len(mem.Tools))

	for _, tech := range prefs.PreferredTechnologies {
		out.Technologies = appendMissing(out.Technologies, tech)
	}

	for _, pattern := range mem.Patterns {
		if !strings.HasPrefix(pattern.Key, string(req.Category)+":") {
			continue
		}
		for _, requirement := range pattern.CommonRequirements {
			out.Requirements = appendMissing(out.Requirements, requirement)
		}
	}

	notes := 0
	for _, tool := range matched {
		for _, note := range tool.Improvements {
			if notes >= improvementNoteCap {
				break
			}
			before := len(out.Requirements)
			out.Requirements = appendMissing(out.Requirements, note)
			if len(out.Requirements) > before {
				notes++
			}
		}
	}

	out.Confidence += enrichmentBoost * float64(len(matched))
	if out.Confidence > 1.0 {
		out.Confidence = 1.0
	}
	return out
}

// SimilarTools returns up to n past tools whose category matches the request
// or whose technology set intersects it, most recent first.
func SimilarTools(mem *memory.PersistentMemory, req build.ToolBuildRequest, n int) []memory.ToolMemory {
	if mem == nil || n <= 0 {
		return nil
	}
	var out []memory.ToolMemory
	for i := len(mem.Tools) - 1; i >= 0 && len(out) < n; i-- {
		tool := mem.Tools[i]
		if tool.Category == req.Category || intersects(tool.Technologies, req.Technologies) {
			out = append(out, tool)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

func appendMissing(list []string, item string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, item) {
			return list
		}
	}
	return append(list, item)
}
