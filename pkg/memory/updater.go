package memory

import (
	"context"
	"strings"
	"time"

	"github.com/forgeloop/toolwright/pkg/build"
)

// DefaultSatisfaction is the satisfaction score recorded for a fresh build
// until real feedback arrives. The constant carries no product meaning; it is
// the placeholder the scoring model was seeded with.
const DefaultSatisfaction = 8.0

// commonRequirementCap bounds how many requirements a pattern accumulates.
const commonRequirementCap = 12

// RecordBuildOutcome appends the ToolMemory entry for a completed session,
// folds the observation into the matching PatternMemory, and records the
// interaction. It is the single place the orchestrator mutates persistent
// memory.
func (s *Store) RecordBuildOutcome(ctx context.Context, userID string, sess *build.ToolBuildSession, completedAt time.Time) (*PersistentMemory, error) {
	repo := sess.Repository
	buildTime := completedAt.Sub(sess.StartedAt).Seconds()
	if buildTime < 0 {
		buildTime = 0
	}

	return s.Update(ctx, userID, func(mem *PersistentMemory) error {
		entry := ToolMemory{
			ToolID:             repo.ID,
			Name:               repo.Name,
			Category:           repo.Category,
			Technologies:       append([]string(nil), sess.Request.Technologies...),
			ReusableComponents: reusableComponents(repo.Files),
			Improvements:       []string{},
			CreatedAt:          completedAt,
			Metrics: SuccessMetrics{
				BuildTimeSeconds: buildTime,
				Satisfaction:     DefaultSatisfaction,
				UsageFrequency:   0,
				ErrorRate:        0,
			},
		}

		// Relate to the most recent prior tool in the same category.
		for i := len(mem.Tools) - 1; i >= 0; i-- {
			if mem.Tools[i].Category == repo.Category {
				mem.Relationships = append(mem.Relationships, ToolRelationship{
					FromToolID: repo.ID,
					ToToolID:   mem.Tools[i].ToolID,
					Kind:       "same-category",
					Strength:   0.5,
				})
				break
			}
		}

		mem.Tools = append(mem.Tools, entry)
		foldPattern(mem, sess.Request, buildTime)
		mem.Interactions = append(mem.Interactions, InteractionMemory{
			Request:   sess.Request.Description,
			Outcome:   "completed",
			Timestamp: completedAt,
		})
		return nil
	})
}

// foldPattern updates or inserts the PatternMemory for the request's
// category+complexity using running averages.
func foldPattern(mem *PersistentMemory, req build.ToolBuildRequest, buildTime float64) {
	key := PatternKey(req.Category, req.Complexity)
	for i := range mem.Patterns {
		p := &mem.Patterns[i]
		if p.Key != key {
			continue
		}
		n := float64(p.Samples)
		p.SuccessRate = (p.SuccessRate*n + 1) / (n + 1)
		p.AvgBuildTimeSeconds = (p.AvgBuildTimeSeconds*n + buildTime) / (n + 1)
		p.Samples++
		p.CommonRequirements = mergeRequirements(p.CommonRequirements, req.Requirements)
		return
	}

	mem.Patterns = append(mem.Patterns, PatternMemory{
		Key:                 key,
		Samples:             1,
		SuccessRate:         1,
		AvgBuildTimeSeconds: buildTime,
		CommonRequirements:  mergeRequirements(nil, req.Requirements),
		BestPractices:       []string{},
		Pitfalls:            []string{},
	})
}

func mergeRequirements(existing, incoming []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]struct{}, len(out))
	for _, r := range out {
		seen[strings.ToLower(r)] = struct{}{}
	}
	for _, r := range incoming {
		if len(out) >= commonRequirementCap {
			break
		}
		k := strings.ToLower(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// reusableComponents names the optional artifact sets a build produced, so
// later enrichment can surface proven building blocks.
func reusableComponents(files build.ToolFileStructure) []string {
	var out []string
	if _, ok := files["main.py"]; ok {
		out = append(out, "python-backend")
	}
	if _, ok := files["server.js"]; ok {
		out = append(out, "node-backend")
	}
	if out == nil {
		out = []string{}
	}
	return out
}
