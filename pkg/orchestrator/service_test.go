package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/classify"
	"github.com/forgeloop/toolwright/pkg/conversation"
	"github.com/forgeloop/toolwright/pkg/generator"
	"github.com/forgeloop/toolwright/pkg/memory"
	"github.com/forgeloop/toolwright/pkg/registry"
	"github.com/forgeloop/toolwright/pkg/store"
)

type stubClassifier struct {
	result classify.Classification
	err    error
}

func (s stubClassifier) Classify(context.Context, string) (classify.Classification, error) {
	return s.result, s.err
}

// failingRouter errors whenever the prompt contains the trigger string.
type failingRouter struct {
	trigger string
}

func (r failingRouter) RouteToAgents(_ context.Context, prompt string, _ []build.AgentRole, _, _ string) (string, error) {
	if r.trigger != "" && strings.Contains(prompt, r.trigger) {
		return "", errors.New("agent platform unavailable")
	}
	return "ok", nil
}

type harness struct {
	service   *Service
	contexts  *conversation.Manager
	memories  *memory.Store
	publisher *registry.Publisher
	docs      store.Store
}

func newHarness(t *testing.T, cls classify.Classifier, router AgentRouter) *harness {
	t.Helper()
	docs := store.NewMemStore()
	memories := memory.NewStore(docs, nil)
	contexts := conversation.NewManager(memories, nil)
	publisher := registry.NewPublisher(docs, nil)
	gen, err := generator.New("test-author", nil)
	require.NoError(t, err)

	machine, err := NewMachine(gen, publisher, router, memories, contexts, docs, 3, nil)
	require.NoError(t, err)

	// A deterministic advancing clock keeps ids and build times stable.
	// Guarded so tests may run builds concurrently.
	var clockMu sync.Mutex
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	machine.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	service := NewService(contexts, cls, machine, nil)
	service.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clock
	}
	return &harness{
		service:   service,
		contexts:  contexts,
		memories:  memories,
		publisher: publisher,
		docs:      docs,
	}
}

func buildClassification(category build.Category, complexity build.Complexity) classify.Classification {
	return classify.Classification{
		IsToolRequest: true,
		Request: &build.ToolBuildRequest{
			Name:         "Test Tool",
			Description:  "a test tool",
			Category:     category,
			Complexity:   complexity,
			Requirements: []string{"do the thing"},
			Confidence:   0.7,
		},
	}
}

func TestNonBuildUtteranceCreatesNoSession(t *testing.T) {
	h := newHarness(t, classify.NewHeuristic(), nil)

	reply := h.service.HandleUtterance(context.Background(), "user-1", "sess-1", "hello there")

	assert.Nil(t, reply.Session)
	assert.NotEmpty(t, reply.Text)
	assert.NotEmpty(t, reply.AlternativeActions)

	cc := h.contexts.GetOrCreate(context.Background(), "user-1", "sess-1")
	assert.Len(t, cc.Messages, 1, "transcript grows by exactly one message")
	assert.Empty(t, cc.Sessions)
}

func TestClassifierErrorFallsBackToConversation(t *testing.T) {
	h := newHarness(t, stubClassifier{err: errors.New("classifier down")}, nil)

	reply := h.service.HandleUtterance(context.Background(), "user-1", "sess-1", "build me a thing")

	assert.Nil(t, reply.Session)
	cc := h.contexts.GetOrCreate(context.Background(), "user-1", "sess-1")
	assert.Len(t, cc.Messages, 1)
	assert.Empty(t, cc.Sessions)
}

func TestTrackerSimpleScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubClassifier{result: buildClassification(build.CategoryTracker, build.ComplexitySimple)}, nil)

	reply := h.service.HandleUtterance(ctx, "user-1", "sess-1", "build me a simple habit tracker")

	sess := reply.Session
	require.NotNil(t, sess)
	assert.Equal(t, build.StatusComplete, sess.Status)
	assert.Equal(t, 100, sess.Progress)

	// Simple tier skips the testing phase entirely.
	for _, entry := range sess.Logs {
		assert.NotEqual(t, "testing", entry.Phase)
	}

	repo := sess.Repository
	require.NotNil(t, repo)
	assert.Contains(t, repo.Files["index.html"], "new Date().toISOString()")
	assert.Contains(t, repo.Files["index.html"], "count: entries.length")

	reg, err := h.publisher.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", reg.Owner)

	mem := h.memories.LoadMemory(ctx, "user-1")
	require.Len(t, mem.Tools, 1)
	assert.Equal(t, repo.ID, mem.Tools[0].ToolID)

	cc := h.contexts.GetOrCreate(ctx, "user-1", "sess-1")
	assert.Len(t, cc.Messages, 1)
	require.NotNil(t, cc.Messages[0].Meta)
	assert.True(t, cc.Messages[0].Meta.Request.Enriched)
}

func TestMediumTierRunsTestingPhase(t *testing.T) {
	h := newHarness(t, stubClassifier{result: buildClassification(build.CategoryConverter, build.ComplexityMedium)}, nil)

	reply := h.service.HandleUtterance(context.Background(), "user-1", "sess-1", "build a converter")

	require.NotNil(t, reply.Session)
	assert.Equal(t, build.StatusComplete, reply.Session.Status)
	found := false
	for _, entry := range reply.Session.Logs {
		if entry.Phase == "testing" {
			found = true
		}
	}
	assert.True(t, found, "medium tier must run the testing phase")
}

func TestBuildingFailureScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t,
		stubClassifier{result: buildClassification(build.CategoryTracker, build.ComplexityMedium)},
		failingRouter{trigger: "Review"})

	reply := h.service.HandleUtterance(ctx, "user-1", "sess-1", "build a tracker")

	sess := reply.Session
	require.NotNil(t, sess)
	assert.Equal(t, build.StatusError, sess.Status)
	assert.Less(t, sess.Progress, 100)

	var errorPhases []string
	for _, entry := range sess.Logs {
		if entry.Level == build.LogError {
			errorPhases = append(errorPhases, entry.Phase)
		}
	}
	assert.Equal(t, []string{"building"}, errorPhases)
	assert.Contains(t, reply.Text, "failed during building")

	// The partial repository is retained, but nothing was published.
	assert.NotNil(t, sess.Repository)
	regs, err := h.publisher.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)

	// The failed session is persisted for inspection.
	_, err = h.docs.Get(ctx, store.NamespaceSessions, sess.ID)
	assert.NoError(t, err)
}

func TestProgressIsMonotonicAcrossPhases(t *testing.T) {
	h := newHarness(t, stubClassifier{result: buildClassification(build.CategoryDashboard, build.ComplexityComplex)}, nil)

	reply := h.service.HandleUtterance(context.Background(), "user-1", "sess-1", "build a dashboard")

	sess := reply.Session
	require.NotNil(t, sess)
	assert.Equal(t, 100, sess.Progress)

	// Complex tier carries QA and ops roles.
	assert.Contains(t, sess.Agents, build.RoleQA)
	assert.Contains(t, sess.Agents, build.RoleOps)

	sess.SetProgress(50)
	assert.Equal(t, 100, sess.Progress, "progress never decreases")
}

func TestCompletionFailureEndsBelowFullProgress(t *testing.T) {
	ctx := context.Background()
	docs := &store.FaultyStore{
		Inner:   store.NewMemStore(),
		FailSet: map[string]error{store.NamespaceMemory: errors.New("disk full")},
	}
	memories := memory.NewStore(docs, nil)
	contexts := conversation.NewManager(memories, nil)
	publisher := registry.NewPublisher(docs, nil)
	gen, err := generator.New("test-author", nil)
	require.NoError(t, err)
	machine, err := NewMachine(gen, publisher, nil, memories, contexts, docs, 3, nil)
	require.NoError(t, err)
	service := NewService(contexts,
		stubClassifier{result: buildClassification(build.CategoryTracker, build.ComplexitySimple)}, machine, nil)

	reply := service.HandleUtterance(ctx, "user-1", "sess-1", "build a tracker")

	sess := reply.Session
	require.NotNil(t, sess)
	assert.Equal(t, build.StatusError, sess.Status)
	assert.Less(t, sess.Progress, 100, "a failed session never reports full progress")
	assert.Contains(t, reply.Text, "failed during complete")

	// The memory write never landed, so no build outcome is visible.
	mem := memories.LoadMemory(ctx, "user-1")
	assert.Empty(t, mem.Tools)
}

func TestConcurrentSessionsForOneUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubClassifier{result: buildClassification(build.CategoryTracker, build.ComplexitySimple)}, nil)

	const sessions = 8
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		sessionID := fmt.Sprintf("sess-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply := h.service.HandleUtterance(ctx, "user-1", sessionID, "build a tracker")
			if reply.Session == nil || reply.Session.Status != build.StatusComplete {
				t.Errorf("session %s did not complete: %+v", sessionID, reply.Session)
			}
		}()
	}
	wg.Wait()

	mem := h.memories.LoadMemory(ctx, "user-1")
	assert.Len(t, mem.Tools, sessions)
}

func TestConsecutiveBuildsFoldIntoPattern(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubClassifier{result: buildClassification(build.CategoryCalculator, build.ComplexitySimple)}, nil)

	first := h.service.HandleUtterance(ctx, "user-1", "sess-1", "build a calculator")
	require.Equal(t, build.StatusComplete, first.Session.Status)
	second := h.service.HandleUtterance(ctx, "user-1", "sess-1", "build another calculator")
	require.Equal(t, build.StatusComplete, second.Session.Status)

	mem := h.memories.LoadMemory(ctx, "user-1")
	pattern, ok := mem.Pattern(memory.PatternKey(build.CategoryCalculator, build.ComplexitySimple))
	require.True(t, ok)
	assert.Equal(t, 2, pattern.Samples)
	assert.Equal(t, 1.0, pattern.SuccessRate)

	want := (mem.Tools[0].Metrics.BuildTimeSeconds + mem.Tools[1].Metrics.BuildTimeSeconds) / 2
	assert.InDelta(t, want, pattern.AvgBuildTimeSeconds, 1e-9)

	// The second build gains a same-category relationship and an enrichment
	// confidence boost over the first.
	require.Len(t, mem.Relationships, 1)
	assert.Equal(t, mem.Tools[1].ToolID, mem.Relationships[0].FromToolID)
	assert.Greater(t, second.Session.Request.Confidence, first.Session.Request.Confidence)
}

func TestRenderReplyIncludesAlternatives(t *testing.T) {
	text := renderReply(Reply{Text: "hi", AlternativeActions: []string{"list my tools"}})
	assert.Contains(t, text, "hi")
	assert.Contains(t, text, "- list my tools")
	assert.Equal(t, "hi", renderReply(Reply{Text: "hi"}))
}
