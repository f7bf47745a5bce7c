package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/forgeloop/toolwright/pkg/config"
	"github.com/forgeloop/toolwright/pkg/conversation"
	"github.com/forgeloop/toolwright/pkg/memory"
	"github.com/forgeloop/toolwright/pkg/registry"
	"github.com/forgeloop/toolwright/pkg/store"
)

func testDeps() (*conversation.Manager, *registry.Publisher) {
	docs := store.NewMemStore()
	return conversation.NewManager(memory.NewStore(docs, nil), nil), registry.NewPublisher(docs, nil)
}

func TestNewRejectsInvalidExpression(t *testing.T) {
	contexts, publisher := testDeps()
	_, err := New(config.SchedulerConfig{ContextSweep: "not a cron"}, contexts, publisher, nil)
	if err == nil {
		t.Fatal("invalid cron expression accepted")
	}
}

func TestNewSkipsEmptyExpressions(t *testing.T) {
	contexts, publisher := testDeps()
	s, err := New(config.SchedulerConfig{}, contexts, publisher, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(s.jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(s.jobs))
	}
}

func TestTickRunsDueJobs(t *testing.T) {
	contexts, publisher := testDeps()
	s, err := New(config.SchedulerConfig{
		ContextSweep:      "* * * * *",
		RegistrySweep:     "0 * * * *",
		ContextTTLMinutes: 0,
	}, contexts, publisher, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(s.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(s.jobs))
	}

	// Replace the job bodies so firing is observable without real deps.
	fired := map[string]int{}
	for i := range s.jobs {
		name := s.jobs[i].name
		s.jobs[i].run = func(context.Context) { fired[name]++ }
	}

	// Mid-minute at 12:30: only the every-minute job is due. The ticker
	// never lands on second zero, so the seconds must not matter.
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 30, 37, 0, time.UTC) }
	s.tick(context.Background())
	if fired["context-sweep"] != 1 || fired["registry-sweep"] != 0 {
		t.Fatalf("fired = %v", fired)
	}

	// 13:00: both are due.
	s.now = func() time.Time { return time.Date(2025, 6, 1, 13, 0, 12, 0, time.UTC) }
	s.tick(context.Background())
	if fired["context-sweep"] != 2 || fired["registry-sweep"] != 1 {
		t.Fatalf("fired = %v", fired)
	}
}

func TestContextSweepEvictsIdle(t *testing.T) {
	contexts, publisher := testDeps()
	contexts.GetOrCreate(context.Background(), "user-1", "sess-1")

	s, err := New(config.SchedulerConfig{
		ContextSweep:      "* * * * *",
		ContextTTLMinutes: 0,
	}, contexts, publisher, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 30, 37, 0, time.UTC) }
	s.tick(context.Background())
	if contexts.Len() != 0 {
		t.Fatalf("idle context not evicted, len = %d", contexts.Len())
	}
}
