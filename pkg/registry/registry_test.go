package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/store"
)

func testRepo(id string) *build.ToolRepository {
	return &build.ToolRepository{
		ID:          id,
		Name:        "Expense Tracker",
		Description: "track expenses",
		Category:    build.CategoryTracker,
		Files:       build.ToolFileStructure{"index.html": "<html></html>"},
		Metadata: build.ToolMetadata{
			Version:    "1.0.0",
			Category:   build.CategoryTracker,
			Complexity: build.ComplexitySimple,
		},
	}
}

func TestPublishAndGet(t *testing.T) {
	ctx := context.Background()
	pub := NewPublisher(store.NewMemStore(), nil)

	if err := pub.Publish(ctx, testRepo("tracker-1"), "user-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	reg, err := pub.Get(ctx, "tracker-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reg.Owner != "user-1" || !reg.Active {
		t.Fatalf("unexpected registration: %+v", reg)
	}
	if reg.Category != build.CategoryTracker {
		t.Fatalf("category = %s", reg.Category)
	}
	if reg.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestPublishFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	faulty := &store.FaultyStore{
		Inner:   store.NewMemStore(),
		FailSet: map[string]error{store.NamespaceRegistry: boom},
	}
	pub := NewPublisher(faulty, nil)

	err := pub.Publish(ctx, testRepo("tracker-2"), "user-1")
	if !errors.Is(err, boom) {
		t.Fatalf("publish error = %v, want wrapped %v", err, boom)
	}
}

func TestListAndDeactivate(t *testing.T) {
	ctx := context.Background()
	pub := NewPublisher(store.NewMemStore(), nil)
	pub.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	for _, id := range []string{"a-1", "b-2"} {
		if err := pub.Publish(ctx, testRepo(id), "user-1"); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	regs, err := pub.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("list returned %d registrations, want 2", len(regs))
	}

	if err := pub.Deactivate(ctx, "a-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	reg, err := pub.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("get after deactivate: %v", err)
	}
	if reg.Active {
		t.Fatal("registration still active after deactivate")
	}
}

func TestPruneInactive(t *testing.T) {
	ctx := context.Background()
	pub := NewPublisher(store.NewMemStore(), nil)

	for _, id := range []string{"keep-1", "drop-2", "drop-3"} {
		if err := pub.Publish(ctx, testRepo(id), "user-1"); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	for _, id := range []string{"drop-2", "drop-3"} {
		if err := pub.Deactivate(ctx, id); err != nil {
			t.Fatalf("deactivate %s: %v", id, err)
		}
	}

	pruned, err := pub.PruneInactive(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("pruned = %d, want 2", pruned)
	}
	regs, err := pub.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 1 || regs[0].ID != "keep-1" {
		t.Fatalf("unexpected survivors: %+v", regs)
	}
}

func TestGetMissing(t *testing.T) {
	pub := NewPublisher(store.NewMemStore(), nil)
	if _, err := pub.Get(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
