// Package registry records completed artifacts so they become discoverable
// outside the orchestrator. Publication is a single document write; the
// orchestrator treats a failed write as fatal to the deploying phase.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/store"
)

// Registration is the discoverable record for one published tool.
type Registration struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    build.Category     `json:"category"`
	Owner       string             `json:"owner"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	Metadata    build.ToolMetadata `json:"metadata"`
}

// Publisher writes registrations into the registry namespace.
type Publisher struct {
	docs store.Store
	log  *zap.Logger
	now  func() time.Time
}

func NewPublisher(docs store.Store, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{docs: docs, log: log, now: time.Now}
}

// Publish records a completed artifact under its repository id.
func (p *Publisher) Publish(ctx context.Context, repo *build.ToolRepository, owner string) error {
	reg := Registration{
		ID:          repo.ID,
		Name:        repo.Name,
		Description: repo.Description,
		Category:    repo.Category,
		Owner:       owner,
		Active:      true,
		CreatedAt:   p.now().UTC(),
		Metadata:    repo.Metadata,
	}
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration %s: %w", repo.ID, err)
	}
	if err := p.docs.Set(ctx, store.NamespaceRegistry, repo.ID, raw); err != nil {
		return fmt.Errorf("publish registration %s: %w", repo.ID, err)
	}
	p.log.Info("published tool",
		zap.String("id", repo.ID),
		zap.String("owner", owner),
		zap.String("category", string(repo.Category)))
	return nil
}

// Get loads one registration by id.
func (p *Publisher) Get(ctx context.Context, id string) (*Registration, error) {
	raw, err := p.docs.Get(ctx, store.NamespaceRegistry, id)
	if err != nil {
		return nil, fmt.Errorf("get registration %s: %w", id, err)
	}
	var reg Registration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("decode registration %s: %w", id, err)
	}
	return &reg, nil
}

// List returns all registrations, most recently written first.
func (p *Publisher) List(ctx context.Context) ([]Registration, error) {
	records, err := p.docs.List(ctx, store.NamespaceRegistry)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	out := make([]Registration, 0, len(records))
	for _, rec := range records {
		var reg Registration
		if err := json.Unmarshal(rec.Value, &reg); err != nil {
			p.log.Warn("skipping undecodable registration", zap.String("key", rec.Key), zap.Error(err))
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}

// PruneInactive deletes registrations previously marked inactive and
// returns how many were removed. The periodic registry sweep calls this.
func (p *Publisher) PruneInactive(ctx context.Context) (int, error) {
	regs, err := p.List(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, reg := range regs {
		if reg.Active {
			continue
		}
		if err := p.docs.Delete(ctx, store.NamespaceRegistry, reg.ID); err != nil {
			return pruned, fmt.Errorf("prune registration %s: %w", reg.ID, err)
		}
		pruned++
	}
	return pruned, nil
}

// Deactivate marks a registration inactive without deleting its record.
func (p *Publisher) Deactivate(ctx context.Context, id string) error {
	reg, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	reg.Active = false
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration %s: %w", id, err)
	}
	if err := p.docs.Set(ctx, store.NamespaceRegistry, id, raw); err != nil {
		return fmt.Errorf("deactivate registration %s: %w", id, err)
	}
	return nil
}
