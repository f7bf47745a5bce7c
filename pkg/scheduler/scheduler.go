// Package scheduler runs the orchestrator's periodic maintenance: evicting
// idle conversation contexts and pruning deactivated registry entries. Jobs
// fire on cron expressions checked once per minute.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/config"
	"github.com/forgeloop/toolwright/pkg/conversation"
	"github.com/forgeloop/toolwright/pkg/registry"
)

type job struct {
	name string
	expr string
	run  func(context.Context)
}

type Scheduler struct {
	jobs []job
	gron *gronx.Gronx
	log  *zap.Logger
	now  func() time.Time
}

func New(cfg config.SchedulerConfig, contexts *conversation.Manager, publisher *registry.Publisher, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		gron: gronx.New(),
		log:  log,
		now:  time.Now,
	}

	ttl := time.Duration(cfg.ContextTTLMinutes) * time.Minute
	if cfg.ContextSweep != "" {
		if !s.gron.IsValid(cfg.ContextSweep) {
			return nil, fmt.Errorf("invalid context sweep expression %q", cfg.ContextSweep)
		}
		s.jobs = append(s.jobs, job{
			name: "context-sweep",
			expr: cfg.ContextSweep,
			run: func(context.Context) {
				if evicted := contexts.EvictIdle(ttl); evicted > 0 {
					log.Info("evicted idle conversation contexts", zap.Int("count", evicted))
				}
			},
		})
	}
	if cfg.RegistrySweep != "" {
		if !s.gron.IsValid(cfg.RegistrySweep) {
			return nil, fmt.Errorf("invalid registry sweep expression %q", cfg.RegistrySweep)
		}
		s.jobs = append(s.jobs, job{
			name: "registry-sweep",
			expr: cfg.RegistrySweep,
			run: func(ctx context.Context) {
				pruned, err := publisher.PruneInactive(ctx)
				if err != nil {
					log.Warn("registry sweep failed", zap.Error(err))
					return
				}
				if pruned > 0 {
					log.Info("pruned inactive registrations", zap.Int("count", pruned))
				}
			},
		})
	}
	return s, nil
}

// Run ticks once per minute and fires every job whose expression is due.
// It blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// Five-field expressions match only at second zero, so the reference
	// time is floored to the minute the tick falls in.
	ref := s.now().Truncate(time.Minute)
	for _, j := range s.jobs {
		due, err := s.gron.IsDue(j.expr, ref)
		if err != nil {
			s.log.Warn("cron evaluation failed",
				zap.String("job", j.name), zap.Error(err))
			continue
		}
		if due {
			j.run(ctx)
		}
	}
}
