package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/conversation"
	"github.com/forgeloop/toolwright/pkg/generator"
	"github.com/forgeloop/toolwright/pkg/memory"
	"github.com/forgeloop/toolwright/pkg/registry"
	"github.com/forgeloop/toolwright/pkg/store"
)

// Machine drives one build session through its linear phase sequence:
// planning, building, testing (skipped for the simple tier), deploying,
// complete. Any phase failure converts the session to its terminal error
// state; no error escapes Run and nothing is retried.
type Machine struct {
	gen        *generator.Generator
	publisher  *registry.Publisher
	router     AgentRouter
	memories   *memory.Store
	contexts   *conversation.Manager
	docs       store.Store
	maxSimilar int
	log        *zap.Logger
	now        func() time.Time
}

func NewMachine(
	gen *generator.Generator,
	publisher *registry.Publisher,
	router AgentRouter,
	memories *memory.Store,
	contexts *conversation.Manager,
	docs store.Store,
	maxSimilar int,
	log *zap.Logger,
) (*Machine, error) {
	if err := validateRoleAssignments(); err != nil {
		return nil, err
	}
	if router == nil {
		router = LoopbackRouter{}
	}
	if maxSimilar <= 0 {
		maxSimilar = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		gen:        gen,
		publisher:  publisher,
		router:     router,
		memories:   memories,
		contexts:   contexts,
		docs:       docs,
		maxSimilar: maxSimilar,
		log:        log,
		now:        time.Now,
	}, nil
}

type phaseFn func(context.Context, *conversation.Context, *build.ToolBuildSession) error

// Run drives the session to a terminal state and returns the human-readable
// outcome summary. Progress only ever rises, and reaches 100 exactly when the
// session completes.
func (m *Machine) Run(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) string {
	type phase struct {
		name string
		run  phaseFn
	}
	phases := []phase{
		{"planning", m.runPlanning},
		{"building", m.runBuilding},
	}
	if sess.Request.Complexity.Normalize() != build.ComplexitySimple {
		phases = append(phases, phase{"testing", m.runTesting})
	}
	phases = append(phases,
		phase{"deploying", m.runDeploying},
		phase{"complete", m.runComplete},
	)

	for _, p := range phases {
		if err := p.run(ctx, cc, sess); err != nil {
			return m.fail(ctx, sess, p.name, err)
		}
	}
	return m.successSummary(sess)
}

func (m *Machine) runPlanning(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) error {
	sess.Status = build.StatusPlanning
	sess.SetProgress(10)

	planners := sess.Agents
	if len(planners) > 2 {
		planners = planners[:2]
	}
	similar := SimilarTools(cc.Memory(), sess.Request, m.maxSimilar)
	prompt := planningPrompt(sess.Request, cc.Preferences, similar)
	response, err := m.router.RouteToAgents(ctx, prompt, planners, cc.UserID, cc.SessionID)
	if err != nil {
		return fmt.Errorf("route planning prompt: %w", err)
	}
	sess.AppendAgentLog(m.now(), build.LogInfo, "planning", string(planners[0]),
		fmt.Sprintf("plan drafted: %s", response))
	return nil
}

func (m *Machine) runBuilding(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) error {
	sess.Status = build.StatusBuilding
	sess.SetProgress(30)

	repo, err := m.gen.Generate(sess.Request, m.now())
	if err != nil {
		return fmt.Errorf("generate artifact: %w", err)
	}
	sess.Repository = repo
	sess.AppendLog(m.now(), build.LogSuccess, "building",
		fmt.Sprintf("tool structure created with %d files", len(repo.Files)))

	sess.SetProgress(60)
	prompt := codeReviewPrompt(sess.Request, repo)
	if _, err := m.router.RouteToAgents(ctx, prompt, sess.Agents, cc.UserID, cc.SessionID); err != nil {
		return fmt.Errorf("route code review prompt: %w", err)
	}
	sess.AppendLog(m.now(), build.LogSuccess, "building", "code generation complete")
	return nil
}

func (m *Machine) runTesting(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) error {
	sess.Status = build.StatusTesting
	sess.SetProgress(80)

	prompt := testingPrompt(sess.Request, sess.Repository)
	if _, err := m.router.RouteToAgents(ctx, prompt, []build.AgentRole{build.RoleQA}, cc.UserID, cc.SessionID); err != nil {
		return fmt.Errorf("route testing prompt: %w", err)
	}
	sess.AppendAgentLog(m.now(), build.LogSuccess, "testing", string(build.RoleQA), "verification passed")
	return nil
}

func (m *Machine) runDeploying(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) error {
	sess.Status = build.StatusDeploying
	sess.SetProgress(90)

	if err := m.publisher.Publish(ctx, sess.Repository, cc.UserID); err != nil {
		return err
	}
	sess.AppendLog(m.now(), build.LogInfo, "deploying",
		fmt.Sprintf("registered tool %s", sess.Repository.ID))
	return nil
}

func (m *Machine) runComplete(ctx context.Context, cc *conversation.Context, sess *build.ToolBuildSession) error {
	completedAt := m.now()

	// The fallible work runs against a completed snapshot; the live session
	// turns terminal only once the save and memory update have both
	// succeeded, so a failure here leaves it below full progress.
	final := *sess
	final.Logs = append([]build.BuildLog(nil), sess.Logs...)
	final.Status = build.StatusComplete
	final.SetProgress(100)
	final.AppendLog(completedAt, build.LogSuccess, "complete", "build complete")

	if err := m.persistSession(ctx, &final); err != nil {
		return err
	}
	mem, err := m.memories.RecordBuildOutcome(ctx, cc.UserID, &final, completedAt)
	if err != nil {
		return fmt.Errorf("record build outcome: %w", err)
	}

	*sess = final
	if m.contexts != nil {
		m.contexts.RefreshMemory(cc.UserID, mem)
	}
	return nil
}

// fail converts the session to its terminal error state. The partial
// repository, if any, stays attached for inspection.
func (m *Machine) fail(ctx context.Context, sess *build.ToolBuildSession, phase string, cause error) string {
	sess.Status = build.StatusError
	sess.AppendLog(m.now(), build.LogError, phase, cause.Error())
	m.log.Error("build session failed",
		zap.String("session_id", sess.ID),
		zap.String("phase", phase),
		zap.Error(cause))

	if err := m.persistSession(ctx, sess); err != nil {
		m.log.Warn("failed session could not be persisted",
			zap.String("session_id", sess.ID), zap.Error(err))
	}
	return m.failureSummary(sess, phase)
}

func (m *Machine) persistSession(ctx context.Context, sess *build.ToolBuildSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := m.docs.Set(ctx, store.NamespaceSessions, sess.ID, raw); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (m *Machine) successSummary(sess *build.ToolBuildSession) string {
	repo := sess.Repository
	return fmt.Sprintf("Built %q (%s) with %d files. Registered as %s.",
		repo.Name, repo.Category, len(repo.Files), repo.ID)
}

func (m *Machine) failureSummary(sess *build.ToolBuildSession, phase string) string {
	summary := fmt.Sprintf("The build of %q failed during %s.", sess.Request.Name, phase)
	for _, line := range sess.ErrorTail(3) {
		summary += "\n  " + line
	}
	return summary
}
