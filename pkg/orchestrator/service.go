// Package orchestrator turns classified build requests into tracked,
// multi-phase build sessions and keeps each user's persistent memory current
// with the outcomes.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/classify"
	"github.com/forgeloop/toolwright/pkg/conversation"
)

// Reply is the conversational result of one utterance.
type Reply struct {
	Text               string
	AlternativeActions []string
	Session            *build.ToolBuildSession
}

// Service is the orchestrator's single entry point for raw utterances.
type Service struct {
	contexts   *conversation.Manager
	classifier classify.Classifier
	machine    *Machine
	log        *zap.Logger
	now        func() time.Time
}

func NewService(contexts *conversation.Manager, classifier classify.Classifier, machine *Machine, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		contexts:   contexts,
		classifier: classifier,
		machine:    machine,
		log:        log,
		now:        time.Now,
	}
}

const nonBuildReply = "I build small web tools on request. Describe the tool you want and I'll take it from there."

var estimatedPhaseTime = map[build.Complexity]time.Duration{
	build.ComplexitySimple:  5 * time.Minute,
	build.ComplexityMedium:  15 * time.Minute,
	build.ComplexityComplex: 45 * time.Minute,
}

// HandleUtterance runs one utterance through intake, classification, and,
// for accepted build requests, a full build session. The transcript grows by
// exactly one message per call regardless of the branch taken.
func (s *Service) HandleUtterance(ctx context.Context, userID, sessionID, utterance string) Reply {
	cc := s.contexts.GetOrCreate(ctx, userID, sessionID)
	at := s.now()

	result, err := s.classifier.Classify(ctx, utterance)
	if err != nil {
		// Classification failure is always a conversational fallback,
		// never a hard error.
		s.log.Warn("classification failed, treating as non-build",
			zap.String("user_id", userID), zap.Error(err))
		result = classify.Classification{}
	}

	if !result.IsToolRequest || result.Request == nil {
		cc.Append(at, conversation.RoleUser, utterance, nil)
		return Reply{Text: nonBuildReply, AlternativeActions: result.AlternativeActions}
	}

	enriched := Enhance(*result.Request, cc.Memory(), cc.Preferences)
	cc.Append(at, conversation.RoleUser, utterance, &conversation.MessageMeta{
		Request:    &enriched,
		Confidence: enriched.Confidence,
	})

	sess := &build.ToolBuildSession{
		ID:                  uuid.NewString(),
		Request:             enriched,
		Status:              build.StatusPlanning,
		Agents:              AssignRoles(enriched.Category, enriched.Complexity),
		StartedAt:           at,
		EstimatedCompletion: at.Add(estimatedPhaseTime[enriched.Complexity.Normalize()]),
		Logs:                []build.BuildLog{},
	}
	cc.AddSession(sess)

	s.log.Info("build session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("category", string(enriched.Category)),
		zap.String("complexity", string(enriched.Complexity)))

	text := s.machine.Run(ctx, cc, sess)
	return Reply{Text: text, Session: sess}
}
