package orchestrator

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/bus"
)

// Loop consumes inbound chat messages off the bus, feeds them through the
// orchestrator service, and publishes the replies.
type Loop struct {
	bus     *bus.MessageBus
	service *Service
	log     *zap.Logger
	running atomic.Bool
}

func NewLoop(msgBus *bus.MessageBus, service *Service, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{bus: msgBus, service: service, log: log}
}

func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)

	for l.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
			msg, ok := l.bus.ConsumeInbound(ctx)
			if !ok {
				continue
			}

			sessionID := msg.SessionID
			if sessionID == "" {
				sessionID = msg.ChatID
			}
			reply := l.service.HandleUtterance(ctx, msg.UserID, sessionID, msg.Content)
			l.bus.PublishOutbound(msg.Reply(renderReply(reply)))
		}
	}
	return nil
}

func (l *Loop) Stop() {
	l.running.Store(false)
}

func renderReply(reply Reply) string {
	if len(reply.AlternativeActions) == 0 {
		return reply.Text
	}
	var b strings.Builder
	b.WriteString(reply.Text)
	b.WriteString("\n\nYou could also:")
	for _, action := range reply.AlternativeActions {
		b.WriteString("\n- ")
		b.WriteString(action)
	}
	return b.String()
}
