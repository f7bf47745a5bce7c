package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeloop/toolwright/pkg/build"
)

// AgentRouter dispatches a prompt to a set of agent roles and returns their
// aggregated textual response. The orchestrator treats it as opaque.
type AgentRouter interface {
	RouteToAgents(ctx context.Context, prompt string, roles []build.AgentRole, userID, sessionID string) (string, error)
}

// LoopbackRouter is the in-process router used when no external agent
// platform is wired in. It acknowledges each role deterministically.
type LoopbackRouter struct{}

func (LoopbackRouter) RouteToAgents(_ context.Context, prompt string, roles []build.AgentRole, _, _ string) (string, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	firstLine := prompt
	if idx := strings.IndexByte(prompt, '\n'); idx >= 0 {
		firstLine = prompt[:idx]
	}
	return fmt.Sprintf("[%s] acknowledged: %s", strings.Join(names, ", "), firstLine), nil
}
