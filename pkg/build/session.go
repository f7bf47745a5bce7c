package build

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of one build attempt. Transitions are
// linear with no backward edges; StatusComplete and StatusError are terminal.
type SessionStatus string

const (
	StatusPlanning  SessionStatus = "planning"
	StatusBuilding  SessionStatus = "building"
	StatusTesting   SessionStatus = "testing"
	StatusDeploying SessionStatus = "deploying"
	StatusComplete  SessionStatus = "complete"
	StatusError     SessionStatus = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// LogLevel is the severity of one build log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogSuccess LogLevel = "success"
)

// BuildLog is one immutable, append-only log entry on a session.
type BuildLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	AgentID   string    `json:"agent_id,omitempty"`
	Phase     string    `json:"phase"`
}

// ToolBuildSession is the aggregate root of one build attempt. It is created
// once per accepted request and mutated only by the orchestrator driving it.
type ToolBuildSession struct {
	ID                  string           `json:"id"`
	Request             ToolBuildRequest `json:"request"`
	Status              SessionStatus    `json:"status"`
	Progress            int              `json:"progress"`
	Repository          *ToolRepository  `json:"repository,omitempty"`
	Agents              []AgentRole      `json:"agents"`
	StartedAt           time.Time        `json:"started_at"`
	EstimatedCompletion time.Time        `json:"estimated_completion"`
	Logs                []BuildLog       `json:"logs"`
}

// SetProgress raises progress to p. Progress is monotonically non-decreasing
// within a session, so a lower value is ignored.
func (s *ToolBuildSession) SetProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p > s.Progress {
		s.Progress = p
	}
}

// AppendLog adds one entry to the session's ordered log.
func (s *ToolBuildSession) AppendLog(at time.Time, level LogLevel, phase, message string) {
	s.Logs = append(s.Logs, BuildLog{
		Timestamp: at,
		Level:     level,
		Phase:     phase,
		Message:   message,
	})
}

// AppendAgentLog adds one entry attributed to an agent role.
func (s *ToolBuildSession) AppendAgentLog(at time.Time, level LogLevel, phase, agentID, message string) {
	s.Logs = append(s.Logs, BuildLog{
		Timestamp: at,
		Level:     level,
		Phase:     phase,
		AgentID:   agentID,
		Message:   message,
	})
}

// SessionSnapshot is a read-only view of a session's observable state.
// Progress updates and log appends are the only signals a session emits
// while running, so observers consume copies rather than the live struct.
type SessionSnapshot struct {
	ID       string        `json:"id"`
	Status   SessionStatus `json:"status"`
	Progress int           `json:"progress"`
	Logs     []BuildLog    `json:"logs"`
}

// Snapshot copies the session's observable state. The returned log slice is
// independent of the session's own.
func (s *ToolBuildSession) Snapshot() SessionSnapshot {
	logs := make([]BuildLog, len(s.Logs))
	copy(logs, s.Logs)
	return SessionSnapshot{
		ID:       s.ID,
		Status:   s.Status,
		Progress: s.Progress,
		Logs:     logs,
	}
}

// ErrorTail returns up to n formatted error-severity log lines, oldest first.
// Failure summaries surface these to the caller.
func (s *ToolBuildSession) ErrorTail(n int) []string {
	var tail []string
	for _, entry := range s.Logs {
		if entry.Level != LogError {
			continue
		}
		tail = append(tail, fmt.Sprintf("[%s] %s", entry.Phase, entry.Message))
	}
	if len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	return tail
}
