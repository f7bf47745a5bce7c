// Package conversation holds one live conversation per (user, session) pair:
// its transcript, active build sessions, and the user's resolved memory and
// preferences.
package conversation

import (
	"sync"
	"time"

	"github.com/forgeloop/toolwright/pkg/build"
	"github.com/forgeloop/toolwright/pkg/memory"
	"github.com/google/uuid"
)

// MessageRole identifies a transcript message's author.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleSystem MessageRole = "system"
)

// MessageMeta is the optional metadata attached to a transcript message.
type MessageMeta struct {
	Request    *build.ToolBuildRequest `json:"request,omitempty"`
	AgentID    string                  `json:"agent_id,omitempty"`
	Confidence float64                 `json:"confidence,omitempty"`
}

// Message is one immutable transcript entry. The transcript is append-only.
type Message struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Meta      *MessageMeta `json:"meta,omitempty"`
}

// Context is one live conversation. It exclusively owns its build sessions
// and holds a reference to the user's shared persistent memory, which
// outlives any single context.
type Context struct {
	UserID    string
	SessionID string

	Messages    []Message
	Sessions    []*build.ToolBuildSession
	Preferences memory.UserPreferences

	LastActive time.Time

	// mem is swapped by the manager's RefreshMemory while other sessions of
	// the same user may be reading it, so access goes through the accessors.
	memMu sync.RWMutex
	mem   *memory.PersistentMemory
}

// Memory returns the current shared memory snapshot for this conversation.
func (c *Context) Memory() *memory.PersistentMemory {
	c.memMu.RLock()
	defer c.memMu.RUnlock()
	return c.mem
}

// SetMemory replaces the memory snapshot.
func (c *Context) SetMemory(mem *memory.PersistentMemory) {
	c.memMu.Lock()
	c.mem = mem
	c.memMu.Unlock()
}

// Append adds a message to the transcript and returns it.
func (c *Context) Append(at time.Time, role MessageRole, content string, meta *MessageMeta) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Timestamp: at,
		Role:      role,
		Content:   content,
		Meta:      meta,
	}
	c.Messages = append(c.Messages, msg)
	c.LastActive = at
	return msg
}

// AddSession attaches a build session to this conversation.
func (c *Context) AddSession(sess *build.ToolBuildSession) {
	c.Sessions = append(c.Sessions, sess)
}

// ActiveSession returns the most recent non-terminal session, if any.
func (c *Context) ActiveSession() (*build.ToolBuildSession, bool) {
	for i := len(c.Sessions) - 1; i >= 0; i-- {
		if !c.Sessions[i].Status.Terminal() {
			return c.Sessions[i], true
		}
	}
	return nil, false
}
