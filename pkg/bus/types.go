package bus

// InboundMessage is one user utterance arriving from a chat channel.
type InboundMessage struct {
	Channel   string
	UserID    string
	SessionID string
	ChatID    string
	Content   string
}

// Reply builds the outbound message answering this utterance.
func (m InboundMessage) Reply(content string) OutboundMessage {
	return OutboundMessage{Channel: m.Channel, ChatID: m.ChatID, Content: content}
}

// OutboundMessage is one reply heading back to a chat channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

// MessageHandler delivers an outbound message to its channel.
type MessageHandler func(msg OutboundMessage) error
