// Package bus decouples chat channels from the orchestrator loop with two
// bounded in-process queues. Publishing never blocks longer than
// publishTimeout; overflow is counted rather than propagated.
package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	queueDepth     = 100
	publishTimeout = 100 * time.Millisecond
)

// SessionKey derives the conversation session id for a chat on a channel, so
// one chat always maps onto one conversation.
func SessionKey(channel, chatID string) string {
	return channel + ":" + chatID
}

type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	handlers map[string]MessageHandler
	closed   bool
	dropped  droppedCounters
	mu       sync.RWMutex
}

type droppedCounters struct {
	inbound  atomic.Uint64
	outbound atomic.Uint64
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, queueDepth),
		outbound: make(chan OutboundMessage, queueDepth),
		handlers: make(map[string]MessageHandler),
	}
}

// enqueue offers msg to a full-capable queue, waiting up to publishTimeout
// before counting it as dropped.
func enqueue[T any](ch chan<- T, msg T, dropped *atomic.Uint64) {
	select {
	case ch <- msg:
		return
	default:
	}
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case ch <- msg:
	case <-timer.C:
		dropped.Add(1)
	}
}

// dequeue blocks until a message arrives, the queue closes, or ctx is done.
func dequeue[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var zero T
	select {
	case msg, ok := <-ch:
		if !ok {
			return zero, false
		}
		return msg, true
	case <-ctx.Done():
		return zero, false
	}
}

func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	enqueue(mb.inbound, msg, &mb.dropped.inbound)
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	return dequeue(ctx, mb.inbound)
}

func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	enqueue(mb.outbound, msg, &mb.dropped.outbound)
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	return dequeue(ctx, mb.outbound)
}

func (mb *MessageBus) RegisterHandler(channel string, handler MessageHandler) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.handlers[channel] = handler
}

func (mb *MessageBus) GetHandler(channel string) (MessageHandler, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	handler, ok := mb.handlers[channel]
	return handler, ok
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.outbound)
}

func (mb *MessageBus) DroppedInbound() uint64 {
	return mb.dropped.inbound.Load()
}

func (mb *MessageBus) DroppedOutbound() uint64 {
	return mb.dropped.outbound.Load()
}
