package bus

import (
	"context"
	"testing"
)

func TestMessageBus_PublishInboundDropsWhenBufferFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < cap(mb.inbound); i++ {
		mb.PublishInbound(InboundMessage{Channel: "test", UserID: "u", ChatID: "c", Content: "msg"})
	}

	mb.PublishInbound(InboundMessage{Channel: "test", UserID: "u", ChatID: "c", Content: "overflow"})
	if mb.DroppedInbound() != 1 {
		t.Fatalf("expected dropped inbound count 1, got %d", mb.DroppedInbound())
	}
}

func TestMessageBus_PublishOutboundDropsWhenBufferFull(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < cap(mb.outbound); i++ {
		mb.PublishOutbound(OutboundMessage{Channel: "test", ChatID: "c", Content: "msg"})
	}

	mb.PublishOutbound(OutboundMessage{Channel: "test", ChatID: "c", Content: "overflow"})
	if mb.DroppedOutbound() != 1 {
		t.Fatalf("expected dropped outbound count 1, got %d", mb.DroppedOutbound())
	}
}

func TestMessageBus_RoundTrip(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishInbound(InboundMessage{Channel: "cli", UserID: "u1", SessionID: "s1", Content: "build a tracker"})
	msg, ok := mb.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("consume returned ok=false")
	}
	if msg.UserID != "u1" || msg.Content != "build a tracker" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSessionKeyAndReply(t *testing.T) {
	if got := SessionKey("discord", "chat-9"); got != "discord:chat-9" {
		t.Fatalf("session key = %q", got)
	}

	in := InboundMessage{Channel: "discord", UserID: "u1", ChatID: "chat-9", Content: "hi"}
	out := in.Reply("hello back")
	if out.Channel != "discord" || out.ChatID != "chat-9" || out.Content != "hello back" {
		t.Fatalf("unexpected reply: %+v", out)
	}
}

func TestMessageBus_ClosedChannelsReturnFalse(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()

	if _, ok := mb.ConsumeInbound(context.Background()); ok {
		t.Fatalf("expected closed inbound consume to return ok=false")
	}
	if _, ok := mb.SubscribeOutbound(context.Background()); ok {
		t.Fatalf("expected closed outbound subscribe to return ok=false")
	}
}
