package livefeed

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/neevany/timingsrc/cue"
	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/schedule"
)

// newTestClient builds a Client with no underlying connection, for
// exercising Hub bookkeeping directly without a real WebSocket.
func newTestClient(hub *Hub, sendBuf int) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		send:    make(chan Message, sendBuf),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub, 4)
	hub.Register <- client

	waitForClientCount(t, hub, 1)

	hub.BroadcastDueEvents([]DueEventPayload{{Key: "a"}})

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeDueEvents {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeDueEvents)
		}
	case <-time.After(time.Second):
		t.Fatal("client never received broadcast")
	}

	hub.Unregister <- client
	waitForClientCount(t, hub, 0)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("RunWithContext returned %v, want context.Canceled", err)
	}
}

func TestHubDropsClientWithFullSendBuffer(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx) //nolint:errcheck

	client := newTestClient(hub, 1)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	// Fill the client's one-slot send buffer directly so the next
	// broadcast finds it full and unregisters the client instead of
	// blocking the hub.
	client.send <- Message{Type: MessageTypePing}
	hub.BroadcastDueEvents([]DueEventPayload{{Key: "a"}})

	waitForClientCount(t, hub, 0)
}

func TestBroadcastDueEventsDropsWhenChannelFull(t *testing.T) {
	hub := NewHub()
	// Saturate the internal broadcast channel without a running loop.
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- Message{Type: MessageTypeDueEvents}
	}
	// Must not block even though nothing drains the channel.
	done := make(chan struct{})
	go func() {
		hub.BroadcastDueEvents([]DueEventPayload{{Key: "overflow"}})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastDueEvents blocked on a full channel")
	}
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d, got %d", want, hub.GetClientCount())
}

func TestPayloadsFromDue(t *testing.T) {
	due := []schedule.DueEvent{{
		Cue:       &cue.Cue{Key: "k", Data: 42},
		Side:      interval.Low,
		Direction: schedule.Exit,
		Timestamp: 1.0,
	}}
	payloads := PayloadsFromDue(due)
	if len(payloads) != 1 {
		t.Fatalf("len(payloads) = %d, want 1", len(payloads))
	}
	p := payloads[0]
	if p.Key != "k" || p.Side != "low" || p.Direction != "exit" || p.Data != 42 {
		t.Errorf("unexpected payload: %+v", p)
	}
}
