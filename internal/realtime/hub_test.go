package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubTenantFanOutAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	tenantID := uuid.New()
	channel := TenantChannel(tenantID)

	clientA := hub.NewSSEClient(uuid.New(), tenantID)
	clientB := hub.NewSSEClient(uuid.New(), tenantID)
	hub.AddChannel(clientA, channel)
	hub.AddChannel(clientB, channel)
	if n := hub.Subscribers(channel); n != 2 {
		t.Fatalf("subscribers: want=2 got=%d", n)
	}

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventNotificationCreated, Data: map[string]any{"seq": 1}})
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventNotificationCreated {
		t.Fatalf("clientA event: got=%s", got.Event)
	}
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventNotificationCreated {
		t.Fatalf("clientB event: got=%s", got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 1 {
		t.Fatalf("subscribers after close: want=1 got=%d", n)
	}

	other := hub.NewSSEClient(uuid.New(), uuid.New())
	hub.AddChannel(other, TenantChannel(other.TenantID))
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSentinelEvent})
	select {
	case msg := <-other.Outbound:
		t.Fatalf("foreign tenant received %s", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	userID := uuid.New()
	client := hub.NewSSEClient(userID, uuid.New())
	hub.AddChannel(client, UserChannel(userID))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/notifications/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: UserChannel(userID), Event: SSEEventNotificationCreated, Data: map[string]any{"title": "Queda"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: NotificationCreated") || !strings.Contains(body, `"title":"Queda"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestSSEHubCloseAllEndsStreams(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	tenantID := uuid.New()
	a := hub.NewSSEClient(uuid.New(), tenantID)
	b := hub.NewSSEClient(uuid.New(), tenantID)
	hub.AddChannel(a, TenantChannel(tenantID))
	hub.AddChannel(b, TenantChannel(tenantID))
	hub.AddChannel(b, UserChannel(b.UserID))

	req := httptest.NewRequest("GET", "/api/notifications/stream", nil)
	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(httptest.NewRecorder(), req, a)
		close(done)
	}()

	hub.CloseAll()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream still open after CloseAll")
	}
	if n := hub.Subscribers(TenantChannel(tenantID)); n != 0 {
		t.Fatalf("subscribers after CloseAll: %d", n)
	}
}
