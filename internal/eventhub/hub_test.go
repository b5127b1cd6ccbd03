package eventhub

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"judgecore/internal/events"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	require.NoError(t, hub.Start())
	defer hub.Close()

	addr := hub.listener.Addr().String()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub's register channel time to process the new subscriber
	// before publishing, since registration and publish both go through the
	// same dispatch loop but from different goroutines.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, hub.Publish(events.Event{EventType: events.TypeTestcase, Event: map[string]string{"verdict": "AC"}}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(payload), "testcase")
	require.Contains(t, string(payload), "AC")
}

func TestHubPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub("127.0.0.1:0")
	require.NoError(t, hub.Start())
	defer hub.Close()

	done := make(chan struct{})
	go func() {
		_ = hub.Publish(events.Event{EventType: events.TypeSubmission, Event: "result"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no subscribers connected")
	}
}
