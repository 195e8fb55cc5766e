package websockets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 32)}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func recv(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case data := <-client.send:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for room message")
		return nil
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := startHub(t)

	member, other := newTestClient(), newTestClient()
	hub.register <- member
	hub.register <- other

	hub.join <- subscription{client: member, room: "meeting-1"}
	hub.join <- subscription{client: other, room: "meeting-2"}

	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("hello")}
	assert.Equal(t, []byte("hello"), recv(t, member))

	select {
	case data := <-other.send:
		t.Fatalf("client outside the room received %q", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastOrderPreservedPerRoom(t *testing.T) {
	hub := startHub(t)

	a, b := newTestClient(), newTestClient()
	hub.register <- a
	hub.register <- b
	hub.join <- subscription{client: a, room: "meeting-1"}
	hub.join <- subscription{client: b, room: "meeting-1"}

	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("first")}
	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("second")}
	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("third")}

	for _, client := range []*Client{a, b} {
		assert.Equal(t, []byte("first"), recv(t, client))
		assert.Equal(t, []byte("second"), recv(t, client))
		assert.Equal(t, []byte("third"), recv(t, client))
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := startHub(t)

	leaver, stayer := newTestClient(), newTestClient()
	hub.register <- leaver
	hub.register <- stayer
	hub.join <- subscription{client: leaver, room: "meeting-1"}
	hub.join <- subscription{client: stayer, room: "meeting-1"}

	hub.unregister <- leaver

	// The leaver's send channel is closed by the hub.
	select {
	case _, open := <-leaver.send:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on unregister")
	}

	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("still here")}
	assert.Equal(t, []byte("still here"), recv(t, stayer))
}

func TestDetachAfterShutdown(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := newTestClient()
	client.hub = hub
	hub.register <- client

	cancel()

	// The hub closes every send channel on shutdown.
	select {
	case _, open := <-client.send:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on shutdown")
	}

	// A read loop ending after shutdown must not hang on the hub.
	finished := make(chan struct{})
	go func() {
		client.detach()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
}

func TestJoinRequiresRegisteredClient(t *testing.T) {
	hub := startHub(t)

	ghost := newTestClient()
	hub.join <- subscription{client: ghost, room: "meeting-1"}

	registered := newTestClient()
	hub.register <- registered
	hub.join <- subscription{client: registered, room: "meeting-1"}

	hub.broadcast <- RoomMessage{Room: "meeting-1", Data: []byte("hi")}
	assert.Equal(t, []byte("hi"), recv(t, registered))

	select {
	case data := <-ghost.send:
		t.Fatalf("unregistered client received %q", data)
	case <-time.After(50 * time.Millisecond):
	}
}
