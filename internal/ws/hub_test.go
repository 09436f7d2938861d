package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/logger"
)

type presenceCall struct {
	userID string
	online bool
}

type recordingPresence struct {
	calls []presenceCall
}

func (p *recordingPresence) SetOnline(_ context.Context, userID string, online bool) error {
	p.calls = append(p.calls, presenceCall{userID: userID, online: online})
	return nil
}

func testClient(uid string) *Client {
	return newClient(nil, uid, 8, 10)
}

func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case b := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(b, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHubPresenceTransitionsAreRefcounted(t *testing.T) {
	p := &recordingPresence{}
	h := NewHub(p, logger.Nop())

	phone := testClient("alice")
	laptop := testClient("alice")

	h.Register(phone)
	h.Register(laptop)
	// only the first connection flips the user online
	require.Equal(t, []presenceCall{{"alice", true}}, p.calls)
	assert.True(t, h.Online("alice"))

	h.Unregister(phone)
	// one connection remains, no offline transition
	require.Len(t, p.calls, 1)
	assert.True(t, h.Online("alice"))

	h.Unregister(laptop)
	require.Equal(t, []presenceCall{{"alice", true}, {"alice", false}}, p.calls)
	assert.False(t, h.Online("alice"))
}

func TestHubPersonalRoomDelivery(t *testing.T) {
	h := NewHub(&recordingPresence{}, logger.Nop())
	alice := testClient("alice")
	bob := testClient("bob")
	h.Register(alice)
	h.Register(bob)

	h.Broadcast("alice", "new_notification", map[string]string{"id": "n1"})

	got := drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "new_notification", got[0].Type)
	assert.Empty(t, drain(t, bob))
}

func TestHubRoomJoinLeave(t *testing.T) {
	h := NewHub(&recordingPresence{}, logger.Nop())
	alice := testClient("alice")
	bob := testClient("bob")
	h.Register(alice)
	h.Register(bob)

	h.JoinRoom(alice, "g1")
	h.JoinRoom(bob, "g1")
	h.Broadcast("g1", "receive_group_message", map[string]string{"id": "m1"})
	assert.Len(t, drain(t, alice), 1)
	assert.Len(t, drain(t, bob), 1)

	h.LeaveRoom(bob, "g1")
	h.Broadcast("g1", "receive_group_message", map[string]string{"id": "m2"})
	assert.Len(t, drain(t, alice), 1)
	assert.Empty(t, drain(t, bob))
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	h := NewHub(&recordingPresence{}, logger.Nop())
	alice := testClient("alice")
	h.Register(alice)
	h.JoinRoom(alice, "g1")

	h.Unregister(alice)
	h.Broadcast("g1", "receive_group_message", map[string]string{"id": "m1"})
	assert.Empty(t, drain(t, alice))
}

func TestHubBroadcastSkipsSlowConsumers(t *testing.T) {
	h := NewHub(&recordingPresence{}, logger.Nop())
	slow := newClient(nil, "alice", 1, 10)
	h.Register(slow)

	h.Broadcast("alice", "ev", 1)
	h.Broadcast("alice", "ev", 2) // buffer full, dropped without blocking

	got := drain(t, slow)
	require.Len(t, got, 1)
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := testClient("alice")
	c.mu.Lock()
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	assert.False(t, c.enqueue([]byte("x")))
}
