package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/apperr"
)

func TestConversationRefValid(t *testing.T) {
	assert.True(t, Direct("u1").Valid())
	assert.True(t, Group("g1").Valid())
	assert.False(t, ConversationRef{}.Valid())
	assert.False(t, ConversationRef{Kind: KindDirect}.Valid())
	assert.False(t, ConversationRef{Kind: KindGroup, PeerID: "u1", GroupID: "g1"}.Valid())
	assert.False(t, ConversationRef{Kind: "channel", PeerID: "u1"}.Valid())
}

func TestConversationRefID(t *testing.T) {
	assert.Equal(t, "direct:u1", Direct("u1").ID())
	assert.Equal(t, "group:g1", Group("g1").ID())
}

func TestConversationRefJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Direct("u1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"direct","peer_id":"u1"}`, string(b))

	var ref ConversationRef
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"group","group_id":"g9"}`), &ref))
	assert.Equal(t, Group("g9"), ref)
}

func TestResolveDirect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.resolve(ctx, Direct("bob"), "alice")
	require.NoError(t, err)
	assert.Equal(t, KindDirect, res.kind)
	assert.Equal(t, "bob", res.fanoutRoom)

	_, err = f.svc.resolve(ctx, Direct("ghost"), "alice")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.resolve(ctx, ConversationRef{Kind: KindDirect}, "alice")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestResolveGroup(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	g := f.makeGroup(t, "alice", "bob")

	res, err := f.svc.resolve(ctx, Group(g.ID), "bob")
	require.NoError(t, err)
	assert.Equal(t, KindGroup, res.kind)
	assert.Equal(t, g.ID, res.fanoutRoom)

	_, err = f.svc.resolve(ctx, Group(g.ID), "carol")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.resolve(ctx, Group("missing"), "alice")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestValidateMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	g := f.makeGroup(t, "alice", "bob")

	require.NoError(t, f.svc.ValidateMembership(ctx, g.ID, "alice"))
	require.ErrorIs(t, f.svc.ValidateMembership(ctx, g.ID, "carol"), apperr.ErrForbidden)
}
