package privacy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/logger"
	"github.com/tnhan0211/serverzola/internal/models"
)

type memSettings struct {
	byOwner map[string]*models.PrivacySettings
}

func (m *memSettings) get(ownerID string) *models.PrivacySettings {
	if s, ok := m.byOwner[ownerID]; ok {
		return s
	}
	s := models.DefaultPrivacy(ownerID)
	m.byOwner[ownerID] = s
	return s
}

func (m *memSettings) Get(_ context.Context, ownerID string) (*models.PrivacySettings, error) {
	return m.get(ownerID), nil
}

func (m *memSettings) AddBlocked(_ context.Context, ownerID, targetID string) error {
	s := m.get(ownerID)
	s.BlockedIDs = append(s.BlockedIDs, targetID)
	return nil
}

func (m *memSettings) RemoveBlocked(_ context.Context, ownerID, targetID string) error {
	s := m.get(ownerID)
	out := s.BlockedIDs[:0]
	for _, id := range s.BlockedIDs {
		if id != targetID {
			out = append(out, id)
		}
	}
	s.BlockedIDs = out
	return nil
}

func (m *memSettings) SetPolicy(_ context.Context, ownerID string, policy models.MessagePolicy, readReceipts *bool) error {
	s := m.get(ownerID)
	if policy != "" {
		s.AllowMessagesFrom = policy
	}
	if readReceipts != nil {
		s.ReadReceipts = *readReceipts
	}
	return nil
}

type pair struct{ a, b string }

type memFriendships struct {
	removed []pair
}

func (m *memFriendships) RemovePair(_ context.Context, a, b string) error {
	m.removed = append(m.removed, pair{a, b})
	return nil
}

type memUsers struct {
	known map[string]bool
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if !m.known[id] {
		return nil, apperr.ErrNotFound
	}
	return &models.User{ID: id, DisplayName: id}, nil
}

func newService() (*Service, *memSettings, *memFriendships) {
	settings := &memSettings{byOwner: map[string]*models.PrivacySettings{}}
	friends := &memFriendships{}
	users := &memUsers{known: map[string]bool{"alice": true, "bob": true}}
	return NewService(settings, friends, users, logger.Nop()), settings, friends
}

func TestBlockRemovesFriendship(t *testing.T) {
	svc, settings, friends := newService()
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, "alice", "bob"))
	assert.Equal(t, []string{"bob"}, settings.get("alice").BlockedIDs)
	assert.Equal(t, []pair{{"alice", "bob"}}, friends.removed)

	blocked, err := svc.IsBlocked(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, blocked)

	// one-directional: alice is not blocked by bob
	blocked, err = svc.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockRejectsSelfAndUnknownAndDuplicate(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	require.ErrorIs(t, svc.Block(ctx, "alice", "alice"), apperr.ErrForbidden)
	require.ErrorIs(t, svc.Block(ctx, "alice", "ghost"), apperr.ErrNotFound)

	require.NoError(t, svc.Block(ctx, "alice", "bob"))
	require.ErrorIs(t, svc.Block(ctx, "alice", "bob"), apperr.ErrAlreadyExists)
}

func TestUnblock(t *testing.T) {
	svc, settings, _ := newService()
	ctx := context.Background()

	require.ErrorIs(t, svc.Unblock(ctx, "alice", "bob"), apperr.ErrNotFound)

	require.NoError(t, svc.Block(ctx, "alice", "bob"))
	require.NoError(t, svc.Unblock(ctx, "alice", "bob"))
	assert.Empty(t, settings.get("alice").BlockedIDs)
}

func TestUpdateSettingsValidatesPolicy(t *testing.T) {
	svc, settings, _ := newService()
	ctx := context.Background()

	require.ErrorIs(t, svc.UpdateSettings(ctx, "alice", "anyone", nil), apperr.ErrBadRequest)

	off := false
	require.NoError(t, svc.UpdateSettings(ctx, "alice", models.MessagesFromFriends, &off))
	s := settings.get("alice")
	assert.Equal(t, models.MessagesFromFriends, s.AllowMessagesFrom)
	assert.False(t, s.ReadReceipts)

	// empty policy leaves the stored value alone
	require.NoError(t, svc.UpdateSettings(ctx, "alice", "", nil))
	assert.Equal(t, models.MessagesFromFriends, settings.get("alice").AllowMessagesFrom)
}

func TestBlockedUsersSkipsMissingAccounts(t *testing.T) {
	svc, settings, _ := newService()
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, "alice", "bob"))
	settings.get("alice").BlockedIDs = append(settings.get("alice").BlockedIDs, "deleted-user")

	users, err := svc.BlockedUsers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].ID)
}
