package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/logger"
	"github.com/tnhan0211/serverzola/internal/models"
)

type memRepo struct {
	seq       int
	failWrite bool
	rows      []*models.Notification
	listLimit int64
}

func (m *memRepo) Insert(_ context.Context, n *models.Notification) (*models.Notification, error) {
	if m.failWrite {
		return nil, errors.New("write failed")
	}
	m.seq++
	n.ID = fmt.Sprintf("n%d", m.seq)
	n.CreatedAt = time.Now().UTC()
	m.rows = append(m.rows, n)
	return n, nil
}

func (m *memRepo) List(_ context.Context, recipientID string, limit int64, _ time.Time) ([]*models.Notification, error) {
	m.listLimit = limit
	var out []*models.Notification
	for _, n := range m.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) MarkRead(_ context.Context, recipientID string, ids []string) error {
	for _, n := range m.rows {
		if n.RecipientID != recipientID {
			continue
		}
		for _, id := range ids {
			if n.ID == id {
				n.IsRead = true
			}
		}
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, recipientID, id string) error {
	for i, n := range m.rows {
		if n.ID == id && n.RecipientID == recipientID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type push struct {
	room  string
	event string
}

type memBroadcaster struct {
	pushes []push
}

func (m *memBroadcaster) Broadcast(room, event string, _ any) {
	m.pushes = append(m.pushes, push{room: room, event: event})
}

type failingSink struct{ called int }

func (f *failingSink) NotificationCreated(context.Context, *models.Notification) error {
	f.called++
	return errors.New("broker down")
}

func TestEmitPersistsThenPushes(t *testing.T) {
	repo := &memRepo{}
	bc := &memBroadcaster{}
	e := NewEmitter(repo, bc, nil, logger.Nop())

	n, err := e.Emit(context.Background(), &models.Notification{
		RecipientID: "bob",
		Type:        models.NotifyPrivateMessage,
		ActorID:     "alice",
		Content:     "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
	assert.False(t, n.IsRead)
	require.Equal(t, []push{{room: "bob", event: EventNewNotification}}, bc.pushes)
}

func TestEmitFailedWriteSkipsPush(t *testing.T) {
	repo := &memRepo{failWrite: true}
	bc := &memBroadcaster{}
	e := NewEmitter(repo, bc, nil, logger.Nop())

	_, err := e.Emit(context.Background(), &models.Notification{RecipientID: "bob"})
	require.Error(t, err)
	assert.Empty(t, bc.pushes)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	repo := &memRepo{}
	sink := &failingSink{}
	e := NewEmitter(repo, &memBroadcaster{}, sink, logger.Nop())

	_, err := e.Emit(context.Background(), &models.Notification{RecipientID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.called)
}

func TestListClampsLimit(t *testing.T) {
	repo := &memRepo{}
	e := NewEmitter(repo, &memBroadcaster{}, nil, logger.Nop())
	ctx := context.Background()

	_, err := e.List(ctx, "bob", 0, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 20, repo.listLimit)

	_, err = e.List(ctx, "bob", 500, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 20, repo.listLimit)

	_, err = e.List(ctx, "bob", 50, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 50, repo.listLimit)
}

func TestMarkReadEmptyIsNoop(t *testing.T) {
	repo := &memRepo{}
	e := NewEmitter(repo, &memBroadcaster{}, nil, logger.Nop())
	require.NoError(t, e.MarkRead(context.Background(), "bob", nil))
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	repo := &memRepo{}
	e := NewEmitter(repo, &memBroadcaster{}, nil, logger.Nop())
	ctx := context.Background()

	n, err := e.Emit(ctx, &models.Notification{RecipientID: "bob"})
	require.NoError(t, err)

	require.NoError(t, e.MarkRead(ctx, "mallory", []string{n.ID}))
	assert.False(t, repo.rows[0].IsRead)

	require.NoError(t, e.MarkRead(ctx, "bob", []string{n.ID}))
	assert.True(t, repo.rows[0].IsRead)
}
