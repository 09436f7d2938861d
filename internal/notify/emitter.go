package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tnhan0211/serverzola/internal/metrics"
	"github.com/tnhan0211/serverzola/internal/models"
)

const EventNewNotification = "new_notification"

type Repo interface {
	Insert(ctx context.Context, n *models.Notification) (*models.Notification, error)
	List(ctx context.Context, recipientID string, limit int64, before time.Time) ([]*models.Notification, error)
	MarkRead(ctx context.Context, recipientID string, ids []string) error
	Delete(ctx context.Context, recipientID, id string) error
}

type Broadcaster interface {
	Broadcast(room, event string, payload any)
}

type EventSink interface {
	NotificationCreated(ctx context.Context, n *models.Notification) error
}

// Emitter persists notifications and pushes them over the live
// transport. The durable write always happens first; push and event
// publishing are best-effort and never fail the triggering action.
type Emitter struct {
	repo   Repo
	bc     Broadcaster
	events EventSink
	log    *zap.SugaredLogger
}

func NewEmitter(repo Repo, bc Broadcaster, events EventSink, log *zap.SugaredLogger) *Emitter {
	return &Emitter{repo: repo, bc: bc, events: events, log: log}
}

// Emit writes the notification row, then pushes it to the recipient's
// personal room. One triggering event produces exactly one row; there
// is no dedup or merging.
func (e *Emitter) Emit(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	n.IsRead = false
	stored, err := e.repo.Insert(ctx, n)
	if err != nil {
		return nil, err
	}
	metrics.NotificationsEmitted.Inc()

	e.bc.Broadcast(stored.RecipientID, EventNewNotification, stored)

	if e.events != nil {
		if err := e.events.NotificationCreated(ctx, stored); err != nil {
			e.log.Warnw("publish notification event failed", "id", stored.ID, "err", err)
		}
	}
	return stored, nil
}

func (e *Emitter) List(ctx context.Context, recipientID string, limit int64, before time.Time) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return e.repo.List(ctx, recipientID, limit, before)
}

// MarkRead flips is_read for the given ids; re-marking is a no-op.
func (e *Emitter) MarkRead(ctx context.Context, recipientID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return e.repo.MarkRead(ctx, recipientID, ids)
}

func (e *Emitter) Delete(ctx context.Context, recipientID, id string) error {
	return e.repo.Delete(ctx, recipientID, id)
}
