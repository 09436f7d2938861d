package presence

import (
	"context"
	"time"

	"github.com/tnhan0211/serverzola/internal/models"
)

// Store tracks ephemeral online/typing state. All writes are pure
// overwrites (last write wins) and bump last_active; no history is kept.
type Store interface {
	SetOnline(ctx context.Context, userID string, online bool) error
	SetTyping(ctx context.Context, userID, conversationID string) error
	Get(ctx context.Context, userID string) (*models.PresenceRecord, error)
	GetBatch(ctx context.Context, userIDs []string) (map[string]*models.PresenceRecord, error)
	Touch(ctx context.Context, userID string) error
}

func offlineRecord(userID string) *models.PresenceRecord {
	return &models.PresenceRecord{UserID: userID, IsOnline: false}
}

var now = time.Now
