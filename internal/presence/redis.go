package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tnhan0211/serverzola/internal/models"
)

// RedisStore keeps one JSON record per user under <prefix>:presence:<uid>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *RedisStore) load(ctx context.Context, userID string) (*models.PresenceRecord, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return offlineRecord(userID), nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.PresenceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return offlineRecord(userID), nil
	}
	rec.UserID = userID
	return &rec, nil
}

func (s *RedisStore) save(ctx context.Context, rec *models.PresenceRecord) error {
	rec.LastActive = now().UTC()
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(rec.UserID), b, 0).Err()
}

func (s *RedisStore) SetOnline(ctx context.Context, userID string, online bool) error {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.IsOnline = online
	if !online {
		rec.TypingIn = ""
	}
	return s.save(ctx, rec)
}

func (s *RedisStore) SetTyping(ctx context.Context, userID, conversationID string) error {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.TypingIn = conversationID
	return s.save(ctx, rec)
}

func (s *RedisStore) Touch(ctx context.Context, userID string) error {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	return s.save(ctx, rec)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.PresenceRecord, error) {
	return s.load(ctx, userID)
}

func (s *RedisStore) GetBatch(ctx context.Context, userIDs []string) (map[string]*models.PresenceRecord, error) {
	if len(userIDs) == 0 {
		return map[string]*models.PresenceRecord{}, nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.PresenceRecord, len(userIDs))
	for i, v := range vals {
		id := userIDs[i]
		str, ok := v.(string)
		if !ok {
			out[id] = offlineRecord(id)
			continue
		}
		var rec models.PresenceRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			out[id] = offlineRecord(id)
			continue
		}
		rec.UserID = id
		out[id] = &rec
	}
	return out, nil
}
