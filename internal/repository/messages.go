package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/models"
)

type MessageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{col: db.Collection(colMessages)}
}

func (r *MessageRepo) Insert(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: message %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Message, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MessageRepo) DirectHistory(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	filter := bson.M{
		"is_deleted": false,
		"$or": bson.A{
			bson.M{"sender_id": userA, "receiver_id": userB},
			bson.M{"sender_id": userB, "receiver_id": userA},
		},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *MessageRepo) GroupHistory(ctx context.Context, groupID string) ([]*models.Message, error) {
	filter := bson.M{"group_id": groupID, "is_deleted": false}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

// MarkRead flips sent messages to read; already-read ids are untouched,
// so repeated calls are no-ops.
func (r *MessageRepo) MarkRead(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.MessageSent},
		bson.M{"$set": bson.M{"status": models.MessageRead, "read_at": at}},
	)
	return err
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_deleted": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: message %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (r *MessageRepo) latest(ctx context.Context, filter bson.M) (*models.Message, error) {
	var m models.Message
	err := r.col.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) LatestDirectMessages(ctx context.Context, userID string, peerIDs []string) (map[string]*models.Message, error) {
	out := make(map[string]*models.Message, len(peerIDs))
	for _, pid := range peerIDs {
		m, err := r.latest(ctx, bson.M{
			"is_deleted": false,
			"$or": bson.A{
				bson.M{"sender_id": userID, "receiver_id": pid},
				bson.M{"sender_id": pid, "receiver_id": userID},
			},
		})
		if err != nil {
			return nil, err
		}
		if m != nil {
			out[pid] = m
		}
	}
	return out, nil
}

func (r *MessageRepo) LatestGroupMessage(ctx context.Context, groupID string) (*models.Message, error) {
	return r.latest(ctx, bson.M{"group_id": groupID, "is_deleted": false})
}
