package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tnhan0211/serverzola/internal/models"
)

type FriendshipRepo struct {
	col *mongo.Collection
}

func NewFriendshipRepo(db *mongo.Database) *FriendshipRepo {
	return &FriendshipRepo{col: db.Collection(colFriendships)}
}

// RemovePair deletes both directions of the relationship between a and b,
// whatever state each row is in.
func (r *FriendshipRepo) RemovePair(ctx context.Context, a, b string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"user_id": a, "friend_id": b},
		bson.M{"user_id": b, "friend_id": a},
	}})
	return err
}

// AcceptedFriendIDs lists the ids of everyone userID has an accepted
// friendship with.
func (r *FriendshipRepo) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"user_id": userID,
		"status":  models.FriendshipAccepted,
	})
	if err != nil {
		return nil, err
	}
	var rows []*models.Friendship
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.FriendID)
	}
	return ids, nil
}
