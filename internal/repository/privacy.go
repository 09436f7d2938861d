package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tnhan0211/serverzola/internal/models"
)

type PrivacyRepo struct {
	col *mongo.Collection
}

func NewPrivacyRepo(db *mongo.Database) *PrivacyRepo {
	return &PrivacyRepo{col: db.Collection(colPrivacy)}
}

// Get returns the stored settings, or the defaults for a user without a
// settings document.
func (r *PrivacyRepo) Get(ctx context.Context, ownerID string) (*models.PrivacySettings, error) {
	var s models.PrivacySettings
	err := r.col.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultPrivacy(ownerID), nil
	}
	if err != nil {
		return nil, err
	}
	if s.BlockedIDs == nil {
		s.BlockedIDs = []string{}
	}
	return &s, nil
}

func (r *PrivacyRepo) AddBlocked(ctx context.Context, ownerID, targetID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$addToSet": bson.M{"blocked_ids": targetID},
			"$setOnInsert": bson.M{
				"allow_messages_from": models.MessagesFromEveryone,
				"read_receipts":       true,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *PrivacyRepo) RemoveBlocked(ctx context.Context, ownerID, targetID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{"$pull": bson.M{"blocked_ids": targetID}},
	)
	return err
}

func (r *PrivacyRepo) SetPolicy(ctx context.Context, ownerID string, policy models.MessagePolicy, readReceipts *bool) error {
	set := bson.M{}
	onInsert := bson.M{"blocked_ids": []string{}}
	if policy != "" {
		set["allow_messages_from"] = policy
	} else {
		onInsert["allow_messages_from"] = models.MessagesFromEveryone
	}
	if readReceipts != nil {
		set["read_receipts"] = *readReceipts
	} else {
		onInsert["read_receipts"] = true
	}
	if len(set) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$set":         set,
			"$setOnInsert": onInsert,
		},
		options.Update().SetUpsert(true),
	)
	return err
}
