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

type GroupRepo struct {
	groups  *mongo.Collection
	members *mongo.Collection
}

func NewGroupRepo(db *mongo.Database) *GroupRepo {
	return &GroupRepo{
		groups:  db.Collection(colGroups),
		members: db.Collection(colGroupMembers),
	}
}

func (r *GroupRepo) InsertGroup(ctx context.Context, g *models.Group) (*models.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := r.groups.InsertOne(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GroupRepo) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: group %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepo) TouchGroup(ctx context.Context, id string, at time.Time) error {
	_, err := r.groups.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updated_at": at}})
	return err
}

// IncMemberCount relies on the store's atomic increment; concurrent
// joins and leaves never lose updates.
func (r *GroupRepo) IncMemberCount(ctx context.Context, id string, delta int) error {
	_, err := r.groups.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"member_count": delta}})
	return err
}

func (r *GroupRepo) UpsertMember(ctx context.Context, m *models.GroupMember) error {
	filter := bson.M{"group_id": m.GroupID, "user_id": m.UserID}
	update := bson.M{"$set": m}
	_, err := r.members.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *GroupRepo) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	var m models.GroupMember
	err := r.members.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GroupRepo) SetMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error {
	res, err := r.members.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: membership %s/%s", apperr.ErrNotFound, groupID, userID)
	}
	return nil
}

func (r *GroupRepo) SetLastRead(ctx context.Context, groupID, userID, messageID string) error {
	_, err := r.members.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"last_read_message_id": messageID}},
	)
	return err
}

func (r *GroupRepo) listMembers(ctx context.Context, filter bson.M) ([]*models.GroupMember, error) {
	cur, err := r.members.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.GroupMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GroupRepo) ActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	return r.listMembers(ctx, bson.M{"group_id": groupID, "status": models.MemberActive})
}

func (r *GroupRepo) MembershipsForUser(ctx context.Context, userID string) ([]*models.GroupMember, error) {
	return r.listMembers(ctx, bson.M{"user_id": userID})
}

// CountActiveAdmins supports the invariant that a live group keeps at
// least one active admin.
func (r *GroupRepo) CountActiveAdmins(ctx context.Context, groupID string) (int64, error) {
	return r.members.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"role":     models.MemberAdmin,
		"status":   models.MemberActive,
	})
}
