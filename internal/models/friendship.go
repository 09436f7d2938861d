package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship rows are stored per direction; accepting a request writes
// both directions with status accepted.
type Friendship struct {
	UserID    string           `bson:"user_id" json:"user_id"`
	FriendID  string           `bson:"friend_id" json:"friend_id"`
	Status    FriendshipStatus `bson:"status" json:"status"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}
