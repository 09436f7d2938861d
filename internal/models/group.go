package models

import "time"

type Group struct {
	ID          string    `bson:"_id,omitempty" json:"group_id"`
	CreatorID   string    `bson:"creator_id" json:"creator_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	AvatarURL   string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	MemberCount int       `bson:"member_count" json:"member_count"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	IsDeleted   bool      `bson:"is_deleted" json:"is_deleted"`
}

type MemberRole string

const (
	MemberAdmin  MemberRole = "admin"
	MemberNormal MemberRole = "member"
)

type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

type GroupMember struct {
	GroupID           string       `bson:"group_id" json:"group_id"`
	UserID            string       `bson:"user_id" json:"user_id"`
	Role              MemberRole   `bson:"role" json:"role"`
	Status            MemberStatus `bson:"status" json:"status"`
	JoinedAt          time.Time    `bson:"joined_at" json:"joined_at"`
	LastReadMessageID string       `bson:"last_read_message_id,omitempty" json:"last_read_message_id,omitempty"`
}
