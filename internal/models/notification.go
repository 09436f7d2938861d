package models

import "time"

const (
	NotifyPrivateMessage = "private_message"
	NotifyGroupMessage   = "group_message"
	NotifyMessageRead    = "message_read"
)

type Notification struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	RecipientID string    `bson:"recipient_id" json:"recipient_id"`
	Type        string    `bson:"type" json:"type"`
	ActorID     string    `bson:"actor_id" json:"actor_id"`
	ActorName   string    `bson:"actor_name,omitempty" json:"actor_name,omitempty"`
	ActorAvatar string    `bson:"actor_avatar,omitempty" json:"actor_avatar,omitempty"`
	MessageID   string    `bson:"message_id,omitempty" json:"message_id,omitempty"`
	GroupID     string    `bson:"group_id,omitempty" json:"group_id,omitempty"`
	GroupName   string    `bson:"group_name,omitempty" json:"group_name,omitempty"`
	Content     string    `bson:"content,omitempty" json:"content,omitempty"`
	IsRead      bool      `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
