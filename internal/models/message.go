package models

import "time"

type MessageKind string

const (
	KindText   MessageKind = "text"
	KindImage  MessageKind = "image"
	KindVideo  MessageKind = "video"
	KindFile   MessageKind = "file"
	KindSystem MessageKind = "system"
)

type MessageStatus string

const (
	MessageSent MessageStatus = "sent"
	MessageRead MessageStatus = "read"
)

// Message covers both direct and group messages. Exactly one of
// ReceiverID / GroupID is set depending on the conversation kind.
// Content and MediaURL may not both be empty.
type Message struct {
	ID         string        `bson:"_id,omitempty" json:"message_id"`
	SenderID   string        `bson:"sender_id" json:"sender_id"`
	ReceiverID string        `bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`
	GroupID    string        `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Content    string        `bson:"content,omitempty" json:"content,omitempty"`
	MediaURL   string        `bson:"media_url,omitempty" json:"media_url,omitempty"`
	Kind       MessageKind   `bson:"type" json:"type"`
	Status     MessageStatus `bson:"status" json:"status"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	ReadAt     *time.Time    `bson:"read_at,omitempty" json:"read_at,omitempty"`
	IsDeleted  bool          `bson:"is_deleted" json:"is_deleted"`
}

// HasBody reports whether the message carries any content at all.
func (m *Message) HasBody() bool {
	return m.Content != "" || m.MediaURL != ""
}
