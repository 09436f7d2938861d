package models

type MessagePolicy string

const (
	MessagesFromEveryone MessagePolicy = "everyone"
	MessagesFromFriends  MessagePolicy = "friends"
	MessagesFromNobody   MessagePolicy = "nobody"
)

// PrivacySettings is owned and mutated only by OwnerID.
// OwnerID never appears in BlockedIDs.
type PrivacySettings struct {
	OwnerID           string        `bson:"_id" json:"user_id"`
	BlockedIDs        []string      `bson:"blocked_ids" json:"blocked_ids"`
	AllowMessagesFrom MessagePolicy `bson:"allow_messages_from" json:"allow_messages_from"`
	ReadReceipts      bool          `bson:"read_receipts" json:"read_receipts"`
}

// DefaultPrivacy is what a user without a stored settings document gets.
func DefaultPrivacy(ownerID string) *PrivacySettings {
	return &PrivacySettings{
		OwnerID:           ownerID,
		BlockedIDs:        []string{},
		AllowMessagesFrom: MessagesFromEveryone,
		ReadReceipts:      true,
	}
}
