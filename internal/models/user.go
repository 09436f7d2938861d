package models

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
	StatusBanned    AccountStatus = "banned"
)

type User struct {
	ID          string        `bson:"_id,omitempty" json:"user_id"`
	Email       string        `bson:"email" json:"email"`
	Password    string        `bson:"password" json:"-"`
	DisplayName string        `bson:"display_name" json:"display_name"`
	AvatarURL   string        `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Role        Role          `bson:"role" json:"role"`
	Status      AccountStatus `bson:"status" json:"status"`
	Disabled    bool          `bson:"disabled" json:"disabled"`
	IsDeleted   bool          `bson:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}
