package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User statuses tracked by the presence registry and persisted on
// connect/disconnect.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
)

// User represents a registered account. Friends is a denormalized cache of
// accepted friendships and is mutated only by the friendship state machine.
// The live connection handle is deliberately not persisted; presence is
// process-owned state.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Avatar         string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio            string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Status         string               `bson:"status" json:"status"`
	LastSeen       time.Time            `bson:"last_seen" json:"last_seen"`
	Friends        []primitive.ObjectID `bson:"friends,omitempty" json:"friends,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the projection of a user safe to hand to other users.
type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Avatar   string             `json:"avatar,omitempty"`
	Status   string             `json:"status"`
	LastSeen time.Time          `json:"last_seen"`
}

// Public returns the shareable projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Status:   u.Status,
		LastSeen: u.LastSeen,
	}
}
