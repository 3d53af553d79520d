package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoomPublic = "public"
	RoomDirect = "direct"
	RoomGroup  = "group"
)

// Room is a conversation scope. Direct rooms are created only by the
// friendship accept path and have a fixed two-member set.
type Room struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	RoomType    string               `bson:"room_type" json:"room_type"`
	CreatorID   primitive.ObjectID   `bson:"creator_id,omitempty" json:"creator_id,omitempty"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Admins      []primitive.ObjectID `bson:"admins,omitempty" json:"admins,omitempty"`
	LastMessage primitive.ObjectID   `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// HasMember reports whether userID belongs to the room.
func (r *Room) HasMember(userID primitive.ObjectID) bool {
	for _, id := range r.Members {
		if id == userID {
			return true
		}
	}
	return false
}
