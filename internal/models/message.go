package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// Attachment describes an uploaded file referenced by a message. Uploading
// itself is handled outside the core; the descriptor travels with the message.
type Attachment struct {
	URL      string `bson:"url" json:"url"`
	Name     string `bson:"name" json:"name"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
	FileType string `bson:"file_type,omitempty" json:"file_type,omitempty"`
}

// Reaction is a single user's emoji on a message. The store guarantees at
// most one reaction per user per message; adding a second replaces the first.
type Reaction struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Emoji  string             `bson:"emoji" json:"emoji"`
}

// Message is an append-only log entry scoped to a room. Only the reaction
// list and the edited flag mutate after creation.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID    primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	RoomID      primitive.ObjectID `bson:"room_id" json:"room_id"`
	MessageType string             `bson:"message_type" json:"message_type"`
	Content     string             `bson:"content,omitempty" json:"content,omitempty"`
	Attachment  *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Reactions   []Reaction         `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Edited      bool               `bson:"edited" json:"edited"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ReactionGroup is the broadcast aggregate: one entry per emoji with the
// reacting users, so a client can render counts and "reacted by me" without
// another query.
type ReactionGroup struct {
	Emoji   string               `json:"emoji"`
	Count   int                  `json:"count"`
	UserIDs []primitive.ObjectID `json:"user_ids"`
}

// GroupReactions folds the reaction list into per-emoji groups, deduping by
// user as a safety net against historical double entries.
func GroupReactions(reactions []Reaction) []ReactionGroup {
	seen := make(map[primitive.ObjectID]string, len(reactions))
	order := make([]string, 0, len(reactions))
	byEmoji := make(map[string][]primitive.ObjectID, len(reactions))

	for _, r := range reactions {
		if prev, ok := seen[r.UserID]; ok {
			// A user appears once; the latest entry wins.
			users := byEmoji[prev]
			for i, id := range users {
				if id == r.UserID {
					byEmoji[prev] = append(users[:i], users[i+1:]...)
					break
				}
			}
		}
		seen[r.UserID] = r.Emoji
		if _, ok := byEmoji[r.Emoji]; !ok {
			order = append(order, r.Emoji)
		}
		byEmoji[r.Emoji] = append(byEmoji[r.Emoji], r.UserID)
	}

	groups := make([]ReactionGroup, 0, len(order))
	for _, emoji := range order {
		users := byEmoji[emoji]
		if len(users) == 0 {
			continue
		}
		groups = append(groups, ReactionGroup{Emoji: emoji, Count: len(users), UserIDs: users})
	}
	return groups
}
