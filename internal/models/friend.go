package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friend request lifecycle. A resolved request is terminal; a new request
// between the same pair after a decline is a new record.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// FriendRequest is a proposal from Sender to Receiver. PairKey is the
// canonical unordered form of the pair; together with the partial unique
// index on {pair_key, status: pending} it rejects duplicate and crossed
// requests even under concurrent submission.
type FriendRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	PairKey    string             `bson:"pair_key" json:"-"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Friendship links two users and exactly one direct conversation room.
// User1 < User2 always holds (see CanonicalPair), making the pair a natural
// unique key.
type Friendship struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User1            primitive.ObjectID `bson:"user1" json:"user1"`
	User2            primitive.ObjectID `bson:"user2" json:"user2"`
	ConversationRoom primitive.ObjectID `bson:"conversation_room" json:"conversation_room"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// FriendOf returns the member of the pair that is not userID.
func (f *Friendship) FriendOf(userID primitive.ObjectID) primitive.ObjectID {
	if f.User1 == userID {
		return f.User2
	}
	return f.User1
}

// CanonicalPair orders two user ids so the lower hex comes first.
func CanonicalPair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

// PairKey builds the order-independent key used by the pending-request
// unique index.
func PairKey(a, b primitive.ObjectID) string {
	lo, hi := CanonicalPair(a, b)
	return lo.Hex() + ":" + hi.Hex()
}

// FriendView is the friends-list projection: the friend's public data plus
// the shared conversation room.
type FriendView struct {
	PublicUser
	ConversationID primitive.ObjectID `json:"conversation_id"`
	FriendshipID   primitive.ObjectID `json:"friendship_id"`
	FriendsSince   time.Time          `json:"friends_since"`
}
