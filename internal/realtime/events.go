package realtime

import (
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is one of the closed set of domain events the gateway pushes to
// clients. The wire shape is {"type": ..., "data": ...}.
type Event interface {
	EventType() string
}

// Envelope is the wire frame wrapping every pushed event.
type Envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Wrap builds the wire frame for an event.
func Wrap(ev Event) Envelope {
	return Envelope{Type: ev.EventType(), Data: ev}
}

// OnlineUser is one entry of the presence snapshot.
type OnlineUser struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Status   string             `json:"status"`
}

// OnlineUsersSnapshot is broadcast to everyone whenever a user connects or
// disconnects.
type OnlineUsersSnapshot struct {
	Users []OnlineUser `json:"users"`
}

func (OnlineUsersSnapshot) EventType() string { return "online_users_snapshot" }

// UserTyping carries the full current set of typing users for a room.
type UserTyping struct {
	RoomID primitive.ObjectID `json:"room_id"`
	Users  []string           `json:"users"`
}

func (UserTyping) EventType() string { return "user_typing" }

// MessageCreated announces a stored message to the room's members.
type MessageCreated struct {
	Message *models.Message   `json:"message"`
	Sender  models.PublicUser `json:"sender"`
}

func (MessageCreated) EventType() string { return "message_created" }

// MessageReactionChanged carries the updated per-emoji aggregate, never the
// raw reaction list.
type MessageReactionChanged struct {
	MessageID primitive.ObjectID     `json:"message_id"`
	RoomID    primitive.ObjectID     `json:"room_id"`
	Reactions []models.ReactionGroup `json:"reactions"`
}

func (MessageReactionChanged) EventType() string { return "message_reaction_changed" }

// FriendRequestCreated is addressed to the receiver of a new request.
type FriendRequestCreated struct {
	RequestID primitive.ObjectID `json:"request_id"`
	Sender    models.PublicUser  `json:"sender"`
	CreatedAt time.Time          `json:"created_at"`
}

func (FriendRequestCreated) EventType() string { return "friend_request_created" }

// FriendRequestAccepted is addressed to the original sender.
type FriendRequestAccepted struct {
	RequestID      primitive.ObjectID `json:"request_id"`
	AcceptedBy     models.PublicUser  `json:"accepted_by"`
	ConversationID primitive.ObjectID `json:"conversation_id"`
}

func (FriendRequestAccepted) EventType() string { return "friend_request_accepted" }

// FriendRequestDeclined is addressed to the original sender.
type FriendRequestDeclined struct {
	RequestID  primitive.ObjectID `json:"request_id"`
	DeclinedBy models.PublicUser  `json:"declined_by"`
}

func (FriendRequestDeclined) EventType() string { return "friend_request_declined" }

// RoomSummary is the room slice carried inside friendship events.
type RoomSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	RoomType string             `json:"room_type"`
}

// FriendshipCreated goes to both parties of a new friendship; each copy
// carries that party's view of "the friend".
type FriendshipCreated struct {
	FriendshipID   primitive.ObjectID `json:"friendship_id"`
	Friend         models.PublicUser  `json:"friend"`
	ConversationID primitive.ObjectID `json:"conversation_id"`
	Room           RoomSummary        `json:"room"`
}

func (FriendshipCreated) EventType() string { return "friendship_created" }

// FriendshipRemoved is addressed to the party that did not initiate the
// unfriend.
type FriendshipRemoved struct {
	FriendshipID primitive.ObjectID `json:"friendship_id"`
	RemovedBy    models.PublicUser  `json:"removed_by"`
}

func (FriendshipRemoved) EventType() string { return "friendship_removed" }

// UserJoinedRoom announces a membership change to the room.
type UserJoinedRoom struct {
	RoomID   primitive.ObjectID `json:"room_id"`
	UserID   primitive.ObjectID `json:"user_id"`
	Username string             `json:"username"`
}

func (UserJoinedRoom) EventType() string { return "user_joined_room" }

// UserLeftRoom announces a membership change to the room.
type UserLeftRoom struct {
	RoomID   primitive.ObjectID `json:"room_id"`
	UserID   primitive.ObjectID `json:"user_id"`
	Username string             `json:"username"`
}

func (UserLeftRoom) EventType() string { return "user_left_room" }

// OperationFailed surfaces a command failure to the originating connection
// only.
type OperationFailed struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (OperationFailed) EventType() string { return "operation_failed" }
