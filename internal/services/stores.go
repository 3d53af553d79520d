package services

import (
	"context"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The services depend on narrow store interfaces rather than the concrete
// Mongo repositories so the state machines can be tested against in-memory
// fakes. The repository types satisfy these as-is.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, userID1, userID2 primitive.ObjectID) error
	SetStatus(ctx context.Context, userID primitive.ObjectID, status string, lastSeen time.Time) error
	TouchLastSeen(ctx context.Context, userID primitive.ObjectID) error
}

type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	GetPendingByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error)
	GetPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error)
	Resolve(ctx context.Context, id primitive.ObjectID, status string) error
}

type FriendshipStore interface {
	Create(ctx context.Context, user1, user2, roomID primitive.ObjectID) (*models.Friendship, error)
	GetBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error)
	GetAllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error)
	DeleteBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error)
}

type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) (*models.Room, error)
	GetRoomByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	ListRoomsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error)
	AddMember(ctx context.Context, roomID, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, roomID, userID primitive.ObjectID) error
	SetLastMessage(ctx context.Context, roomID, messageID primitive.ObjectID) error
}

type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	GetRoomMessages(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.Message, error)
	UpsertReaction(ctx context.Context, messageID, userID primitive.ObjectID, emoji string) error
}

// TxRunner executes fn atomically against the store. The Mongo
// implementation runs a multi-document transaction; test fakes just call fn.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher is the slice of the event dispatcher the services emit through.
// All emission happens after the triggering mutation has committed and never
// fails the operation.
type Publisher interface {
	ToUser(userID primitive.ObjectID, ev realtime.Event)
	ToUsers(ids []primitive.ObjectID, ev realtime.Event)
	ToRoom(ctx context.Context, roomID primitive.ObjectID, ev realtime.Event)
	Broadcast(ev realtime.Event)
}

// PresenceView is the read-only slice of the presence registry the message
// path consults to decide whether a delivery counts as unread.
type PresenceView interface {
	IsOnline(userID primitive.ObjectID) bool
	IsViewing(userID, roomID primitive.ObjectID) bool
}
