package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendService enforces the request → accept/decline → friendship
// lifecycle. Every mutation commits first; events fan out afterwards.
type FriendService struct {
	users       UserStore
	requests    RequestStore
	friendships FriendshipStore
	rooms       RoomStore
	messages    MessageStore
	tx          TxRunner
	events      Publisher
}

// NewFriendService creates a new FriendService.
func NewFriendService(users UserStore, requests RequestStore, friendships FriendshipStore, rooms RoomStore, messages MessageStore, tx TxRunner, events Publisher) *FriendService {
	return &FriendService{
		users:       users,
		requests:    requests,
		friendships: friendships,
		rooms:       rooms,
		messages:    messages,
		tx:          tx,
		events:      events,
	}
}

// Relation values returned by Search.
const (
	RelationFriends = "friends"
	RelationPending = "pending"
	RelationNone    = "none"
)

// SearchResult describes the requester's relation to the user found by
// email. The client UI branches on Relation.
type SearchResult struct {
	User           models.PublicUser  `json:"user"`
	Relation       string             `json:"relation"`
	ConversationID primitive.ObjectID `json:"conversation_id,omitempty"`
	RequestID      primitive.ObjectID `json:"request_id,omitempty"`
	SentByMe       bool               `json:"sent_by_me,omitempty"`
}

// Search resolves a user by exact email and classifies the relation:
// already friends (with the shared room), pending request (with direction),
// or no relation. The requester can never find themselves.
func (s *FriendService) Search(ctx context.Context, requesterID primitive.ObjectID, email string) (*SearchResult, error) {
	if email == "" {
		return nil, apperr.InvalidArgumentf("email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.ID == requesterID {
		return nil, apperr.NotFoundf("no user found with that email")
	}

	result := &SearchResult{User: user.Public(), Relation: RelationNone}

	friendship, err := s.friendships.GetBetween(ctx, requesterID, user.ID)
	if err != nil {
		return nil, err
	}
	if friendship != nil {
		result.Relation = RelationFriends
		result.ConversationID = friendship.ConversationRoom
		return result, nil
	}

	pending, err := s.requests.GetPendingBetween(ctx, requesterID, user.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		result.Relation = RelationPending
		result.RequestID = pending.ID
		result.SentByMe = pending.SenderID == requesterID
	}

	return result, nil
}

// SendRequest creates a pending friend request and notifies the receiver.
// The pending-pair unique index backs the duplicate checks under concurrency.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperr.InvalidArgumentf("cannot send a friend request to yourself")
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		return nil, err
	}

	friendship, err := s.friendships.GetBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friendship != nil {
		return nil, apperr.Conflictf("you are already friends with this user")
	}

	pending, err := s.requests.GetPendingBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, apperr.Conflictf("a friend request is already pending between these users")
	}

	request, err := s.requests.CreateRequest(ctx, &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
	if err != nil {
		return nil, err
	}

	s.events.ToUser(receiverID, realtime.FriendRequestCreated{
		RequestID: request.ID,
		Sender:    sender.Public(),
		CreatedAt: request.CreatedAt,
	})

	logger.Log.Infof("User %s sent a friend request to %s", senderID.Hex(), receiverID.Hex())
	return request, nil
}

// Accept transitions a pending request to accepted and, atomically with it,
// creates the direct room, the friendship, the system welcome message and
// both friend-list entries. Of two concurrent accepts exactly one wins; the
// loser observes Conflict from the conditional transition.
func (s *FriendService) Accept(ctx context.Context, requestID, actingUserID primitive.ObjectID) (*models.Friendship, error) {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ReceiverID != actingUserID {
		return nil, apperr.Forbiddenf("only the receiver can accept this request")
	}
	if request.Status != models.RequestPending {
		return nil, apperr.Conflictf("this request has already been processed")
	}

	sender, err := s.users.GetUserByID(ctx, request.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.GetUserByID(ctx, request.ReceiverID)
	if err != nil {
		return nil, err
	}

	var (
		room       *models.Room
		friendship *models.Friendship
	)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		// The conditional pending→accepted transition decides the race;
		// everything after it only runs for the single winner.
		if err := s.requests.Resolve(txCtx, requestID, models.RequestAccepted); err != nil {
			return err
		}

		room, err = s.rooms.CreateRoom(txCtx, &models.Room{
			Name:      fmt.Sprintf("%s & %s", sender.Username, receiver.Username),
			RoomType:  models.RoomDirect,
			CreatorID: actingUserID,
			Members:   []primitive.ObjectID{sender.ID, receiver.ID},
			Admins:    []primitive.ObjectID{sender.ID, receiver.ID},
		})
		if err != nil {
			return err
		}

		friendship, err = s.friendships.Create(txCtx, sender.ID, receiver.ID, room.ID)
		if err != nil {
			return err
		}

		welcome, err := s.messages.InsertMessage(txCtx, &models.Message{
			SenderID:    actingUserID,
			RoomID:      room.ID,
			MessageType: models.MessageSystem,
			Content:     fmt.Sprintf("🎉 Your journey with %s begins here! Say hello and start chatting.", sender.Username),
		})
		if err != nil {
			return err
		}
		if err := s.rooms.SetLastMessage(txCtx, room.ID, welcome.ID); err != nil {
			return err
		}

		if err := s.users.AddFriend(txCtx, sender.ID, receiver.ID); err != nil {
			return err
		}
		return s.users.AddFriend(txCtx, receiver.ID, sender.ID)
	})
	if err != nil {
		return nil, err
	}

	summary := realtime.RoomSummary{ID: room.ID, Name: room.Name, RoomType: room.RoomType}
	s.events.ToUser(sender.ID, realtime.FriendRequestAccepted{
		RequestID:      requestID,
		AcceptedBy:     receiver.Public(),
		ConversationID: room.ID,
	})
	s.events.ToUser(sender.ID, realtime.FriendshipCreated{
		FriendshipID:   friendship.ID,
		Friend:         receiver.Public(),
		ConversationID: room.ID,
		Room:           summary,
	})
	s.events.ToUser(receiver.ID, realtime.FriendshipCreated{
		FriendshipID:   friendship.ID,
		Friend:         sender.Public(),
		ConversationID: room.ID,
		Room:           summary,
	})

	logger.Log.Infof("Friend request %s accepted, friendship %s created", requestID.Hex(), friendship.ID.Hex())
	return friendship, nil
}

// Decline transitions a pending request to declined and notifies the sender.
// No friendship or room is created.
func (s *FriendService) Decline(ctx context.Context, requestID, actingUserID primitive.ObjectID) error {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != actingUserID {
		return apperr.Forbiddenf("only the receiver can decline this request")
	}
	if request.Status != models.RequestPending {
		return apperr.Conflictf("this request has already been processed")
	}

	if err := s.requests.Resolve(ctx, requestID, models.RequestDeclined); err != nil {
		return err
	}

	receiver, err := s.users.GetUserByID(ctx, actingUserID)
	if err == nil {
		s.events.ToUser(request.SenderID, realtime.FriendRequestDeclined{
			RequestID:  requestID,
			DeclinedBy: receiver.Public(),
		})
	}

	return nil
}

// RemoveFriend deletes the friendship and both denormalized friend-list
// entries. The conversation room stays in place; membership is fixed so it
// simply goes dormant.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, otherUserID primitive.ObjectID) error {
	friendship, err := s.friendships.DeleteBetween(ctx, userID, otherUserID)
	if err != nil {
		return err
	}

	if err := s.users.RemoveFriend(ctx, userID, otherUserID); err != nil {
		return err
	}

	actor, err := s.users.GetUserByID(ctx, userID)
	if err == nil {
		s.events.ToUser(otherUserID, realtime.FriendshipRemoved{
			FriendshipID: friendship.ID,
			RemovedBy:    actor.Public(),
		})
	}

	logger.Log.Infof("User %s removed friend %s", userID.Hex(), otherUserID.Hex())
	return nil
}

// GetFriends projects the user's friendships into friend views carrying the
// shared conversation room.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.FriendView, error) {
	friendships, err := s.friendships.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friendships: %v", err)
	}
	if len(friendships) == 0 {
		return []models.FriendView{}, nil
	}

	friendIDs := make([]primitive.ObjectID, 0, len(friendships))
	for _, f := range friendships {
		friendIDs = append(friendIDs, f.FriendOf(userID))
	}

	users, err := s.users.GetUsersByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.FriendView, 0, len(friendships))
	for _, f := range friendships {
		friend, ok := byID[f.FriendOf(userID)]
		if !ok {
			continue
		}
		views = append(views, models.FriendView{
			PublicUser:     friend.Public(),
			ConversationID: f.ConversationRoom,
			FriendshipID:   f.ID,
			FriendsSince:   f.CreatedAt,
		})
	}

	return views, nil
}

// GetPendingRequests fetches all pending requests addressed to the user,
// with each sender's public profile attached.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID primitive.ObjectID) ([]PendingRequest, error) {
	requests, err := s.requests.GetPendingByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []PendingRequest{}, nil
	}

	senderIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, r := range requests {
		senderIDs = append(senderIDs, r.SenderID)
	}
	senders, err := s.users.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	out := make([]PendingRequest, 0, len(requests))
	for _, r := range requests {
		sender, ok := byID[r.SenderID]
		if !ok {
			continue
		}
		out = append(out, PendingRequest{
			RequestID: r.ID,
			Sender:    sender.Public(),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// PendingRequest is the pending-list projection.
type PendingRequest struct {
	RequestID primitive.ObjectID `json:"request_id"`
	Sender    models.PublicUser  `json:"sender"`
	CreatedAt time.Time          `json:"created_at"`
}
