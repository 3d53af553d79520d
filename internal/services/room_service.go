package services

import (
	"context"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomService owns room definitions and membership. Direct rooms are never
// created or mutated through here by clients; their lifecycle belongs to the
// friendship state machine.
type RoomService struct {
	rooms  RoomStore
	users  UserStore
	events Publisher
}

func NewRoomService(rooms RoomStore, users UserStore, events Publisher) *RoomService {
	return &RoomService{rooms: rooms, users: users, events: events}
}

// RoomConfig is the client-facing creation payload. InitialMembers carries
// user ids (hex) to seed a group room with; the creator is always included.
type RoomConfig struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	Description    string   `json:"description" validate:"max=500"`
	RoomType       string   `json:"room_type" validate:"omitempty,oneof=public group"`
	InitialMembers []string `json:"initial_members" validate:"omitempty,dive,len=24"`
}

// CreateRoom creates a public or group room with the creator as first member
// and admin. Direct rooms are rejected here to preserve the one-room-per-
// friendship invariant.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID primitive.ObjectID, cfg RoomConfig) (*models.Room, error) {
	if cfg.Name == "" {
		return nil, apperr.InvalidArgumentf("room name is required")
	}
	roomType := cfg.RoomType
	if roomType == "" {
		roomType = models.RoomPublic
	}
	if roomType == models.RoomDirect {
		return nil, apperr.Forbiddenf("direct rooms are created through friendship acceptance")
	}
	if roomType != models.RoomPublic && roomType != models.RoomGroup {
		return nil, apperr.InvalidArgumentf("unknown room type %q", roomType)
	}

	members := []primitive.ObjectID{creatorID}
	seen := map[primitive.ObjectID]bool{creatorID: true}
	for _, hex := range cfg.InitialMembers {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, apperr.InvalidArgumentf("invalid member id %q", hex)
		}
		if seen[id] {
			continue
		}
		if _, err := s.users.GetUserByID(ctx, id); err != nil {
			return nil, err
		}
		seen[id] = true
		members = append(members, id)
	}

	room, err := s.rooms.CreateRoom(ctx, &models.Room{
		Name:        cfg.Name,
		Description: cfg.Description,
		RoomType:    roomType,
		CreatorID:   creatorID,
		Members:     members,
		Admins:      []primitive.ObjectID{creatorID},
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("User %s created %s room %s", creatorID.Hex(), roomType, room.ID.Hex())
	return room, nil
}

// JoinRoom adds the user to a public or group room. Re-joining is a no-op,
// not an error. Joining a direct room is allowed only for its two fixed
// members, for whom it is also a no-op.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Room, error) {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.RoomType == models.RoomDirect {
		if !room.HasMember(userID) {
			return nil, apperr.Forbiddenf("direct rooms have a fixed member set")
		}
		return room, nil
	}

	if room.HasMember(userID) {
		return room, nil
	}

	if err := s.rooms.AddMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	room.Members = append(room.Members, userID)

	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		s.events.ToRoom(ctx, roomID, realtime.UserJoinedRoom{
			RoomID:   roomID,
			UserID:   userID,
			Username: user.Username,
		})
	}

	return room, nil
}

// LeaveRoom removes the user from a public or group room. Leaving a direct
// room is forbidden; its lifecycle is bound to the friendship.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.RoomType == models.RoomDirect {
		return apperr.Forbiddenf("cannot leave a direct conversation")
	}
	if !room.HasMember(userID) {
		return nil
	}

	if err := s.rooms.RemoveMember(ctx, roomID, userID); err != nil {
		return err
	}

	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		s.events.ToRoom(ctx, roomID, realtime.UserLeftRoom{
			RoomID:   roomID,
			UserID:   userID,
			Username: user.Username,
		})
	}

	return nil
}

// GetRoom returns a room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	return s.rooms.GetRoomByID(ctx, roomID)
}

// ListRooms returns the public rooms plus the user's own conversations.
func (s *RoomService) ListRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	return s.rooms.ListRoomsForUser(ctx, userID)
}
