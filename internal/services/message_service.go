package services

import (
	"context"
	"strings"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService appends to the per-room message log, aggregates reactions
// and feeds the unread tracker. Fan-out always happens after the store write.
type MessageService struct {
	messages MessageStore
	rooms    RoomStore
	users    UserStore
	events   Publisher
	presence PresenceView
	unread   realtime.UnreadTracker
}

func NewMessageService(messages MessageStore, rooms RoomStore, users UserStore, events Publisher, presence PresenceView, unread realtime.UnreadTracker) *MessageService {
	return &MessageService{
		messages: messages,
		rooms:    rooms,
		users:    users,
		events:   events,
		presence: presence,
		unread:   unread,
	}
}

// Send validates membership and payload, stores the message, advances the
// room's last-message pointer, broadcasts message_created to the room and
// increments unread counters for members not currently viewing it.
func (s *MessageService) Send(ctx context.Context, senderID, roomID primitive.ObjectID, content string, attachment *models.Attachment) (*models.Message, error) {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(senderID) {
		return nil, apperr.Forbiddenf("you are not a member of this room")
	}
	if strings.TrimSpace(content) == "" && attachment == nil {
		return nil, apperr.InvalidArgumentf("message needs text content or an attachment")
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.InsertMessage(ctx, &models.Message{
		SenderID:    senderID,
		RoomID:      roomID,
		MessageType: inferMessageType(attachment),
		Content:     content,
		Attachment:  attachment,
	})
	if err != nil {
		return nil, err
	}

	if err := s.rooms.SetLastMessage(ctx, roomID, msg.ID); err != nil {
		// The message is already committed; a stale pointer is tolerable.
		logger.Log.Warnf("Failed to advance last message for room %s: %v", roomID.Hex(), err)
	}

	s.events.ToRoom(ctx, roomID, realtime.MessageCreated{
		Message: msg,
		Sender:  sender.Public(),
	})

	for _, memberID := range room.Members {
		if memberID == senderID || s.presence.IsViewing(memberID, roomID) {
			continue
		}
		if err := s.unread.Add(ctx, memberID, roomID, msg.ID); err != nil {
			logger.Log.Warnf("Failed to record unread for user %s: %v", memberID.Hex(), err)
		}
	}

	return msg, nil
}

// React upserts the user's reaction on a message — a second emoji from the
// same user replaces the first — and broadcasts the updated per-emoji
// aggregate to the room.
func (s *MessageService) React(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) ([]models.ReactionGroup, error) {
	if emoji == "" {
		return nil, apperr.InvalidArgumentf("emoji is required")
	}

	msg, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetRoomByID(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, apperr.Forbiddenf("you are not a member of this room")
	}

	if err := s.messages.UpsertReaction(ctx, messageID, userID, emoji); err != nil {
		return nil, err
	}

	updated, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	groups := models.GroupReactions(updated.Reactions)

	s.events.ToRoom(ctx, msg.RoomID, realtime.MessageReactionChanged{
		MessageID: messageID,
		RoomID:    msg.RoomID,
		Reactions: groups,
	})

	return groups, nil
}

// History returns up to limit messages of a room in chronological order.
// Public rooms are readable by anyone; other rooms by members only.
func (s *MessageService) History(ctx context.Context, userID, roomID primitive.ObjectID, limit int64) ([]models.Message, error) {
	room, err := s.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoomType != models.RoomPublic && !room.HasMember(userID) {
		return nil, apperr.Forbiddenf("you are not a member of this room")
	}
	return s.messages.GetRoomMessages(ctx, roomID, limit)
}

func inferMessageType(attachment *models.Attachment) string {
	if attachment == nil {
		return models.MessageText
	}
	if strings.HasPrefix(attachment.FileType, "image") {
		return models.MessageImage
	}
	return models.MessageFile
}
