package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/internal/services"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	jwtutil "github.com/Dias221467/Chat_Server/pkg/jwt"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCommand is the inbound client command frame. Action selects the
// operation; unused fields stay empty.
type wsCommand struct {
	Action     string             `json:"action"`
	RoomID     string             `json:"room_id,omitempty"`
	MessageID  string             `json:"message_id,omitempty"`
	Content    string             `json:"content,omitempty"`
	Emoji      string             `json:"emoji,omitempty"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

// WSHandler is the gateway: it authenticates the connection, registers it
// with the presence registry and translates client commands into service
// calls. Command failures go back to the origin connection only, as
// operation_failed events.
type WSHandler struct {
	JWTSecret  string
	Registry   *realtime.Registry
	Dispatcher *realtime.Dispatcher
	Typing     *realtime.TypingTracker
	Unread     realtime.UnreadTracker
	Users      *services.UserService
	Rooms      *services.RoomService
	Messages   *services.MessageService
}

// ServeWS upgrades the connection and runs the per-connection state machine:
// Authenticating → Connected → Disconnected.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.Warnf("WebSocket auth failed: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := realtime.NewClient(userID, claims.Username, conn)
	go client.WritePump()

	// Last connection wins; a replaced handle is closed and its in-flight
	// fan-out is dropped.
	if prev := h.Registry.Connect(client); prev != nil {
		prev.Close()
	}

	if err := h.Users.SetPresence(r.Context(), userID, models.StatusOnline); err != nil {
		logger.Log.Warnf("Failed to persist online status for %s: %v", userID.Hex(), err)
	}
	h.Dispatcher.Broadcast(h.Registry.Snapshot())

	logger.Log.WithField("userID", userID.Hex()).Info("WebSocket connected")

	defer func() {
		client.Close()
		if h.Registry.Disconnect(client) {
			if err := h.Users.SetPresence(context.Background(), userID, models.StatusOffline); err != nil {
				logger.Log.Warnf("Failed to persist offline status for %s: %v", userID.Hex(), err)
			}
			h.Dispatcher.Broadcast(h.Registry.Snapshot())
		}
		logger.Log.WithField("userID", userID.Hex()).Info("WebSocket disconnected")
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debugf("WebSocket read error: %v", err)
			}
			return
		}
		h.handleCommand(r.Context(), client, cmd)
	}
}

func (h *WSHandler) handleCommand(ctx context.Context, client *realtime.Client, cmd wsCommand) {
	var err error
	switch cmd.Action {
	case "join_room":
		err = h.joinRoom(ctx, client, cmd.RoomID)
	case "leave_room":
		err = h.leaveRoom(ctx, client, cmd.RoomID)
	case "send_message":
		err = h.sendMessage(ctx, client, cmd)
	case "add_reaction":
		err = h.addReaction(ctx, client, cmd)
	case "typing_start", "typing_stop":
		err = h.typing(ctx, client, cmd)
	default:
		client.Enqueue(realtime.OperationFailed{
			Kind:    "invalid_argument",
			Message: "unknown action " + cmd.Action,
		})
		return
	}
	if err != nil {
		client.Enqueue(realtime.OperationFailed{
			Kind:    apperr.Kind(err),
			Message: err.Error(),
		})
	}
}

// joinRoom joins (idempotently) and focuses the room: the unread counter for
// it zeroes and further deliveries there stop counting as unread.
func (h *WSHandler) joinRoom(ctx context.Context, client *realtime.Client, roomHex string) error {
	roomID, err := parseID(roomHex, "room_id")
	if err != nil {
		return err
	}
	if _, err := h.Rooms.JoinRoom(ctx, client.UserID, roomID); err != nil {
		return err
	}
	client.SetViewing(roomID)
	if err := h.Unread.ClearRoom(ctx, client.UserID, roomID); err != nil {
		logger.Log.Warnf("Failed to clear unread for %s: %v", client.UserID.Hex(), err)
	}
	// Late joiners get the room's current typing state.
	client.Enqueue(realtime.UserTyping{RoomID: roomID, Users: h.Typing.Typing(roomID)})
	return nil
}

func (h *WSHandler) leaveRoom(ctx context.Context, client *realtime.Client, roomHex string) error {
	roomID, err := parseID(roomHex, "room_id")
	if err != nil {
		return err
	}
	if err := h.Rooms.LeaveRoom(ctx, client.UserID, roomID); err != nil {
		return err
	}
	if client.Viewing() == roomID {
		client.SetViewing(primitive.NilObjectID)
	}
	h.Typing.Stop(roomID, client.Username)
	return nil
}

func (h *WSHandler) sendMessage(ctx context.Context, client *realtime.Client, cmd wsCommand) error {
	roomID, err := parseID(cmd.RoomID, "room_id")
	if err != nil {
		return err
	}
	_, err = h.Messages.Send(ctx, client.UserID, roomID, cmd.Content, cmd.Attachment)
	return err
}

func (h *WSHandler) addReaction(ctx context.Context, client *realtime.Client, cmd wsCommand) error {
	messageID, err := parseID(cmd.MessageID, "message_id")
	if err != nil {
		return err
	}
	_, err = h.Messages.React(ctx, client.UserID, messageID, cmd.Emoji)
	return err
}

func (h *WSHandler) typing(ctx context.Context, client *realtime.Client, cmd wsCommand) error {
	roomID, err := parseID(cmd.RoomID, "room_id")
	if err != nil {
		return err
	}
	if cmd.Action == "typing_start" {
		h.Typing.Start(roomID, client.Username)
	} else {
		h.Typing.Stop(roomID, client.Username)
	}
	return nil
}
