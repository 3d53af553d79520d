package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/internal/services"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomHandler manages room CRUD, membership and history over HTTP. The same
// operations are reachable over the WebSocket command surface; both paths
// call the same services.
type RoomHandler struct {
	Rooms    *services.RoomService
	Messages *services.MessageService
	Unread   realtime.UnreadTracker
}

func NewRoomHandler(rooms *services.RoomService, messages *services.MessageService, unread realtime.UnreadTracker) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Messages: messages, Unread: unread}
}

// CreateRoomHandler creates a public or group room.
func (h *RoomHandler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	var cfg services.RoomConfig
	if err := decodeAndValidate(r, &cfg); err != nil {
		writeError(w, err)
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), userID, cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// ListRoomsHandler returns public rooms plus the caller's conversations.
func (h *RoomHandler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	rooms, err := h.Rooms.ListRooms(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

// JoinRoomHandler joins the caller to a room and clears its unread counter.
func (h *RoomHandler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	room, err := h.Rooms.JoinRoom(r.Context(), userID, roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Unread.ClearRoom(r.Context(), userID, roomID); err != nil {
		logger.Log.Warnf("Failed to clear unread for %s: %v", userID.Hex(), err)
	}

	writeJSON(w, http.StatusOK, room)
}

// LeaveRoomHandler removes the caller from a public or group room.
func (h *RoomHandler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	if err := h.Rooms.LeaveRoom(r.Context(), userID, roomID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left room"})
}

// RoomMessagesHandler returns a room's message history.
func (h *RoomHandler) RoomMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.ParseInt(raw, 10, 64)
	}

	messages, err := h.Messages.History(r.Context(), userID, roomID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// UnreadCountsHandler returns the caller's per-room and global unread
// counters.
func (h *RoomHandler) UnreadCountsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	rooms, total, err := h.Unread.Counts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"total": total,
	})
}
