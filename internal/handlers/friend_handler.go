package handlers

import (
	"net/http"

	"github.com/Dias221467/Chat_Server/internal/services"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/Dias221467/Chat_Server/pkg/middleware"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to friend requests and
// friendships.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

func actingUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return userID, true
}

type searchRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SearchUserHandler resolves a user by email and classifies the relation.
func (h *FriendHandler) SearchUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.Service.Search(r.Context(), userID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type sendRequestBody struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := actingUser(w, r)
	if !ok {
		return
	}

	var req sendRequestBody
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	request, err := h.Service.SendRequest(r.Context(), senderID, receiverID)
	if err != nil {
		logger.Log.Warnf("Failed to send friend request: %v", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// AcceptFriendRequestHandler accepts a pending request addressed to the
// caller.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	friendship, err := h.Service.Accept(r.Context(), requestID, userID)
	if err != nil {
		logger.Log.Warnf("Failed to accept friend request %s: %v", requestID.Hex(), err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"friendship":      friendship,
		"conversation_id": friendship.ConversationRoom,
	})
}

// DeclineFriendRequestHandler declines a pending request addressed to the
// caller.
func (h *FriendHandler) DeclineFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	requestID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.Decline(r.Context(), requestID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend request declined"})
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to get pending requests: %v", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// GetFriendsHandler returns the caller's friends with their conversation
// rooms.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch friends for user %s: %v", userID.Hex(), err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

// RemoveFriendHandler deletes the friendship with the given user.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	otherID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.RemoveFriend(r.Context(), userID, otherID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend removed successfully"})
}
