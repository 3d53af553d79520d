package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FriendRepository owns the friend_requests collection.
type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("friend_requests"),
	}
}

// CreateRequest inserts a pending request. The partial unique index on
// {pair_key, status: pending} makes the concurrent-duplicate case lose here
// with a duplicate key error, which surfaces as Conflict.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	req.CreatedAt = time.Now()
	req.Status = models.RequestPending
	req.PairKey = models.PairKey(req.SenderID, req.ReceiverID)

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflictf("a friend request is already pending between these users")
		}
		return nil, fmt.Errorf("failed to create friend request: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

// GetRequestByID fetches a single request.
func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("friend request %s does not exist", id.Hex())
		}
		return nil, fmt.Errorf("failed to find friend request: %v", err)
	}
	return &request, nil
}

// GetPendingByReceiver fetches all pending requests addressed to a user,
// newest first.
func (r *FriendRepository) GetPendingByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{"receiver_id": receiverID, "status": models.RequestPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.FriendRequest
	for cursor.Next(ctx) {
		var req models.FriendRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, nil
}

// GetPendingBetween returns the pending request between two users in either
// direction, or nil when none exists.
func (r *FriendRepository) GetPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	filter := bson.M{"pair_key": models.PairKey(a, b), "status": models.RequestPending}
	err := r.collection.FindOne(ctx, filter).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending request: %v", err)
	}
	return &request, nil
}

// Resolve transitions a request from pending to status. The conditional
// filter makes concurrent accept/decline calls race safely: exactly one
// matches, the rest get Conflict.
func (r *FriendRepository) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperr.Conflictf("this request has already been processed")
	}
	return nil
}
