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

// FriendshipRepository owns the friendships collection.
type FriendshipRepository struct {
	collection *mongo.Collection
}

func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		collection: db.Collection("friendships"),
	}
}

// Create inserts a friendship in canonical pair order. The unique compound
// index on {user1, user2} rejects a second friendship for the same pair.
func (r *FriendshipRepository) Create(ctx context.Context, user1, user2, roomID primitive.ObjectID) (*models.Friendship, error) {
	lo, hi := models.CanonicalPair(user1, user2)
	friendship := &models.Friendship{
		User1:            lo,
		User2:            hi,
		ConversationRoom: roomID,
		CreatedAt:        time.Now(),
	}

	result, err := r.collection.InsertOne(ctx, friendship)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflictf("you are already friends with this user")
		}
		return nil, fmt.Errorf("failed to create friendship: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	friendship.ID = insertedID

	return friendship, nil
}

// GetBetween returns the friendship for an unordered pair, or nil when the
// users are not friends.
func (r *FriendshipRepository) GetBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	lo, hi := models.CanonicalPair(a, b)
	var friendship models.Friendship
	err := r.collection.FindOne(ctx, bson.M{"user1": lo, "user2": hi}).Decode(&friendship)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find friendship: %v", err)
	}
	return &friendship, nil
}

// GetAllForUser returns every friendship the user participates in, newest
// first.
func (r *FriendshipRepository) GetAllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"user1": userID},
			{"user2": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve friendships: %v", err)
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	for cursor.Next(ctx) {
		var f models.Friendship
		if err := cursor.Decode(&f); err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}

	return friendships, nil
}

// DeleteBetween removes the friendship for an unordered pair and returns the
// deleted record so the caller can detach the conversation room.
func (r *FriendshipRepository) DeleteBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	lo, hi := models.CanonicalPair(a, b)
	var friendship models.Friendship
	err := r.collection.FindOneAndDelete(ctx, bson.M{"user1": lo, "user2": hi}).Decode(&friendship)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("friendship not found")
		}
		return nil, fmt.Errorf("failed to delete friendship: %v", err)
	}
	return &friendship, nil
}
