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

// MessageRepository owns the append-only messages collection.
type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection("messages")}
}

// InsertMessage appends a message to the room's log.
func (r *MessageRepository) InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %v", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// GetMessageByID fetches a single message.
func (r *MessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("message %s does not exist", id.Hex())
		}
		return nil, fmt.Errorf("failed to find message: %v", err)
	}
	return &msg, nil
}

// GetRoomMessages returns up to limit messages for a room in chronological
// order.
func (r *MessageRepository) GetRoomMessages(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.Message, error) {
	filter := bson.M{"room_id": roomID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// UpsertReaction replaces the user's reaction on a message with emoji in a
// single atomic pipeline update: any prior entry by the same user is filtered
// out, then the new pair is appended. This is what keeps the one-emoji-per-
// user invariant under concurrent reactions.
func (r *MessageRepository) UpsertReaction(ctx context.Context, messageID, userID primitive.ObjectID, emoji string) error {
	update := bson.A{
		bson.M{"$set": bson.M{
			"reactions": bson.M{
				"$concatArrays": bson.A{
					bson.M{"$filter": bson.M{
						"input": bson.M{"$ifNull": bson.A{"$reactions", bson.A{}}},
						"as":    "r",
						"cond":  bson.M{"$ne": bson.A{"$$r.user_id", userID}},
					}},
					bson.A{bson.M{"user_id": userID, "emoji": emoji}},
				},
			},
		}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": messageID}, update)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("message %s does not exist", messageID.Hex())
	}
	return nil
}
