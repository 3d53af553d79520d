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

// RoomRepository owns the rooms collection; it is the source of truth the
// dispatcher queries to resolve an event's audience.
type RoomRepository struct {
	collection *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{
		collection: db.Collection("rooms"),
	}
}

// CreateRoom inserts a room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room *models.Room) (*models.Room, error) {
	room.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	room.ID = insertedID

	return room, nil
}

// GetRoomByID fetches a room.
func (r *RoomRepository) GetRoomByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFoundf("room %s does not exist", id.Hex())
		}
		return nil, fmt.Errorf("failed to find room: %v", err)
	}
	return &room, nil
}

// GetMemberIDs returns the member set of a room. This is the audience
// resolution read path, kept narrow on purpose.
func (r *RoomRepository) GetMemberIDs(ctx context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error) {
	room, err := r.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.Members, nil
}

// ListRoomsForUser returns public rooms plus every room the user is a member
// of (their direct conversations included).
func (r *RoomRepository) ListRoomsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"room_type": models.RoomPublic},
			{"members": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %v", err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	for cursor.Next(ctx) {
		var room models.Room
		if err := cursor.Decode(&room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// AddMember adds userID to the room's member set (no-op when already there).
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$addToSet": bson.M{"members": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to add room member: %v", err)
	}
	return nil
}

// RemoveMember removes userID from the room's member and admin sets.
func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$pull": bson.M{"members": userID, "admins": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove room member: %v", err)
	}
	return nil
}

// SetLastMessage advances the room's most-recent-message pointer.
func (r *RoomRepository) SetLastMessage(ctx context.Context, roomID, messageID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"last_message": messageID}},
	)
	if err != nil {
		return fmt.Errorf("failed to set last message: %v", err)
	}
	return nil
}

// CountRooms reports how many rooms exist (used by the seeder).
func (r *RoomRepository) CountRooms(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %v", err)
	}
	return count, nil
}
