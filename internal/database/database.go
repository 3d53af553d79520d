package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Chat_Server/internal/config"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB bundles the connected client and the application database. The client is
// needed separately because multi-document transactions start sessions on it.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectDB establishes the MongoDB connection and ensures all indexes the
// core's invariants rely on.
func ConnectDB(cfg *config.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %v", err)
	}

	db := &DB{
		Client:   client,
		Database: client.Database(cfg.DBName),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %v", err)
	}

	logger.Log.Info("Connected to MongoDB")
	return db, nil
}

// ensureIndexes creates the unique indexes the state machines depend on.
// These are the authoritative guards against the two write races: duplicate
// pending friend requests and duplicate friendships.
func (db *DB) ensureIndexes(ctx context.Context) error {
	users := db.Database.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %v", err)
	}

	// At most one pending request per unordered user pair. pair_key is the
	// canonical "lo:hi" form, so the index rejects the mirrored pair too.
	requests := db.Database.Collection("friend_requests")
	_, err = requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
		{
			Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("friend_requests indexes: %v", err)
	}

	// At most one friendship per unordered pair; user1 < user2 is enforced
	// by the repository before insert.
	friendships := db.Database.Collection("friendships")
	_, err = friendships.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user1", Value: 1}, {Key: "user2", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("friendships indexes: %v", err)
	}

	messages := db.Database.Collection("messages")
	_, err = messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("messages indexes: %v", err)
	}

	return nil
}
