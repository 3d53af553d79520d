package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RedisUnreadTracker keeps unread sets in Redis so counters survive a
// gateway restart and are shared between gateway processes. Same set
// semantics as the in-memory tracker: SADD is idempotent per message id.
type RedisUnreadTracker struct {
	rdb *redis.Client
}

func NewRedisUnreadTracker(rdb *redis.Client) *RedisUnreadTracker {
	return &RedisUnreadTracker{rdb: rdb}
}

func unreadKey(userID, roomID primitive.ObjectID) string {
	return "unread:" + userID.Hex() + ":" + roomID.Hex()
}

func unreadIndexKey(userID primitive.ObjectID) string {
	return "unread-rooms:" + userID.Hex()
}

func (t *RedisUnreadTracker) Add(ctx context.Context, userID, roomID, messageID primitive.ObjectID) error {
	pipe := t.rdb.TxPipeline()
	pipe.SAdd(ctx, unreadKey(userID, roomID), messageID.Hex())
	pipe.SAdd(ctx, unreadIndexKey(userID), roomID.Hex())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record unread message: %v", err)
	}
	return nil
}

func (t *RedisUnreadTracker) ClearRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	pipe := t.rdb.TxPipeline()
	pipe.Del(ctx, unreadKey(userID, roomID))
	pipe.SRem(ctx, unreadIndexKey(userID), roomID.Hex())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear unread room: %v", err)
	}
	return nil
}

func (t *RedisUnreadTracker) RoomCount(ctx context.Context, userID, roomID primitive.ObjectID) (int64, error) {
	count, err := t.rdb.SCard(ctx, unreadKey(userID, roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}
	return count, nil
}

func (t *RedisUnreadTracker) Counts(ctx context.Context, userID primitive.ObjectID) (map[string]int64, int64, error) {
	roomIDs, err := t.rdb.SMembers(ctx, unreadIndexKey(userID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list unread rooms: %v", err)
	}

	counts := make(map[string]int64, len(roomIDs))
	var total int64
	for _, roomHex := range roomIDs {
		count, err := t.rdb.SCard(ctx, "unread:"+userID.Hex()+":"+roomHex).Result()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count unread messages: %v", err)
		}
		if count == 0 {
			continue
		}
		counts[roomHex] = count
		total += count
	}
	return counts, total, nil
}
