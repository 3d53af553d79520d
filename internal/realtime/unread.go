package realtime

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnreadTracker keeps per-(user, room) unread state. Unread is modeled as the
// set of undelivered-to-view message ids, so counting the same message twice
// (a reconnect replaying a snapshot) is naturally idempotent. Opening a room
// clears only that room's set.
type UnreadTracker interface {
	// Add records messageID as unread for user in room.
	Add(ctx context.Context, userID, roomID, messageID primitive.ObjectID) error
	// ClearRoom zeroes the (user, room) entry.
	ClearRoom(ctx context.Context, userID, roomID primitive.ObjectID) error
	// RoomCount returns the unread count for one room.
	RoomCount(ctx context.Context, userID, roomID primitive.ObjectID) (int64, error)
	// Counts returns per-room counts keyed by room id hex plus the global
	// total.
	Counts(ctx context.Context, userID primitive.ObjectID) (map[string]int64, int64, error)
}

// MemoryUnreadTracker is the default, process-local implementation. State is
// lost on restart by design; the message store remains the durable truth.
type MemoryUnreadTracker struct {
	mu    sync.RWMutex
	rooms map[primitive.ObjectID]map[primitive.ObjectID]map[primitive.ObjectID]struct{}
}

func NewMemoryUnreadTracker() *MemoryUnreadTracker {
	return &MemoryUnreadTracker{
		rooms: make(map[primitive.ObjectID]map[primitive.ObjectID]map[primitive.ObjectID]struct{}),
	}
}

func (t *MemoryUnreadTracker) Add(_ context.Context, userID, roomID, messageID primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	byRoom, ok := t.rooms[userID]
	if !ok {
		byRoom = make(map[primitive.ObjectID]map[primitive.ObjectID]struct{})
		t.rooms[userID] = byRoom
	}
	msgs, ok := byRoom[roomID]
	if !ok {
		msgs = make(map[primitive.ObjectID]struct{})
		byRoom[roomID] = msgs
	}
	msgs[messageID] = struct{}{}
	return nil
}

func (t *MemoryUnreadTracker) ClearRoom(_ context.Context, userID, roomID primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if byRoom, ok := t.rooms[userID]; ok {
		delete(byRoom, roomID)
		if len(byRoom) == 0 {
			delete(t.rooms, userID)
		}
	}
	return nil
}

func (t *MemoryUnreadTracker) RoomCount(_ context.Context, userID, roomID primitive.ObjectID) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.rooms[userID][roomID])), nil
}

func (t *MemoryUnreadTracker) Counts(_ context.Context, userID primitive.ObjectID) (map[string]int64, int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int64)
	var total int64
	for roomID, msgs := range t.rooms[userID] {
		if len(msgs) == 0 {
			continue
		}
		counts[roomID.Hex()] = int64(len(msgs))
		total += int64(len(msgs))
	}
	return counts, total, nil
}
