package realtime

import (
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTypingTTL bounds how long a typing indicator can live without a
// refresh. Clients are supposed to send typing_stop, but the server does not
// trust them to.
const DefaultTypingTTL = 5 * time.Second

// TypingTracker keeps the per-room set of currently-typing users and
// notifies on every change. Each typing_start arms (or re-arms) a TTL timer
// that force-stops the indicator if the client never sends stop.
type TypingTracker struct {
	ttl    time.Duration
	notify func(roomID primitive.ObjectID, users []string)

	mu    sync.Mutex
	rooms map[primitive.ObjectID]map[string]*time.Timer
}

// NewTypingTracker creates a tracker; notify is called with the room's full
// typing-user list after every change. ttl <= 0 selects DefaultTypingTTL.
func NewTypingTracker(ttl time.Duration, notify func(roomID primitive.ObjectID, users []string)) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		ttl:    ttl,
		notify: notify,
		rooms:  make(map[primitive.ObjectID]map[string]*time.Timer),
	}
}

// Start marks username as typing in roomID, refreshing the TTL if already
// typing.
func (t *TypingTracker) Start(roomID primitive.ObjectID, username string) {
	t.mu.Lock()
	users, ok := t.rooms[roomID]
	if !ok {
		users = make(map[string]*time.Timer)
		t.rooms[roomID] = users
	}

	changed := false
	if timer, ok := users[username]; ok {
		timer.Reset(t.ttl)
	} else {
		users[username] = time.AfterFunc(t.ttl, func() {
			t.Stop(roomID, username)
		})
		changed = true
	}
	snapshot := typingNames(users)
	t.mu.Unlock()

	if changed {
		t.notify(roomID, snapshot)
	}
}

// Stop clears username's typing indicator in roomID. It is a no-op when the
// user was not typing, so the TTL expiry and an explicit client stop cannot
// double-notify.
func (t *TypingTracker) Stop(roomID primitive.ObjectID, username string) {
	t.mu.Lock()
	users, ok := t.rooms[roomID]
	if !ok {
		t.mu.Unlock()
		return
	}
	timer, ok := users[username]
	if !ok {
		t.mu.Unlock()
		return
	}
	timer.Stop()
	delete(users, username)
	if len(users) == 0 {
		delete(t.rooms, roomID)
	}
	snapshot := typingNames(users)
	t.mu.Unlock()

	t.notify(roomID, snapshot)
}

// Typing returns the room's current typing-user list.
func (t *TypingTracker) Typing(roomID primitive.ObjectID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return typingNames(t.rooms[roomID])
}

func typingNames(users map[string]*time.Timer) []string {
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
