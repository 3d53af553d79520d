package realtime

import (
	"sort"
	"sync"

	"github.com/Dias221467/Chat_Server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registry maps a user id to at most one live connection handle. It is
// process-local, advisory and fully reconstructable: a restart loses it and
// the persistent store stays correct.
type Registry struct {
	mu      sync.RWMutex
	clients map[primitive.ObjectID]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[primitive.ObjectID]*Client),
	}
}

// Connect records c as the user's live handle. If the user already had a
// connection the old handle is returned so the caller can close it; the last
// connection wins.
func (r *Registry) Connect(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[c.UserID]
	r.clients[c.UserID] = c
	return prev
}

// Disconnect clears the user's handle, but only when c is still the current
// one — a replaced connection disconnecting later must not evict its
// successor.
func (r *Registry) Disconnect(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.UserID] != c {
		return false
	}
	delete(r.clients, c.UserID)
	return true
}

// Get returns the user's live handle, or nil when offline.
func (r *Registry) Get(userID primitive.ObjectID) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// IsOnline reports whether the user has a live connection.
func (r *Registry) IsOnline(userID primitive.ObjectID) bool {
	return r.Get(userID) != nil
}

// IsViewing reports whether the user is connected and currently has roomID
// open. The unread tracker uses this to decide whether a delivery counts as
// unread.
func (r *Registry) IsViewing(userID, roomID primitive.ObjectID) bool {
	c := r.Get(userID)
	return c != nil && c.Viewing() == roomID
}

// All returns every live client.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

// Snapshot builds the online-users view broadcast on every connect and
// disconnect, sorted by username for stable output.
func (r *Registry) Snapshot() OnlineUsersSnapshot {
	clients := r.All()
	users := make([]OnlineUser, 0, len(clients))
	for _, c := range clients {
		users = append(users, OnlineUser{
			ID:       c.UserID,
			Username: c.Username,
			Status:   models.StatusOnline,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return OnlineUsersSnapshot{Users: users}
}
