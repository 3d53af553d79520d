package services

import (
	"context"
	"sync"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory stand-in for all five Mongo repositories. It
// mirrors the store-level guarantees the services lean on: the unique
// pending-pair index, the conditional request transition and the unique
// friendship pair.
type fakeStore struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	requests    map[primitive.ObjectID]*models.FriendRequest
	friendships map[primitive.ObjectID]*models.Friendship
	rooms       map[primitive.ObjectID]*models.Room
	messages    map[primitive.ObjectID]*models.Message
	msgOrder    []primitive.ObjectID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[primitive.ObjectID]*models.User),
		requests:    make(map[primitive.ObjectID]*models.FriendRequest),
		friendships: make(map[primitive.ObjectID]*models.Friendship),
		rooms:       make(map[primitive.ObjectID]*models.Room),
		messages:    make(map[primitive.ObjectID]*models.Message),
	}
}

func (f *fakeStore) addUser(username, email string) *models.User {
	u := &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    email,
		Status:   models.StatusOffline,
	}
	f.users[u.ID] = u
	return u
}

// --- UserStore ---

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, apperr.Conflictf("a user with that email or username already exists")
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, apperr.NotFoundf("user %s does not exist", id.Hex())
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, apperr.NotFoundf("no user found with that email")
}

func (f *fakeStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) AddFriend(_ context.Context, userID, friendID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFoundf("user %s does not exist", userID.Hex())
	}
	for _, id := range u.Friends {
		if id == friendID {
			return nil
		}
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (f *fakeStore) RemoveFriend(_ context.Context, a, b primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	remove := func(userID, friendID primitive.ObjectID) {
		u, ok := f.users[userID]
		if !ok {
			return
		}
		for i, id := range u.Friends {
			if id == friendID {
				u.Friends = append(u.Friends[:i], u.Friends[i+1:]...)
				return
			}
		}
	}
	remove(a, b)
	remove(b, a)
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, userID primitive.ObjectID, status string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.Status = status
		u.LastSeen = lastSeen
	}
	return nil
}

func (f *fakeStore) TouchLastSeen(_ context.Context, userID primitive.ObjectID) error {
	return f.SetStatus(context.Background(), userID, f.users[userID].Status, time.Now())
}

// --- RequestStore ---

func (f *fakeStore) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairKey := models.PairKey(req.SenderID, req.ReceiverID)
	for _, r := range f.requests {
		if r.PairKey == pairKey && r.Status == models.RequestPending {
			return nil, apperr.Conflictf("a friend request is already pending between these users")
		}
	}
	req.ID = primitive.NewObjectID()
	req.PairKey = pairKey
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.requests[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, apperr.NotFoundf("friend request %s does not exist", id.Hex())
}

func (f *fakeStore) GetPendingByReceiver(_ context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FriendRequest
	for _, r := range f.requests {
		if r.ReceiverID == receiverID && r.Status == models.RequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPendingBetween(_ context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairKey := models.PairKey(a, b)
	for _, r := range f.requests {
		if r.PairKey == pairKey && r.Status == models.RequestPending {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Resolve(_ context.Context, id primitive.ObjectID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestPending {
		return apperr.Conflictf("this request has already been processed")
	}
	r.Status = status
	return nil
}

// --- FriendshipStore ---

func (f *fakeStore) Create(_ context.Context, user1, user2, roomID primitive.ObjectID) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.CanonicalPair(user1, user2)
	for _, fs := range f.friendships {
		if fs.User1 == lo && fs.User2 == hi {
			return nil, apperr.Conflictf("you are already friends with this user")
		}
	}
	fs := &models.Friendship{
		ID:               primitive.NewObjectID(),
		User1:            lo,
		User2:            hi,
		ConversationRoom: roomID,
		CreatedAt:        time.Now(),
	}
	f.friendships[fs.ID] = fs
	return fs, nil
}

func (f *fakeStore) GetBetween(_ context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.CanonicalPair(a, b)
	for _, fs := range f.friendships {
		if fs.User1 == lo && fs.User2 == hi {
			copy := *fs
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetAllForUser(_ context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Friendship
	for _, fs := range f.friendships {
		if fs.User1 == userID || fs.User2 == userID {
			out = append(out, *fs)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteBetween(_ context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.CanonicalPair(a, b)
	for id, fs := range f.friendships {
		if fs.User1 == lo && fs.User2 == hi {
			deleted := *fs
			delete(f.friendships, id)
			return &deleted, nil
		}
	}
	return nil, apperr.NotFoundf("friendship not found")
}

// --- RoomStore ---

func (f *fakeStore) CreateRoom(_ context.Context, room *models.Room) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = primitive.NewObjectID()
	room.CreatedAt = time.Now()
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeStore) GetRoomByID(_ context.Context, id primitive.ObjectID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, apperr.NotFoundf("room %s does not exist", id.Hex())
}

func (f *fakeStore) GetMemberIDs(ctx context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error) {
	room, err := f.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.Members, nil
}

func (f *fakeStore) ListRoomsForUser(_ context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Room
	for _, r := range f.rooms {
		if r.RoomType == models.RoomPublic || r.HasMember(userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) AddMember(_ context.Context, roomID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok {
		return apperr.NotFoundf("room %s does not exist", roomID.Hex())
	}
	if !r.HasMember(userID) {
		r.Members = append(r.Members, userID)
	}
	return nil
}

func (f *fakeStore) RemoveMember(_ context.Context, roomID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok {
		return apperr.NotFoundf("room %s does not exist", roomID.Hex())
	}
	for i, id := range r.Members {
		if id == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) SetLastMessage(_ context.Context, roomID, messageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[roomID]; ok {
		r.LastMessage = messageID
	}
	return nil
}

// --- MessageStore ---

func (f *fakeStore) InsertMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	f.messages[msg.ID] = msg
	f.msgOrder = append(f.msgOrder, msg.ID)
	return msg, nil
}

func (f *fakeStore) GetMessageByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[id]; ok {
		copy := *m
		copy.Reactions = append([]models.Reaction(nil), m.Reactions...)
		return &copy, nil
	}
	return nil, apperr.NotFoundf("message %s does not exist", id.Hex())
}

func (f *fakeStore) GetRoomMessages(_ context.Context, roomID primitive.ObjectID, limit int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, id := range f.msgOrder {
		m := f.messages[id]
		if m.RoomID == roomID {
			out = append(out, *m)
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertReaction(_ context.Context, messageID, userID primitive.ObjectID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return apperr.NotFoundf("message %s does not exist", messageID.Hex())
	}
	kept := m.Reactions[:0]
	for _, r := range m.Reactions {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	m.Reactions = append(kept, models.Reaction{UserID: userID, Emoji: emoji})
	return nil
}

// --- TxRunner ---

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Publisher ---

type sentEvent struct {
	UserID primitive.ObjectID
	RoomID primitive.ObjectID
	Event  realtime.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (p *fakePublisher) ToUser(userID primitive.ObjectID, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{UserID: userID, Event: ev})
}

func (p *fakePublisher) ToUsers(ids []primitive.ObjectID, ev realtime.Event) {
	for _, id := range ids {
		p.ToUser(id, ev)
	}
}

func (p *fakePublisher) ToRoom(_ context.Context, roomID primitive.ObjectID, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{RoomID: roomID, Event: ev})
}

func (p *fakePublisher) Broadcast(ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{Event: ev})
}

func (p *fakePublisher) byType(eventType string) []sentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []sentEvent
	for _, e := range p.events {
		if e.Event.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- PresenceView ---

type fakePresence struct {
	mu      sync.Mutex
	online  map[primitive.ObjectID]bool
	viewing map[primitive.ObjectID]primitive.ObjectID
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		online:  make(map[primitive.ObjectID]bool),
		viewing: make(map[primitive.ObjectID]primitive.ObjectID),
	}
}

func (p *fakePresence) IsOnline(userID primitive.ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) IsViewing(userID, roomID primitive.ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID] && p.viewing[userID] == roomID
}

func (p *fakePresence) setViewing(userID, roomID primitive.ObjectID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	p.viewing[userID] = roomID
}
