package services

import (
	"context"
	"testing"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type messageFixture struct {
	store    *fakeStore
	pub      *fakePublisher
	presence *fakePresence
	unread   *realtime.MemoryUnreadTracker
	svc      *MessageService
}

func newMessageFixture() *messageFixture {
	store := newFakeStore()
	pub := &fakePublisher{}
	presence := newFakePresence()
	unread := realtime.NewMemoryUnreadTracker()
	return &messageFixture{
		store:    store,
		pub:      pub,
		presence: presence,
		unread:   unread,
		svc:      NewMessageService(store, store, store, pub, presence, unread),
	}
}

func (f *messageFixture) addRoom(roomType string, members ...primitive.ObjectID) *models.Room {
	room := &models.Room{Name: "test room", RoomType: roomType, Members: members}
	room, _ = f.store.CreateRoom(context.Background(), room)
	return room
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	bob := f.store.addUser("bob", "bob@example.com")
	room := f.addRoom(models.RoomPublic, alice.ID, bob.ID)

	msg, err := f.svc.Send(ctx, alice.ID, room.ID, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.MessageType)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, msg.ID, f.store.rooms[room.ID].LastMessage)

	created := f.pub.byType("message_created")
	require.Len(t, created, 1)
	assert.Equal(t, room.ID, created[0].RoomID)
	ev := created[0].Event.(realtime.MessageCreated)
	assert.Equal(t, "alice", ev.Sender.Username)
}

func TestSendMessageInfersType(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	room := f.addRoom(models.RoomPublic, alice.ID)

	img, err := f.svc.Send(ctx, alice.ID, room.ID, "", &models.Attachment{URL: "http://x/a.png", FileType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageImage, img.MessageType)

	doc, err := f.svc.Send(ctx, alice.ID, room.ID, "", &models.Attachment{URL: "http://x/a.pdf", FileType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageFile, doc.MessageType)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	outsider := f.store.addUser("eve", "eve@example.com")
	room := f.addRoom(models.RoomGroup, alice.ID)

	// Non-member: forbidden, nothing stored, nothing published.
	_, err := f.svc.Send(ctx, outsider.ID, room.ID, "hi", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, f.store.messages)
	assert.Empty(t, f.pub.byType("message_created"))

	// Empty payload.
	_, err = f.svc.Send(ctx, alice.ID, room.ID, "   ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	// Unknown room.
	_, err = f.svc.Send(ctx, alice.ID, primitive.NewObjectID(), "hi", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSendMessageUnreadCounting(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	bob := f.store.addUser("bob", "bob@example.com")
	carol := f.store.addUser("carol", "carol@example.com")
	room := f.addRoom(models.RoomGroup, alice.ID, bob.ID, carol.ID)
	other := f.addRoom(models.RoomGroup, alice.ID, bob.ID)

	// Carol has the room focused; bob does not.
	f.presence.setViewing(carol.ID, room.ID)

	_, err := f.svc.Send(ctx, alice.ID, room.ID, "one", nil)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, alice.ID, room.ID, "two", nil)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, alice.ID, other.ID, "elsewhere", nil)
	require.NoError(t, err)

	// The sender and the viewing member accrue nothing.
	aliceRooms, aliceTotal, err := f.unread.Counts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, aliceTotal)
	assert.Empty(t, aliceRooms)

	n, err := f.unread.RoomCount(ctx, carol.ID, room.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Bob accrues per room.
	rooms, total, err := f.unread.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), rooms[room.ID.Hex()])
	assert.Equal(t, int64(1), rooms[other.ID.Hex()])

	// Focusing a room clears only that room.
	require.NoError(t, f.unread.ClearRoom(ctx, bob.ID, room.ID))
	rooms, total, err = f.unread.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.NotContains(t, rooms, room.ID.Hex())
}

func TestReact(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	bob := f.store.addUser("bob", "bob@example.com")
	room := f.addRoom(models.RoomGroup, alice.ID, bob.ID)

	msg, err := f.svc.Send(ctx, alice.ID, room.ID, "hello", nil)
	require.NoError(t, err)

	groups, err := f.svc.React(ctx, bob.ID, msg.ID, "👍")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "👍", groups[0].Emoji)
	assert.Equal(t, 1, groups[0].Count)

	groups, err = f.svc.React(ctx, alice.ID, msg.ID, "👍")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)

	// A second emoji from the same user replaces the first instead of
	// stacking.
	groups, err = f.svc.React(ctx, bob.ID, msg.ID, "❤️")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	byEmoji := map[string]models.ReactionGroup{}
	for _, g := range groups {
		byEmoji[g.Emoji] = g
	}
	assert.Equal(t, 1, byEmoji["👍"].Count)
	assert.ElementsMatch(t, []primitive.ObjectID{alice.ID}, byEmoji["👍"].UserIDs)
	assert.Equal(t, 1, byEmoji["❤️"].Count)
	assert.ElementsMatch(t, []primitive.ObjectID{bob.ID}, byEmoji["❤️"].UserIDs)

	changed := f.pub.byType("message_reaction_changed")
	require.Len(t, changed, 3)
	last := changed[2].Event.(realtime.MessageReactionChanged)
	assert.Equal(t, msg.ID, last.MessageID)
	assert.Equal(t, room.ID, last.RoomID)
}

func TestReactValidation(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	outsider := f.store.addUser("eve", "eve@example.com")
	room := f.addRoom(models.RoomGroup, alice.ID)

	msg, err := f.svc.Send(ctx, alice.ID, room.ID, "hello", nil)
	require.NoError(t, err)

	_, err = f.svc.React(ctx, alice.ID, msg.ID, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.React(ctx, outsider.ID, msg.ID, "👍")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.React(ctx, alice.ID, primitive.NewObjectID(), "👍")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture()
	alice := f.store.addUser("alice", "alice@example.com")
	outsider := f.store.addUser("eve", "eve@example.com")
	public := f.addRoom(models.RoomPublic, alice.ID)
	private := f.addRoom(models.RoomGroup, alice.ID)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.Send(ctx, alice.ID, public.ID, text, nil)
		require.NoError(t, err)
	}

	// Chronological order.
	msgs, err := f.svc.History(ctx, alice.ID, public.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)

	msgs, err = f.svc.History(ctx, alice.ID, public.ID, 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// Public history is readable by non-members; group history is not.
	_, err = f.svc.History(ctx, outsider.ID, public.ID, 0)
	assert.NoError(t, err)
	_, err = f.svc.History(ctx, outsider.ID, private.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
