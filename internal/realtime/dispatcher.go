package realtime

import (
	"context"

	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberResolver answers "who belongs to this room" — the audience source of
// truth. The room repository implements it.
type MemberResolver interface {
	GetMemberIDs(ctx context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Dispatcher routes domain events to live connections. Delivery is
// best-effort and fire-and-forget per recipient: offline users are skipped,
// failed pushes are dropped, and nothing here can fail the mutation that
// triggered the event. Callers invoke it only after their state change has
// committed.
type Dispatcher struct {
	registry *Registry
	members  MemberResolver
}

func NewDispatcher(registry *Registry, members MemberResolver) *Dispatcher {
	return &Dispatcher{registry: registry, members: members}
}

// ToUser pushes an event to a single user if connected.
func (d *Dispatcher) ToUser(userID primitive.ObjectID, ev Event) {
	if c := d.registry.Get(userID); c != nil {
		c.Enqueue(ev)
	}
}

// ToUsers pushes an event to each connected user in ids.
func (d *Dispatcher) ToUsers(ids []primitive.ObjectID, ev Event) {
	for _, id := range ids {
		d.ToUser(id, ev)
	}
}

// ToRoom resolves the room's member set and pushes the event to every member
// with a live connection. An audience-resolution failure is logged and the
// event is dropped; the triggering operation already committed.
func (d *Dispatcher) ToRoom(ctx context.Context, roomID primitive.ObjectID, ev Event) {
	members, err := d.members.GetMemberIDs(ctx, roomID)
	if err != nil {
		logger.Log.WithField("roomID", roomID.Hex()).
			Warnf("Audience resolution failed, dropping %s event: %v", ev.EventType(), err)
		return
	}
	d.ToUsers(members, ev)
}

// Broadcast pushes an event to every live connection (presence snapshots).
func (d *Dispatcher) Broadcast(ev Event) {
	for _, c := range d.registry.All() {
		c.Enqueue(ev)
	}
}
