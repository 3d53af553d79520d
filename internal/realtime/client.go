package realtime

import (
	"sync"
	"time"

	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

// Client is one live connection handle. All pushes go through a buffered
// channel drained by a single write pump, so events are delivered to the
// connection in the order they were enqueued.
type Client struct {
	UserID   primitive.ObjectID
	Username string

	conn *websocket.Conn
	send chan Envelope
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	viewing primitive.ObjectID
}

func NewClient(userID primitive.ObjectID, username string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan Envelope, sendBuffer),
		done:     make(chan struct{}),
	}
}

// Enqueue hands an event to the write pump without blocking. Delivery is
// best-effort: a full buffer or a closed connection drops the event.
func (c *Client) Enqueue(ev Event) {
	select {
	case <-c.done:
	case c.send <- Wrap(ev):
	default:
		logger.Log.WithField("userID", c.UserID.Hex()).
			Debugf("Dropping %s event, send buffer full", ev.EventType())
	}
}

// SetViewing records which room the connection currently has open. The zero
// ObjectID means no room is focused.
func (c *Client) SetViewing(roomID primitive.ObjectID) {
	c.mu.Lock()
	c.viewing = roomID
	c.mu.Unlock()
}

// Viewing returns the currently focused room.
func (c *Client) Viewing() primitive.ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewing
}

// Close tears the connection down; safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// WritePump serializes all writes to the connection and keeps it alive with
// pings. Run it in its own goroutine; it exits when the client is closed or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				logger.Log.WithField("userID", c.UserID.Hex()).
					Debugf("Write failed, closing connection: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
