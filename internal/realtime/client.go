package realtime

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

var clientIDCounter atomic.Uint64

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Identity is the session member a connection belongs to.
type Identity struct {
	MemberID string
	Name     string
	Role     string
}

type Client struct {
	id    uint64
	hub   *Hub
	conn  *websocket.Conn
	send  chan Message
	rooms map[string]struct{}
	Identity
}

type inbound struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func NewClient(hub *Hub, conn *websocket.Conn, who Identity) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, 256),
		rooms:    make(map[string]struct{}),
		Identity: who,
	}
}

func (c *Client) ID() uint64 { return c.id }

// Serve registers the connection with the hub and starts its pumps.
func Serve(hub *Hub, conn *websocket.Conn, who Identity) *Client {
	c := NewClient(hub, conn, who)
	hub.Add(c)
	hub.Send(c, "connected", map[string]any{"status": "connected"})
	go c.writePump()
	go c.readPump()
	return c
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Debug().Err(err).Msg("ignoring malformed websocket message")
			continue
		}
		c.handle(msg)
	}
}

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func (c *Client) handle(msg inbound) {
	switch msg.Type {
	case "join_ticket":
		if id := str(msg.Data, "ticket_id"); id != "" {
			c.hub.Join(c, service.TicketRoom(id))
			c.hub.Send(c, "joined_ticket", map[string]any{"ticket_id": id})
		}
	case "leave_ticket":
		if id := str(msg.Data, "ticket_id"); id != "" {
			c.hub.Leave(c, service.TicketRoom(id))
		}
	case "join_dashboard":
		c.hub.Join(c, RoomDashboard)
		c.hub.Send(c, "joined_dashboard", map[string]any{"status": "joined"})
	case "join_user_room":
		if c.MemberID != "" {
			room := service.UserRoom(c.MemberID)
			c.hub.Join(c, room)
			c.hub.Send(c, "joined_user_room", map[string]any{"room": room, "user_id": c.MemberID})
		}
	case "join_role_room":
		if c.Role != "" {
			room := service.RoleRoom(c.Role)
			c.hub.Join(c, room)
			c.hub.Send(c, "joined_role_room", map[string]any{"room": room, "role": c.Role})
		}
	case "typing":
		id, name := str(msg.Data, "ticket_id"), str(msg.Data, "user_name")
		if id != "" && name != "" {
			c.hub.EmitExcept(service.TicketRoom(id), "typing", map[string]any{
				"ticket_id": id,
				"user_name": name,
				"user_id":   msg.Data["user_id"],
			}, c)
		}
	case "stop_typing":
		if id := str(msg.Data, "ticket_id"); id != "" {
			c.hub.EmitExcept(service.TicketRoom(id), "stop_typing", map[string]any{
				"ticket_id": id,
				"user_id":   msg.Data["user_id"],
			}, c)
		}
	case "ping":
		c.hub.Send(c, "pong", nil)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(message)
			if err != nil {
				c.hub.logger.Error().Err(err).Str("event", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
