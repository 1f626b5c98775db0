// Package realtime pushes ticket events to browsers over websockets.
//
// Clients join named rooms (ticket_{id}, dashboard, user_{member}, role_{role})
// and the hub fans each event out to the members of its room.
package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
)

const RoomDashboard = "dashboard"

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type envelope struct {
	room    string
	to      *Client
	exclude *Client
	msg     Message
}

type Hub struct {
	clients   map[*Client]struct{}
	rooms     map[string]map[*Client]struct{}
	broadcast chan envelope
	mu        sync.RWMutex
	logger    zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		rooms:     make(map[string]map[*Client]struct{}),
		broadcast: make(chan envelope, 256),
		logger:    logger.With().Str("component", "websocket-hub").Logger(),
	}
}

// RunWithContext delivers queued events until ctx ends, then closes every client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			h.logger.Info().Int("clients_closed", n).Msg("websocket hub stopped")
			return ctx.Err()
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Add registers a client. Rooms can only be joined by registered clients.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
	h.logger.Debug().Uint64("client_id", c.id).Str("member_id", c.MemberID).Int("total_clients", n).Msg("websocket client connected")
}

// Remove unregisters a client and closes its send channel. It is safe to call twice.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	h.dropLocked(c)
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
	h.logger.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client disconnected")
}

// dropLocked must be called with h.mu held.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	metrics.WebsocketClients.Set(0)
}

func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if env.to != nil {
		if _, ok := h.clients[env.to]; ok {
			h.sendLocked(env.to, env.msg)
		}
		return
	}

	members := h.rooms[env.room]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		if c != env.exclude {
			targets = append(targets, c)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, c := range targets {
		h.sendLocked(c, env.msg)
	}
}

func (h *Hub) sendLocked(c *Client, msg Message) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn().Uint64("client_id", c.id).Msg("websocket client too slow, dropping")
		h.dropLocked(c)
	}
}

// Join adds c to room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Emit queues an event for every client in room. Events are dropped when the
// broadcast queue is full.
func (h *Hub) Emit(room, eventType string, data any) {
	h.enqueue(envelope{room: room, msg: Message{Type: eventType, Data: data}})
}

// EmitExcept is Emit without echoing the event back to sender.
func (h *Hub) EmitExcept(room, eventType string, data any, sender *Client) {
	h.enqueue(envelope{room: room, exclude: sender, msg: Message{Type: eventType, Data: data}})
}

// Send queues an event for a single client.
func (h *Hub) Send(c *Client, eventType string, data any) {
	h.enqueue(envelope{to: c, msg: Message{Type: eventType, Data: data}})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.broadcast <- env:
	default:
		h.logger.Warn().Str("room", env.room).Str("event", env.msg.Type).Msg("broadcast channel full, dropping event")
	}
}
